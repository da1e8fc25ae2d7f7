package cv

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/banshee-data/blink/internal/detection"
	"github.com/banshee-data/blink/internal/frameloop"
)

// InputSize is the square input the MobileNet SSD expects.
const InputSize = 300

// Net is a loaded detection network.
type Net struct {
	net gocv.Net
}

// OpenNet loads the network from its weights and its text graph.
func OpenNet(weightsPath, configPath string) (*Net, error) {
	net := gocv.ReadNet(weightsPath, configPath)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("load network from %s and %s: empty network", weightsPath, configPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)
	return &Net{net: net}, nil
}

// Infer runs one forward pass over f. The frame is resized to 300x300
// without channel swap, cropping or mean subtraction.
func (n *Net) Infer(ctx context.Context, f frameloop.Frame) (detection.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame, ok := f.(*Frame)
	if !ok {
		return nil, fmt.Errorf("unsupported frame type %T", f)
	}

	blob := gocv.BlobFromImage(*frame.Mat(), 1.0, image.Pt(InputSize, InputSize), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	n.net.SetInput(blob, "")
	out := n.net.Forward("")
	defer out.Close()

	if out.Empty() {
		return nil, fmt.Errorf("forward pass returned no output")
	}
	dims := out.Size()
	if len(dims) != 4 || dims[3] != detection.SSDValuesPerDetection {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	values, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return detection.ParseSSDOutput(values, dims[2])
}

// Close releases the network.
func (n *Net) Close() error {
	return n.net.Close()
}
