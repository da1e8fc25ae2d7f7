// Package overlay draws detection boxes, class labels and the inference
// latency readout onto a frame for the operator display.
//
// Drawing goes through the Canvas interface so the same Renderer serves the
// OpenCV window and the headless in-memory canvas.
package overlay
