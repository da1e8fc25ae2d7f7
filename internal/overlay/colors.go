package overlay

import (
	"image/color"
	"math/rand/v2"
	"sort"
	"time"
)

// ColorTable maps class ids to box colours. It is filled once at startup
// and only read afterwards, so it is safe for concurrent readers.
type ColorTable struct {
	colors map[int]color.RGBA
}

// NewColorTable assigns a pseudo-random colour to every id. Each channel is
// drawn from [0, 255). A seed of 0 seeds from the current time.
func NewColorTable(ids []int, seed uint64) *ColorTable {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	t := &ColorTable{colors: make(map[int]color.RGBA, len(sorted))}
	for _, id := range sorted {
		if _, ok := t.colors[id]; ok {
			continue
		}
		t.colors[id] = color.RGBA{
			R: uint8(rng.IntN(255)),
			G: uint8(rng.IntN(255)),
			B: uint8(rng.IntN(255)),
			A: 255,
		}
	}
	return t
}

// Color returns the colour for id.
func (t *ColorTable) Color(id int) (color.RGBA, bool) {
	if t == nil {
		return color.RGBA{}, false
	}
	c, ok := t.colors[id]
	return c, ok
}

// Len returns the number of classes with a colour.
func (t *ColorTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.colors)
}
