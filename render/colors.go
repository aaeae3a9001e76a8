package render

import (
	"image/color"

	"github.com/mazznoer/colorgrad"
	"github.com/pkg/errors"
)

// fill colors outside the data ramp
var (
	backgroundColor = "#F0F0F0"
	noDataColor     = color.RGBA{0xE6, 0xE6, 0xE6, 0xFF}
	edgeColor       = color.RGBA{0x40, 0x40, 0x40, 0xFF}
	outlineColor    = color.RGBA{0x20, 0x20, 0x20, 0xFF}
	textColor       = color.RGBA{0x20, 0x20, 0x20, 0xFF}
)

// Ramp maps a normalized [0, 1] position to a color.
type Ramp struct {
	grad     colorgrad.Gradient
	reversed bool
}

// RampByName returns one of the supported colormaps. A "_r" suffix
// reverses the ramp, matching the matplotlib naming for the source
// data ("RdYlBu_r").
func RampByName(name string) (Ramp, error) {
	reversed := false
	if len(name) > 2 && name[len(name)-2:] == "_r" {
		reversed = true
		name = name[:len(name)-2]
	}
	var grad colorgrad.Gradient
	switch name {
	case "", "viridis":
		grad = colorgrad.Viridis()
	case "rdylbu", "RdYlBu":
		grad = colorgrad.RdYlBu()
	case "spectral", "Spectral":
		grad = colorgrad.Spectral()
	case "rdylgn", "RdYlGn":
		grad = colorgrad.RdYlGn()
	default:
		return Ramp{}, errors.Errorf("unknown colormap %q", name)
	}
	return Ramp{grad: grad, reversed: reversed}, nil
}

// At returns the ramp color for t in [0, 1], clamped.
func (r Ramp) At(t float64) color.Color {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if r.reversed {
		t = 1 - t
	}
	return r.grad.At(t)
}
