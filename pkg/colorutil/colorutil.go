// Package colorutil provides shared color utilities for the layer canvas.
package colorutil

import (
	"image/color"
)

// Common colors used throughout the application.
var (
	White = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	// CanvasBackground fills the scroll region outside the composited scene.
	CanvasBackground = color.NRGBA{R: 0xCF, G: 0xCF, B: 0xCF, A: 255}
)

// FromRGB builds an opaque color from a 3-element RGB triple.
func FromRGB(rgb [3]uint8) color.NRGBA {
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}
}

// ClampByte converts a float channel value to a byte, rounding to nearest and
// clamping to [0, 255].
func ClampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
