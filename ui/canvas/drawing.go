package canvas

import (
	"image"
	"image/color"

	"layer-canvas/pkg/geometry"
)

// selectionColor marks the selected layer's outline.
var selectionColor = color.RGBA{R: 255, G: 255, B: 0, A: 255}

// drawSelectionOutline draws a dashed rectangle just inside box, which is in
// output coordinates. Parts outside output are skipped.
func drawSelectionOutline(output *image.RGBA, box geometry.Box) {
	if box.Empty() {
		return
	}
	x1, y1 := box.Min.X, box.Min.Y
	x2, y2 := box.Max.X-1, box.Max.Y-1

	for x := x1; x <= x2; x++ {
		dashPixel(output, x, y1)
		dashPixel(output, x, y2)
	}
	for y := y1; y <= y2; y++ {
		dashPixel(output, x1, y)
		dashPixel(output, x2, y)
	}
}

// dashPixel sets (x, y) when it falls on a dash of a 4 pixel pattern, with
// the gaps drawn black so the outline shows on any background.
func dashPixel(output *image.RGBA, x, y int) {
	if !(image.Point{X: x, Y: y}).In(output.Rect) {
		return
	}
	if (x+y)%4 < 2 {
		output.SetRGBA(x, y, selectionColor)
	} else {
		output.SetRGBA(x, y, color.RGBA{A: 255})
	}
}
