package image

import (
	"image"

	"layer-canvas/pkg/geometry"

	"golang.org/x/image/draw"
)

// drawResample scales src to size with x/image/draw. Magnification uses
// nearest-neighbour to keep pixel edges crisp; minification uses bilinear
// filtering.
func drawResample(src *image.NRGBA, size geometry.Size, magnify bool) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size.Width, size.Height))

	var interp draw.Interpolator = draw.BiLinear
	if magnify {
		interp = draw.NearestNeighbor
	}

	// Viewing the NRGBA storage as RGBA makes the scaler interpolate every
	// channel independently, so straight alpha stays straight.
	interp.Scale(rgbaView(dst), dst.Rect, rgbaView(src), src.Rect, draw.Src, nil)
	return dst
}

func rgbaView(n *image.NRGBA) *image.RGBA {
	return &image.RGBA{Pix: n.Pix, Stride: n.Stride, Rect: n.Rect}
}
