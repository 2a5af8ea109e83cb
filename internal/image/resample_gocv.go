//go:build gocv

package image

import (
	"image"
	"log/slog"

	"layer-canvas/pkg/geometry"

	"gocv.io/x/gocv"
)

// resample scales src to size with OpenCV. Magnification uses
// nearest-neighbour; minification uses bilinear filtering. If OpenCV cannot
// take the buffer the x/image scaler is used instead.
func resample(src *image.NRGBA, size geometry.Size, magnify bool) *image.NRGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	packed := cloneBuffer(src)
	in, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC4, packed.Pix)
	if err != nil {
		slog.Warn("resample: opencv rejected buffer, using x/image", "width", w, "height", h, "err", err)
		return drawResample(src, size, magnify)
	}
	defer in.Close()

	out := gocv.NewMat()
	defer out.Close()

	flags := gocv.InterpolationLinear
	if magnify {
		flags = gocv.InterpolationNearestNeighbor
	}
	gocv.Resize(in, &out, image.Pt(size.Width, size.Height), 0, 0, flags)

	pix := out.ToBytes()
	dst := image.NewNRGBA(image.Rect(0, 0, size.Width, size.Height))
	if len(pix) != len(dst.Pix) {
		slog.Warn("resample: unexpected opencv output, using x/image", "got", len(pix), "want", len(dst.Pix))
		return drawResample(src, size, magnify)
	}
	copy(dst.Pix, pix)
	return dst
}
