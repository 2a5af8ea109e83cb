//go:build !gocv

package image

import (
	"image"

	"layer-canvas/pkg/geometry"
)

func resample(src *image.NRGBA, size geometry.Size, magnify bool) *image.NRGBA {
	return drawResample(src, size, magnify)
}
