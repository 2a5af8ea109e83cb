package image

import (
	"image"

	"layer-canvas/pkg/colorutil"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/draw"
)

// Default thumbnail dimensions used by the layer panel.
const (
	ThumbnailWidth  = 50
	ThumbnailHeight = 37
)

// Thumbnail returns a width x height opaque preview of buf. The image is
// downscaled with its aspect ratio preserved and centred on white. Alpha is
// discarded so transparent regions show their raw color.
func Thumbnail(buf *image.NRGBA, width, height int) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(colorutil.White), image.Point{}, draw.Src)
	if buf == nil || buf.Rect.Empty() || width <= 0 || height <= 0 {
		return canvas
	}

	srcW, srcH := buf.Rect.Dx(), buf.Rect.Dy()
	fx := float64(width) / float64(srcW)
	fy := float64(height) / float64(srcH)
	f := min(fx, fy)

	w := max(int(float64(srcW)*f), 1)
	h := max(int(float64(srcH)*f), 1)

	small := transform.Resize(opaque(buf), w, h, transform.Linear)

	at := image.Pt((width-w)/2, (height-h)/2)
	draw.Draw(canvas, image.Rectangle{Min: at, Max: at.Add(image.Pt(w, h))}, small, image.Point{}, draw.Src)
	return canvas
}

// opaque returns a copy of buf with every alpha set to 255.
func opaque(buf *image.NRGBA) *image.NRGBA {
	out := cloneBuffer(buf)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return out
}
