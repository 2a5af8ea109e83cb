// Package image provides pixel buffers, image layers, compositing primitives
// and image loading.
package image

import (
	"errors"
	"fmt"
	"image"

	"layer-canvas/pkg/geometry"
)

// ErrInvalidScale is returned for a non-positive scale factor.
var ErrInvalidScale = errors.New("scale must be positive")

// Layer represents a single image layer in the canvas.
type Layer struct {
	ID            int
	Name          string
	Depth         int           // Draw order, lower first
	BlendMode     BlendMode     // How the layer combines with those below
	Visible       bool          // Invisible layers are skipped entirely
	PositionFixed bool          // Drag and nudge edits are ignored when set
	Position      geometry.Int2 // Top-left in unscaled scene coordinates

	raw   *image.NRGBA  // Owned, straight alpha
	size  geometry.Size // Unscaled size of raw
	scale float64       // Last applied scale

	// Derived planes at the current scale.
	scaledSize geometry.Size
	color      []uint8 // RGB, 3 bytes per pixel
	alpha      []uint8 // 1 byte per pixel
}

// NewLayer creates a visible Normal layer owning a copy of buf, with its
// planes built at the given scale.
func NewLayer(id int, buf *image.NRGBA, scale float64) (*Layer, error) {
	l := &Layer{
		ID:        id,
		Visible:   true,
		BlendMode: BlendNormal,
		scale:     scale,
	}
	if err := l.UpdateImage(buf); err != nil {
		return nil, err
	}
	return l, nil
}

// UpdateImage replaces the raw image and rebuilds the planes at the last
// applied scale.
func (l *Layer) UpdateImage(buf *image.NRGBA) error {
	if buf == nil || buf.Rect.Empty() {
		return ErrEmptyImage
	}
	if l.scale <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidScale, l.scale)
	}
	l.raw = cloneBuffer(buf)
	l.size = geometry.NewSize(buf.Rect.Dx(), buf.Rect.Dy())
	return l.ApplyScale(l.scale)
}

// ApplyScale rebuilds the color and alpha planes for scale s. The planes are
// always resampled from the raw image, so repeated calls do not drift and
// scale 1 restores the exact unscaled pixels.
func (l *Layer) ApplyScale(s float64) error {
	if s <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidScale, s)
	}
	l.scale = s
	l.scaledSize = l.size.CeilScale(s)

	src := l.raw
	if s != 1.0 {
		src = resample(l.raw, l.scaledSize, s > 1.0)
	}
	l.color, l.alpha = splitPlanes(src)
	return nil
}

// splitPlanes separates an RGBA buffer into packed RGB and alpha planes.
func splitPlanes(buf *image.NRGBA) (rgb, alpha []uint8) {
	w, h := buf.Rect.Dx(), buf.Rect.Dy()
	rgb = make([]uint8, w*h*3)
	alpha = make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := buf.Pix[buf.PixOffset(buf.Rect.Min.X, buf.Rect.Min.Y+y):]
		for x := 0; x < w; x++ {
			i := y*w + x
			rgb[i*3+0] = row[x*4+0]
			rgb[i*3+1] = row[x*4+1]
			rgb[i*3+2] = row[x*4+2]
			alpha[i] = row[x*4+3]
		}
	}
	return rgb, alpha
}

// Image returns the raw unscaled image. Callers must not modify it.
func (l *Layer) Image() *image.NRGBA {
	return l.raw
}

// Scale returns the last applied scale.
func (l *Layer) Scale() float64 {
	return l.scale
}

// Width returns the unscaled image width in pixels.
func (l *Layer) Width() int {
	return l.size.Width
}

// Height returns the unscaled image height in pixels.
func (l *Layer) Height() int {
	return l.size.Height
}

// Size returns the unscaled image dimensions.
func (l *Layer) Size() geometry.Size {
	return l.size
}

// ScaledSize returns the dimensions of the color and alpha planes.
func (l *Layer) ScaledSize() geometry.Size {
	return l.scaledSize
}

// ScaledPosition returns the top-left corner at the current scale.
func (l *Layer) ScaledPosition() geometry.Int2 {
	return l.Position.CeilScale(l.scale)
}

// ScaledBounds returns the layer footprint at the current scale.
func (l *Layer) ScaledBounds() geometry.Box {
	p := l.ScaledPosition()
	return geometry.Box{
		Min: p,
		Max: geometry.Int2{X: p.X + l.scaledSize.Width, Y: p.Y + l.scaledSize.Height},
	}
}

// Planes returns the scaled color (RGB) and alpha planes. Row strides are
// ScaledSize().Width*3 and ScaledSize().Width bytes respectively.
func (l *Layer) Planes() (color, alpha []uint8) {
	return l.color, l.alpha
}

// PixelAt returns the scaled RGB and alpha values at (x, y) in plane
// coordinates. Out-of-range coordinates report ok == false.
func (l *Layer) PixelAt(x, y int) (rgb [3]uint8, a uint8, ok bool) {
	w, h := l.scaledSize.Width, l.scaledSize.Height
	if x < 0 || y < 0 || x >= w || y >= h {
		return rgb, 0, false
	}
	i := y*w + x
	copy(rgb[:], l.color[i*3:i*3+3])
	return rgb, l.alpha[i], true
}
