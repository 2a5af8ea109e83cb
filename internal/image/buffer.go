package image

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

var (
	// ErrUnsupportedChannels is returned for pixel data that is not 1, 3 or
	// 4 channels per pixel.
	ErrUnsupportedChannels = errors.New("unsupported channel count")

	// ErrEmptyImage is returned for pixel data without any pixels.
	ErrEmptyImage = errors.New("empty image")
)

// NewBuffer builds a straight-alpha RGBA buffer from row-major 8-bit pixel
// data with the given channel count. Grayscale and RGB input are promoted to
// RGBA with full alpha.
func NewBuffer(width, height, channels int, pix []uint8) (*image.NRGBA, error) {
	switch channels {
	case 1, 3, 4:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChannels, channels)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyImage, width, height)
	}
	if want := width * height * channels; len(pix) < want {
		return nil, fmt.Errorf("pixel data too short: got %d bytes, want %d", len(pix), want)
	}

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	n := width * height
	switch channels {
	case 4:
		copy(out.Pix, pix[:n*4])
	case 3:
		for i := 0; i < n; i++ {
			out.Pix[i*4+0] = pix[i*3+0]
			out.Pix[i*4+1] = pix[i*3+1]
			out.Pix[i*4+2] = pix[i*3+2]
			out.Pix[i*4+3] = 255
		}
	case 1:
		for i := 0; i < n; i++ {
			v := pix[i]
			out.Pix[i*4+0] = v
			out.Pix[i*4+1] = v
			out.Pix[i*4+2] = v
			out.Pix[i*4+3] = 255
		}
	}
	return out, nil
}

// FromImage converts any decoded image to a straight-alpha RGBA buffer with
// its origin at (0, 0). An *image.NRGBA already at the origin is copied.
func FromImage(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyImage, b.Dx(), b.Dy())
	}
	if n, ok := img.(*image.NRGBA); ok {
		return cloneBuffer(n), nil
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out, nil
}

// cloneBuffer returns a copy of buf at the origin with its own pixel storage.
// Rows are copied byte for byte so straight alpha is not round-tripped
// through premultiplied color.
func cloneBuffer(buf *image.NRGBA) *image.NRGBA {
	w, h := buf.Rect.Dx(), buf.Rect.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := buf.Pix[buf.PixOffset(buf.Rect.Min.X, buf.Rect.Min.Y+y):]
		copy(out.Pix[y*out.Stride:y*out.Stride+w*4], src[:w*4])
	}
	return out
}
