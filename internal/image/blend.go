package image

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"layer-canvas/pkg/colorutil"
)

// ErrUnsupportedBlendMode is returned when a blend mode cannot be composited.
var ErrUnsupportedBlendMode = errors.New("unsupported blend mode")

// BlendMode specifies how a layer is composited onto the layers below it.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendDifference
)

// BlendModes lists every supported mode in display order.
var BlendModes = []BlendMode{BlendNormal, BlendDifference}

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "Normal"
	case BlendDifference:
		return "Difference"
	default:
		return "Unknown"
	}
}

// Validate returns ErrUnsupportedBlendMode for modes the compositor cannot draw.
func (m BlendMode) Validate() error {
	switch m {
	case BlendNormal, BlendDifference:
		return nil
	}
	return fmt.Errorf("%w: %d", ErrUnsupportedBlendMode, int(m))
}

// ParseBlendMode maps a display name back to its mode.
func ParseBlendMode(name string) (BlendMode, error) {
	for _, m := range BlendModes {
		if strings.EqualFold(m.String(), name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedBlendMode, name)
}

// BlendModeNames returns the display names of BlendModes.
func BlendModeNames() []string {
	names := make([]string, len(BlendModes))
	for i, m := range BlendModes {
		names[i] = m.String()
	}
	return names
}

// BlendValue blends a single channel. alpha is the source opacity in [0, 1].
func BlendValue(src, dst uint8, alpha float64, mode BlendMode) uint8 {
	s, d := float64(src), float64(dst)
	switch mode {
	case BlendDifference:
		return colorutil.ClampByte(math.Abs(d - s*alpha))
	default:
		return colorutil.ClampByte(s*alpha + d*(1-alpha))
	}
}

// BlendRow composites one span of pixels. dst holds RGBA pixels (4 bytes
// each, alpha left untouched), src holds RGB pixels (3 bytes each) and alpha
// one byte per pixel. The span length is len(alpha).
func BlendRow(dst, src, alpha []uint8, mode BlendMode) {
	n := len(alpha)
	dst = dst[:n*4]
	src = src[:n*3]

	switch mode {
	case BlendDifference:
		for i := 0; i < n; i++ {
			a := float64(alpha[i]) / 255
			d, s := dst[i*4:i*4+3], src[i*3:i*3+3]
			d[0] = colorutil.ClampByte(math.Abs(float64(d[0]) - float64(s[0])*a))
			d[1] = colorutil.ClampByte(math.Abs(float64(d[1]) - float64(s[1])*a))
			d[2] = colorutil.ClampByte(math.Abs(float64(d[2]) - float64(s[2])*a))
		}
	default:
		for i := 0; i < n; i++ {
			d, s := dst[i*4:i*4+3], src[i*3:i*3+3]
			switch alpha[i] {
			case 255:
				copy(d, s)
			case 0:
			default:
				a := float64(alpha[i]) / 255
				inv := 1 - a
				d[0] = colorutil.ClampByte(float64(s[0])*a + float64(d[0])*inv)
				d[1] = colorutil.ClampByte(float64(s[1])*a + float64(d[1])*inv)
				d[2] = colorutil.ClampByte(float64(s[2])*a + float64(d[2])*inv)
			}
		}
	}
}
