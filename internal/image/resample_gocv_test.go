//go:build gocv

package image

import (
	"testing"

	"layer-canvas/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCVResampleSizes(t *testing.T) {
	src := checker(5, 4)
	out := resample(src, geometry.NewSize(2, 2), false)
	assert.Equal(t, 2, out.Rect.Dx())
	assert.Equal(t, 2, out.Rect.Dy())
	assert.Len(t, out.Pix, 2*2*4)
}

func TestOpenCVMagnifyMatchesNearest(t *testing.T) {
	src := checker(3, 3)
	size := geometry.NewSize(6, 6)
	assert.Equal(t, drawResample(src, size, true).Pix, resample(src, size, true).Pix)
}

func TestOpenCVApplyScaleRoundTrip(t *testing.T) {
	l, err := NewLayer(0, checker(5, 4), 1)
	require.NoError(t, err)
	color0, alpha0 := l.Planes()
	color0 = append([]uint8(nil), color0...)
	alpha0 = append([]uint8(nil), alpha0...)

	for _, s := range []float64{0.23, 1.76, 0.05, 2} {
		require.NoError(t, l.ApplyScale(s))
		assert.Equal(t, l.Size().CeilScale(s), l.ScaledSize())
	}
	require.NoError(t, l.ApplyScale(1))

	color1, alpha1 := l.Planes()
	assert.Equal(t, color0, color1)
	assert.Equal(t, alpha0, alpha1)
}

func TestOpenCVApplyScaleIdempotent(t *testing.T) {
	l, err := NewLayer(0, checker(7, 7), 1)
	require.NoError(t, err)

	require.NoError(t, l.ApplyScale(0.4))
	c1, a1 := l.Planes()
	c1 = append([]uint8(nil), c1...)
	a1 = append([]uint8(nil), a1...)

	require.NoError(t, l.ApplyScale(0.4))
	c2, a2 := l.Planes()
	assert.Equal(t, c1, c2)
	assert.Equal(t, a1, a2)
}
