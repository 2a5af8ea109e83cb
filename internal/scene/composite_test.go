package scene

import (
	"testing"

	layerimage "layer-canvas/internal/image"
	"layer-canvas/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtentIgnoresNegativeAndHidden(t *testing.T) {
	a, err := layerimage.NewLayer(0, solid(10, 10, red), 1)
	require.NoError(t, err)
	a.Position = geometry.NewInt2(-30, -30)

	assert.Equal(t, geometry.Size{}, Extent([]*layerimage.Layer{a}))

	b, err := layerimage.NewLayer(1, solid(4, 6, red), 1)
	require.NoError(t, err)
	b.Position = geometry.NewInt2(2, 1)
	assert.Equal(t, geometry.NewSize(6, 7), Extent([]*layerimage.Layer{a, b, nil}))

	b.Visible = false
	assert.Equal(t, geometry.Size{}, Extent([]*layerimage.Layer{a, b}))
}

func TestCompositeLeavesInputOrder(t *testing.T) {
	a, err := layerimage.NewLayer(0, solid(2, 2, red), 1)
	require.NoError(t, err)
	a.Depth = 9
	b, err := layerimage.NewLayer(1, solid(2, 2, halfBlue), 1)
	require.NoError(t, err)

	layers := []*layerimage.Layer{a, b}
	raster, ext := Composite(layers)
	assert.Equal(t, geometry.NewSize(2, 2), ext)
	assert.Equal(t, [3]uint8{255, 0, 0}, rgbAt(raster, 0, 0))
	assert.Same(t, a, layers[0])
}

func TestScrollRegion(t *testing.T) {
	tests := []struct {
		name         string
		extent, view geometry.Size
		want         geometry.Box
	}{
		{"empty", geometry.Size{}, geometry.Size{}, geometry.NewBox(0, 0, 0, 0)},
		{"no content", geometry.Size{}, geometry.NewSize(100, 60), geometry.NewBox(-100, -60, 100, 60)},
		{"content smaller", geometry.NewSize(20, 20), geometry.NewSize(100, 100), geometry.NewBox(-90, -90, 110, 110)},
		{"content larger", geometry.NewSize(100, 100), geometry.NewSize(50, 50), geometry.NewBox(-25, -25, 125, 125)},
		{"odd sizes", geometry.NewSize(7, 7), geometry.NewSize(3, 3), geometry.NewBox(-2, -2, 9, 9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScrollRegion(tt.extent, tt.view)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.Width(), tt.view.Width)
			assert.GreaterOrEqual(t, got.Height(), tt.view.Height)
		})
	}
}
