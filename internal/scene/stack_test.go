package scene

import (
	"image"
	"image/color"
	"testing"

	layerimage "layer-canvas/internal/image"
	"layer-canvas/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	buf := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(buf.Pix); i += 4 {
		buf.Pix[i+0] = c.R
		buf.Pix[i+1] = c.G
		buf.Pix[i+2] = c.B
		buf.Pix[i+3] = c.A
	}
	return buf
}

func rgbAt(img *image.RGBA, x, y int) [3]uint8 {
	c := img.RGBAAt(x, y)
	return [3]uint8{c.R, c.G, c.B}
}

var (
	red      = color.NRGBA{R: 255, A: 255}
	halfBlue = color.NRGBA{B: 255, A: 128}
	white    = [3]uint8{255, 255, 255}
)

func TestEmptyStack(t *testing.T) {
	s := NewStack()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, geometry.Size{}, s.Extent())
	require.NotNil(t, s.Raster())
	assert.True(t, s.Raster().Rect.Empty())
	assert.Nil(t, s.Selected())
}

func TestOverlappingLayers(t *testing.T) {
	s := NewStack()
	a, err := s.AddLayer(solid(64, 64, red))
	require.NoError(t, err)
	b, err := s.AddLayer(solid(64, 64, halfBlue))
	require.NoError(t, err)
	require.True(t, s.Move(b, geometry.NewInt2(32, 32)))

	assert.Equal(t, 0, s.Layer(a).Depth)
	assert.Equal(t, 1, s.Layer(b).Depth)
	assert.Equal(t, geometry.NewSize(96, 96), s.Extent())

	alpha := 128.0 / 255
	raster := s.Raster()
	assert.Equal(t, [3]uint8{255, 0, 0}, rgbAt(raster, 0, 0))
	assert.Equal(t, [3]uint8{
		layerimage.BlendValue(0, 255, alpha, layerimage.BlendNormal),
		0,
		layerimage.BlendValue(255, 0, alpha, layerimage.BlendNormal),
	}, rgbAt(raster, 48, 48))

	// Outside the red layer the blue one blends over the white backdrop.
	assert.Equal(t, [3]uint8{
		layerimage.BlendValue(0, 255, alpha, layerimage.BlendNormal),
		layerimage.BlendValue(0, 255, alpha, layerimage.BlendNormal),
		255,
	}, rgbAt(raster, 80, 80))

	// Uncovered corner stays white.
	assert.Equal(t, white, rgbAt(raster, 80, 10))
	assert.Equal(t, uint8(255), raster.RGBAAt(80, 10).A)
}

func TestDepthOrder(t *testing.T) {
	s := NewStack()
	a, err := s.AddLayer(solid(4, 4, red))
	require.NoError(t, err)
	b, err := s.AddLayer(solid(4, 4, color.NRGBA{G: 255, A: 255}))
	require.NoError(t, err)

	assert.Equal(t, [3]uint8{0, 255, 0}, rgbAt(s.Raster(), 1, 1))

	s.SetDepth(a, 5)
	assert.Equal(t, [3]uint8{255, 0, 0}, rgbAt(s.Raster(), 1, 1))

	// Equal depths keep insertion order.
	s.SetDepth(b, 5)
	assert.Equal(t, [3]uint8{0, 255, 0}, rgbAt(s.Raster(), 1, 1))

	byDepth := s.ByDepth()
	require.Len(t, byDepth, 2)
	assert.Equal(t, a, byDepth[0].ID)
}

func TestInvisibleLayers(t *testing.T) {
	s := NewStack()
	a, err := s.AddLayer(solid(10, 10, red))
	require.NoError(t, err)
	b, err := s.AddLayer(solid(20, 5, color.NRGBA{B: 255, A: 255}))
	require.NoError(t, err)

	assert.Equal(t, geometry.NewSize(20, 10), s.Extent())

	s.SetVisible(b, false)
	assert.Equal(t, geometry.NewSize(10, 10), s.Extent())
	assert.Equal(t, [3]uint8{255, 0, 0}, rgbAt(s.Raster(), 0, 0))

	s.SetVisible(a, false)
	assert.Equal(t, geometry.Size{}, s.Extent())
	assert.True(t, s.Raster().Rect.Empty())
}

func TestOffCanvasLayer(t *testing.T) {
	s := NewStack()
	_, err := s.AddLayer(solid(10, 10, red))
	require.NoError(t, err)
	b, err := s.AddLayer(solid(10, 10, color.NRGBA{G: 255, A: 255}))
	require.NoError(t, err)

	// Partly off the top-left edge.
	require.True(t, s.Move(b, geometry.NewInt2(-5, -5)))
	assert.Equal(t, geometry.NewSize(10, 10), s.Extent())
	assert.Equal(t, [3]uint8{0, 255, 0}, rgbAt(s.Raster(), 4, 4))
	assert.Equal(t, [3]uint8{255, 0, 0}, rgbAt(s.Raster(), 5, 5))

	// Entirely outside.
	require.True(t, s.Move(b, geometry.NewInt2(-20, 0)))
	assert.Equal(t, [3]uint8{255, 0, 0}, rgbAt(s.Raster(), 0, 0))
}

func TestDifferenceBlend(t *testing.T) {
	s := NewStack()
	_, err := s.AddLayer(solid(2, 2, color.NRGBA{R: 200, G: 100, B: 0, A: 255}))
	require.NoError(t, err)
	b, err := s.AddLayer(solid(2, 2, color.NRGBA{R: 50, G: 150, B: 30, A: 255}))
	require.NoError(t, err)

	require.NoError(t, s.SetBlendMode(b, layerimage.BlendDifference))
	assert.Equal(t, [3]uint8{150, 50, 30}, rgbAt(s.Raster(), 1, 1))

	assert.ErrorIs(t, s.SetBlendMode(b, layerimage.BlendMode(9)), layerimage.ErrUnsupportedBlendMode)
	assert.Equal(t, layerimage.BlendDifference, s.Layer(b).BlendMode)
}

func TestUpdateLayer(t *testing.T) {
	s := NewStack()
	a, err := s.AddLayer(solid(2, 2, red))
	require.NoError(t, err)

	require.NoError(t, s.UpdateLayer(a, 3, layerimage.BlendDifference, false))
	l := s.Layer(a)
	assert.Equal(t, 3, l.Depth)
	assert.Equal(t, layerimage.BlendDifference, l.BlendMode)
	assert.False(t, l.Visible)
	assert.Equal(t, geometry.Size{}, s.Extent())

	assert.ErrorIs(t, s.UpdateLayer(a, 0, layerimage.BlendMode(-1), true), layerimage.ErrUnsupportedBlendMode)
	assert.NoError(t, s.UpdateLayer(99, 0, layerimage.BlendNormal, true))
}

func TestLayerNamesAndInfo(t *testing.T) {
	s := NewStack()
	a, err := s.AddLayer(solid(1, 1, red))
	require.NoError(t, err)
	b, err := s.AddLayer(solid(1, 1, red))
	require.NoError(t, err)

	assert.Equal(t, "Background", s.Layer(a).Name)
	assert.Equal(t, "Layer 2", s.Layer(b).Name)

	s.SetName(b, "Overlay")
	s.SetPositionFixed(b, true)
	assert.Equal(t, "Overlay", s.Layer(b).Name)
	assert.True(t, s.Layer(b).PositionFixed)

	assert.False(t, s.Move(b, geometry.NewInt2(1, 1)), "locked layers do not move")
	assert.Equal(t, geometry.Int2{}, s.Layer(b).Position)

	s.UpdateLayerInfo(42, LayerInfo{}) // unknown id is a no-op
}

func TestIDRecycling(t *testing.T) {
	s := NewStack()
	ids := make([]int, 3)
	for i := range ids {
		id, err := s.AddLayer(solid(1, 1, red))
		require.NoError(t, err)
		ids[i] = id
	}
	assert.Equal(t, []int{0, 1, 2}, ids)

	s.RemoveLayer(0)
	s.RemoveLayer(2)
	assert.Nil(t, s.Layer(0))

	next, err := s.AddLayer(solid(1, 1, red))
	require.NoError(t, err)
	assert.Equal(t, 2, next, "most recently released id first")
	next, err = s.AddLayer(solid(1, 1, red))
	require.NoError(t, err)
	assert.Equal(t, 0, next)
	next, err = s.AddLayer(solid(1, 1, red))
	require.NoError(t, err)
	assert.Equal(t, 3, next)
}

func TestFailedAddReleasesID(t *testing.T) {
	s := NewStack()
	_, err := s.AddPixels(2, 2, 2, make([]uint8, 8))
	assert.ErrorIs(t, err, layerimage.ErrUnsupportedChannels)

	_, err = s.AddLayer(nil)
	assert.Error(t, err)

	id, err := s.AddPixels(1, 1, 3, []uint8{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0, id)
}

func TestSelection(t *testing.T) {
	s := NewStack()
	a, err := s.AddLayer(solid(1, 1, red))
	require.NoError(t, err)
	assert.Equal(t, a, s.Selected().ID, "new layers are selected")

	b, err := s.AddLayer(solid(1, 1, red))
	require.NoError(t, err)
	s.Select(a)
	assert.Equal(t, a, s.Selected().ID)

	s.RemoveLayer(a)
	assert.Nil(t, s.Selected())

	s.Select(b)
	s.Select(77)
	assert.Nil(t, s.Selected())

	s.Select(b)
	s.ClearSelection()
	assert.Nil(t, s.Selected())
}

func TestStackApplyScale(t *testing.T) {
	s := NewStack()
	a, err := s.AddLayer(solid(10, 6, red))
	require.NoError(t, err)
	require.True(t, s.Move(a, geometry.NewInt2(3, 3)))

	require.NoError(t, s.ApplyScale(2))
	assert.Equal(t, geometry.NewSize(26, 18), s.Extent())

	// Layers added later pick up the current scale.
	b, err := s.AddLayer(solid(20, 1, red))
	require.NoError(t, err)
	assert.Equal(t, geometry.NewSize(40, 2), s.Layer(b).ScaledSize())
	assert.Equal(t, geometry.NewSize(40, 18), s.Extent())

	assert.ErrorIs(t, s.ApplyScale(0), layerimage.ErrInvalidScale)
	assert.Equal(t, 2.0, s.Scale())
}

func TestUpdateImage(t *testing.T) {
	s := NewStack()
	a, err := s.AddLayer(solid(2, 2, red))
	require.NoError(t, err)

	require.NoError(t, s.UpdateImage(a, solid(5, 4, red)))
	assert.Equal(t, geometry.NewSize(5, 4), s.Extent())
	assert.NoError(t, s.UpdateImage(123, solid(1, 1, red)))
}

func TestStackThumbnail(t *testing.T) {
	s := NewStack()
	a, err := s.AddLayer(solid(8, 8, red))
	require.NoError(t, err)

	th := s.Thumbnail(a, 4, 4)
	require.NotNil(t, th)
	assert.Equal(t, image.Rect(0, 0, 4, 4), th.Rect)
	assert.Nil(t, s.Thumbnail(99, 4, 4))
}
