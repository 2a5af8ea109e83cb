package viewport

import (
	"image"
	"image/color"
	"testing"

	"layer-canvas/internal/scene"
	"layer-canvas/pkg/colorutil"
	"layer-canvas/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func opaqueRed(w, h int) *image.NRGBA {
	buf := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(buf.Pix); i += 4 {
		buf.Pix[i+0] = 255
		buf.Pix[i+3] = 255
	}
	return buf
}

// newTestController returns a 200x100 viewport showing one 100x100 layer at
// 100%. Its horizontal scroll region is [-150, 250] and vertical [-50, 150].
func newTestController(t *testing.T) (*Controller, int) {
	t.Helper()
	c, err := New(Options{
		OverlayPosition: r2.Vec{X: 10, Y: 10},
		OverlaySize:     r2.Vec{X: 50, Y: 40},
	})
	require.NoError(t, err)
	c.Resize(200, 100)
	id, err := c.AddLayer(opaqueRed(100, 100))
	require.NoError(t, err)
	return c, id
}

func TestNewDefaults(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, 100.0, c.ZoomPercent())
	assert.Equal(t, 1.0, c.ZoomFraction())
	assert.Equal(t, len(DefaultZoomTable), c.ZoomTable().Len())
	assert.True(t, c.Enabled())
	assert.Equal(t, GestureNone, c.Gesture())
	assert.Equal(t, 0, c.Stack().Len())
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Options{ZoomTable: []float64{50, 25}})
	assert.ErrorIs(t, err, ErrInvalidZoomTable)

	_, err = New(Options{ZoomTable: []float64{50, 200}, DefaultZoom: 100})
	assert.ErrorIs(t, err, ErrInvalidZoomTable)

	c, err := New(Options{ZoomTable: []float64{50, 200}, DefaultZoom: 200})
	require.NoError(t, err)
	assert.Equal(t, 2.0, c.Stack().Scale())
}

func TestScrollRegionFollowsScene(t *testing.T) {
	c, id := newTestController(t)
	assert.Equal(t, geometry.NewBox(-150, -50, 250, 150), c.ScrollRegion())

	c.RemoveLayer(id)
	assert.Equal(t, geometry.NewBox(-200, -100, 200, 100), c.ScrollRegion())
}

func TestScrollTo(t *testing.T) {
	c, _ := newTestController(t)

	comp := c.ScrollTo(AxisX, 0)
	assert.Equal(t, r2.Vec{X: -150}, comp)
	assert.Equal(t, -150.0, c.Origin().X)
	assert.Equal(t, geometry.Span{Min: 0, Max: 0.5}, c.XView())

	// Past the end clamps so the view stays inside the region.
	c.ScrollTo(AxisX, 1)
	assert.Equal(t, 50.0, c.Origin().X)
	assert.Equal(t, geometry.Span{Min: 0.5, Max: 1}, c.XView())

	c.ScrollTo(AxisY, 0.25)
	assert.Equal(t, 0.0, c.Origin().Y)
	assert.Equal(t, geometry.Span{Min: 0.25, Max: 0.75}, c.YView())
}

func TestWheel(t *testing.T) {
	c, _ := newTestController(t)

	comp := c.Wheel(1, 0)
	assert.Equal(t, r2.Vec{Y: -10}, comp, "wheel up scrolls up by a tenth of the view")
	assert.Equal(t, r2.Vec{X: 0, Y: -10}, c.Origin())

	comp = c.Wheel(-3, ModShift)
	assert.Equal(t, r2.Vec{X: 20}, comp)
	assert.Equal(t, r2.Vec{X: 20, Y: -10}, c.Origin())

	idx := c.ZoomIndex()
	c.Wheel(1, ModControl)
	assert.Equal(t, idx+1, c.ZoomIndex())
	c.Wheel(-1, ModControl|ModShift)
	assert.Equal(t, idx, c.ZoomIndex())

	assert.Equal(t, r2.Vec{}, c.Wheel(0, 0))
}

func TestWheelClampsAtRegionEdge(t *testing.T) {
	c, _ := newTestController(t)
	for i := 0; i < 20; i++ {
		c.Wheel(1, 0)
	}
	assert.Equal(t, -50.0, c.Origin().Y)
	assert.Equal(t, r2.Vec{}, c.Wheel(1, 0))
}

func TestZoomClampedAtMaximum(t *testing.T) {
	c, _ := newTestController(t)
	last := c.ZoomTable().Len() - 1
	c.SetZoomIndex(last)
	require.Equal(t, 2.0, c.Stack().Scale())
	ext := c.Stack().Extent()

	comp := c.Wheel(1, ModControl)
	assert.Equal(t, r2.Vec{}, comp)
	assert.Equal(t, last, c.ZoomIndex())
	assert.Equal(t, 2.0, c.Stack().Scale())
	assert.Equal(t, ext, c.Stack().Extent())

	c.SetZoomIndex(-4)
	assert.Equal(t, 0, c.ZoomIndex())
	c.ZoomOut()
	assert.Equal(t, 0, c.ZoomIndex())
}

func TestZoomAtLeftEdgeKeepsOverlay(t *testing.T) {
	c, _ := newTestController(t)
	c.ScrollTo(AxisX, 0)
	before := c.Overlay().Position

	comp := c.ZoomIn()
	assert.Equal(t, 112.0, c.ZoomPercent())
	assert.Equal(t, geometry.NewSize(112, 112), c.Stack().Extent())

	// Region grew from [-150, 250] to [-144, 256]; the view stays on its
	// left edge.
	assert.Equal(t, float64(c.ScrollRegion().Min.X), c.Origin().X)
	assert.Equal(t, 6.0, comp.X)
	assert.Equal(t, before, c.Overlay().Position)
}

func TestZoomAtRightEdgeStaysPinned(t *testing.T) {
	c, _ := newTestController(t)
	c.ScrollTo(AxisX, 1)
	require.Equal(t, 50.0, c.Origin().X)

	comp := c.ZoomIn()
	region := c.ScrollRegion()
	assert.Equal(t, float64(region.Max.X-200), c.Origin().X)
	assert.Equal(t, 6.0, comp.X)
}

func TestZoomAbsorbsPanResidueAtLeftEdge(t *testing.T) {
	c, _ := newTestController(t)
	c.ScrollTo(AxisX, 0)
	c.Pan(r2.Vec{X: -0.4})
	require.InDelta(t, -149.6, c.Origin().X, 1e-9)

	comp := c.ZoomIn()
	assert.Equal(t, float64(c.ScrollRegion().Min.X), c.Origin().X)
	assert.Equal(t, -144.0, c.Origin().X)
	assert.InDelta(t, 5.6, comp.X, 1e-9)
}

func TestZoomAbsorbsPanResidueAtRightEdge(t *testing.T) {
	c, _ := newTestController(t)
	c.ScrollTo(AxisX, 1)
	c.Pan(r2.Vec{X: 0.4})
	require.InDelta(t, 49.6, c.Origin().X, 1e-9)

	comp := c.ZoomIn()
	assert.Equal(t, float64(c.ScrollRegion().Max.X-200), c.Origin().X)
	assert.Equal(t, 56.0, c.Origin().X)
	assert.InDelta(t, 6.4, comp.X, 1e-9)
}

func TestZoomInMiddleHasNoCompensation(t *testing.T) {
	c, _ := newTestController(t)
	c.ScrollTo(AxisX, 0.25)
	x := c.Origin().X

	comp := c.ZoomIn()
	assert.Equal(t, 0.0, comp.X)
	assert.Equal(t, x, c.Origin().X)
}

func TestZoomWithoutViewportHasNoCompensation(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, r2.Vec{}, c.ZoomIn())
	assert.Equal(t, r2.Vec{}, c.ZoomOut())
}

func TestPanClampsToRegion(t *testing.T) {
	c, _ := newTestController(t)

	require.True(t, c.Press(ButtonPan, r2.Vec{}))
	assert.Equal(t, GesturePanDrag, c.Gesture())

	comp := c.Motion(r2.Vec{X: 30, Y: -20})
	assert.Equal(t, r2.Vec{X: -30, Y: 20}, comp)
	assert.Equal(t, r2.Vec{X: -30, Y: 20}, c.Origin())

	comp = c.Motion(r2.Vec{X: 10000, Y: -10000})
	assert.Equal(t, r2.Vec{X: -120, Y: 30}, comp)
	assert.Equal(t, r2.Vec{X: -150, Y: 50}, c.Origin())

	c.Release(ButtonPan)
	assert.Equal(t, GestureNone, c.Gesture())
	assert.Equal(t, r2.Vec{}, c.Motion(r2.Vec{}))
}

func TestGestureIsExclusive(t *testing.T) {
	c, _ := newTestController(t)

	require.True(t, c.Press(ButtonPrimary, r2.Vec{}))
	assert.False(t, c.Press(ButtonPan, r2.Vec{}))
	assert.Equal(t, GesturePrimaryDrag, c.Gesture())

	c.Release(ButtonPan)
	assert.Equal(t, GesturePrimaryDrag, c.Gesture())

	c.Release(ButtonPrimary)
	assert.Equal(t, GestureNone, c.Gesture())

	assert.False(t, c.Press(ButtonSecondary, r2.Vec{}))
}

func TestMotionWithoutLayersIgnored(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	c.Resize(100, 100)

	require.True(t, c.Press(ButtonPan, r2.Vec{}))
	assert.Equal(t, r2.Vec{}, c.Motion(r2.Vec{X: 50, Y: 50}))
	assert.Equal(t, r2.Vec{}, c.Origin())
}

func TestPrimaryDragMovesSelectedLayer(t *testing.T) {
	c, id := newTestController(t)

	require.True(t, c.Press(ButtonPrimary, r2.Vec{X: 5, Y: 5}))
	c.Motion(r2.Vec{X: 10, Y: 12})
	assert.Equal(t, geometry.NewInt2(5, 7), c.Stack().Layer(id).Position)
	assert.Equal(t, geometry.NewSize(105, 107), c.Stack().Extent())
	c.Release(ButtonPrimary)
}

func TestPrimaryDragAtZoomCarriesResidue(t *testing.T) {
	c, id := newTestController(t)
	c.SetZoomIndex(c.ZoomTable().Index(200))
	require.Equal(t, 2.0, c.ZoomFraction())

	require.True(t, c.Press(ButtonPrimary, r2.Vec{}))
	c.Motion(r2.Vec{X: 3})
	c.Motion(r2.Vec{X: 4})
	c.Motion(r2.Vec{X: 6})
	c.Motion(r2.Vec{X: 7})
	assert.Equal(t, geometry.NewInt2(4, 0), c.Stack().Layer(id).Position, "half pixels carry over between motions")
}

func TestPrimaryDragSkipsLockedLayer(t *testing.T) {
	c, id := newTestController(t)
	locked := true
	c.UpdateLayerInfo(id, scene.LayerInfo{PositionFixed: &locked})

	require.True(t, c.Press(ButtonPrimary, r2.Vec{}))
	c.Motion(r2.Vec{X: 20, Y: 20})
	assert.Equal(t, geometry.Int2{}, c.Stack().Layer(id).Position)
}

func TestNudge(t *testing.T) {
	c, id := newTestController(t)

	assert.True(t, c.Nudge(geometry.NewInt2(-1, 0)))
	assert.Equal(t, geometry.NewInt2(-1, 0), c.Stack().Layer(id).Position)

	c.Select(-1)
	assert.False(t, c.Nudge(geometry.NewInt2(1, 0)))
}

func TestDisabledIgnoresInput(t *testing.T) {
	c, _ := newTestController(t)
	c.SetEnabled(false)

	assert.False(t, c.Press(ButtonPan, r2.Vec{}))
	assert.Equal(t, r2.Vec{}, c.Wheel(1, 0))
	assert.False(t, c.Nudge(geometry.NewInt2(1, 1)))
	assert.Equal(t, r2.Vec{}, c.Origin())

	c.SetEnabled(true)
	assert.True(t, c.Press(ButtonPan, r2.Vec{}))
	c.SetEnabled(false)
	assert.Equal(t, GestureNone, c.Gesture())
}

func TestResizeClampsOverlay(t *testing.T) {
	c, _ := newTestController(t)
	require.Equal(t, r2.Vec{X: 10, Y: 10}, c.Overlay().Position)

	c.Resize(40, 30)
	assert.Equal(t, r2.Vec{X: -10, Y: -10}, c.Overlay().Position)

	c.Resize(400, 300)
	assert.Equal(t, r2.Vec{X: 0, Y: 0}, c.Overlay().Position)
}

func TestMoveOverlay(t *testing.T) {
	c, _ := newTestController(t)

	assert.Equal(t, r2.Vec{X: 0, Y: 5}, c.MoveOverlay(r2.Vec{X: -20, Y: 5}))
	assert.Equal(t, r2.Vec{X: 10, Y: 15}, c.Overlay().Position)

	// Scrolling leaves the panel where it is on screen.
	c.ScrollTo(AxisX, 0)
	assert.Equal(t, r2.Vec{X: 10, Y: 15}, c.Overlay().Position)
	assert.Equal(t, r2.Vec{X: -140, Y: 15}, c.OverlayScenePosition())
}

func TestCoordinateTransforms(t *testing.T) {
	c, _ := newTestController(t)
	c.SetZoomIndex(c.ZoomTable().Index(200))
	c.ScrollTo(AxisY, 0)
	origin := c.Origin()

	p := r2.Vec{X: 10, Y: 30}
	scenePt := c.ScreenToScene(p)
	assert.Equal(t, r2.Scale(0.5, r2.Add(origin, p)), scenePt)
	assert.Equal(t, p, c.SceneToScreen(scenePt))
}

func TestRender(t *testing.T) {
	c, _ := newTestController(t)

	img := c.Render(nil)
	require.Equal(t, image.Rect(0, 0, 200, 100), img.Rect)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(10, 10))
	assert.Equal(t, color.RGBAModel.Convert(colorutil.CanvasBackground), img.RGBAAt(150, 10))

	c.ScrollTo(AxisX, 0)
	img = c.Render(color.Black)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(10, 10))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(160, 10))
}

func TestLayerEditsRefreshRegion(t *testing.T) {
	c, id := newTestController(t)

	c.SetVisible(id, false)
	assert.Equal(t, geometry.NewBox(-200, -100, 200, 100), c.ScrollRegion())

	c.SetVisible(id, true)
	require.NoError(t, c.UpdateImage(id, opaqueRed(300, 100)))
	assert.Equal(t, geometry.NewSize(300, 100), c.Stack().Extent())
	assert.Equal(t, -100, c.ScrollRegion().Min.X)

	_, err := c.AddPixels(1, 1, 5, []uint8{0, 0, 0, 0, 0})
	assert.Error(t, err)
}
