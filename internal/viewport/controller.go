// Package viewport turns pointer, wheel, key and resize input into scroll,
// zoom and layer edits on a scene, and keeps a floating overlay panel fixed
// on screen while the view moves.
package viewport

import (
	"fmt"
	"image"
	"image/color"
	"math"

	layerimage "layer-canvas/internal/image"
	"layer-canvas/internal/scene"
	"layer-canvas/pkg/colorutil"
	"layer-canvas/pkg/geometry"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/spatial/r2"
)

// edgeTolerance is how close, in pixels, the view must be to a scroll
// region edge to count as resting on it. It absorbs fractional residue left
// by pan drags.
const edgeTolerance = 1.0

// Axis selects the horizontal or vertical scroll direction.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonPan            // Middle button
	ButtonSecondary
)

// Gesture is the drag currently in progress.
type Gesture int

const (
	GestureNone Gesture = iota
	GesturePrimaryDrag
	GesturePanDrag
)

func (g Gesture) String() string {
	switch g {
	case GesturePrimaryDrag:
		return "PrimaryDrag"
	case GesturePanDrag:
		return "PanDrag"
	default:
		return "None"
	}
}

// Modifier is a set of keyboard modifiers held during a wheel event.
type Modifier int

const (
	ModShift Modifier = 1 << iota
	ModControl
)

// Options configures a Controller.
type Options struct {
	ZoomTable       []float64 // Percent steps; DefaultZoomTable when empty
	DefaultZoom     float64   // Must be in ZoomTable; DefaultZoom when zero
	ScrollUnit      float64   // Wheel step as a fraction of the viewport; 0.1 when zero
	OverlayPosition r2.Vec
	OverlaySize     r2.Vec
}

// Controller owns a layer stack and the view onto it.
type Controller struct {
	stack     *scene.Stack
	zoom      *ZoomTable
	zoomIndex int

	view   geometry.Size // Viewport size in pixels
	region geometry.Box  // Scrollable area in scaled scene pixels
	origin r2.Vec        // View top-left in scaled scene pixels

	cursor      r2.Vec
	gesture     Gesture
	dragResidue r2.Vec // Unapplied fraction of a layer drag, scene pixels
	enabled     bool
	scrollUnit  float64

	overlay Overlay
}

// New creates a controller over an empty stack.
func New(opts Options) (*Controller, error) {
	steps := opts.ZoomTable
	if len(steps) == 0 {
		steps = DefaultZoomTable
	}
	table, err := NewZoomTable(steps)
	if err != nil {
		return nil, err
	}
	def := opts.DefaultZoom
	if def == 0 {
		def = DefaultZoom
	}
	idx := table.Index(def)
	if idx < 0 {
		return nil, fmt.Errorf("%w: default zoom %v%% is not a step", ErrInvalidZoomTable, def)
	}
	unit := opts.ScrollUnit
	if unit <= 0 {
		unit = 0.1
	}

	c := &Controller{
		stack:      scene.NewStack(),
		zoom:       table,
		zoomIndex:  idx,
		enabled:    true,
		scrollUnit: unit,
		overlay:    Overlay{Position: opts.OverlayPosition, Size: opts.OverlaySize},
	}
	if err := c.stack.ApplyScale(c.ZoomFraction()); err != nil {
		return nil, err
	}
	c.refreshRegion()
	return c, nil
}

// Stack returns the layer stack. Mutating it directly bypasses region and
// overlay upkeep; use the Controller's layer methods instead.
func (c *Controller) Stack() *scene.Stack {
	return c.stack
}

// SetEnabled turns input handling on or off. Disabling cancels any gesture.
func (c *Controller) SetEnabled(enabled bool) {
	c.enabled = enabled
	if !enabled {
		c.gesture = GestureNone
	}
}

// Enabled reports whether input is handled.
func (c *Controller) Enabled() bool {
	return c.enabled
}

// Gesture returns the active drag gesture.
func (c *Controller) Gesture() Gesture {
	return c.gesture
}

// ZoomTable returns the zoom steps.
func (c *Controller) ZoomTable() *ZoomTable {
	return c.zoom
}

// ZoomIndex returns the current zoom step.
func (c *Controller) ZoomIndex() int {
	return c.zoomIndex
}

// ZoomPercent returns the current zoom in percent.
func (c *Controller) ZoomPercent() float64 {
	return c.zoom.Percent(c.zoomIndex)
}

// ZoomFraction returns the current zoom as a scale factor.
func (c *Controller) ZoomFraction() float64 {
	return c.zoom.Fraction(c.zoomIndex)
}

// ViewSize returns the viewport size in pixels.
func (c *Controller) ViewSize() geometry.Size {
	return c.view
}

// ScrollRegion returns the scrollable area in scaled scene pixels.
func (c *Controller) ScrollRegion() geometry.Box {
	return c.region
}

// Origin returns the view's top-left corner in scaled scene pixels.
func (c *Controller) Origin() r2.Vec {
	return c.origin
}

// Visible returns the viewport rectangle in scaled scene pixels.
func (c *Controller) Visible() (x, y geometry.Span) {
	x = geometry.Span{Min: c.origin.X, Max: c.origin.X + float64(c.view.Width)}
	y = geometry.Span{Min: c.origin.Y, Max: c.origin.Y + float64(c.view.Height)}
	return x, y
}

// XView returns the visible horizontal range as fractions of the scroll
// region, the convention scrollbars use.
func (c *Controller) XView() geometry.Span {
	x, _ := c.Visible()
	return viewFractions(x, c.region.XSpan())
}

// YView returns the visible vertical range as fractions of the scroll region.
func (c *Controller) YView() geometry.Span {
	_, y := c.Visible()
	return viewFractions(y, c.region.YSpan())
}

func viewFractions(visible, region geometry.Span) geometry.Span {
	n := region.Len()
	if n <= 0 {
		return geometry.Span{Min: 0, Max: 1}
	}
	return geometry.Span{
		Min: clamp((visible.Min-region.Min)/n, 0, 1),
		Max: clamp((visible.Max-region.Min)/n, 0, 1),
	}
}

// Overlay returns the overlay panel state.
func (c *Controller) Overlay() Overlay {
	return c.overlay
}

// OverlayScenePosition returns the overlay's top-left in scaled scene pixels.
func (c *Controller) OverlayScenePosition() r2.Vec {
	return r2.Add(c.origin, c.overlay.Position)
}

// Raster returns the composited scene.
func (c *Controller) Raster() *image.RGBA {
	return c.stack.Raster()
}

// ScreenToScene maps a canvas-local point to unscaled scene coordinates.
func (c *Controller) ScreenToScene(p r2.Vec) r2.Vec {
	return r2.Scale(1/c.ZoomFraction(), r2.Add(c.origin, p))
}

// SceneToScreen maps unscaled scene coordinates to a canvas-local point.
func (c *Controller) SceneToScreen(p r2.Vec) r2.Vec {
	return r2.Sub(r2.Scale(c.ZoomFraction(), p), c.origin)
}

// Render draws the visible part of the scene on bg into an image the size of
// the viewport.
func (c *Controller) Render(bg color.Color) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, c.view.Width, c.view.Height))
	if bg == nil {
		bg = colorutil.CanvasBackground
	}
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	raster := c.stack.Raster()
	if raster == nil || raster.Rect.Empty() {
		return out
	}
	at := image.Pt(-int(math.Floor(c.origin.X)), -int(math.Floor(c.origin.Y)))
	draw.Draw(out, raster.Rect.Add(at), raster, image.Point{}, draw.Src)
	return out
}

// Resize sets the viewport size, rebuilds the scroll region and re-clamps
// the overlay.
func (c *Controller) Resize(width, height int) r2.Vec {
	c.view = geometry.NewSize(max(width, 0), max(height, 0))
	prev := c.origin
	c.refreshRegion()
	return c.finish(r2.Sub(c.origin, prev))
}

// ScrollTo moves the view so its leading edge sits at fraction of the scroll
// region on one axis. The returned compensation is the pixel distance the
// view moved.
func (c *Controller) ScrollTo(axis Axis, fraction float64) r2.Vec {
	prev := c.origin
	lo, n := c.regionAxis(axis)
	c.origin = withAxis(c.origin, axis, lo+fraction*n)
	c.confine()
	return c.finish(r2.Sub(c.origin, prev))
}

// ScrollUnits moves the view by n wheel units on one axis.
func (c *Controller) ScrollUnits(axis Axis, n int) r2.Vec {
	prev := c.origin
	step := c.scrollUnit * axisOf(c.view.Vec(), axis)
	step = math.Max(math.Round(step), 1)
	c.origin = withAxis(c.origin, axis, axisOf(c.origin, axis)+float64(n)*step)
	c.confine()
	return c.finish(r2.Sub(c.origin, prev))
}

// Wheel handles a mouse wheel step. Positive delta is wheel-up. Without
// modifiers the view scrolls vertically, Shift scrolls horizontally and
// Control zooms.
func (c *Controller) Wheel(delta float64, mods Modifier) r2.Vec {
	dir := geometry.Sign(delta)
	if !c.enabled || dir == 0 {
		return r2.Vec{}
	}
	switch {
	case mods&ModControl != 0:
		return c.Zoom(dir)
	case mods&ModShift != 0:
		return c.ScrollUnits(AxisX, -dir)
	default:
		return c.ScrollUnits(AxisY, -dir)
	}
}

// ZoomIn steps one zoom level up.
func (c *Controller) ZoomIn() r2.Vec {
	return c.Zoom(1)
}

// ZoomOut steps one zoom level down.
func (c *Controller) ZoomOut() r2.Vec {
	return c.Zoom(-1)
}

// SetZoomIndex jumps to zoom step i.
func (c *Controller) SetZoomIndex(i int) r2.Vec {
	return c.Zoom(c.zoom.Clamp(i) - c.zoomIndex)
}

// Zoom moves steps zoom levels, clamped to the table, rescales every layer
// and recomposites. A view resting on a scroll region edge stays on that
// edge; the compensation returned is the view movement that keeps a panel
// anchored in scene space at the same place on screen. Nothing is
// recomputed when the level does not change.
func (c *Controller) Zoom(steps int) r2.Vec {
	idx := c.zoom.Clamp(c.zoomIndex + steps)
	if idx == c.zoomIndex {
		return r2.Vec{}
	}

	prevOrigin := c.origin
	prevX, prevY := c.edge(AxisX), c.edge(AxisY)

	c.zoomIndex = idx
	if err := c.stack.ApplyScale(c.ZoomFraction()); err != nil {
		// Table entries are validated positive.
		panic(err)
	}
	c.region = scene.ScrollRegion(c.stack.Extent(), c.view)

	c.origin = withAxis(c.origin, AxisX, c.pinnedOrigin(AxisX, prevX))
	c.origin = withAxis(c.origin, AxisY, c.pinnedOrigin(AxisY, prevY))
	c.confine()

	var comp r2.Vec
	comp.X = zoomCompensation(prevX, c.edge(AxisX), prevOrigin.X, c.origin.X)
	comp.Y = zoomCompensation(prevY, c.edge(AxisY), prevOrigin.Y, c.origin.Y)
	return c.finish(comp)
}

// pinnedOrigin returns the origin on axis after a zoom, keeping the view on
// the edge it rested on before.
func (c *Controller) pinnedOrigin(axis Axis, before edgeState) float64 {
	lo, n := c.regionAxis(axis)
	switch before {
	case edgeMax:
		return lo + n - axisOf(c.view.Vec(), axis)
	case edgeMin, edgeBoth:
		return lo
	default:
		return axisOf(c.origin, axis)
	}
}

// zoomCompensation cancels the movement of the edge the view was resting on,
// including any residue from earlier pans. A view pinned to both edges, or to
// neither, needs none.
func zoomCompensation(before, after edgeState, prevOrigin, origin float64) float64 {
	if before != after || (before != edgeMin && before != edgeMax) {
		return 0
	}
	return origin - prevOrigin
}

// Press starts a gesture. It is ignored while another gesture is active or
// input is disabled.
func (c *Controller) Press(button Button, pos r2.Vec) bool {
	if !c.enabled || c.gesture != GestureNone {
		return false
	}
	switch button {
	case ButtonPrimary:
		c.gesture = GesturePrimaryDrag
	case ButtonPan:
		c.gesture = GesturePanDrag
	default:
		return false
	}
	c.cursor = pos
	c.dragResidue = r2.Vec{}
	return true
}

// Release ends the gesture started by button.
func (c *Controller) Release(button Button) {
	switch {
	case button == ButtonPrimary && c.gesture == GesturePrimaryDrag,
		button == ButtonPan && c.gesture == GesturePanDrag:
		c.gesture = GestureNone
	}
}

// Motion handles pointer movement to pos. A primary drag moves the selected
// layer, a pan drag moves the view.
func (c *Controller) Motion(pos r2.Vec) r2.Vec {
	if c.gesture == GestureNone || c.stack.Len() == 0 {
		return r2.Vec{}
	}
	delta := r2.Sub(pos, c.cursor)
	if delta.X == 0 && delta.Y == 0 {
		return r2.Vec{}
	}
	c.cursor = pos

	switch c.gesture {
	case GesturePanDrag:
		return c.Pan(delta)
	case GesturePrimaryDrag:
		c.dragSelected(delta)
	}
	return r2.Vec{}
}

// Pan moves the view against a drag of delta screen pixels, clamped to the
// scroll region. It returns the realized view movement.
func (c *Controller) Pan(delta r2.Vec) r2.Vec {
	prev := c.origin
	c.origin = r2.Sub(c.origin, delta)
	c.confine()
	return c.finish(r2.Sub(c.origin, prev))
}

// dragSelected moves the selected layer by a screen delta. Layer positions
// are unscaled, so the delta is divided by the zoom; the fraction that does
// not make a whole scene pixel carries over to the next motion.
func (c *Controller) dragSelected(delta r2.Vec) {
	sel := c.stack.Selected()
	if sel == nil || sel.PositionFixed {
		return
	}
	want := r2.Add(r2.Scale(1/c.ZoomFraction(), delta), c.dragResidue)
	step := geometry.RoundVec(want)
	c.dragResidue = r2.Sub(want, step.Vec())
	if c.stack.Move(sel.ID, step) {
		c.sync()
	}
}

// Nudge moves the selected layer by one scene pixel per component of dir.
// Arrow keys call it.
func (c *Controller) Nudge(dir geometry.Int2) bool {
	if !c.enabled {
		return false
	}
	sel := c.stack.Selected()
	if sel == nil {
		return false
	}
	if !c.stack.Move(sel.ID, dir) {
		return false
	}
	c.sync()
	return true
}

// MoveOverlay drags the overlay panel by delta, keeping it on screen.
func (c *Controller) MoveOverlay(delta r2.Vec) r2.Vec {
	return c.overlay.Translate(delta, c.view.Vec())
}

// SetOverlaySize records the laid-out panel size and re-clamps it.
func (c *Controller) SetOverlaySize(size r2.Vec) {
	c.overlay.Size = size
	c.overlay.Clamp(c.view.Vec())
}

// SetOverlayPosition places the panel, clamped to the viewport.
func (c *Controller) SetOverlayPosition(pos r2.Vec) {
	c.overlay.Position = pos
	c.overlay.Clamp(c.view.Vec())
}

// AddLayer adds buf as the new top layer and selects it.
func (c *Controller) AddLayer(buf *image.NRGBA) (int, error) {
	id, err := c.stack.AddLayer(buf)
	if err != nil {
		return 0, err
	}
	c.sync()
	return id, nil
}

// AddPixels adds a layer from raw 1, 3 or 4 channel pixel data.
func (c *Controller) AddPixels(width, height, channels int, pix []uint8) (int, error) {
	id, err := c.stack.AddPixels(width, height, channels, pix)
	if err != nil {
		return 0, err
	}
	c.sync()
	return id, nil
}

// UpdateImage replaces the image of layer id.
func (c *Controller) UpdateImage(id int, buf *image.NRGBA) error {
	if err := c.stack.UpdateImage(id, buf); err != nil {
		return err
	}
	c.sync()
	return nil
}

// UpdateLayerInfo edits name, lock and visibility of layer id.
func (c *Controller) UpdateLayerInfo(id int, info scene.LayerInfo) {
	c.stack.UpdateLayerInfo(id, info)
	c.sync()
}

// SetVisible shows or hides layer id.
func (c *Controller) SetVisible(id int, visible bool) {
	c.stack.SetVisible(id, visible)
	c.sync()
}

// SetBlendMode changes the blend mode of layer id.
func (c *Controller) SetBlendMode(id int, mode layerimage.BlendMode) error {
	if err := c.stack.SetBlendMode(id, mode); err != nil {
		return err
	}
	c.sync()
	return nil
}

// UpdateLayer sets depth, blend mode and visibility of layer id.
func (c *Controller) UpdateLayer(id int, depth int, mode layerimage.BlendMode, visible bool) error {
	if err := c.stack.UpdateLayer(id, depth, mode, visible); err != nil {
		return err
	}
	c.sync()
	return nil
}

// MoveLayer offsets layer id by delta scene pixels unless it is locked.
func (c *Controller) MoveLayer(id int, delta geometry.Int2) bool {
	if !c.stack.Move(id, delta) {
		return false
	}
	c.sync()
	return true
}

// RemoveLayer deletes layer id.
func (c *Controller) RemoveLayer(id int) {
	c.stack.RemoveLayer(id)
	c.sync()
}

// Select makes layer id the drag and nudge target.
func (c *Controller) Select(id int) {
	c.stack.Select(id)
}

// sync brings the scroll region and overlay up to date after the scene
// changed.
func (c *Controller) sync() {
	c.refreshRegion()
	c.overlay.Clamp(c.view.Vec())
}

// finish re-clamps the overlay after a view change and passes comp through.
func (c *Controller) finish(comp r2.Vec) r2.Vec {
	c.overlay.Clamp(c.view.Vec())
	return comp
}

// refreshRegion rebuilds the scroll region from the scene extent and keeps
// the view inside it.
func (c *Controller) refreshRegion() {
	c.region = scene.ScrollRegion(c.stack.Extent(), c.view)
	c.confine()
}

// confine clamps the origin so the view stays inside the scroll region.
// When the region is no larger than the view the origin sits on its minimum.
func (c *Controller) confine() {
	for _, axis := range []Axis{AxisX, AxisY} {
		lo, n := c.regionAxis(axis)
		hi := lo + n - axisOf(c.view.Vec(), axis)
		v := axisOf(c.origin, axis)
		if hi <= lo {
			v = lo
		} else {
			v = clamp(v, lo, hi)
		}
		c.origin = withAxis(c.origin, axis, v)
	}
}

type edgeState int

const (
	edgeNone edgeState = iota
	edgeMin
	edgeMax
	edgeBoth
)

// edge reports which scroll region edges the view rests on along axis.
func (c *Controller) edge(axis Axis) edgeState {
	lo, n := c.regionAxis(axis)
	size := axisOf(c.view.Vec(), axis)
	v := axisOf(c.origin, axis)
	atMin := v-lo <= edgeTolerance
	atMax := lo+n-(v+size) <= edgeTolerance
	switch {
	case atMin && atMax:
		return edgeBoth
	case atMax:
		return edgeMax
	case atMin:
		return edgeMin
	default:
		return edgeNone
	}
}

func (c *Controller) regionAxis(axis Axis) (lo, n float64) {
	if axis == AxisX {
		return float64(c.region.Min.X), float64(c.region.Width())
	}
	return float64(c.region.Min.Y), float64(c.region.Height())
}

func axisOf(v r2.Vec, axis Axis) float64 {
	if axis == AxisX {
		return v.X
	}
	return v.Y
}

func withAxis(v r2.Vec, axis Axis, value float64) r2.Vec {
	if axis == AxisX {
		v.X = value
	} else {
		v.Y = value
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
