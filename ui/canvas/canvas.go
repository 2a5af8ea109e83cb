// Package canvas provides the scrollable, zoomable layer canvas widget and
// its floating layer panel.
package canvas

import (
	"image"
	"image/color"
	"math"
	"sync"

	"layer-canvas/internal/viewport"
	"layer-canvas/pkg/colorutil"
	"layer-canvas/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"gonum.org/v1/gonum/spatial/r2"
)

// sliderSteps is the scrollbar resolution.
const sliderSteps = 1000

// Options configures a LayerCanvas.
type Options struct {
	Background  color.Color
	PanelWidth  float32
	ThumbWidth  int
	ThumbHeight int
}

// LayerCanvas shows a viewport.Controller's scene with scrollbars and the
// layer panel floating on top. Input is translated into controller calls.
type LayerCanvas struct {
	widget.BaseWidget

	ctrl *viewport.Controller
	opts Options

	bgMu sync.RWMutex // Guards opts.Background, swapped by config reloads

	raster *fynecanvas.Raster
	hbar   *widget.Slider
	vbar   *widget.Slider
	panel  *LayerPanel

	syncing bool // Set while sliders are updated from the controller
	cursor  r2.Vec
	focused bool

	// Last rendered output
	lastOutput *image.RGBA

	// Callbacks
	onChange       func()           // View or layers changed
	onOverlayMoved func(pos r2.Vec) // Panel drag finished
	onProperties   func(id int)     // Properties requested for a layer
}

// NewLayerCanvas creates a canvas around ctrl.
func NewLayerCanvas(ctrl *viewport.Controller, opts Options) *LayerCanvas {
	if opts.Background == nil {
		opts.Background = colorutil.CanvasBackground
	}
	lc := &LayerCanvas{ctrl: ctrl, opts: opts}

	lc.raster = fynecanvas.NewRaster(lc.draw)
	lc.raster.ScaleMode = fynecanvas.ImageScalePixels

	lc.hbar = widget.NewSlider(0, sliderSteps)
	lc.hbar.OnChanged = func(v float64) { lc.scrollbarMoved(viewport.AxisX, v/sliderSteps) }

	lc.vbar = widget.NewSlider(0, sliderSteps)
	lc.vbar.Orientation = widget.Vertical
	// Vertical sliders grow upwards.
	lc.vbar.OnChanged = func(v float64) { lc.scrollbarMoved(viewport.AxisY, 1-v/sliderSteps) }

	lc.panel = newLayerPanel(lc)

	lc.ExtendBaseWidget(lc)
	lc.syncScrollbars()
	return lc
}

// Controller returns the controller the canvas drives.
func (lc *LayerCanvas) Controller() *viewport.Controller {
	return lc.ctrl
}

// Panel returns the floating layer panel.
func (lc *LayerCanvas) Panel() *LayerPanel {
	return lc.panel
}

// SetBackground changes the color around the scene. It may be called from
// any goroutine.
func (lc *LayerCanvas) SetBackground(bg color.Color) {
	lc.bgMu.Lock()
	lc.opts.Background = bg
	lc.bgMu.Unlock()
	lc.raster.Refresh()
}

// Background returns the color drawn around the scene.
func (lc *LayerCanvas) Background() color.Color {
	lc.bgMu.RLock()
	defer lc.bgMu.RUnlock()
	return lc.opts.Background
}

// OnChange sets a callback for any view or layer change.
func (lc *LayerCanvas) OnChange(callback func()) {
	lc.onChange = callback
}

// OnOverlayMoved sets a callback for when the user finishes dragging the
// layer panel.
func (lc *LayerCanvas) OnOverlayMoved(callback func(pos r2.Vec)) {
	lc.onOverlayMoved = callback
}

// OnProperties sets a callback for layer property requests from the panel.
func (lc *LayerCanvas) OnProperties(callback func(id int)) {
	lc.onProperties = callback
}

// Cursor returns the last pointer position in unscaled scene coordinates.
func (lc *LayerCanvas) Cursor() r2.Vec {
	return lc.ctrl.ScreenToScene(lc.cursor)
}

// GetRenderedOutput returns the last rendered view.
func (lc *LayerCanvas) GetRenderedOutput() *image.RGBA {
	return lc.lastOutput
}

// AddLayer adds buf as a new layer named name.
func (lc *LayerCanvas) AddLayer(buf *image.NRGBA, name string) (int, error) {
	id, err := lc.ctrl.AddLayer(buf)
	if err != nil {
		return 0, err
	}
	if name != "" {
		lc.ctrl.Stack().SetName(id, name)
	}
	lc.LayersChanged()
	return id, nil
}

// RemoveSelected deletes the selected layer.
func (lc *LayerCanvas) RemoveSelected() bool {
	sel := lc.ctrl.Stack().Selected()
	if sel == nil {
		return false
	}
	lc.ctrl.RemoveLayer(sel.ID)
	lc.LayersChanged()
	return true
}

// ZoomIn steps the zoom up.
func (lc *LayerCanvas) ZoomIn() {
	lc.viewChanged(lc.ctrl.ZoomIn())
}

// ZoomOut steps the zoom down.
func (lc *LayerCanvas) ZoomOut() {
	lc.viewChanged(lc.ctrl.ZoomOut())
}

// SetZoomPercent jumps to the zoom step closest to percent.
func (lc *LayerCanvas) SetZoomPercent(percent float64) {
	table := lc.ctrl.ZoomTable()
	best := 0
	for i := 1; i < table.Len(); i++ {
		if math.Abs(table.Percent(i)-percent) < math.Abs(table.Percent(best)-percent) {
			best = i
		}
	}
	lc.viewChanged(lc.ctrl.SetZoomIndex(best))
}

// LayersChanged rebuilds the layer panel and redraws. Call it after editing
// the controller's layers directly.
func (lc *LayerCanvas) LayersChanged() {
	lc.panel.Rebuild()
	lc.layoutPanel()
	lc.viewChanged(r2.Vec{})
}

// Refresh redraws the scene, scrollbars and panel.
func (lc *LayerCanvas) Refresh() {
	lc.syncScrollbars()
	lc.raster.Refresh()
	lc.panel.Refresh()
}

// viewChanged is called after every controller call that may have moved the
// view. The panel lives in screen space, so it only follows the clamp the
// controller already applied.
func (lc *LayerCanvas) viewChanged(_ r2.Vec) {
	lc.movePanel()
	lc.Refresh()
	if lc.onChange != nil {
		lc.onChange()
	}
}

func (lc *LayerCanvas) scrollbarMoved(axis viewport.Axis, v float64) {
	if lc.syncing {
		return
	}
	var span geometry.Span
	if axis == viewport.AxisX {
		span = lc.ctrl.XView()
	} else {
		span = lc.ctrl.YView()
	}
	lc.viewChanged(lc.ctrl.ScrollTo(axis, v*(1-span.Len())))
}

// syncScrollbars moves the sliders to the controller's view without feeding
// the change back.
func (lc *LayerCanvas) syncScrollbars() {
	lc.syncing = true
	defer func() { lc.syncing = false }()

	lc.hbar.SetValue(sliderValue(lc.ctrl.XView()) * sliderSteps)
	lc.vbar.SetValue((1 - sliderValue(lc.ctrl.YView())) * sliderSteps)
}

// sliderValue maps a visible span to a thumb position in [0, 1].
func sliderValue(span geometry.Span) float64 {
	free := 1 - span.Len()
	if free <= 0 {
		return 0
	}
	return math.Min(math.Max(span.Min/free, 0), 1)
}

// Scrolled implements fyne.Scrollable. Control zooms, Shift scrolls
// horizontally; a horizontal wheel always scrolls horizontally.
func (lc *LayerCanvas) Scrolled(ev *fyne.ScrollEvent) {
	mods := currentModifiers()
	delta := float64(ev.Scrolled.DY)
	if delta == 0 && ev.Scrolled.DX != 0 {
		delta = float64(ev.Scrolled.DX)
		mods |= viewport.ModShift
	}
	lc.viewChanged(lc.ctrl.Wheel(delta, mods))
}

// MouseDown implements desktop.Mouseable.
func (lc *LayerCanvas) MouseDown(ev *desktop.MouseEvent) {
	lc.requestFocus()
	pos := lc.toPixels(ev.Position)
	lc.cursor = pos

	button, ok := toButton(ev.Button)
	if !ok {
		return
	}
	if button == viewport.ButtonPrimary {
		lc.selectAt(pos)
	}
	lc.ctrl.Press(button, pos)
}

// MouseUp implements desktop.Mouseable.
func (lc *LayerCanvas) MouseUp(ev *desktop.MouseEvent) {
	if button, ok := toButton(ev.Button); ok {
		lc.ctrl.Release(button)
	}
}

// MouseIn implements desktop.Hoverable. The canvas takes keyboard focus
// when the pointer enters it.
func (lc *LayerCanvas) MouseIn(ev *desktop.MouseEvent) {
	lc.cursor = lc.toPixels(ev.Position)
	lc.requestFocus()
}

// MouseMoved implements desktop.Hoverable. Drags arrive here because the
// canvas is not fyne.Draggable.
func (lc *LayerCanvas) MouseMoved(ev *desktop.MouseEvent) {
	pos := lc.toPixels(ev.Position)
	lc.cursor = pos
	if lc.ctrl.Gesture() == viewport.GestureNone {
		if lc.onChange != nil {
			lc.onChange()
		}
		return
	}
	lc.viewChanged(lc.ctrl.Motion(pos))
}

// MouseOut implements desktop.Hoverable.
func (lc *LayerCanvas) MouseOut() {}

// selectAt selects the top-most visible layer under pos.
func (lc *LayerCanvas) selectAt(pos r2.Vec) {
	stack := lc.ctrl.Stack()
	p := r2.Add(lc.ctrl.Origin(), pos)
	for _, l := range stack.ByDepth() {
		if !l.Visible {
			continue
		}
		b := l.ScaledBounds()
		if p.X >= float64(b.Min.X) && p.X < float64(b.Max.X) &&
			p.Y >= float64(b.Min.Y) && p.Y < float64(b.Max.Y) {
			if sel := stack.Selected(); sel == nil || sel.ID != l.ID {
				lc.ctrl.Select(l.ID)
				lc.panel.Rebuild()
				lc.Refresh()
			}
			return
		}
	}
}

// FocusGained implements fyne.Focusable.
func (lc *LayerCanvas) FocusGained() {
	lc.focused = true
}

// FocusLost implements fyne.Focusable.
func (lc *LayerCanvas) FocusLost() {
	lc.focused = false
}

// TypedRune implements fyne.Focusable.
func (lc *LayerCanvas) TypedRune(r rune) {
	switch r {
	case '+', '=':
		lc.ZoomIn()
	case '-':
		lc.ZoomOut()
	}
}

// TypedKey implements fyne.Focusable. Arrow keys nudge the selected layer.
func (lc *LayerCanvas) TypedKey(ev *fyne.KeyEvent) {
	var dir geometry.Int2
	switch ev.Name {
	case fyne.KeyLeft:
		dir.X = -1
	case fyne.KeyRight:
		dir.X = 1
	case fyne.KeyUp:
		dir.Y = -1
	case fyne.KeyDown:
		dir.Y = 1
	case fyne.KeyDelete, fyne.KeyBackspace:
		lc.RemoveSelected()
		return
	default:
		return
	}
	if lc.ctrl.Nudge(dir) {
		lc.viewChanged(r2.Vec{})
	}
}

func (lc *LayerCanvas) requestFocus() {
	app := fyne.CurrentApp()
	if app == nil {
		return
	}
	if c := app.Driver().CanvasForObject(lc); c != nil {
		c.Focus(lc)
	}
}

// moveOverlay drags the layer panel by delta.
func (lc *LayerCanvas) moveOverlay(delta fyne.Delta) {
	s := lc.pixelScale()
	lc.ctrl.MoveOverlay(r2.Vec{X: float64(delta.DX) * s, Y: float64(delta.DY) * s})
	lc.movePanel()
}

func (lc *LayerCanvas) overlayDragEnded() {
	if lc.onOverlayMoved != nil {
		lc.onOverlayMoved(lc.ctrl.Overlay().Position)
	}
}

// layoutPanel sizes the panel to its content and re-clamps it.
func (lc *LayerCanvas) layoutPanel() {
	ms := lc.panel.MinSize()
	w := max(ms.Width, lc.opts.PanelWidth)
	s := lc.pixelScale()
	lc.ctrl.SetOverlaySize(r2.Vec{X: float64(w) * s, Y: float64(ms.Height) * s})
	lc.panel.Resize(fyne.NewSize(w, ms.Height))
	lc.movePanel()
}

func (lc *LayerCanvas) movePanel() {
	p := r2.Scale(1/lc.pixelScale(), lc.ctrl.Overlay().Position)
	lc.panel.Move(fyne.NewPos(float32(p.X), float32(p.Y)))
}

// pixelScale returns device pixels per fyne unit for the canvas showing lc.
// The controller works in device pixels so 100% zoom maps one image pixel
// to one screen pixel.
func (lc *LayerCanvas) pixelScale() float64 {
	app := fyne.CurrentApp()
	if app == nil {
		return 1
	}
	c := app.Driver().CanvasForObject(lc)
	if c == nil || c.Scale() <= 0 {
		return 1
	}
	return float64(c.Scale())
}

// toPixels converts a widget position to device pixels.
func (lc *LayerCanvas) toPixels(p fyne.Position) r2.Vec {
	return r2.Scale(lc.pixelScale(), toVec(p))
}

// draw is the raster drawing function.
func (lc *LayerCanvas) draw(w, h int) image.Image {
	output := lc.ctrl.Render(lc.Background())

	if sel := lc.ctrl.Stack().Selected(); sel != nil && sel.Visible {
		o := lc.ctrl.Origin()
		b := sel.ScaledBounds()
		off := geometry.NewInt2(int(math.Floor(o.X)), int(math.Floor(o.Y)))
		drawSelectionOutline(output, geometry.Box{Min: b.Min.Sub(off), Max: b.Max.Sub(off)})
	}

	lc.lastOutput = output
	return output
}

// CreateRenderer implements fyne.Widget.
func (lc *LayerCanvas) CreateRenderer() fyne.WidgetRenderer {
	lc.panel.Rebuild()
	return &layerCanvasRenderer{canvas: lc}
}

type layerCanvasRenderer struct {
	canvas *LayerCanvas
}

func (r *layerCanvasRenderer) Layout(size fyne.Size) {
	lc := r.canvas
	barH := lc.hbar.MinSize().Height
	barW := lc.vbar.MinSize().Width
	view := fyne.NewSize(max(size.Width-barW, 0), max(size.Height-barH, 0))

	lc.raster.Move(fyne.NewPos(0, 0))
	lc.raster.Resize(view)
	lc.hbar.Move(fyne.NewPos(0, view.Height))
	lc.hbar.Resize(fyne.NewSize(view.Width, barH))
	lc.vbar.Move(fyne.NewPos(view.Width, 0))
	lc.vbar.Resize(fyne.NewSize(barW, view.Height))

	s := lc.pixelScale()
	lc.ctrl.Resize(int(math.Round(float64(view.Width)*s)), int(math.Round(float64(view.Height)*s)))
	lc.layoutPanel()
	lc.syncScrollbars()
}

func (r *layerCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(200, 150)
}

func (r *layerCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *layerCanvasRenderer) Objects() []fyne.CanvasObject {
	lc := r.canvas
	return []fyne.CanvasObject{lc.raster, lc.hbar, lc.vbar, lc.panel}
}

func (r *layerCanvasRenderer) Destroy() {}

func currentModifiers() viewport.Modifier {
	app := fyne.CurrentApp()
	if app == nil {
		return 0
	}
	drv, ok := app.Driver().(desktop.Driver)
	if !ok {
		return 0
	}
	var mods viewport.Modifier
	km := drv.CurrentKeyModifiers()
	if km&fyne.KeyModifierShift != 0 {
		mods |= viewport.ModShift
	}
	if km&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0 {
		mods |= viewport.ModControl
	}
	return mods
}

func toButton(b desktop.MouseButton) (viewport.Button, bool) {
	switch {
	case b&desktop.MouseButtonPrimary != 0:
		return viewport.ButtonPrimary, true
	case b&desktop.MouseButtonTertiary != 0:
		return viewport.ButtonPan, true
	case b&desktop.MouseButtonSecondary != 0:
		return viewport.ButtonSecondary, true
	}
	return 0, false
}

func toVec(p fyne.Position) r2.Vec {
	return r2.Vec{X: float64(p.X), Y: float64(p.Y)}
}
