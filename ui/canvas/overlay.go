package canvas

import (
	"image"

	layerimage "layer-canvas/internal/image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"gonum.org/v1/gonum/spatial/r2"
)

// LayerPanel is the floating layer list. Rows are ordered top-most layer
// first and show a thumbnail, the name and a visibility check. The header
// drags the panel around the viewport.
type LayerPanel struct {
	widget.BaseWidget

	canvas *LayerCanvas
	header *panelHeader
	rows   *fyne.Container
	bg     *fynecanvas.Rectangle
	body   *fyne.Container
	list   []*layerRow
}

func newLayerPanel(lc *LayerCanvas) *LayerPanel {
	p := &LayerPanel{canvas: lc}
	p.header = newPanelHeader(p)
	p.rows = container.NewVBox()
	p.bg = fynecanvas.NewRectangle(theme.Color(theme.ColorNameOverlayBackground))
	p.bg.StrokeColor = theme.Color(theme.ColorNameSeparator)
	p.bg.StrokeWidth = 1
	p.body = container.NewStack(p.bg, container.NewBorder(p.header, nil, nil, nil, p.rows))
	p.ExtendBaseWidget(p)
	return p
}

// Rebuild recreates the rows from the controller's layers.
func (p *LayerPanel) Rebuild() {
	stack := p.canvas.ctrl.Stack()
	sel := stack.Selected()

	p.list = p.list[:0]
	p.rows.RemoveAll()
	for _, l := range stack.ByDepth() {
		row := newLayerRow(p, l, sel != nil && sel.ID == l.ID)
		p.list = append(p.list, row)
		p.rows.Add(row)
	}
	if len(p.list) == 0 {
		p.rows.Add(widget.NewLabelWithStyle("No layers", fyne.TextAlignCenter, fyne.TextStyle{Italic: true}))
	}
	p.Refresh()
}

// Rows returns the number of layer rows shown.
func (p *LayerPanel) Rows() int {
	return len(p.list)
}

// CreateRenderer implements fyne.Widget.
func (p *LayerPanel) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(p.body)
}

func (p *LayerPanel) thumbnail(id int) image.Image {
	w, h := p.canvas.opts.ThumbWidth, p.canvas.opts.ThumbHeight
	if w <= 0 || h <= 0 {
		w, h = layerimage.ThumbnailWidth, layerimage.ThumbnailHeight
	}
	return p.canvas.ctrl.Stack().Thumbnail(id, w, h)
}

func (p *LayerPanel) selectLayer(id int) {
	p.canvas.ctrl.Select(id)
	p.Rebuild()
	p.canvas.Refresh()
}

func (p *LayerPanel) setVisible(id int, visible bool) {
	p.canvas.ctrl.SetVisible(id, visible)
	p.canvas.viewChanged(r2.Vec{})
}

func (p *LayerPanel) showProperties(id int) {
	p.selectLayer(id)
	if p.canvas.onProperties != nil {
		p.canvas.onProperties(id)
	}
}

// panelHeader is the title bar of the layer panel; dragging it moves the
// panel.
type panelHeader struct {
	widget.BaseWidget
	panel *LayerPanel
	label *widget.Label
}

func newPanelHeader(p *LayerPanel) *panelHeader {
	h := &panelHeader{
		panel: p,
		label: widget.NewLabelWithStyle("Layers", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
	}
	h.ExtendBaseWidget(h)
	return h
}

func (h *panelHeader) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(h.label)
}

// Dragged implements fyne.Draggable.
func (h *panelHeader) Dragged(ev *fyne.DragEvent) {
	h.panel.canvas.moveOverlay(ev.Dragged)
}

// DragEnd implements fyne.Draggable.
func (h *panelHeader) DragEnd() {
	h.panel.canvas.overlayDragEnded()
}

// layerRow shows one layer. Tapping selects it, double tapping opens its
// properties.
type layerRow struct {
	widget.BaseWidget
	panel *LayerPanel
	id    int

	bg      *fynecanvas.Rectangle
	thumb   *fynecanvas.Image
	name    *widget.Label
	visible *widget.Check
}

func newLayerRow(p *LayerPanel, l *layerimage.Layer, selected bool) *layerRow {
	r := &layerRow{panel: p, id: l.ID}

	r.bg = fynecanvas.NewRectangle(theme.Color(theme.ColorNameBackground))
	if selected {
		r.bg.FillColor = theme.Color(theme.ColorNameSelection)
	}

	r.thumb = fynecanvas.NewImageFromImage(p.thumbnail(l.ID))
	r.thumb.FillMode = fynecanvas.ImageFillOriginal
	r.thumb.ScaleMode = fynecanvas.ImageScaleFastest

	name := l.Name
	if l.PositionFixed {
		name += " (locked)"
	}
	r.name = widget.NewLabel(name)
	r.name.Truncation = fyne.TextTruncateEllipsis

	id := l.ID
	r.visible = widget.NewCheck("", nil)
	r.visible.SetChecked(l.Visible)
	r.visible.OnChanged = func(on bool) { p.setVisible(id, on) }

	r.ExtendBaseWidget(r)
	return r
}

func (r *layerRow) CreateRenderer() fyne.WidgetRenderer {
	content := container.NewBorder(nil, nil, r.thumb, r.visible, r.name)
	return widget.NewSimpleRenderer(container.NewStack(r.bg, container.NewPadded(content)))
}

// Tapped implements fyne.Tappable.
func (r *layerRow) Tapped(*fyne.PointEvent) {
	r.panel.selectLayer(r.id)
}

// DoubleTapped implements fyne.DoubleTappable.
func (r *layerRow) DoubleTapped(*fyne.PointEvent) {
	r.panel.showProperties(r.id)
}
