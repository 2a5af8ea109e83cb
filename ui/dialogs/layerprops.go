// Package dialogs provides application dialogs.
package dialogs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	layerimage "layer-canvas/internal/image"
	"layer-canvas/pkg/geometry"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// LayerEdit carries the values confirmed in a LayerPropertiesDialog.
type LayerEdit struct {
	Name          string
	Depth         int
	BlendMode     layerimage.BlendMode
	Visible       bool
	PositionFixed bool
	Position      geometry.Int2
}

// EditFromLayer captures the editable properties of l.
func EditFromLayer(l *layerimage.Layer) LayerEdit {
	return LayerEdit{
		Name:          l.Name,
		Depth:         l.Depth,
		BlendMode:     l.BlendMode,
		Visible:       l.Visible,
		PositionFixed: l.PositionFixed,
		Position:      l.Position,
	}
}

// LayerPropertiesDialog edits one layer's name, order, blend mode,
// visibility, lock and position.
type LayerPropertiesDialog struct {
	edit   LayerEdit
	window fyne.Window

	nameEntry  *widget.Entry
	depthEntry *widget.Entry
	blendMode  *widget.Select
	visible    *widget.Check
	locked     *widget.Check
	xEntry     *widget.Entry
	yEntry     *widget.Entry

	onSave   func(LayerEdit)
	onClosed func()
}

// NewLayerPropertiesDialog creates a dialog prefilled from l.
func NewLayerPropertiesDialog(l *layerimage.Layer, window fyne.Window, onSave func(LayerEdit)) *LayerPropertiesDialog {
	d := &LayerPropertiesDialog{
		edit:   EditFromLayer(l),
		window: window,
		onSave: onSave,
	}
	d.createContent()
	return d
}

// OnClosed sets a callback run when the dialog goes away, whether applied
// or cancelled.
func (d *LayerPropertiesDialog) OnClosed(callback func()) {
	d.onClosed = callback
}

// Show displays the dialog.
func (d *LayerPropertiesDialog) Show() {
	dlg := dialog.NewForm(
		"Layer Properties: "+d.edit.Name,
		"Apply",
		"Cancel",
		d.formItems(),
		func(save bool) {
			if !save {
				return
			}
			edit, err := d.Result()
			if err != nil {
				dialog.ShowError(err, d.window)
				return
			}
			if d.onSave != nil {
				d.onSave(edit)
			}
		},
		d.window,
	)
	if d.onClosed != nil {
		dlg.SetOnClosed(d.onClosed)
	}
	dlg.Resize(fyne.NewSize(360, 0))
	dlg.Show()
}

func (d *LayerPropertiesDialog) createContent() {
	d.nameEntry = widget.NewEntry()
	d.nameEntry.SetText(d.edit.Name)
	d.nameEntry.Validator = func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New("name is required")
		}
		return nil
	}

	d.depthEntry = widget.NewEntry()
	d.depthEntry.SetText(strconv.Itoa(d.edit.Depth))
	d.depthEntry.Validator = intValidator

	d.blendMode = widget.NewSelect(layerimage.BlendModeNames(), nil)
	d.blendMode.SetSelected(d.edit.BlendMode.String())

	d.visible = widget.NewCheck("", nil)
	d.visible.SetChecked(d.edit.Visible)

	d.locked = widget.NewCheck("", nil)
	d.locked.SetChecked(d.edit.PositionFixed)

	d.xEntry = widget.NewEntry()
	d.xEntry.SetText(strconv.Itoa(d.edit.Position.X))
	d.xEntry.Validator = intValidator

	d.yEntry = widget.NewEntry()
	d.yEntry.SetText(strconv.Itoa(d.edit.Position.Y))
	d.yEntry.Validator = intValidator
}

func (d *LayerPropertiesDialog) formItems() []*widget.FormItem {
	return []*widget.FormItem{
		widget.NewFormItem("Name", d.nameEntry),
		widget.NewFormItem("Depth", d.depthEntry),
		widget.NewFormItem("Blend mode", d.blendMode),
		widget.NewFormItem("Visible", d.visible),
		widget.NewFormItem("Lock position", d.locked),
		widget.NewFormItem("X", d.xEntry),
		widget.NewFormItem("Y", d.yEntry),
	}
}

// Result parses the current field values.
func (d *LayerPropertiesDialog) Result() (LayerEdit, error) {
	e := d.edit
	e.Name = strings.TrimSpace(d.nameEntry.Text)
	if e.Name == "" {
		return e, errors.New("layer name is required")
	}

	var err error
	if e.Depth, err = strconv.Atoi(strings.TrimSpace(d.depthEntry.Text)); err != nil {
		return e, fmt.Errorf("invalid depth %q", d.depthEntry.Text)
	}
	if e.BlendMode, err = layerimage.ParseBlendMode(d.blendMode.Selected); err != nil {
		return e, err
	}
	if e.Position.X, err = strconv.Atoi(strings.TrimSpace(d.xEntry.Text)); err != nil {
		return e, fmt.Errorf("invalid x position %q", d.xEntry.Text)
	}
	if e.Position.Y, err = strconv.Atoi(strings.TrimSpace(d.yEntry.Text)); err != nil {
		return e, fmt.Errorf("invalid y position %q", d.yEntry.Text)
	}
	e.Visible = d.visible.Checked
	e.PositionFixed = d.locked.Checked
	return e, nil
}

func intValidator(s string) error {
	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return errors.New("must be a whole number")
	}
	return nil
}
