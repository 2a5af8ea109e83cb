// Package mainwindow provides the main application window.
package mainwindow

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"layer-canvas/internal/config"
	layerimage "layer-canvas/internal/image"
	"layer-canvas/internal/scene"
	"layer-canvas/internal/version"
	"layer-canvas/internal/viewport"
	"layer-canvas/ui/canvas"
	"layer-canvas/ui/dialogs"
	"layer-canvas/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	appTitle      = "Layer Canvas"
	defaultWidth  = 1024
	defaultHeight = 768
)

// ErrNoSelection is reported when an action needs a selected layer.
var ErrNoSelection = errors.New("no layer selected")

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	prefs *prefs.Prefs

	canvas    *canvas.LayerCanvas
	statusBar *widget.Label
	zoomLabel *widget.Label
}

// New creates the main window around ctrl.
func New(fyneApp fyne.App, ctrl *viewport.Controller, cfg *config.Config, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		prefs:  p,
	}

	mw.setupUI(ctrl, cfg)
	mw.setupMenus()
	mw.setupEventHandlers()

	w, h := p.WindowSize(defaultWidth, defaultHeight)
	mw.Resize(fyne.NewSize(w, h))

	return mw
}

// LayerCanvas returns the layer canvas.
func (mw *MainWindow) LayerCanvas() *canvas.LayerCanvas {
	return mw.canvas
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI(ctrl *viewport.Controller, cfg *config.Config) {
	mw.canvas = canvas.NewLayerCanvas(ctrl, canvas.Options{
		Background:  cfg.BackgroundColor(),
		PanelWidth:  float32(cfg.Overlay.Width),
		ThumbWidth:  cfg.Thumbnail.Width,
		ThumbHeight: cfg.Thumbnail.Height,
	})
	mw.canvas.SetZoomPercent(mw.prefs.ZoomPercent(cfg.DefaultZoom))

	mw.statusBar = widget.NewLabel("Ready")
	mw.zoomLabel = widget.NewLabel("")

	toolbar := mw.createToolbar()

	content := container.NewBorder(
		toolbar, // top
		container.NewPadded(container.NewBorder(nil, nil, nil, mw.zoomLabel, mw.statusBar)), // bottom
		nil,       // left
		nil,       // right
		mw.canvas, // center
	)

	mw.SetContent(content)
	mw.updateStatus()
}

// createToolbar creates the toolbar with zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	return container.NewHBox(
		widget.NewButton("Open...", mw.onOpenImages),
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		widget.NewButton("-", mw.onZoomOut),
		widget.NewButton("+", mw.onZoomIn),
		widget.NewButton("100%", mw.onActualSize),
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Images...", mw.onOpenImages),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	layerMenu := fyne.NewMenu("Layer",
		fyne.NewMenuItem("Properties...", mw.onLayerProperties),
		fyne.NewMenuItem("Toggle Visibility", mw.onToggleVisible),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Remove", mw.onRemoveLayer),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		fyne.NewMenuItem("Actual Size", mw.onActualSize),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, layerMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers canvas callbacks.
func (mw *MainWindow) setupEventHandlers() {
	mw.canvas.OnChange(mw.updateStatus)

	mw.canvas.OnOverlayMoved(func(pos r2.Vec) {
		mw.prefs.SetOverlayPosition(pos.X, pos.Y)
		mw.savePreferences()
	})

	mw.canvas.OnProperties(mw.showProperties)

	mw.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		var paths []string
		for _, u := range uris {
			if layerimage.IsSupportedFormat(u.Path()) {
				paths = append(paths, u.Path())
			}
		}
		if err := mw.OpenImages(paths); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	})

	mw.SetCloseIntercept(func() {
		size := mw.Canvas().Size()
		mw.prefs.SetWindowSize(size.Width, size.Height)
		mw.prefs.SetZoomPercent(mw.canvas.Controller().ZoomPercent())
		mw.savePreferences()
		mw.Close()
	})
}

// ApplyConfig takes over the reloadable settings of cfg. It is called from
// the config watcher goroutine.
func (mw *MainWindow) ApplyConfig(cfg *config.Config) {
	mw.canvas.SetBackground(cfg.BackgroundColor())
	slog.Info("configuration applied", "background", cfg.Background)
}

// OpenImages loads each path as a new layer. Failures are collected and
// reported together after the remaining files are loaded.
func (mw *MainWindow) OpenImages(paths []string) error {
	var errs []error
	for _, path := range paths {
		buf, err := layerimage.Load(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to load %s: %w", filepath.Base(path), err))
			continue
		}
		id, err := mw.canvas.AddLayer(buf, layerimage.LayerName(path))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to add %s: %w", filepath.Base(path), err))
			continue
		}
		slog.Info("layer added", "id", id, "path", path, "width", buf.Rect.Dx(), "height", buf.Rect.Dy())
	}
	return errors.Join(errs...)
}

// updateStatus shows zoom, layer count and the scene position under the
// pointer.
func (mw *MainWindow) updateStatus() {
	ctrl := mw.canvas.Controller()
	pos := mw.canvas.Cursor()
	text := fmt.Sprintf("%d layers   x: %.0f  y: %.0f", ctrl.Stack().Len(), pos.X, pos.Y)
	if sel := ctrl.Stack().Selected(); sel != nil {
		text += "   selected: " + sel.Name
	}
	mw.statusBar.SetText(text)
	mw.zoomLabel.SetText(fmt.Sprintf("%g%%", ctrl.ZoomPercent()))
}

func (mw *MainWindow) savePreferences() {
	if err := mw.prefs.Save(); err != nil {
		slog.Warn("failed to save preferences", "err", err)
	}
}

// lastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) lastDir() fyne.ListableURI {
	path := mw.prefs.LastDir()
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// Menu action handlers

func (mw *MainWindow) onOpenImages() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.prefs.SetLastDir(filepath.Dir(path))
		mw.savePreferences()

		if err := mw.OpenImages([]string{path}); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)

	fd.SetFilter(storage.NewExtensionFileFilter(layerimage.SupportedFormats()))
	if loc := mw.lastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onRemoveLayer() {
	if !mw.canvas.RemoveSelected() {
		dialog.ShowError(ErrNoSelection, mw.Window)
	}
}

func (mw *MainWindow) onToggleVisible() {
	sel := mw.canvas.Controller().Stack().Selected()
	if sel == nil {
		dialog.ShowError(ErrNoSelection, mw.Window)
		return
	}
	mw.canvas.Controller().SetVisible(sel.ID, !sel.Visible)
	mw.canvas.LayersChanged()
}

func (mw *MainWindow) onLayerProperties() {
	sel := mw.canvas.Controller().Stack().Selected()
	if sel == nil {
		dialog.ShowError(ErrNoSelection, mw.Window)
		return
	}
	mw.showProperties(sel.ID)
}

func (mw *MainWindow) showProperties(id int) {
	l := mw.canvas.Controller().Stack().Layer(id)
	if l == nil {
		return
	}
	ctrl := mw.canvas.Controller()
	dlg := dialogs.NewLayerPropertiesDialog(l, mw.Window, func(edit dialogs.LayerEdit) {
		if err := mw.applyEdit(id, edit); err != nil {
			dialog.ShowError(err, mw.Window)
		}
		mw.canvas.LayersChanged()
	})
	// Canvas input stays off while the dialog is up.
	ctrl.SetEnabled(false)
	dlg.OnClosed(func() { ctrl.SetEnabled(true) })
	dlg.Show()
}

// applyEdit writes a confirmed properties edit back to layer id. A rejected
// edit leaves the layer untouched. The lock is released for the move and set
// to its new value afterwards.
func (mw *MainWindow) applyEdit(id int, edit dialogs.LayerEdit) error {
	ctrl := mw.canvas.Controller()
	l := ctrl.Stack().Layer(id)
	if l == nil {
		return fmt.Errorf("layer %d no longer exists", id)
	}

	if err := ctrl.UpdateLayer(id, edit.Depth, edit.BlendMode, edit.Visible); err != nil {
		return fmt.Errorf("failed to update layer: %w", err)
	}
	unlocked := false
	ctrl.UpdateLayerInfo(id, scene.LayerInfo{Name: &edit.Name, PositionFixed: &unlocked})
	if delta := edit.Position.Sub(l.Position); delta.X != 0 || delta.Y != 0 {
		ctrl.MoveLayer(id, delta)
	}
	ctrl.UpdateLayerInfo(id, scene.LayerInfo{PositionFixed: &edit.PositionFixed})
	return nil
}

func (mw *MainWindow) onZoomIn() {
	mw.canvas.ZoomIn()
	mw.prefs.SetZoomPercent(mw.canvas.Controller().ZoomPercent())
}

func (mw *MainWindow) onZoomOut() {
	mw.canvas.ZoomOut()
	mw.prefs.SetZoomPercent(mw.canvas.Controller().ZoomPercent())
}

func (mw *MainWindow) onActualSize() {
	mw.canvas.SetZoomPercent(100)
	mw.prefs.SetZoomPercent(mw.canvas.Controller().ZoomPercent())
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Stack images as layers, blend them and\n"+
			"line them up on a zoomable canvas.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
