// Package main provides the entry point for the Layer Canvas application.
package main

import (
	"log/slog"
	"os"

	"layer-canvas/internal/config"
	"layer-canvas/internal/version"
	"layer-canvas/internal/viewport"
	"layer-canvas/ui/mainwindow"
	"layer-canvas/ui/prefs"

	"fyne.io/fyne/v2/app"
	"gonum.org/v1/gonum/spatial/r2"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{AddSource: true})))
	slog.Info("starting", "app", config.AppName, "version", version.String())

	cfgPath, err := config.DefaultPath()
	if err != nil {
		slog.Warn("no config directory, using defaults", "err", err)
	}
	cfg := config.Default()
	if cfgPath != "" {
		if cfg, err = config.Load(cfgPath); err != nil {
			slog.Error("failed to load config, using defaults", "path", cfgPath, "err", err)
			cfg = config.Default()
		}
	}
	appPrefs := prefs.Load()

	opts := cfg.ViewportOptions()
	x, y := appPrefs.OverlayPosition(opts.OverlayPosition.X, opts.OverlayPosition.Y)
	opts.OverlayPosition = r2.Vec{X: x, Y: y}
	ctrl, err := viewport.New(opts)
	if err != nil {
		slog.Error("invalid viewport settings", "err", err)
		os.Exit(1)
	}

	fyneApp := app.NewWithID("io.github.layer-canvas")
	fyneApp.Settings().SetTheme(&mainwindow.CanvasTheme{})
	win := mainwindow.New(fyneApp, ctrl, cfg, appPrefs)

	// Handle command line arguments
	if len(os.Args) > 1 {
		if err := win.OpenImages(os.Args[1:]); err != nil {
			slog.Error("failed to open images", "err", err)
		}
	}

	if cfgPath != "" {
		watcher, err := config.Watch(cfgPath, win.ApplyConfig)
		if err != nil {
			slog.Warn("config hot reload disabled", "path", cfgPath, "err", err)
		} else {
			defer watcher.Stop()
		}
	}

	win.ShowAndRun()
}
