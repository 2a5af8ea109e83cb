// Package prefs persists window state between sessions as JSON.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"layer-canvas/internal/config"

	"github.com/mitchellh/go-homedir"
)

const prefsFile = "preferences.json"

// Values is the persisted state. Zero fields mean "not recorded yet".
type Values struct {
	LastDir     string   `json:"last_dir,omitempty"`
	ZoomPercent float64  `json:"zoom_percent,omitempty"`
	OverlayX    *float64 `json:"overlay_x,omitempty"`
	OverlayY    *float64 `json:"overlay_y,omitempty"`
	WindowW     float32  `json:"window_width,omitempty"`
	WindowH     float32  `json:"window_height,omitempty"`
}

// Prefs guards Values and knows where to store them. Safe for concurrent use.
type Prefs struct {
	mu     sync.RWMutex
	values Values
	path   string
}

// DefaultPath returns <config dir>/layer-canvas/preferences.json, falling
// back to ~/.config when the platform config dir is unknown.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := homedir.Dir()
		if herr != nil {
			return "", fmt.Errorf("failed to locate home dir: %w", herr)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, config.AppName, prefsFile), nil
}

// Load reads preferences from the default location. Problems are logged and
// yield empty preferences.
func Load() *Prefs {
	path, err := DefaultPath()
	if err != nil {
		slog.Warn("preferences disabled", "err", err)
		return &Prefs{}
	}
	return LoadFrom(path)
}

// LoadFrom reads preferences from path. A missing or unreadable file yields
// empty preferences that will be saved to path.
func LoadFrom(path string) *Prefs {
	p := &Prefs{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to read preferences", "path", path, "err", err)
		}
		return p
	}
	if err := json.Unmarshal(data, &p.values); err != nil {
		slog.Warn("ignoring malformed preferences", "path", path, "err", err)
		p.values = Values{}
	}
	return p
}

// Path returns where Save writes.
func (p *Prefs) Path() string {
	return p.path
}

// Save writes preferences to disk. Preferences without a path are not saved.
func (p *Prefs) Save() error {
	if p.path == "" {
		return nil
	}
	p.mu.RLock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("failed to create preferences dir: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}

// Values returns a copy of the current state.
func (p *Prefs) Values() Values {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values
}

// LastDir returns the directory images were last opened from, expanding a
// leading ~.
func (p *Prefs) LastDir() string {
	p.mu.RLock()
	dir := p.values.LastDir
	p.mu.RUnlock()
	if dir == "" {
		return ""
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return dir
	}
	return expanded
}

// SetLastDir records the directory of an opened image.
func (p *Prefs) SetLastDir(dir string) {
	p.mu.Lock()
	p.values.LastDir = dir
	p.mu.Unlock()
}

// ZoomPercent returns the saved zoom, or fallback if none was saved.
func (p *Prefs) ZoomPercent(fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.values.ZoomPercent > 0 {
		return p.values.ZoomPercent
	}
	return fallback
}

// SetZoomPercent records the zoom.
func (p *Prefs) SetZoomPercent(z float64) {
	p.mu.Lock()
	p.values.ZoomPercent = z
	p.mu.Unlock()
}

// OverlayPosition returns the saved layer panel position, or the fallback
// coordinates for components never saved.
func (p *Prefs) OverlayPosition(fallbackX, fallbackY float64) (x, y float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	x, y = fallbackX, fallbackY
	if p.values.OverlayX != nil {
		x = *p.values.OverlayX
	}
	if p.values.OverlayY != nil {
		y = *p.values.OverlayY
	}
	return x, y
}

// SetOverlayPosition records the layer panel position.
func (p *Prefs) SetOverlayPosition(x, y float64) {
	p.mu.Lock()
	p.values.OverlayX = &x
	p.values.OverlayY = &y
	p.mu.Unlock()
}

// WindowSize returns the saved window size, or the fallback.
func (p *Prefs) WindowSize(fallbackW, fallbackH float32) (w, h float32) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.values.WindowW > 0 && p.values.WindowH > 0 {
		return p.values.WindowW, p.values.WindowH
	}
	return fallbackW, fallbackH
}

// SetWindowSize records the window size.
func (p *Prefs) SetWindowSize(w, h float32) {
	p.mu.Lock()
	p.values.WindowW, p.values.WindowH = w, h
	p.mu.Unlock()
}
