// Package config loads the canvas settings file.
//
// The file is TOML and every key is optional:
//
//	zoom_table   = [25, 50, 100, 200]
//	default_zoom = 100
//	scroll_unit  = 0.1
//	background   = "#CFCFCF"
//
//	[thumbnail]
//	width  = 50
//	height = 37
//
//	[overlay]
//	x     = 10
//	y     = 10
//	width = 220
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	layerimage "layer-canvas/internal/image"
	"layer-canvas/internal/viewport"
	"layer-canvas/pkg/colorutil"

	"github.com/pelletier/go-toml/v2"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrInvalidConfig is returned when a loaded file has values the canvas
// cannot use.
var ErrInvalidConfig = errors.New("invalid config")

// AppName names the settings directory.
const AppName = "layer-canvas"

// Thumbnail sets the layer panel preview size.
type Thumbnail struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Overlay sets where the layer panel first appears and how wide it is.
type Overlay struct {
	X     float64 `toml:"x"`
	Y     float64 `toml:"y"`
	Width float64 `toml:"width"`
}

// Config holds the canvas settings.
type Config struct {
	ZoomTable   []float64 `toml:"zoom_table"`
	DefaultZoom float64   `toml:"default_zoom"`
	ScrollUnit  float64   `toml:"scroll_unit"`
	Background  string    `toml:"background"`
	Thumbnail   Thumbnail `toml:"thumbnail"`
	Overlay     Overlay   `toml:"overlay"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		ZoomTable:   slices.Clone(viewport.DefaultZoomTable),
		DefaultZoom: viewport.DefaultZoom,
		ScrollUnit:  0.1,
		Background:  "#CFCFCF",
		Thumbnail:   Thumbnail{Width: layerimage.ThumbnailWidth, Height: layerimage.ThumbnailHeight},
		Overlay:     Overlay{X: 10, Y: 10, Width: 220},
	}
}

// DefaultPath returns the settings file location under the user config
// directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config dir: %w", err)
	}
	return filepath.Join(dir, AppName, "config.toml"), nil
}

// Load reads the settings at path on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML data into cfg and validates the result. Keys absent
// from data keep their current values.
func Parse(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("%w: line %d column %d: %s", ErrInvalidConfig, row, col, derr.Error())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg.Validate()
}

// Save writes cfg to path, creating the directory if needed.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks the values the canvas relies on.
func (c *Config) Validate() error {
	if len(c.ZoomTable) == 0 {
		return fmt.Errorf("%w: zoom_table is empty", ErrInvalidConfig)
	}
	for i, z := range c.ZoomTable {
		if z <= 0 {
			return fmt.Errorf("%w: zoom_table[%d] = %v is not positive", ErrInvalidConfig, i, z)
		}
		if i > 0 && z <= c.ZoomTable[i-1] {
			return fmt.Errorf("%w: zoom_table is not ascending at %d", ErrInvalidConfig, i)
		}
	}
	if !slices.Contains(c.ZoomTable, c.DefaultZoom) {
		return fmt.Errorf("%w: default_zoom %v is not in zoom_table", ErrInvalidConfig, c.DefaultZoom)
	}
	if c.ScrollUnit <= 0 || c.ScrollUnit > 1 {
		return fmt.Errorf("%w: scroll_unit %v out of (0, 1]", ErrInvalidConfig, c.ScrollUnit)
	}
	if c.Thumbnail.Width <= 0 || c.Thumbnail.Height <= 0 {
		return fmt.Errorf("%w: thumbnail size %dx%d", ErrInvalidConfig, c.Thumbnail.Width, c.Thumbnail.Height)
	}
	if c.Overlay.Width <= 0 {
		return fmt.Errorf("%w: overlay width %v", ErrInvalidConfig, c.Overlay.Width)
	}
	if _, err := ParseColor(c.Background); err != nil {
		return err
	}
	return nil
}

// ViewportOptions returns the controller settings. The overlay height is
// left for the layout to fill in.
func (c *Config) ViewportOptions() viewport.Options {
	return viewport.Options{
		ZoomTable:       c.ZoomTable,
		DefaultZoom:     c.DefaultZoom,
		ScrollUnit:      c.ScrollUnit,
		OverlayPosition: r2.Vec{X: c.Overlay.X, Y: c.Overlay.Y},
		OverlaySize:     r2.Vec{X: c.Overlay.Width},
	}
}

// BackgroundColor returns the parsed background, falling back to the
// default canvas color.
func (c *Config) BackgroundColor() color.NRGBA {
	col, err := ParseColor(c.Background)
	if err != nil {
		return colorutil.CanvasBackground
	}
	return col
}

// ParseColor reads a "#RRGGBB" or "#RGB" hex color.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("%w: background %q", ErrInvalidConfig, s)
	}
	return colorutil.FromRGB([3]uint8{uint8(v >> 16), uint8(v >> 8), uint8(v)}), nil
}
