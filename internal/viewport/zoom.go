package viewport

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidZoomTable is returned for zoom tables that are empty, not
// strictly ascending, or contain non-positive entries.
var ErrInvalidZoomTable = errors.New("invalid zoom table")

// DefaultZoomTable lists the zoom steps in percent.
var DefaultZoomTable = []float64{
	5, 6, 7, 8, 9, 10, 12, 13, 15, 16, 18, 20, 23, 26, 29, 32, 36, 40, 45, 51,
	57, 64, 71, 80, 89, 100, 112, 125, 140, 157, 176, 200,
}

// DefaultZoom is the zoom in percent a canvas starts at.
const DefaultZoom = 100.0

// ZoomTable is an immutable ascending list of zoom percentages.
type ZoomTable struct {
	steps []float64
}

// NewZoomTable validates and copies steps.
func NewZoomTable(steps []float64) (*ZoomTable, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrInvalidZoomTable)
	}
	for i, s := range steps {
		if s <= 0 {
			return nil, fmt.Errorf("%w: step %d is %v", ErrInvalidZoomTable, i, s)
		}
		if i > 0 && s <= steps[i-1] {
			return nil, fmt.Errorf("%w: step %d (%v) not above %v", ErrInvalidZoomTable, i, s, steps[i-1])
		}
	}
	return &ZoomTable{steps: slices.Clone(steps)}, nil
}

// Len returns the number of steps.
func (t *ZoomTable) Len() int {
	return len(t.steps)
}

// Percent returns step i, clamped to the table.
func (t *ZoomTable) Percent(i int) float64 {
	return t.steps[t.Clamp(i)]
}

// Fraction returns step i as a scale factor (100% = 1).
func (t *ZoomTable) Fraction(i int) float64 {
	return t.Percent(i) / 100
}

// Index returns the index of percent, or -1 when it is not a step.
func (t *ZoomTable) Index(percent float64) int {
	return slices.Index(t.steps, percent)
}

// Clamp limits i to valid indices.
func (t *ZoomTable) Clamp(i int) int {
	return min(max(i, 0), len(t.steps)-1)
}

// Steps returns a copy of the table.
func (t *ZoomTable) Steps() []float64 {
	return slices.Clone(t.steps)
}
