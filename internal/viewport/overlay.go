package viewport

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Overlay is a floating panel pinned to the viewport. Its position is kept
// in canvas-local pixels so scrolling and zooming the scene never moves it.
type Overlay struct {
	Position r2.Vec // Top-left, canvas-local pixels
	Size     r2.Vec
}

// Bounds returns the top-left and bottom-right corners.
func (o *Overlay) Bounds() (lo, hi r2.Vec) {
	return o.Position, r2.Add(o.Position, o.Size)
}

// Translate moves the panel by delta within a viewport of size view. Each
// component that would push the panel outside the viewport is dropped; the
// applied translation is returned.
func (o *Overlay) Translate(delta, view r2.Vec) r2.Vec {
	lo, hi := o.Bounds()

	if hi.X+delta.X > view.X {
		delta.X = 0
	} else if lo.X+delta.X < 0 {
		delta.X = 0
	}

	if lo.Y+delta.Y < 0 {
		delta.Y = 0
	} else if hi.Y+delta.Y > view.Y {
		delta.Y = 0
	}

	o.Position = r2.Add(o.Position, delta)
	return delta
}

// Clamp pulls the panel back inside a viewport of size view and returns the
// shift applied. A panel larger than the viewport keeps its right edge in
// view, and its top edge only when it was already above the viewport. A
// viewport without area (not laid out yet) leaves the panel where it is.
func (o *Overlay) Clamp(view r2.Vec) r2.Vec {
	var shift r2.Vec
	if view.X <= 0 || view.Y <= 0 {
		return shift
	}
	lo, hi := o.Bounds()

	if hi.X > view.X {
		shift.X = view.X - hi.X
	} else if lo.X < 0 {
		shift.X = -lo.X
	}

	if lo.Y < 0 {
		shift.Y = -lo.Y
	} else if hi.Y > view.Y {
		shift.Y = view.Y - hi.Y
	}

	o.Position = r2.Add(o.Position, shift)
	return shift
}
