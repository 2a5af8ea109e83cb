// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Epsilon is the float noise ignored when rounding scaled coordinates and
// the smallest magnitude used as a divisor.
const Epsilon = 1e-9

// Int2 represents a 2D point or offset with integer coordinates.
type Int2 struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NewInt2 creates a new Int2.
func NewInt2(x, y int) Int2 {
	return Int2{X: x, Y: y}
}

// Add returns the sum of two points.
func (p Int2) Add(other Int2) Int2 {
	return Int2{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Int2) Sub(other Int2) Int2 {
	return Int2{X: p.X - other.X, Y: p.Y - other.Y}
}

// IsZero reports whether both components are zero.
func (p Int2) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

// Vec converts to a float vector.
func (p Int2) Vec() r2.Vec {
	return r2.Vec{X: float64(p.X), Y: float64(p.Y)}
}

// CeilScale returns the point scaled by a factor, rounding up.
func (p Int2) CeilScale(factor float64) Int2 {
	return Int2{
		X: ceil(float64(p.X) * factor),
		Y: ceil(float64(p.Y) * factor),
	}
}

// ceil rounds v up, ignoring float noise below Epsilon so that products like
// 100*1.12 land on 112.
func ceil(v float64) int {
	return int(math.Ceil(v - Epsilon))
}

// RoundVec converts a float vector to the nearest integer point.
func RoundVec(v r2.Vec) Int2 {
	return Int2{X: int(math.Round(v.X)), Y: int(math.Round(v.Y))}
}

// Size represents an integer width and height.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewSize creates a new Size.
func NewSize(width, height int) Size {
	return Size{Width: width, Height: height}
}

// CeilScale returns the size scaled by a factor, rounding up so the result
// never under-covers the nominal footprint.
func (s Size) CeilScale(factor float64) Size {
	return Size{
		Width:  ceil(float64(s.Width) * factor),
		Height: ceil(float64(s.Height) * factor),
	}
}

// Empty reports whether the size has no area.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Vec converts to a float vector.
func (s Size) Vec() r2.Vec {
	return r2.Vec{X: float64(s.Width), Y: float64(s.Height)}
}

// Span is a closed floating-point range on one axis.
type Span struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Len returns the length of the span.
func (s Span) Len() float64 {
	return s.Max - s.Min
}

// Box represents an integer rectangle by its min (inclusive) and max
// (exclusive) corners.
type Box struct {
	Min Int2 `json:"min"`
	Max Int2 `json:"max"`
}

// NewBox creates a Box from its corner coordinates.
func NewBox(xmin, ymin, xmax, ymax int) Box {
	return Box{Min: Int2{X: xmin, Y: ymin}, Max: Int2{X: xmax, Y: ymax}}
}

// Width returns the box width.
func (b Box) Width() int {
	return b.Max.X - b.Min.X
}

// Height returns the box height.
func (b Box) Height() int {
	return b.Max.Y - b.Min.Y
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.Width() <= 0 || b.Height() <= 0
}

// Intersect returns the largest box contained by both boxes. The result may
// be empty.
func (b Box) Intersect(other Box) Box {
	return Box{
		Min: Int2{X: max(b.Min.X, other.Min.X), Y: max(b.Min.Y, other.Min.Y)},
		Max: Int2{X: min(b.Max.X, other.Max.X), Y: min(b.Max.Y, other.Max.Y)},
	}
}

// XSpan returns the horizontal extent as a float span.
func (b Box) XSpan() Span {
	return Span{Min: float64(b.Min.X), Max: float64(b.Max.X)}
}

// YSpan returns the vertical extent as a float span.
func (b Box) YSpan() Span {
	return Span{Min: float64(b.Min.Y), Max: float64(b.Max.Y)}
}

// Normalize returns v scaled to unit length. Vectors shorter than Epsilon are
// divided by Epsilon instead of their length.
func Normalize(v r2.Vec) r2.Vec {
	n := math.Max(r2.Norm(v), Epsilon)
	return r2.Scale(1/n, v)
}

// Sign returns -1, 0 or 1 according to the sign of x.
func Sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
