// Package sexp provides shared S-expression infrastructure and geometry types
// for KiCad board files.
package sexp

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
)

// Position represents a 2D coordinate in the KiCad board coordinate system.
// Coordinates are millimetres, exactly as written in KiCad 6+ files, with the
// Y axis pointing down.
type Position struct {
	X float64
	Y float64
}

// Add returns p+q.
func (p Position) Add(q Position) Position {
	return fromVec(r2.Add(p.vec(), q.vec()))
}

// Sub returns p-q.
func (p Position) Sub(q Position) Position {
	return fromVec(r2.Sub(p.vec(), q.vec()))
}

// Neg returns -p.
func (p Position) Neg() Position {
	return Position{X: -p.X, Y: -p.Y}
}

// Distance returns the Euclidean distance between p and q.
func (p Position) Distance(q Position) float64 {
	return r2.Norm(r2.Sub(p.vec(), q.vec()))
}

// ApproxEqual reports whether p and q are within tol millimetres on both axes.
func (p Position) ApproxEqual(q Position, tol float64) bool {
	return scalar.EqualWithinAbs(p.X, q.X, tol) && scalar.EqualWithinAbs(p.Y, q.Y, tol)
}

func (p Position) vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

func fromVec(v r2.Vec) Position { return Position{X: v.X, Y: v.Y} }

// Angle represents rotation in degrees. Positive angles turn counter-clockwise
// as seen on screen, which is clockwise in the Y-down board frame.
type Angle float64

// Radians converts the angle to radians.
func (a Angle) Radians() float64 {
	return float64(a) * math.Pi / 180
}

// Normalize folds the angle into (-180, 180].
func (a Angle) Normalize() Angle {
	v := math.Mod(float64(a), 360)
	if v <= -180 {
		v += 360
	} else if v > 180 {
		v -= 360
	}
	return Angle(v)
}

// ApproxEqual compares two angles modulo 360 within tol degrees.
func (a Angle) ApproxEqual(b Angle, tol float64) bool {
	return math.Abs(float64((a - b).Normalize())) <= tol
}

// RightAngle reports whether the angle is a multiple of 90 degrees.
func (a Angle) RightAngle() bool {
	_, frac := math.Modf(float64(a) / 90)
	return scalar.EqualWithinAbs(frac, 0, 1e-9) || scalar.EqualWithinAbs(math.Abs(frac), 1, 1e-9)
}

// RotatePoint rotates p about center by a, using the KiCad convention.
// In board coordinates a +90 degree rotation takes (10, 0) to (0, -10).
func RotatePoint(p, center Position, a Angle) Position {
	if a == 0 {
		return p
	}
	// r2 rotates counter-clockwise in a Y-up frame; the board frame is Y-down.
	return fromVec(r2.Rotate(p.vec(), -a.Radians(), center.vec()))
}

// PositionAngle combines position with rotation
type PositionAngle struct {
	Position
	Angle Angle
}

// Size represents dimensions
type Size struct {
	Width  float64 // Width in mm
	Height float64 // Height in mm
}

// BoundingBox represents a rectangular boundary
type BoundingBox struct {
	Min Position // Minimum (top-left) corner
	Max Position // Maximum (bottom-right) corner
}

// NewBoundingBox creates an empty bounding box
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		Min: Position{X: math.Inf(1), Y: math.Inf(1)},
		Max: Position{X: math.Inf(-1), Y: math.Inf(-1)},
	}
}

// IsEmpty checks if the bounding box is empty
func (bb BoundingBox) IsEmpty() bool {
	return bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y
}

// Expand expands the bounding box to include a position
func (bb *BoundingBox) Expand(pos Position) {
	bb.Min.X = math.Min(bb.Min.X, pos.X)
	bb.Min.Y = math.Min(bb.Min.Y, pos.Y)
	bb.Max.X = math.Max(bb.Max.X, pos.X)
	bb.Max.Y = math.Max(bb.Max.Y, pos.Y)
}

// Width returns the width of the bounding box
func (bb BoundingBox) Width() float64 {
	return bb.Max.X - bb.Min.X
}

// Height returns the height of the bounding box
func (bb BoundingBox) Height() float64 {
	return bb.Max.Y - bb.Min.Y
}

// Center returns the center point of the bounding box
func (bb BoundingBox) Center() Position {
	return Position{
		X: (bb.Min.X + bb.Max.X) / 2.0,
		Y: (bb.Min.Y + bb.Max.Y) / 2.0,
	}
}

// UUID represents a unique identifier (used in KiCad v6+ files)
type UUID string
