package mot

import (
	"image"
	"math"
)

// Box is an axis-aligned bounding box given by its top-left (X1, Y1) and bottom-right (X2, Y2) corners.
type Box struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// NewBox creates box from corners
func NewBox(x1, y1, x2, y2 float64) Box {
	return Box{
		X1: x1,
		Y1: y1,
		X2: x2,
		Y2: y2,
	}
}

// NewBoxFromCenter creates box from center point and dimensions
func NewBoxFromCenter(cx, cy, width, height float64) Box {
	return Box{
		X1: cx - width/2.0,
		Y1: cy - height/2.0,
		X2: cx + width/2.0,
		Y2: cy + height/2.0,
	}
}

// NewBoxFromImage converts integer image rectangle to Box
func NewBoxFromImage(rect image.Rectangle) Box {
	return NewRectFrom(rect).Box()
}

// Width returns box width
func (b Box) Width() float64 {
	return b.X2 - b.X1
}

// Height returns box height
func (b Box) Height() float64 {
	return b.Y2 - b.Y1
}

// Area returns box area. Degenerate boxes have zero area.
func (b Box) Area() float64 {
	w := b.Width()
	h := b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Center returns box center
func (b Box) Center() Point {
	return Point{
		X: (b.X1 + b.X2) / 2.0,
		Y: (b.Y1 + b.Y2) / 2.0,
	}
}

// Rect converts box to Rectangle (X, Y, Width, Height)
func (b Box) Rect() Rectangle {
	return Rectangle{
		X:      b.X1,
		Y:      b.Y1,
		Width:  b.Width(),
		Height: b.Height(),
	}
}

// IsFinite reports whether all corners are finite numbers
func (b Box) IsFinite() bool {
	for _, v := range [4]float64{b.X1, b.Y1, b.X2, b.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Rectangle is a box given by its top-left corner and dimensions
type Rectangle struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewRect creates rectangle from top-left corner and dimensions
func NewRect(x, y, width, height float64) Rectangle {
	return Rectangle{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

// NewRectFrom converts integer image rectangle to Rectangle
func NewRectFrom(rect image.Rectangle) Rectangle {
	return Rectangle{
		X:      float64(rect.Min.X),
		Y:      float64(rect.Min.Y),
		Width:  float64(rect.Dx()),
		Height: float64(rect.Dy()),
	}
}

// Box converts rectangle to corner form
func (r Rectangle) Box() Box {
	return Box{
		X1: r.X,
		Y1: r.Y,
		X2: r.X + r.Width,
		Y2: r.Y + r.Height,
	}
}

// Point is a 2D point (box center, velocity)
type Point struct {
	X float64
	Y float64
}

// NewPoint creates point from coordinates
func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(p1.X-p2.X, 2) + math.Pow(p1.Y-p2.Y, 2))
}
