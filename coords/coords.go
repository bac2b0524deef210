// Package coords holds the small amount of 2D geometry needed to place
// pages on sheets: affine matrices in PDF order, sizes and rectangles.
package coords

import (
	"errors"
	"math"
)

// Matrix is an affine transform [a b c d e f] mapping (x, y) to
// (a*x + c*y + e, b*x + d*y + f), the layout used by the PDF "cm" operator.
type Matrix [6]float64

func Identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

// Multiply returns the transform that applies m first and o second.
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4],
		m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

type Point struct{ X, Y float64 }

func (m Matrix) Transform(p Point) Point {
	return Point{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

func (m Matrix) Inverse() (Matrix, error) {
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < 1e-10 {
		return Matrix{}, errors.New("matrix singular")
	}
	return Matrix{
		m[3] / det, -m[1] / det,
		-m[2] / det, m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, nil
}

// IsIdentity reports whether m leaves every point in place.
func (m Matrix) IsIdentity() bool { return m == Identity() }

func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }
func Scale(sx, sy float64) Matrix     { return Matrix{sx, 0, 0, sy, 0, 0} }

// Size is a width and height in points.
type Size struct {
	Width  float64
	Height float64
}

// Landscape reports whether the size is strictly wider than tall.
func (s Size) Landscape() bool { return s.Width > s.Height }

// Swap returns the size turned by a quarter.
func (s Size) Swap() Size { return Size{Width: s.Height, Height: s.Width} }

// Rect is an axis aligned rectangle given by its lower-left and upper-right corners.
type Rect struct {
	LLX, LLY, URX, URY float64
}

func RectOf(s Size) Rect { return Rect{URX: s.Width, URY: s.Height} }

func (r Rect) Width() float64  { return r.URX - r.LLX }
func (r Rect) Height() float64 { return r.URY - r.LLY }
func (r Rect) Size() Size      { return Size{Width: r.Width(), Height: r.Height()} }

// Normalize orders the corners so that LL is below and left of UR.
func (r Rect) Normalize() Rect {
	if r.LLX > r.URX {
		r.LLX, r.URX = r.URX, r.LLX
	}
	if r.LLY > r.URY {
		r.LLY, r.URY = r.URY, r.LLY
	}
	return r
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		LLX: math.Min(r.LLX, o.LLX),
		LLY: math.Min(r.LLY, o.LLY),
		URX: math.Max(r.URX, o.URX),
		URY: math.Max(r.URY, o.URY),
	}
}

// TransformRect maps all four corners of r through m and returns their bounds.
func (m Matrix) TransformRect(r Rect) Rect {
	pts := [4]Point{{r.LLX, r.LLY}, {r.URX, r.LLY}, {r.LLX, r.URY}, {r.URX, r.URY}}
	first := m.Transform(pts[0])
	out := Rect{LLX: first.X, LLY: first.Y, URX: first.X, URY: first.Y}
	for _, p := range pts[1:] {
		q := m.Transform(p)
		out = out.Union(Rect{LLX: q.X, LLY: q.Y, URX: q.X, URY: q.Y})
	}
	return out
}

// NormalizeRotation folds any multiple of 90 into 0, 90, 180 or 270.
// Values that are not a multiple of 90 map to 0, as viewers ignore them.
func NormalizeRotation(rot int) int {
	rot %= 360
	if rot < 0 {
		rot += 360
	}
	if rot%90 != 0 {
		return 0
	}
	return rot
}

// Rotated returns the size a box of size s shows once turned by rot degrees.
func Rotated(s Size, rot int) Size {
	switch NormalizeRotation(rot) {
	case 90, 270:
		return s.Swap()
	}
	return s
}

// PageRotation returns the transform that bakes a clockwise display
// rotation of rot degrees into box, moving the result to the origin.
// The image of box under the returned matrix is [0 0 w' h'] where
// w', h' are the rotated dimensions.
func PageRotation(rot int, box Rect) Matrix {
	w, h := box.Width(), box.Height()
	origin := Translate(-box.LLX, -box.LLY)
	switch NormalizeRotation(rot) {
	case 90:
		return origin.Multiply(Matrix{0, -1, 1, 0, 0, w})
	case 180:
		return origin.Multiply(Matrix{-1, 0, 0, -1, w, h})
	case 270:
		return origin.Multiply(Matrix{0, 1, -1, 0, h, 0})
	}
	return origin
}
