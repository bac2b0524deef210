package imposition

import (
	"strings"

	"github.com/wudi/pdfimpose/coords"
)

// Edge is the side of the booklet where the pages are bound.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeTop
	EdgeRight
	EdgeBottom
)

var edgeNames = [...]string{"left", "top", "right", "bottom"}

func (e Edge) String() string {
	if e < 0 || int(e) >= len(edgeNames) {
		return "unknown"
	}
	return edgeNames[e]
}

// ParseEdge maps a case-insensitive edge name to an Edge.
func ParseEdge(s string) (Edge, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range edgeNames {
		if n == name {
			return Edge(i), nil
		}
	}
	return 0, configf("binding edge", "unknown edge %q, want one of %s", s, strings.Join(edgeNames[:], ", "))
}

// Placement says where the two halves of a sheet go. Offsets are relative
// to the lower-left corner of the unrotated sheet, and each half occupies
// its visible (rotated) size.
type Placement struct {
	First    coords.Point
	Second   coords.Point
	Box      coords.Size
	Rotation int
}

// Place computes how first and second share a sheet bound along edge.
// Left and right bindings stack the pages horizontally and turn the sheet by
// rotation only when it comes out landscape. Top and bottom bindings stack
// vertically and turn it only when it comes out portrait.
func Place(first, second Page, rotation int, edge Edge) (Placement, error) {
	a, b := VisibleSize(first), VisibleSize(second)
	var pl Placement
	switch edge {
	case EdgeLeft:
		pl.Second.X = a.Width
	case EdgeRight:
		pl.First.X = a.Width
	case EdgeTop:
		pl.First.Y = a.Height
	case EdgeBottom:
		pl.Second.Y = a.Height
	default:
		return Placement{}, configf("place", "unknown binding edge %d", int(edge))
	}

	box := placedRect(pl.First, a).Union(placedRect(pl.Second, b))
	pl.Box = coords.Size{Width: box.URX, Height: box.URY}

	landscape := pl.Box.Landscape()
	switch edge {
	case EdgeLeft, EdgeRight:
		if landscape {
			pl.Rotation = coords.NormalizeRotation(rotation)
		}
	default:
		if !landscape {
			pl.Rotation = coords.NormalizeRotation(rotation)
		}
	}
	return pl, nil
}

func placedRect(at coords.Point, s coords.Size) coords.Rect {
	return coords.Rect{LLX: at.X, LLY: at.Y, URX: at.X + s.Width, URY: at.Y + s.Height}
}
