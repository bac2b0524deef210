// Package imposition arranges the pages of a document into booklet sheets.
//
// The package works on the Page interface only. Reading and writing the
// actual document, and building the content of merged sheets, is left to a
// Composer supplied by the caller (see package pdfdoc and package plan).
package imposition

import "github.com/wudi/pdfimpose/coords"

// Page is the view of a page the imposition needs.
type Page interface {
	// Size is the width and height of the page box, rotation not applied.
	Size() coords.Size
	// Rotation is the display rotation, one of 0, 90, 180 or 270.
	Rotation() int
}

// Composer creates new pages. Implementations must not modify the pages
// they are given.
type Composer interface {
	// BlankCopy returns an empty page with the size and rotation of p.
	BlankCopy(p Page) Page
	// Merge draws first and second on a new sheet as described by pl.
	Merge(first, second Page, pl Placement) Page
	// Transform draws p scaled by scale and moved by (dx, dy) on a new
	// page of the given box. The rotation of p is baked in.
	Transform(p Page, scale, dx, dy float64, box coords.Size) Page
}

// VisibleSize returns the size a page shows once its rotation is applied.
func VisibleSize(p Page) coords.Size {
	return coords.Rotated(p.Size(), p.Rotation())
}
