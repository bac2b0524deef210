// Package plan runs the imposition on symbolic pages. The result records
// which source page lands where on every output sheet, without touching any
// document content.
package plan

import (
	"github.com/wudi/pdfimpose/coords"
	"github.com/wudi/pdfimpose/imposition"
)

// Page is a numbered source page, a blank page or a composed sheet.
type Page struct {
	// Number is the 1-based source page number, zero for blanks and sheets.
	Number int
	size   coords.Size
	rotate int
	layers []layer
}

type layer struct {
	page *Page
	m    coords.Matrix
}

func (p *Page) Size() coords.Size { return p.size }
func (p *Page) Rotation() int     { return p.rotate }

// Blank reports whether p is a padding or divider page.
func (p *Page) Blank() bool { return p.Number == 0 && len(p.layers) == 0 }

// Numbered returns symbolic stand-ins for pages, numbered from 1 and
// sharing their size and rotation.
func Numbered(pages []imposition.Page) []imposition.Page {
	out := make([]imposition.Page, len(pages))
	for i, p := range pages {
		out[i] = &Page{Number: i + 1, size: p.Size(), rotate: coords.NormalizeRotation(p.Rotation())}
	}
	return out
}

// Uniform returns n numbered pages of the same size.
func Uniform(n int, size coords.Size) []imposition.Page {
	out := make([]imposition.Page, n)
	for i := range out {
		out[i] = &Page{Number: i + 1, size: size}
	}
	return out
}

// Composer records merges and transforms the same way the PDF composer
// draws them.
type Composer struct{}

var _ imposition.Composer = Composer{}

func asPage(p imposition.Page) *Page {
	if pp, ok := p.(*Page); ok {
		return pp
	}
	return &Page{size: p.Size(), rotate: p.Rotation()}
}

func (Composer) BlankCopy(p imposition.Page) imposition.Page {
	return &Page{size: p.Size(), rotate: p.Rotation()}
}

func (Composer) Merge(first, second imposition.Page, pl imposition.Placement) imposition.Page {
	a, b := asPage(first), asPage(second)
	return &Page{
		size:   pl.Box,
		rotate: pl.Rotation,
		layers: []layer{
			{page: a, m: upright(a).Multiply(coords.Translate(pl.First.X, pl.First.Y))},
			{page: b, m: upright(b).Multiply(coords.Translate(pl.Second.X, pl.Second.Y))},
		},
	}
}

func (Composer) Transform(p imposition.Page, scale, dx, dy float64, box coords.Size) imposition.Page {
	src := asPage(p)
	m := upright(src).Multiply(coords.Scale(scale, scale)).Multiply(coords.Translate(dx, dy))
	return &Page{size: box, layers: []layer{{page: src, m: m}}}
}

// upright bakes the rotation of p into its box.
func upright(p *Page) coords.Matrix {
	return coords.PageRotation(p.rotate, coords.RectOf(p.size))
}

// Leaf is a source or blank page as it appears on a displayed sheet.
type Leaf struct {
	Number int
	// Bounds is the area the page covers, in sheet display coordinates
	// with the origin at the lower left.
	Bounds coords.Rect
	// Top is the middle of the page's upper edge, showing which way the
	// page reads once the sheet is printed.
	Top coords.Point
}

// DisplaySize is the size of p as a viewer shows it.
func DisplaySize(p imposition.Page) coords.Size {
	return coords.Rotated(p.Size(), p.Rotation())
}

// Leaves flattens a sheet into the pages drawn on it, in drawing order.
func Leaves(sheet imposition.Page) []Leaf {
	p := asPage(sheet)
	var out []Leaf
	collect(p, upright(p), &out)
	return out
}

func collect(p *Page, m coords.Matrix, out *[]Leaf) {
	if len(p.layers) == 0 {
		box := coords.RectOf(p.size)
		vis := coords.Rotated(p.size, p.rotate)
		top := coords.Point{X: vis.Width / 2, Y: vis.Height}
		// top is given upright, undo the baked rotation to reach box space
		if inv, err := upright(p).Inverse(); err == nil {
			top = inv.Transform(top)
		}
		*out = append(*out, Leaf{
			Number: p.Number,
			Bounds: m.TransformRect(box),
			Top:    m.Transform(top),
		})
		return
	}
	for _, l := range p.layers {
		collect(l.page, l.m.Multiply(m), out)
	}
}
