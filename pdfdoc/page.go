package pdfdoc

import (
	"github.com/wudi/pdfimpose/coords"
	"github.com/wudi/pdfimpose/imposition"
	"github.com/wudi/pdfimpose/ir/raw"
)

// Page is an immutable page: a page of a source document, a blank page, or
// a sheet composed of other pages.
type Page struct {
	box    coords.Rect
	rotate int
	blank  bool
	src    *source
	layers []layer
}

// source is a page dictionary in an opened document.
type source struct {
	doc       *Document
	dict      *raw.DictObj
	resources raw.Object
}

// layer draws page with the transform m applied.
type layer struct {
	page *Page
	m    coords.Matrix
}

func (p *Page) Size() coords.Size { return p.box.Size() }
func (p *Page) Rotation() int     { return p.rotate }

// Box is the page box in the page's own coordinates.
func (p *Page) Box() coords.Rect { return p.box }

// Blank reports whether the page has no content at all.
func (p *Page) Blank() bool { return p.blank }

// Composer builds pages for the imposition. Pages it did not create are
// treated as blank pages of the same geometry.
type Composer struct{}

var _ imposition.Composer = Composer{}

func asPage(p imposition.Page) *Page {
	if pp, ok := p.(*Page); ok {
		return pp
	}
	return &Page{box: coords.RectOf(p.Size()), rotate: p.Rotation(), blank: true}
}

func (Composer) BlankCopy(p imposition.Page) imposition.Page {
	src := asPage(p)
	return &Page{box: src.box, rotate: src.rotate, blank: true}
}

func (Composer) Merge(first, second imposition.Page, pl imposition.Placement) imposition.Page {
	a, b := asPage(first), asPage(second)
	return &Page{
		box:    coords.RectOf(pl.Box),
		rotate: pl.Rotation,
		layers: []layer{
			{page: a, m: placeAt(a, pl.First)},
			{page: b, m: placeAt(b, pl.Second)},
		},
	}
}

func (Composer) Transform(p imposition.Page, scale, dx, dy float64, box coords.Size) imposition.Page {
	src := asPage(p)
	m := coords.PageRotation(src.rotate, src.box).
		Multiply(coords.Scale(scale, scale)).
		Multiply(coords.Translate(dx, dy))
	return &Page{box: coords.RectOf(box), layers: []layer{{page: src, m: m}}}
}

// placeAt bakes the rotation of p and moves its lower-left corner to at.
func placeAt(p *Page, at coords.Point) coords.Matrix {
	return coords.PageRotation(p.rotate, p.box).Multiply(coords.Translate(at.X, at.Y))
}
