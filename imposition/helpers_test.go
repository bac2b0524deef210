package imposition

import (
	"fmt"
	"testing"

	"github.com/wudi/pdfimpose/coords"
)

// testPage is a labelled page recording how it was built.
type testPage struct {
	label  string
	size   coords.Size
	rot    int
	blank  bool
	first  *testPage
	second *testPage
	pl     Placement
	scale  float64
	dx, dy float64
}

func (p *testPage) Size() coords.Size { return p.size }
func (p *testPage) Rotation() int     { return p.rot }

// order lists the labels of the leaves in drawing order, "_" for blanks.
func (p *testPage) order() []string {
	switch {
	case p.first != nil:
		return append(p.first.order(), p.second.order()...)
	case p.blank:
		return []string{"_"}
	}
	return []string{p.label}
}

type testComposer struct{ blanks, merges, transforms int }

func (c *testComposer) BlankCopy(p Page) Page {
	c.blanks++
	return &testPage{size: p.Size(), rot: p.Rotation(), blank: true}
}

func (c *testComposer) Merge(first, second Page, pl Placement) Page {
	c.merges++
	return &testPage{first: first.(*testPage), second: second.(*testPage), pl: pl, size: pl.Box, rot: pl.Rotation}
}

func (c *testComposer) Transform(p Page, scale, dx, dy float64, box coords.Size) Page {
	c.transforms++
	src := p.(*testPage)
	out := *src
	out.size, out.rot = box, 0
	out.scale, out.dx, out.dy = scale, dx, dy
	return &out
}

func numberedPages(n int, size coords.Size) []Page {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = &testPage{label: fmt.Sprint(i + 1), size: size}
	}
	return pages
}

func labels(t *testing.T, pages []Page) []string {
	t.Helper()
	out := make([]string, len(pages))
	for i, p := range pages {
		tp, ok := p.(*testPage)
		if !ok {
			t.Fatalf("page %d has type %T", i, p)
		}
		if tp.blank {
			out[i] = "_"
		} else {
			out[i] = tp.label
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var (
	a4 = coords.Size{Width: 595, Height: 842}
	a5 = coords.Size{Width: 420, Height: 595}
)
