package imposition

import (
	"errors"
	"math"
	"testing"

	"github.com/wudi/pdfimpose/coords"
)

func TestMargins(t *testing.T) {
	cases := []struct {
		target, current coords.Size
		scale, dx, dy   float64
	}{
		{coords.Size{Width: 80, Height: 80}, coords.Size{Width: 8, Height: 8}, 10, 0, 0},
		{coords.Size{Width: 50, Height: 80}, coords.Size{Width: 50, Height: 10}, 1, 0, 35},
		{coords.Size{Width: 80, Height: 50}, coords.Size{Width: 10, Height: 50}, 1, 35, 0},
	}
	for _, tc := range cases {
		scale, dx, dy, err := Margins(tc.target, tc.current)
		if err != nil {
			t.Fatalf("Margins(%v, %v): %v", tc.target, tc.current, err)
		}
		if scale != tc.scale || dx != tc.dx || dy != tc.dy {
			t.Fatalf("Margins(%v, %v) = %v %v %v, want %v %v %v", tc.target, tc.current, scale, dx, dy, tc.scale, tc.dx, tc.dy)
		}
	}
	for _, current := range []coords.Size{{Width: 0, Height: 1}, {Width: 1, Height: 0}} {
		if _, _, _, err := Margins(coords.Size{Width: 1, Height: 1}, current); !errors.Is(err, ErrArithmetic) {
			t.Fatalf("current %v: got %v, want ErrArithmetic", current, err)
		}
	}
}

func TestMediaBoxSize(t *testing.T) {
	pages := numberedPages(2, coords.Size{Width: 420.7, Height: 595.2})
	got, err := MediaBoxSize(pages)
	if err != nil || got != a5 {
		t.Fatalf("got %v, %v", got, err)
	}
	pages[0].(*testPage).rot = 90
	if got, _ := MediaBoxSize(pages); got != (coords.Size{Width: 595, Height: 420}) {
		t.Fatalf("rotated: got %v", got)
	}
	if _, err := MediaBoxSize(nil); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("no pages: got %v", err)
	}
}

func TestResizeSetsBoxes(t *testing.T) {
	c := &testComposer{}
	pages := numberedPages(3, a5)
	target := coords.Size{Width: 10, Height: 10}
	out, err := Resize(pages, target, c)
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	for i, p := range out {
		if p.Size() != target || p.Rotation() != 0 {
			t.Fatalf("page %d: size %v rotation %d", i, p.Size(), p.Rotation())
		}
	}
	if c.transforms != 3 {
		t.Fatalf("transforms = %d", c.transforms)
	}
}

func TestResizeMatchesOrientation(t *testing.T) {
	pages := numberedPages(1, a5)
	out, err := Resize(pages, coords.Size{Width: 842, Height: 595}, &testComposer{})
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	p := out[0].(*testPage)
	if p.Size() != a4 {
		t.Fatalf("box %v, want portrait a4", p.Size())
	}
	if want := 842.0 / 595; math.Abs(p.scale-want) > 1e-9 {
		t.Fatalf("scale %v, want %v", p.scale, want)
	}
	if p.dx != 0 || p.dy != 0 {
		t.Fatalf("margins %v %v", p.dx, p.dy)
	}
}

func TestResizeZeroTarget(t *testing.T) {
	for _, target := range []coords.Size{{Width: 0, Height: 10}, {Width: 10, Height: 0}} {
		if _, err := Resize(numberedPages(1, a5), target, &testComposer{}); !errors.Is(err, ErrArithmetic) {
			t.Fatalf("target %v: got %v, want ErrArithmetic", target, err)
		}
	}
}

func TestScaledSubPageSize(t *testing.T) {
	cases := []struct {
		n     int
		paper coords.Size
		want  coords.Size
	}{
		{2, a5, coords.Size{Width: 298, Height: 420}},
		{4, a5, coords.Size{Width: 210, Height: 298}},
		{2, a4, coords.Size{Width: 421, Height: 595}},
		{8, a4, coords.Size{Width: 298, Height: 210}},
		{16, a4, coords.Size{Width: 149, Height: 210}},
	}
	for _, tc := range cases {
		got, err := ScaledSubPageSize(tc.n, tc.paper)
		if err != nil {
			t.Fatalf("ScaledSubPageSize(%d): %v", tc.n, err)
		}
		if got != tc.want {
			t.Fatalf("ScaledSubPageSize(%d, %v) = %v, want %v", tc.n, tc.paper, got, tc.want)
		}
	}
	if _, err := ScaledSubPageSize(3, a4); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("3-up: got %v", err)
	}
}
