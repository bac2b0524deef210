package imposition

import (
	"errors"
	"testing"

	"github.com/wudi/pdfimpose/coords"
)

func TestPlacePortraitPages(t *testing.T) {
	first := &testPage{label: "a", size: a5}
	second := &testPage{label: "b", size: a5}
	cases := []struct {
		edge          Edge
		first, second coords.Point
		box           coords.Size
		rotation      int
	}{
		{EdgeLeft, coords.Point{}, coords.Point{X: 420}, coords.Size{Width: 840, Height: 595}, 90},
		{EdgeRight, coords.Point{X: 420}, coords.Point{}, coords.Size{Width: 840, Height: 595}, 90},
		{EdgeTop, coords.Point{Y: 595}, coords.Point{}, coords.Size{Width: 420, Height: 1190}, 90},
		{EdgeBottom, coords.Point{}, coords.Point{Y: 595}, coords.Size{Width: 420, Height: 1190}, 90},
	}
	for _, tc := range cases {
		pl, err := Place(first, second, 90, tc.edge)
		if err != nil {
			t.Fatalf("%s: %v", tc.edge, err)
		}
		if pl.First != tc.first || pl.Second != tc.second {
			t.Fatalf("%s: offsets %+v %+v, want %+v %+v", tc.edge, pl.First, pl.Second, tc.first, tc.second)
		}
		if pl.Box != tc.box || pl.Rotation != tc.rotation {
			t.Fatalf("%s: box %+v rotation %d, want %+v %d", tc.edge, pl.Box, pl.Rotation, tc.box, tc.rotation)
		}
	}
}

func TestPlaceRotationFollowsOrientation(t *testing.T) {
	wide := coords.Size{Width: 1000, Height: 100}
	tall := coords.Size{Width: 100, Height: 1000}
	cases := []struct {
		size coords.Size
		edge Edge
		want int
	}{
		{tall, EdgeLeft, 0},
		{tall, EdgeRight, 0},
		{wide, EdgeLeft, 270},
		{wide, EdgeTop, 0},
		{wide, EdgeBottom, 0},
		{tall, EdgeTop, 270},
	}
	for _, tc := range cases {
		p := &testPage{size: tc.size}
		pl, err := Place(p, p, 270, tc.edge)
		if err != nil {
			t.Fatalf("%s: %v", tc.edge, err)
		}
		if pl.Rotation != tc.want {
			t.Fatalf("%s with %+v: rotation %d, want %d", tc.edge, tc.size, pl.Rotation, tc.want)
		}
	}
}

func TestPlaceUsesVisibleSize(t *testing.T) {
	first := &testPage{size: a5, rot: 90}
	second := &testPage{size: a5, rot: 270}
	pl, err := Place(first, second, 90, EdgeLeft)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if pl.Second.X != 595 {
		t.Fatalf("second offset %v, want 595", pl.Second.X)
	}
	if pl.Box != (coords.Size{Width: 1190, Height: 420}) || pl.Rotation != 90 {
		t.Fatalf("box %+v rotation %d", pl.Box, pl.Rotation)
	}
}

func TestPlaceUnknownEdge(t *testing.T) {
	p := &testPage{size: a5}
	if _, err := Place(p, p, 90, Edge(7)); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("got %v, want ErrConfiguration", err)
	}
}

func TestParseEdge(t *testing.T) {
	for in, want := range map[string]Edge{"left": EdgeLeft, "TOP": EdgeTop, " right ": EdgeRight, "Bottom": EdgeBottom} {
		got, err := ParseEdge(in)
		if err != nil || got != want {
			t.Fatalf("ParseEdge(%q) = %v, %v", in, got, err)
		}
		if got.String() != edgeNames[want] {
			t.Fatalf("String() = %q", got.String())
		}
	}
	if _, err := ParseEdge("middle"); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("got %v, want ErrConfiguration", err)
	}
}
