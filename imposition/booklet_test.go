package imposition

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/wudi/pdfimpose/coords"
	"github.com/wudi/pdfimpose/observability"
)

func TestBookletPageCounts(t *testing.T) {
	cases := []struct {
		name      string
		pages     int
		opts      Options
		sigLen    int
		sigCount  int
		blanks    int
		dividers  int
		outSheets int
	}{
		{"default 37", 37, Options{}, 20, 2, 3, 0, 20},
		{"divider 37", 37, Options{Divider: true}, 20, 2, 3, 2, 22},
		{"eight up 37", 37, Options{PagesPerSheet: 8}, 20, 2, 3, 0, 8},
		{"disabled 37", 37, Options{SignatureLength: -1}, 40, 1, 3, 0, 20},
		{"fixed 8", 10, Options{SignatureLength: 8, Edge: EdgeTop}, 8, 2, 6, 0, 8},
		{"four up 4", 4, Options{PagesPerSheet: 4}, 4, 1, 0, 0, 2},
		{"single", 1, Options{}, 4, 1, 3, 0, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Booklet(context.Background(), numberedPages(tc.pages, a5), tc.opts, &testComposer{})
			if err != nil {
				t.Fatalf("booklet: %v", err)
			}
			if res.SignatureLength != tc.sigLen || res.SignatureCount != tc.sigCount {
				t.Fatalf("signatures %d x %d, want %d x %d", res.SignatureCount, res.SignatureLength, tc.sigCount, tc.sigLen)
			}
			if res.BlankPages != tc.blanks || res.DividerPages != tc.dividers {
				t.Fatalf("blanks %d dividers %d, want %d %d", res.BlankPages, res.DividerPages, tc.blanks, tc.dividers)
			}
			if len(res.Sheets) != tc.outSheets {
				t.Fatalf("sheets = %d, want %d", len(res.Sheets), tc.outSheets)
			}
			if res.InputPages != tc.pages || res.InputSize != a5 {
				t.Fatalf("input %d %v", res.InputPages, res.InputSize)
			}
		})
	}
}

func TestBookletReadingOrder(t *testing.T) {
	res, err := Booklet(context.Background(), numberedPages(8, a5), Options{}, &testComposer{})
	if err != nil {
		t.Fatalf("booklet: %v", err)
	}
	want := [][]string{{"8", "1"}, {"2", "7"}, {"6", "3"}, {"4", "5"}}
	for i, s := range res.Sheets {
		if got := s.(*testPage).order(); !equalStrings(got, want[i]) {
			t.Fatalf("sheet %d = %v, want %v", i, got, want[i])
		}
	}
}

func TestBookletDividerSitsBetweenStacks(t *testing.T) {
	res, err := Booklet(context.Background(), numberedPages(40, a5), Options{SignatureLength: 20, Divider: true}, &testComposer{})
	if err != nil {
		t.Fatalf("booklet: %v", err)
	}
	got := labels(t, res.Sheets)
	if len(got) != 22 || got[10] != "_" || got[11] != "_" {
		t.Fatalf("dividers misplaced: %v", got)
	}
	if res.Sheets[10].Size() != res.Sheets[0].Size() {
		t.Fatalf("divider size %v, want %v", res.Sheets[10].Size(), res.Sheets[0].Size())
	}
}

func TestBookletResizesOutput(t *testing.T) {
	res, err := Booklet(context.Background(), numberedPages(4, a5), Options{PaperSize: &a4}, &testComposer{})
	if err != nil {
		t.Fatalf("booklet: %v", err)
	}
	for i, s := range res.Sheets {
		if s.Size() != a4 || s.Rotation() != 0 {
			t.Fatalf("sheet %d: %v rotation %d", i, s.Size(), s.Rotation())
		}
	}
	if res.OutputSize != a4 {
		t.Fatalf("output size %v", res.OutputSize)
	}
}

func TestBookletDividersFollowEverySignature(t *testing.T) {
	res, err := Booklet(context.Background(), numberedPages(60, a5), Options{SignatureLength: 20, Divider: true}, &testComposer{})
	if err != nil {
		t.Fatalf("booklet: %v", err)
	}
	got := labels(t, res.Sheets)
	if len(got) != 34 || res.DividerPages != 4 {
		t.Fatalf("sheets %d dividers %d", len(got), res.DividerPages)
	}
	for _, i := range []int{10, 11, 22, 23} {
		if got[i] != "_" {
			t.Fatalf("sheet %d = %q, want divider: %v", i, got[i], got)
		}
	}
	// positional insertion would split the second signature
	positional, err := AddDivider(numberedPages(30, a5), 20, &testComposer{})
	if err != nil {
		t.Fatalf("add divider: %v", err)
	}
	if pos := labels(t, positional); pos[20] != "_" || pos[21] != "_" || pos[22] == "_" {
		t.Fatalf("positional dividers: %v", pos)
	}
}

func TestBookletCentersSubPages(t *testing.T) {
	c := &testComposer{}
	res, err := Booklet(context.Background(), numberedPages(4, a5), Options{PaperSize: &a4, CenterSubPage: true}, c)
	if err != nil {
		t.Fatalf("booklet: %v", err)
	}
	// four sub pages and two sheets
	if c.transforms != 6 {
		t.Fatalf("transforms = %d, want 6", c.transforms)
	}
	leaf := res.Sheets[0].(*testPage).first
	if leaf.Size() != (coords.Size{Width: 421, Height: 595}) {
		t.Fatalf("sub page size %v", leaf.Size())
	}
}

func TestBookletRejects(t *testing.T) {
	cases := []struct {
		name  string
		pages int
		opts  Options
		want  error
	}{
		{"no pages", 0, Options{}, ErrPrecondition},
		{"three up", 4, Options{PagesPerSheet: 3}, ErrConfiguration},
		{"bad signature", 4, Options{SignatureLength: 6}, ErrConfiguration},
		{"center without paper", 4, Options{CenterSubPage: true}, ErrConfiguration},
		{"bad edge", 4, Options{Edge: Edge(4)}, ErrConfiguration},
		{"zero paper", 4, Options{PaperSize: &coords.Size{Width: 0, Height: 1}}, ErrConfiguration},
	}
	for _, tc := range cases {
		if _, err := Booklet(context.Background(), numberedPages(tc.pages, a5), tc.opts, &testComposer{}); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestBookletLogsSignatures(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Logger: observability.NewSlogLogger(&buf, slog.LevelDebug)}
	if _, err := Booklet(context.Background(), numberedPages(40, a5), opts, &testComposer{}); err != nil {
		t.Fatalf("booklet: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "signature imposed") != 2 {
		t.Fatalf("log output:\n%s", out)
	}
	if !strings.Contains(out, "output_pages=20") {
		t.Fatalf("summary missing:\n%s", out)
	}
}
