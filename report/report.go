// Package report summarises an imposition run as Markdown, or as HTML
// rendered from that Markdown.
package report

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/wudi/pdfimpose/coords"
	"github.com/wudi/pdfimpose/imposition"
	"github.com/wudi/pdfimpose/plan"
)

// Report describes one booklet.
type Report struct {
	Source string
	Output string
	// PagesPerSheet is the number of pages printed on each side of a sheet.
	PagesPerSheet int
	Edge          imposition.Edge
	Result        imposition.Result
	// Sides lists, for every output side, the input page numbers in leaf
	// order. Zero is a blank page.
	Sides [][]int
	// Scale is the factor applied to input pages, 1 when they were not resized.
	Scale float64
}

// New builds a report from a booklet result and the same booklet imposed
// with plan.Composer, which carries page numbers.
func New(res imposition.Result, sheets []imposition.Page, opts imposition.Options) Report {
	r := Report{
		PagesPerSheet: opts.PagesPerSheet,
		Edge:          opts.Edge,
		Result:        res,
		Scale:         1,
	}
	if r.PagesPerSheet == 0 {
		r.PagesPerSheet = 2
	}
	scaled := false
	for _, s := range sheets {
		leaves := plan.Leaves(s)
		side := make([]int, len(leaves))
		for i, l := range leaves {
			side[i] = l.Number
			if !scaled && l.Number > 0 {
				r.Scale = leafScale(l.Bounds.Size(), res.InputSize)
				scaled = true
			}
		}
		r.Sides = append(r.Sides, side)
	}
	return r
}

func leafScale(leaf, page coords.Size) float64 {
	area := page.Width * page.Height
	if area == 0 {
		return 1
	}
	s := math.Sqrt(leaf.Width * leaf.Height / area)
	return math.Round(s*1000) / 1000
}

// PaperName returns the display name of the standard format matching s in
// either orientation, or "custom".
func PaperName(s coords.Size) string {
	for _, f := range imposition.Formats() {
		fs := f.Size()
		if sameSize(fs, s) || sameSize(fs.Swap(), s) {
			return f.DisplayName()
		}
	}
	return "custom"
}

func sameSize(a, b coords.Size) bool {
	return math.Abs(a.Width-b.Width) < 1 && math.Abs(a.Height-b.Height) < 1
}

func formatSize(s coords.Size) string {
	return fmt.Sprintf("%s x %s pt (%s)", num(s.Width), num(s.Height), PaperName(s))
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Markdown renders the report.
func (r Report) Markdown() []byte {
	var b bytes.Buffer
	title := "Booklet"
	if r.Source != "" {
		title += " of " + r.Source
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if r.Output != "" {
		fmt.Fprintf(&b, "Written to `%s`.\n\n", r.Output)
	}

	res := r.Result
	b.WriteString("| Property | Value |\n|---|---|\n")
	row := func(k, v string) { fmt.Fprintf(&b, "| %s | %s |\n", k, v) }
	row("Input pages", strconv.Itoa(res.InputPages))
	row("Input size", formatSize(res.InputSize))
	row("Output sides", strconv.Itoa(len(res.Sheets)))
	row("Output size", formatSize(res.OutputSize))
	row("Pages per side", strconv.Itoa(r.PagesPerSheet))
	row("Binding edge", r.Edge.String())
	row("Signature length", strconv.Itoa(res.SignatureLength))
	row("Signatures", strconv.Itoa(res.SignatureCount))
	row("Blank pages", strconv.Itoa(res.BlankPages))
	row("Divider pages", strconv.Itoa(res.DividerPages))
	b.WriteString("\n")

	if r.Scale != 1 {
		fmt.Fprintf(&b, "Pages are scaled by $s = %s$.\n\n", num(r.Scale))
	}

	if len(r.Sides) > 0 {
		b.WriteString("## Sides\n\n| Sheet | Side | Pages |\n|---|---|---|\n")
		for i, side := range r.Sides {
			face := "front"
			if i%2 == 1 {
				face = "back"
			}
			fmt.Fprintf(&b, "| %d | %s | %s |\n", i/2+1, face, pageList(side))
		}
	}
	return b.Bytes()
}

func pageList(side []int) string {
	parts := make([]string, len(side))
	for i, n := range side {
		if n == 0 {
			parts[i] = "blank"
			continue
		}
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

// HTML renders the Markdown report to an HTML fragment. Tables use the GFM
// extension and the scale formula is emitted as MathML.
func (r Report) HTML() ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			treeblood.MathML(),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert(r.Markdown(), &buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}
