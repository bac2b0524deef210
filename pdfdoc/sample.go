package pdfdoc

import (
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/wudi/pdfimpose/contentstream"
	"github.com/wudi/pdfimpose/coords"
	"github.com/wudi/pdfimpose/ir/raw"
	"github.com/wudi/pdfimpose/writer"
)

// SampleOptions describe a generated test document.
type SampleOptions struct {
	Pages int
	Size  coords.Size
	// Label is printed above the page number, usually the format name.
	Label string
	// BBox outlines every page with a thick magenta border.
	BBox bool
	// Rotate is stored as the /Rotate of every page.
	Rotate int
	// Compression is the zlib level for page content, zero for none.
	Compression int
}

const (
	labelFontSize  = 50
	numberFontSize = 100
	bboxLineWidth  = 5
)

// Sample writes a document whose pages show their page number in large
// Helvetica, which makes the imposed order easy to check by eye.
func Sample(ctx context.Context, w io.Writer, opts SampleOptions) error {
	if opts.Pages <= 0 {
		return errors.New("pdfdoc: sample needs at least one page")
	}
	if opts.Size.Width <= 0 || opts.Size.Height <= 0 {
		return errors.New("pdfdoc: sample size must be positive")
	}
	e := newEmitter(ctx)
	catalog, tree := e.reserve(), e.reserve()
	font := e.add(&raw.DictObj{KV: map[string]raw.Object{
		"Type":     raw.NameLiteral("Font"),
		"Subtype":  raw.NameLiteral("Type1"),
		"BaseFont": raw.NameLiteral("Helvetica"),
		"Encoding": raw.NameLiteral("WinAnsiEncoding"),
	}})
	resources := e.add(&raw.DictObj{KV: map[string]raw.Object{
		"Font": &raw.DictObj{KV: map[string]raw.Object{"F1": font}},
	}})

	kids := raw.NewArray()
	for i := 1; i <= opts.Pages; i++ {
		content := e.add(raw.NewStream(raw.Dict(), contentstream.Encode(samplePage(i, opts))))
		page := &raw.DictObj{KV: map[string]raw.Object{
			"Type":      raw.NameLiteral("Page"),
			"Parent":    tree,
			"Resources": resources,
			"Contents":  content,
		}}
		if r := coords.NormalizeRotation(opts.Rotate); r != 0 {
			page.Set("Rotate", raw.NumberInt(int64(r)))
		}
		kids.Append(e.add(page))
	}
	// the box is inherited from the tree root
	e.set(tree, &raw.DictObj{KV: map[string]raw.Object{
		"Type":     raw.NameLiteral("Pages"),
		"Kids":     kids,
		"Count":    raw.NumberInt(int64(opts.Pages)),
		"MediaBox": rectArray(coords.RectOf(opts.Size)),
	}})
	e.set(catalog, &raw.DictObj{KV: map[string]raw.Object{
		"Type":  raw.NameLiteral("Catalog"),
		"Pages": tree,
	}})
	title := "Sample " + strconv.Itoa(opts.Pages)
	if opts.Label != "" {
		title = opts.Label + " " + title
	}
	e.out.Trailer.Set("Root", catalog)
	e.out.Trailer.Set("Info", e.add(&raw.DictObj{KV: map[string]raw.Object{
		"Title":   raw.Str([]byte(title)),
		"Creator": raw.Str([]byte("pdfsampler")),
	}}))
	cfg := writer.Config{Version: writer.PDF14, Compression: opts.Compression}
	return (&writer.WriterBuilder{}).Build().Write(ctx, e.out, w, cfg)
}

func samplePage(n int, opts SampleOptions) []contentstream.Operation {
	w, h := opts.Size.Width, opts.Size.Height
	var ops []contentstream.Operation
	if opts.Label != "" {
		ops = append(ops, centeredText(opts.Label, labelFontSize, w/2, h/2+50)...)
	}
	ops = append(ops, centeredText(strconv.Itoa(n), numberFontSize, w/2, h/2-50)...)
	if opts.BBox {
		ops = append(ops,
			contentstream.Op("q"),
			contentstream.Op("w", raw.NumberInt(bboxLineWidth)),
			contentstream.Op("RG", contentstream.Numbers(1, 0, 1)...),
			contentstream.Op("re", contentstream.Numbers(5, 5, w-10, h-10)...),
			contentstream.Op("S"),
			contentstream.Op("Q"))
	}
	return ops
}

func centeredText(text string, size, cx, y float64) []contentstream.Operation {
	x := cx - textWidth(text, size)/2
	return []contentstream.Operation{
		contentstream.Op("BT"),
		contentstream.Op("Tf", raw.NameLiteral("F1"), raw.Number(size)),
		contentstream.Op("Tm", contentstream.Numbers(1, 0, 0, 1, x, y)...),
		contentstream.Op("Tj", raw.Str([]byte(text))),
		contentstream.Op("ET"),
	}
}

// textWidth measures text set in Helvetica.
func textWidth(text string, size float64) float64 {
	sum := 0
	for _, r := range text {
		if r >= 32 && int(r-32) < len(helveticaWidths) {
			sum += helveticaWidths[r-32]
		} else {
			sum += 556
		}
	}
	return float64(sum) / 1000 * size
}

// helveticaWidths holds the advance widths of the printable ASCII range
// starting at space, in thousandths of the font size.
var helveticaWidths = [...]int{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278, // space to /
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278, 584, 584, 584, 556, // 0 to ?
	1015, 667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, 722, 778, // @ to O
	667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 278, 278, 278, 469, 556, // P to _
	333, 556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, 556, 556, // ` to o
	556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584, // p to ~
}
