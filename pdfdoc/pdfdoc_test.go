package pdfdoc

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wudi/pdfimpose/coords"
	"github.com/wudi/pdfimpose/imposition"
	"github.com/wudi/pdfimpose/ir/raw"
)

func TestSampleOpens(t *testing.T) {
	doc := openBytes(t, sampleBytes(t, SampleOptions{Pages: 3, Size: a5, Label: "a5", BBox: true, Rotate: 90}))
	if len(doc.Pages()) != 3 {
		t.Fatalf("pages = %d", len(doc.Pages()))
	}
	for i, p := range doc.Pages() {
		if p.Size() != a5 || p.Rotation() != 90 || p.Blank() {
			t.Fatalf("page %d: size %v rotation %d", i+1, p.Size(), p.Rotation())
		}
	}
	info := doc.Info()
	if title, _ := info.Get("Title"); string(title.(raw.StringObj).Bytes) != "a5 Sample 3" {
		t.Fatalf("title %v", title)
	}
	content := string(pageContent(t, doc, doc.pages[1].src.dict))
	if !strings.Contains(content, "(2) Tj") || !strings.Contains(content, " re") {
		t.Fatalf("content:\n%s", content)
	}
}

func TestOpenInheritsPageTreeAttributes(t *testing.T) {
	data := buildPDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 4 0 R 8 0 R] /Count 3 /MediaBox [0 0 200 100] /Rotate 90 >>",
		"<< /Type /Page /Parent 2 0 R /Contents 5 0 R >>",
		"<< /Type /Pages /Parent 2 0 R /Kids [6 0 R] /Count 1 /Resources << /Font << >> >> >>",
		streamObject("0 0 m"),
		"<< /Type /Page /Parent 4 0 R /MediaBox [10 10 110 310] /Rotate 0 >>",
		"<< >>",
		"42",
	}, "/Root 1 0 R")
	doc := openBytes(t, data)
	pages := doc.Pages()
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(pages))
	}
	if pages[0].Box() != (coords.Rect{URX: 200, URY: 100}) || pages[0].Rotation() != 90 {
		t.Fatalf("page 1: %v rotation %d", pages[0].Box(), pages[0].Rotation())
	}
	if pages[1].Box() != (coords.Rect{LLX: 10, LLY: 10, URX: 110, URY: 310}) || pages[1].Rotation() != 0 {
		t.Fatalf("page 2: %v rotation %d", pages[1].Box(), pages[1].Rotation())
	}
	if pages[1].src.resources == nil {
		t.Fatalf("page 2 did not inherit resources")
	}
}

func TestOpenRejectsEncrypted(t *testing.T) {
	data := buildPDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 10 10] >>",
		"<< /Filter /Standard /V 1 /R 2 >>",
	}, "/Root 1 0 R /Encrypt 4 0 R")
	if _, err := Open(context.Background(), bytes.NewReader(data), OpenOptions{}); !errors.Is(err, ErrEncrypted) {
		t.Fatalf("got %v, want ErrEncrypted", err)
	}
}

func TestOpenRejectsEmptyTree(t *testing.T) {
	data := buildPDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [] /Count 0 >>",
	}, "/Root 1 0 R")
	if _, err := Open(context.Background(), bytes.NewReader(data), OpenOptions{}); !errors.Is(err, ErrNoPages) {
		t.Fatalf("got %v, want ErrNoPages", err)
	}
}

func TestBookletRoundTrip(t *testing.T) {
	src := openBytes(t, sampleBytes(t, SampleOptions{Pages: 8, Size: a5, Label: "a5"}))
	res, err := imposition.Booklet(context.Background(), src.ImpositionPages(), imposition.Options{}, Composer{})
	if err != nil {
		t.Fatalf("booklet: %v", err)
	}
	var buf bytes.Buffer
	if err := Write(context.Background(), &buf, res.Sheets, WriteOptions{Info: src.Info()}); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := openBytes(t, buf.Bytes())
	if len(out.Pages()) != 4 {
		t.Fatalf("output pages = %d, want 4", len(out.Pages()))
	}
	wantRot := []int{90, 270, 90, 270}
	for i, p := range out.Pages() {
		if p.Size() != (coords.Size{Width: 840, Height: 595}) || p.Rotation() != wantRot[i] {
			t.Fatalf("sheet %d: %v rotation %d", i+1, p.Size(), p.Rotation())
		}
	}

	draws := pageDraws(t, out, 0)
	if len(draws) != 2 {
		t.Fatalf("sheet 1 draws %d forms", len(draws))
	}
	if !approxMatrix(draws[0].ctm, coords.Identity()) || !approxMatrix(draws[1].ctm, coords.Translate(420, 0)) {
		t.Fatalf("placements %v %v", draws[0].ctm, draws[1].ctm)
	}
	var got []string
	for _, d := range draws {
		got = append(got, leafNumbers(t, out, xobject(t, out, out.pages[0].src.resources, d.name))...)
	}
	if strings.Join(got, ",") != "8,1" {
		t.Fatalf("sheet 1 shows %v", got)
	}

	info := out.Info()
	if p, _ := info.Get("Producer"); string(p.(raw.StringObj).Bytes) != DefaultProducer {
		t.Fatalf("producer %v", p)
	}
	if title, _ := info.Get("Title"); string(title.(raw.StringObj).Bytes) != "a5 Sample 8" {
		t.Fatalf("title %v", title)
	}
}

func TestBookletSkipsBlankPages(t *testing.T) {
	src := openBytes(t, sampleBytes(t, SampleOptions{Pages: 3, Size: a5}))
	res, err := imposition.Booklet(context.Background(), src.ImpositionPages(), imposition.Options{}, Composer{})
	if err != nil {
		t.Fatalf("booklet: %v", err)
	}
	var buf bytes.Buffer
	if err := Write(context.Background(), &buf, res.Sheets, WriteOptions{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := openBytes(t, buf.Bytes())
	// the first sheet pairs the blank fourth page with page one
	if draws := pageDraws(t, out, 0); len(draws) != 1 || !approxMatrix(draws[0].ctm, coords.Translate(420, 0)) {
		t.Fatalf("sheet 1 draws %+v", draws)
	}
}

func TestBookletResizedToPaper(t *testing.T) {
	src := openBytes(t, sampleBytes(t, SampleOptions{Pages: 4, Size: a5}))
	paper := a4
	res, err := imposition.Booklet(context.Background(), src.ImpositionPages(), imposition.Options{PaperSize: &paper}, Composer{})
	if err != nil {
		t.Fatalf("booklet: %v", err)
	}
	var buf bytes.Buffer
	if err := Write(context.Background(), &buf, res.Sheets, WriteOptions{Compression: -2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := openBytes(t, buf.Bytes())
	p := out.Pages()[0]
	if p.Size() != a4 || p.Rotation() != 0 {
		t.Fatalf("size %v rotation %d", p.Size(), p.Rotation())
	}
	draws := pageDraws(t, out, 0)
	want := coords.Matrix{0, -1, 1, 0, 0, 841}
	if len(draws) != 1 || !approxMatrix(draws[0].ctm, want) {
		t.Fatalf("draws %+v, want %v", draws, want)
	}
	if bytes.Contains(buf.Bytes(), []byte("/FlateDecode")) {
		t.Fatalf("compression was disabled but output carries FlateDecode")
	}
}

func TestOpenJoinsContentArrays(t *testing.T) {
	data := buildPDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 50 50] /Contents [4 0 R 5 0 R] >>",
		streamObject("1 0 0 RG"),
		streamObject("0 0 m 5 5 l S"),
	}, "/Root 1 0 R")
	src := openBytes(t, data)
	e := newEmitter(context.Background())
	ref, err := e.form(src.Pages()[0])
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	st := e.out.Objects[ref.R].(*raw.StreamObj)
	if string(st.Data) != "1 0 0 RG\n0 0 m 5 5 l S\n" {
		t.Fatalf("joined content %q", st.Data)
	}
	if again, _ := e.form(src.Pages()[0]); again != ref {
		t.Fatalf("form emitted twice")
	}
}

func TestWriteIsDeterministic(t *testing.T) {
	src := openBytes(t, sampleBytes(t, SampleOptions{Pages: 6, Size: a5, BBox: true}))
	render := func() []byte {
		res, err := imposition.Booklet(context.Background(), src.ImpositionPages(), imposition.Options{PagesPerSheet: 4}, Composer{})
		if err != nil {
			t.Fatalf("booklet: %v", err)
		}
		var buf bytes.Buffer
		if err := Write(context.Background(), &buf, res.Sheets, WriteOptions{Info: src.Info()}); err != nil {
			t.Fatalf("write: %v", err)
		}
		return buf.Bytes()
	}
	if !bytes.Equal(render(), render()) {
		t.Fatalf("output differs between runs")
	}
}

type foreignPage struct{}

func (foreignPage) Size() coords.Size { return a5 }
func (foreignPage) Rotation() int     { return 180 }

func TestComposerAcceptsForeignPages(t *testing.T) {
	p := Composer{}.BlankCopy(foreignPage{}).(*Page)
	if !p.Blank() || p.Size() != a5 || p.Rotation() != 180 {
		t.Fatalf("blank copy %+v", p)
	}
	var buf bytes.Buffer
	if err := Write(context.Background(), &buf, []imposition.Page{foreignPage{}}, WriteOptions{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := openBytes(t, buf.Bytes())
	if len(out.Pages()) != 1 || out.Pages()[0].Rotation() != 180 {
		t.Fatalf("foreign page not written as blank")
	}
}

func TestWriteRejectsEmpty(t *testing.T) {
	if err := Write(context.Background(), &bytes.Buffer{}, nil, WriteOptions{}); !errors.Is(err, ErrNoPages) {
		t.Fatalf("got %v", err)
	}
}

func TestTextWidth(t *testing.T) {
	if got := textWidth("10", 100); got < 111.19 || got > 111.21 {
		t.Fatalf("width %v", got)
	}
}
