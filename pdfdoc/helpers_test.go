package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/wudi/pdfimpose/contentstream"
	"github.com/wudi/pdfimpose/coords"
	"github.com/wudi/pdfimpose/ir/raw"
)

var (
	a4 = coords.Size{Width: 595, Height: 842}
	a5 = coords.Size{Width: 420, Height: 595}
)

// buildPDF lays out objects numbered from 1 with a classic xref table.
func buildPDF(objects []string, trailer string) []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, o := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d %s >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, trailer, xref)
	return b.Bytes()
}

func streamObject(data string) string {
	return fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(data), data)
}

func sampleBytes(t *testing.T, opts SampleOptions) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Sample(context.Background(), &buf, opts); err != nil {
		t.Fatalf("sample: %v", err)
	}
	return buf.Bytes()
}

func openBytes(t *testing.T, data []byte) *Document {
	t.Helper()
	doc, err := Open(context.Background(), bytes.NewReader(data), OpenOptions{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return doc
}

// placedForm is a Do operator seen while running a content stream.
type placedForm struct {
	name string
	ctm  coords.Matrix
}

// pageDraws runs the content of page i and returns the forms it draws.
func pageDraws(t *testing.T, doc *Document, i int) []placedForm {
	t.Helper()
	p := doc.pages[i]
	var draws []placedForm
	proc := contentstream.NewProcessor()
	proc.RegisterHandler("Do", contentstream.HandlerFunc(func(ctx *contentstream.ExecutionContext, operands []raw.Object) error {
		name, _ := operands[0].(raw.NameObj)
		draws = append(draws, placedForm{name: name.Val, ctm: ctx.GraphicsState.CTM})
		return nil
	}))
	if err := proc.Process(context.Background(), pageContent(t, doc, p.src.dict), contentstream.NewGraphicsState()); err != nil {
		t.Fatalf("page %d: %v", i+1, err)
	}
	return draws
}

func pageContent(t *testing.T, doc *Document, dict *raw.DictObj) []byte {
	t.Helper()
	obj, ok := dict.Get("Contents")
	if !ok {
		return nil
	}
	st, ok := doc.raw.Resolve(obj).(*raw.StreamObj)
	if !ok {
		t.Fatalf("contents is %T", doc.raw.Resolve(obj))
	}
	data, err := doc.filters.DecodeStream(context.Background(), doc.raw, st)
	if err != nil {
		t.Fatalf("decode contents: %v", err)
	}
	return data
}

// xobject resolves a named XObject from the resources of dict.
func xobject(t *testing.T, doc *Document, resources raw.Object, name string) *raw.StreamObj {
	t.Helper()
	res, ok := doc.raw.ResolveDict(resources)
	if !ok {
		t.Fatalf("no resources")
	}
	xobjs, ok := doc.raw.ResolveDict(res.KV["XObject"])
	if !ok {
		t.Fatalf("no XObject resources")
	}
	st, ok := doc.raw.Resolve(xobjs.KV[name]).(*raw.StreamObj)
	if !ok {
		t.Fatalf("XObject %s missing", name)
	}
	return st
}

func decoded(t *testing.T, doc *Document, st *raw.StreamObj) string {
	t.Helper()
	data, err := doc.filters.DecodeStream(context.Background(), doc.raw, st)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return string(data)
}

// leafNumbers collects the page numbers drawn by a form and its children.
func leafNumbers(t *testing.T, doc *Document, st *raw.StreamObj) []string {
	t.Helper()
	text := decoded(t, doc, st)
	ops, err := contentstream.Parse([]byte(text))
	if err != nil {
		t.Fatalf("parse form: %v", err)
	}
	var out []string
	for _, op := range ops {
		switch op.Operator {
		case "Tj":
			s := string(op.Operands[0].(raw.StringObj).Bytes)
			if !strings.HasPrefix(s, "a") {
				out = append(out, s)
			}
		case "Do":
			name := op.Operands[0].(raw.NameObj).Val
			out = append(out, leafNumbers(t, doc, xobject(t, doc, st.Dict.KV["Resources"], name))...)
		}
	}
	return out
}

func approxMatrix(a, b coords.Matrix) bool {
	for i := range a {
		if d := a[i] - b[i]; d > 1e-6 || d < -1e-6 {
			return false
		}
	}
	return true
}
