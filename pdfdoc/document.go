// Package pdfdoc connects the imposition to PDF files. It reads pages from
// an existing document, composes new pages from them and writes the result.
//
// Source pages are copied as Form XObjects. Their content is never
// rewritten, only placed with a transformation matrix.
package pdfdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/wudi/pdfimpose/filters"
	"github.com/wudi/pdfimpose/imposition"
	"github.com/wudi/pdfimpose/ir/raw"
	"github.com/wudi/pdfimpose/observability"
	"github.com/wudi/pdfimpose/parser"
	"github.com/wudi/pdfimpose/recovery"
)

var (
	ErrEncrypted = errors.New("pdfdoc: encrypted documents are not supported")
	ErrNoPages   = errors.New("pdfdoc: document has no pages")
)

// OpenOptions control how a document is read.
type OpenOptions struct {
	// Recovery handles damaged input. Nil repairs what it can and logs a
	// warning for every problem through Logger.
	Recovery recovery.Strategy
	Limits   filters.Limits
	Logger   observability.Logger
	Tracer   observability.Tracer
}

func (o *OpenOptions) defaults() {
	if o.Logger == nil {
		o.Logger = observability.NopLogger{}
	}
	if o.Tracer == nil {
		o.Tracer = observability.NopTracer()
	}
	if o.Recovery == nil {
		o.Recovery = recovery.NewLenientStrategy(o.Logger)
	}
}

// Document is a parsed PDF and its flattened page list.
type Document struct {
	raw     *raw.Document
	pages   []*Page
	filters *filters.Pipeline
}

// Open parses the PDF read from r.
func Open(ctx context.Context, r io.ReaderAt, opts OpenOptions) (*Document, error) {
	opts.defaults()
	ctx, span := opts.Tracer.StartSpan(ctx, observability.SpanOpen)
	defer span.Finish()

	doc, err := open(ctx, r, opts)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.SetTag("pages", len(doc.pages))
	return doc, nil
}

func open(ctx context.Context, r io.ReaderAt, opts OpenOptions) (*Document, error) {
	p := parser.NewDocumentParser(parser.Config{
		Recovery: opts.Recovery,
		Limits:   opts.Limits,
		Logger:   opts.Logger,
	})
	rd, err := p.Parse(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("pdfdoc: parse: %w", err)
	}
	if rd.Encrypted {
		return nil, ErrEncrypted
	}
	doc := &Document{raw: rd, filters: filters.Default(opts.Limits)}
	if err := doc.collectPages(opts.Logger); err != nil {
		return nil, err
	}
	if len(doc.pages) == 0 {
		return nil, ErrNoPages
	}
	opts.Logger.Debug("document opened",
		observability.String("version", rd.Version),
		observability.Int("pages", len(doc.pages)))
	return doc, nil
}

// OpenFile reads and parses the file at path.
func OpenFile(ctx context.Context, path string, opts OpenOptions) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Open(ctx, bytes.NewReader(data), opts)
}

// Pages returns the pages in reading order.
func (d *Document) Pages() []*Page { return d.pages }

// ImpositionPages returns the pages as imposition.Page values.
func (d *Document) ImpositionPages() []imposition.Page {
	out := make([]imposition.Page, len(d.pages))
	for i, p := range d.pages {
		out[i] = p
	}
	return out
}

func (d *Document) Version() string { return d.raw.Version }

// Info returns a copy of the document information dictionary with all
// references resolved. It is empty when the document has none.
func (d *Document) Info() *raw.DictObj {
	ref, ok := d.raw.Trailer.Get("Info")
	if !ok {
		return raw.Dict()
	}
	info, ok := d.raw.ResolveDict(ref)
	if !ok {
		return raw.Dict()
	}
	flat, _ := flatten(d.raw, info, 0).(*raw.DictObj)
	if flat == nil {
		return raw.Dict()
	}
	return flat
}

// flatten copies obj replacing references by the objects they point to.
func flatten(doc *raw.Document, obj raw.Object, depth int) raw.Object {
	if depth > raw.MaxResolveDepth {
		return raw.NullObj{}
	}
	switch v := doc.Resolve(obj).(type) {
	case *raw.DictObj:
		out := raw.Dict()
		for _, k := range v.Keys() {
			out.Set(k, flatten(doc, v.KV[k], depth+1))
		}
		return out
	case *raw.ArrayObj:
		out := raw.NewArray()
		for _, it := range v.Items {
			out.Append(flatten(doc, it, depth+1))
		}
		return out
	case *raw.StreamObj:
		return raw.NullObj{}
	default:
		return v
	}
}
