package pdfdoc

import (
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/wudi/pdfimpose/contentstream"
	"github.com/wudi/pdfimpose/coords"
	"github.com/wudi/pdfimpose/imposition"
	"github.com/wudi/pdfimpose/ir/raw"
	"github.com/wudi/pdfimpose/observability"
	"github.com/wudi/pdfimpose/writer"
)

// DefaultProducer is stored in the Info dictionary of written files.
const DefaultProducer = "pdfimpose"

// WriteOptions control the output file.
type WriteOptions struct {
	// Info is copied into the output Info dictionary.
	Info     *raw.DictObj
	Producer string
	Version  writer.PDFVersion
	// Compression is the zlib level for generated streams. Zero means the
	// default level, a negative value other than -1 disables compression.
	Compression int
	Logger      observability.Logger
	Tracer      observability.Tracer
}

// Write serializes pages as a new PDF document.
func Write(ctx context.Context, w io.Writer, pages []imposition.Page, opts WriteOptions) error {
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger{}
	}
	if opts.Tracer == nil {
		opts.Tracer = observability.NopTracer()
	}
	ctx, span := opts.Tracer.StartSpan(ctx, observability.SpanWrite)
	defer span.Finish()

	if err := write(ctx, w, pages, opts); err != nil {
		span.SetError(err)
		return err
	}
	span.SetTag("pages", len(pages))
	return nil
}

func write(ctx context.Context, w io.Writer, pages []imposition.Page, opts WriteOptions) error {
	if len(pages) == 0 {
		return ErrNoPages
	}
	e := newEmitter(ctx)
	catalog, tree := e.reserve(), e.reserve()

	kids := raw.NewArray()
	for i, p := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		ref, err := e.page(asPage(p), tree)
		if err != nil {
			return fmt.Errorf("pdfdoc: page %d: %w", i+1, err)
		}
		kids.Append(ref)
	}
	e.set(tree, &raw.DictObj{KV: map[string]raw.Object{
		"Type":  raw.NameLiteral("Pages"),
		"Kids":  kids,
		"Count": raw.NumberInt(int64(len(pages))),
	}})
	e.set(catalog, &raw.DictObj{KV: map[string]raw.Object{
		"Type":  raw.NameLiteral("Catalog"),
		"Pages": tree,
	}})
	e.out.Trailer.Set("Root", catalog)

	info := raw.Dict()
	if opts.Info != nil {
		for _, k := range opts.Info.Keys() {
			info.Set(k, opts.Info.KV[k])
		}
	}
	producer := opts.Producer
	if producer == "" {
		producer = DefaultProducer
	}
	info.Set("Producer", raw.Str([]byte(producer)))
	e.out.Trailer.Set("Info", e.add(info))

	level := opts.Compression
	if level == 0 {
		level = zlib.DefaultCompression
	} else if level < -1 {
		level = 0
	}
	cfg := writer.Config{Version: opts.Version, Compression: level}
	if cfg.Version == "" {
		cfg.Version = writer.PDF17
	}
	opts.Logger.Debug("writing document",
		observability.Int("pages", len(pages)),
		observability.Int("objects", len(e.out.Objects)))
	return (&writer.WriterBuilder{}).Build().Write(ctx, e.out, w, cfg)
}

type copyKey struct {
	doc *raw.Document
	ref raw.ObjectRef
}

// emitter collects the objects of the output document.
type emitter struct {
	ctx    context.Context
	out    *raw.Document
	next   int
	forms  map[*Page]raw.RefObj
	copied map[copyKey]raw.RefObj
}

func newEmitter(ctx context.Context) *emitter {
	return &emitter{
		ctx:    ctx,
		out:    raw.NewDocument(),
		forms:  make(map[*Page]raw.RefObj),
		copied: make(map[copyKey]raw.RefObj),
	}
}

func (e *emitter) reserve() raw.RefObj {
	e.next++
	ref := raw.Ref(e.next, 0)
	e.out.Objects[ref.R] = raw.NullObj{}
	return ref
}

func (e *emitter) set(ref raw.RefObj, obj raw.Object) { e.out.Objects[ref.R] = obj }

func (e *emitter) add(obj raw.Object) raw.RefObj {
	ref := e.reserve()
	e.set(ref, obj)
	return ref
}

// page emits the page dictionary for p.
func (e *emitter) page(p *Page, parent raw.RefObj) (raw.RefObj, error) {
	dict := &raw.DictObj{KV: map[string]raw.Object{
		"Type":     raw.NameLiteral("Page"),
		"Parent":   parent,
		"MediaBox": rectArray(p.box),
	}}
	if p.rotate != 0 {
		dict.Set("Rotate", raw.NumberInt(int64(p.rotate)))
	}
	if p.blank {
		dict.Set("Resources", raw.Dict())
		return e.add(dict), nil
	}
	var (
		resources *raw.DictObj
		content   []byte
	)
	if p.src != nil {
		form, err := e.form(p)
		if err != nil {
			return raw.RefObj{}, err
		}
		resources = xobjectResources(map[string]raw.Object{"P0": form})
		content = contentstream.Encode([]contentstream.Operation{
			contentstream.Op("q"),
			contentstream.Op("Do", raw.NameLiteral("P0")),
			contentstream.Op("Q"),
		})
	} else {
		var err error
		if resources, content, err = e.layers(p); err != nil {
			return raw.RefObj{}, err
		}
	}
	dict.Set("Resources", resources)
	dict.Set("Contents", e.add(raw.NewStream(raw.Dict(), content)))
	return e.add(dict), nil
}

// layers draws the children of a composed page, each one as a form.
func (e *emitter) layers(p *Page) (*raw.DictObj, []byte, error) {
	names := make(map[string]raw.Object)
	var ops []contentstream.Operation
	for i, l := range p.layers {
		if l.page.blank {
			continue
		}
		form, err := e.form(l.page)
		if err != nil {
			return nil, nil, err
		}
		name := "P" + strconv.Itoa(i)
		names[name] = form
		ops = append(ops,
			contentstream.Op("q"),
			contentstream.Op("cm", contentstream.Numbers(l.m[:]...)...),
			contentstream.Op("Do", raw.NameLiteral(name)),
			contentstream.Op("Q"))
	}
	return xobjectResources(names), contentstream.Encode(ops), nil
}

// form returns the Form XObject drawing p in its own coordinates. Each page
// becomes a form once, however often it is placed.
func (e *emitter) form(p *Page) (raw.RefObj, error) {
	if ref, ok := e.forms[p]; ok {
		return ref, nil
	}
	dict := &raw.DictObj{KV: map[string]raw.Object{
		"Type":    raw.NameLiteral("XObject"),
		"Subtype": raw.NameLiteral("Form"),
		"BBox":    rectArray(p.box),
	}}
	var data []byte
	if p.src != nil {
		content, err := e.sourceContent(p.src)
		if err != nil {
			return raw.RefObj{}, err
		}
		data = content.Data
		for _, k := range []string{"Filter", "DecodeParms"} {
			if v, ok := content.Dict.Get(k); ok {
				dict.Set(k, v)
			}
		}
		if p.src.resources != nil {
			dict.Set("Resources", e.copy(p.src.doc.raw, p.src.resources))
		} else {
			dict.Set("Resources", raw.Dict())
		}
	} else {
		resources, content, err := e.layers(p)
		if err != nil {
			return raw.RefObj{}, err
		}
		dict.Set("Resources", resources)
		data = content
	}
	ref := e.add(raw.NewStream(dict, data))
	e.forms[p] = ref
	return ref, nil
}

// sourceContent returns the content of a source page as a stream. A single
// content stream keeps its encoding and filter, arrays are decoded and joined.
func (e *emitter) sourceContent(s *source) (*raw.StreamObj, error) {
	rd := s.doc.raw
	contents, ok := s.dict.Get("Contents")
	if !ok {
		return raw.NewStream(raw.Dict(), nil), nil
	}
	var streams []*raw.StreamObj
	switch v := rd.Resolve(contents).(type) {
	case *raw.StreamObj:
		streams = append(streams, v)
	case *raw.ArrayObj:
		for _, it := range v.Items {
			if st, ok := rd.Resolve(it).(*raw.StreamObj); ok {
				streams = append(streams, st)
			}
		}
	}
	switch len(streams) {
	case 0:
		return raw.NewStream(raw.Dict(), nil), nil
	case 1:
		dict := raw.Dict()
		for _, k := range []string{"Filter", "DecodeParms"} {
			if v, ok := streams[0].Dict.Get(k); ok {
				dict.Set(k, e.copy(rd, v))
			}
		}
		return raw.NewStream(dict, streams[0].Data), nil
	}
	var joined []byte
	for _, st := range streams {
		data, err := s.doc.filters.DecodeStream(e.ctx, rd, st)
		if err != nil {
			return nil, fmt.Errorf("decode content: %w", err)
		}
		joined = append(joined, data...)
		joined = append(joined, '\n')
	}
	return raw.NewStream(raw.Dict(), joined), nil
}

// copy deep copies obj from doc into the output. Indirect objects are copied
// once per source document. /Parent links are dropped so that resources
// never drag the source page tree along.
func (e *emitter) copy(doc *raw.Document, obj raw.Object) raw.Object {
	switch v := obj.(type) {
	case raw.RefObj:
		key := copyKey{doc: doc, ref: v.R}
		if ref, ok := e.copied[key]; ok {
			return ref
		}
		target, ok := doc.Objects[v.R]
		if !ok {
			return raw.NullObj{}
		}
		ref := e.reserve()
		e.copied[key] = ref
		e.set(ref, e.copy(doc, target))
		return ref
	case *raw.DictObj:
		out := raw.Dict()
		if v == nil {
			return out
		}
		for _, k := range v.Keys() {
			if k == "Parent" {
				continue
			}
			out.Set(k, e.copy(doc, v.KV[k]))
		}
		return out
	case *raw.ArrayObj:
		out := &raw.ArrayObj{Items: make([]raw.Object, len(v.Items))}
		for i, it := range v.Items {
			out.Items[i] = e.copy(doc, it)
		}
		return out
	case *raw.StreamObj:
		dict, _ := e.copy(doc, v.Dict).(*raw.DictObj)
		return raw.NewStream(dict, v.Data)
	}
	return obj
}

func xobjectResources(names map[string]raw.Object) *raw.DictObj {
	xobj := raw.Dict()
	for k, v := range names {
		xobj.Set(k, v)
	}
	res := raw.Dict()
	res.Set("XObject", xobj)
	return res
}

func rectArray(r coords.Rect) *raw.ArrayObj { return raw.RectArray(r.LLX, r.LLY, r.URX, r.URY) }
