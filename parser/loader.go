package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/wudi/pdfimpose/filters"
	"github.com/wudi/pdfimpose/ir/raw"
	"github.com/wudi/pdfimpose/recovery"
	"github.com/wudi/pdfimpose/scanner"
	"github.com/wudi/pdfimpose/xref"
)

type ObjectLoader interface {
	Load(ctx context.Context, ref raw.ObjectRef) (raw.Object, error)
}

type ObjectLoaderBuilder struct {
	reader    io.ReaderAt
	xrefTable xref.Table
	recovery  recovery.Strategy
	scanCfg   scanner.Config
	limits    filters.Limits
}

func (b *ObjectLoaderBuilder) WithXRef(table xref.Table) *ObjectLoaderBuilder {
	b.xrefTable = table
	return b
}
func (b *ObjectLoaderBuilder) WithReader(r io.ReaderAt) *ObjectLoaderBuilder {
	b.reader = r
	return b
}
func (b *ObjectLoaderBuilder) WithRecovery(s recovery.Strategy) *ObjectLoaderBuilder {
	b.recovery = s
	return b
}
func (b *ObjectLoaderBuilder) WithLimits(l filters.Limits) *ObjectLoaderBuilder {
	b.limits = l
	return b
}

func (b *ObjectLoaderBuilder) Build() (ObjectLoader, error) {
	if b.reader == nil || b.xrefTable == nil {
		return nil, errors.New("reader and xrefTable required")
	}
	cfg := b.scanCfg
	cfg.Recovery = b.recovery
	return &objectLoader{
		reader:    b.reader,
		xrefTable: b.xrefTable,
		recovery:  b.recovery,
		scanCfg:   cfg,
		pipeline:  filters.Default(b.limits),
		objstm:    make(map[int]map[int]raw.Object),
	}, nil
}

type objectLoader struct {
	reader    io.ReaderAt
	xrefTable xref.Table
	recovery  recovery.Strategy
	scanCfg   scanner.Config
	pipeline  *filters.Pipeline

	mu      sync.Mutex
	main    *raw.Reader
	lengths *raw.Reader
	objstm  map[int]map[int]raw.Object
}

func (o *objectLoader) Load(ctx context.Context, ref raw.ObjectRef) (raw.Object, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if offset, gen, found := o.xrefTable.Lookup(ref.Num); found {
		return o.loadAtOffset(ref.Num, offset, gen)
	}
	if osNum, idx, ok := o.xrefTable.ObjStream(ref.Num); ok {
		return o.loadFromObjectStream(ctx, ref, osNum, idx)
	}
	return nil, errors.New("object not found in xref")
}

// loadAtOffset assumes caller holds the loader mutex.
func (o *objectLoader) loadAtOffset(objNum int, offset int64, gen int) (raw.Object, error) {
	if o.main == nil {
		o.main = raw.NewReader(scanner.New(o.reader, o.scanCfg))
		o.main.LengthOf = o.resolveLength
	}
	if err := o.main.SeekTo(offset); err != nil {
		return nil, err
	}
	ref, obj, err := o.main.ReadIndirect()
	if err != nil {
		return nil, err
	}
	if ref.Num != objNum || ref.Gen != gen {
		return nil, fmt.Errorf("object header mismatch: want %d %d, found %d %d", objNum, gen, ref.Num, ref.Gen)
	}
	return obj, nil
}

// resolveLength reads an indirect /Length through a second reader so the
// main reader keeps its position inside the stream object.
func (o *objectLoader) resolveLength(ref raw.ObjectRef) (int64, bool) {
	offset, gen, found := o.xrefTable.Lookup(ref.Num)
	if !found || gen != ref.Gen {
		return 0, false
	}
	if o.lengths == nil {
		o.lengths = raw.NewReader(scanner.New(o.reader, scanner.Config{}))
	}
	if err := o.lengths.SeekTo(offset); err != nil {
		return 0, false
	}
	got, obj, err := o.lengths.ReadIndirect()
	if err != nil || got != ref {
		return 0, false
	}
	n, ok := obj.(raw.NumberObj)
	if !ok || !n.IsInteger() {
		return 0, false
	}
	return n.Int(), true
}

func (o *objectLoader) loadFromObjectStream(ctx context.Context, ref raw.ObjectRef, objStreamNum int, idx int) (raw.Object, error) {
	if objs, ok := o.objstm[objStreamNum]; ok {
		if obj, ok := objs[ref.Num]; ok {
			return obj, nil
		}
		return nil, errors.New("object not found in object stream")
	}
	offset, gen, ok := o.xrefTable.Lookup(objStreamNum)
	if !ok {
		return nil, errors.New("object stream entry missing")
	}
	streamObj, err := o.loadAtOffset(objStreamNum, offset, gen)
	if err != nil {
		return nil, err
	}
	st, ok := streamObj.(*raw.StreamObj)
	if !ok {
		return nil, errors.New("object stream is not a stream")
	}
	objs, err := o.unpackObjectStream(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("object stream %d: %w", objStreamNum, err)
	}
	o.objstm[objStreamNum] = objs
	if obj, ok := objs[ref.Num]; ok {
		return obj, nil
	}
	return nil, errors.New("object not found in object stream")
}

func (o *objectLoader) unpackObjectStream(ctx context.Context, st *raw.StreamObj) (map[int]raw.Object, error) {
	nObj, _ := st.Dict.Int("N")
	first, _ := st.Dict.Int("First")
	data, err := o.pipeline.DecodeStream(ctx, raw.NewDocument(), st)
	if err != nil {
		return nil, err
	}
	if first < 0 || first > int64(len(data)) {
		return nil, errors.New("object stream /First exceeds length")
	}
	header, body := data[:first], data[first:]
	if nObj < 0 || 2*nObj > int64(len(header)) {
		return nil, fmt.Errorf("object stream /N %d does not fit its header", nObj)
	}

	hs := scanner.New(bytes.NewReader(header), scanner.Config{})
	pairs := make([]int64, 0, 2*nObj)
	for int64(len(pairs)) < 2*nObj {
		tok, err := hs.Next()
		if err != nil {
			return nil, fmt.Errorf("header: %w", err)
		}
		if tok.Type != scanner.TokenNumber || !tok.IsInt {
			return nil, errors.New("header holds a non integer")
		}
		pairs = append(pairs, tok.Int)
	}

	rd := raw.NewReader(scanner.New(bytes.NewReader(body), o.scanCfg))
	objs := make(map[int]raw.Object, nObj)
	for i := 0; i+1 < len(pairs); i += 2 {
		num, off := int(pairs[i]), pairs[i+1]
		if err := rd.SeekTo(off); err != nil {
			return nil, fmt.Errorf("object %d: %w", num, err)
		}
		obj, err := rd.ReadObject()
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", num, err)
		}
		objs[num] = obj
	}
	return objs, nil
}
