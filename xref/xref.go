// Package xref locates objects in a PDF file through its cross-reference
// sections: classic tables, cross-reference streams and hybrid files.
package xref

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/wudi/pdfimpose/filters"
	"github.com/wudi/pdfimpose/ir/raw"
	"github.com/wudi/pdfimpose/recovery"
	"github.com/wudi/pdfimpose/scanner"
)

// Table maps object numbers to their storage location.
type Table interface {
	Lookup(objNum int) (offset int64, gen int, found bool)
	ObjStream(objNum int) (streamNum int, index int, found bool)
	Objects() []int
	Type() string
}

// Resolver locates and parses xref information in a PDF.
type Resolver interface {
	Resolve(ctx context.Context, r io.ReaderAt) (Table, error)
	Linearized() bool
	Repaired() bool
	Trailer() *raw.DictObj
}

type ResolverConfig struct {
	MaxXRefDepth int
	Recovery     recovery.Strategy
}

const defaultMaxXRefDepth = 64

func NewResolver(cfg ResolverConfig) Resolver {
	if cfg.MaxXRefDepth <= 0 {
		cfg.MaxXRefDepth = defaultMaxXRefDepth
	}
	return &resolver{cfg: cfg}
}

type resolver struct {
	cfg        ResolverConfig
	linearized bool
	repaired   bool
	trailer    *raw.DictObj
}

func (x *resolver) Linearized() bool      { return x.linearized }
func (x *resolver) Repaired() bool        { return x.repaired }
func (x *resolver) Trailer() *raw.DictObj { return x.trailer }

func (x *resolver) Resolve(ctx context.Context, r io.ReaderAt) (Table, error) {
	data := readAll(r)
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	x.linearized = bytes.Contains(head, []byte("/Linearized"))

	t, err := x.resolveSections(ctx, data)
	if err == nil {
		return t, nil
	}
	if x.cfg.Recovery == nil {
		return nil, err
	}
	if x.cfg.Recovery.OnError(ctx, err, recovery.Location{Component: "xref"}) == recovery.ActionFail {
		return nil, err
	}
	rt, trailer, rerr := repair(ctx, data)
	if rerr != nil {
		return nil, fmt.Errorf("%w (repair: %v)", err, rerr)
	}
	x.repaired = true
	x.trailer = trailer
	return rt, nil
}

func (x *resolver) resolveSections(ctx context.Context, data []byte) (*table, error) {
	start, err := findStartXRef(data)
	if err != nil {
		return nil, err
	}
	rd := raw.NewReader(scanner.New(bytes.NewReader(data), scanner.Config{}))
	t := &table{entries: make(map[int]entry)}
	trailer := raw.Dict()
	visited := make(map[int64]bool)

	queue := []int64{start}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		off := queue[0]
		queue = queue[1:]
		if visited[off] {
			continue
		}
		if len(visited) >= x.cfg.MaxXRefDepth {
			return nil, errors.New("too many xref sections")
		}
		visited[off] = true
		if off <= 0 || off >= int64(len(data)) {
			return nil, fmt.Errorf("xref offset out of range: %d", off)
		}

		sec, err := readSection(ctx, rd, off)
		if err != nil {
			return nil, fmt.Errorf("xref section at %d: %w", off, err)
		}
		if t.kind == "" {
			t.kind = sec.kind
		}
		for num, e := range sec.entries {
			if _, seen := t.entries[num]; !seen && e.kind != kindFree {
				t.entries[num] = e
			}
		}
		// the newest trailer wins key by key
		for _, k := range sec.trailer.Keys() {
			if _, ok := trailer.Get(k); !ok {
				trailer.Set(k, sec.trailer.KV[k])
			}
		}

		var next []int64
		if v, ok := sec.trailer.Int("XRefStm"); ok {
			next = append(next, v)
		}
		if v, ok := sec.trailer.Int("Prev"); ok {
			next = append(next, v)
		}
		queue = append(next, queue...)
	}

	if _, ok := trailer.Get("Root"); !ok {
		return nil, errors.New("trailer has no /Root")
	}
	if size, ok := trailer.Int("Size"); ok {
		for num := range t.entries {
			if int64(num) >= size {
				return nil, fmt.Errorf("object %d beyond trailer /Size %d", num, size)
			}
		}
	}
	x.trailer = trailer
	return t, nil
}

func findStartXRef(data []byte) (int64, error) {
	idx := bytes.LastIndex(data, []byte("startxref"))
	if idx < 0 {
		return 0, errors.New("startxref not found")
	}
	rest := bytes.TrimLeft(data[idx+len("startxref"):], " \t\r\n\f\x00")
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	off, err := strconv.ParseInt(string(rest[:end]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse startxref: %w", err)
	}
	return off, nil
}

type section struct {
	kind    string
	entries map[int]entry
	trailer *raw.DictObj
}

func readSection(ctx context.Context, rd *raw.Reader, off int64) (*section, error) {
	if err := rd.SeekTo(off); err != nil {
		return nil, err
	}
	tok, err := rd.Next()
	if err != nil {
		return nil, err
	}
	if tok.Type == scanner.TokenKeyword && tok.Str == "xref" {
		return readTable(rd)
	}
	rd.Unread(tok)
	return readStream(ctx, rd)
}

func readTable(rd *raw.Reader) (*section, error) {
	sec := &section{kind: "table", entries: make(map[int]entry)}
	for {
		tok, err := rd.Next()
		if err != nil {
			return nil, err
		}
		if tok.Type == scanner.TokenKeyword && tok.Str == "trailer" {
			break
		}
		countTok, err := rd.Next()
		if err != nil {
			return nil, err
		}
		if tok.Type != scanner.TokenNumber || !tok.IsInt || countTok.Type != scanner.TokenNumber || !countTok.IsInt {
			return nil, fmt.Errorf("invalid xref subsection header at offset %d", tok.Pos)
		}
		startObj, count := int(tok.Int), int(countTok.Int)
		for i := 0; i < count; i++ {
			offTok, err := rd.Next()
			if err != nil {
				return nil, err
			}
			genTok, err := rd.Next()
			if err != nil {
				return nil, err
			}
			kindTok, err := rd.Next()
			if err != nil {
				return nil, err
			}
			if offTok.Type != scanner.TokenNumber || genTok.Type != scanner.TokenNumber || kindTok.Type != scanner.TokenKeyword {
				return nil, fmt.Errorf("invalid xref entry at offset %d", offTok.Pos)
			}
			e := entry{kind: kindFree, offset: offTok.Int, gen: int(genTok.Int)}
			if kindTok.Str == "n" {
				e.kind = kindInUse
			}
			sec.entries[startObj+i] = e
		}
	}
	obj, err := rd.ReadObject()
	if err != nil {
		return nil, fmt.Errorf("trailer: %w", err)
	}
	trailer, ok := obj.(*raw.DictObj)
	if !ok {
		return nil, errors.New("trailer is not a dictionary")
	}
	sec.trailer = trailer
	return sec, nil
}

func readStream(ctx context.Context, rd *raw.Reader) (*section, error) {
	_, obj, err := rd.ReadIndirect()
	if err != nil {
		return nil, err
	}
	st, ok := obj.(*raw.StreamObj)
	if !ok {
		return nil, errors.New("expected xref table or stream")
	}
	if typ, _ := st.Dict.Name("Type"); typ != "XRef" {
		return nil, fmt.Errorf("unexpected stream type %q", typ)
	}
	data, err := filters.Default(filters.Limits{}).DecodeStream(ctx, raw.NewDocument(), st)
	if err != nil {
		return nil, err
	}
	entries, err := decodeStreamEntries(st.Dict, data)
	if err != nil {
		return nil, err
	}
	return &section{kind: "xref-stream", entries: entries, trailer: st.Dict}, nil
}

func decodeStreamEntries(dict *raw.DictObj, data []byte) (map[int]entry, error) {
	wObj, _ := dict.Get("W")
	wArr, ok := wObj.(*raw.ArrayObj)
	if !ok || wArr.Len() != 3 {
		return nil, errors.New("xref stream /W must have three entries")
	}
	var w [3]int
	for i, item := range wArr.Items {
		n, ok := item.(raw.NumberObj)
		if !ok || n.Int() < 0 || n.Int() > 8 {
			return nil, errors.New("invalid xref stream /W")
		}
		w[i] = int(n.Int())
	}
	size, _ := dict.Int("Size")
	index := []int64{0, size}
	if idxObj, ok := dict.Get("Index"); ok {
		arr, ok := idxObj.(*raw.ArrayObj)
		if !ok || arr.Len()%2 != 0 {
			return nil, errors.New("invalid xref stream /Index")
		}
		index = index[:0]
		for _, item := range arr.Items {
			n, _ := item.(raw.NumberObj)
			index = append(index, n.Int())
		}
	}

	rowLen := w[0] + w[1] + w[2]
	if rowLen == 0 {
		return nil, errors.New("xref stream rows are empty")
	}
	entries := make(map[int]entry)
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		first, count := int(index[i]), int(index[i+1])
		for j := 0; j < count; j++ {
			if pos+rowLen > len(data) {
				return nil, errors.New("xref stream data truncated")
			}
			row := data[pos : pos+rowLen]
			pos += rowLen
			typ := int64(1)
			if w[0] > 0 {
				typ = field(row[:w[0]])
			}
			f2 := field(row[w[0] : w[0]+w[1]])
			f3 := field(row[w[0]+w[1]:])
			switch typ {
			case 0:
				entries[first+j] = entry{kind: kindFree}
			case 1:
				entries[first+j] = entry{kind: kindInUse, offset: f2, gen: int(f3)}
			case 2:
				entries[first+j] = entry{kind: kindCompressed, stream: int(f2), index: int(f3)}
			}
		}
	}
	return entries, nil
}

func field(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

type entryKind int

const (
	kindFree entryKind = iota
	kindInUse
	kindCompressed
)

type entry struct {
	kind   entryKind
	offset int64
	gen    int
	stream int
	index  int
}

type table struct {
	kind    string
	entries map[int]entry
}

func (t *table) Lookup(objNum int) (int64, int, bool) {
	e, ok := t.entries[objNum]
	if !ok || e.kind != kindInUse {
		return 0, 0, false
	}
	return e.offset, e.gen, true
}

func (t *table) ObjStream(objNum int) (int, int, bool) {
	e, ok := t.entries[objNum]
	if !ok || e.kind != kindCompressed {
		return 0, 0, false
	}
	return e.stream, e.index, true
}

func (t *table) Objects() []int {
	out := make([]int, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func (t *table) Type() string { return t.kind }

func readAll(r io.ReaderAt) []byte {
	var buf bytes.Buffer
	const chunk = int64(32 * 1024)
	tmp := make([]byte, chunk)
	for off := int64(0); ; off += chunk {
		n, err := r.ReadAt(tmp, off)
		if n > 0 {
			buf.Write(tmp[:n])
		}
		if err != nil || int64(n) < chunk {
			break
		}
	}
	return buf.Bytes()
}
