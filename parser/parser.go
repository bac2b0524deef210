// Package parser turns a PDF file into a raw.Document by following its
// cross-reference data and loading every object it lists.
package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wudi/pdfimpose/filters"
	"github.com/wudi/pdfimpose/ir/raw"
	"github.com/wudi/pdfimpose/observability"
	"github.com/wudi/pdfimpose/recovery"
	"github.com/wudi/pdfimpose/xref"
)

// Config controls high-level PDF parsing (xref resolution + object loading).
type Config struct {
	Recovery recovery.Strategy
	XRef     xref.ResolverConfig
	Limits   filters.Limits
	Logger   observability.Logger
}

// DocumentParser builds a raw.Document using xref tables/streams and the object loader.
type DocumentParser struct {
	cfg Config
}

func NewDocumentParser(cfg Config) *DocumentParser {
	if cfg.XRef.Recovery == nil {
		cfg.XRef.Recovery = cfg.Recovery
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	return &DocumentParser{cfg: cfg}
}

func (p *DocumentParser) Parse(ctx context.Context, r io.ReaderAt) (*raw.Document, error) {
	resolver := xref.NewResolver(p.cfg.XRef)
	table, err := resolver.Resolve(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("resolve xref: %w", err)
	}

	loader, err := (&ObjectLoaderBuilder{}).
		WithReader(r).
		WithXRef(table).
		WithRecovery(p.cfg.Recovery).
		WithLimits(p.cfg.Limits).
		Build()
	if err != nil {
		return nil, err
	}

	doc := raw.NewDocument()
	doc.Trailer = resolver.Trailer()
	doc.Version = detectHeaderVersion(r)
	_, doc.Encrypted = doc.Trailer.Get("Encrypt")

	for _, objNum := range table.Objects() {
		if objNum == 0 {
			continue // free head entry
		}
		gen := 0
		if _, g, found := table.Lookup(objNum); found {
			gen = g
		} else if _, _, inStream := table.ObjStream(objNum); !inStream {
			continue
		}
		ref := raw.ObjectRef{Num: objNum, Gen: gen}
		obj, err := loader.Load(ctx, ref)
		if err != nil {
			err = fmt.Errorf("load object %d: %w", objNum, err)
			if p.cfg.Recovery == nil {
				return nil, err
			}
			loc := recovery.Location{ObjectNum: objNum, ObjectGen: gen, Component: "parser"}
			if p.cfg.Recovery.OnError(ctx, err, loc) == recovery.ActionFail {
				return nil, err
			}
			continue
		}
		doc.Objects[ref] = obj
	}

	if _, ok := doc.Root(); !ok {
		if !findCatalog(doc) {
			return nil, errors.New("document catalog not found")
		}
		p.cfg.Logger.Warn("trailer /Root rebuilt from catalog object")
	}

	p.cfg.Logger.Debug("parsed document",
		observability.String("version", doc.Version),
		observability.String("xref", table.Type()),
		observability.Int("objects", len(doc.Objects)),
		observability.Bool("repaired", resolver.Repaired()),
		observability.Bool("linearized", resolver.Linearized()),
		observability.Bool("encrypted", doc.Encrypted),
	)
	return doc, nil
}

// findCatalog points the trailer at the catalog when a repaired file lost it.
// Cross-reference stream dictionaries carry trailer keys too.
func findCatalog(doc *raw.Document) bool {
	var best raw.ObjectRef
	found := false
	for ref, obj := range doc.Objects {
		if st, ok := obj.(*raw.StreamObj); ok {
			if typ, _ := st.Dict.Name("Type"); typ == "XRef" {
				if root, ok := st.Dict.Get("Root"); ok {
					if _, ok := doc.ResolveDict(root); ok {
						doc.Trailer.Set("Root", root)
						return true
					}
				}
			}
			continue
		}
		d, ok := obj.(*raw.DictObj)
		if !ok {
			continue
		}
		if typ, _ := d.Name("Type"); typ == "Catalog" && (!found || ref.Num > best.Num) {
			best, found = ref, true
		}
	}
	if found {
		doc.Trailer.Set("Root", raw.RefObj{R: best})
	}
	return found
}

func detectHeaderVersion(r io.ReaderAt) string {
	buf := make([]byte, 1024)
	n, err := r.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	// some producers put junk before the header
	line := string(buf[:n])
	idx := strings.Index(line, "%PDF-")
	if idx < 0 {
		return ""
	}
	line = line[idx+5:]
	end := 0
	for end < len(line) && (line[end] == '.' || (line[end] >= '0' && line[end] <= '9')) {
		end++
	}
	return line[:end]
}
