package pdfdoc

import (
	"fmt"

	"github.com/wudi/pdfimpose/coords"
	"github.com/wudi/pdfimpose/ir/raw"
	"github.com/wudi/pdfimpose/observability"
)

// maxTreeDepth bounds the page tree walk.
const maxTreeDepth = 64

// letterBox is used when neither a page nor its ancestors carry a MediaBox.
var letterBox = coords.Rect{URX: 612, URY: 792}

type inheritedPageProps struct {
	MediaBox  *coords.Rect
	Rotate    *int
	Resources raw.Object
}

type pageWalker struct {
	doc     *Document
	logger  observability.Logger
	visited map[raw.ObjectRef]bool
}

func (d *Document) collectPages(logger observability.Logger) error {
	root, ok := d.raw.Root()
	if !ok {
		return fmt.Errorf("pdfdoc: missing document catalog")
	}
	pagesObj, ok := root.Get("Pages")
	if !ok {
		return fmt.Errorf("pdfdoc: catalog has no /Pages")
	}
	w := &pageWalker{doc: d, logger: logger, visited: make(map[raw.ObjectRef]bool)}
	return w.walk(pagesObj, inheritedPageProps{}, 0)
}

// walk traverses the page tree depth first, appending leaves to the
// document. Broken subtrees are skipped with a warning.
func (w *pageWalker) walk(obj raw.Object, inherited inheritedPageProps, depth int) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("pdfdoc: page tree deeper than %d", maxTreeDepth)
	}
	if ref, ok := obj.(raw.RefObj); ok {
		if w.visited[ref.R] {
			return fmt.Errorf("pdfdoc: page tree loops at %s", ref.R)
		}
		w.visited[ref.R] = true
	}
	rd := w.doc.raw
	dict, ok := rd.ResolveDict(obj)
	if !ok {
		return fmt.Errorf("pdfdoc: page tree node is not a dictionary")
	}

	props := inherited
	if mb, ok := rd.Rect(dict.KV["MediaBox"]); ok {
		box := coords.Rect{LLX: mb[0], LLY: mb[1], URX: mb[2], URY: mb[3]}.Normalize()
		props.MediaBox = &box
	}
	if rot, ok := rd.Float(dict.KV["Rotate"]); ok {
		r := coords.NormalizeRotation(int(rot))
		props.Rotate = &r
	}
	if res, ok := dict.Get("Resources"); ok {
		props.Resources = res
	}

	kidsObj, hasKids := dict.Get("Kids")
	typ, _ := dict.Name("Type")
	if typ == "Page" || (typ == "" && !hasKids) {
		w.doc.pages = append(w.doc.pages, w.newPage(dict, props))
		return nil
	}
	if !hasKids {
		return fmt.Errorf("pdfdoc: pages node missing Kids")
	}
	kids, ok := rd.ResolveArray(kidsObj)
	if !ok {
		return fmt.Errorf("pdfdoc: Kids is not an array")
	}
	for i, kid := range kids.Items {
		if err := w.walk(kid, props, depth+1); err != nil {
			w.logger.Warn("skipping page tree node",
				observability.Int("kid", i),
				observability.Error("error", err))
		}
	}
	return nil
}

func (w *pageWalker) newPage(dict *raw.DictObj, props inheritedPageProps) *Page {
	box := letterBox
	if props.MediaBox != nil {
		box = *props.MediaBox
	} else {
		w.logger.Warn("page without MediaBox, assuming letter",
			observability.Int("page", len(w.doc.pages)+1))
	}
	p := &Page{box: box, src: &source{doc: w.doc, dict: dict, resources: props.Resources}}
	if props.Rotate != nil {
		p.rotate = *props.Rotate
	}
	return p
}
