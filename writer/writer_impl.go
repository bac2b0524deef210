package writer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/wudi/pdfimpose/ir/raw"
)

type impl struct{ interceptors []Interceptor }

func (w *impl) SerializeObject(ref raw.ObjectRef, obj raw.Object) ([]byte, error) {
	if obj == nil {
		return nil, fmt.Errorf("object %d %d is nil", ref.Num, ref.Gen)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d obj\n", ref.Num, ref.Gen)
	writePrimitive(&buf, obj)
	buf.WriteString("\nendobj\n")
	return buf.Bytes(), nil
}

func (w *impl) Write(ctx context.Context, doc *raw.Document, out io.Writer, cfg Config) error {
	if doc == nil || doc.Trailer == nil {
		return errors.New("document has no trailer")
	}
	if _, ok := doc.Trailer.Get("Root"); !ok {
		return errors.New("trailer has no /Root")
	}

	ordered := make([]raw.ObjectRef, 0, len(doc.Objects))
	for ref := range doc.Objects {
		ordered = append(ordered, ref)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Num < ordered[j].Num })

	var buf bytes.Buffer
	buf.WriteString("%PDF-" + pdfVersion(cfg) + "\n%\xE2\xE3\xCF\xD3\n")
	offsets := make(map[int]int64, len(ordered))
	maxObjNum := 0
	for _, ref := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}
		obj, err := prepareObject(doc.Objects[ref], cfg)
		if err != nil {
			return fmt.Errorf("object %d: %w", ref.Num, err)
		}
		serialized, err := w.SerializeObject(ref, obj)
		if err != nil {
			return err
		}
		offsets[ref.Num] = int64(buf.Len())
		buf.Write(serialized)
		if ref.Num > maxObjNum {
			maxObjNum = ref.Num
		}
		for _, ic := range w.interceptors {
			if err := ic.AfterWrite(ctx, ref, int64(len(serialized))); err != nil {
				return err
			}
		}
	}

	ids := fileID(buf.Bytes())
	if cfg.XRefStreams {
		if err := writeXRefStream(&buf, doc.Trailer, offsets, maxObjNum+1, ids, cfg); err != nil {
			return err
		}
	} else {
		writeXRefTable(&buf, doc.Trailer, offsets, maxObjNum, ids)
	}

	_, err := out.Write(buf.Bytes())
	return err
}

func writeXRefTable(buf *bytes.Buffer, src *raw.DictObj, offsets map[int]int64, maxObjNum int, ids [2][]byte) {
	xrefOffset := buf.Len()
	fmt.Fprintf(buf, "xref\n0 %d\n", maxObjNum+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= maxObjNum; i++ {
		if off, ok := offsets[i]; ok {
			fmt.Fprintf(buf, "%010d 00000 n \n", off)
		} else {
			buf.WriteString("0000000000 65535 f \n")
		}
	}
	buf.WriteString("trailer\n")
	writePrimitive(buf, buildTrailer(src, maxObjNum+1, ids))
	fmt.Fprintf(buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
}

func writeXRefStream(buf *bytes.Buffer, src *raw.DictObj, offsets map[int]int64, xrefNum int, ids [2][]byte, cfg Config) error {
	xrefOffset := int64(buf.Len())
	all := make(map[int]int64, len(offsets)+1)
	for k, v := range offsets {
		all[k] = v
	}
	all[xrefNum] = xrefOffset
	index, entries := xrefStreamIndexAndEntries(all)

	dict := buildTrailer(src, xrefNum+1, ids)
	dict.Set("Type", raw.NameLiteral("XRef"))
	dict.Set("W", raw.NewArray(raw.NumberInt(1), raw.NumberInt(4), raw.NumberInt(1)))
	dict.Set("Index", index)
	obj, err := prepareObject(raw.NewStream(dict, entries), cfg)
	if err != nil {
		return err
	}
	serialized, err := (&impl{}).SerializeObject(raw.ObjectRef{Num: xrefNum}, obj)
	if err != nil {
		return err
	}
	buf.Write(serialized)
	fmt.Fprintf(buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)
	return nil
}

// prepareObject compresses unfiltered streams when asked to and always
// recomputes /Length. The source object is left untouched.
func prepareObject(obj raw.Object, cfg Config) (raw.Object, error) {
	st, ok := obj.(*raw.StreamObj)
	if !ok {
		return obj, nil
	}
	dict := raw.Dict()
	if st.Dict != nil {
		for _, k := range st.Dict.Keys() {
			dict.Set(k, st.Dict.KV[k])
		}
	}
	data := st.Data
	if _, filtered := dict.Get("Filter"); !filtered && cfg.Compression != 0 && len(data) > 0 {
		enc, err := flateEncode(data, cfg.Compression)
		if err != nil {
			return nil, err
		}
		data = enc
		dict.Set("Filter", raw.NameLiteral("FlateDecode"))
		dict.Delete("DecodeParms")
	}
	dict.Set("Length", raw.NumberInt(int64(len(data))))
	return raw.NewStream(dict, data), nil
}
