package raw

import (
	"strings"
	"testing"

	"github.com/wudi/pdfimpose/scanner"
)

func readerFor(data string) *Reader {
	return NewReader(scanner.New(strings.NewReader(data), scanner.Config{}))
}

func TestReadObjectNested(t *testing.T) {
	rd := readerFor("<< /Type /Page /MediaBox [0 0 595.5 842] /Parent 2 0 R /Gone null /Info (hi) >>")
	obj, err := rd.ReadObject()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	d, ok := obj.(*DictObj)
	if !ok {
		t.Fatalf("expected dict, got %T", obj)
	}
	if name, _ := d.Name("Type"); name != "Page" {
		t.Fatalf("Type = %q", name)
	}
	if _, ok := d.Get("Gone"); ok {
		t.Fatalf("null entries should be dropped")
	}
	if ref, ok := d.KV["Parent"].(RefObj); !ok || ref.R != (ObjectRef{Num: 2}) {
		t.Fatalf("Parent = %#v", d.KV["Parent"])
	}
	box, ok := NewDocument().Rect(d.KV["MediaBox"])
	if !ok || box != [4]float64{0, 0, 595.5, 842} {
		t.Fatalf("MediaBox = %v", box)
	}
}

func TestReadIndirectStream(t *testing.T) {
	rd := readerFor("4 0 obj\n<< /Length 5 >>\nstream\nhello\nendstream\nendobj\n5 0 obj 42 endobj")
	ref, obj, err := rd.ReadIndirect()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if ref != (ObjectRef{Num: 4}) {
		t.Fatalf("ref = %v", ref)
	}
	st, ok := obj.(*StreamObj)
	if !ok || string(st.Data) != "hello" {
		t.Fatalf("unexpected stream %#v", obj)
	}
	ref, obj, err = rd.ReadIndirect()
	if err != nil || ref.Num != 5 {
		t.Fatalf("second object: %v %v", ref, err)
	}
	if n, ok := obj.(NumberObj); !ok || n.Int() != 42 {
		t.Fatalf("second object = %#v", obj)
	}
}

func TestReadIndirectLengthResolver(t *testing.T) {
	rd := readerFor("4 0 obj << /Length 9 0 R >>\nstream\nab\nendstream junk\nendstream\nendobj")
	rd.LengthOf = func(ref ObjectRef) (int64, bool) {
		if ref.Num == 9 {
			return 17, true
		}
		return 0, false
	}
	_, obj, err := rd.ReadIndirect()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(obj.(*StreamObj).Data); got != "ab\nendstream junk" {
		t.Fatalf("payload = %q", got)
	}
}

func TestReadObjectErrors(t *testing.T) {
	for _, in := range []string{"<< 1 2 >>", "[1 2", ">>"} {
		if _, err := readerFor(in).ReadObject(); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
	deep := strings.Repeat("[", MaxNesting+2)
	if _, err := readerFor(deep).ReadObject(); err == nil || !strings.Contains(err.Error(), "nesting") {
		t.Fatalf("expected nesting error, got %v", err)
	}
}

func TestResolveDangling(t *testing.T) {
	doc := NewDocument()
	if _, ok := doc.Resolve(Ref(7, 0)).(NullObj); !ok {
		t.Fatalf("dangling reference should resolve to null")
	}
	doc.Objects[ObjectRef{Num: 1}] = Ref(2, 0)
	doc.Objects[ObjectRef{Num: 2}] = Ref(1, 0)
	if _, ok := doc.Resolve(Ref(1, 0)).(NullObj); !ok {
		t.Fatalf("reference cycle should resolve to null")
	}
}
