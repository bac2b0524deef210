package raw

import (
	"errors"
	"fmt"
	"io"

	"github.com/wudi/pdfimpose/recovery"
	"github.com/wudi/pdfimpose/scanner"
)

// MaxNesting bounds array and dictionary nesting while reading objects.
const MaxNesting = 256

// Reader builds objects from a token stream.
type Reader struct {
	s   scanner.Scanner
	buf []scanner.Token

	// LengthOf resolves an indirect /Length before a stream payload is read.
	// When nil or unresolved, the payload runs to the endstream marker.
	LengthOf func(ref ObjectRef) (int64, bool)
}

func NewReader(s scanner.Scanner) *Reader {
	return &Reader{s: s}
}

// SeekTo repositions the underlying scanner and drops any pushed back tokens.
func (r *Reader) SeekTo(offset int64) error {
	r.buf = r.buf[:0]
	return r.s.SeekTo(offset)
}

func (r *Reader) Next() (scanner.Token, error) {
	if l := len(r.buf); l > 0 {
		t := r.buf[l-1]
		r.buf = r.buf[:l-1]
		return t, nil
	}
	return r.s.Next()
}

func (r *Reader) Unread(tok scanner.Token) {
	r.buf = append(r.buf, tok)
}

// ReadObject reads one direct object.
func (r *Reader) ReadObject() (Object, error) {
	return r.readObject(0)
}

// ReadIndirect reads "N G obj ... endobj" at the current position.
func (r *Reader) ReadIndirect() (ObjectRef, Object, error) {
	var ref ObjectRef
	num, err := r.Next()
	if err != nil {
		return ref, nil, err
	}
	gen, err := r.Next()
	if err != nil {
		return ref, nil, err
	}
	kw, err := r.Next()
	if err != nil {
		return ref, nil, err
	}
	if num.Type != scanner.TokenNumber || !num.IsInt || gen.Type != scanner.TokenNumber || !gen.IsInt ||
		kw.Type != scanner.TokenKeyword || kw.Str != "obj" {
		return ref, nil, fmt.Errorf("expected object header at offset %d", num.Pos)
	}
	ref = ObjectRef{Num: int(num.Int), Gen: int(gen.Int)}
	if rc, ok := r.s.(interface{ SetRecoveryLocation(recovery.Location) }); ok {
		rc.SetRecoveryLocation(recovery.Location{ObjectNum: ref.Num, ObjectGen: ref.Gen, Component: "parser"})
	}

	obj, err := r.readObject(0)
	if err != nil {
		return ref, nil, fmt.Errorf("object %d %d: %w", ref.Num, ref.Gen, err)
	}
	if dict, ok := obj.(*DictObj); ok {
		r.hintStreamLength(dict)
		tok, err := r.Next()
		if err == nil {
			if tok.Type == scanner.TokenStream {
				obj = NewStream(dict, tok.Bytes)
			} else {
				r.Unread(tok)
			}
		} else if !errors.Is(err, io.EOF) {
			return ref, nil, fmt.Errorf("object %d %d: %w", ref.Num, ref.Gen, err)
		}
	}
	if tok, err := r.Next(); err == nil {
		if tok.Type != scanner.TokenKeyword || tok.Str != "endobj" {
			r.Unread(tok)
		}
	}
	return ref, obj, nil
}

func (r *Reader) hintStreamLength(dict *DictObj) {
	r.s.SetNextStreamLength(-1)
	switch v := dict.KV["Length"].(type) {
	case NumberObj:
		if v.IsInt && v.I >= 0 {
			r.s.SetNextStreamLength(v.I)
		}
	case RefObj:
		if r.LengthOf != nil {
			if n, ok := r.LengthOf(v.R); ok && n >= 0 {
				r.s.SetNextStreamLength(n)
			}
		}
	}
}

func (r *Reader) readObject(depth int) (Object, error) {
	if depth > MaxNesting {
		return nil, errors.New("nesting too deep")
	}
	tok, err := r.Next()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case scanner.TokenName:
		return NameObj{Val: tok.Str}, nil
	case scanner.TokenNumber:
		if tok.IsInt {
			return NumberInt(tok.Int), nil
		}
		return NumberFloat(tok.Float), nil
	case scanner.TokenBoolean:
		return Bool(tok.Bool), nil
	case scanner.TokenNull:
		return NullObj{}, nil
	case scanner.TokenString:
		return StringObj{Bytes: tok.Bytes, Hex: tok.Hex}, nil
	case scanner.TokenRef:
		return Ref(tok.Ref.Num, tok.Ref.Gen), nil
	case scanner.TokenArray:
		arr := &ArrayObj{}
		for {
			t, err := r.Next()
			if err != nil {
				return nil, fmt.Errorf("unterminated array: %w", err)
			}
			if t.Type == scanner.TokenKeyword && t.Str == "]" {
				return arr, nil
			}
			r.Unread(t)
			item, err := r.readObject(depth + 1)
			if err != nil {
				return nil, err
			}
			arr.Append(item)
		}
	case scanner.TokenDict:
		d := Dict()
		for {
			t, err := r.Next()
			if err != nil {
				return nil, fmt.Errorf("unterminated dictionary: %w", err)
			}
			if t.Type == scanner.TokenKeyword && t.Str == ">>" {
				return d, nil
			}
			if t.Type != scanner.TokenName {
				return nil, fmt.Errorf("expected name in dict at offset %d, got %v", t.Pos, t.Type)
			}
			val, err := r.readObject(depth + 1)
			if err != nil {
				return nil, err
			}
			// a null value is the same as an absent key
			if _, isNull := val.(NullObj); !isNull {
				d.Set(t.Str, val)
			}
		}
	}
	return nil, fmt.Errorf("unexpected %v token %q at offset %d", tok.Type, tok.Str, tok.Pos)
}
