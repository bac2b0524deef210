package xref

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/wudi/pdfimpose/ir/raw"
	"github.com/wudi/pdfimpose/scanner"
)

// repair scans the entire file to reconstruct the xref table.
// It looks for "<num> <gen> obj" patterns and "trailer" dictionaries;
// later definitions override earlier ones as an incremental update would.
func repair(ctx context.Context, data []byte) (Table, *raw.DictObj, error) {
	s := scanner.New(bytes.NewReader(data), scanner.Config{})
	rd := raw.NewReader(s)
	entries := make(map[int]entry)
	trailer := raw.Dict()

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		tok, err := rd.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// skip unreadable bytes
			if serr := s.SeekTo(s.Position() + 1); serr != nil {
				break
			}
			continue
		}

		switch {
		case tok.Type == scanner.TokenNumber && tok.IsInt:
			tokGen, err := rd.Next()
			if err != nil {
				continue
			}
			if tokGen.Type != scanner.TokenNumber || !tokGen.IsInt {
				rd.Unread(tokGen)
				continue
			}
			tokObj, err := rd.Next()
			if err != nil {
				continue
			}
			if tokObj.Type == scanner.TokenKeyword && tokObj.Str == "obj" {
				entries[int(tok.Int)] = entry{kind: kindInUse, offset: tok.Pos, gen: int(tokGen.Int)}
				continue
			}
			// "999 1 0 obj": the generation may start the real header
			rd.Unread(tokObj)
			rd.Unread(tokGen)
		case tok.Type == scanner.TokenKeyword && tok.Str == "trailer":
			obj, err := rd.ReadObject()
			if err != nil {
				continue
			}
			if dict, ok := obj.(*raw.DictObj); ok {
				for _, k := range dict.Keys() {
					trailer.Set(k, dict.KV[k])
				}
			}
		}
	}

	if len(entries) == 0 {
		return nil, nil, errors.New("repair failed: no objects found")
	}
	if _, ok := trailer.Get("Size"); !ok {
		max := 0
		for num := range entries {
			if num > max {
				max = num
			}
		}
		trailer.Set("Size", raw.NumberInt(int64(max+1)))
	}
	return &table{kind: "repaired", entries: entries}, trailer, nil
}
