// Package contentstream reads and writes page content streams.
package contentstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wudi/pdfimpose/coords"
	"github.com/wudi/pdfimpose/ir/raw"
	"github.com/wudi/pdfimpose/scanner"
	"github.com/wudi/pdfimpose/writer"
)

// Encode serializes ops, one operation per line.
func Encode(ops []Operation) []byte {
	var b bytes.Buffer
	for _, op := range ops {
		for _, o := range op.Operands {
			writer.AppendObject(&b, o)
			b.WriteByte(' ')
		}
		b.WriteString(op.Operator)
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// Parse splits a content stream into operations. Inline images are not
// supported.
func Parse(data []byte) ([]Operation, error) {
	r := raw.NewReader(scanner.New(bytes.NewReader(data), scanner.Config{}))
	var ops []Operation
	var operands []raw.Object
	for {
		tok, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if tok.Type == scanner.TokenKeyword && tok.Str != "]" && tok.Str != ">>" {
			if tok.Str == "BI" {
				return nil, fmt.Errorf("inline image at offset %d", tok.Pos)
			}
			ops = append(ops, Operation{Operator: tok.Str, Operands: operands})
			operands = nil
			continue
		}
		r.Unread(tok)
		obj, err := r.ReadObject()
		if err != nil {
			return nil, err
		}
		operands = append(operands, obj)
	}
	if len(operands) > 0 {
		return nil, fmt.Errorf("dangling operands: %d", len(operands))
	}
	return ops, nil
}

type Processor interface {
	Process(ctx context.Context, stream []byte, state *GraphicsState) error
	RegisterHandler(op string, h OperatorHandler)
}

type OperatorHandler interface {
	Handle(ctx *ExecutionContext, operands []raw.Object) error
}

// HandlerFunc adapts a function to OperatorHandler.
type HandlerFunc func(ctx *ExecutionContext, operands []raw.Object) error

func (f HandlerFunc) Handle(ctx *ExecutionContext, operands []raw.Object) error {
	return f(ctx, operands)
}

type ExecutionContext struct {
	GraphicsState *GraphicsState
}

type GraphicsState struct {
	CTM   coords.Matrix
	stack []coords.Matrix
}

// NewGraphicsState starts from the identity transform.
func NewGraphicsState() *GraphicsState { return &GraphicsState{CTM: coords.Identity()} }

func (gs *GraphicsState) Save() { gs.stack = append(gs.stack, gs.CTM) }
func (gs *GraphicsState) Restore() error {
	n := len(gs.stack)
	if n == 0 {
		return errors.New("state stack empty")
	}
	gs.CTM = gs.stack[n-1]
	gs.stack = gs.stack[:n-1]
	return nil
}

// Concat applies the cm operator.
func (gs *GraphicsState) Concat(m coords.Matrix) { gs.CTM = m.Multiply(gs.CTM) }

type simpleProcessor struct{ handlers map[string]OperatorHandler }

// NewProcessor returns a processor that tracks q, Q and cm itself and hands
// every other registered operator to its handler.
func NewProcessor() Processor {
	return &simpleProcessor{handlers: make(map[string]OperatorHandler)}
}

func (p *simpleProcessor) RegisterHandler(op string, h OperatorHandler) { p.handlers[op] = h }

func (p *simpleProcessor) Process(ctx context.Context, stream []byte, state *GraphicsState) error {
	ops, err := Parse(stream)
	if err != nil {
		return err
	}
	ec := &ExecutionContext{GraphicsState: state}
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch op.Operator {
		case "q":
			state.Save()
		case "Q":
			if err := state.Restore(); err != nil {
				return err
			}
		case "cm":
			m, err := matrixOperands(op.Operands)
			if err != nil {
				return err
			}
			state.Concat(m)
		}
		if h, ok := p.handlers[op.Operator]; ok {
			if err := h.Handle(ec, op.Operands); err != nil {
				return err
			}
		}
	}
	return nil
}

func matrixOperands(operands []raw.Object) (coords.Matrix, error) {
	var m coords.Matrix
	if len(operands) != 6 {
		return m, fmt.Errorf("cm needs 6 operands, got %d", len(operands))
	}
	for i, o := range operands {
		n, ok := o.(raw.NumberObj)
		if !ok {
			return m, fmt.Errorf("cm operand %d is a %s", i, o.Type())
		}
		m[i] = n.Float()
	}
	return m, nil
}
