package contentstream

import "github.com/wudi/pdfimpose/ir/raw"

// Operation is one operator with the operands that precede it.
type Operation struct {
	Operator string
	Operands []raw.Object
}

// Op builds an operation.
func Op(operator string, operands ...raw.Object) Operation {
	return Operation{Operator: operator, Operands: operands}
}

// Numbers converts float operands, using the integer form where possible.
func Numbers(vs ...float64) []raw.Object {
	out := make([]raw.Object, len(vs))
	for i, v := range vs {
		out[i] = raw.Number(v)
	}
	return out
}
