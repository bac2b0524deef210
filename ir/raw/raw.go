package raw

import (
	"fmt"
	"math"
)

// ObjectRef uniquely identifies an indirect PDF object.
type ObjectRef struct {
	Num int
	Gen int
}

func (r ObjectRef) String() string { return fmt.Sprintf("%d %d R", r.Num, r.Gen) }

// Object is the base interface for all raw PDF objects.
type Object interface {
	Type() string
	IsIndirect() bool
}

// Document is the root container for raw PDF objects.
type Document struct {
	Objects   map[ObjectRef]Object
	Trailer   *DictObj
	Version   string // e.g., "1.7"
	Encrypted bool
}

// NewDocument returns an empty document ready to receive objects.
func NewDocument() *Document {
	return &Document{Objects: make(map[ObjectRef]Object), Trailer: Dict()}
}

// MaxResolveDepth bounds reference chains followed by Resolve.
const MaxResolveDepth = 32

// Resolve follows indirect references until a direct object is reached.
// Dangling references resolve to the null object, as PDF readers must.
func (d *Document) Resolve(obj Object) Object {
	for i := 0; i < MaxResolveDepth; i++ {
		ref, ok := obj.(RefObj)
		if !ok {
			return obj
		}
		next, ok := d.Objects[ref.R]
		if !ok {
			return NullObj{}
		}
		obj = next
	}
	return NullObj{}
}

// ResolveDict resolves obj and returns it as a dictionary.
// A stream resolves to its dictionary.
func (d *Document) ResolveDict(obj Object) (*DictObj, bool) {
	switch v := d.Resolve(obj).(type) {
	case *DictObj:
		return v, true
	case *StreamObj:
		return v.Dict, true
	}
	return nil, false
}

func (d *Document) ResolveArray(obj Object) (*ArrayObj, bool) {
	a, ok := d.Resolve(obj).(*ArrayObj)
	return a, ok
}

// Root returns the document catalog.
func (d *Document) Root() (*DictObj, bool) {
	if d.Trailer == nil {
		return nil, false
	}
	root, ok := d.Trailer.Get("Root")
	if !ok {
		return nil, false
	}
	return d.ResolveDict(root)
}

// Float returns the numeric value of obj, following references.
func (d *Document) Float(obj Object) (float64, bool) {
	n, ok := d.Resolve(obj).(NumberObj)
	if !ok {
		return 0, false
	}
	return n.Float(), true
}

// Rect reads a four element numeric array such as /MediaBox.
func (d *Document) Rect(obj Object) ([4]float64, bool) {
	var out [4]float64
	arr, ok := d.ResolveArray(obj)
	if !ok || arr.Len() != 4 {
		return out, false
	}
	for i, item := range arr.Items {
		v, ok := d.Float(item)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return out, false
		}
		out[i] = v
	}
	return out, true
}
