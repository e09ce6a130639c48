// Package value implements the runtime value representation, heap, and
// garbage collector the VM operates on.
//
// A Value is a small tagged union rather than a Go interface{}: numbers and
// immediates live inline, and anything heap-allocated is referenced by a
// Handle (an index into the Heap's slot table) instead of a raw Go pointer.
// Indirect references used as assignment targets (the left side of `=`, a
// captured-environment slot) are themselves a Value variant - a
// (Handle, key) pair - rather than an unsafe pointer into a slice that the
// heap may reallocate out from under it.
package value

import "fmt"

// Kind tags which field of a Value is meaningful.
type Kind byte

const (
	KindUndefined Kind = iota
	KindNull
	KindNumber
	KindBool
	KindObject
	KindRef // an lvalue: (object handle, property key)
)

// Handle identifies a heap-allocated Object by slot index plus a
// generation counter, so a stale Handle into a freed-and-reused slot is
// detectable rather than silently aliasing the wrong object.
type Handle struct {
	Index int32
	Gen    uint32
}

// Value is the tagged union every VM stack slot, local, and object property
// holds.
type Value struct {
	kind Kind
	num  float64 // KindNumber (also holds int32 values, exactly representable)
	b    bool    // KindBool
	obj  Handle  // KindObject
	ref  Ref     // KindRef
}

// Ref is a property reference usable as an assignment target: the property
// named Key on the object Target denotes.
type Ref struct {
	Target Handle
	Key    string
}

func Undefined() Value { return Value{kind: KindUndefined} }
func Null() Value      { return Value{kind: KindNull} }

func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func Int(i int32) Value      { return Value{kind: KindNumber, num: float64(i)} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Object(h Handle) Value  { return Value{kind: KindObject, obj: h} }
func RefOf(h Handle, key string) Value {
	return Value{kind: KindRef, ref: Ref{Target: h, Key: key}}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsNumber() bool    { return v.kind == KindNumber }
func (v Value) IsBool() bool      { return v.kind == KindBool }
func (v Value) IsObject() bool    { return v.kind == KindObject }
func (v Value) IsRef() bool       { return v.kind == KindRef }

func (v Value) Num() float64  { return v.num }
func (v Value) Bool_() bool   { return v.b }
func (v Value) Handle() Handle { return v.obj }
func (v Value) Ref() Ref      { return v.ref }

// Truthy implements the ES5 ToBoolean coercion used by test_falsy and the
// conditional jump opcodes.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindNumber:
		return v.num != 0 && !isNaN(v.num)
	case KindBool:
		return v.b
	case KindObject:
		return true
	default:
		return false
	}
}

func isNaN(f float64) bool { return f != f }

// TypeName implements the `typeof` operator's string result.
func (v Value) TypeName(h *Heap) string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "object"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindObject:
		obj := h.Get(v.obj)
		if obj == nil {
			return "undefined"
		}
		switch obj.(type) {
		case *Lambda, *NativeFunction:
			return "function"
		default:
			return "object"
		}
	default:
		return "undefined"
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindNumber:
		return fmt.Sprintf("%v", v.num)
	case KindBool:
		return fmt.Sprintf("%v", v.b)
	case KindObject:
		return fmt.Sprintf("<object #%d>", v.obj.Index)
	default:
		return "undefined"
	}
}

// StrictEquals implements ES5 `===`: same kind and same underlying value,
// no coercion, object identity compared by handle.
func StrictEquals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindNumber:
		return a.num == b.num
	case KindBool:
		return a.b == b.b
	case KindObject:
		return a.obj == b.obj
	default:
		return false
	}
}
