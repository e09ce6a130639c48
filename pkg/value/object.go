package value

import (
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"
)

// PropertyFlags controls whether a property survives enumeration,
// deletion, and reassignment - [[Writable]]/[[Enumerable]]/[[Configurable]]
// plus two bits this object model needs beyond the plain ES5 triad:
// IsData marks a property as a plain data slot (every property this VM can
// create is one, since there are no accessor/getter-setter properties, but
// the bit is carried so a descriptor is self-describing), and ParentFrozen
// records that Freeze reached this property, distinguishing it from a
// property that merely happens to be non-writable for some other reason.
type PropertyFlags uint8

const (
	FlagWritable PropertyFlags = 1 << iota
	FlagEnumerable
	FlagConfigurable
	FlagIsData
	FlagParentFrozen
)

const DefaultFlags = FlagWritable | FlagEnumerable | FlagConfigurable | FlagIsData

// PropertyDescriptor is one own property slot.
type PropertyDescriptor struct {
	Value Value
	Flags PropertyFlags
}

// Object is implemented by every heap-allocated value kind. The set is
// closed: the VM and compiler type-switch over it rather than dispatching
// through Go interface methods for anything beyond property access, the
// same "dispatch on a small closed sum type" shape the teacher uses for
// its Block/Boolean/Integer/Array special forms in send().
type Object interface {
	// Proto returns the object's prototype link, or NoHandle if it has
	// none (the root of a prototype chain).
	Proto() Handle
	SetProto(h Handle)

	// OwnProperty looks up a property defined directly on this object,
	// not walking the prototype chain.
	OwnProperty(key string) (PropertyDescriptor, bool)
	SetOwnProperty(key string, v Value, flags PropertyFlags)
	DeleteOwnProperty(key string) bool
	OwnKeys() []string

	// IsExtensible reports whether new own properties may still be added;
	// Freeze clears it, along with every property's writability.
	IsExtensible() bool
	// Freeze marks this object's own properties non-writable and
	// ParentFrozen, and the object itself non-extensible. It only touches
	// this object's own property pool - recursing into property values
	// that are themselves objects is RecursiveFreeze's job, since walking
	// the object graph needs heap access this interface doesn't have.
	Freeze()

	// Clone returns a new, unallocated Object of the same concrete kind
	// with its own copy of this object's property pool and any
	// kind-specific fields (e.g. Array.Elements), sharing the same
	// prototype handle. The caller is responsible for Alloc-ing the
	// result onto a heap.
	Clone() Object

	// mark appends every Handle this object directly references (proto,
	// property values, captured environment) to out, for the GC's mark
	// phase.
	mark(out []Handle) []Handle
}

// NoHandle marks the absence of a prototype (the end of a chain).
var NoHandle = Handle{Index: -1}

// baseObject implements the property-bag parts of Object shared by every
// concrete kind via embedding.
type baseObject struct {
	proto      Handle
	props      map[string]PropertyDescriptor
	order      []string
	extensible bool
}

func newBase(proto Handle) baseObject {
	return baseObject{proto: proto, props: make(map[string]PropertyDescriptor), extensible: true}
}

func (b *baseObject) Proto() Handle    { return b.proto }
func (b *baseObject) SetProto(h Handle) { b.proto = h }

func (b *baseObject) OwnProperty(key string) (PropertyDescriptor, bool) {
	d, ok := b.props[key]
	return d, ok
}

// SetOwnProperty installs key unconditionally when it already exists
// (writability is the caller's job to check, per SetProperty); a brand new
// key is refused once the object has been frozen or otherwise made
// non-extensible.
func (b *baseObject) SetOwnProperty(key string, v Value, flags PropertyFlags) {
	if _, exists := b.props[key]; !exists {
		if !b.extensible {
			return
		}
		b.order = append(b.order, key)
	}
	b.props[key] = PropertyDescriptor{Value: v, Flags: flags}
}

func (b *baseObject) IsExtensible() bool { return b.extensible }

// Freeze clears this object's own extensibility and, per-property, clears
// Writable and Configurable while setting ParentFrozen - matching
// Object.freeze's effect of making every own data property permanently
// read-only and undeletable. It does not descend into property values
// that are themselves objects; RecursiveFreeze does that walking the heap.
func (b *baseObject) Freeze() {
	b.extensible = false
	for k, d := range b.props {
		d.Flags = (d.Flags &^ (FlagWritable | FlagConfigurable)) | FlagParentFrozen
		b.props[k] = d
	}
}

// cloneBase returns an independent copy of b's property pool (own keys,
// values, and flags) and extensibility, sharing the same prototype handle.
func (b *baseObject) cloneBase() baseObject {
	props := make(map[string]PropertyDescriptor, len(b.props))
	for k, v := range b.props {
		props[k] = v
	}
	order := make([]string, len(b.order))
	copy(order, b.order)
	return baseObject{proto: b.proto, props: props, order: order, extensible: b.extensible}
}

func (b *baseObject) DeleteOwnProperty(key string) bool {
	d, ok := b.props[key]
	if !ok {
		return false
	}
	if d.Flags&FlagConfigurable == 0 {
		return false
	}
	delete(b.props, key)
	for i, k := range b.order {
		if k == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

func (b *baseObject) OwnKeys() []string {
	out := make([]string, 0, len(b.order))
	for _, k := range b.order {
		if d := b.props[k]; d.Flags&FlagEnumerable != 0 {
			out = append(out, k)
		}
	}
	return out
}

// allKeys returns every own key regardless of enumerability, used by
// RecursiveFreeze so a non-enumerable property isn't skipped when walking
// the object graph to freeze.
func (b *baseObject) allKeys() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

func (b *baseObject) markBase(out []Handle) []Handle {
	if b.proto != NoHandle {
		out = append(out, b.proto)
	}
	for _, d := range b.props {
		if d.Value.IsObject() {
			out = append(out, d.Value.Handle())
		}
	}
	return out
}

// PlainObject is an ordinary `{}` object literal or constructed instance.
type PlainObject struct{ baseObject }

func NewPlainObject(proto Handle) *PlainObject { return &PlainObject{newBase(proto)} }
func (o *PlainObject) mark(out []Handle) []Handle { return o.markBase(out) }
func (o *PlainObject) Clone() Object              { return &PlainObject{o.cloneBase()} }

// Array is a dense-indexed object; numeric-looking keys below Length are
// stored positionally in Elements, everything else falls back to the
// embedded property bag (e.g. user-assigned non-index properties).
type Array struct {
	baseObject
	Elements []Value
}

func NewArray(proto Handle, elems []Value) *Array {
	return &Array{baseObject: newBase(proto), Elements: elems}
}

func (a *Array) mark(out []Handle) []Handle {
	out = a.markBase(out)
	for _, v := range a.Elements {
		if v.IsObject() {
			out = append(out, v.Handle())
		}
	}
	return out
}

func (a *Array) Clone() Object {
	elems := make([]Value, len(a.Elements))
	copy(elems, a.Elements)
	return &Array{baseObject: a.cloneBase(), Elements: elems}
}

// DynamicString wraps a Go string as a heap object so that String.prototype
// methods can be dispatched through the same property-lookup path as any
// other object. Its `length` counts UTF-16 code units (a surrogate pair
// counts two) by encoding through golang.org/x/text/encoding/unicode;
// charAt and slice index by Unicode code point instead.
type DynamicString struct {
	baseObject
	Value string
}

var utf16Encoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()

func NewDynamicString(proto Handle, s string) *DynamicString {
	return &DynamicString{baseObject: newBase(proto), Value: s}
}

func (s *DynamicString) mark(out []Handle) []Handle { return s.markBase(out) }
func (s *DynamicString) Clone() Object {
	return &DynamicString{baseObject: s.cloneBase(), Value: s.Value}
}

// DecodeUTF16Units reports how many UTF-16 code units s's content would
// occupy, matching ES5 String.prototype.length semantics for non-BMP text
// (a JS "character" is a UTF-16 unit, not a rune - "😀".length is 2).
// s is UTF-8; encoding it to UTF-16LE bytes and halving the byte count gives
// the unit count, the same direction iolang's Sequence encoding machinery
// transcodes a Go string into UTF-16LE bytes rather than treating one as
// the other's raw byte layout.
func DecodeUTF16Units(s string) (int, error) {
	encoded, err := utf16Encoder.Bytes([]byte(s))
	if err != nil {
		return utf16.RuneCountInString(s), nil
	}
	return len(encoded) / 2, nil
}

// BooleanBox wraps a bool as a heap object, used only when `new Boolean()`
// style boxing is exercised by a native; ordinary booleans stay inline in
// Value.
type BooleanBox struct {
	baseObject
	Value bool
}

func NewBooleanBox(proto Handle, b bool) *BooleanBox {
	return &BooleanBox{baseObject: newBase(proto), Value: b}
}

func (b *BooleanBox) mark(out []Handle) []Handle { return b.markBase(out) }
func (b *BooleanBox) Clone() Object {
	return &BooleanBox{baseObject: b.cloneBase(), Value: b.Value}
}

// NativeHost is everything a host-provided native function (console.log,
// Array.prototype.push, ...) needs from the VM without pkg/value importing
// pkg/vm back: heap access, the base-prototype table, ES5 coercions, and a
// re-entrant call hook so natives like Array.prototype.forEach can invoke a
// script callback.
type NativeHost interface {
	Heap() *Heap
	Prototype(name string) Handle // "Object", "Array", "String", "Boolean", "Function", "Error"
	NewString(s string) Value
	NewArray(elems []Value) Value
	NewPlainObject() Value
	ToNumber(v Value) float64
	ToGoString(v Value) string
	Call(callee, this Value, args []Value) (Value, error)
	Throw(name, message string) error
}

// NativeFunction is a host-implemented function exposed to script code
// (console.log, Array.prototype.push, ...).
type NativeFunction struct {
	baseObject
	Name string
	Impl func(host NativeHost, this Value, args []Value) (Value, error)
}

func NewNativeFunction(proto Handle, name string, impl func(NativeHost, Value, []Value) (Value, error)) *NativeFunction {
	return &NativeFunction{baseObject: newBase(proto), Name: name, Impl: impl}
}

func (n *NativeFunction) mark(out []Handle) []Handle { return n.markBase(out) }
func (n *NativeFunction) Clone() Object {
	return &NativeFunction{baseObject: n.cloneBase(), Name: n.Name, Impl: n.Impl}
}

// Lambda is a script-defined function: a closure over the compiled
// function body plus the environment chain in effect where it was
// created.
type Lambda struct {
	baseObject
	FuncIndex  int    // index into the owning Program's Functions
	CaptureEnv Handle // enclosing environment object, or NoHandle
	Name       string
}

func NewLambda(proto Handle, funcIndex int, captureEnv Handle, name string) *Lambda {
	return &Lambda{baseObject: newBase(proto), FuncIndex: funcIndex, CaptureEnv: captureEnv, Name: name}
}

func (l *Lambda) mark(out []Handle) []Handle {
	out = l.markBase(out)
	if l.CaptureEnv != NoHandle {
		out = append(out, l.CaptureEnv)
	}
	return out
}

func (l *Lambda) Clone() Object {
	return &Lambda{baseObject: l.cloneBase(), FuncIndex: l.FuncIndex, CaptureEnv: l.CaptureEnv, Name: l.Name}
}

// Error is a thrown/throwable error object, analogous to Error.prototype
// instances. Name/Message are kept as plain Go strings for cheap access
// from RuntimeError formatting; the VM additionally mirrors them as heap
// DynamicString "name"/"message" own properties at construction time so
// script-level property access sees the same values.
type Error struct {
	baseObject
	Name    string
	Message string
	Stack   []string
}

func NewError(proto Handle, name, message string) *Error {
	return &Error{baseObject: newBase(proto), Name: name, Message: message}
}

func (e *Error) mark(out []Handle) []Handle { return e.markBase(out) }
func (e *Error) Clone() Object {
	stack := make([]string, len(e.Stack))
	copy(stack, e.Stack)
	return &Error{baseObject: e.cloneBase(), Name: e.Name, Message: e.Message, Stack: stack}
}

// Environment is a closure scope object: its baseObject property bag holds
// the block's locals, and its prototype chain is the lexical enclosing
// scope, so RefUpval/StoreUpval resolve exactly like ordinary property
// lookup walking Proto().
type Environment struct {
	baseObject
}

func NewEnvironment(enclosing Handle) *Environment {
	return &Environment{newBase(enclosing)}
}

func (e *Environment) mark(out []Handle) []Handle { return e.markBase(out) }
func (e *Environment) Clone() Object              { return &Environment{e.cloneBase()} }
