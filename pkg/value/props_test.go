package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayIndexProperties(t *testing.T) {
	h := NewHeap(0, 0)
	handle, ok := h.Alloc(NewArray(NoHandle, []Value{Number(1), Number(2)}))
	require.True(t, ok)

	assert.Equal(t, Number(1), GetProperty(h, handle, "0"))
	assert.True(t, GetProperty(h, handle, "5").IsUndefined())
	assert.Equal(t, Number(2), GetProperty(h, handle, "length"))

	SetProperty(h, handle, "2", Number(3))
	assert.Equal(t, Number(3), GetProperty(h, handle, "2"))

	SetProperty(h, handle, "length", Number(1))
	assert.True(t, GetProperty(h, handle, "1").IsUndefined(), "shrinking length must drop trailing elements")
}

func TestStringLengthProperty(t *testing.T) {
	h := NewHeap(0, 0)
	handle, ok := h.Alloc(NewDynamicString(NoHandle, "hello"))
	require.True(t, ok)

	assert.Equal(t, Number(5), GetProperty(h, handle, "length"))
}

func TestStringLengthPropertyEvenByteLength(t *testing.T) {
	// "ab" is 2 UTF-8 bytes - an even byte length that a buggy decoder
	// reinterpreting UTF-8 bytes as raw UTF-16LE code units would
	// misreport; it must still report 2.
	h := NewHeap(0, 0)
	handle, ok := h.Alloc(NewDynamicString(NoHandle, "ab"))
	require.True(t, ok)

	assert.Equal(t, Number(2), GetProperty(h, handle, "length"))
}

func TestStringLengthPropertyNonBMPIsTwoUnits(t *testing.T) {
	// U+1F600 GRINNING FACE encodes as a UTF-16 surrogate pair: 2 code
	// units even though it's a single rune and 4 UTF-8 bytes.
	h := NewHeap(0, 0)
	handle, ok := h.Alloc(NewDynamicString(NoHandle, "😀"))
	require.True(t, ok)

	assert.Equal(t, Number(2), GetProperty(h, handle, "length"))
}

func TestPrototypeChainLookup(t *testing.T) {
	h := NewHeap(0, 0)
	protoHandle, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)
	h.Get(protoHandle).SetOwnProperty("greeting", NewStringForTest(h, "hi"), DefaultFlags)

	childHandle, ok := h.Alloc(NewPlainObject(protoHandle))
	require.True(t, ok)

	got := GetProperty(h, childHandle, "greeting")
	assert.True(t, got.IsObject())
}

// NewStringForTest is a small test helper allocating a DynamicString Value
// without going through a NativeHost.
func NewStringForTest(h *Heap, s string) Value {
	handle, _ := h.Alloc(NewDynamicString(NoHandle, s))
	return Object(handle)
}

func TestSetPropertyRespectsNonWritable(t *testing.T) {
	h := NewHeap(0, 0)
	handle, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)
	h.Get(handle).SetOwnProperty("frozen", Number(1), FlagEnumerable|FlagConfigurable)

	SetProperty(h, handle, "frozen", Number(2))
	assert.Equal(t, Number(1), GetProperty(h, handle, "frozen"), "non-writable property must reject assignment")
}

func TestDeletePropertyRespectsConfigurable(t *testing.T) {
	h := NewHeap(0, 0)
	handle, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)
	h.Get(handle).SetOwnProperty("fixed", Number(1), DefaultFlags&^FlagConfigurable)
	h.Get(handle).SetOwnProperty("loose", Number(2), DefaultFlags)

	assert.False(t, DeleteProperty(h, handle, "fixed"))
	assert.True(t, DeleteProperty(h, handle, "loose"))
	assert.True(t, GetProperty(h, handle, "loose").IsUndefined())
}
