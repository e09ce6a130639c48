package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExtensibleDefaultsTrue(t *testing.T) {
	obj := NewPlainObject(NoHandle)
	assert.True(t, obj.IsExtensible())
}

func TestFreezeMakesOwnPropertiesNonWritableAndNonConfigurable(t *testing.T) {
	h := NewHeap(0, 0)
	handle, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)
	obj := h.Get(handle)
	obj.SetOwnProperty("x", Number(1), DefaultFlags)

	obj.Freeze()

	assert.False(t, obj.IsExtensible())
	d, ok := obj.OwnProperty("x")
	require.True(t, ok)
	assert.Equal(t, PropertyFlags(0), d.Flags&FlagWritable)
	assert.Equal(t, PropertyFlags(0), d.Flags&FlagConfigurable)
	assert.NotEqual(t, PropertyFlags(0), d.Flags&FlagParentFrozen)

	SetProperty(h, handle, "x", Number(2))
	assert.Equal(t, Number(1), GetProperty(h, handle, "x"), "frozen property must reject assignment")
	assert.False(t, DeleteProperty(h, handle, "x"), "frozen property must reject deletion")
}

func TestFreezeBlocksNewOwnProperties(t *testing.T) {
	h := NewHeap(0, 0)
	handle, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)
	obj := h.Get(handle)
	obj.Freeze()

	SetProperty(h, handle, "y", Number(1))
	assert.True(t, GetProperty(h, handle, "y").IsUndefined(), "a frozen object must reject new properties")
}

func TestFreezeBlocksArrayElementMutation(t *testing.T) {
	h := NewHeap(0, 0)
	handle, ok := h.Alloc(NewArray(NoHandle, []Value{Number(1), Number(2)}))
	require.True(t, ok)
	h.Get(handle).Freeze()

	SetProperty(h, handle, "0", Number(99))
	assert.Equal(t, Number(1), GetProperty(h, handle, "0"), "frozen array elements must not be mutable")

	SetProperty(h, handle, "length", Number(5))
	assert.Equal(t, Number(2), GetProperty(h, handle, "length"), "frozen array length must not be mutable")
}

func TestRecursiveFreezeReachesNestedObjects(t *testing.T) {
	h := NewHeap(0, 0)
	childHandle, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)
	parentHandle, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)
	h.Get(parentHandle).SetOwnProperty("child", Object(childHandle), DefaultFlags)

	RecursiveFreeze(h, parentHandle)

	assert.False(t, h.Get(parentHandle).IsExtensible())
	assert.False(t, h.Get(childHandle).IsExtensible(), "freeze must reach objects held only through a property value")
}

func TestRecursiveFreezeReachesArrayElements(t *testing.T) {
	h := NewHeap(0, 0)
	itemHandle, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)
	arrHandle, ok := h.Alloc(NewArray(NoHandle, []Value{Object(itemHandle)}))
	require.True(t, ok)

	RecursiveFreeze(h, arrHandle)

	assert.False(t, h.Get(itemHandle).IsExtensible(), "freeze must reach objects held only as array elements")
}

func TestRecursiveFreezeToleratesCycles(t *testing.T) {
	h := NewHeap(0, 0)
	aHandle, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)
	bHandle, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)
	h.Get(aHandle).SetOwnProperty("b", Object(bHandle), DefaultFlags)
	h.Get(bHandle).SetOwnProperty("a", Object(aHandle), DefaultFlags)

	assert.NotPanics(t, func() { RecursiveFreeze(h, aHandle) })
	assert.False(t, h.Get(aHandle).IsExtensible())
	assert.False(t, h.Get(bHandle).IsExtensible())
}

func TestCloneCopiesOwnPropertiesIndependently(t *testing.T) {
	h := NewHeap(0, 0)
	handle, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)
	original := h.Get(handle)
	original.SetOwnProperty("x", Number(1), DefaultFlags)

	clone := original.Clone()
	cloneHandle, ok := h.Alloc(clone)
	require.True(t, ok)

	SetProperty(h, handle, "x", Number(2))
	assert.Equal(t, Number(2), GetProperty(h, handle, "x"))
	assert.Equal(t, Number(1), GetProperty(h, cloneHandle, "x"), "clone must not share the original's property storage")
}

func TestCloneArrayCopiesElementsIndependently(t *testing.T) {
	h := NewHeap(0, 0)
	handle, ok := h.Alloc(NewArray(NoHandle, []Value{Number(1), Number(2)}))
	require.True(t, ok)

	clone := h.Get(handle).Clone()
	cloneHandle, ok := h.Alloc(clone)
	require.True(t, ok)

	SetProperty(h, handle, "0", Number(99))
	assert.Equal(t, Number(99), GetProperty(h, handle, "0"))
	assert.Equal(t, Number(1), GetProperty(h, cloneHandle, "0"), "clone must not share the original's element slice")
}
