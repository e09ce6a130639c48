package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapAllocAndGet(t *testing.T) {
	h := NewHeap(0, 0)
	handle, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)

	obj := h.Get(handle)
	require.NotNil(t, obj)
	_, isPlain := obj.(*PlainObject)
	assert.True(t, isPlain)
}

func TestHeapGetStaleHandle(t *testing.T) {
	h := NewHeap(0, 0)
	handle, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)

	h.Collect(Roots{})
	assert.Nil(t, h.Get(handle), "handle into a freed slot must not resolve")
}

func TestHeapCapacityBound(t *testing.T) {
	h := NewHeap(0, 1)
	_, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)

	_, ok = h.Alloc(NewPlainObject(NoHandle))
	assert.False(t, ok, "second alloc past capacity 1 must fail")
}

func TestHeapFreelistReuse(t *testing.T) {
	h := NewHeap(0, 0)
	first, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)

	h.Collect(Roots{}) // nothing rooted, first is swept
	second, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)

	assert.Equal(t, first.Index, second.Index, "freed slot should be reused by index")
	assert.NotEqual(t, first.Gen, second.Gen, "reused slot must bump its generation")
}

func TestHeapTenureProtectsFromCollection(t *testing.T) {
	h := NewHeap(0, 0)
	handle, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)
	h.Tenure()

	h.Collect(Roots{})
	assert.NotNil(t, h.Get(handle), "tenured slot must survive a collection with no other roots")
}

func TestCollectKeepsReachableObjects(t *testing.T) {
	h := NewHeap(0, 0)
	childHandle, ok := h.Alloc(NewDynamicString(NoHandle, "hi"))
	require.True(t, ok)
	parentHandle, ok := h.Alloc(NewPlainObject(NoHandle))
	require.True(t, ok)
	h.Get(parentHandle).SetOwnProperty("child", Object(childHandle), DefaultFlags)

	h.Collect(Roots{Stack: []Value{Object(parentHandle)}})

	assert.NotNil(t, h.Get(parentHandle))
	assert.NotNil(t, h.Get(childHandle), "child reachable only through a property must survive")
}
