package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"undefined", Undefined(), false},
		{"null", Null(), false},
		{"zero", Number(0), false},
		{"nan", Number(nan()), false},
		{"nonzero", Number(1), true},
		{"negative", Number(-1), true},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"object", Object(Handle{Index: 0}), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.v.Truthy())
		})
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestStrictEquals(t *testing.T) {
	h1 := Handle{Index: 1}
	h2 := Handle{Index: 2}

	assert.True(t, StrictEquals(Undefined(), Undefined()))
	assert.True(t, StrictEquals(Null(), Null()))
	assert.False(t, StrictEquals(Undefined(), Null()))
	assert.True(t, StrictEquals(Number(3), Number(3)))
	assert.False(t, StrictEquals(Number(3), Number(4)))
	assert.True(t, StrictEquals(Bool(true), Bool(true)))
	assert.False(t, StrictEquals(Bool(true), Bool(false)))
	assert.True(t, StrictEquals(Object(h1), Object(h1)))
	assert.False(t, StrictEquals(Object(h1), Object(h2)))
	assert.False(t, StrictEquals(Number(0), Bool(false)))
}

func TestTypeName(t *testing.T) {
	h := NewHeap(0, 0)
	objHandle, ok := h.Alloc(NewPlainObject(NoHandle))
	assert.True(t, ok)
	fnHandle, ok := h.Alloc(NewNativeFunction(NoHandle, "f", nil))
	assert.True(t, ok)

	assert.Equal(t, "undefined", Undefined().TypeName(h))
	assert.Equal(t, "object", Null().TypeName(h))
	assert.Equal(t, "number", Number(1).TypeName(h))
	assert.Equal(t, "boolean", Bool(true).TypeName(h))
	assert.Equal(t, "object", Object(objHandle).TypeName(h))
	assert.Equal(t, "function", Object(fnHandle).TypeName(h))
}
