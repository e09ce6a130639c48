package natives

import (
	"errors"

	"github.com/kristofer/tinyjs/pkg/value"
)

func installObjectMethods(host value.NativeHost) {
	proto := host.Prototype("Object")
	method(host, proto, "hasOwnProperty", objectHasOwnProperty)
	method(host, proto, "toString", objectToString)
	method(host, proto, "clone", objectClone)
}

// objectClone implements the `clone` responsibility the object model names
// for every concrete kind: a shallow copy of `this` (own properties, and
// Elements for an array) sharing the original's prototype, allocated as a
// new heap object.
func objectClone(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	if !this.IsObject() {
		return this, nil
	}
	obj := host.Heap().Get(this.Handle())
	if obj == nil {
		return value.Undefined(), nil
	}
	h, ok := host.Heap().Alloc(obj.Clone())
	if !ok {
		return value.Undefined(), host.Throw("Error", "heap exhausted")
	}
	return value.Object(h), nil
}

func makeObjectCtor(host value.NativeHost) value.Value {
	ctor := fn(host, "Object", func(h value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) > 0 && args[0].IsObject() {
			return args[0], nil
		}
		return h.NewPlainObject(), nil
	})
	ctorObj := host.Heap().Get(ctor.Handle())
	ctorObj.SetOwnProperty("keys", fn(host, "keys", objectKeys), value.DefaultFlags)
	ctorObj.SetOwnProperty("create", fn(host, "create", objectCreate), value.DefaultFlags)
	ctorObj.SetOwnProperty("freeze", fn(host, "freeze", objectFreeze), value.DefaultFlags)
	ctorObj.SetOwnProperty("isExtensible", fn(host, "isExtensible", objectIsExtensible), value.DefaultFlags)
	return ctor
}

// objectFreeze implements Object.freeze(obj): recursively marks obj and
// every object reachable through its own properties (including array
// elements) non-extensible with every property non-writable, per spec's
// freeze rule, and returns obj unchanged so `Object.freeze(x) === x` holds
// like the real Object.freeze.
func objectFreeze(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	target := arg(args, 0)
	if !target.IsObject() {
		return target, nil
	}
	value.RecursiveFreeze(host.Heap(), target.Handle())
	return target, nil
}

func objectIsExtensible(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	target := arg(args, 0)
	if !target.IsObject() {
		return value.Bool(false), nil
	}
	obj := host.Heap().Get(target.Handle())
	if obj == nil {
		return value.Bool(false), nil
	}
	return value.Bool(obj.IsExtensible()), nil
}

// objectCreate implements the single-argument form of Object.create: a
// fresh object whose prototype is the argument (or no prototype, for
// `Object.create(null)`), matching ES5's [[Prototype]]-only contract - the
// property-descriptor second argument is ignored.
func objectCreate(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	protoArg := arg(args, 0)
	proto := value.NoHandle
	if protoArg.IsObject() {
		proto = protoArg.Handle()
	}
	h, ok := host.Heap().Alloc(value.NewPlainObject(proto))
	if !ok {
		return value.Undefined(), host.Throw("Error", "heap exhausted")
	}
	return value.Object(h), nil
}

func objectKeys(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	target := arg(args, 0)
	if !target.IsObject() {
		return host.NewArray(nil), nil
	}
	obj := host.Heap().Get(target.Handle())
	if obj == nil {
		return host.NewArray(nil), nil
	}
	var keys []string
	if arr, ok := obj.(*value.Array); ok {
		for i := range arr.Elements {
			keys = append(keys, itoa(i))
		}
	}
	keys = append(keys, obj.OwnKeys()...)
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		out[i] = host.NewString(k)
	}
	return host.NewArray(out), nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func objectHasOwnProperty(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	if !this.IsObject() {
		return value.Bool(false), nil
	}
	obj := host.Heap().Get(this.Handle())
	if obj == nil {
		return value.Bool(false), nil
	}
	key := host.ToGoString(arg(args, 0))
	if arr, ok := obj.(*value.Array); ok {
		if key == "length" {
			return value.Bool(true), nil
		}
		if idx, err := parseArrayIndex(key); err == nil && idx >= 0 && idx < len(arr.Elements) {
			return value.Bool(true), nil
		}
	}
	_, ok := obj.OwnProperty(key)
	return value.Bool(ok), nil
}

func parseArrayIndex(key string) (int, error) {
	if len(key) == 0 {
		return 0, errNotIndex
	}
	n := 0
	for _, c := range key {
		if c < '0' || c > '9' {
			return 0, errNotIndex
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

var errNotIndex = errors.New("key is not an array index")

func objectToString(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	return host.NewString(host.ToGoString(this)), nil
}

func makeBooleanCtor(host value.NativeHost) value.Value {
	return fn(host, "Boolean", func(h value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(arg(args, 0).Truthy()), nil
	})
}
