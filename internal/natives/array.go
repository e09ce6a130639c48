package natives

import (
	"sort"
	"strings"

	"github.com/kristofer/tinyjs/pkg/value"
)

func installArrayMethods(host value.NativeHost) {
	proto := host.Prototype("Array")
	method(host, proto, "push", arrayPush)
	method(host, proto, "pop", arrayPop)
	method(host, proto, "join", arrayJoin)
	method(host, proto, "at", arrayAt)
	method(host, proto, "indexOf", arrayIndexOf)
	method(host, proto, "slice", arraySlice)
	method(host, proto, "reverse", arrayReverse)
	method(host, proto, "forEach", arrayForEach)
	method(host, proto, "map", arrayMap)
	method(host, proto, "filter", arrayFilter)
	method(host, proto, "sort", arraySort)
}

func makeArrayCtor(host value.NativeHost) value.Value {
	return fn(host, "Array", func(h value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
		return h.NewArray(append([]value.Value(nil), args...)), nil
	})
}

func asArray(host value.NativeHost, this value.Value) (*value.Array, bool) {
	if !this.IsObject() {
		return nil, false
	}
	arr, ok := host.Heap().Get(this.Handle()).(*value.Array)
	return arr, ok
}

func arrayPush(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	arr, ok := asArray(host, this)
	if !ok {
		return value.Undefined(), host.Throw("TypeError", "push called on non-array receiver")
	}
	arr.Elements = append(arr.Elements, args...)
	return value.Number(float64(len(arr.Elements))), nil
}

func arrayPop(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	arr, ok := asArray(host, this)
	if !ok {
		return value.Undefined(), host.Throw("TypeError", "pop called on non-array receiver")
	}
	if len(arr.Elements) == 0 {
		return value.Undefined(), nil
	}
	last := arr.Elements[len(arr.Elements)-1]
	arr.Elements = arr.Elements[:len(arr.Elements)-1]
	return last, nil
}

func arrayJoin(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	arr, ok := asArray(host, this)
	if !ok {
		return value.Undefined(), host.Throw("TypeError", "join called on non-array receiver")
	}
	sep := ","
	if len(args) > 0 && !args[0].IsUndefined() {
		sep = host.ToGoString(args[0])
	}
	parts := make([]string, len(arr.Elements))
	for i, el := range arr.Elements {
		if el.IsUndefined() || el.IsNull() {
			parts[i] = ""
			continue
		}
		parts[i] = host.ToGoString(el)
	}
	return host.NewString(strings.Join(parts, sep)), nil
}

func arrayAt(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	arr, ok := asArray(host, this)
	if !ok {
		return value.Undefined(), host.Throw("TypeError", "at called on non-array receiver")
	}
	idx := int(host.ToNumber(arg(args, 0)))
	if idx < 0 {
		idx += len(arr.Elements)
	}
	if idx < 0 || idx >= len(arr.Elements) {
		return value.Undefined(), nil
	}
	return arr.Elements[idx], nil
}

func arrayIndexOf(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	arr, ok := asArray(host, this)
	if !ok {
		return value.Undefined(), host.Throw("TypeError", "indexOf called on non-array receiver")
	}
	target := arg(args, 0)
	for i, el := range arr.Elements {
		if value.StrictEquals(el, target) {
			return value.Number(float64(i)), nil
		}
	}
	return value.Number(-1), nil
}

func arraySlice(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	arr, ok := asArray(host, this)
	if !ok {
		return value.Undefined(), host.Throw("TypeError", "slice called on non-array receiver")
	}
	n := len(arr.Elements)
	start, end := 0, n
	if len(args) > 0 {
		start = clampIndex(int(host.ToNumber(args[0])), n)
	}
	if len(args) > 1 {
		end = clampIndex(int(host.ToNumber(args[1])), n)
	}
	if start > end {
		start = end
	}
	out := make([]value.Value, end-start)
	copy(out, arr.Elements[start:end])
	return host.NewArray(out), nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func arrayReverse(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	arr, ok := asArray(host, this)
	if !ok {
		return value.Undefined(), host.Throw("TypeError", "reverse called on non-array receiver")
	}
	for i, j := 0, len(arr.Elements)-1; i < j; i, j = i+1, j-1 {
		arr.Elements[i], arr.Elements[j] = arr.Elements[j], arr.Elements[i]
	}
	return this, nil
}

func arrayForEach(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	arr, ok := asArray(host, this)
	if !ok {
		return value.Undefined(), host.Throw("TypeError", "forEach called on non-array receiver")
	}
	callback := arg(args, 0)
	for i, el := range arr.Elements {
		if _, err := host.Call(callback, value.Undefined(), []value.Value{el, value.Number(float64(i)), this}); err != nil {
			return value.Undefined(), err
		}
	}
	return value.Undefined(), nil
}

func arrayMap(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	arr, ok := asArray(host, this)
	if !ok {
		return value.Undefined(), host.Throw("TypeError", "map called on non-array receiver")
	}
	callback := arg(args, 0)
	out := make([]value.Value, len(arr.Elements))
	for i, el := range arr.Elements {
		r, err := host.Call(callback, value.Undefined(), []value.Value{el, value.Number(float64(i)), this})
		if err != nil {
			return value.Undefined(), err
		}
		out[i] = r
	}
	return host.NewArray(out), nil
}

func arrayFilter(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	arr, ok := asArray(host, this)
	if !ok {
		return value.Undefined(), host.Throw("TypeError", "filter called on non-array receiver")
	}
	callback := arg(args, 0)
	var out []value.Value
	for i, el := range arr.Elements {
		r, err := host.Call(callback, value.Undefined(), []value.Value{el, value.Number(float64(i)), this})
		if err != nil {
			return value.Undefined(), err
		}
		if r.Truthy() {
			out = append(out, el)
		}
	}
	return host.NewArray(out), nil
}

func arraySort(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	arr, ok := asArray(host, this)
	if !ok {
		return value.Undefined(), host.Throw("TypeError", "sort called on non-array receiver")
	}
	cmp := arg(args, 0)
	var sortErr error
	sort.SliceStable(arr.Elements, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		if cmp.IsUndefined() {
			return host.ToGoString(arr.Elements[i]) < host.ToGoString(arr.Elements[j])
		}
		r, err := host.Call(cmp, value.Undefined(), []value.Value{arr.Elements[i], arr.Elements[j]})
		if err != nil {
			sortErr = err
			return false
		}
		return host.ToNumber(r) < 0
	})
	if sortErr != nil {
		return value.Undefined(), sortErr
	}
	return this, nil
}
