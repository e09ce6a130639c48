package value

import "strconv"

// GetProperty resolves key on the object handle denotes, walking the
// prototype chain. Array numeric indices are special-cased onto Elements
// before falling back to the property bag, and "length" is synthesized for
// arrays and strings rather than stored.
func GetProperty(h *Heap, handle Handle, key string) Value {
	cur := handle
	for cur != NoHandle {
		obj := h.Get(cur)
		if obj == nil {
			return Undefined()
		}
		switch o := obj.(type) {
		case *Array:
			if key == "length" {
				return Int(int32(len(o.Elements)))
			}
			if idx, ok := arrayIndex(key); ok {
				if idx >= 0 && idx < len(o.Elements) {
					return o.Elements[idx]
				}
				return Undefined()
			}
		case *DynamicString:
			if key == "length" {
				n, _ := DecodeUTF16Units(o.Value)
				return Int(int32(n))
			}
		}
		if d, ok := obj.OwnProperty(key); ok {
			return d.Value
		}
		cur = obj.Proto()
	}
	return Undefined()
}

// SetProperty stores key as an own property of handle's object (ES5
// assignment never writes through the prototype chain), special-casing
// array index/length writes onto Elements.
func SetProperty(h *Heap, handle Handle, key string, v Value) {
	obj := h.Get(handle)
	if obj == nil {
		return
	}
	if arr, ok := obj.(*Array); ok {
		if !arr.IsExtensible() {
			return
		}
		if key == "length" {
			newLen := int(v.Num())
			if newLen < len(arr.Elements) {
				arr.Elements = arr.Elements[:newLen]
			} else {
				for len(arr.Elements) < newLen {
					arr.Elements = append(arr.Elements, Undefined())
				}
			}
			return
		}
		if idx, ok := arrayIndex(key); ok {
			for len(arr.Elements) <= idx {
				arr.Elements = append(arr.Elements, Undefined())
			}
			arr.Elements[idx] = v
			return
		}
	}
	if existing, ok := obj.OwnProperty(key); ok {
		if existing.Flags&FlagWritable == 0 {
			return
		}
		obj.SetOwnProperty(key, v, existing.Flags)
		return
	}
	obj.SetOwnProperty(key, v, DefaultFlags)
}

// DeleteProperty removes key as an own property, per the `delete` opcode.
func DeleteProperty(h *Heap, handle Handle, key string) bool {
	obj := h.Get(handle)
	if obj == nil {
		return false
	}
	return obj.DeleteOwnProperty(key)
}

// RecursiveFreeze freezes handle's object and, transitively, every object
// reachable through its own property values (and, for arrays, its
// elements) - the "recursively sets parent-frozen, clearing writability on
// every reachable property descriptor" rule. visited guards against
// freezing the same object twice when the property graph cycles back on
// itself (e.g. an object that holds a reference to an ancestor).
func RecursiveFreeze(h *Heap, handle Handle) {
	recursiveFreeze(h, handle, make(map[Handle]bool))
}

func recursiveFreeze(h *Heap, handle Handle, visited map[Handle]bool) {
	if handle == NoHandle || visited[handle] {
		return
	}
	obj := h.Get(handle)
	if obj == nil {
		return
	}
	visited[handle] = true
	obj.Freeze()

	if arr, ok := obj.(*Array); ok {
		for _, v := range arr.Elements {
			if v.IsObject() {
				recursiveFreeze(h, v.Handle(), visited)
			}
		}
	}
	// Walk every own key regardless of enumerability: a frozen object must
	// freeze every reachable property, not just the ones Object.keys sees.
	for _, key := range allOwnKeys(obj) {
		d, ok := obj.OwnProperty(key)
		if ok && d.Value.IsObject() {
			recursiveFreeze(h, d.Value.Handle(), visited)
		}
	}
}

func allOwnKeys(obj Object) []string {
	b, ok := obj.(interface{ allKeys() []string })
	if !ok {
		return obj.OwnKeys()
	}
	return b.allKeys()
}

func arrayIndex(key string) (int, bool) {
	n, err := strconv.Atoi(key)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
