package vm

import (
	"math"
	"strconv"
	"strings"

	"github.com/kristofer/tinyjs/pkg/value"
)

// toNumber implements the ES5 ToNumber coercion the numify/arithmetic
// opcodes need: numbers pass through, booleans become 0/1, null becomes 0,
// undefined becomes NaN, strings parse (empty/whitespace-only parses to
// 0), and objects without a usable primitive become NaN.
func (vm *VM) toNumber(v value.Value) float64 {
	switch v.Kind() {
	case value.KindNumber:
		return v.Num()
	case value.KindBool:
		if v.Bool_() {
			return 1
		}
		return 0
	case value.KindNull:
		return 0
	case value.KindUndefined:
		return math.NaN()
	case value.KindObject:
		obj := vm.heap.Get(v.Handle())
		if s, ok := obj.(*value.DynamicString); ok {
			return stringToNumber(s.Value)
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

func stringToNumber(s string) float64 {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// toGoString implements the ES5 ToString coercion strcat and computed
// member keys need.
func (vm *VM) toGoString(v value.Value) string {
	switch v.Kind() {
	case value.KindUndefined:
		return "undefined"
	case value.KindNull:
		return "null"
	case value.KindBool:
		if v.Bool_() {
			return "true"
		}
		return "false"
	case value.KindNumber:
		return formatNumber(v.Num())
	case value.KindObject:
		obj := vm.heap.Get(v.Handle())
		switch o := obj.(type) {
		case *value.DynamicString:
			return o.Value
		case *value.Array:
			parts := make([]string, len(o.Elements))
			for i, el := range o.Elements {
				if el.IsUndefined() || el.IsNull() {
					parts[i] = ""
					continue
				}
				parts[i] = vm.toGoString(el)
			}
			return strings.Join(parts, ",")
		case *value.NativeFunction:
			return "function " + o.Name + "() { [native code] }"
		case *value.Lambda:
			return "function " + o.Name + "() { ... }"
		case *value.Error:
			if o.Message == "" {
				return o.Name
			}
			return o.Name + ": " + o.Message
		default:
			return "[object Object]"
		}
	default:
		return "undefined"
	}
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// newString allocates a heap DynamicString and returns it boxed as a
// Value, the path every string-producing opcode goes through. Allocation
// failure degrades to undefined rather than a panic; the calling opcodes
// (strcat, add, typename) push that undefined and raise no status for the
// full heap.
func (vm *VM) newString(s string) value.Value {
	h, ok := vm.heap.Alloc(value.NewDynamicString(vm.stringProto, s))
	if !ok {
		return value.Undefined()
	}
	return value.Object(h)
}
