// Package natives implements the host-provided function catalog exposed to
// script code: console, Date, Math, Object, Array, String, Boolean, and
// parseInt. Every entry is grounded in the ES5 abstract operations (ToNumber,
// ToString) the VM already exposes through value.NativeHost, so a native
// here is never more than coercion-plus-a-Go-stdlib-call.
//
// Install mutates the existing Array/String/Object prototypes in place
// (so `[].push` resolves through the ordinary prototype-chain lookup every
// other property access goes through) and returns the map of top-level
// bindings the VM installs onto the global environment before tenuring.
package natives

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/variadico/lctime"

	"github.com/kristofer/tinyjs/pkg/value"
)

// GlobalNames lists every identifier Install binds at global scope. Compile
// records it as the Program's HeapPrelude; name resolution does not consult
// it, since an undeclared name already resolves to the outermost scope.
func GlobalNames() []string {
	return []string{"console", "parseInt", "parseFloat", "isNaN", "Date", "Math", "Object", "Array", "String", "Boolean"}
}

// Install wires every native method onto host's base prototypes and returns
// the top-level global bindings.
func Install(host value.NativeHost) map[string]value.Value {
	installArrayMethods(host)
	installStringMethods(host)
	installObjectMethods(host)

	globals := make(map[string]value.Value)
	globals["console"] = makeConsole(host)
	globals["parseInt"] = fn(host, "parseInt", nativeParseInt)
	globals["parseFloat"] = fn(host, "parseFloat", nativeParseFloat)
	globals["isNaN"] = fn(host, "isNaN", nativeIsNaN)
	globals["Date"] = makeDateCtor(host)
	globals["Math"] = makeMath(host)
	globals["Object"] = makeObjectCtor(host)
	globals["Array"] = makeArrayCtor(host)
	globals["String"] = makeStringCtor(host)
	globals["Boolean"] = makeBooleanCtor(host)
	return globals
}

// fn is the shared constructor every top-level/free function in this
// package goes through, keeping NewNativeFunction's signature out of every
// call site.
func fn(host value.NativeHost, name string, impl func(value.NativeHost, value.Value, []value.Value) (value.Value, error)) value.Value {
	h, _ := host.Heap().Alloc(value.NewNativeFunction(host.Prototype("Function"), name, impl))
	return value.Object(h)
}

func method(host value.NativeHost, proto value.Handle, name string, impl func(value.NativeHost, value.Value, []value.Value) (value.Value, error)) {
	obj := host.Heap().Get(proto)
	if obj == nil {
		return
	}
	nativeH, _ := host.Heap().Alloc(value.NewNativeFunction(host.Prototype("Function"), name, impl))
	obj.SetOwnProperty(name, value.Object(nativeH), value.FlagWritable|value.FlagConfigurable)
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined()
}

// --- console ---

func makeConsole(host value.NativeHost) value.Value {
	console := host.NewPlainObject()
	logFn := fn(host, "log", nativeConsoleLog)
	if console.IsObject() {
		if obj := host.Heap().Get(console.Handle()); obj != nil {
			obj.SetOwnProperty("log", logFn, value.DefaultFlags)
		}
	}
	return console
}

func nativeConsoleLog(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = host.ToGoString(a)
	}
	fmt.Println(strings.Join(parts, " "))
	return value.Undefined(), nil
}

// --- global functions ---

func nativeParseInt(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	s := strings.TrimSpace(host.ToGoString(arg(args, 0)))
	radix := 10
	if len(args) > 1 {
		if r := int(host.ToNumber(args[1])); r != 0 {
			radix = r
		}
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if radix == 16 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		s = s[2:]
	}
	end := 0
	for end < len(s) && isDigitInRadix(s[end], radix) {
		end++
	}
	if end == 0 {
		return value.Number(math.NaN()), nil
	}
	n, err := strconv.ParseInt(s[:end], radix, 64)
	if err != nil {
		return value.Number(math.NaN()), nil
	}
	if neg {
		n = -n
	}
	return value.Number(float64(n)), nil
}

func isDigitInRadix(c byte, radix int) bool {
	var v int
	switch {
	case c >= '0' && c <= '9':
		v = int(c - '0')
	case c >= 'a' && c <= 'z':
		v = int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		v = int(c-'A') + 10
	default:
		return false
	}
	return v < radix
}

func nativeParseFloat(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	s := strings.TrimSpace(host.ToGoString(arg(args, 0)))
	end := len(s)
	for end > 0 {
		if _, err := strconv.ParseFloat(s[:end], 64); err == nil {
			break
		}
		end--
	}
	if end == 0 {
		return value.Number(math.NaN()), nil
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return value.Number(math.NaN()), nil
	}
	return value.Number(f), nil
}

func nativeIsNaN(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	f := host.ToNumber(arg(args, 0))
	return value.Bool(math.IsNaN(f)), nil
}

// --- Math ---

func makeMath(host value.NativeHost) value.Value {
	m := host.NewPlainObject()
	obj := host.Heap().Get(m.Handle())
	obj.SetOwnProperty("PI", value.Number(math.Pi), value.DefaultFlags)
	obj.SetOwnProperty("floor", fn(host, "floor", func(h value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
		return value.Number(math.Floor(h.ToNumber(arg(args, 0)))), nil
	}), value.DefaultFlags)
	obj.SetOwnProperty("ceil", fn(host, "ceil", func(h value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
		return value.Number(math.Ceil(h.ToNumber(arg(args, 0)))), nil
	}), value.DefaultFlags)
	obj.SetOwnProperty("abs", fn(host, "abs", func(h value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
		return value.Number(math.Abs(h.ToNumber(arg(args, 0)))), nil
	}), value.DefaultFlags)
	obj.SetOwnProperty("max", fn(host, "max", func(h value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Number(math.Inf(-1)), nil
		}
		best := h.ToNumber(args[0])
		for _, a := range args[1:] {
			if n := h.ToNumber(a); n > best {
				best = n
			}
		}
		return value.Number(best), nil
	}), value.DefaultFlags)
	obj.SetOwnProperty("min", fn(host, "min", func(h value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Number(math.Inf(1)), nil
		}
		best := h.ToNumber(args[0])
		for _, a := range args[1:] {
			if n := h.ToNumber(a); n < best {
				best = n
			}
		}
		return value.Number(best), nil
	}), value.DefaultFlags)
	obj.SetOwnProperty("random", fn(host, "random", func(h value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
		return value.Number(pseudoRandom()), nil
	}), value.DefaultFlags)
	return m
}

// pseudoRandom avoids math/rand's global-state seeding ceremony for a
// feature spec §7 treats as best-effort; it is not used for anything
// security sensitive (see randomBytes-style natives, which this module
// deliberately omits - see DESIGN.md).
var randState uint64 = 0x9E3779B97F4A7C15

func pseudoRandom() float64 {
	randState ^= randState << 13
	randState ^= randState >> 7
	randState ^= randState << 17
	return float64(randState>>11) / float64(1<<53)
}

// --- Date ---

func makeDateCtor(host value.NativeHost) value.Value {
	ctor := fn(host, "Date", func(h value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
		return makeDateInstance(h, time.Now()), nil
	})
	ctorObj := host.Heap().Get(ctor.Handle())
	ctorObj.SetOwnProperty("now", fn(host, "now", func(h value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
		return value.Number(float64(time.Now().UnixMilli())), nil
	}), value.DefaultFlags)
	return ctor
}

func makeDateInstance(host value.NativeHost, t time.Time) value.Value {
	inst := host.NewPlainObject()
	obj := host.Heap().Get(inst.Handle())
	obj.SetOwnProperty("__unixMillis", value.Number(float64(t.UnixMilli())), 0)
	obj.SetOwnProperty("getTime", fn(host, "getTime", func(h value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
		return dateField(h, this, "__unixMillis")
	}), value.DefaultFlags)
	// strftime is grounded on the iolang Date object's lctime-based
	// AsString method: the VM never needs its own date-formatting code,
	// it defers to the same library the rest of the ecosystem reaches for.
	obj.SetOwnProperty("strftime", fn(host, "strftime", func(h value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
		ms, err := dateField(h, this, "__unixMillis")
		if err != nil {
			return value.Undefined(), err
		}
		format := "%Y-%m-%d %H:%M:%S"
		if len(args) > 0 {
			format = h.ToGoString(args[0])
		}
		when := time.UnixMilli(int64(ms.Num()))
		return h.NewString(lctime.Strftime(format, when)), nil
	}), value.DefaultFlags)
	return inst
}

func dateField(host value.NativeHost, this value.Value, key string) (value.Value, error) {
	if !this.IsObject() {
		return value.Undefined(), host.Throw("TypeError", "Date method called on non-Date receiver")
	}
	return value.GetProperty(host.Heap(), this.Handle(), key), nil
}
