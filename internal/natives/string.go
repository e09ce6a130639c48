package natives

import (
	"strings"

	"github.com/kristofer/tinyjs/pkg/value"
)

func installStringMethods(host value.NativeHost) {
	proto := host.Prototype("String")
	method(host, proto, "toUpperCase", stringToUpperCase)
	method(host, proto, "toLowerCase", stringToLowerCase)
	method(host, proto, "charAt", stringCharAt)
	method(host, proto, "indexOf", stringIndexOf)
	method(host, proto, "slice", stringSlice)
	method(host, proto, "split", stringSplit)
	method(host, proto, "trim", stringTrim)
	method(host, proto, "includes", stringIncludes)
}

func makeStringCtor(host value.NativeHost) value.Value {
	return fn(host, "String", func(h value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return h.NewString(""), nil
		}
		return h.NewString(h.ToGoString(args[0])), nil
	})
}

// asGoString accepts either a DynamicString receiver or coerces any other
// receiver through ToGoString, matching ES5's lenient String.prototype
// method dispatch (a non-string receiver is converted, not rejected).
func asGoString(host value.NativeHost, this value.Value) string {
	return host.ToGoString(this)
}

func stringToUpperCase(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	return host.NewString(strings.ToUpper(asGoString(host, this))), nil
}

func stringToLowerCase(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	return host.NewString(strings.ToLower(asGoString(host, this))), nil
}

func stringCharAt(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	units := []rune(asGoString(host, this))
	idx := int(host.ToNumber(arg(args, 0)))
	if idx < 0 || idx >= len(units) {
		return host.NewString(""), nil
	}
	return host.NewString(string(units[idx])), nil
}

func stringIndexOf(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	s := asGoString(host, this)
	sub := host.ToGoString(arg(args, 0))
	return value.Number(float64(strings.Index(s, sub))), nil
}

func stringSlice(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	units := []rune(asGoString(host, this))
	n := len(units)
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
	return host.NewString(string(units[start:end])), nil
}

func stringSplit(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	s := asGoString(host, this)
	if len(args) == 0 || args[0].IsUndefined() {
		return host.NewArray([]value.Value{host.NewString(s)}), nil
	}
	sep := host.ToGoString(args[0])
	var parts []string
	if sep == "" {
		for _, r := range s {
			parts = append(parts, string(r))
		}
	} else {
		parts = strings.Split(s, sep)
	}
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = host.NewString(p)
	}
	return host.NewArray(out), nil
}

func stringTrim(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	return host.NewString(strings.TrimSpace(asGoString(host, this))), nil
}

func stringIncludes(host value.NativeHost, this value.Value, args []value.Value) (value.Value, error) {
	return value.Bool(strings.Contains(asGoString(host, this), host.ToGoString(arg(args, 0)))), nil
}
