// Package test provides end-to-end integration tests that drive the full
// lexer -> parser -> compiler -> VM pipeline against source text, the same
// way the teacher's test/integration_test.go exercises smog.
package test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/tinyjs/internal/natives"
	"github.com/kristofer/tinyjs/pkg/compiler"
	"github.com/kristofer/tinyjs/pkg/parser"
	"github.com/kristofer/tinyjs/pkg/value"
	"github.com/kristofer/tinyjs/pkg/vm"
)

// run compiles and executes src against a fresh VM with the standard
// natives catalog installed, returning the entry function's result.
func run(t *testing.T, src string) (value.Value, vm.Status, error) {
	t.Helper()
	p := parser.New(1, "<test>", src)
	prog, err := p.Parse()
	require.NoError(t, err, "parse error, parser errors: %v", p.Errors())

	machine := vm.New(vm.DefaultOptions())
	globals := natives.Install(machine)
	bc, err := compiler.Compile("<test>", prog, natives.GlobalNames())
	require.NoError(t, err, "compile error")

	result, status, runErr := machine.Run(bc, globals)
	return result, status, runErr
}

func TestGaussianSum(t *testing.T) {
	src := `
	function s(n) {
		var total = 0;
		for (var i = 1; i <= n; i = i + 1) {
			total = total + i;
		}
		return total;
	}
	s(10);
	`
	result, status, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, vm.StatusOK, status)
	assert.Equal(t, float64(55), result.Num())
}

func TestRecursiveFibonacci(t *testing.T) {
	src := `
	function f(n) {
		if (n < 2) {
			return n;
		}
		return f(n - 1) + f(n - 2);
	}
	f(30);
	`
	result, status, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, vm.StatusOK, status)
	assert.Equal(t, float64(832040), result.Num())
}

func TestParseIntRoundTrip(t *testing.T) {
	src := `parseInt("15") + parseInt("69");`
	result, status, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, vm.StatusOK, status)
	assert.Equal(t, float64(84), result.Num())

	src = `parseInt("foo");`
	result, status, err = run(t, src)
	require.NoError(t, err)
	assert.Equal(t, vm.StatusOK, status)
	assert.True(t, result.Num() != result.Num(), "parseInt of a non-numeric string must be NaN")
}

func TestObjectAndMethod(t *testing.T) {
	src := `
	var o = {
		x: 1,
		inc: function() {
			this.x = this.x + 1;
			return this.x;
		}
	};
	o.inc();
	o.inc();
	`
	result, status, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, vm.StatusOK, status)
	assert.Equal(t, float64(3), result.Num())
}

func TestArrayPushJoin(t *testing.T) {
	src := `
	var a = [];
	a.push(1);
	a.push(2);
	a.push(3);
	a.push(4);
	a.join("-");
	`
	machine := vm.New(vm.DefaultOptions())
	globals := natives.Install(machine)
	p := parser.New(1, "<test>", src)
	prog, err := p.Parse()
	require.NoError(t, err)
	bc, err := compiler.Compile("<test>", prog, natives.GlobalNames())
	require.NoError(t, err)
	result, status, err := machine.Run(bc, globals)
	require.NoError(t, err)
	assert.Equal(t, vm.StatusOK, status)
	assert.Equal(t, "1-2-3-4", machine.ToGoString(result))
}

func TestTryThrowCatchHandled(t *testing.T) {
	src := `
	var caught = "";
	try {
		throw "boom";
	} catch (e) {
		caught = e;
	}
	caught;
	`
	machine := vm.New(vm.DefaultOptions())
	globals := natives.Install(machine)
	p := parser.New(1, "<test>", src)
	prog, err := p.Parse()
	require.NoError(t, err)
	bc, err := compiler.Compile("<test>", prog, natives.GlobalNames())
	require.NoError(t, err)
	result, status, err := machine.Run(bc, globals)
	require.NoError(t, err)
	assert.Equal(t, vm.StatusOK, status)
	assert.Equal(t, "boom", machine.ToGoString(result))
}

func TestUncaughtThrowHalts(t *testing.T) {
	src := `throw 1;`
	_, status, err := run(t, src)
	require.Error(t, err)
	assert.Equal(t, vm.StatusUnhandledException, status)
}

func TestObjectFreezeRejectsWritesAndNewProperties(t *testing.T) {
	src := `
	var o = { x: 1 };
	Object.freeze(o);
	o.x = 2;
	o.y = 3;
	Object.isExtensible(o);
	`
	result, status, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, vm.StatusOK, status)
	assert.False(t, result.Bool_(), "a frozen object must report not extensible")

	src = `
	var o = { x: 1 };
	Object.freeze(o);
	o.x = 2;
	o.x;
	`
	result, status, err = run(t, src)
	require.NoError(t, err)
	assert.Equal(t, vm.StatusOK, status)
	assert.Equal(t, float64(1), result.Num(), "writes to a frozen object's property must be dropped")
}

func TestObjectFreezeIsRecursive(t *testing.T) {
	src := `
	var inner = { y: 1 };
	var outer = { inner: inner };
	Object.freeze(outer);
	inner.y = 2;
	inner.y;
	`
	result, status, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, vm.StatusOK, status)
	assert.Equal(t, float64(1), result.Num(), "freezing an object must freeze objects reachable through its properties")
}

func TestObjectCloneIsIndependentCopy(t *testing.T) {
	src := `
	var o = { x: 1 };
	var c = o.clone();
	c.x = 99;
	o.x;
	`
	result, status, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, vm.StatusOK, status)
	assert.Equal(t, float64(1), result.Num(), "mutating a clone must not affect the original")
}
