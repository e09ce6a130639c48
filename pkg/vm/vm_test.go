package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/tinyjs/pkg/compiler"
	"github.com/kristofer/tinyjs/pkg/parser"
	"github.com/kristofer/tinyjs/pkg/value"
)

func compileAndRun(t *testing.T, src string) (value.Value, Status, error) {
	t.Helper()
	p := parser.New(1, "<test>", src)
	prog, err := p.Parse()
	require.NoError(t, err, "parse errors: %v", p.Errors())

	bc, err := compiler.Compile("<test>", prog, nil)
	require.NoError(t, err)

	machine := New(DefaultOptions())
	return machine.Run(bc, nil)
}

func TestNumberLiteral(t *testing.T) {
	result, status, err := compileAndRun(t, "42;")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, float64(42), result.Num())
}

func TestStringConcatViaAdd(t *testing.T) {
	result, status, err := compileAndRun(t, `"foo" + "bar";`)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
	assert.True(t, result.IsObject())
}

func TestArithmeticPrecedence(t *testing.T) {
	result, _, err := compileAndRun(t, "2 + 3 * 4;")
	require.NoError(t, err)
	assert.Equal(t, float64(14), result.Num())
}

func TestDivisionByZeroIsNaN(t *testing.T) {
	result, _, err := compileAndRun(t, "1 / 0;")
	require.NoError(t, err)
	assert.True(t, result.Num() != result.Num())
}

func TestStackDisciplineAcrossStatements(t *testing.T) {
	// Every statement must leave the operand stack exactly as it found
	// it; a long run of discarded expression statements followed by a
	// final expression exercises that invariant.
	result, status, err := compileAndRun(t, `
		1 + 1;
		2 + 2;
		3 + 3;
		99;
	`)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, float64(99), result.Num())
}

func TestClosureCapturesOuterVariable(t *testing.T) {
	result, _, err := compileAndRun(t, `
		function makeCounter() {
			var count = 0;
			return function() {
				count = count + 1;
				return count;
			};
		}
		var counter = makeCounter();
		counter();
		counter();
		counter();
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(3), result.Num())
}

func TestHoistingAllowsForwardReference(t *testing.T) {
	result, _, err := compileAndRun(t, `
		var r = later();
		function later() {
			return 7;
		}
		r;
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(7), result.Num())
}

func TestStrictEqualityIsStructuralForArrays(t *testing.T) {
	result, _, err := compileAndRun(t, `[1, 2, 3] === [1, 2, 3];`)
	require.NoError(t, err)
	assert.True(t, result.Bool_())
}

func TestStrictEqualityRejectsTypeMismatch(t *testing.T) {
	result, _, err := compileAndRun(t, `0 === false;`)
	require.NoError(t, err)
	assert.False(t, result.Bool_())
}

func TestConstructorDefaultsThisWhenBodyReturnsNonObject(t *testing.T) {
	result, _, err := compileAndRun(t, `
		function Point(x) {
			this.x = x;
			return 5;
		}
		var p = new Point(3);
		p.x;
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(3), result.Num())
}

func TestUncaughtExceptionReportsUnhandledStatus(t *testing.T) {
	_, status, err := compileAndRun(t, `throw "nope";`)
	require.Error(t, err)
	assert.Equal(t, StatusUnhandledException, status)
}

func TestCallDepthCapPreventsRunawayRecursion(t *testing.T) {
	p := parser.New(1, "<test>", `
		function loop() {
			return loop();
		}
		loop();
	`)
	prog, err := p.Parse()
	require.NoError(t, err)
	bc, err := compiler.Compile("<test>", prog, nil)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.CallDepthCap = 16
	machine := New(opts)
	_, status, err := machine.Run(bc, nil)
	require.Error(t, err)
	assert.Equal(t, StatusFuncErr, status)
}
