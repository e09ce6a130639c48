package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/tinyjs/pkg/bytecode"
	"github.com/kristofer/tinyjs/pkg/parser"
)

func compileSrc(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	p := parser.New(1, "<test>", src)
	prog, err := p.Parse()
	require.NoError(t, err, "parser errors: %v", p.Errors())
	bc, err := Compile("<test>", prog, nil)
	require.NoError(t, err)
	return bc
}

func TestCompileEntryFunctionExists(t *testing.T) {
	bc := compileSrc(t, `1 + 1;`)
	require.True(t, bc.EntryIndex >= 0 && bc.EntryIndex < len(bc.Functions))
	entry := bc.Functions[bc.EntryIndex]
	assert.NotEmpty(t, entry.Code)
	assert.Equal(t, bytecode.Ret, entry.Code[len(entry.Code)-1].Op)
}

func TestCompileConstantPoolDedupesStringsAndNumbers(t *testing.T) {
	bc := compileSrc(t, `"dup"; "dup"; 5; 5;`)
	seen := map[interface{}]int{}
	for _, c := range bc.Consts {
		switch c.(type) {
		case string, float64:
			seen[c]++
		}
	}
	for v, n := range seen {
		assert.Equalf(t, 1, n, "constant %v should appear exactly once in the pool", v)
	}
}

func TestCompileNestedFunctionGetsOwnProto(t *testing.T) {
	bc := compileSrc(t, `
		function outer() {
			function inner() {
				return 1;
			}
			return inner();
		}
		outer();
	`)
	var names []string
	for _, fn := range bc.Functions {
		names = append(names, fn.Name)
	}
	assert.Contains(t, names, "outer")
	assert.Contains(t, names, "inner")
}

func TestCompileTryCatchEmitsTryRegion(t *testing.T) {
	bc := compileSrc(t, `
		try {
			throw 1;
		} catch (e) {
			e;
		}
	`)
	entry := bc.Functions[bc.EntryIndex]
	require.Len(t, entry.TryRegions, 1)
	region := entry.TryRegions[0]
	assert.True(t, region.Start < region.End)
	assert.True(t, region.CatchStart >= region.End, "catch handler must start at or after the guarded region")
}

func TestCompileForOmitsNopForMissingClauses(t *testing.T) {
	bc := compileSrc(t, `
		var i = 0;
		for (;;) {
			i = i + 1;
			if (i >= 3) {
				break;
			}
		}
		i;
	`)
	entry := bc.Functions[bc.EntryIndex]
	for _, inst := range entry.Code {
		assert.NotEqual(t, bytecode.Nop, inst.Op, "a for loop with every clause omitted must not emit a nop placeholder")
	}
}

func TestCompileUndeclaredIdentifierResolvesAsGlobal(t *testing.T) {
	bc := compileSrc(t, `
		function f() {
			return globalThing;
		}
	`)
	var f bytecode.FunctionProto
	for _, fn := range bc.Functions {
		if fn.Name == "f" {
			f = fn
		}
	}
	require.NotEmpty(t, f.Code)

	found := false
	for _, inst := range f.Code {
		if inst.Op == bytecode.RefUpval {
			found = true
		}
	}
	assert.True(t, found, "a name never declared in any enclosing scope must resolve via ref_upval to the outermost environment")
}
