package bytecode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisassembleRendersMnemonicsAndOperands(t *testing.T) {
	fn := FunctionProto{
		Name:      "add",
		Params:    []string{"a", "b"},
		NumLocals: 2,
		Code: []Instruction{
			{Op: PutConst, Args: [2]int16{0}},
			{Op: DupLocal, Args: [2]int16{1}},
			{Op: Add},
			{Op: Ret},
		},
	}
	out := Disassemble(fn, []interface{}{42.0, "a"})

	assert.Contains(t, out, "function add (2 params, 2 locals)")
	assert.Contains(t, out, "put_const")
	assert.Contains(t, out, "(42)")
	assert.Contains(t, out, "dup_local")
	assert.Contains(t, out, "add")
	assert.Contains(t, out, "ret")
}

func TestDisassembleAnonymousFunctionName(t *testing.T) {
	out := Disassemble(FunctionProto{Code: []Instruction{{Op: Halt}}}, nil)
	assert.Contains(t, out, "<anonymous>")
}

func TestDisassembleProgramListsEntryFirst(t *testing.T) {
	p := &Program{
		Functions: []FunctionProto{
			{Name: "helper", Code: []Instruction{{Op: Halt}}},
			{Name: "main", Code: []Instruction{{Op: Halt}}},
		},
		EntryIndex: 1,
	}
	out := DisassembleProgram(p)
	mainIdx := strings.Index(out, "function main")
	helperIdx := strings.Index(out, "function helper")
	assert.True(t, mainIdx >= 0 && helperIdx >= 0)
	assert.True(t, mainIdx < helperIdx, "entry function must be listed first")
}

func TestOpcodeStringFallsBackToUnknown(t *testing.T) {
	assert.Equal(t, "unknown", Opcode(255).String())
	assert.Equal(t, "add", Add.String())
}
