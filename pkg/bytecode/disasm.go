package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders fn's instruction stream as human-readable text, one
// line per instruction, in the spirit of the teacher's Debugger.listInstructions
// and formatInstructionOperand: an index column followed by the mnemonic
// and a best-effort rendering of the operands against consts.
func Disassemble(fn FunctionProto, consts []interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "function %s (%d params, %d locals)\n", displayName(fn.Name), len(fn.Params), fn.NumLocals)
	for i, inst := range fn.Code {
		fmt.Fprintf(&b, "  %4d: %s", i, inst.Op)
		formatOperands(&b, inst, consts)
		b.WriteByte('\n')
	}
	return b.String()
}

func displayName(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}

func formatOperands(b *strings.Builder, inst Instruction, consts []interface{}) {
	switch inst.Op {
	case PutConst, PutProtoKey:
		idx := inst.Args[0]
		fmt.Fprintf(b, " %d", idx)
		if int(idx) < len(consts) {
			fmt.Fprintf(b, " (%v)", consts[idx])
		}
	case DupLocal, RefLocal:
		idx := inst.Args[0]
		fmt.Fprintf(b, " %d", idx)
		if int(idx) < len(consts) {
			fmt.Fprintf(b, " (%v)", consts[idx])
		}
	case Catch:
		fmt.Fprintf(b, " slot=%d", inst.Args[0])
	case StoreUpval, RefUpval:
		idx := inst.Args[0]
		fmt.Fprintf(b, " depth=%d", inst.Args[1])
		if int(idx) < len(consts) {
			fmt.Fprintf(b, " (%v)", consts[idx])
		}
	case Jump, JumpIf, JumpElse:
		fmt.Fprintf(b, " -> %+d", inst.Args[0])
	case MakeArr:
		fmt.Fprintf(b, " count=%d", inst.Args[0])
	case ObjectCall, CtorCall:
		fmt.Fprintf(b, " argc=%d", inst.Args[0])
	default:
		if inst.Args[0] != 0 || inst.Args[1] != 0 {
			fmt.Fprintf(b, " %d %d", inst.Args[0], inst.Args[1])
		}
	}
}

// DisassembleProgram renders the entry index and the constant pool, then
// every function in p, entry first.
func DisassembleProgram(p *Program) string {
	var b strings.Builder
	fmt.Fprintf(&b, "entry: %d\nconstants:\n", p.EntryIndex)
	for i, c := range p.Consts {
		fmt.Fprintf(&b, "  %4d: %v\n", i, c)
	}
	b.WriteString(Disassemble(p.Functions[p.EntryIndex], p.Consts))
	for i, fn := range p.Functions {
		if i == p.EntryIndex {
			continue
		}
		b.WriteString(Disassemble(fn, p.Consts))
	}
	return b.String()
}
