// Package bytecode defines the instruction set and compiled program layout
// that pkg/compiler emits and pkg/vm executes.
//
// Architecture:
//
// The machine is a stack/register hybrid: most opcodes operate on an
// implicit operand stack, but local and captured-environment variables are
// named directly by an instruction operand (the constant-pool index of the
// variable's name), avoiding a separate push of the name for every
// variable reference.
//
// Instruction format:
//
// Each instruction is one opcode byte plus up to two int16 operands. The
// meaning of each operand slot depends on the opcode - an index into the
// constant pool, an environment hop count, a relative jump offset, or an
// argument count. Keeping operands fixed-width (rather than variable-length
// encoding) keeps decode and jump back-patching simple at the cost of a
// little density.
package bytecode

// Opcode identifies the operation one Instruction performs.
type Opcode byte

const (
	Nop Opcode = iota
	Dup
	Pop

	// PutConst pushes consts[args[0]] onto the operand stack.
	PutConst

	// DupLocal pushes the value of the variable named consts[args[0]] as
	// found in the current call frame's own environment object (depth 0).
	DupLocal
	// RefLocal pushes a (handle, key) reference to the variable named
	// consts[args[0]] in the current frame's environment, for use by
	// Emplace and by compound/postfix operators that need to read-modify-
	// write without re-resolving the name.
	RefLocal
	// StoreUpval pops the top of stack and stores it as the variable
	// named consts[args[0]], found by walking args[1] environment-proto
	// hops outward from the current frame's environment.
	StoreUpval
	// RefUpval pushes the value of the variable named consts[args[0]],
	// found by walking args[1] environment-proto hops outward from the
	// current frame's environment.
	RefUpval

	// Deref loads the value a (handle, key) reference denotes, replacing
	// the reference on the stack with its current value.
	Deref
	// Emplace pops a (handle, key) reference off the top of the stack,
	// then pops the value beneath it, stores the value at that
	// reference, and pushes the value back. Compiling an assignment is
	// therefore: push the computed value, push the target's reference,
	// Emplace - the reference is always produced last so a value that
	// required its own stack work to compute never has to be shuffled
	// past it.
	Emplace

	// PutObjDud pushes an empty plain object.
	PutObjDud
	// MakeArr pops args[0] elements and pushes them as a new array.
	MakeArr
	// PutProtoKey assigns the top-of-stack value to key consts[args[0]]
	// on the object just beneath it, used while building object literals.
	PutProtoKey

	// PutThis pushes the current frame's `this` binding.
	PutThis

	// GetProp pops (object, key) and pushes the resolved property value,
	// walking the prototype chain.
	GetProp
	// PutProp pops (object, key, value) and stores value as an own
	// property of object.
	PutProp
	// DelProp pops (object, key) and deletes the own property if present.
	DelProp

	// Numify coerces the top of stack to a number (ToNumber).
	Numify
	// Strcat pops two values, coerces both to strings, and pushes the
	// concatenation.
	Strcat
	// Typename pushes the ES5 typeof string for the popped value.
	Typename
	// Discard pops and ignores the top of stack, used for expression
	// statements whose value nobody reads.
	Discard

	PreInc
	PreDec

	Mod
	Mul
	Div
	Add
	Sub

	// TestFalsy pops a value and pushes its boolean-coerced negation.
	TestFalsy
	StrictEq
	Ne
	Lt
	Le
	Gt
	Ge

	// Jump adds args[0] to ip unconditionally.
	Jump
	// JumpIf pops a value; if truthy, adds args[0] to ip.
	JumpIf
	// JumpElse pops a value; if falsy, adds args[0] to ip.
	JumpElse

	// ObjectCall pops (this, callee, arg1..argN) with N == args[0] and
	// invokes callee as an ordinary function call.
	ObjectCall
	// CtorCall is like ObjectCall but allocates a fresh instance whose
	// prototype is callee.prototype and binds it as `this`.
	CtorCall

	Ret

	// Throw pops a value and begins exception propagation with it.
	Throw
	// Catch marks the start of a catch handler: it pops the thrown value
	// and binds it in the current frame's environment under the name
	// consts[args[0]].
	Catch

	Halt
)

var names = [...]string{
	Nop:        "nop",
	Dup:        "dup",
	Pop:        "pop",
	PutConst:   "put_const",
	DupLocal:   "dup_local",
	RefLocal:   "ref_local",
	StoreUpval: "store_upval",
	RefUpval:   "ref_upval",
	Deref:      "deref",
	Emplace:    "emplace",
	PutObjDud:  "put_obj_dud",
	MakeArr:    "make_arr",
	PutProtoKey: "put_proto_key",
	PutThis:    "put_this",
	GetProp:    "get_prop",
	PutProp:    "put_prop",
	DelProp:    "del_prop",
	Numify:     "numify",
	Strcat:     "strcat",
	Typename:   "typename",
	Discard:    "discard",
	PreInc:     "pre_inc",
	PreDec:     "pre_dec",
	Mod:        "mod",
	Mul:        "mul",
	Div:        "div",
	Add:        "add",
	Sub:        "sub",
	TestFalsy:  "test_falsy",
	StrictEq:   "strict_eq",
	Ne:         "ne",
	Lt:         "lt",
	Le:         "le",
	Gt:         "gt",
	Ge:         "ge",
	Jump:       "jump",
	JumpIf:     "jump_if",
	JumpElse:   "jump_else",
	ObjectCall: "object_call",
	CtorCall:   "ctor_call",
	Ret:        "ret",
	Throw:      "throw",
	Catch:      "catch",
	Halt:       "halt",
}

// String returns the opcode's mnemonic, used by the disassembler and by
// RuntimeError messages that name the failing instruction.
func (op Opcode) String() string {
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return "unknown"
}

// Instruction is one bytecode instruction: an opcode plus up to two
// operands, whose meaning depends on the opcode (see the Opcode doc
// comments above).
type Instruction struct {
	Op   Opcode
	Args [2]int16
}

// TryRegion records one try/catch guard within a FunctionProto: while the
// instruction pointer is within [Start, End), an uncaught exception
// transfers control to CatchStart instead of unwinding the frame.
type TryRegion struct {
	Start, End, CatchStart int
}

// FunctionProto is one compiled function body: its own instruction stream,
// parameter names (bound into the call's fresh environment object by the
// VM before execution starts), and the try/catch regions active within
// it.
type FunctionProto struct {
	Name       string
	Params     []string
	NumLocals  int
	Code       []Instruction
	SourceFile string
	TryRegions []TryRegion
}

// Program is the output of compilation: everything the VM needs to begin
// execution, with no further linking step.
//
// Persisted state: none. A Program is rebuilt from source on every run and
// is never serialized to or read from disk.
type Program struct {
	// Consts is the constant pool shared by every function in the
	// program; PutConst operands index into it.
	Consts []interface{}

	// Functions holds every compiled function body, including the
	// implicit top-level function at index EntryIndex.
	Functions []FunctionProto

	// EntryIndex names the top-level program body within Functions.
	EntryIndex int

	// HeapPrelude records the global names (console, Math, parseInt,
	// ...) passed to Compile. The VM does not read it: the global
	// bindings themselves are the map handed to Run/NewGlobalEnv.
	HeapPrelude []string
}
