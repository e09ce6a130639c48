package vm

import (
	"github.com/kristofer/tinyjs/pkg/bytecode"
	"github.com/kristofer/tinyjs/pkg/value"
)

// Frame is one call's activation record: its own environment object
// (holding its locals, prototype-chained to the enclosing scope it closed
// over), the operand stack base it started from, and resumption state.
type Frame struct {
	fn     *bytecode.FunctionProto
	ip     int
	sbp    int // operand stack base for this call
	env    value.Handle
	this   value.Value
	isCtor bool
}
