package vm

import (
	"fmt"
	"strings"
)

// Status classifies how a Run call ended, mirroring the teacher's
// error-with-stack-trace reporting but enumerated so callers (the CLI, the
// REPL, tests) can branch on outcome without string matching.
type Status int

const (
	StatusOK Status = iota
	StatusSetupErr
	StatusOpcodeErr
	StatusStackErr
	StatusHeapErr
	StatusFuncErr
	StatusBadOperation
	StatusBadHeapAlloc
	StatusUnhandledException
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSetupErr:
		return "setup-err"
	case StatusOpcodeErr:
		return "opcode-err"
	case StatusStackErr:
		return "stack-err"
	case StatusHeapErr:
		return "heap-err"
	case StatusFuncErr:
		return "func-err"
	case StatusBadOperation:
		return "bad-operation"
	case StatusBadHeapAlloc:
		return "bad-heap-alloc"
	case StatusUnhandledException:
		return "unhandled-exception"
	default:
		return "unknown-status"
	}
}

// StackFrame captures one call frame's identity at the moment an error was
// raised, the same shape as the teacher's vm.StackFrame.
type StackFrame struct {
	Name string
	IP   int
}

// RuntimeError reports a VM failure together with the call stack active
// when it happened, formatted the way the teacher's RuntimeError.Error
// renders a trace.
type RuntimeError struct {
	Status     Status
	Message    string
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Status, e.Message)
	for i := len(e.StackTrace) - 1; i >= 0; i-- {
		f := e.StackTrace[i]
		fmt.Fprintf(&b, "\n  at %s [ip %d]", f.Name, f.IP)
	}
	return b.String()
}

func (vm *VM) errorf(status Status, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Status: status, Message: fmt.Sprintf(format, args...), StackTrace: vm.snapshotStack()}
}

func (vm *VM) snapshotStack() []StackFrame {
	frames := make([]StackFrame, len(vm.frames))
	for i, f := range vm.frames {
		name := f.fn.Name
		if name == "" {
			name = "<anonymous>"
		}
		frames[i] = StackFrame{Name: name, IP: f.ip}
	}
	return frames
}
