// Package vm implements the bytecode virtual machine for tinyjs.
//
// The VM is a stack/register hybrid interpreter. It's the final stage in
// the execution pipeline:
//
//   Source -> Lexer -> Parser -> AST -> Compiler -> Program -> VM -> status
//
// Virtual Machine Architecture:
//
//   1. Operand stack: holds intermediate expression values, grows upward.
//   2. Call frames: one per active function invocation, each owning an
//      Environment object that holds that call's parameters/locals/hoisted
//      declarations as ordinary properties, prototype-chained to the
//      environment the function closed over. This is how closures work
//      without a separate upvalue-cell table (pkg/value's doc comment).
//   3. Heap: a slotted arena of Objects (pkg/value.Heap) that a mark-sweep
//      collector reclaims; the VM assembles GC roots from the stack and
//      the environment chain of every live frame.
//   4. Base prototypes: Object/Array/String/Boolean/Function/Error, wired
//      up once at VM construction, before any native or user code runs.
//
// Calling convention:
//
// A call pops its this/callee/arguments off the operand stack and pushes a
// Frame; a Lambda's Frame steps through its own instruction stream, while a
// NativeFunction call runs synchronously inline and pushes its own result -
// no frame is allocated for it. Returning pops the top frame and pushes its
// result into the (now current) caller's stack slot, or - for the bottommost
// frame - ends execution.
//
// Design Philosophy:
//
//   - Correctness over cleverness: locals live in ordinary heap objects so
//     the same property-lookup path the compiler uses for closures also
//     handles a ready-made GC root and a uniform lvalue story.
//   - One flat dispatch loop: no recursive Go calls per bytecode call/return,
//     so a deeply-recursive script program exhausts the call-depth cap
//     (a VM-level check) rather than the Go goroutine stack.
//   - Fail loud, fail typed: every runtime error carries a Status so a host
//     embedding the VM can branch on outcome without string matching.
package vm

import (
	"math"

	"github.com/kristofer/tinyjs/pkg/bytecode"
	"github.com/kristofer/tinyjs/pkg/compiler"
	"github.com/kristofer/tinyjs/pkg/value"
)

// Options configures one VM instance, the knobs spec §6 lists as the VM's
// input alongside the Program itself.
type Options struct {
	StackCap     int   // operand stack depth cap
	CallDepthCap int   // max live call frames
	GCThreshold  int64 // approximate heap-overhead bytes that trigger a collection
	HeapCapacity int   // max live heap slots, 0 = unbounded
}

// DefaultOptions returns sane defaults for a REPL or a short script.
func DefaultOptions() Options {
	return Options{StackCap: 8192, CallDepthCap: 1024, GCThreshold: 1 << 20, HeapCapacity: 0}
}

func (o Options) normalize() Options {
	if o.StackCap <= 0 {
		o.StackCap = 8192
	}
	if o.CallDepthCap <= 0 {
		o.CallDepthCap = 1024
	}
	if o.GCThreshold <= 0 {
		o.GCThreshold = 1 << 20
	}
	return o
}

// VM owns one heap, one operand stack, and one call-frame stack. Nothing is
// shared across VM instances (spec §5's "Shared resources" clause).
type VM struct {
	opts Options
	heap *value.Heap

	stack  []value.Value
	frames []Frame

	objectProto   value.Handle
	arrayProto    value.Handle
	stringProto   value.Handle
	booleanProto  value.Handle
	functionProto value.Handle
	errorProto    value.Handle

	program      *bytecode.Program
	constStrings []value.Handle // parallel to program.Consts; valid where Consts[i] is a string
}

// New builds a VM with its five base prototypes wired up (Array/String/
// Boolean/Function/Error all chain to Object) but no program loaded yet.
func New(opts Options) *VM {
	opts = opts.normalize()
	vm := &VM{opts: opts, heap: value.NewHeap(opts.GCThreshold, opts.HeapCapacity)}
	vm.bootstrapPrototypes()
	return vm
}

func (vm *VM) bootstrapPrototypes() {
	objH, _ := vm.heap.Alloc(value.NewPlainObject(value.NoHandle))
	vm.objectProto = objH
	alloc := func() value.Handle {
		h, _ := vm.heap.Alloc(value.NewPlainObject(vm.objectProto))
		return h
	}
	vm.arrayProto = alloc()
	vm.stringProto = alloc()
	vm.booleanProto = alloc()
	vm.functionProto = alloc()
	vm.errorProto = alloc()
}

// Heap exposes the VM's heap to collaborators (the natives catalog, tests).
func (vm *VM) Heap() *value.Heap { return vm.heap }

// Prototype implements value.NativeHost.
func (vm *VM) Prototype(name string) value.Handle {
	switch name {
	case "Object":
		return vm.objectProto
	case "Array":
		return vm.arrayProto
	case "String":
		return vm.stringProto
	case "Boolean":
		return vm.booleanProto
	case "Function":
		return vm.functionProto
	case "Error":
		return vm.errorProto
	default:
		return value.NoHandle
	}
}

func (vm *VM) NewString(s string) value.Value {
	h, ok := vm.heap.Alloc(value.NewDynamicString(vm.stringProto, s))
	if !ok {
		return value.Undefined()
	}
	return value.Object(h)
}

func (vm *VM) NewArray(elems []value.Value) value.Value {
	h, ok := vm.heap.Alloc(value.NewArray(vm.arrayProto, elems))
	if !ok {
		return value.Undefined()
	}
	return value.Object(h)
}

func (vm *VM) NewPlainObject() value.Value {
	h, ok := vm.heap.Alloc(value.NewPlainObject(vm.objectProto))
	if !ok {
		return value.Undefined()
	}
	return value.Object(h)
}

func (vm *VM) ToNumber(v value.Value) float64 { return vm.toNumber(v) }
func (vm *VM) ToGoString(v value.Value) string { return vm.toGoString(v) }

// Call lets a native re-enter the VM to invoke a script callback (e.g.
// Array.prototype.forEach), running a nested dispatch loop that returns once
// the pushed frame (for a Lambda) or the synchronous native call unwinds back
// to the depth Call started at.
func (vm *VM) Call(callee, this value.Value, args []value.Value) (value.Value, error) {
	base := len(vm.frames)
	if err := vm.dispatchCall(callee, this, args, false); err != nil {
		return value.Undefined(), err
	}
	if len(vm.frames) == base {
		// A native ran synchronously and already pushed its result.
		return vm.pop()
	}
	return vm.execLoop(base)
}

// Throw builds an Error object and wraps it as a *ThrownValue, the error
// type dispatchCall and execLoop recognize as a catchable script exception
// rather than a fatal host failure.
func (vm *VM) Throw(name, message string) error {
	return &ThrownValue{Value: vm.makeError(name, message)}
}

func (vm *VM) makeError(name, message string) value.Value {
	h, ok := vm.heap.Alloc(value.NewError(vm.errorProto, name, message))
	if !ok {
		return value.Undefined()
	}
	errObj := vm.heap.Get(h).(*value.Error)
	errObj.SetOwnProperty("name", vm.NewString(name), value.DefaultFlags)
	errObj.SetOwnProperty("message", vm.NewString(message), value.DefaultFlags)
	return value.Object(h)
}

// ThrownValue wraps a script-catchable exception value so it can travel as
// a Go error return from a native function without losing its identity.
type ThrownValue struct{ Value value.Value }

func (t *ThrownValue) Error() string { return "uncaught exception" }

// --- stack primitives ---

func (vm *VM) push(v value.Value) error {
	if len(vm.stack) >= vm.opts.StackCap {
		return vm.errorf(StatusStackErr, "operand stack overflow")
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() (value.Value, error) {
	if len(vm.stack) == 0 {
		return value.Undefined(), vm.errorf(StatusStackErr, "operand stack underflow")
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

func (vm *VM) top() value.Value { return vm.stack[len(vm.stack)-1] }

func (vm *VM) gcRoots() value.Roots {
	envs := make([]value.Handle, len(vm.frames))
	for i, f := range vm.frames {
		envs[i] = f.env
	}
	return value.Roots{Stack: vm.stack, Envs: envs}
}

func (vm *VM) maybeCollect() {
	if vm.heap.ShouldCollect() {
		vm.heap.Collect(vm.gcRoots())
	}
}

// --- Run ---

// Run loads program, installs globals as a fresh top-level environment's
// own properties, tenures everything allocated so far (natives, prototypes,
// interned string constants), and executes from the entry function.
func (vm *VM) Run(program *bytecode.Program, globals map[string]value.Value) (value.Value, Status, error) {
	envHandle, err := vm.NewGlobalEnv(globals)
	if err != nil {
		return value.Undefined(), StatusBadHeapAlloc, err
	}
	return vm.RunWithEnv(program, envHandle)
}

// NewGlobalEnv allocates a top-level Environment with no parent, installs
// globals as its own properties, and returns its handle. A caller that
// wants bindings to persist across several Run-like calls - the REPL, most
// notably, where a `var` at one prompt must be visible at the next - holds
// onto this handle and passes it to RunWithEnv repeatedly instead of
// letting Run create a fresh one every time.
func (vm *VM) NewGlobalEnv(globals map[string]value.Value) (value.Handle, error) {
	h, ok := vm.heap.Alloc(value.NewEnvironment(value.NoHandle))
	if !ok {
		return value.NoHandle, vm.errorf(StatusBadHeapAlloc, "heap exhausted creating global environment")
	}
	env := vm.heap.Get(h).(*value.Environment)
	for name, v := range globals {
		env.SetOwnProperty(name, v, value.DefaultFlags)
	}
	return h, nil
}

// RunWithEnv executes program's entry function against an existing global
// environment handle, leaving whatever that environment accumulates (new
// `var` bindings, function declarations) in place for the next call.
func (vm *VM) RunWithEnv(program *bytecode.Program, globalEnvHandle value.Handle) (value.Value, Status, error) {
	vm.program = program
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]

	if program.EntryIndex < 0 || program.EntryIndex >= len(program.Functions) {
		return value.Undefined(), StatusSetupErr, vm.errorf(StatusSetupErr, "invalid entry chunk %d", program.EntryIndex)
	}

	vm.constStrings = make([]value.Handle, len(program.Consts))
	for i, c := range program.Consts {
		if s, ok := c.(string); ok {
			h, ok := vm.heap.Alloc(value.NewDynamicString(vm.stringProto, s))
			if !ok {
				return value.Undefined(), StatusBadHeapAlloc, vm.errorf(StatusBadHeapAlloc, "heap exhausted interning constants")
			}
			vm.constStrings[i] = h
		}
	}

	vm.heap.Tenure()

	vm.frames = append(vm.frames, Frame{
		fn:   &program.Functions[program.EntryIndex],
		env:  globalEnvHandle,
		this: value.Undefined(),
		sbp:  0,
	})

	result, err := vm.execLoop(0)
	if err != nil {
		if thrown, ok := err.(*ThrownValue); ok {
			rerr := &RuntimeError{Status: StatusUnhandledException, Message: vm.toGoString(thrown.Value), StackTrace: vm.snapshotStack()}
			return value.Undefined(), rerr.Status, rerr
		}
		if rerr, ok := err.(*RuntimeError); ok {
			return value.Undefined(), rerr.Status, rerr
		}
		return value.Undefined(), StatusOpcodeErr, err
	}
	return result, StatusOK, nil
}

// execLoop runs the dispatch loop until len(vm.frames) drops back to
// stopDepth, returning the value the departing frame produced. Called both
// by Run (stopDepth=0) and by Call for native re-entrancy.
func (vm *VM) execLoop(stopDepth int) (value.Value, error) {
	for len(vm.frames) > stopDepth {
		frame := &vm.frames[len(vm.frames)-1]
		if frame.ip < 0 || frame.ip >= len(frame.fn.Code) {
			return value.Undefined(), vm.errorf(StatusOpcodeErr, "instruction pointer out of range in %q", frame.fn.Name)
		}
		inst := frame.fn.Code[frame.ip]
		frame.ip++

		switch inst.Op {
		case bytecode.Nop:
			// no-op; the compiler does not emit it

		case bytecode.Dup:
			if err := vm.push(vm.top()); err != nil {
				return value.Undefined(), err
			}

		case bytecode.Pop, bytecode.Discard:
			if _, err := vm.pop(); err != nil {
				return value.Undefined(), err
			}

		case bytecode.PutConst:
			v, err := vm.loadConst(int(inst.Args[0]), frame.env)
			if err != nil {
				return value.Undefined(), err
			}
			if err := vm.push(v); err != nil {
				return value.Undefined(), err
			}

		case bytecode.DupLocal:
			name := vm.constString(int(inst.Args[0]))
			env := vm.heap.Get(frame.env)
			v := value.Undefined()
			if env != nil {
				if d, ok := env.OwnProperty(name); ok {
					v = d.Value
				}
			}
			if err := vm.push(v); err != nil {
				return value.Undefined(), err
			}

		case bytecode.RefLocal:
			name := vm.constString(int(inst.Args[0]))
			if err := vm.push(value.RefOf(frame.env, name)); err != nil {
				return value.Undefined(), err
			}

		case bytecode.RefUpval:
			name := vm.constString(int(inst.Args[0]))
			target := vm.walkEnv(frame.env, int(inst.Args[1]))
			v := value.Undefined()
			if env := vm.heap.Get(target); env != nil {
				if d, ok := env.OwnProperty(name); ok {
					v = d.Value
				}
			}
			if err := vm.push(v); err != nil {
				return value.Undefined(), err
			}

		case bytecode.StoreUpval:
			name := vm.constString(int(inst.Args[0]))
			target := vm.walkEnv(frame.env, int(inst.Args[1]))
			v, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			vm.storeInEnv(target, name, v)

		case bytecode.Deref:
			v, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			if err := vm.push(vm.derefValue(v)); err != nil {
				return value.Undefined(), err
			}

		case bytecode.Emplace:
			refVal, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			rhs, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			if refVal.IsRef() {
				ref := refVal.Ref()
				vm.storeInEnv(ref.Target, ref.Key, rhs)
			}
			if err := vm.push(rhs); err != nil {
				return value.Undefined(), err
			}

		case bytecode.PutObjDud:
			h, ok := vm.heap.Alloc(value.NewPlainObject(vm.objectProto))
			if !ok {
				return value.Undefined(), vm.errorf(StatusBadHeapAlloc, "heap exhausted allocating object literal")
			}
			if err := vm.push(value.Object(h)); err != nil {
				return value.Undefined(), err
			}

		case bytecode.MakeArr:
			n := int(inst.Args[0])
			elems := make([]value.Value, n)
			for i := n - 1; i >= 0; i-- {
				v, err := vm.pop()
				if err != nil {
					return value.Undefined(), err
				}
				elems[i] = v
			}
			h, ok := vm.heap.Alloc(value.NewArray(vm.arrayProto, elems))
			if !ok {
				return value.Undefined(), vm.errorf(StatusBadHeapAlloc, "heap exhausted allocating array literal")
			}
			if err := vm.push(value.Object(h)); err != nil {
				return value.Undefined(), err
			}

		case bytecode.PutProtoKey:
			key := vm.constString(int(inst.Args[0]))
			v, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			obj := vm.top()
			if obj.IsObject() {
				value.SetProperty(vm.heap, obj.Handle(), key, v)
			}

		case bytecode.PutThis:
			if err := vm.push(frame.this); err != nil {
				return value.Undefined(), err
			}

		case bytecode.GetProp:
			keyVal, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			targetVal, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			key := vm.toGoString(keyVal)
			if !targetVal.IsObject() {
				if err := vm.push(value.Undefined()); err != nil {
					return value.Undefined(), err
				}
				break
			}
			if err := vm.push(value.GetProperty(vm.heap, targetVal.Handle(), key)); err != nil {
				return value.Undefined(), err
			}

		case bytecode.PutProp:
			v, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			keyVal, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			objVal, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			if objVal.IsObject() {
				value.SetProperty(vm.heap, objVal.Handle(), vm.toGoString(keyVal), v)
			}
			if err := vm.push(v); err != nil {
				return value.Undefined(), err
			}

		case bytecode.DelProp:
			keyVal, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			objVal, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			ok := false
			if objVal.IsObject() {
				ok = value.DeleteProperty(vm.heap, objVal.Handle(), vm.toGoString(keyVal))
			}
			if err := vm.push(value.Bool(ok)); err != nil {
				return value.Undefined(), err
			}

		case bytecode.Numify:
			v, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			if err := vm.push(value.Number(vm.toNumber(v))); err != nil {
				return value.Undefined(), err
			}

		case bytecode.Strcat:
			r, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			l, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			if err := vm.push(vm.newString(vm.toGoString(l) + vm.toGoString(r))); err != nil {
				return value.Undefined(), err
			}

		case bytecode.Typename:
			v, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			if err := vm.push(vm.newString(v.TypeName(vm.heap))); err != nil {
				return value.Undefined(), err
			}

		case bytecode.PreInc, bytecode.PreDec:
			v, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			step := 1.0
			if inst.Op == bytecode.PreDec {
				step = -1.0
			}
			if err := vm.push(value.Number(vm.toIncDecOperand(v) + step)); err != nil {
				return value.Undefined(), err
			}

		case bytecode.Add:
			r, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			l, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			if vm.isStringValue(l) || vm.isStringValue(r) {
				if err := vm.push(vm.newString(vm.toGoString(l) + vm.toGoString(r))); err != nil {
					return value.Undefined(), err
				}
				break
			}
			if err := vm.push(value.Number(vm.toNumber(l) + vm.toNumber(r))); err != nil {
				return value.Undefined(), err
			}

		case bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Mod:
			r, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			l, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			a, b := vm.toNumber(l), vm.toNumber(r)
			var res float64
			switch inst.Op {
			case bytecode.Sub:
				res = a - b
			case bytecode.Mul:
				res = a * b
			case bytecode.Div:
				if b == 0 {
					res = math.NaN()
				} else {
					res = a / b
				}
			case bytecode.Mod:
				res = math.Mod(a, b)
			}
			if err := vm.push(value.Number(res)); err != nil {
				return value.Undefined(), err
			}

		case bytecode.TestFalsy:
			v, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			if err := vm.push(value.Bool(!v.Truthy())); err != nil {
				return value.Undefined(), err
			}

		case bytecode.StrictEq, bytecode.Ne:
			r, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			l, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			eq := vm.strictEquals(l, r)
			if inst.Op == bytecode.Ne {
				eq = !eq
			}
			if err := vm.push(value.Bool(eq)); err != nil {
				return value.Undefined(), err
			}

		case bytecode.Lt, bytecode.Le, bytecode.Gt, bytecode.Ge:
			r, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			l, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			a, b := vm.toNumber(l), vm.toNumber(r)
			var res bool
			if !math.IsNaN(a) && !math.IsNaN(b) {
				switch inst.Op {
				case bytecode.Lt:
					res = a < b
				case bytecode.Le:
					res = a <= b
				case bytecode.Gt:
					res = a > b
				case bytecode.Ge:
					res = a >= b
				}
			}
			if err := vm.push(value.Bool(res)); err != nil {
				return value.Undefined(), err
			}

		case bytecode.Jump:
			frame.ip += int(inst.Args[0])

		case bytecode.JumpIf:
			v, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			if v.Truthy() {
				frame.ip += int(inst.Args[0])
			}

		case bytecode.JumpElse:
			v, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			if !v.Truthy() {
				frame.ip += int(inst.Args[0])
			}

		case bytecode.ObjectCall:
			if err := vm.handleCall(int(inst.Args[0]), false); err != nil {
				handled, propagate := vm.routeException(err, stopDepth)
				if !handled {
					return value.Undefined(), propagate
				}
			}

		case bytecode.CtorCall:
			if err := vm.handleCall(int(inst.Args[0]), true); err != nil {
				handled, propagate := vm.routeException(err, stopDepth)
				if !handled {
					return value.Undefined(), propagate
				}
			}

		case bytecode.Ret:
			retVal, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			popped := vm.frames[len(vm.frames)-1]
			vm.frames = vm.frames[:len(vm.frames)-1]
			if popped.isCtor && !retVal.IsObject() {
				retVal = popped.this
			}
			vm.maybeCollect()
			if len(vm.frames) == stopDepth {
				return retVal, nil
			}
			if err := vm.push(retVal); err != nil {
				return value.Undefined(), err
			}

		case bytecode.Throw:
			v, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			switch vm.unwind(v, stopDepth) {
			case unwoundHandled:
				// fall through to next iteration at the catch handler
			case unwoundBelowFloor:
				return value.Undefined(), &ThrownValue{Value: v}
			default:
				return value.Undefined(), &RuntimeError{Status: StatusUnhandledException, Message: vm.toGoString(v), StackTrace: vm.snapshotStack()}
			}

		case bytecode.Catch:
			name := vm.constString(int(inst.Args[0]))
			v, err := vm.pop()
			if err != nil {
				return value.Undefined(), err
			}
			vm.storeInEnv(frame.env, name, v)

		case bytecode.Halt:
			return value.Undefined(), nil

		default:
			return value.Undefined(), vm.errorf(StatusBadOperation, "unknown opcode %v", inst.Op)
		}
	}
	return value.Undefined(), nil
}

// routeException inspects err: a *ThrownValue (raised by Throw, a native's
// host.Throw, or bubbled up from a nested Call's own execLoop) is folded
// into the normal try/catch unwind machinery instead of aborting the run.
// A handler found below floor belongs to an outer, still-suspended call -
// that case re-wraps as a *ThrownValue so the caller one level up repeats
// the same routing against its own floor, until either a handler at or
// above some floor is found or the outermost Run call gives up.
func (vm *VM) routeException(err error, floor int) (handled bool, propagate error) {
	if err == nil {
		return true, nil
	}
	thrown, ok := err.(*ThrownValue)
	if !ok {
		return false, err
	}
	switch vm.unwind(thrown.Value, floor) {
	case unwoundHandled:
		return true, nil
	case unwoundBelowFloor:
		return false, thrown
	default:
		return false, &RuntimeError{Status: StatusUnhandledException, Message: vm.toGoString(thrown.Value), StackTrace: vm.snapshotStack()}
	}
}

type unwindResult int

const (
	unwoundHandled unwindResult = iota
	unwoundBelowFloor
	unwoundExhausted
)

// unwind searches frames at or above floor (innermost first) for a try
// region covering that frame's last-executed instruction, truncates the
// operand stack back to that frame's call-entry depth (every statement
// leaves the stack exactly as it found it, so this always lands exactly at
// the try block's start), pushes val for the Catch opcode to consume, and
// redirects to the handler. Popping past floor without a match means the
// exception belongs to a suspended outer call, not this one.
func (vm *VM) unwind(val value.Value, floor int) unwindResult {
	for len(vm.frames) > floor {
		frame := &vm.frames[len(vm.frames)-1]
		if region, ok := findTryRegion(frame.fn.TryRegions, frame.ip-1); ok {
			vm.stack = vm.stack[:frame.sbp]
			_ = vm.push(val)
			frame.ip = region.CatchStart
			return unwoundHandled
		}
		vm.frames = vm.frames[:len(vm.frames)-1]
	}
	if floor > 0 {
		return unwoundBelowFloor
	}
	return unwoundExhausted
}

func findTryRegion(regions []bytecode.TryRegion, ip int) (bytecode.TryRegion, bool) {
	best := bytecode.TryRegion{}
	found := false
	for _, r := range regions {
		if ip >= r.Start && ip < r.End {
			if !found || (r.End-r.Start) < (best.End-best.Start) {
				best = r
				found = true
			}
		}
	}
	return best, found
}

// --- name resolution helpers ---

func (vm *VM) constString(idx int) string {
	if idx < 0 || idx >= len(vm.program.Consts) {
		return ""
	}
	s, _ := vm.program.Consts[idx].(string)
	return s
}

// loadConst realizes program.Consts[idx] as a runtime Value: primitives are
// cheap inline conversions, strings resolve to their tenured interned
// heap object, and a FuncRef allocates a fresh Lambda closing over env -
// the only const kind that isn't idempotent across evaluations.
func (vm *VM) loadConst(idx int, env value.Handle) (value.Value, error) {
	if idx < 0 || idx >= len(vm.program.Consts) {
		return value.Undefined(), vm.errorf(StatusOpcodeErr, "constant index out of range: %d", idx)
	}
	switch c := vm.program.Consts[idx].(type) {
	case float64:
		return value.Number(c), nil
	case bool:
		return value.Bool(c), nil
	case string:
		return value.Object(vm.constStrings[idx]), nil
	case compiler.NullConst:
		return value.Null(), nil
	case compiler.UndefinedConst:
		return value.Undefined(), nil
	case compiler.FuncRef:
		h, err := vm.makeLambda(c.Index, env)
		if err != nil {
			return value.Undefined(), err
		}
		return value.Object(h), nil
	default:
		return value.Undefined(), vm.errorf(StatusOpcodeErr, "unrecognized constant kind %T", c)
	}
}

// makeLambda allocates a Lambda bound to Functions[funcIndex], closing over
// env, with an own .prototype object (for `new`) and a .length matching its
// declared parameter count - the two properties ES5 function objects always
// carry regardless of how they were created.
func (vm *VM) makeLambda(funcIndex int, env value.Handle) (value.Handle, error) {
	if funcIndex < 0 || funcIndex >= len(vm.program.Functions) {
		return value.NoHandle, vm.errorf(StatusOpcodeErr, "function index out of range: %d", funcIndex)
	}
	fn := &vm.program.Functions[funcIndex]
	h, ok := vm.heap.Alloc(value.NewLambda(vm.functionProto, funcIndex, env, fn.Name))
	if !ok {
		return value.NoHandle, vm.errorf(StatusBadHeapAlloc, "heap exhausted allocating closure")
	}
	protoH, ok := vm.heap.Alloc(value.NewPlainObject(vm.objectProto))
	if !ok {
		return value.NoHandle, vm.errorf(StatusBadHeapAlloc, "heap exhausted allocating closure prototype")
	}
	lambda := vm.heap.Get(h)
	lambda.SetOwnProperty("prototype", value.Object(protoH), value.FlagWritable)
	lambda.SetOwnProperty("length", value.Number(float64(len(fn.Params))), 0)
	return h, nil
}

func (vm *VM) walkEnv(start value.Handle, hops int) value.Handle {
	cur := start
	for i := 0; i < hops; i++ {
		obj := vm.heap.Get(cur)
		if obj == nil {
			return value.NoHandle
		}
		cur = obj.Proto()
	}
	return cur
}

func (vm *VM) storeInEnv(target value.Handle, name string, v value.Value) {
	obj := vm.heap.Get(target)
	if obj == nil {
		return
	}
	if existing, ok := obj.OwnProperty(name); ok {
		if existing.Flags&value.FlagWritable == 0 {
			return
		}
		obj.SetOwnProperty(name, v, existing.Flags)
		return
	}
	obj.SetOwnProperty(name, v, value.DefaultFlags)
}

func (vm *VM) derefValue(v value.Value) value.Value {
	if !v.IsRef() {
		return v
	}
	ref := v.Ref()
	obj := vm.heap.Get(ref.Target)
	if obj == nil {
		return value.Undefined()
	}
	if d, ok := obj.OwnProperty(ref.Key); ok {
		return d.Value
	}
	return value.Undefined()
}

// --- coercions used only inside the opcode loop (see convert.go for the
// general ToNumber/ToString helpers shared with natives) ---

func (vm *VM) isStringValue(v value.Value) bool {
	if !v.IsObject() {
		return false
	}
	_, ok := vm.heap.Get(v.Handle()).(*value.DynamicString)
	return ok
}

// toIncDecOperand implements spec §4.2's increment/decrement coercions for
// operand kinds that never reach toNumber identically: null starts a
// pre/post-inc at 0 before the step is added (same as toNumber), booleans
// and objects fall back to the ordinary ToNumber rule.
func (vm *VM) toIncDecOperand(v value.Value) float64 {
	return vm.toNumber(v)
}

// strictEquals implements spec §4.2's `===`: tag-exact, then structural
// for strings/arrays, pointer identity for every other object kind.
func (vm *VM) strictEquals(a, b value.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	if a.Kind() != value.KindObject {
		return value.StrictEquals(a, b)
	}
	if a.Handle() == b.Handle() {
		return true
	}
	oa, ob := vm.heap.Get(a.Handle()), vm.heap.Get(b.Handle())
	switch sa := oa.(type) {
	case *value.DynamicString:
		sb, ok := ob.(*value.DynamicString)
		return ok && sa.Value == sb.Value
	case *value.Array:
		ab, ok := ob.(*value.Array)
		if !ok || len(sa.Elements) != len(ab.Elements) {
			return false
		}
		for i := range sa.Elements {
			if !vm.strictEquals(sa.Elements[i], ab.Elements[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

