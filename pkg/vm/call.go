package vm

import "github.com/kristofer/tinyjs/pkg/value"

// handleCall implements both ObjectCall and CtorCall's operand-stack
// contract. A plain call's callee/this were pushed by the compiler as
// PutConst-undefined/callee (free function) or target/Dup/key/GetProp
// (method call: target doubles as this); a constructor call pushes only
// callee/args, since CtorCall itself manufactures the new instance.
func (vm *VM) handleCall(argc int, isCtor bool) error {
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		v, err := vm.pop()
		if err != nil {
			return err
		}
		args[i] = v
	}
	calleeVal, err := vm.pop()
	if err != nil {
		return err
	}
	this := value.Undefined()
	if !isCtor {
		this, err = vm.pop()
		if err != nil {
			return err
		}
	}
	return vm.dispatchCall(calleeVal, this, args, isCtor)
}

// dispatchCall invokes callee, which must be a Lambda or NativeFunction.
// A NativeFunction call runs synchronously and pushes its result directly;
// a Lambda call pushes a new Frame for the dispatch loop to step through -
// its result reaches the stack only when that frame's Ret executes.
func (vm *VM) dispatchCall(callee, this value.Value, args []value.Value, isCtor bool) error {
	if !callee.IsObject() {
		return vm.Throw("TypeError", "value is not a function")
	}
	obj := vm.heap.Get(callee.Handle())
	switch fn := obj.(type) {
	case *value.NativeFunction:
		if isCtor {
			return vm.Throw("TypeError", fn.Name+" is not a constructor")
		}
		result, err := fn.Impl(vm, this, args)
		if err != nil {
			return err
		}
		return vm.push(result)

	case *value.Lambda:
		if len(vm.frames) >= vm.opts.CallDepthCap {
			return vm.errorf(StatusFuncErr, "call depth exceeded calling %q", fn.Name)
		}
		if fn.FuncIndex < 0 || fn.FuncIndex >= len(vm.program.Functions) {
			return vm.errorf(StatusFuncErr, "invalid function reference for %q", fn.Name)
		}
		proto := &vm.program.Functions[fn.FuncIndex]

		calleeThis := this
		if isCtor {
			instHandle, ok := vm.heap.Alloc(value.NewPlainObject(vm.objectProto))
			if !ok {
				return vm.errorf(StatusBadHeapAlloc, "heap exhausted constructing %q instance", fn.Name)
			}
			if protoDesc, has := fn.OwnProperty("prototype"); has && protoDesc.Value.IsObject() {
				vm.heap.Get(instHandle).SetProto(protoDesc.Value.Handle())
			}
			calleeThis = value.Object(instHandle)
		}

		envHandle, ok := vm.heap.Alloc(value.NewEnvironment(fn.CaptureEnv))
		if !ok {
			return vm.errorf(StatusBadHeapAlloc, "heap exhausted entering %q", fn.Name)
		}
		env := vm.heap.Get(envHandle)
		for i, p := range proto.Params {
			v := value.Undefined()
			if i < len(args) {
				v = args[i]
			}
			env.SetOwnProperty(p, v, value.DefaultFlags)
		}
		if argArr, ok := vm.heap.Alloc(value.NewArray(vm.arrayProto, append([]value.Value(nil), args...))); ok {
			env.SetOwnProperty("arguments", value.Object(argArr), value.DefaultFlags)
		}

		vm.frames = append(vm.frames, Frame{
			fn:     proto,
			env:    envHandle,
			this:   calleeThis,
			sbp:    len(vm.stack),
			isCtor: isCtor,
		})
		return nil

	default:
		return vm.Throw("TypeError", "value is not a function")
	}
}
