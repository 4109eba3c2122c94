package vm

import (
	"unsafe"

	"github.com/lumenlang/lumen/bytecode"
)

func addrOf(v *bytecode.Value) uintptr { return uintptr(unsafe.Pointer(v)) }

// callValue dispatches a call to whatever kind of callable sits at
// callee: a closure, a native, a class (constructing an instance and
// running init if present), or a bound method. It reports whether the
// call is still in a runnable state (false means a runtime error was
// already reported and the caller should unwind).
func (vm *VM) callValue(callee bytecode.Value, argCount int) bool {
	if !callee.IsObj() {
		vm.runtimeError("can only call functions and classes")
		return false
	}
	obj := callee.AsObj()
	switch obj.Type {
	case bytecode.TypeClosure:
		return vm.callClosure(bytecode.AsClosure(obj), argCount)
	case bytecode.TypeNative:
		return vm.callNative(bytecode.AsNative(obj), argCount)
	case bytecode.TypeClass:
		class := bytecode.AsClass(obj)
		instance := vm.heap.NewInstance(class)
		vm.stack[len(vm.stack)-argCount-1] = bytecode.ObjVal(&instance.Obj)
		if initMethod, ok := class.Methods.Get(vm.initName); ok {
			return vm.callClosure(bytecode.AsClosure(initMethod.AsObj()), argCount)
		}
		if argCount != 0 {
			vm.runtimeError("expected 0 arguments but got %d", argCount)
			return false
		}
		return true
	case bytecode.TypeBoundMethod:
		bm := bytecode.AsBoundMethod(obj)
		vm.stack[len(vm.stack)-argCount-1] = bm.Receiver
		return vm.callClosure(bm.Method, argCount)
	default:
		vm.runtimeError("can only call functions and classes")
		return false
	}
}

func (vm *VM) callClosure(closure *bytecode.ObjClosure, argCount int) bool {
	if argCount != closure.Function.Arity {
		vm.runtimeError("expected %d arguments but got %d", closure.Function.Arity, argCount)
		return false
	}
	if len(vm.frames) >= vm.framesMax {
		vm.runtimeError("stack overflow")
		return false
	}
	vm.frames = append(vm.frames, callFrame{
		closure:   closure,
		slotsBase: len(vm.stack) - argCount - 1,
	})
	return true
}

func (vm *VM) callNative(native *bytecode.ObjNative, argCount int) bool {
	args := make([]bytecode.Value, argCount)
	copy(args, vm.stack[len(vm.stack)-argCount:])
	result, err := native.Fn(args)
	vm.stack = vm.stack[:len(vm.stack)-argCount-1]
	if err != nil {
		vm.runtimeError("%s", err.Error())
		return false
	}
	vm.push(result)
	return true
}

// invoke dispatches `receiver.name(args...)` directly, without first
// materializing a bound method, the fast path OP_INVOKE exists for. A
// field holding a callable shadows a same-named method, matching how
// property access already prefers fields.
func (vm *VM) invoke(name *bytecode.ObjString, argCount int) bool {
	receiverVal := vm.peek(argCount)
	if !receiverVal.IsObj() || receiverVal.Type() != bytecode.TypeInstance {
		vm.runtimeError("only instances have methods")
		return false
	}
	instance := bytecode.AsInstance(receiverVal.AsObj())

	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[len(vm.stack)-argCount-1] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(instance.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *bytecode.ObjClass, name *bytecode.ObjString, argCount int) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		vm.runtimeError("undefined property '%s'", name.Chars)
		return false
	}
	return vm.callClosure(bytecode.AsClosure(method.AsObj()), argCount)
}

func (vm *VM) bindMethod(class *bytecode.ObjClass, name *bytecode.ObjString) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		vm.runtimeError("undefined property '%s'", name.Chars)
		return false
	}
	bound := vm.heap.NewBoundMethod(vm.peek(0), bytecode.AsClosure(method.AsObj()))
	vm.pop()
	vm.push(bytecode.ObjVal(&bound.Obj))
	return true
}

func (vm *VM) captureUpvalue(local *bytecode.Value) *bytecode.ObjUpvalue {
	var prev *bytecode.ObjUpvalue
	cur := vm.openUpv
	for cur != nil && addrOf(cur.Location) > addrOf(local) {
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && addrOf(cur.Location) == addrOf(local) {
		return cur
	}
	created := vm.heap.NewUpvalue(local)
	created.NextOpen = cur
	if prev == nil {
		vm.openUpv = created
	} else {
		prev.NextOpen = created
	}
	return created
}

func (vm *VM) closeUpvalues(from *bytecode.Value) {
	for vm.openUpv != nil && addrOf(vm.openUpv.Location) >= addrOf(from) {
		u := vm.openUpv
		u.Close()
		vm.openUpv = u.NextOpen
	}
}

func (vm *VM) defineMethod(name *bytecode.ObjString) {
	method := vm.peek(0)
	class := bytecode.AsClass(vm.peek(1).AsObj())
	class.Methods.Set(name, method)
	vm.pop()
}
