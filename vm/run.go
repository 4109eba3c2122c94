package vm

import (
	"fmt"

	"github.com/lumenlang/lumen/bytecode"
)

func (vm *VM) readByte() byte {
	f := vm.frame()
	b := f.closure.Function.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (vm *VM) readUint16() uint16 {
	f := vm.frame()
	v := f.closure.Function.Chunk.ReadUint16(f.ip)
	f.ip += 2
	return v
}

func (vm *VM) readConstant(idx int) bytecode.Value {
	return vm.frame().closure.Function.Chunk.Constants[idx]
}

func (vm *VM) readString(idx int) *bytecode.ObjString {
	return bytecode.AsString(vm.readConstant(idx).AsObj())
}

// run executes bytecode until the outermost call frame returns, a
// runtime error occurs, or a native's error propagates. It is the one
// place lumen dispatches on opcode; there is no separate disassembler
// pass, only this loop and, when tracing is enabled, a line logged
// immediately before each dispatch.
func (vm *VM) run() InterpretResult {
	for {
		f := vm.frame()
		if vm.trace {
			line := 0
			if f.ip < len(f.closure.Function.Chunk.Lines) {
				line = f.closure.Function.Chunk.Lines[f.ip]
			}
			vm.heap.Log("trace: %04d %s (line %d)", f.ip, bytecode.Opcode(f.closure.Function.Chunk.Code[f.ip]), line)
		}

		op := bytecode.Opcode(vm.readByte())
		switch op {
		case bytecode.OpConstant:
			vm.push(vm.readConstant(int(vm.readByte())))
		case bytecode.OpConstantLong:
			vm.push(vm.readConstant(int(vm.readUint16())))
		case bytecode.OpByteNum:
			vm.push(bytecode.NumberVal(float64(vm.readByte())))
		case bytecode.OpNil:
			vm.push(bytecode.Nil)
		case bytecode.OpTrue:
			vm.push(bytecode.True)
		case bytecode.OpFalse:
			vm.push(bytecode.False)
		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpAdd:
			if !vm.add() {
				return InterpretRuntimeError
			}
		case bytecode.OpSubtract:
			if !vm.numericBinary(op) {
				return InterpretRuntimeError
			}
		case bytecode.OpMultiply:
			if !vm.numericBinary(op) {
				return InterpretRuntimeError
			}
		case bytecode.OpDivide:
			if !vm.numericBinary(op) {
				return InterpretRuntimeError
			}
		case bytecode.OpNegate:
			if !vm.peek(0).IsNumber() {
				vm.runtimeError("operand must be a number")
				return InterpretRuntimeError
			}
			vm.push(bytecode.NumberVal(-vm.pop().AsNumber()))
		case bytecode.OpNot:
			vm.push(bytecode.BoolVal(vm.pop().IsFalsy()))
		case bytecode.OpInvert:
			if !vm.peek(0).IsNumber() {
				vm.runtimeError("operand must be a number")
				return InterpretRuntimeError
			}
			vm.push(bytecode.NumberVal(float64(^int64(vm.pop().AsNumber()))))
		case bytecode.OpShiftLeft, bytecode.OpShiftRight, bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor:
			if !vm.integerBinary(op) {
				return InterpretRuntimeError
			}
		case bytecode.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(bytecode.BoolVal(bytecode.Equal(a, b)))
		case bytecode.OpNotEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(bytecode.BoolVal(!bytecode.Equal(a, b)))
		case bytecode.OpGreater, bytecode.OpGreaterEqual, bytecode.OpLess, bytecode.OpLessEqual:
			if !vm.comparisonBinary(op) {
				return InterpretRuntimeError
			}

		case bytecode.OpDefineGlobal:
			vm.globals.Set(vm.readString(int(vm.readByte())), vm.pop())
		case bytecode.OpDefineGlobalLong:
			vm.globals.Set(vm.readString(int(vm.readUint16())), vm.pop())
		case bytecode.OpGetGlobal:
			if !vm.getGlobal(int(vm.readByte())) {
				return InterpretRuntimeError
			}
		case bytecode.OpGetGlobalLong:
			if !vm.getGlobal(int(vm.readUint16())) {
				return InterpretRuntimeError
			}
		case bytecode.OpSetGlobal:
			if !vm.setGlobal(int(vm.readByte())) {
				return InterpretRuntimeError
			}
		case bytecode.OpSetGlobalLong:
			if !vm.setGlobal(int(vm.readUint16())) {
				return InterpretRuntimeError
			}

		case bytecode.OpGetLocal:
			slot := f.slotsBase + int(vm.readByte())
			vm.push(vm.stack[slot])
		case bytecode.OpSetLocal:
			slot := f.slotsBase + int(vm.readByte())
			vm.stack[slot] = vm.peek(0)
		case bytecode.OpGetUpvalue:
			idx := vm.readByte()
			vm.push(*f.closure.Upvalues[idx].Location)
		case bytecode.OpSetUpvalue:
			idx := vm.readByte()
			*f.closure.Upvalues[idx].Location = vm.peek(0)

		case bytecode.OpGetProperty:
			if !vm.getProperty(int(vm.readByte())) {
				return InterpretRuntimeError
			}
		case bytecode.OpGetPropertyLong:
			if !vm.getProperty(int(vm.readUint16())) {
				return InterpretRuntimeError
			}
		case bytecode.OpSetProperty:
			if !vm.setProperty(int(vm.readByte())) {
				return InterpretRuntimeError
			}
		case bytecode.OpSetPropertyLong:
			if !vm.setProperty(int(vm.readUint16())) {
				return InterpretRuntimeError
			}
		case bytecode.OpGetSuper:
			name := vm.readString(int(vm.readByte()))
			super := vm.pop().AsObj()
			if !vm.bindMethod(bytecode.AsClass(super), name) {
				return InterpretRuntimeError
			}
		case bytecode.OpGetSuperLong:
			name := vm.readString(int(vm.readUint16()))
			super := vm.pop().AsObj()
			if !vm.bindMethod(bytecode.AsClass(super), name) {
				return InterpretRuntimeError
			}
		case bytecode.OpSuperInvoke:
			name := vm.readString(int(vm.readByte()))
			argCount := int(vm.readByte())
			super := vm.pop().AsObj()
			if !vm.invokeFromClass(bytecode.AsClass(super), name, argCount) {
				return InterpretRuntimeError
			}
		case bytecode.OpSuperInvokeLong:
			name := vm.readString(int(vm.readUint16()))
			argCount := int(vm.readByte())
			super := vm.pop().AsObj()
			if !vm.invokeFromClass(bytecode.AsClass(super), name, argCount) {
				return InterpretRuntimeError
			}

		case bytecode.OpJump:
			f.ip += int(vm.readUint16())
		case bytecode.OpJumpBackwards:
			f.ip -= int(vm.readUint16())
		case bytecode.OpJumpIfFalse:
			offset := vm.readUint16()
			if vm.peek(0).IsFalsy() {
				f.ip += int(offset)
			}
		case bytecode.OpJumpIfTrue:
			offset := vm.readUint16()
			if !vm.peek(0).IsFalsy() {
				f.ip += int(offset)
			}

		case bytecode.OpCall:
			argCount := int(vm.readByte())
			if !vm.callValue(vm.peek(argCount), argCount) {
				return InterpretRuntimeError
			}
		case bytecode.OpInvoke:
			name := vm.readString(int(vm.readByte()))
			argCount := int(vm.readByte())
			if !vm.invoke(name, argCount) {
				return InterpretRuntimeError
			}
		case bytecode.OpInvokeLong:
			name := vm.readString(int(vm.readUint16()))
			argCount := int(vm.readByte())
			if !vm.invoke(name, argCount) {
				return InterpretRuntimeError
			}
		case bytecode.OpClosure:
			if !vm.makeClosure(int(vm.readByte())) {
				return InterpretRuntimeError
			}
		case bytecode.OpClosureLong:
			if !vm.makeClosure(int(vm.readUint16())) {
				return InterpretRuntimeError
			}
		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(&vm.stack[len(vm.stack)-1])
			vm.pop()
		case bytecode.OpReturn, bytecode.OpReturnNil:
			var result bytecode.Value
			if op == bytecode.OpReturn {
				result = vm.pop()
			} else {
				result = bytecode.Nil
			}
			base := f.slotsBase
			vm.closeUpvalues(&vm.stack[base])
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				vm.pop()
				return InterpretOK
			}
			vm.stack = vm.stack[:base]
			vm.push(result)

		case bytecode.OpSubscript:
			if !vm.subscript() {
				return InterpretRuntimeError
			}
		case bytecode.OpSubscriptAssign:
			if !vm.subscriptAssign() {
				return InterpretRuntimeError
			}
		case bytecode.OpNewArray:
			count := int(vm.readUint16())
			elems := make([]bytecode.Value, count)
			copy(elems, vm.stack[len(vm.stack)-count:])
			// Elements stay on the value stack (and so stay rooted) through
			// the allocation itself; only truncate once the array exists.
			arr := vm.heap.NewArray(elems)
			vm.stack = vm.stack[:len(vm.stack)-count]
			vm.push(bytecode.ObjVal(&arr.Obj))

		case bytecode.OpClass:
			name := vm.readString(int(vm.readByte()))
			vm.push(bytecode.ObjVal(&vm.heap.NewClass(name).Obj))
		case bytecode.OpClassLong:
			name := vm.readString(int(vm.readUint16()))
			vm.push(bytecode.ObjVal(&vm.heap.NewClass(name).Obj))
		case bytecode.OpInherit:
			if !vm.inherit() {
				return InterpretRuntimeError
			}
		case bytecode.OpMethod:
			vm.defineMethod(vm.readString(int(vm.readByte())))
		case bytecode.OpMethodLong:
			vm.defineMethod(vm.readString(int(vm.readUint16())))

		case bytecode.OpPrint:
			fmt.Fprintln(vm.out, bytecode.Stringify(vm.pop()))

		default:
			vm.runtimeError("unknown opcode %d", op)
			return InterpretRuntimeError
		}
	}
}

func (vm *VM) getGlobal(idx int) bool {
	name := vm.readString(idx)
	v, ok := vm.globals.Get(name)
	if !ok {
		vm.runtimeError("undefined variable '%s'", name.Chars)
		return false
	}
	vm.push(v)
	return true
}

func (vm *VM) setGlobal(idx int) bool {
	name := vm.readString(idx)
	if vm.globals.Set(name, vm.peek(0)) {
		vm.globals.Delete(name)
		vm.runtimeError("undefined variable '%s'", name.Chars)
		return false
	}
	return true
}

func (vm *VM) getProperty(idx int) bool {
	name := vm.readString(idx)
	receiver := vm.peek(0)
	if !receiver.IsObj() || receiver.Type() != bytecode.TypeInstance {
		vm.runtimeError("only instances have properties")
		return false
	}
	instance := bytecode.AsInstance(receiver.AsObj())
	if v, ok := instance.Fields.Get(name); ok {
		vm.pop()
		vm.push(v)
		return true
	}
	return vm.bindMethod(instance.Class, name)
}

func (vm *VM) setProperty(idx int) bool {
	name := vm.readString(idx)
	receiver := vm.peek(1)
	if !receiver.IsObj() || receiver.Type() != bytecode.TypeInstance {
		vm.runtimeError("only instances have fields")
		return false
	}
	instance := bytecode.AsInstance(receiver.AsObj())
	value := vm.pop()
	instance.Fields.Set(name, value)
	vm.pop()
	vm.push(value)
	return true
}

func (vm *VM) makeClosure(constIdx int) bool {
	fn := bytecode.AsFunction(vm.readConstant(constIdx).AsObj())
	closure := vm.heap.NewClosure(fn)
	// Push before capturing upvalues: capture can allocate (NewUpvalue),
	// which can trigger a collection, and closure must already be a root
	// by then or it gets swept out from under us.
	vm.push(bytecode.ObjVal(&closure.Obj))
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := vm.readByte()
		index := vm.readByte()
		if isLocal != 0 {
			closure.Upvalues[i] = vm.captureUpvalue(&vm.stack[vm.frame().slotsBase+int(index)])
		} else {
			closure.Upvalues[i] = vm.frame().closure.Upvalues[index]
		}
	}
	return true
}

func (vm *VM) inherit() bool {
	superVal := vm.peek(1)
	if !superVal.IsObj() || superVal.Type() != bytecode.TypeClass {
		vm.runtimeError("superclass must be a class")
		return false
	}
	subclass := bytecode.AsClass(vm.peek(0).AsObj())
	superclass := bytecode.AsClass(superVal.AsObj())
	subclass.Methods.AddAll(&superclass.Methods)
	vm.pop() // pops the subclass; the superclass stays, bound to local "super"
	return true
}
