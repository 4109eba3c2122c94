package vm

import "github.com/lumenlang/lumen/bytecode"

// add implements OP_ADD's two overloads: numeric addition, and string
// concatenation whenever either operand is a string, stringifying the
// other operand through the same conversion toString uses.
func (vm *VM) add() bool {
	b, a := vm.peek(0), vm.peek(1)
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(bytecode.NumberVal(a.AsNumber() + b.AsNumber()))
		return true
	case isString(a) || isString(b):
		vm.pop()
		vm.pop()
		concat := bytecode.Stringify(a) + bytecode.Stringify(b)
		s := vm.heap.InternString(concat)
		vm.push(bytecode.ObjVal(&s.Obj))
		return true
	default:
		vm.runtimeError("operands must be numbers or strings")
		return false
	}
}

func isString(v bytecode.Value) bool { return v.IsObj() && v.Type() == bytecode.TypeString }

func (vm *VM) numericBinary(op bytecode.Opcode) bool {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		vm.runtimeError("operands must be numbers")
		return false
	}
	b, a := vm.pop().AsNumber(), vm.pop().AsNumber()
	switch op {
	case bytecode.OpSubtract:
		vm.push(bytecode.NumberVal(a - b))
	case bytecode.OpMultiply:
		vm.push(bytecode.NumberVal(a * b))
	case bytecode.OpDivide:
		if b == 0 {
			vm.runtimeError("division by zero")
			return false
		}
		vm.push(bytecode.NumberVal(a / b))
	}
	return true
}

func (vm *VM) comparisonBinary(op bytecode.Opcode) bool {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		vm.runtimeError("operands must be numbers")
		return false
	}
	b, a := vm.pop().AsNumber(), vm.pop().AsNumber()
	switch op {
	case bytecode.OpGreater:
		vm.push(bytecode.BoolVal(a > b))
	case bytecode.OpGreaterEqual:
		vm.push(bytecode.BoolVal(a >= b))
	case bytecode.OpLess:
		vm.push(bytecode.BoolVal(a < b))
	case bytecode.OpLessEqual:
		vm.push(bytecode.BoolVal(a <= b))
	}
	return true
}

// integerBinary implements the bitwise operators, which truncate their
// double operands to int64 first (lumen has no separate integer type).
func (vm *VM) integerBinary(op bytecode.Opcode) bool {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		vm.runtimeError("operands must be numbers")
		return false
	}
	b, a := int64(vm.pop().AsNumber()), int64(vm.pop().AsNumber())
	switch op {
	case bytecode.OpShiftLeft:
		vm.push(bytecode.NumberVal(float64(a << uint(b))))
	case bytecode.OpShiftRight:
		vm.push(bytecode.NumberVal(float64(a >> uint(b))))
	case bytecode.OpBitAnd:
		vm.push(bytecode.NumberVal(float64(a & b)))
	case bytecode.OpBitOr:
		vm.push(bytecode.NumberVal(float64(a | b)))
	case bytecode.OpBitXor:
		vm.push(bytecode.NumberVal(float64(a ^ b)))
	}
	return true
}

func (vm *VM) subscript() bool {
	indexVal, receiver := vm.pop(), vm.pop()
	if !receiver.IsObj() || receiver.Type() != bytecode.TypeArray {
		vm.runtimeError("only arrays support subscripting")
		return false
	}
	if !indexVal.IsNumber() {
		vm.runtimeError("array index must be a number")
		return false
	}
	arr := bytecode.AsArray(receiver.AsObj())
	idx := int(indexVal.AsNumber())
	if idx < 0 || idx >= len(arr.Elements) {
		vm.runtimeError("array index out of bounds")
		return false
	}
	vm.push(arr.Elements[idx])
	return true
}

func (vm *VM) subscriptAssign() bool {
	value, indexVal, receiver := vm.pop(), vm.pop(), vm.pop()
	if !receiver.IsObj() || receiver.Type() != bytecode.TypeArray {
		vm.runtimeError("only arrays support subscripting")
		return false
	}
	if !indexVal.IsNumber() {
		vm.runtimeError("array index must be a number")
		return false
	}
	arr := bytecode.AsArray(receiver.AsObj())
	idx := int(indexVal.AsNumber())
	if idx < 0 || idx >= len(arr.Elements) {
		vm.runtimeError("array index out of bounds")
		return false
	}
	arr.Elements[idx] = value
	vm.push(value)
	return true
}
