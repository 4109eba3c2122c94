package vm

import (
	"fmt"
	"time"

	"github.com/lumenlang/lumen/bytecode"
)

func registerNatives(vm *VM) {
	vm.defineNative("clock", nativeClock)
	vm.defineNative("toString", vm.nativeToString)
	vm.defineNative("getTypeName", vm.nativeGetTypeName)
	vm.defineNative("type", vm.nativeGetTypeName) // alias, see design notes
	vm.defineNative("has", vm.nativeHas)
	vm.defineNative("get", vm.nativeGet)
	vm.defineNative("set", vm.nativeSet)
	vm.defineNative("size", nativeSize)
	vm.defineNative("assert", nativeAssert)
	vm.defineNative("arrayPush", nativeArrayPush)
	vm.defineNative("arrayPop", nativeArrayPop)
}

func (vm *VM) defineNative(name string, fn bytecode.NativeFn) {
	// Both objects stay on the value stack until the globals table holds
	// them, since each allocation can trigger a collection.
	nameStr := vm.heap.InternString(name)
	vm.push(bytecode.ObjVal(&nameStr.Obj))
	native := vm.heap.NewNative(name, fn)
	vm.push(bytecode.ObjVal(&native.Obj))
	vm.globals.Set(nameStr, bytecode.ObjVal(&native.Obj))
	vm.pop()
	vm.pop()
}

func nativeClock(args []bytecode.Value) (bytecode.Value, error) {
	return bytecode.NumberVal(float64(time.Now().UnixNano()) / 1e9), nil
}

func (vm *VM) nativeToString(args []bytecode.Value) (bytecode.Value, error) {
	if len(args) != 1 {
		return bytecode.Nil, fmt.Errorf("toString expects 1 argument, got %d", len(args))
	}
	s := vm.heap.InternString(bytecode.Stringify(args[0]))
	return bytecode.ObjVal(&s.Obj), nil
}

func (vm *VM) nativeGetTypeName(args []bytecode.Value) (bytecode.Value, error) {
	if len(args) != 1 {
		return bytecode.Nil, fmt.Errorf("getTypeName expects 1 argument, got %d", len(args))
	}
	s := vm.heap.InternString(bytecode.TypeName(args[0]))
	return bytecode.ObjVal(&s.Obj), nil
}

func nativeSize(args []bytecode.Value) (bytecode.Value, error) {
	if len(args) != 1 {
		return bytecode.Nil, fmt.Errorf("size expects 1 argument, got %d", len(args))
	}
	v := args[0]
	if !v.IsObj() {
		return bytecode.Nil, fmt.Errorf("size: unsupported type %s", bytecode.TypeName(v))
	}
	switch v.Type() {
	case bytecode.TypeArray:
		return bytecode.NumberVal(float64(len(bytecode.AsArray(v.AsObj()).Elements))), nil
	case bytecode.TypeInstance:
		return bytecode.NumberVal(float64(bytecode.AsInstance(v.AsObj()).Fields.Len())), nil
	case bytecode.TypeString:
		return bytecode.NumberVal(float64(len(bytecode.AsString(v.AsObj()).Chars))), nil
	default:
		return bytecode.Nil, fmt.Errorf("size: unsupported type %s", bytecode.TypeName(v))
	}
}

// nativeHas checks whether an instance has a field named key. A non-string
// key is not an error: it silently reports false, since "does this
// object have a property named by this non-name value" is always false
// rather than a type mismatch worth aborting the program over.
func (vm *VM) nativeHas(args []bytecode.Value) (bytecode.Value, error) {
	if len(args) != 2 {
		return bytecode.Nil, fmt.Errorf("has expects 2 arguments, got %d", len(args))
	}
	receiver, key := args[0], args[1]
	if !receiver.IsObj() {
		return bytecode.False, nil
	}
	switch receiver.Type() {
	case bytecode.TypeInstance:
		if !isString(key) {
			return bytecode.False, nil
		}
		return bytecode.BoolVal(bytecode.AsInstance(receiver.AsObj()).Fields.Has(bytecode.AsString(key.AsObj()))), nil
	case bytecode.TypeArray:
		if !key.IsNumber() {
			return bytecode.False, nil
		}
		idx := int(key.AsNumber())
		arr := bytecode.AsArray(receiver.AsObj())
		return bytecode.BoolVal(idx >= 0 && idx < len(arr.Elements)), nil
	default:
		return bytecode.False, nil
	}
}

// nativeGet is a safe accessor: a missing instance field or an
// out-of-range array index returns nil rather than aborting the
// program, unlike the `[]` subscript operator and `.` property access,
// which do raise runtime errors.
func (vm *VM) nativeGet(args []bytecode.Value) (bytecode.Value, error) {
	if len(args) != 2 {
		return bytecode.Nil, fmt.Errorf("get expects 2 arguments, got %d", len(args))
	}
	receiver, key := args[0], args[1]
	if !receiver.IsObj() {
		return bytecode.Nil, fmt.Errorf("get: unsupported type %s", bytecode.TypeName(receiver))
	}
	switch receiver.Type() {
	case bytecode.TypeInstance:
		if !isString(key) {
			return bytecode.Nil, nil
		}
		v, _ := bytecode.AsInstance(receiver.AsObj()).Fields.Get(bytecode.AsString(key.AsObj()))
		return v, nil
	case bytecode.TypeArray:
		if !key.IsNumber() {
			return bytecode.Nil, nil
		}
		idx := int(key.AsNumber())
		arr := bytecode.AsArray(receiver.AsObj())
		if idx < 0 || idx >= len(arr.Elements) {
			return bytecode.Nil, nil
		}
		return arr.Elements[idx], nil
	default:
		return bytecode.Nil, fmt.Errorf("get: unsupported type %s", bytecode.TypeName(receiver))
	}
}

// nativeSet mirrors `.` property assignment for instances (any string
// key creates or overwrites a field) but, for arrays, requires the
// index already be in range: it is a bounds-checked overwrite, not a
// growth operation (see arrayPush for that).
func (vm *VM) nativeSet(args []bytecode.Value) (bytecode.Value, error) {
	if len(args) != 3 {
		return bytecode.Nil, fmt.Errorf("set expects 3 arguments, got %d", len(args))
	}
	receiver, key, value := args[0], args[1], args[2]
	if !receiver.IsObj() {
		return bytecode.Nil, fmt.Errorf("set: unsupported type %s", bytecode.TypeName(receiver))
	}
	switch receiver.Type() {
	case bytecode.TypeInstance:
		if !isString(key) {
			return bytecode.Nil, fmt.Errorf("set: instance field key must be a string")
		}
		bytecode.AsInstance(receiver.AsObj()).Fields.Set(bytecode.AsString(key.AsObj()), value)
		return value, nil
	case bytecode.TypeArray:
		if !key.IsNumber() {
			return bytecode.Nil, fmt.Errorf("set: array index must be a number")
		}
		idx := int(key.AsNumber())
		arr := bytecode.AsArray(receiver.AsObj())
		if idx < 0 || idx >= len(arr.Elements) {
			return bytecode.Nil, fmt.Errorf("set: array index out of bounds")
		}
		arr.Elements[idx] = value
		return value, nil
	default:
		return bytecode.Nil, fmt.Errorf("set: unsupported type %s", bytecode.TypeName(receiver))
	}
}

func nativeAssert(args []bytecode.Value) (bytecode.Value, error) {
	if len(args) != 2 {
		return bytecode.Nil, fmt.Errorf("assert expects 2 arguments, got %d", len(args))
	}
	if args[0].IsFalsy() {
		return bytecode.Nil, fmt.Errorf("%s", bytecode.Stringify(args[1]))
	}
	return bytecode.Nil, nil
}

func nativeArrayPush(args []bytecode.Value) (bytecode.Value, error) {
	if len(args) != 2 {
		return bytecode.Nil, fmt.Errorf("arrayPush expects 2 arguments, got %d", len(args))
	}
	if !args[0].IsObj() || args[0].Type() != bytecode.TypeArray {
		return bytecode.Nil, fmt.Errorf("arrayPush: first argument must be an array")
	}
	arr := bytecode.AsArray(args[0].AsObj())
	arr.Elements = append(arr.Elements, args[1])
	return args[1], nil
}

func nativeArrayPop(args []bytecode.Value) (bytecode.Value, error) {
	if len(args) != 1 {
		return bytecode.Nil, fmt.Errorf("arrayPop expects 1 argument, got %d", len(args))
	}
	if !args[0].IsObj() || args[0].Type() != bytecode.TypeArray {
		return bytecode.Nil, fmt.Errorf("arrayPop: argument must be an array")
	}
	arr := bytecode.AsArray(args[0].AsObj())
	if len(arr.Elements) == 0 {
		return bytecode.Nil, fmt.Errorf("arrayPop: array is empty")
	}
	last := arr.Elements[len(arr.Elements)-1]
	arr.Elements = arr.Elements[:len(arr.Elements)-1]
	return last, nil
}
