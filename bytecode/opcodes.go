package bytecode

// Opcode identifies a single bytecode instruction. The constant-indexed
// opcodes come in a short form (an 8-bit constant-pool index) and a long
// form with the same mnemonic plus a "Long" suffix (a 16-bit, big-endian
// index) for chunks that outgrow 256 constants. Local and upvalue slot
// opcodes have only the 8-bit form. The compiler picks short or long per
// emission site based on the actual index; the VM dispatches on
// whichever byte it reads.
type Opcode byte

const (
	OpConstant Opcode = iota
	OpConstantLong
	OpByteNum // pushes a small integer 0-255 straight from its operand, no constant-pool lookup
	OpNil
	OpTrue
	OpFalse
	OpPop

	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNegate
	OpNot
	OpInvert // bitwise complement
	OpShiftLeft
	OpShiftRight
	OpBitAnd
	OpBitOr
	OpBitXor
	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual

	OpDefineGlobal
	OpDefineGlobalLong
	OpGetGlobal
	OpGetGlobalLong
	OpSetGlobal
	OpSetGlobalLong

	OpGetLocal
	OpSetLocal
	OpGetUpvalue
	OpSetUpvalue

	OpGetProperty
	OpGetPropertyLong
	OpSetProperty
	OpSetPropertyLong
	OpGetSuper
	OpGetSuperLong
	OpSuperInvoke
	OpSuperInvokeLong

	OpJump
	OpJumpBackwards
	OpJumpIfFalse
	OpJumpIfTrue

	OpCall
	OpInvoke
	OpInvokeLong
	OpClosure
	OpClosureLong
	OpCloseUpvalue
	OpReturn
	OpReturnNil

	OpSubscript
	OpSubscriptAssign
	OpNewArray

	OpClass
	OpClassLong
	OpInherit
	OpMethod
	OpMethodLong

	OpPrint

	opcodeCount
)

// OperandLen returns how many operand bytes follow the opcode byte
// itself. OP_CLOSURE and OP_CLOSURE_LONG return -1: their trailing
// upvalue descriptor bytes are variable-length, sized by the target
// function's UpvalueCount, so only the VM (which has that function in
// hand) can skip over them. There is no general bytecode disassembler
// in this codebase, and neither the dispatch loop nor the execution
// tracer calls OperandLen; it records the operand layout the compiler
// emits for each opcode.
func (op Opcode) OperandLen() int {
	switch op {
	case OpConstant, OpByteNum, OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue,
		OpGetProperty, OpSetProperty, OpGetSuper, OpCall, OpClass, OpMethod,
		OpDefineGlobal, OpGetGlobal, OpSetGlobal:
		return 1
	case OpConstantLong, OpDefineGlobalLong, OpGetGlobalLong, OpSetGlobalLong,
		OpGetPropertyLong, OpSetPropertyLong, OpGetSuperLong,
		OpJump, OpJumpBackwards, OpJumpIfFalse, OpJumpIfTrue,
		OpClassLong, OpMethodLong, OpNewArray, OpInvoke, OpSuperInvoke:
		return 2
	case OpInvokeLong, OpSuperInvokeLong:
		return 3
	case OpClosure, OpClosureLong:
		return -1
	default:
		return 0
	}
}

// IsJump reports whether op is one of the four jump instructions.
func (op Opcode) IsJump() bool {
	switch op {
	case OpJump, OpJumpBackwards, OpJumpIfFalse, OpJumpIfTrue:
		return true
	}
	return false
}

var opcodeNames = map[Opcode]string{
	OpConstant: "OP_CONSTANT", OpConstantLong: "OP_CONSTANT_LONG", OpByteNum: "OP_BYTE_NUM",
	OpNil: "OP_NIL", OpTrue: "OP_TRUE", OpFalse: "OP_FALSE", OpPop: "OP_POP",
	OpAdd: "OP_ADD", OpSubtract: "OP_SUBTRACT", OpMultiply: "OP_MULTIPLY", OpDivide: "OP_DIVIDE",
	OpNegate: "OP_NEGATE", OpNot: "OP_NOT", OpInvert: "OP_INVERT",
	OpShiftLeft: "OP_SHIFT_LEFT", OpShiftRight: "OP_SHIFT_RIGHT",
	OpBitAnd: "OP_BIT_AND", OpBitOr: "OP_BIT_OR", OpBitXor: "OP_BIT_XOR",
	OpEqual: "OP_EQUAL", OpNotEqual: "OP_NOT_EQUAL",
	OpGreater: "OP_GREATER", OpGreaterEqual: "OP_GREATER_EQUAL",
	OpLess: "OP_LESS", OpLessEqual: "OP_LESS_EQUAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL", OpDefineGlobalLong: "OP_DEFINE_GLOBAL_LONG",
	OpGetGlobal: "OP_GET_GLOBAL", OpGetGlobalLong: "OP_GET_GLOBAL_LONG",
	OpSetGlobal: "OP_SET_GLOBAL", OpSetGlobalLong: "OP_SET_GLOBAL_LONG",
	OpGetLocal: "OP_GET_LOCAL", OpSetLocal: "OP_SET_LOCAL",
	OpGetUpvalue: "OP_GET_UPVALUE", OpSetUpvalue: "OP_SET_UPVALUE",
	OpGetProperty: "OP_GET_PROPERTY", OpGetPropertyLong: "OP_GET_PROPERTY_LONG",
	OpSetProperty: "OP_SET_PROPERTY", OpSetPropertyLong: "OP_SET_PROPERTY_LONG",
	OpGetSuper: "OP_GET_SUPER", OpGetSuperLong: "OP_GET_SUPER_LONG",
	OpSuperInvoke: "OP_SUPER_INVOKE", OpSuperInvokeLong: "OP_SUPER_INVOKE_LONG",
	OpJump: "OP_JUMP", OpJumpBackwards: "OP_JUMP_BACKWARDS",
	OpJumpIfFalse: "OP_JUMP_IF_FALSE", OpJumpIfTrue: "OP_JUMP_IF_TRUE",
	OpCall: "OP_CALL", OpInvoke: "OP_INVOKE", OpInvokeLong: "OP_INVOKE_LONG",
	OpClosure: "OP_CLOSURE", OpClosureLong: "OP_CLOSURE_LONG", OpCloseUpvalue: "OP_CLOSE_UPVALUE",
	OpReturn: "OP_RETURN", OpReturnNil: "OP_RETURN_NIL",
	OpSubscript: "OP_SUBSCRIPT", OpSubscriptAssign: "OP_SUBSCRIPT_ASSIGN", OpNewArray: "OP_NEW_ARRAY",
	OpClass: "OP_CLASS", OpClassLong: "OP_CLASS_LONG", OpInherit: "OP_INHERIT",
	OpMethod: "OP_METHOD", OpMethodLong: "OP_METHOD_LONG",
	OpPrint: "OP_PRINT",
}

// String renders op's mnemonic, used by the "trace: 0004 OP_ADD"
// execution log.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "OP_UNKNOWN"
}
