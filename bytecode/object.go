package bytecode

import "unsafe"

// ObjType tags the concrete kind of a heap object.
type ObjType byte

const (
	TypeString ObjType = iota
	TypeFunction
	TypeClosure
	TypeNative
	TypeUpvalue
	TypeClass
	TypeInstance
	TypeBoundMethod
	TypeArray
)

func (t ObjType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeFunction:
		return "function"
	case TypeClosure:
		return "closure"
	case TypeNative:
		return "native"
	case TypeUpvalue:
		return "upvalue"
	case TypeClass:
		return "class"
	case TypeInstance:
		return "instance"
	case TypeBoundMethod:
		return "bound method"
	case TypeArray:
		return "array"
	default:
		return "object"
	}
}

// Obj is the header every heap object embeds as its first field. Every
// concrete object type below starts with an anonymous Obj, so a pointer
// to the concrete type and a pointer to its embedded Obj share the same
// address; that lets the collector and the NaN-boxed Value type move
// between "some heap object" and "this specific kind of heap object"
// with a plain unsafe.Pointer conversion, gated on Type.
//
// Next threads every live allocation onto the Heap's all-objects list.
// Because that list holds real *Obj values -- not the uintptr bit
// patterns a NaN-boxed Value carries -- every reachable object stays
// visible to Go's own garbage collector for as long as lumen's
// mark-and-sweep collector considers it live.
type Obj struct {
	Type   ObjType
	Marked bool
	Next   *Obj
}

func unsafeObjPointer(o *Obj) unsafe.Pointer { return unsafe.Pointer(o) }

func objFromUintptr(p uintptr) *Obj { return (*Obj)(unsafe.Pointer(p)) }

// ObjString is an immutable, interned character sequence. Two ObjStrings
// with equal contents are always the same pointer once interned through
// a Heap, so lumen's == on strings degrades to pointer comparison.
type ObjString struct {
	Obj
	Chars string
	Hash  uint32
}

// AsString reinterprets o as an *ObjString. The caller is responsible
// for having checked o.Type == TypeString.
func AsString(o *Obj) *ObjString { return (*ObjString)(unsafe.Pointer(o)) }

// ObjFunction is a compiled function body: its arity, how many upvalues
// it closes over, the bytecode implementing it, and its name for
// diagnostics (nil for the implicit top-level script function).
type ObjFunction struct {
	Obj
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *ObjString
}

// AsFunction reinterprets o as an *ObjFunction.
func AsFunction(o *Obj) *ObjFunction { return (*ObjFunction)(unsafe.Pointer(o)) }

// ObjUpvalue is a reference to a variable captured by a closure. While
// Open, Location points into the owning frame's slice of the VM's value
// stack; once the frame returns, Close copies the value into Closed and
// repoints Location at it, so the closure keeps working after its
// defining frame is gone.
type ObjUpvalue struct {
	Obj
	Location *Value
	Closed   Value
	NextOpen *ObjUpvalue // link in the VM's open-upvalue list, ordered by stack depth
}

// AsUpvalue reinterprets o as an *ObjUpvalue.
func AsUpvalue(o *Obj) *ObjUpvalue { return (*ObjUpvalue)(unsafe.Pointer(o)) }

// Close copies the pointed-to stack slot into the upvalue itself and
// repoints Location at that copy.
func (u *ObjUpvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

// ObjClosure pairs a compiled Function with the live upvalues it
// captured at the point of its OP_CLOSURE creation.
type ObjClosure struct {
	Obj
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

// AsClosure reinterprets o as an *ObjClosure.
func AsClosure(o *Obj) *ObjClosure { return (*ObjClosure)(unsafe.Pointer(o)) }

// NativeFn is the signature every native function implements: given its
// argument slice, it returns a Value or an error describing why it
// could not produce one.
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a Go function so the VM can call it like any other
// callable.
type ObjNative struct {
	Obj
	Name string
	Fn   NativeFn
}

// AsNative reinterprets o as an *ObjNative.
func AsNative(o *Obj) *ObjNative { return (*ObjNative)(unsafe.Pointer(o)) }

// ObjClass is a runtime class: its name and its method table, keyed by
// interned method-name string and holding ObjClosure values. Subclasses
// get a bulk copy of their superclass's method table at INHERIT time,
// so lookups never walk a superclass chain at call time.
type ObjClass struct {
	Obj
	Name    *ObjString
	Methods Table
}

// AsClass reinterprets o as an *ObjClass.
func AsClass(o *Obj) *ObjClass { return (*ObjClass)(unsafe.Pointer(o)) }

// ObjInstance is a runtime instance of a class: a class pointer and an
// open-ended table of field values, created empty and populated lazily
// by field assignment.
type ObjInstance struct {
	Obj
	Class  *ObjClass
	Fields Table
}

// AsInstance reinterprets o as an *ObjInstance.
func AsInstance(o *Obj) *ObjInstance { return (*ObjInstance)(unsafe.Pointer(o)) }

// ObjBoundMethod pairs an instance receiver with one of its class's
// methods, produced whenever a method is looked up as a value (rather
// than called directly) so `this` still resolves correctly when the
// bound method is later invoked.
type ObjBoundMethod struct {
	Obj
	Receiver Value
	Method   *ObjClosure
}

// AsBoundMethod reinterprets o as an *ObjBoundMethod.
func AsBoundMethod(o *Obj) *ObjBoundMethod { return (*ObjBoundMethod)(unsafe.Pointer(o)) }

// ObjArray is a growable, heterogeneously typed sequence, the backing
// store for array literals, arrayPush/arrayPop and subscript access.
type ObjArray struct {
	Obj
	Elements []Value
}

// AsArray reinterprets o as an *ObjArray.
func AsArray(o *Obj) *ObjArray { return (*ObjArray)(unsafe.Pointer(o)) }
