package bytecode

// This file collects every heap allocation entry point. Each constructor
// runs its allocation through Heap.track before handing back a usable
// object, which is what lets Heap.Collect trigger from inside a
// constructor when the allocation that's about to happen would cross
// the collection threshold -- mirroring the "test the trigger before
// growing" ordering the language's own allocator uses, adapted to Go's
// lack of a manual realloc.

const (
	sizeString      = 32
	sizeFunction    = 96
	sizeClosure     = 48
	sizeNative      = 32
	sizeUpvalue     = 40
	sizeClass       = 64
	sizeInstance    = 48
	sizeBoundMethod = 32
	sizeArray       = 40
)

// InternString returns the canonical *ObjString for chars, allocating
// and interning a new one only if an equal string isn't already
// present. Every string lumen's compiler or VM ever produces -- literals,
// identifiers, concatenation results, property names -- goes through
// this path, so string equality reduces to pointer equality everywhere
// else in the codebase.
func (h *Heap) InternString(chars string) *ObjString {
	hash := hashString(chars)
	if existing := h.strings.FindStringKey(chars, hash); existing != nil {
		return existing
	}
	s := &ObjString{Chars: chars, Hash: hash}
	s.Type = TypeString
	h.track(&s.Obj, sizeString+len(chars))
	h.strings.Set(s, Nil)
	return s
}

// NewFunction allocates an empty function object; the compiler fills in
// Arity, UpvalueCount, Chunk and Name as compilation proceeds.
func (h *Heap) NewFunction() *ObjFunction {
	f := &ObjFunction{}
	f.Type = TypeFunction
	h.track(&f.Obj, sizeFunction)
	return f
}

// NewClosure allocates a closure over function, with room for its
// declared number of upvalues.
func (h *Heap) NewClosure(function *ObjFunction) *ObjClosure {
	c := &ObjClosure{Function: function, Upvalues: make([]*ObjUpvalue, function.UpvalueCount)}
	c.Type = TypeClosure
	h.track(&c.Obj, sizeClosure+8*function.UpvalueCount)
	return c
}

// NewNative wraps fn as a callable native object named name (used in
// arity-mismatch and "not callable" diagnostics).
func (h *Heap) NewNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Fn: fn}
	n.Type = TypeNative
	h.track(&n.Obj, sizeNative)
	return n
}

// NewUpvalue allocates an open upvalue pointing at slot.
func (h *Heap) NewUpvalue(slot *Value) *ObjUpvalue {
	u := &ObjUpvalue{Location: slot}
	u.Type = TypeUpvalue
	h.track(&u.Obj, sizeUpvalue)
	return u
}

// NewClass allocates a class named name with an empty method table.
func (h *Heap) NewClass(name *ObjString) *ObjClass {
	c := &ObjClass{Name: name}
	c.Type = TypeClass
	h.track(&c.Obj, sizeClass)
	return c
}

// NewInstance allocates an instance of class with an empty field table.
func (h *Heap) NewInstance(class *ObjClass) *ObjInstance {
	i := &ObjInstance{Class: class}
	i.Type = TypeInstance
	h.track(&i.Obj, sizeInstance)
	return i
}

// NewBoundMethod allocates a bound method pairing receiver with method.
func (h *Heap) NewBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	b := &ObjBoundMethod{Receiver: receiver, Method: method}
	b.Type = TypeBoundMethod
	h.track(&b.Obj, sizeBoundMethod)
	return b
}

// NewArray allocates an array initialized with elements (which may be
// nil for an empty array literal).
func (h *Heap) NewArray(elements []Value) *ObjArray {
	a := &ObjArray{Elements: elements}
	a.Type = TypeArray
	h.track(&a.Obj, sizeArray+8*len(elements))
	return a
}
