package bytecode

// RootMarker is implemented by anything that owns Values the collector
// must treat as roots: the VM (its value stack, call frames, open
// upvalues, globals table) and, while compilation is in progress, the
// active chain of function compilers (their partially built Function
// objects). A Heap holds a set of RootMarkers rather than reaching into
// a concrete VM or Compiler type directly, which is what keeps this
// package free of an import cycle with either of them.
type RootMarker interface {
	MarkRoots(h *Heap)
}

// Heap owns every object lumen ever allocates, running a tracing
// mark-and-sweep collection whenever tracked allocation crosses a
// threshold. It is not safe for concurrent use; lumen's execution model
// is single-threaded end to end (see the VM's own doc comment).
type Heap struct {
	head           *Obj // head of the intrusive all-objects list
	bytesAllocated int
	nextGC         int
	gray           []*Obj

	strings Table // weak: unmarked keys are dropped before sweep

	roots []RootMarker

	StressGC bool
	LogGC    bool
	Log      func(format string, args ...any)
}

const gcHeapGrowFactor = 2
const gcInitialThreshold = 1 << 20 // 1 MiB floor, per the language's own GC design

// NewHeap returns an empty Heap with the default 1 MiB collection
// threshold.
func NewHeap() *Heap {
	return &Heap{nextGC: gcInitialThreshold}
}

// SetInitialThreshold overrides the collection threshold before any
// allocation has happened, letting config.Config's gc.initial-threshold-mb
// take effect.
func (h *Heap) SetInitialThreshold(bytes int) {
	h.nextGC = bytes
}

// AddRoot registers m as a GC root source. The VM registers itself for
// its whole lifetime; a function compiler registers itself only while
// it and its enclosing compilers are actively compiling.
func (h *Heap) AddRoot(m RootMarker) {
	h.roots = append(h.roots, m)
}

// RemoveRoot unregisters m, e.g. when a nested function compiler
// finishes and control returns to its enclosing compiler.
func (h *Heap) RemoveRoot(m RootMarker) {
	for i, r := range h.roots {
		if r == m {
			h.roots = append(h.roots[:i], h.roots[i+1:]...)
			return
		}
	}
}

func (h *Heap) logf(format string, args ...any) {
	if h.LogGC && h.Log != nil {
		h.Log(format, args...)
	}
}

// track registers a freshly allocated object on the all-objects list and
// accounts for its approximate size, possibly triggering a collection
// first if this allocation would take the heap over its threshold (or
// in stress mode).
func (h *Heap) track(o *Obj, size int) {
	if h.StressGC || h.bytesAllocated+size > h.nextGC {
		h.Collect()
	}
	h.bytesAllocated += size
	o.Next = h.head
	h.head = o
}

// Collect runs one full mark-and-sweep cycle: mark every root-reachable
// object, drop unmarked keys from the string intern table, then sweep
// the all-objects list, unlinking anything still unmarked so it becomes
// unreachable and Go's own collector can eventually reclaim it.
func (h *Heap) Collect() {
	h.logf("gc: begin, %d bytes allocated", h.bytesAllocated)

	for _, r := range h.roots {
		r.MarkRoots(h)
	}
	h.traceReferences()
	h.removeWhiteStrings()
	freed := h.sweep()

	if h.nextGC = h.bytesAllocated * gcHeapGrowFactor; h.nextGC < gcInitialThreshold {
		h.nextGC = gcInitialThreshold
	}
	h.logf("gc: collected %d objects, next at %d", freed, h.nextGC)
}

// MarkValue marks v's object payload, if it has one.
func (h *Heap) MarkValue(v Value) {
	if v.IsObj() {
		h.MarkObject(v.AsObj())
	}
}

// MarkObject marks o and pushes it onto the gray worklist the first
// time it is reached; later reaches of an already-marked object are a
// no-op, which is what keeps cyclic object graphs from looping forever.
func (h *Heap) MarkObject(o *Obj) {
	if o == nil || o.Marked {
		return
	}
	o.Marked = true
	h.gray = append(h.gray, o)
}

// MarkTable marks every key and every value stored in t. The string
// intern table is never passed here; removeWhiteStrings handles it as a
// weak table instead.
func (h *Heap) MarkTable(t *Table) {
	t.Each(func(key *ObjString, value Value) {
		h.MarkObject(&key.Obj)
		h.MarkValue(value)
	})
}

func (h *Heap) traceReferences() {
	for len(h.gray) > 0 {
		o := h.gray[len(h.gray)-1]
		h.gray = h.gray[:len(h.gray)-1]
		h.blacken(o)
	}
}

func (h *Heap) blacken(o *Obj) {
	switch o.Type {
	case TypeString, TypeNative:
		// no outgoing references
	case TypeUpvalue:
		u := AsUpvalue(o)
		h.MarkValue(*u.Location)
	case TypeFunction:
		f := AsFunction(o)
		if f.Name != nil {
			h.MarkObject(&f.Name.Obj)
		}
		for _, c := range f.Chunk.Constants {
			h.MarkValue(c)
		}
	case TypeClosure:
		c := AsClosure(o)
		h.MarkObject(&c.Function.Obj)
		for _, u := range c.Upvalues {
			if u != nil {
				h.MarkObject(&u.Obj)
			}
		}
	case TypeClass:
		cl := AsClass(o)
		h.MarkObject(&cl.Name.Obj)
		h.MarkTable(&cl.Methods)
	case TypeInstance:
		inst := AsInstance(o)
		h.MarkObject(&inst.Class.Obj)
		h.MarkTable(&inst.Fields)
	case TypeBoundMethod:
		bm := AsBoundMethod(o)
		h.MarkValue(bm.Receiver)
		h.MarkObject(&bm.Method.Obj)
	case TypeArray:
		a := AsArray(o)
		for _, v := range a.Elements {
			h.MarkValue(v)
		}
	}
}

// removeWhiteStrings drops any intern-table entry whose key was not
// reached during marking, keeping the intern table from being the one
// thing that keeps an otherwise-dead string alive forever.
func (h *Heap) removeWhiteStrings() {
	var dead []*ObjString
	h.strings.Each(func(key *ObjString, _ Value) {
		if !key.Marked {
			dead = append(dead, key)
		}
	})
	for _, k := range dead {
		h.strings.Delete(k)
	}
}

func (h *Heap) sweep() int {
	freed := 0
	var prev *Obj
	obj := h.head
	for obj != nil {
		if obj.Marked {
			obj.Marked = false
			prev = obj
			obj = obj.Next
			continue
		}
		unreached := obj
		obj = obj.Next
		if prev != nil {
			prev.Next = obj
		} else {
			h.head = obj
		}
		freed++
		_ = unreached
	}
	return freed
}
