package bytecode

import "testing"

// fakeRoot lets a test control exactly what the collector treats as a root.
type fakeRoot struct {
	values []Value
}

func (r *fakeRoot) MarkRoots(h *Heap) {
	for _, v := range r.values {
		h.MarkValue(v)
	}
}

func TestCollectFreesUnreachableObjects(t *testing.T) {
	h := NewHeap()
	root := &fakeRoot{}
	h.AddRoot(root)

	kept := h.InternString("kept")
	root.values = []Value{ObjVal(&kept.Obj)}

	// allocate an array nothing roots, referencing the interned string.
	dead := h.NewArray([]Value{ObjVal(&kept.Obj)})
	_ = dead

	h.Collect()

	// walk the all-objects list; the array must be gone, the string must remain.
	foundString, foundArray := false, false
	for o := h.head; o != nil; o = o.Next {
		if o.Type == TypeString && AsString(o).Chars == "kept" {
			foundString = true
		}
		if o.Type == TypeArray {
			foundArray = true
		}
	}
	if !foundString {
		t.Error("rooted string was collected")
	}
	if foundArray {
		t.Error("unrooted array survived collection")
	}
}

func TestInternStringDedups(t *testing.T) {
	h := NewHeap()
	a := h.InternString("same")
	b := h.InternString("same")
	if a != b {
		t.Fatal("interning the same content twice should return the same pointer")
	}
}

func TestWeakInternTableDropsUnmarkedStrings(t *testing.T) {
	h := NewHeap()
	root := &fakeRoot{}
	h.AddRoot(root)

	h.InternString("orphaned")
	h.Collect()

	if h.strings.FindStringKey("orphaned", hashString("orphaned")) != nil {
		t.Error("an unreferenced interned string should be dropped from the intern table")
	}
}

func TestStressGCRunsOnEveryAllocation(t *testing.T) {
	h := NewHeap()
	h.StressGC = true
	root := &fakeRoot{}
	h.AddRoot(root)

	s := h.InternString("s")
	root.values = []Value{ObjVal(&s.Obj)}

	for i := 0; i < 50; i++ {
		h.NewArray(nil)
	}
	// nothing should have crashed, and the rooted string must still be alive.
	if h.strings.FindStringKey("s", hashString("s")) == nil {
		t.Error("rooted string did not survive repeated stress collections")
	}
}
