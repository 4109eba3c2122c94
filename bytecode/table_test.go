package bytecode

import "testing"

func internedKeys(h *Heap, names ...string) []*ObjString {
	keys := make([]*ObjString, len(names))
	for i, n := range names {
		keys[i] = h.InternString(n)
	}
	return keys
}

func TestTableSetGetDelete(t *testing.T) {
	h := NewHeap()
	tbl := &Table{}
	keys := internedKeys(h, "a", "b", "c")

	for i, k := range keys {
		if !tbl.Set(k, NumberVal(float64(i))) {
			t.Fatalf("Set(%q) on fresh key should report isNew", k.Chars)
		}
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tbl.Len())
	}

	if v, ok := tbl.Get(keys[1]); !ok || v.AsNumber() != 1 {
		t.Fatalf("Get(b) = %v, %v", v, ok)
	}

	if !tbl.Delete(keys[1]) {
		t.Fatal("Delete(b) should succeed")
	}
	if _, ok := tbl.Get(keys[1]); ok {
		t.Fatal("b should be gone after Delete")
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() after delete = %d, want 2", tbl.Len())
	}

	// tombstone must not break probing for the still-live keys.
	if v, ok := tbl.Get(keys[0]); !ok || v.AsNumber() != 0 {
		t.Fatalf("Get(a) after deleting b = %v, %v", v, ok)
	}
	if v, ok := tbl.Get(keys[2]); !ok || v.AsNumber() != 2 {
		t.Fatalf("Get(c) after deleting b = %v, %v", v, ok)
	}
}

func TestTableSetOverwriteReportsNotNew(t *testing.T) {
	h := NewHeap()
	tbl := &Table{}
	k := h.InternString("x")
	if !tbl.Set(k, NumberVal(1)) {
		t.Fatal("first Set should be new")
	}
	if tbl.Set(k, NumberVal(2)) {
		t.Fatal("second Set of same key should not be new")
	}
	v, _ := tbl.Get(k)
	if v.AsNumber() != 2 {
		t.Fatalf("Get after overwrite = %v, want 2", v.AsNumber())
	}
}

func TestTableGrowRehashesCorrectly(t *testing.T) {
	h := NewHeap()
	tbl := &Table{}
	const n = 200
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = string(rune('a')) + string(rune(i))
	}
	keys := internedKeys(h, names...)
	for i, k := range keys {
		tbl.Set(k, NumberVal(float64(i)))
	}
	for i, k := range keys {
		v, ok := tbl.Get(k)
		if !ok || v.AsNumber() != float64(i) {
			t.Fatalf("key %d lost or wrong after growth: %v, %v", i, v, ok)
		}
	}
}

func TestTableFindStringKey(t *testing.T) {
	h := NewHeap()
	tbl := &Table{}
	k := h.InternString("hello")
	tbl.Set(k, Nil)
	found := tbl.FindStringKey("hello", hashString("hello"))
	if found != k {
		t.Fatal("FindStringKey should return the same interned pointer")
	}
	if tbl.FindStringKey("nope", hashString("nope")) != nil {
		t.Fatal("FindStringKey should return nil for an absent key")
	}
}

func TestTableAddAll(t *testing.T) {
	h := NewHeap()
	src := &Table{}
	dst := &Table{}
	keys := internedKeys(h, "m1", "m2")
	src.Set(keys[0], NumberVal(1))
	src.Set(keys[1], NumberVal(2))
	dst.Set(keys[0], NumberVal(99)) // should be overwritten

	dst.AddAll(src)
	if v, _ := dst.Get(keys[0]); v.AsNumber() != 1 {
		t.Fatalf("AddAll should overwrite existing key, got %v", v.AsNumber())
	}
	if v, _ := dst.Get(keys[1]); v.AsNumber() != 2 {
		t.Fatalf("AddAll should copy new key, got %v", v.AsNumber())
	}
}

func TestHashStringDeterministic(t *testing.T) {
	if hashString("abc") != hashString("abc") {
		t.Fatal("hashString must be deterministic")
	}
	if hashString("abc") == hashString("abd") {
		t.Fatal("distinct strings hashing equal is suspicious enough to flag")
	}
}
