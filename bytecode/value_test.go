package bytecode

import "testing"

func TestValueNumberRoundTrip(t *testing.T) {
	for _, n := range []float64{0, 1, -1, 3.5, -3.5, 1e300, -1e-300} {
		v := NumberVal(n)
		if !v.IsNumber() {
			t.Fatalf("NumberVal(%v).IsNumber() = false", n)
		}
		if got := v.AsNumber(); got != n {
			t.Errorf("NumberVal(%v).AsNumber() = %v", n, got)
		}
	}
}

func TestValueSingletons(t *testing.T) {
	if !Nil.IsNil() {
		t.Error("Nil.IsNil() = false")
	}
	if !True.IsBool() || !True.AsBool() {
		t.Error("True is not a true bool")
	}
	if !False.IsBool() || False.AsBool() {
		t.Error("False is not a false bool")
	}
	if Nil.IsBool() || True.IsNil() || False.IsNumber() {
		t.Error("tag predicates overlap unexpectedly")
	}
}

func TestValueTruthiness(t *testing.T) {
	h := NewHeap()
	empty := ObjVal(&h.InternString("").Obj)
	nonEmpty := ObjVal(&h.InternString("x").Obj)

	falsy := []Value{Nil, False, NumberVal(0), empty}
	truthy := []Value{True, NumberVal(1), NumberVal(-1), nonEmpty}
	for _, v := range falsy {
		if !v.IsFalsy() {
			t.Errorf("%v should be falsy", v)
		}
	}
	for _, v := range truthy {
		if v.IsFalsy() {
			t.Errorf("%v should be truthy", v)
		}
	}
}

func TestValueObjRoundTrip(t *testing.T) {
	h := NewHeap()
	s := h.InternString("hello")
	v := ObjVal(&s.Obj)
	if !v.IsObj() {
		t.Fatal("ObjVal result is not IsObj")
	}
	if v.Type() != TypeString {
		t.Fatalf("Type() = %v, want TypeString", v.Type())
	}
	if AsString(v.AsObj()).Chars != "hello" {
		t.Fatalf("round-tripped string mismatch")
	}
}

func TestEqual(t *testing.T) {
	h := NewHeap()
	a := ObjVal(&h.InternString("x").Obj)
	b := ObjVal(&h.InternString("x").Obj)
	if !Equal(a, b) {
		t.Error("interned equal strings should compare equal")
	}
	if Equal(NumberVal(1), NumberVal(2)) {
		t.Error("1 should not equal 2")
	}
	if !Equal(NumberVal(1), NumberVal(1)) {
		t.Error("1 should equal 1")
	}
	if Equal(Nil, False) {
		t.Error("nil should not equal false")
	}
}
