package bytecode

import "strconv"

// Stringify renders v the way PRINT and the toString native do. It never
// allocates a new interned string; callers that need an ObjString (e.g.
// string concatenation) intern the result themselves.
func Stringify(v Value) string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		if v.AsBool() {
			return "true"
		}
		return "false"
	case v.IsNumber():
		return formatNumber(v.AsNumber())
	case v.IsObj():
		return stringifyObject(v.AsObj())
	default:
		return "?"
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func stringifyObject(o *Obj) string {
	switch o.Type {
	case TypeString:
		return AsString(o).Chars
	case TypeFunction:
		f := AsFunction(o)
		if f.Name == nil {
			return "<script>"
		}
		return "<fn " + f.Name.Chars + ">"
	case TypeClosure:
		return stringifyObject(&AsClosure(o).Function.Obj)
	case TypeNative:
		return "<native fn " + AsNative(o).Name + ">"
	case TypeUpvalue:
		return "<upvalue>"
	case TypeClass:
		return AsClass(o).Name.Chars
	case TypeInstance:
		return AsInstance(o).Class.Name.Chars + " instance"
	case TypeBoundMethod:
		return stringifyObject(&AsBoundMethod(o).Method.Function.Obj)
	case TypeArray:
		a := AsArray(o)
		s := "["
		for i, el := range a.Elements {
			if i > 0 {
				s += ", "
			}
			s += Stringify(el)
		}
		return s + "]"
	default:
		return "<object>"
	}
}

// TypeName returns the type name the getTypeName/type natives report:
// a lower-case kind name, except for an instance, which reports its
// class's name.
func TypeName(v Value) string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		return "bool"
	case v.IsNumber():
		return "number"
	case v.IsObj():
		switch v.Type() {
		case TypeInstance:
			return AsInstance(v.AsObj()).Class.Name.Chars
		default:
			return v.Type().String()
		}
	default:
		return "unknown"
	}
}
