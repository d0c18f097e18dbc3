package inja

import (
	"strconv"
	"strings"
)

// NewBuiltinRegistry builds the fixed operator/string/number/
// collection table spec.md §4.6 names, registered by (name, arity)
// exactly like a user callback would be (spec.md §9 "Builtins as
// data"). Environment layers this under the user callback registry so
// a user can shadow any of these by name.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	registerStringBuiltins(r)
	registerCollectionBuiltins(r)
	registerNumberBuiltins(r)
	registerArrayFuncs(r)
	return r
}

func registerStringBuiltins(r *Registry) {
	r.addBuiltin("upper", 1, func(args []Value) (Value, *BuiltinError) {
		s, err := wantString(args[0], "upper")
		if err != nil {
			return Null, err
		}
		return String(strings.ToUpper(s)), nil
	})
	r.addBuiltin("lower", 1, func(args []Value) (Value, *BuiltinError) {
		s, err := wantString(args[0], "lower")
		if err != nil {
			return Null, err
		}
		return String(strings.ToLower(s)), nil
	})
	r.addBuiltin("trim", 1, func(args []Value) (Value, *BuiltinError) {
		s, err := wantString(args[0], "trim")
		if err != nil {
			return Null, err
		}
		return String(strings.TrimSpace(s)), nil
	})
	r.addBuiltin("capitalize", 1, func(args []Value) (Value, *BuiltinError) {
		s, err := wantString(args[0], "capitalize")
		if err != nil {
			return Null, err
		}
		if s == "" {
			return String(s), nil
		}
		r := []rune(s)
		return String(strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))), nil
	})
	r.addBuiltin("replace", 3, func(args []Value) (Value, *BuiltinError) {
		s, err := wantString(args[0], "replace")
		if err != nil {
			return Null, err
		}
		old, err := wantString(args[1], "replace")
		if err != nil {
			return Null, err
		}
		nw, err := wantString(args[2], "replace")
		if err != nil {
			return Null, err
		}
		return String(strings.ReplaceAll(s, old, nw)), nil
	})
	r.addBuiltin("split", 2, func(args []Value) (Value, *BuiltinError) {
		s, err := wantString(args[0], "split")
		if err != nil {
			return Null, err
		}
		sep, err := wantString(args[1], "split")
		if err != nil {
			return Null, err
		}
		parts := strings.Split(s, sep)
		items := make([]Value, len(parts))
		for i, p := range parts {
			items[i] = String(p)
		}
		return Array(items...), nil
	})
	r.addBuiltin("join", 2, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsArray() {
			return Null, typeError("join expects an array")
		}
		sep, err := wantString(args[1], "join")
		if err != nil {
			return Null, err
		}
		parts := make([]string, args[0].Len())
		for i, item := range args[0].ArrayVal() {
			parts[i] = item.String()
		}
		return String(strings.Join(parts, sep)), nil
	})
}

func registerCollectionBuiltins(r *Registry) {
	r.addBuiltin("length", 1, func(args []Value) (Value, *BuiltinError) {
		v := args[0]
		if !v.IsString() && !v.IsArray() && !v.IsObject() {
			return Null, typeError("length expects a string, array or object")
		}
		return Int(int64(v.Len())), nil
	})
	r.addBuiltin("sort", 1, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsArray() {
			return Null, typeError("sort expects an array")
		}
		return SortValues(args[0]), nil
	})
	r.addBuiltin("first", 1, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsArray() {
			return Null, typeError("first expects an array")
		}
		v, ok := args[0].At(0)
		if !ok {
			return Null, nil
		}
		return v, nil
	})
	r.addBuiltin("last", 1, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsArray() {
			return Null, typeError("last expects an array")
		}
		v, ok := args[0].At(-1)
		if !ok {
			return Null, nil
		}
		return v, nil
	})
	r.addBuiltin("range", 1, func(args []Value) (Value, *BuiltinError) {
		n, err := wantInt(args[0], "range")
		if err != nil {
			return Null, err
		}
		return rangeValues(0, n), nil
	})
	r.addBuiltin("range", 2, func(args []Value) (Value, *BuiltinError) {
		start, err := wantInt(args[0], "range")
		if err != nil {
			return Null, err
		}
		stop, err := wantInt(args[1], "range")
		if err != nil {
			return Null, err
		}
		return rangeValues(start, stop), nil
	})
	r.addBuiltin("at", 2, func(args []Value) (Value, *BuiltinError) {
		return atBuiltin(args[0], args[1])
	})
	r.addBuiltin("existsIn", 2, func(args []Value) (Value, *BuiltinError) {
		return Bool(containsValue(args[0], args[1])), nil
	})
}

func registerNumberBuiltins(r *Registry) {
	r.addBuiltin("int", 1, func(args []Value) (Value, *BuiltinError) {
		return coerceInt(args[0])
	})
	r.addBuiltin("float", 1, func(args []Value) (Value, *BuiltinError) {
		return coerceFloat(args[0])
	})
	r.addBuiltin("abs", 1, func(args []Value) (Value, *BuiltinError) {
		v := args[0]
		switch v.Kind() {
		case KindInt:
			if v.IntVal() < 0 {
				return Int(-v.IntVal()), nil
			}
			return v, nil
		case KindUint:
			return v, nil
		case KindFloat:
			if v.FloatVal() < 0 {
				return Float(-v.FloatVal()), nil
			}
			return v, nil
		default:
			return Null, typeError("abs expects a number")
		}
	})
	r.addBuiltin("round", 1, func(args []Value) (Value, *BuiltinError) {
		f, err := wantFloat(args[0], "round")
		if err != nil {
			return Null, err
		}
		return Float(roundTo(f, 0)), nil
	})
	r.addBuiltin("round", 2, func(args []Value) (Value, *BuiltinError) {
		f, err := wantFloat(args[0], "round")
		if err != nil {
			return Null, err
		}
		nd, err := wantInt(args[1], "round")
		if err != nil {
			return Null, err
		}
		return Float(roundTo(f, int(nd))), nil
	})
	r.addBuiltin("min", -1, func(args []Value) (Value, *BuiltinError) { return minMax(args, true) })
	r.addBuiltin("max", -1, func(args []Value) (Value, *BuiltinError) { return minMax(args, false) })
}

func wantString(v Value, fn string) (string, *BuiltinError) {
	if !v.IsString() {
		return "", typeError("%s expects a string", fn)
	}
	return v.StringVal(), nil
}

func wantInt(v Value, fn string) (int64, *BuiltinError) {
	if !v.IsNumber() {
		return 0, typeError("%s expects a number", fn)
	}
	n, _ := v.AsInt64()
	return n, nil
}

func wantFloat(v Value, fn string) (float64, *BuiltinError) {
	if !v.IsNumber() {
		return 0, typeError("%s expects a number", fn)
	}
	f, _ := v.AsFloat64()
	return f, nil
}

func rangeValues(start, stop int64) Value {
	if stop <= start {
		return Array()
	}
	items := make([]Value, 0, stop-start)
	for i := start; i < stop; i++ {
		items = append(items, Int(i))
	}
	return Array(items...)
}

func atBuiltin(coll, idx Value) (Value, *BuiltinError) {
	if !coll.IsArray() {
		return Null, typeError("at expects an array")
	}
	i, err := wantInt(idx, "at")
	if err != nil {
		return Null, err
	}
	v, ok := coll.At(int(i))
	if !ok {
		return Null, indexError("index %d out of range", i)
	}
	return v, nil
}

func containsValue(coll, needle Value) bool {
	switch coll.Kind() {
	case KindArray:
		for _, item := range coll.ArrayVal() {
			if item.Equal(needle) {
				return true
			}
		}
		return false
	case KindObject:
		if !needle.IsString() {
			return false
		}
		_, ok := coll.Get(needle.StringVal())
		return ok
	case KindString:
		return strings.Contains(coll.StringVal(), needle.String())
	default:
		return false
	}
}

func coerceInt(v Value) (Value, *BuiltinError) {
	switch v.Kind() {
	case KindInt, KindUint, KindFloat:
		n, _ := v.AsInt64()
		return Int(n), nil
	case KindString:
		n, e := strconv.ParseInt(strings.TrimSpace(v.StringVal()), 10, 64)
		if e != nil {
			return Null, typeError("cannot convert %q to int", v.StringVal())
		}
		return Int(n), nil
	case KindBool:
		if v.BoolVal() {
			return Int(1), nil
		}
		return Int(0), nil
	default:
		return Null, typeError("int expects a number, string or bool")
	}
}

func coerceFloat(v Value) (Value, *BuiltinError) {
	switch v.Kind() {
	case KindInt, KindUint, KindFloat:
		f, _ := v.AsFloat64()
		return Float(f), nil
	case KindString:
		f, e := strconv.ParseFloat(strings.TrimSpace(v.StringVal()), 64)
		if e != nil {
			return Null, typeError("cannot convert %q to float", v.StringVal())
		}
		return Float(f), nil
	default:
		return Null, typeError("float expects a number or string")
	}
}

func roundTo(f float64, ndigits int) float64 {
	mult := 1.0
	for i := 0; i < ndigits; i++ {
		mult *= 10
	}
	for i := 0; i > ndigits; i-- {
		mult /= 10
	}
	if mult == 1 {
		return float64(int64(f + signOf(f)*0.5))
	}
	return float64(int64(f*mult+signOf(f)*0.5)) / mult
}

func signOf(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

func minMax(args []Value, wantMin bool) (Value, *BuiltinError) {
	items := args
	if len(args) == 1 && args[0].IsArray() {
		items = args[0].ArrayVal()
	}
	if len(items) == 0 {
		return Null, typeError("min/max expects at least one value")
	}
	best := items[0]
	for _, v := range items[1:] {
		if !best.IsNumber() || !v.IsNumber() {
			return Null, typeError("min/max expects numbers")
		}
		if (wantMin && v.Less(best)) || (!wantMin && best.Less(v)) {
			best = v
		}
	}
	return best, nil
}
