package inja

import "testing"

func callBuiltin(t *testing.T, name string, args ...Value) Value {
	t.Helper()
	r := NewBuiltinRegistry()
	fn, ok := r.Lookup(name, len(args))
	if !ok {
		t.Fatalf("no builtin %s/%d registered", name, len(args))
	}
	v, err := fn(args)
	if err != nil {
		t.Fatalf("%s(%v) returned error: %v", name, args, err)
	}
	return v
}

func callBuiltinErr(t *testing.T, name string, args ...Value) error {
	t.Helper()
	r := NewBuiltinRegistry()
	fn, ok := r.Lookup(name, len(args))
	if !ok {
		t.Fatalf("no builtin %s/%d registered", name, len(args))
	}
	_, err := fn(args)
	return err
}

func TestStringBuiltins(t *testing.T) {
	if got := callBuiltin(t, "upper", String("hi")); got.StringVal() != "HI" {
		t.Errorf("upper = %q", got.StringVal())
	}
	if got := callBuiltin(t, "lower", String("HI")); got.StringVal() != "hi" {
		t.Errorf("lower = %q", got.StringVal())
	}
	if got := callBuiltin(t, "trim", String("  hi  ")); got.StringVal() != "hi" {
		t.Errorf("trim = %q", got.StringVal())
	}
	if got := callBuiltin(t, "capitalize", String("hello")); got.StringVal() != "Hello" {
		t.Errorf("capitalize = %q", got.StringVal())
	}
	if got := callBuiltin(t, "replace", String("a-b-c"), String("-"), String("_")); got.StringVal() != "a_b_c" {
		t.Errorf("replace = %q", got.StringVal())
	}
	split := callBuiltin(t, "split", String("a,b,c"), String(","))
	if split.Len() != 3 || split.ArrayVal()[1].StringVal() != "b" {
		t.Errorf("split = %v", split)
	}
	joined := callBuiltin(t, "join", Array(String("a"), String("b")), String("-"))
	if joined.StringVal() != "a-b" {
		t.Errorf("join = %q", joined.StringVal())
	}
}

func TestCollectionBuiltins(t *testing.T) {
	if got := callBuiltin(t, "length", Array(Int(1), Int(2), Int(3))); got.IntVal() != 3 {
		t.Errorf("length = %d", got.IntVal())
	}
	sorted := callBuiltin(t, "sort", Array(String("b"), String("a")))
	if sorted.ArrayVal()[0].StringVal() != "a" {
		t.Errorf("sort = %v", sorted)
	}
	if got := callBuiltin(t, "first", Array(Int(10), Int(20))); got.IntVal() != 10 {
		t.Errorf("first = %d", got.IntVal())
	}
	if got := callBuiltin(t, "last", Array(Int(10), Int(20))); got.IntVal() != 20 {
		t.Errorf("last = %d", got.IntVal())
	}
	rangeOne := callBuiltin(t, "range", Int(3))
	if rangeOne.Len() != 3 || rangeOne.ArrayVal()[2].IntVal() != 2 {
		t.Errorf("range(3) = %v", rangeOne)
	}
	rangeTwo := callBuiltin(t, "range", Int(2), Int(5))
	if rangeTwo.Len() != 3 || rangeTwo.ArrayVal()[0].IntVal() != 2 {
		t.Errorf("range(2,5) = %v", rangeTwo)
	}
	if got := callBuiltin(t, "at", Array(Int(1), Int(2)), Int(1)); got.IntVal() != 2 {
		t.Errorf("at = %d", got.IntVal())
	}
	if err := callBuiltinErr(t, "at", Array(Int(1)), Int(5)); err == nil {
		t.Error("expected an index error for out-of-range at()")
	}
	if got := callBuiltin(t, "existsIn", Array(Int(1), Int(2)), Int(2)); !got.BoolVal() {
		t.Error("existsIn should find 2 in [1,2]")
	}
}

func TestNumberBuiltins(t *testing.T) {
	if got := callBuiltin(t, "int", String("42")); got.IntVal() != 42 {
		t.Errorf("int(\"42\") = %d", got.IntVal())
	}
	if got := callBuiltin(t, "float", String("3.5")); got.FloatVal() != 3.5 {
		t.Errorf("float(\"3.5\") = %v", got.FloatVal())
	}
	if got := callBuiltin(t, "abs", Int(-5)); got.IntVal() != 5 {
		t.Errorf("abs(-5) = %d", got.IntVal())
	}
	if got := callBuiltin(t, "round", Float(2.6)); got.FloatVal() != 3 {
		t.Errorf("round(2.6) = %v", got.FloatVal())
	}
	if got := callBuiltin(t, "round", Float(3.14159), Int(2)); got.FloatVal() != 3.14 {
		t.Errorf("round(3.14159, 2) = %v", got.FloatVal())
	}
	if got := callBuiltin(t, "min", Int(3), Int(1), Int(2)); got.IntVal() != 1 {
		t.Errorf("min(3,1,2) = %d", got.IntVal())
	}
	if got := callBuiltin(t, "max", Array(Int(3), Int(1), Int(9))); got.IntVal() != 9 {
		t.Errorf("max([3,1,9]) = %d", got.IntVal())
	}
}

func TestBuiltinTypeErrors(t *testing.T) {
	if err := callBuiltinErr(t, "upper", Int(5)); err == nil {
		t.Error("expected a type error for upper(5)")
	}
	if err := callBuiltinErr(t, "sort", String("not an array")); err == nil {
		t.Error("expected a type error for sort of a non-array")
	}
}
