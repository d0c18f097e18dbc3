package inja

import "testing"

func TestArrayFuncsAppendDoesNotMutateInput(t *testing.T) {
	original := Array(Int(1), Int(2))
	got := callBuiltin(t, "append", original, Int(3))
	if got.Len() != 3 || got.ArrayVal()[2].IntVal() != 3 {
		t.Errorf("append result = %v", got)
	}
	if original.Len() != 2 {
		t.Errorf("append mutated its input: %v", original)
	}
}

func TestArrayFuncsExtend(t *testing.T) {
	got := callBuiltin(t, "extend", Array(Int(1)), Array(Int(2), Int(3)))
	if got.Len() != 3 {
		t.Errorf("extend = %v", got)
	}
}

func TestArrayFuncsInsert(t *testing.T) {
	got := callBuiltin(t, "insert", Array(Int(1), Int(3)), Int(1), Int(2))
	want := []int64{1, 2, 3}
	for i, w := range want {
		if got.ArrayVal()[i].IntVal() != w {
			t.Errorf("insert = %v, want %v", got, want)
			break
		}
	}
}

func TestArrayFuncsInsertOutOfRangeIsNoop(t *testing.T) {
	original := Array(Int(1), Int(2))
	got := callBuiltin(t, "insert", original, Int(99), Int(0))
	if got.Len() != 2 {
		t.Errorf("out-of-range insert should no-op, got %v", got)
	}
}

func TestArrayFuncsPop(t *testing.T) {
	got := callBuiltin(t, "pop", Array(Int(1), Int(2), Int(3)))
	if got.Len() != 2 || got.ArrayVal()[1].IntVal() != 2 {
		t.Errorf("pop() (default last) = %v", got)
	}
	got2 := callBuiltin(t, "pop", Array(Int(1), Int(2), Int(3)), Int(0))
	if got2.Len() != 2 || got2.ArrayVal()[0].IntVal() != 2 {
		t.Errorf("pop(0) = %v", got2)
	}
}

func TestArrayFuncsPopOutOfRangeIsNoop(t *testing.T) {
	got := callBuiltin(t, "pop", Array(Int(1)), Int(9))
	if got.Len() != 1 {
		t.Errorf("out-of-range pop should no-op, got %v", got)
	}
}

func TestArrayFuncsRemoveFirstMatchOnly(t *testing.T) {
	got := callBuiltin(t, "remove", Array(Int(1), Int(2), Int(1)), Int(1))
	if got.Len() != 2 || got.ArrayVal()[0].IntVal() != 2 {
		t.Errorf("remove = %v", got)
	}
}

func TestArrayFuncsReverse(t *testing.T) {
	got := callBuiltin(t, "reverse", Array(Int(1), Int(2), Int(3)))
	want := []int64{3, 2, 1}
	for i, w := range want {
		if got.ArrayVal()[i].IntVal() != w {
			t.Errorf("reverse = %v, want %v", got, want)
			break
		}
	}
}

func TestArrayFuncsIndexAndCount(t *testing.T) {
	arr := Array(Int(5), Int(6), Int(5))
	if got := callBuiltin(t, "index", arr, Int(6)); got.IntVal() != 1 {
		t.Errorf("index = %d", got.IntVal())
	}
	if got := callBuiltin(t, "index", arr, Int(99)); got.IntVal() != -1 {
		t.Errorf("index of a missing element = %d, want -1", got.IntVal())
	}
	if got := callBuiltin(t, "count", arr, Int(5)); got.IntVal() != 2 {
		t.Errorf("count = %d", got.IntVal())
	}
}

func TestArrayFuncsUnique(t *testing.T) {
	got := callBuiltin(t, "unique", Array(Int(1), Int(2), Int(1), Int(3), Int(2)))
	if got.Len() != 3 {
		t.Errorf("unique = %v", got)
	}
}

func TestArrayFuncsFlatten(t *testing.T) {
	nested := Array(Array(Int(1), Int(2)), Array(Int(3), Array(Int(4))))
	gotOne := callBuiltin(t, "flatten", nested)
	if gotOne.Len() != 4 {
		t.Errorf("flatten depth 1 = %v", gotOne)
	}
	gotTwo := callBuiltin(t, "flatten", nested, Int(2))
	if gotTwo.Len() != 4 {
		t.Errorf("flatten depth 2 = %v", gotTwo)
	}
	lastIsArray := gotTwo.ArrayVal()[3].IsArray()
	if lastIsArray {
		t.Error("flatten(depth=2) should have fully unwrapped the doubly-nested element")
	}
}

func TestObjectFuncsKeysValuesItems(t *testing.T) {
	obj := NewObject()
	obj.Set("a", Int(1))
	obj.Set("b", Int(2))

	keys := callBuiltin(t, "keys", obj)
	if keys.Len() != 2 || keys.ArrayVal()[0].StringVal() != "a" {
		t.Errorf("keys = %v", keys)
	}
	values := callBuiltin(t, "values", obj)
	if values.Len() != 2 || values.ArrayVal()[1].IntVal() != 2 {
		t.Errorf("values = %v", values)
	}
	items := callBuiltin(t, "items", obj)
	pair := items.ArrayVal()[0]
	if pair.ArrayVal()[0].StringVal() != "a" || pair.ArrayVal()[1].IntVal() != 1 {
		t.Errorf("items[0] = %v", pair)
	}
}

func TestObjectFuncsUpdateMergesRightOverLeft(t *testing.T) {
	a := NewObject()
	a.Set("x", Int(1))
	a.Set("y", Int(1))
	b := NewObject()
	b.Set("y", Int(2))

	got := callBuiltin(t, "update", a, b)
	x, _ := got.Get("x")
	y, _ := got.Get("y")
	if x.IntVal() != 1 || y.IntVal() != 2 {
		t.Errorf("update = x:%v y:%v, want x:1 y:2", x, y)
	}
}

func TestObjectFuncsGetWithDefault(t *testing.T) {
	obj := NewObject()
	obj.Set("a", Int(1))

	if got := callBuiltin(t, "get", obj, String("a"), Int(99)); got.IntVal() != 1 {
		t.Errorf("get existing = %d, want 1", got.IntVal())
	}
	if got := callBuiltin(t, "get", obj, String("missing"), Int(99)); got.IntVal() != 99 {
		t.Errorf("get missing with default = %d, want 99", got.IntVal())
	}
}

func TestObjectFuncsHasKey(t *testing.T) {
	obj := NewObject()
	obj.Set("a", Int(1))

	if got := callBuiltin(t, "has_key", obj, String("a")); !got.BoolVal() {
		t.Error("has_key(a) should be true")
	}
	if got := callBuiltin(t, "has_key", obj, String("z")); got.BoolVal() {
		t.Error("has_key(z) should be false")
	}
}
