package inja

// registerArrayFuncs installs the array/object helper module spec.md
// §4.6 names, ported from the C++ inja library's array_functions.hpp
// (see DESIGN.md's "Array-function semantics" section): every helper
// operates on a copy and returns a new Value, never mutating its
// argument in place, and out-of-range index arguments silently no-op
// rather than erroring, matching the original's catch-and-ignore
// fallback.
func registerArrayFuncs(r *Registry) {
	appendFn := func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsArray() {
			return Null, typeError("append expects an array")
		}
		out := args[0].CloneArray()
		out = append(out, args[1])
		return Array(out...), nil
	}
	r.addBuiltin("append", 2, appendFn)
	r.addBuiltin("push", 2, appendFn)

	r.addBuiltin("extend", 2, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsArray() || !args[1].IsArray() {
			return Null, typeError("extend expects two arrays")
		}
		out := args[0].CloneArray()
		out = append(out, args[1].ArrayVal()...)
		return Array(out...), nil
	})

	r.addBuiltin("insert", 3, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsArray() {
			return Null, typeError("insert expects an array")
		}
		out := args[0].CloneArray()
		idx, err := wantInt(args[1], "insert")
		if err != nil {
			return Null, err
		}
		i := normalizeInsertIndex(int(idx), len(out))
		if i < 0 || i > len(out) {
			return args[0], nil // out-of-range: silent no-op
		}
		out = append(out[:i], append([]Value{args[2]}, out[i:]...)...)
		return Array(out...), nil
	})

	popAt := func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsArray() {
			return Null, typeError("pop expects an array")
		}
		out := args[0].CloneArray()
		idx := -1
		if len(args) == 2 {
			n, err := wantInt(args[1], "pop")
			if err != nil {
				return Null, err
			}
			idx = int(n)
		}
		n := len(out)
		if n == 0 {
			return args[0], nil
		}
		if idx < 0 {
			idx += n
		}
		if idx < 0 || idx >= n {
			return args[0], nil // out-of-range: silent no-op
		}
		out = append(out[:idx], out[idx+1:]...)
		return Array(out...), nil
	}
	r.addBuiltin("pop", 1, popAt)
	r.addBuiltin("pop", 2, popAt)

	r.addBuiltin("remove", 2, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsArray() {
			return Null, typeError("remove expects an array")
		}
		out := args[0].CloneArray()
		for i, v := range out {
			if v.Equal(args[1]) {
				out = append(out[:i], out[i+1:]...)
				break
			}
		}
		return Array(out...), nil
	})

	r.addBuiltin("clear", 1, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsArray() {
			return Null, typeError("clear expects an array")
		}
		return Array(), nil
	})

	r.addBuiltin("reverse", 1, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsArray() {
			return Null, typeError("reverse expects an array")
		}
		out := args[0].CloneArray()
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
		return Array(out...), nil
	})

	r.addBuiltin("index", 2, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsArray() {
			return Null, typeError("index expects an array")
		}
		for i, v := range args[0].ArrayVal() {
			if v.Equal(args[1]) {
				return Int(int64(i)), nil
			}
		}
		return Int(-1), nil
	})

	r.addBuiltin("count", 2, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsArray() {
			return Null, typeError("count expects an array")
		}
		n := 0
		for _, v := range args[0].ArrayVal() {
			if v.Equal(args[1]) {
				n++
			}
		}
		return Int(int64(n)), nil
	})

	r.addBuiltin("unique", 1, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsArray() {
			return Null, typeError("unique expects an array")
		}
		var out []Value
		for _, v := range args[0].ArrayVal() {
			dup := false
			for _, seen := range out {
				if seen.Equal(v) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, v)
			}
		}
		return Array(out...), nil
	})

	flattenFn := func(depth int) BuiltinFunc {
		return func(args []Value) (Value, *BuiltinError) {
			if !args[0].IsArray() {
				return Null, typeError("flatten expects an array")
			}
			return Array(flattenArray(args[0].ArrayVal(), depth)...), nil
		}
	}
	r.addBuiltin("flatten", 1, flattenFn(1))
	r.addBuiltin("flatten", 2, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsArray() {
			return Null, typeError("flatten expects an array")
		}
		depth, err := wantInt(args[1], "flatten")
		if err != nil {
			return Null, err
		}
		return Array(flattenArray(args[0].ArrayVal(), int(depth))...), nil
	})

	r.addBuiltin("update", 2, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsObject() || !args[1].IsObject() {
			return Null, typeError("update expects two objects")
		}
		out := NewObject()
		for i, k := range args[0].Keys() {
			out.Set(k, args[0].Values()[i])
		}
		for i, k := range args[1].Keys() {
			out.Set(k, args[1].Values()[i])
		}
		return out, nil
	})

	r.addBuiltin("keys", 1, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsObject() {
			return Null, typeError("keys expects an object")
		}
		keys := args[0].Keys()
		items := make([]Value, len(keys))
		for i, k := range keys {
			items[i] = String(k)
		}
		return Array(items...), nil
	})

	r.addBuiltin("values", 1, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsObject() {
			return Null, typeError("values expects an object")
		}
		return Array(args[0].Values()...), nil
	})

	r.addBuiltin("items", 1, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsObject() {
			return Null, typeError("items expects an object")
		}
		keys, vals := args[0].Keys(), args[0].Values()
		out := make([]Value, len(keys))
		for i := range keys {
			out[i] = Array(String(keys[i]), vals[i])
		}
		return Array(out...), nil
	})

	r.addBuiltin("get", 2, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsObject() {
			return Null, typeError("get expects an object")
		}
		key, err := wantString(args[1], "get")
		if err != nil {
			return Null, err
		}
		v, ok := args[0].Get(key)
		if !ok {
			return Null, nil
		}
		return v, nil
	})
	r.addBuiltin("get", 3, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsObject() {
			return Null, typeError("get expects an object")
		}
		key, err := wantString(args[1], "get")
		if err != nil {
			return Null, err
		}
		if v, ok := args[0].Get(key); ok {
			return v, nil
		}
		return args[2], nil
	})

	r.addBuiltin("has_key", 2, func(args []Value) (Value, *BuiltinError) {
		if !args[0].IsObject() {
			return Null, typeError("has_key expects an object")
		}
		key, err := wantString(args[1], "has_key")
		if err != nil {
			return Null, err
		}
		_, ok := args[0].Get(key)
		return Bool(ok), nil
	})
}

func normalizeInsertIndex(i, n int) int {
	if i < 0 {
		return i + n + 1
	}
	return i
}

func flattenArray(items []Value, depth int) []Value {
	if depth <= 0 {
		return append([]Value{}, items...)
	}
	var out []Value
	for _, v := range items {
		if v.IsArray() {
			out = append(out, flattenArray(v.ArrayVal(), depth-1)...)
		} else {
			out = append(out, v)
		}
	}
	return out
}
