package inja

// LoopFrame is the per-iteration metadata exposed as the `loop` name
// inside a For body (spec.md §4.4). Nested loops chain through
// Parent; popping a frame restores it.
type LoopFrame struct {
	Index   int
	Index1  int
	IsFirst bool
	IsLast  bool
	Parent  *LoopFrame
}

// Value renders the loop frame as the object Value expression
// evaluation sees when it reads `loop` or `loop.parent...`.
func (f *LoopFrame) Value() Value {
	if f == nil {
		return Null
	}
	v := NewObject()
	v.Set("index", Int(int64(f.Index)))
	v.Set("index1", Int(int64(f.Index1)))
	v.Set("is_first", Bool(f.IsFirst))
	v.Set("is_last", Bool(f.IsLast))
	v.Set("parent", f.Parent.Value())
	return v
}

// Context is the stack of scopes a render walks a template against:
// a bottom scope seeded from the root data Value, plus one pushed
// scope per active For body, and a chained loop-frame pointer (spec.md
// §4.4). It is not safe for concurrent use.
type Context struct {
	scopes []map[string]Value
	loop   *LoopFrame
}

// NewContext seeds a Context from the root data Value. A non-object
// root contributes no named bindings (only `loop`, inside a For body,
// is ever visible in that case).
func NewContext(root Value) *Context {
	base := map[string]Value{}
	if root.IsObject() {
		for i, key := range root.Keys() {
			base[key] = root.Values()[i]
		}
	}
	return &Context{scopes: []map[string]Value{base}}
}

// PushScope opens a new innermost scope, used for each For-body
// iteration so loop-local `set`s don't leak past the loop unless they
// target an outer binding (spec.md §9 Open Question (a)).
func (c *Context) PushScope() {
	c.scopes = append(c.scopes, map[string]Value{})
}

// PopScope closes the innermost scope.
func (c *Context) PopScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// PushLoop opens a new loop frame chained to the current one.
func (c *Context) PushLoop(index, total int) {
	c.loop = &LoopFrame{
		Index: index, Index1: index + 1,
		IsFirst: index == 0, IsLast: index == total-1,
		Parent: c.loop,
	}
}

// PopLoop restores the enclosing loop frame, if any.
func (c *Context) PopLoop() {
	if c.loop != nil {
		c.loop = c.loop.Parent
	}
}

// GetVar resolves a bare name: `loop` is special-cased against the
// active loop frame; everything else walks the scope stack innermost
// first.
func (c *Context) GetVar(name string) (Value, bool) {
	if name == "loop" {
		if c.loop == nil {
			return Null, false
		}
		return c.loop.Value(), true
	}
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i][name]; ok {
			return v, true
		}
	}
	return Null, false
}

// Bind sets name in the innermost scope unconditionally — used for
// For-loop variable binding, which is always loop-local.
func (c *Context) Bind(name string, v Value) {
	c.scopes[len(c.scopes)-1][name] = v
}

// SetPath implements the `set` statement's dotted-lvalue assignment
// (spec.md §4.3/§4.4): the outermost path segment is written into the
// innermost scope that already binds it, or into the innermost scope
// if no enclosing scope does (Open Question (a), resolved as
// innermost-write — see DESIGN.md). Intermediate path segments create
// nested objects as needed.
func (c *Context) SetPath(path []string, val Value) {
	head := path[0]
	scopeIdx := len(c.scopes) - 1
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if _, ok := c.scopes[i][head]; ok {
			scopeIdx = i
			break
		}
	}
	scope := c.scopes[scopeIdx]
	if len(path) == 1 {
		scope[head] = val
		return
	}
	root, ok := scope[head]
	if !ok || !root.IsObject() {
		root = NewObject()
	}
	setNested(&root, path[1:], val)
	scope[head] = root
}

func setNested(obj *Value, path []string, val Value) {
	if len(path) == 1 {
		obj.Set(path[0], val)
		return
	}
	child, ok := obj.Get(path[0])
	if !ok || !child.IsObject() {
		child = NewObject()
	}
	setNested(&child, path[1:], val)
	obj.Set(path[0], child)
}
