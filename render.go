package inja

import (
	"fmt"
	"strconv"
	"strings"
)

// evalFailure is the distinguished "evaluation failed" sentinel spec.md
// §9 calls for: it carries the Diagnostic that would be recorded if the
// failure is graceful-recoverable, and unwinds up through expression
// evaluation to the nearest Output/Statement boundary, which decides
// whether to emit verbatim text, degrade a control branch, or (strict
// mode) abort the render with a formatted TemplateError.
type evalFailure struct {
	diag Diagnostic
}

func (e *evalFailure) Error() string { return e.diag.Error() }

func (e *evalFailure) asRenderError() *TemplateError {
	return &TemplateError{Kind: KindRenderError, Location: e.diag.Location, HasLoc: true, Message: e.diag.Message}
}

func failVar(loc Location, name string) *evalFailure {
	return &evalFailure{diag: Diagnostic{Kind: KindVariableNotFound, Message: fmt.Sprintf("variable '%s' not found", name), Location: loc}}
}

func failCallback(loc Location, name string, arity int) *evalFailure {
	return &evalFailure{diag: Diagnostic{Kind: KindCallbackNotFound, Message: fmt.Sprintf("function '%s/%d' not found", name, arity), Location: loc}}
}

func failType(loc Location, format string, args ...interface{}) *evalFailure {
	return &evalFailure{diag: Diagnostic{Kind: KindTypeError, Message: fmt.Sprintf(format, args...), Location: loc}}
}

func failIndex(loc Location, format string, args ...interface{}) *evalFailure {
	return &evalFailure{diag: Diagnostic{Kind: KindIndexError, Message: fmt.Sprintf(format, args...), Location: loc}}
}

// renderer walks a Template's statement tree against a Context stack,
// dispatching operator/callback calls and accumulating output; it owns
// no state beyond what a single run call needs (spec.md §4.5).
type renderer struct {
	env    *Environment
	logger *Logger
}

func (rn *renderer) run(t *Template, data Value) (string, error) {
	ctx := NewContext(data)
	var sb strings.Builder
	if err := rn.execStmts(t.stmts, ctx, &sb, 0); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (rn *renderer) execStmts(stmts []Stmt, ctx *Context, sb *strings.Builder, depth int) error {
	for _, st := range stmts {
		switch n := st.(type) {
		case *TextChunk:
			sb.WriteString(n.Text)
		case *OutputStmt:
			if err := rn.execOutput(n, ctx, sb); err != nil {
				return err
			}
		case *IfStmt:
			if err := rn.execIf(n, ctx, sb, depth); err != nil {
				return err
			}
		case *ForStmt:
			if err := rn.execFor(n, ctx, sb, depth); err != nil {
				return err
			}
		case *SetStmt:
			if err := rn.execSet(n, ctx); err != nil {
				return err
			}
		case *IncludeStmt:
			if err := rn.execInclude(n, ctx, sb, depth); err != nil {
				return err
			}
		case *RawStmt:
			sb.WriteString(n.Text)
		default:
			return fmt.Errorf("unhandled statement node %T", st)
		}
	}
	return nil
}

// execOutput implements spec.md §7's graceful fallback exactly: on a
// recoverable failure, emit the Output's original text span verbatim
// and record a Diagnostic whose OriginalText is that same span, so the
// §8 invariant (concatenated Diagnostic.OriginalText == substituted
// spans) holds by construction.
func (rn *renderer) execOutput(o *OutputStmt, ctx *Context, sb *strings.Builder) error {
	val, err := rn.eval(o.X, ctx)
	if err != nil {
		ef, ok := err.(*evalFailure)
		if !ok {
			return err
		}
		if !rn.env.graceful() {
			return ef.asRenderError()
		}
		ef.diag.OriginalText = o.Sp.Text
		rn.env.diag.Add(ef.diag)
		sb.WriteString(o.Sp.Text)
		return nil
	}
	sb.WriteString(val.String())
	return nil
}

// execIf evaluates branches in order; a recoverable condition failure
// degrades that branch to false (no verbatim text, per §7's control-
// statement rule) and moves on to the next one.
func (rn *renderer) execIf(s *IfStmt, ctx *Context, sb *strings.Builder, depth int) error {
	for _, br := range s.Branches {
		if br.Cond == nil {
			return rn.execStmts(br.Body, ctx, sb, depth)
		}
		val, err := rn.eval(br.Cond, ctx)
		if err != nil {
			ef, ok := err.(*evalFailure)
			if !ok {
				return err
			}
			if !rn.env.graceful() {
				return ef.asRenderError()
			}
			rn.env.diag.Add(ef.diag)
			continue
		}
		if val.Truthy() {
			return rn.execStmts(br.Body, ctx, sb, depth)
		}
	}
	return nil
}

func (rn *renderer) execFor(s *ForStmt, ctx *Context, sb *strings.Builder, depth int) error {
	iterVal, err := rn.eval(s.Iter, ctx)
	if err != nil {
		ef, ok := err.(*evalFailure)
		if !ok {
			return err
		}
		if !rn.env.graceful() {
			return ef.asRenderError()
		}
		rn.env.diag.Add(ef.diag)
		return nil
	}

	if s.HasKey {
		if !iterVal.IsObject() {
			return rn.forTypeMismatch(s, "for loop iterable is not an object")
		}
		keys, vals := iterVal.Keys(), iterVal.Values()
		n := len(keys)
		for i := 0; i < n; i++ {
			ctx.PushScope()
			ctx.PushLoop(i, n)
			ctx.Bind(s.KeyVar, String(keys[i]))
			ctx.Bind(s.ValVar, vals[i])
			err := rn.execStmts(s.Body, ctx, sb, depth)
			ctx.PopLoop()
			ctx.PopScope()
			if err != nil {
				return err
			}
		}
		return nil
	}

	if !iterVal.IsArray() {
		return rn.forTypeMismatch(s, "for loop iterable is not an array")
	}
	arr := iterVal.ArrayVal()
	n := len(arr)
	for i := 0; i < n; i++ {
		ctx.PushScope()
		ctx.PushLoop(i, n)
		ctx.Bind(s.ValVar, arr[i])
		err := rn.execStmts(s.Body, ctx, sb, depth)
		ctx.PopLoop()
		ctx.PopScope()
		if err != nil {
			return err
		}
	}
	return nil
}

func (rn *renderer) forTypeMismatch(s *ForStmt, message string) error {
	d := Diagnostic{Kind: KindTypeError, Message: message, Location: s.Sp.Start}
	if !rn.env.graceful() {
		return (&TemplateError{Kind: KindRenderError, Location: d.Location, HasLoc: true, Message: d.Message})
	}
	rn.env.diag.Add(d)
	return nil
}

func (rn *renderer) execSet(s *SetStmt, ctx *Context) error {
	val, err := rn.eval(s.Val, ctx)
	if err != nil {
		ef, ok := err.(*evalFailure)
		if !ok {
			return err
		}
		if !rn.env.graceful() {
			return ef.asRenderError()
		}
		rn.env.diag.Add(ef.diag)
		return nil
	}
	ctx.SetPath(s.Path, val)
	return nil
}

// execInclude renders the included Template's statements against the
// same Context stack — includes share scope, per spec.md §4.5/§8 —
// bounding recursion with the Environment's configured include depth
// (spec.md §9's "Include cycles" open question, resolved as a depth
// bound rather than cycle detection).
func (rn *renderer) execInclude(s *IncludeStmt, ctx *Context, sb *strings.Builder, depth int) error {
	t := s.Resolved
	if t == nil {
		resolved, err := rn.env.resolveInclude(s.Name)
		if err != nil {
			return err
		}
		t = resolved
	}
	if depth+1 > rn.env.maxIncludeDepth() {
		return newRenderError(s.Sp.Start, "max include depth exceeded")
	}
	return rn.execStmts(t.stmts, ctx, sb, depth+1)
}

// --- expression evaluation ---

func (rn *renderer) eval(e Expr, ctx *Context) (Value, error) {
	switch n := e.(type) {
	case *LiteralExpr:
		return n.Val, nil
	case *IdentExpr:
		return rn.evalIdent(n, ctx)
	case *FieldExpr:
		return rn.evalField(n, ctx)
	case *IndexExpr:
		return rn.evalIndex(n, ctx)
	case *UnaryExpr:
		return rn.evalUnary(n, ctx)
	case *BinaryExpr:
		return rn.evalBinary(n, ctx)
	case *CallExpr:
		return rn.evalCall(n, ctx)
	case *ArrayLiteralExpr:
		return rn.evalArrayLit(n, ctx)
	case *ObjectLiteralExpr:
		return rn.evalObjectLit(n, ctx)
	default:
		return Null, fmt.Errorf("unhandled expression node %T", e)
	}
}

// evalIdent resolves a (possibly lexer-glued dotted) name against the
// context stack, descending into object/array Values one segment at a
// time. Any failed segment reports variable_not_found named by the
// full original dotted path, per spec.md §4.4.
func (rn *renderer) evalIdent(n *IdentExpr, ctx *Context) (Value, error) {
	rn.logger.DebugExpr(n.Name, n.Sp.Start)
	segs := strings.Split(n.Name, ".")
	cur, ok := ctx.GetVar(segs[0])
	if !ok {
		return Null, failVar(n.Sp.Start, n.Name)
	}
	for _, seg := range segs[1:] {
		next, ok := descend(cur, seg)
		if !ok {
			return Null, failVar(n.Sp.Start, n.Name)
		}
		cur = next
	}
	return cur, nil
}

func descend(v Value, seg string) (Value, bool) {
	if v.IsObject() {
		return v.Get(seg)
	}
	if v.IsArray() {
		i, err := strconv.Atoi(seg)
		if err != nil {
			return Null, false
		}
		return v.At(i)
	}
	return Null, false
}

// evalField is `X.Name` where X is not a bare identifier (call result,
// subscript, parenthesised expr); spec.md §4.5 makes it identical to
// X["Name"] on an object and X[N] on an array.
func (rn *renderer) evalField(n *FieldExpr, ctx *Context) (Value, error) {
	base, err := rn.eval(n.X, ctx)
	if err != nil {
		return Null, err
	}
	if base.IsObject() {
		v, ok := base.Get(n.Name)
		if !ok {
			return Null, failVar(n.Sp.Start, n.Name)
		}
		return v, nil
	}
	if base.IsArray() {
		i, convErr := strconv.Atoi(n.Name)
		if convErr != nil {
			return Null, failType(n.Sp.Start, "field '%s' is not a valid array index", n.Name)
		}
		v, ok := base.At(i)
		if !ok {
			return Null, failIndex(n.Sp.Start, "index %d out of range", i)
		}
		return v, nil
	}
	return Null, failType(n.Sp.Start, "cannot access field '%s' on a %s value", n.Name, base.Kind())
}

func (rn *renderer) evalIndex(n *IndexExpr, ctx *Context) (Value, error) {
	base, err := rn.eval(n.X, ctx)
	if err != nil {
		return Null, err
	}
	idx, err := rn.eval(n.Idx, ctx)
	if err != nil {
		return Null, err
	}
	if base.IsArray() {
		if !idx.IsNumber() {
			return Null, failType(n.Sp.Start, "array index must be a number")
		}
		i64, _ := idx.AsInt64()
		v, ok := base.At(int(i64))
		if !ok {
			return Null, failIndex(n.Sp.Start, "index %d out of range", i64)
		}
		return v, nil
	}
	if base.IsObject() {
		if !idx.IsString() {
			return Null, failType(n.Sp.Start, "object key must be a string")
		}
		v, ok := base.Get(idx.StringVal())
		if !ok {
			return Null, failVar(n.Sp.Start, idx.StringVal())
		}
		return v, nil
	}
	return Null, failType(n.Sp.Start, "cannot index a %s value", base.Kind())
}

func (rn *renderer) evalUnary(n *UnaryExpr, ctx *Context) (Value, error) {
	x, err := rn.eval(n.X, ctx)
	if err != nil {
		return Null, err
	}
	switch n.Op {
	case TokNot:
		return Bool(!x.Truthy()), nil
	case TokMinus:
		if !x.IsNumber() {
			return Null, failType(n.Sp.Start, "unary '-' requires a number")
		}
		switch x.Kind() {
		case KindInt:
			return Int(-x.IntVal()), nil
		case KindUint:
			return Int(-int64(x.UintVal())), nil
		default:
			f, _ := x.AsFloat64()
			return Float(-f), nil
		}
	default:
		return Null, fmt.Errorf("unhandled unary operator")
	}
}

func (rn *renderer) evalBinary(n *BinaryExpr, ctx *Context) (Value, error) {
	switch n.Op {
	case TokAnd:
		l, err := rn.eval(n.L, ctx)
		if err != nil {
			return Null, err
		}
		if !l.Truthy() {
			return Bool(false), nil
		}
		r, err := rn.eval(n.R, ctx)
		if err != nil {
			return Null, err
		}
		return Bool(r.Truthy()), nil
	case TokOr:
		l, err := rn.eval(n.L, ctx)
		if err != nil {
			return Null, err
		}
		if l.Truthy() {
			return Bool(true), nil
		}
		r, err := rn.eval(n.R, ctx)
		if err != nil {
			return Null, err
		}
		return Bool(r.Truthy()), nil
	}

	l, err := rn.eval(n.L, ctx)
	if err != nil {
		return Null, err
	}
	r, err := rn.eval(n.R, ctx)
	if err != nil {
		return Null, err
	}
	switch n.Op {
	case TokEq:
		return Bool(l.Equal(r)), nil
	case TokNe:
		return Bool(!l.Equal(r)), nil
	case TokLt:
		return Bool(l.Less(r)), nil
	case TokLe:
		return Bool(l.Less(r) || l.Equal(r)), nil
	case TokGt:
		return Bool(r.Less(l)), nil
	case TokGe:
		return Bool(r.Less(l) || l.Equal(r)), nil
	case TokIn:
		return rn.evalIn(l, r, n.Sp.Start)
	case TokPlus, TokMinus, TokStar, TokSlash, TokPercent:
		return rn.evalArith(n.Op, l, r, n.Sp.Start)
	default:
		return Null, fmt.Errorf("unhandled binary operator")
	}
}

// evalIn resolves spec.md §9 Open Question (b) as substring membership
// on a string RHS (see DESIGN.md).
func (rn *renderer) evalIn(l, r Value, loc Location) (Value, error) {
	switch {
	case r.IsArray():
		for _, item := range r.ArrayVal() {
			if item.Equal(l) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case r.IsObject():
		if !l.IsString() {
			return Null, failType(loc, "'in' on an object requires a string left-hand side")
		}
		_, ok := r.Get(l.StringVal())
		return Bool(ok), nil
	case r.IsString():
		if !l.IsString() {
			return Null, failType(loc, "'in' on a string requires a string left-hand side")
		}
		return Bool(strings.Contains(r.StringVal(), l.StringVal())), nil
	default:
		return Null, failType(loc, "'in' requires an array, object, or string right-hand side")
	}
}

func (rn *renderer) evalArith(op TokenKind, l, r Value, loc Location) (Value, error) {
	if !l.IsNumber() || !r.IsNumber() {
		return Null, failType(loc, "arithmetic requires numeric operands")
	}
	bothInt := (l.Kind() == KindInt || l.Kind() == KindUint) && (r.Kind() == KindInt || r.Kind() == KindUint)

	if op == TokSlash {
		rf, _ := r.AsFloat64()
		if rf == 0 {
			return Null, failType(loc, "division by zero")
		}
		if bothInt {
			li, _ := l.AsInt64()
			ri, _ := r.AsInt64()
			return Int(li / ri), nil
		}
		lf, _ := l.AsFloat64()
		return Float(lf / rf), nil
	}
	if op == TokPercent {
		ri, _ := r.AsInt64()
		if ri == 0 {
			return Null, failType(loc, "modulo by zero")
		}
		li, _ := l.AsInt64()
		return Int(li % ri), nil
	}

	if bothInt {
		li, _ := l.AsInt64()
		ri, _ := r.AsInt64()
		switch op {
		case TokPlus:
			return Int(li + ri), nil
		case TokMinus:
			return Int(li - ri), nil
		case TokStar:
			return Int(li * ri), nil
		}
	}
	lf, _ := l.AsFloat64()
	rf, _ := r.AsFloat64()
	switch op {
	case TokPlus:
		return Float(lf + rf), nil
	case TokMinus:
		return Float(lf - rf), nil
	case TokStar:
		return Float(lf * rf), nil
	default:
		return Null, fmt.Errorf("unhandled arithmetic operator")
	}
}

func (rn *renderer) evalCall(n *CallExpr, ctx *Context) (Value, error) {
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := rn.eval(a, ctx)
		if err != nil {
			return Null, err
		}
		args[i] = v
	}
	fn, ok := rn.env.lookupCallback(n.Name, len(args))
	if !ok {
		return Null, failCallback(n.Sp.Start, n.Name, len(args))
	}
	v, err := fn(args)
	if err != nil {
		if be, ok := err.(*BuiltinError); ok {
			return Null, &evalFailure{diag: Diagnostic{Kind: be.Kind, Message: be.Message, Location: n.Sp.Start}}
		}
		return Null, &evalFailure{diag: Diagnostic{Kind: KindTypeError, Message: err.Error(), Location: n.Sp.Start}}
	}
	return v, nil
}

func (rn *renderer) evalArrayLit(n *ArrayLiteralExpr, ctx *Context) (Value, error) {
	items := make([]Value, len(n.Items))
	for i, it := range n.Items {
		v, err := rn.eval(it, ctx)
		if err != nil {
			return Null, err
		}
		items[i] = v
	}
	return Array(items...), nil
}

func (rn *renderer) evalObjectLit(n *ObjectLiteralExpr, ctx *Context) (Value, error) {
	obj := NewObject()
	for i, key := range n.Keys {
		v, err := rn.eval(n.Vals[i], ctx)
		if err != nil {
			return Null, err
		}
		obj.Set(key, v)
	}
	return obj, nil
}
