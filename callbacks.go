package inja

import "fmt"

// CallbackFunc is a user-registerable function. Go idiom adapts
// spec.md §6's abstract "(args) → Value" interface with an explicit
// error return rather than a bare Value, so a callback can signal
// failure the same way builtins do; render.go treats a non-nil error
// the same as a builtin's *BuiltinError for graceful-mode purposes.
type CallbackFunc func(args []Value) (Value, error)

// BuiltinFunc is a fixed operator/collection/string/number function
// (spec.md §4.6). It reports failures as *BuiltinError so the renderer
// can classify them into the right Diagnostic kind.
type BuiltinFunc func(args []Value) (Value, *BuiltinError)

// BuiltinError is a builtin function's typed failure, carrying the
// DiagnosticKind graceful mode should record for it.
type BuiltinError struct {
	Kind    DiagnosticKind
	Message string
}

func (e *BuiltinError) Error() string { return e.Message }

func typeError(format string, args ...interface{}) *BuiltinError {
	return &BuiltinError{Kind: KindTypeError, Message: fmt.Sprintf(format, args...)}
}

func indexError(format string, args ...interface{}) *BuiltinError {
	return &BuiltinError{Kind: KindIndexError, Message: fmt.Sprintf(format, args...)}
}

// registryKey is the (name, arity) pair the builtin table and the
// callback registry are both keyed by (spec.md §4.6/§9 "Builtins as
// data"). arity -1 marks a variadic entry, consulted only when no
// exact-arity entry matches.
type registryKey struct {
	name  string
	arity int
}

// Registry holds a (name, arity)-keyed function table. Environment
// keeps two: one for user callbacks (AddCallback), one pre-populated
// with the fixed builtin table (NewBuiltinRegistry); Call nodes probe
// the callback registry first, then the builtin one, per spec.md §3.4.
type Registry struct {
	fns map[registryKey]CallbackFunc
}

func NewRegistry() *Registry {
	return &Registry{fns: map[registryKey]CallbackFunc{}}
}

// Add registers fn under (name, arity). arity -1 registers a variadic
// fallback consulted when no exact-arity entry exists for name.
func (r *Registry) Add(name string, arity int, fn CallbackFunc) {
	r.fns[registryKey{name, arity}] = fn
}

func (r *Registry) addBuiltin(name string, arity int, fn BuiltinFunc) {
	r.Add(name, arity, func(args []Value) (Value, error) {
		v, err := fn(args)
		if err != nil {
			return Null, err
		}
		return v, nil
	})
}

// Lookup resolves name against r, preferring an exact-arity match and
// falling back to a variadic (-1) registration.
func (r *Registry) Lookup(name string, arity int) (CallbackFunc, bool) {
	if fn, ok := r.fns[registryKey{name, arity}]; ok {
		return fn, true
	}
	if fn, ok := r.fns[registryKey{name, -1}]; ok {
		return fn, true
	}
	return nil, false
}
