package inja

// Template is a parsed AST plus the source it came from (spec.md
// §3.6/§5 glossary "Template"). It is immutable once returned from
// Parse and may be rendered many times, including concurrently,
// against distinct Environments.
type Template struct {
	name   string
	source string
	stmts  []Stmt
}

// Name returns the logical name a Template was registered or parsed
// under, empty for an anonymous one-off Parse.
func (t *Template) Name() string { return t.name }

// Source returns the exact template text Parse consumed.
func (t *Template) Source() string { return t.source }
