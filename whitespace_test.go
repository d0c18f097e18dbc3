package inja

import "testing"

// renderRaw lexes+fixes up+parses+renders src with the given flags,
// skipping the Environment layer so whitespace-control behavior can be
// asserted directly against the exact scenarios in the original test
// corpus (see DESIGN.md's whitespace-control section).
func renderRaw(t *testing.T, src string, lstrip, trimBlocks bool, data Value) string {
	t.Helper()
	tokens, err := Lex(src, DefaultDelims())
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	applyWhitespaceControl(tokens, lstrip, trimBlocks)
	p := newParser(tokens, src, DefaultDelims(), nil)
	stmts, err := p.parseProgram()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	tmpl := &Template{stmts: stmts}
	rn := &renderer{env: New(), logger: NewLogger("error")}
	out, err := rn.run(tmpl, data)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	return out
}

func TestWhitespaceExplicitMarkers(t *testing.T) {
	data := NewObject()
	data.Set("is_happy", Bool(true))
	data.Set("name", String("Peter"))

	got := renderRaw(t, "Test\n   {%- if is_happy %}{{ name }}{% endif %}   ", false, false, data)
	want := "Test\nPeter   "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWhitespaceLeftTrimRequiresSameLine(t *testing.T) {
	data := NewObject()
	data.Set("name", String("Peter"))

	got := renderRaw(t, ".  {%- if true %}{{ name }}{% endif %}", false, false, data)
	want := ".  Peter"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWhitespaceRightTrimIsUnconditional(t *testing.T) {
	data := NewObject()
	data.Set("name", String("x"))

	got := renderRaw(t, "   {#- name -#}    !", false, false, data)
	want := "!"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWhitespaceLstripBlocksOnlyWhenAlone(t *testing.T) {
	data := NewObject()
	data.Set("x", Bool(true))

	got := renderRaw(t, "   {% if x %}A{% endif %}\n", true, false, data)
	want := "A\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	got2 := renderRaw(t, "y   {% if x %}A{% endif %}\n", true, false, data)
	want2 := "y   A\n"
	if got2 != want2 {
		t.Errorf("got %q, want %q", got2, want2)
	}
}

func TestWhitespaceTrimBlocksStripsOnlyNextNewline(t *testing.T) {
	data := NewObject()
	data.Set("x", Bool(true))

	got := renderRaw(t, "{% if x %}\nA{% endif %}\nB", false, true, data)
	want := "AB"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
