package inja

// CountVariables implements spec.md §4.7: a cheap, analysis-only walk
// of a Template's AST reporting the distinct variable names referenced
// anywhere in its expressions (inside conditions, loop iterables, set
// right-hand sides, call arguments, and so on). It has no rendering
// side effects.
func CountVariables(t *Template) int {
	return len(VariableNames(t))
}

// VariableNames returns the distinct variable names CountVariables
// counts, each reported once regardless of how many times it occurs.
func VariableNames(t *Template) []string {
	seen := map[string]bool{}
	var order []string
	note := func(name string) {
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	for _, s := range t.stmts {
		walkStmtVars(s, note)
	}
	return order
}

func walkStmtVars(s Stmt, note func(string)) {
	switch n := s.(type) {
	case *TextChunk, *RawStmt:
		// no expressions
	case *OutputStmt:
		walkExprVars(n.X, note)
	case *IfStmt:
		for _, b := range n.Branches {
			if b.Cond != nil {
				walkExprVars(b.Cond, note)
			}
			for _, body := range b.Body {
				walkStmtVars(body, note)
			}
		}
	case *ForStmt:
		walkExprVars(n.Iter, note)
		for _, body := range n.Body {
			walkStmtVars(body, note)
		}
	case *SetStmt:
		walkExprVars(n.Val, note)
	case *IncludeStmt:
		if n.Resolved != nil {
			for _, inner := range n.Resolved.stmts {
				walkStmtVars(inner, note)
			}
		}
	}
}

func walkExprVars(e Expr, note func(string)) {
	switch n := e.(type) {
	case *LiteralExpr:
	case *IdentExpr:
		note(n.Name)
	case *FieldExpr:
		walkExprVars(n.X, note)
	case *IndexExpr:
		walkExprVars(n.X, note)
		walkExprVars(n.Idx, note)
	case *UnaryExpr:
		walkExprVars(n.X, note)
	case *BinaryExpr:
		walkExprVars(n.L, note)
		walkExprVars(n.R, note)
	case *CallExpr:
		for _, a := range n.Args {
			walkExprVars(a, note)
		}
	case *ArrayLiteralExpr:
		for _, item := range n.Items {
			walkExprVars(item, note)
		}
	case *ObjectLiteralExpr:
		for _, v := range n.Vals {
			walkExprVars(v, note)
		}
	}
}
