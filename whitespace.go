package inja

import "strings"

// applyWhitespaceControl rewrites Literal token text in place according
// to trim markers and the environment's lstrip_blocks/trim_blocks
// flags (spec.md §4.1/§4.2, resolved against the original C++ test
// corpus — see DESIGN.md's whitespace-control section).
//
// It runs once over the flat token stream produced by Lex, before the
// parser ever sees it, so TextChunk content is already final.
func applyWhitespaceControl(tokens []Token, lstripBlocks, trimBlocks bool) {
	for i, tok := range tokens {
		switch tok.Kind {
		case TokStmtOpen, TokExprOpen, TokCommentOpen:
			if i == 0 {
				continue
			}
			prev := i - 1
			if tokens[prev].Kind != TokLiteral {
				continue
			}
			isTagKind := tok.Kind == TokStmtOpen || tok.Kind == TokCommentOpen
			switch {
			case tok.LeftTrim:
				tokens[prev].Text = stripTrailingLineWhitespace(tokens[prev].Text)
			case isTagKind && lstripBlocks && !tok.Preserve:
				tokens[prev].Text = stripTrailingLineWhitespace(tokens[prev].Text)
			}

		case TokStmtClose, TokExprClose, TokCommentClose:
			next := i + 1
			if next >= len(tokens) || tokens[next].Kind != TokLiteral {
				continue
			}
			isTagKind := tok.Kind == TokStmtClose || tok.Kind == TokCommentClose
			switch {
			case tok.RightTrim:
				// The lexer ends a literal after each newline, so a run of
				// whitespace can span several literal tokens.
				for j := next; j < len(tokens) && tokens[j].Kind == TokLiteral; j++ {
					tokens[j].Text = strings.TrimLeft(tokens[j].Text, " \t\r\n")
					if tokens[j].Text != "" {
						break
					}
				}
			case isTagKind && trimBlocks:
				tokens[next].Text = stripLeadingThroughNextNewlineIfBlank(tokens[next].Text)
			}
		}
	}
}

// stripTrailingLineWhitespace drops the whitespace run at the end of s
// that starts after s's last newline (or at s's start, if s has none),
// but only if that entire run is whitespace — i.e. the tag about to
// follow s is the only content on its line. The newline itself, if
// any, is kept. If a non-whitespace character sits between the last
// newline and the end of s, s is returned unchanged.
func stripTrailingLineWhitespace(s string) string {
	idx := strings.LastIndexByte(s, '\n')
	start := idx + 1
	rest := s[start:]
	if strings.TrimFunc(rest, isHSpace) == "" {
		return s[:start]
	}
	return s
}

// stripLeadingThroughNextNewlineIfBlank drops everything from the
// start of s up to and including its first newline, but only if that
// span is entirely whitespace. If s has no newline, or a non-
// whitespace character precedes the first one, s is returned
// unchanged.
func stripLeadingThroughNextNewlineIfBlank(s string) string {
	idx := strings.IndexByte(s, '\n')
	if idx == -1 {
		return s
	}
	prefix := s[:idx]
	if strings.TrimFunc(prefix, isHSpace) == "" {
		return s[idx+1:]
	}
	return s
}

func isHSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r'
}
