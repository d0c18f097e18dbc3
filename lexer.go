package inja

import (
	"fmt"
	"regexp"
	"strings"
)

// Delims holds the three configurable delimiter pairs plus the
// line-statement prefix (spec §3.6, §6).
type Delims struct {
	ExprOpen, ExprClose       string
	StmtOpen, StmtClose       string
	CommentOpen, CommentClose string
	LineStatementPrefix       string
}

// DefaultDelims are inja's stock delimiters.
func DefaultDelims() Delims {
	return Delims{
		ExprOpen: "{{", ExprClose: "}}",
		StmtOpen: "{%", StmtClose: "%}",
		CommentOpen: "{#", CommentClose: "#}",
		LineStatementPrefix: "##",
	}
}

// lexer tokenises template source into a flat token stream. It carries
// no parsing logic of its own beyond raw-block rescans, which the
// parser drives via scanRawBody once it recognises a `raw` statement.
type lexer struct {
	src    string
	delims Delims
	pos    int
	line   int
	col    int
}

func newLexer(src string, delims Delims) *lexer {
	return &lexer{src: src, delims: delims, line: 1, col: 1}
}

func (l *lexer) loc() Location {
	return Location{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *lexer) eof() bool { return l.pos >= len(l.src) }

func (l *lexer) peekByte() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

func (l *lexer) hasPrefixAt(s string) bool {
	return strings.HasPrefix(l.src[l.pos:], s)
}

func (l *lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

// Lex tokenises the entire source, returning a flat stream terminated
// by a TokEOF token.
func Lex(src string, delims Delims) ([]Token, error) {
	l := newLexer(src, delims)
	var tokens []Token

	for {
		if l.eof() {
			tokens = append(tokens, Token{Kind: TokEOF, Start: l.loc(), End: l.loc()})
			return tokens, nil
		}

		if (l.pos == 0 || l.src[l.pos-1] == '\n') && delims.LineStatementPrefix != "" {
			if tok, ok, err := l.tryLineStatement(&tokens); err != nil {
				return nil, err
			} else if ok {
				_ = tok
				continue
			}
		}

		if l.hasPrefixAt(delims.ExprOpen) {
			if err := l.lexTagOpen(&tokens, TokExprOpen, delims.ExprOpen); err != nil {
				return nil, err
			}
			if err := l.lexExprOrStmtBody(&tokens, delims.ExprClose, TokExprClose); err != nil {
				return nil, err
			}
			continue
		}
		if l.hasPrefixAt(delims.StmtOpen) {
			if err := l.lexTagOpen(&tokens, TokStmtOpen, delims.StmtOpen); err != nil {
				return nil, err
			}
			if err := l.lexExprOrStmtBody(&tokens, delims.StmtClose, TokStmtClose); err != nil {
				return nil, err
			}
			continue
		}
		if l.hasPrefixAt(delims.CommentOpen) {
			if err := l.lexComment(&tokens); err != nil {
				return nil, err
			}
			continue
		}

		if err := l.lexLiteral(&tokens); err != nil {
			return nil, err
		}
	}
}

// lexLiteral consumes plain text up to the next recognised delimiter
// (or line-statement position) or EOF.
func (l *lexer) lexLiteral(tokens *[]Token) error {
	start := l.loc()
	var sb strings.Builder
	for !l.eof() {
		if l.hasPrefixAt(l.delims.ExprOpen) || l.hasPrefixAt(l.delims.StmtOpen) || l.hasPrefixAt(l.delims.CommentOpen) {
			break
		}
		if l.src[l.pos] == '\n' && l.delims.LineStatementPrefix != "" {
			sb.WriteByte(l.advance())
			break // re-check for a line statement at the new line's start
		}
		sb.WriteByte(l.advance())
	}
	if sb.Len() == 0 {
		return nil
	}
	*tokens = append(*tokens, Token{Kind: TokLiteral, Text: sb.String(), Start: start, End: l.loc()})
	return nil
}

// lexTagOpen consumes the open delimiter and an optional trim/preserve marker.
func (l *lexer) lexTagOpen(tokens *[]Token, kind TokenKind, delim string) error {
	start := l.loc()
	l.advanceN(len(delim))
	tok := Token{Kind: kind, Text: delim, Start: start}
	if !l.eof() {
		switch l.peekByte() {
		case '-':
			tok.LeftTrim = true
			l.advance()
		case '+':
			tok.Preserve = true
			l.advance()
		}
	}
	tok.End = l.loc()
	*tokens = append(*tokens, tok)
	return nil
}

// lexExprOrStmtBody tokenises the interior of an expression/statement
// tag up to (and including) its close delimiter.
func (l *lexer) lexExprOrStmtBody(tokens *[]Token, closeDelim string, closeKind TokenKind) error {
	for {
		l.skipSpaces()
		if l.eof() {
			*tokens = append(*tokens, Token{Kind: TokEOF, Start: l.loc(), End: l.loc()})
			return nil
		}
		if trim, ok := l.tryCloseDelim(closeDelim); ok {
			start := l.loc()
			end := l.consumeCloseDelim(closeDelim, trim)
			*tokens = append(*tokens, Token{Kind: closeKind, Text: closeDelim, Start: start, End: end, RightTrim: trim.left})
			return nil
		}
		tok, err := l.lexOneTagToken(closeDelim)
		if err != nil {
			return err
		}
		*tokens = append(*tokens, tok)
	}
}

type closeTrim struct{ left bool }

// tryCloseDelim reports whether the cursor sits at an optional
// trim/preserve marker immediately followed by closeDelim.
func (l *lexer) tryCloseDelim(closeDelim string) (closeTrim, bool) {
	if l.hasPrefixAt(closeDelim) {
		return closeTrim{}, true
	}
	if (l.peekByte() == '-' || l.peekByte() == '+') && strings.HasPrefix(l.src[l.pos+1:], closeDelim) {
		return closeTrim{left: l.peekByte() == '-'}, true
	}
	return closeTrim{}, false
}

func (l *lexer) consumeCloseDelim(closeDelim string, trim closeTrim) Location {
	if l.peekByte() == '-' || l.peekByte() == '+' {
		l.advance()
	}
	l.advanceN(len(closeDelim))
	return l.loc()
}

func (l *lexer) skipSpaces() {
	for !l.eof() {
		switch l.src[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

var numRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?`)
var identStartRe = regexp.MustCompile(`^[A-Za-z_@$]`)
var identContRe = regexp.MustCompile(`^[A-Za-z0-9_@$]`)

func (l *lexer) lexOneTagToken(closeDelim string) (Token, error) {
	start := l.loc()
	c := l.peekByte()

	switch c {
	case '"', '\'':
		return l.lexString(c)
	}

	if c >= '0' && c <= '9' {
		return l.lexNumber()
	}

	if identStartRe.MatchString(string(c)) {
		return l.lexIdentOrKeyword()
	}

	// multi-char operators/keywords, then punctuation.
	two := ""
	if l.pos+1 < len(l.src) {
		two = l.src[l.pos : l.pos+2]
	}
	switch two {
	case "==":
		l.advanceN(2)
		return Token{Kind: TokEq, Text: "==", Start: start, End: l.loc()}, nil
	case "!=":
		l.advanceN(2)
		return Token{Kind: TokNe, Text: "!=", Start: start, End: l.loc()}, nil
	case "<=":
		l.advanceN(2)
		return Token{Kind: TokLe, Text: "<=", Start: start, End: l.loc()}, nil
	case ">=":
		l.advanceN(2)
		return Token{Kind: TokGe, Text: ">=", Start: start, End: l.loc()}, nil
	}

	single := map[byte]TokenKind{
		'.': TokDot, ',': TokComma, '(': TokLParen, ')': TokRParen,
		'[': TokLBracket, ']': TokRBracket, ':': TokColon,
		'{': TokLBrace, '}': TokRBrace,
		'+': TokPlus, '-': TokMinus, '*': TokStar, '/': TokSlash, '%': TokPercent,
		'<': TokLt, '>': TokGt, '|': TokPipe, '=': TokAssign,
	}
	if kind, ok := single[c]; ok {
		l.advance()
		return Token{Kind: kind, Text: string(c), Start: start, End: l.loc()}, nil
	}

	return Token{}, &ParserError{Location: start, Message: fmt.Sprintf("unexpected character '%c'", c)}
}

func (l *lexer) lexString(quote byte) (Token, error) {
	start := l.loc()
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.eof() {
			return Token{}, &ParserError{Location: start, Message: "unterminated string literal"}
		}
		c := l.advance()
		if c == quote {
			break
		}
		if c == '\\' && !l.eof() {
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '"', '\'':
				sb.WriteByte(esc)
			default:
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
			continue
		}
		sb.WriteByte(c)
	}
	return Token{Kind: TokString, Text: sb.String(), Start: start, End: l.loc()}, nil
}

func (l *lexer) lexNumber() (Token, error) {
	start := l.loc()
	rest := l.src[l.pos:]
	m := numRe.FindString(rest)
	l.advanceN(len(m))
	isFloat := strings.ContainsAny(m, ".eE")
	if isFloat {
		return Token{Kind: TokFloat, Text: m, Start: start, End: l.loc()}, nil
	}
	// integers exceeding signed range become unsigned (spec §3.3).
	if fitsInt64(m) {
		return Token{Kind: TokInt, Text: m, Start: start, End: l.loc()}, nil
	}
	return Token{Kind: TokUint, Text: m, Start: start, End: l.loc()}, nil
}

func fitsInt64(digits string) bool {
	const maxInt64Str = "9223372036854775807"
	if len(digits) < len(maxInt64Str) {
		return true
	}
	if len(digits) > len(maxInt64Str) {
		return false
	}
	return digits <= maxInt64Str
}

func (l *lexer) lexIdentOrKeyword() (Token, error) {
	start := l.loc()
	var sb strings.Builder
	for !l.eof() && identContRe.MatchString(string(l.peekByte())) {
		sb.WriteByte(l.advance())
	}
	// dotted/numeric-index path extensions: ident(.segment|.N)*
	for !l.eof() && l.peekByte() == '.' {
		save := l.pos
		saveLine, saveCol := l.line, l.col
		l.advance() // '.'
		segStart := l.pos
		for !l.eof() && identContRe.MatchString(string(l.peekByte())) {
			l.advance()
		}
		if l.pos == segStart {
			l.pos, l.line, l.col = save, saveLine, saveCol
			break
		}
		sb.WriteString(l.src[save:l.pos])
	}
	name := sb.String()
	if kind, ok := keywords[name]; ok && !strings.ContainsAny(name, ".") {
		return Token{Kind: kind, Text: name, Start: start, End: l.loc()}, nil
	}
	return Token{Kind: TokIdent, Text: name, Start: start, End: l.loc()}, nil
}

func (l *lexer) lexComment(tokens *[]Token) error {
	start := l.loc()
	l.advanceN(len(l.delims.CommentOpen))
	open := Token{Kind: TokCommentOpen, Text: l.delims.CommentOpen, Start: start}
	if !l.eof() {
		switch l.peekByte() {
		case '-':
			open.LeftTrim = true
			l.advance()
		case '+':
			open.Preserve = true
			l.advance()
		}
	}
	open.End = l.loc()
	*tokens = append(*tokens, open)

	var sb strings.Builder
	for {
		if l.eof() {
			return &ParserError{Location: start, Message: "unterminated comment"}
		}
		if trim, ok := l.tryCloseDelim(l.delims.CommentClose); ok {
			closeStart := l.loc()
			closeEnd := l.consumeCloseDelim(l.delims.CommentClose, trim)
			*tokens = append(*tokens, Token{Kind: TokCommentClose, Text: l.delims.CommentClose, Start: closeStart, End: closeEnd, RightTrim: trim.left})
			break
		}
		sb.WriteByte(l.advance())
	}
	_ = sb.String() // comment body is discarded; nothing renders it
	return nil
}

// tryLineStatement recognises "## statement-body\n" at the start of a
// line and, if present, lexes it into a synthesised statement-open,
// the tokenised body, and a statement-close consuming the newline.
func (l *lexer) tryLineStatement(tokens *[]Token) (Token, bool, error) {
	save := l.pos
	saveLine, saveCol := l.line, l.col

	for !l.eof() && (l.peekByte() == ' ' || l.peekByte() == '\t') {
		l.advance()
	}
	if !l.hasPrefixAt(l.delims.LineStatementPrefix) {
		l.pos, l.line, l.col = save, saveLine, saveCol
		return Token{}, false, nil
	}

	openStart := l.loc()
	l.advanceN(len(l.delims.LineStatementPrefix))
	*tokens = append(*tokens, Token{Kind: TokStmtOpen, Text: l.delims.LineStatementPrefix, Start: openStart, End: l.loc()})

	for {
		l.skipLineSpaces()
		if l.eof() || l.peekByte() == '\n' {
			closeLoc := l.loc()
			*tokens = append(*tokens, Token{Kind: TokStmtClose, Start: closeLoc, End: closeLoc})
			if !l.eof() {
				l.advance() // consume the trailing newline
			}
			return Token{}, true, nil
		}
		tok, err := l.lexOneTagToken("\n")
		if err != nil {
			return Token{}, false, err
		}
		*tokens = append(*tokens, tok)
	}
}

func (l *lexer) skipLineSpaces() {
	for !l.eof() && (l.peekByte() == ' ' || l.peekByte() == '\t') {
		l.advance()
	}
}

// rawEndRegexp builds the regexp matching a raw-block terminator: the
// statement open delimiter, optional trim/preserve, whitespace,
// "endraw", whitespace, optional trim marker, the statement close
// delimiter. Built per-Delims since delimiters are configurable.
func rawEndRegexp(delims Delims) *regexp.Regexp {
	open := regexp.QuoteMeta(delims.StmtOpen)
	close := regexp.QuoteMeta(delims.StmtClose)
	return regexp.MustCompile(open + `[-+]?\s*endraw\s*[-+]?` + close)
}

// scanRawBody scans src starting at offset `from` for the next
// `{% endraw %}`-equivalent tag, returning the raw text before it and
// the byte offset immediately after the terminator. Delimiters inside
// the raw span are not recognised; the scan does not nest.
func scanRawBody(src string, from int, delims Delims) (body string, afterOffset int, ok bool) {
	re := rawEndRegexp(delims)
	loc := re.FindStringIndex(src[from:])
	if loc == nil {
		return "", 0, false
	}
	return src[from : from+loc[0]], from + loc[1], true
}
