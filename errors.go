package inja

import (
	"errors"
	"fmt"
)

// ExceptionKind is the outer error taxonomy spec.md §7 names: parse
// failures, render failures, and include/file resolution failures.
type ExceptionKind int

const (
	KindParserError ExceptionKind = iota
	KindRenderError
	KindFileError
)

func (k ExceptionKind) tag() string {
	switch k {
	case KindParserError:
		return "parser_error"
	case KindRenderError:
		return "render_error"
	case KindFileError:
		return "file_error"
	default:
		return "error"
	}
}

// TemplateError is the single error type parse/render failures surface
// as. Its Error() string follows spec.md §6's stable wire format:
// "[inja.exception.<kind>_error] (at <line>:<col>) <message>", with no
// location prefix for file errors.
type TemplateError struct {
	Kind     ExceptionKind
	Location Location
	HasLoc   bool
	Message  string
	Cause    error
}

func (e *TemplateError) Error() string {
	if e.HasLoc {
		return fmt.Sprintf("[inja.exception.%s] (at %d:%d) %s", e.Kind.tag(), e.Location.Line, e.Location.Column, e.Message)
	}
	return fmt.Sprintf("[inja.exception.%s] %s", e.Kind.tag(), e.Message)
}

func (e *TemplateError) Unwrap() error { return e.Cause }

// ParserError is the lighter error type the lexer/parser return, since
// they always know a location; AsTemplateError converts it.
type ParserError struct {
	Location Location
	Message  string
}

func (e *ParserError) Error() string {
	return (&TemplateError{Kind: KindParserError, Location: e.Location, HasLoc: true, Message: e.Message}).Error()
}

func (e *ParserError) AsTemplateError() *TemplateError {
	return &TemplateError{Kind: KindParserError, Location: e.Location, HasLoc: true, Message: e.Message}
}

func newParserError(loc Location, format string, args ...interface{}) *ParserError {
	return &ParserError{Location: loc, Message: fmt.Sprintf(format, args...)}
}

func newRenderError(loc Location, format string, args ...interface{}) *TemplateError {
	return &TemplateError{Kind: KindRenderError, Location: loc, HasLoc: true, Message: fmt.Sprintf(format, args...)}
}

func newFileError(format string, args ...interface{}) *TemplateError {
	return &TemplateError{Kind: KindFileError, Message: fmt.Sprintf(format, args...)}
}

// IsParserError reports whether err (or something it wraps) is a parse-time error.
func IsParserError(err error) bool { return hasKind(err, KindParserError) }

// IsRenderError reports whether err (or something it wraps) is a render-time error.
func IsRenderError(err error) bool { return hasKind(err, KindRenderError) }

// IsFileError reports whether err (or something it wraps) is an include-resolution error.
func IsFileError(err error) bool { return hasKind(err, KindFileError) }

func hasKind(err error, kind ExceptionKind) bool {
	var te *TemplateError
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	var pe *ParserError
	if errors.As(err, &pe) {
		return kind == KindParserError
	}
	return false
}
