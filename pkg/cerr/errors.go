// Package cerr defines the typed error taxonomy raised across the
// lexer, parser, and translator. Every error carries a source offset
// (when one is known) so callers can point back at the offending text.
package cerr

import "fmt"

// LexError is raised for an unknown character or unterminated literal.
type LexError struct {
	Pos     int
	Line    int
	Column  int
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// ParseError is raised for an unexpected token or unmet grammar
// expectation.
type ParseError struct {
	Pos      int
	Line     int
	Column   int
	Expected string
	Got      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: expected %s, got %s", e.Line, e.Column, e.Expected, e.Got)
}

// ResolutionError is raised for a reference to an unbound variable.
type ResolutionError struct {
	Pos      int
	Variable string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("variable %q is not bound by any earlier MATCH/CREATE/MERGE/YIELD", e.Variable)
}

// RebindError is raised when a MATCH restates labels or properties on
// a variable an earlier clause already bound, an ambiguous
// redeclaration rather than a reference to the existing binding.
type RebindError struct {
	Pos      int
	Variable string
}

func (e *RebindError) Error() string {
	return fmt.Sprintf("variable %q is already bound in this scope", e.Variable)
}

// ParameterError is raised for a missing parameter, a type mismatch
// against its point of use, or a value rejecting safe coercion.
type ParameterError struct {
	Name    string
	Message string
}

func (e *ParameterError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("parameter %q: %s", e.Name, e.Message)
	}
	return e.Message
}

// UnsupportedError is raised for valid openCypher that falls outside
// the supported subset.
type UnsupportedError struct {
	Pos     int
	Feature string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported construct: %s", e.Feature)
}

// TranslationError is raised for contradictory options, a missing
// mandatory option, or an otherwise impossible lowering.
type TranslationError struct {
	Message string
}

func (e *TranslationError) Error() string {
	return e.Message
}
