// Package icterrors defines the error kinds raised while building parser
// tables and while lowering WASM modules into IR. Each kind is an exported
// struct type implementing error (GrammarError also implements Unwrap), with
// exported constructor functions; callers distinguish kinds with errors.As,
// never by inspecting message text.
package icterrors

import "fmt"

// GrammarError reports a malformed grammar: an undeclared symbol referenced
// by a production, a missing start symbol, or any other structural problem
// discovered while validating a Grammar before table construction.
type GrammarError struct {
	msg  string
	wrap error
}

func (e *GrammarError) Error() string { return e.msg }
func (e *GrammarError) Unwrap() error { return e.wrap }

// GrammarErrorf builds a GrammarError from a format string.
func GrammarErrorf(format string, a ...interface{}) error {
	return &GrammarError{msg: fmt.Sprintf(format, a...)}
}

// GrammarConflict reports an LR table-construction conflict that the
// default shift-preference rule could not resolve: a reduce/reduce
// collision, or any other disagreement between two computed actions.
type GrammarConflict struct {
	msg        string
	State      int
	Terminal   string
	Existing   fmt.Stringer
	Incoming   fmt.Stringer
	ProdExist  int
	ProdIncoming int
}

func (e *GrammarConflict) Error() string { return e.msg }

// NewGrammarConflict builds a GrammarConflict naming both competing actions
// and the productions involved.
func NewGrammarConflict(state int, terminal string, existing, incoming fmt.Stringer, prodExisting, prodIncoming int) error {
	return &GrammarConflict{
		msg: fmt.Sprintf(
			"unresolved conflict in state %d on terminal %q: %s vs %s",
			state, terminal, existing, incoming,
		),
		State:        state,
		Terminal:     terminal,
		Existing:     existing,
		Incoming:     incoming,
		ProdExist:    prodExisting,
		ProdIncoming: prodIncoming,
	}
}

// ParseError reports that the LR automaton found no action for the current
// state and lookahead token; it carries the offending token so the caller
// can describe where in the input the failure occurred.
type ParseError struct {
	msg      string
	Position int
	Token    fmt.Stringer
}

func (e *ParseError) Error() string { return e.msg }

// NewParseError builds a ParseError naming the lookahead token and its
// zero-based position in the input stream.
func NewParseError(position int, tok fmt.Stringer, expectedDescription string) error {
	return &ParseError{
		msg:      fmt.Sprintf("parse error at position %d: unexpected %s; %s", position, tok, expectedDescription),
		Position: position,
		Token:    tok,
	}
}

// UnsupportedWasm reports an opcode or definition kind the lowerer does not
// implement.
type UnsupportedWasm struct {
	msg string
}

func (e *UnsupportedWasm) Error() string { return e.msg }

// UnsupportedWasmf builds an UnsupportedWasm from a format string.
func UnsupportedWasmf(format string, a ...interface{}) error {
	return &UnsupportedWasm{msg: fmt.Sprintf(format, a...)}
}

// TypeMismatch reports that a local/global store (or other type-checked
// operation) disagreed with the declared type of its target.
type TypeMismatch struct {
	msg string
}

func (e *TypeMismatch) Error() string { return e.msg }

// TypeMismatchf builds a TypeMismatch from a format string.
func TypeMismatchf(format string, a ...interface{}) error {
	return &TypeMismatch{msg: fmt.Sprintf(format, a...)}
}

// StackUnderflow reports that the operand stack was popped below zero,
// indicating malformed WASM input.
type StackUnderflow struct {
	msg string
}

func (e *StackUnderflow) Error() string { return e.msg }

// NewStackUnderflow builds a StackUnderflow naming the operation that
// triggered it.
func NewStackUnderflow(during string) error {
	return &StackUnderflow{msg: fmt.Sprintf("operand stack underflow during %s", during)}
}
