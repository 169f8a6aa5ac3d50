// Package token defines the lexer/parser boundary: the Token, Class, and
// Lexer contracts the LR automaton consumes. Lexing itself is out of
// scope here — the lexer is an external collaborator, reached only through
// this interface contract, the same boundary the teacher's
// internal/ictiobus/types package draws between lexing and parsing.
package token

import "strings"

// Class identifies the terminal a Token belongs to. ID must match one of
// the grammar's terminal symbols exactly; Human is used only in error
// messages.
type Class interface {
	// ID returns the ID of the token class. The ID must uniquely identify
	// the token within all terminals of a grammar.
	ID() string

	// Human returns a human-readable name for the token class, for use in
	// contexts such as error reporting.
	Human() string
}

type simpleClass string

func (c simpleClass) ID() string    { return strings.ToLower(string(c)) }
func (c simpleClass) Human() string { return string(c) }

// eofClass is the sentinel class reported for the end of input. Its ID is
// "$", matching grammar.EOF exactly (not the lower-cased "eof" simpleClass
// would otherwise produce), since the action table's accept entries are
// keyed on that exact terminal.
type eofClass struct{}

func (eofClass) ID() string    { return "$" }
func (eofClass) Human() string { return "EOF" }

// EOF is the sentinel class reported for the end of input; its ID must
// match the grammar's EOF terminal.
var EOF Class = eofClass{}

// NewClass returns a Class whose ID is the lower-cased form of s and whose
// Human name is s unmodified.
func NewClass(s string) Class {
	return simpleClass(s)
}

// Token is a lexeme read from the input, tagged with the Class it was
// recognized as.
type Token interface {
	// Class returns the token's class; Class().ID() is looked up in the
	// action table.
	Class() Class

	// Payload is the value carried by the token — for example, the lexed
	// text, or an already-converted literal — and becomes the semantic
	// value pushed for this token when it is shifted.
	Payload() interface{}

	String() string
}

// simpleToken is the concrete Token implementation returned by NewToken,
// sufficient for feeding a Lexer-shaped test double into the automaton.
type simpleToken struct {
	class   Class
	payload interface{}
	lexeme  string
}

// NewToken builds a Token with the given class and payload. lexeme is used
// only for String().
func NewToken(class Class, lexeme string, payload interface{}) Token {
	return simpleToken{class: class, lexeme: lexeme, payload: payload}
}

func (t simpleToken) Class() Class          { return t.class }
func (t simpleToken) Payload() interface{}  { return t.payload }
func (t simpleToken) String() string        { return t.class.Human() + " " + quoteLexeme(t.lexeme) }

func quoteLexeme(s string) string {
	var sb strings.Builder
	sb.WriteRune('"')
	sb.WriteString(s)
	sb.WriteRune('"')
	return sb.String()
}

// Lexer is the contract the LR automaton drives: a source of tokens, one at
// a time, ending with a token of class EOF.
type Lexer interface {
	// NextToken returns the next token in the stream and advances it. The
	// end of input is signaled by a token whose Class().ID() == EOF.ID().
	NextToken() Token
}
