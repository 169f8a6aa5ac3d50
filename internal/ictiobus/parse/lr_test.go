package parse

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glubfish/ictiobus/internal/iclog"
	"github.com/glubfish/ictiobus/internal/ictiobus/automaton"
	"github.com/glubfish/ictiobus/internal/ictiobus/grammar"
	"github.com/glubfish/ictiobus/internal/token"
)

// sliceLexer feeds a fixed sequence of tokens, appending an EOF token at the
// end automatically.
type sliceLexer struct {
	toks []token.Token
	pos  int
}

func (l *sliceLexer) NextToken() token.Token {
	if l.pos >= len(l.toks) {
		return token.NewToken(token.EOF, "", nil)
	}
	t := l.toks[l.pos]
	l.pos++
	return t
}

func numTok(n int) token.Token {
	return token.NewToken(token.NewClass("id"), strconv.Itoa(n), n)
}

func opTok(s string) token.Token {
	return token.NewToken(token.NewClass(s), s, s)
}

// buildArithmeticAutomaton builds:
//
//	E -> E + T   { a + b }
//	E -> T       { a }
//	T -> T * F   { a * b }
//	T -> F       { a }
//	F -> ( E )   { inner }
//	F -> id      { value }
func buildArithmeticAutomaton(t *testing.T) *LRAutomaton {
	t.Helper()

	g := grammar.New("E", []grammar.Production{
		{Name: "E", Symbols: []string{"E", "+", "T"}},
		{Name: "E", Symbols: []string{"T"}},
		{Name: "T", Symbols: []string{"T", "*", "F"}},
		{Name: "T", Symbols: []string{"F"}},
		{Name: "F", Symbols: []string{"(", "E", ")"}},
		{Name: "F", Symbols: []string{"id"}},
	})

	tables, err := automaton.Build(g, iclog.Discard())
	require.NoError(t, err)

	reducers := []Reducer{
		func(args []interface{}) interface{} { return args[0].(int) + args[2].(int) }, // E -> E + T
		func(args []interface{}) interface{} { return args[0] },                        // E -> T
		func(args []interface{}) interface{} { return args[0].(int) * args[2].(int) },  // T -> T * F
		func(args []interface{}) interface{} { return args[0] },                        // T -> F
		func(args []interface{}) interface{} { return args[1] },                        // F -> ( E )
		func(args []interface{}) interface{} { return args[0] },                        // F -> id
	}

	return New(tables, reducers, iclog.Discard())
}

func TestLRAutomaton_Parse_SimpleSum(t *testing.T) {
	a := buildArithmeticAutomaton(t)

	lexer := &sliceLexer{toks: []token.Token{numTok(2), opTok("+"), numTok(3)}}
	result, err := a.Parse(lexer)

	require.NoError(t, err)
	assert.Equal(t, 5, result)
}

func TestLRAutomaton_Parse_PrecedenceAndParens(t *testing.T) {
	a := buildArithmeticAutomaton(t)

	// (2 + 3) * 4 = 20
	lexer := &sliceLexer{toks: []token.Token{
		opTok("("), numTok(2), opTok("+"), numTok(3), opTok(")"), opTok("*"), numTok(4),
	}}
	result, err := a.Parse(lexer)

	require.NoError(t, err)
	assert.Equal(t, 20, result)
}

func TestLRAutomaton_Parse_UnexpectedTokenIsParseError(t *testing.T) {
	a := buildArithmeticAutomaton(t)

	lexer := &sliceLexer{toks: []token.Token{opTok("+"), numTok(2)}}
	_, err := a.Parse(lexer)

	require.Error(t, err)
}
