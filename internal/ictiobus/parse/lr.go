// Package parse drives a set of canonical-LR(1) tables against a token
// stream, reducing directly to semantic values rather than building a
// parse tree first. This follows LRParser.parse in ppci's pcc.lr more
// closely than the teacher's own tree-building lrParser.Parse, since the
// grammar this toolkit targets has no separate SDD evaluation pass: each
// production carries its own reduction function.
package parse

import (
	"github.com/glubfish/ictiobus/internal/iclog"
	"github.com/glubfish/ictiobus/internal/icterrors"
	"github.com/glubfish/ictiobus/internal/ictiobus/automaton"
	"github.com/glubfish/ictiobus/internal/token"
)

// Reducer produces the semantic value for a production, given the semantic
// values of its right-hand-side symbols in left-to-right order. The value
// for an epsilon production is produced with an empty args slice.
type Reducer func(args []interface{}) interface{}

// LRAutomaton is a table-driven LR(1) parser: a Tables built by
// automaton.Build, plus a Reducer for every production in the original
// (unaugmented) grammar, indexed by declaration order.
type LRAutomaton struct {
	tables   *automaton.Tables
	reducers []Reducer
	logger   *iclog.Logger
}

// New builds an LRAutomaton from already-constructed tables and one
// Reducer per production of the grammar that was passed to automaton.Build.
// Reducers is indexed by production index in the *unaugmented* grammar;
// index 0 corresponds to the first production given to grammar.New.
func New(tables *automaton.Tables, reducers []Reducer, logger *iclog.Logger) *LRAutomaton {
	return &LRAutomaton{tables: tables, reducers: reducers, logger: logger}
}

// production index offset: tables.Grammar is augmented, with the synthetic
// start production inserted at index 0, so production i in the augmented
// grammar corresponds to reducers[i-1].
func (a *LRAutomaton) reducerFor(augmentedProdIdx int) (Reducer, bool) {
	idx := augmentedProdIdx - 1
	if idx < 0 || idx >= len(a.reducers) {
		return nil, false
	}
	return a.reducers[idx], true
}

// Parse drives lexer through the table, shifting tokens and reducing
// productions, and returns the semantic value produced by the accepting
// reduction. It returns icterrors.ParseError if the table has no action for
// the current state and lookahead.
func (a *LRAutomaton) Parse(lexer token.Lexer) (interface{}, error) {
	states := []int{0}
	values := []interface{}{nil}

	la := lexer.NextToken()
	pos := 0

	for {
		state := states[len(states)-1]
		termID := la.Class().ID()

		act, ok := a.tables.ActionFor(state, termID)
		if !ok {
			return nil, icterrors.NewParseError(pos, stringableToken{la}, a.expectedDescription(state))
		}

		switch act.Kind {
		case automaton.Shift:
			states = append(states, act.NextState)
			values = append(values, la.Payload())
			la = lexer.NextToken()
			pos++

		case automaton.Reduce:
			value, newState, err := a.reduce(act.Production, &states, &values)
			if err != nil {
				return nil, err
			}
			states = append(states, newState)
			values = append(values, value)

		case automaton.Accept:
			// The accepting production is the augmented S' -> S; it has no
			// Reducer and no GOTO, and its value is that of S, already on
			// top of the semantic stack.
			return values[len(values)-1], nil

		default:
			return nil, icterrors.NewParseError(pos, stringableToken{la}, a.expectedDescription(state))
		}
	}
}

// reduce pops len(Symbols) entries off both stacks, invokes the production's
// Reducer (if any) on the popped semantic values in original order, and
// returns the goto state to push along with the reduced value.
func (a *LRAutomaton) reduce(prodIdx int, states *[]int, values *[]interface{}) (interface{}, int, error) {
	prod := a.tables.Grammar.Productions[prodIdx]
	n := len(prod.Symbols)

	args := make([]interface{}, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = (*values)[len(*values)-1]
		*values = (*values)[:len(*values)-1]
		*states = (*states)[:len(*states)-1]
	}

	var result interface{}
	if reducer, ok := a.reducerFor(prodIdx); ok {
		result = reducer(args)
	}

	top := (*states)[len(*states)-1]
	next, ok := a.tables.GotoFor(top, prod.Name)
	if !ok {
		return nil, 0, icterrors.GrammarErrorf("no GOTO[%d, %s] after reducing %s", top, prod.Name, prod)
	}
	return result, next, nil
}

func (a *LRAutomaton) expectedDescription(state int) string {
	var expected []string
	for _, term := range a.tables.Grammar.Terminals() {
		if _, ok := a.tables.ActionFor(state, term); ok {
			expected = append(expected, term)
		}
	}
	if len(expected) == 0 {
		return "no further input was expected"
	}
	return "expected one of: " + joinExpected(expected)
}

func joinExpected(expected []string) string {
	out := ""
	for i, e := range expected {
		if i > 0 {
			out += ", "
		}
		out += e
	}
	return out
}

type stringableToken struct {
	tok token.Token
}

func (s stringableToken) String() string { return s.tok.String() }
