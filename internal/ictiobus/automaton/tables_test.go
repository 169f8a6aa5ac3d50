package automaton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glubfish/ictiobus/internal/iclog"
	"github.com/glubfish/ictiobus/internal/ictiobus/grammar"
)

func exprGrammar() grammar.Grammar {
	return grammar.New("E", []grammar.Production{
		{Name: "E", Symbols: []string{"E", "+", "T"}},
		{Name: "E", Symbols: []string{"T"}},
		{Name: "T", Symbols: []string{"T", "*", "F"}},
		{Name: "T", Symbols: []string{"F"}},
		{Name: "F", Symbols: []string{"(", "E", ")"}},
		{Name: "F", Symbols: []string{"id"}},
	})
}

func TestBuild_ExprGrammar(t *testing.T) {
	g := exprGrammar()

	tables, err := Build(g, iclog.Discard())
	require.NoError(t, err)
	assert.NotEmpty(t, tables.States)
	assert.NotEqual(t, tables.BuildID.String(), "")

	hasShift, hasReduce, hasAccept := false, false, false
	for _, act := range tables.Action {
		switch act.Kind {
		case Shift:
			hasShift = true
		case Reduce:
			hasReduce = true
		case Accept:
			hasAccept = true
		}
	}
	assert.True(t, hasShift, "expression grammar should have at least one shift action")
	assert.True(t, hasReduce, "expression grammar should have at least one reduce action")
	assert.True(t, hasAccept, "expression grammar should have an accept action")
}

func TestBuild_ShiftPreferenceResolvesDanglingElse(t *testing.T) {
	// Classic dangling-else grammar: the shift/reduce conflict on "else"
	// must resolve to shift (bind the else to the nearest if), never to a
	// hard conflict error.
	g := grammar.New("S", []grammar.Production{
		{Name: "S", Symbols: []string{"if", "cond", "then", "S", "else", "S"}},
		{Name: "S", Symbols: []string{"if", "cond", "then", "S"}},
		{Name: "S", Symbols: []string{"stmt"}},
	})

	tables, err := Build(g, iclog.Discard())
	require.NoError(t, err)
	assert.NotNil(t, tables)
}

func TestBuild_ReduceReduceConflictIsAnError(t *testing.T) {
	// S -> A and S -> B are both reducible with no way to distinguish them
	// given only one token of lookahead and no distinguishing prefix --
	// an unavoidable reduce/reduce conflict.
	g := grammar.New("S", []grammar.Production{
		{Name: "S", Symbols: []string{"A"}},
		{Name: "S", Symbols: []string{"B"}},
		{Name: "A", Symbols: []string{"x"}},
		{Name: "B", Symbols: []string{"x"}},
	})

	_, err := Build(g, iclog.Discard())
	require.Error(t, err)
}

func TestTables_String_RendersGrid(t *testing.T) {
	g := exprGrammar()
	tables, err := Build(g, iclog.Discard())
	require.NoError(t, err)

	out := tables.String()
	assert.Contains(t, out, "state")
	assert.Contains(t, out, "A:id")
}
