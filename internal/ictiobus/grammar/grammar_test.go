package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// exprGrammar is the classic expression grammar used throughout the dragon
// book's LR examples:
//
//	E -> E + T | T
//	T -> T * F | F
//	F -> ( E ) | id
func exprGrammar() Grammar {
	return New("E", []Production{
		{Name: "E", Symbols: []string{"E", "+", "T"}},
		{Name: "E", Symbols: []string{"T"}},
		{Name: "T", Symbols: []string{"T", "*", "F"}},
		{Name: "T", Symbols: []string{"F"}},
		{Name: "F", Symbols: []string{"(", "E", ")"}},
		{Name: "F", Symbols: []string{"id"}},
	})
}

func TestGrammar_TerminalsAndNonTerminals(t *testing.T) {
	g := exprGrammar()

	assert.ElementsMatch(t, []string{"E", "T", "F"}, g.NonTerminals())
	assert.ElementsMatch(t, []string{"+", "*", "(", ")", "id"}, g.Terminals())
}

func TestGrammar_DefaultStartSymbol(t *testing.T) {
	g := New("", []Production{
		{Name: "S", Symbols: []string{"a"}},
	})

	assert.Equal(t, "S", g.StartSymbol)
}

func TestGrammar_Augmented(t *testing.T) {
	g := exprGrammar()
	aug := g.Augmented()

	assert.Equal(t, "E'", aug.StartSymbol)
	assert.Equal(t, "E'", aug.Productions[0].Name)
	assert.Equal(t, []string{"E"}, aug.Productions[0].Symbols)
	assert.Len(t, aug.Productions, len(g.Productions)+1)
}

func TestFirstSets_Terminals(t *testing.T) {
	g := exprGrammar()
	first, _ := FirstSets(g)

	assert.True(t, first["id"].Has("id"))
	assert.Equal(t, 1, first["id"].Len())
}

func TestFirstSets_Nonterminals(t *testing.T) {
	g := exprGrammar()
	first, nullable := FirstSets(g)

	for _, nt := range []string{"E", "T", "F"} {
		assert.True(t, first[nt].Has("("), "FIRST(%s) should contain (", nt)
		assert.True(t, first[nt].Has("id"), "FIRST(%s) should contain id", nt)
		assert.False(t, nullable[nt], "%s should not be nullable", nt)
	}
}

func TestFirstSets_Nullable(t *testing.T) {
	g := New("S", []Production{
		{Name: "S", Symbols: []string{"A", "b"}},
		{Name: "A", Symbols: []string{}},
		{Name: "A", Symbols: []string{"a"}},
	})
	first, nullable := FirstSets(g)

	assert.True(t, nullable["A"])
	assert.True(t, first["S"].Has("a"))
	assert.True(t, first["S"].Has("b"))
}

func TestItemClosure_InitialState(t *testing.T) {
	g := exprGrammar().Augmented()
	first, _ := FirstSets(g)

	seed := NewItemSet(Item{Production: 0, Dot: 0, Lookahead: EOF})
	closure := ItemClosure(g, first, seed)

	// The initial closure of [E' -> . E, $] must pull in every production
	// reachable by repeatedly expanding the leftmost nonterminal: E, T, and
	// F productions, seventeen items in total for this grammar (1 aug, plus
	// 2 E productions with lookaheads {$, +}, and 2 T and 2 F productions
	// each with lookaheads {$, +, *}).
	assert.True(t, closure.Has(Item{Production: 0, Dot: 0, Lookahead: EOF}))

	foundFProd := false
	for _, it := range closure.Elements() {
		if g.Productions[it.Production].Name == "F" && it.Dot == 0 {
			foundFProd = true
		}
	}
	assert.True(t, foundFProd, "closure of initial item should reach F productions")
}

func TestGoto_ShiftsAndRecloses(t *testing.T) {
	g := exprGrammar().Augmented()
	first, _ := FirstSets(g)

	seed := NewItemSet(Item{Production: 0, Dot: 0, Lookahead: EOF})
	s0 := ItemClosure(g, first, seed)

	sOnId := Goto(g, first, s0, "id")
	assert.False(t, sOnId.Empty())
	for _, it := range sOnId.Elements() {
		prod := g.Productions[it.Production]
		assert.Equal(t, "F", prod.Name)
		assert.Equal(t, 1, it.Dot)
	}
}

func TestGoto_EmptyWhenNoItemShiftsOverSymbol(t *testing.T) {
	g := exprGrammar().Augmented()
	first, _ := FirstSets(g)

	seed := NewItemSet(Item{Production: 0, Dot: 0, Lookahead: EOF})
	s0 := ItemClosure(g, first, seed)

	assert.True(t, Goto(g, first, s0, "nonexistent").Empty())
}
