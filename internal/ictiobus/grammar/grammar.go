// Package grammar models context-free grammars and the LR(1) item
// machinery built on top of them: productions, FIRST sets, item closure,
// and the GOTO function. It is the foundation the automaton package builds
// canonical-LR(1) tables from.
package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/glubfish/ictiobus/internal/util"
)

// EOF is the reserved terminal symbol marking the end of input, used as the
// lookahead on the augmented grammar's start item and as the Class ID a
// Lexer must report at the end of a token stream.
const EOF = "$"

// Epsilon is the reserved symbol used internally to mark a nullable
// derivation; it never appears in a Grammar's terminal or nonterminal sets
// and is never shifted or reduced.
const Epsilon = ""

// Production is a single alternative "Name -> Symbols..." of a grammar
// rule. A nonterminal with several alternatives is represented as one
// Production per alternative, all sharing the same Name, mirroring the
// teacher's one-alternative-per-Production convention.
type Production struct {
	Name    string
	Symbols []string
}

// String renders the production in "Name -> s1 s2 s3" form, or "Name -> ε"
// for an empty production.
func (p Production) String() string {
	if len(p.Symbols) == 0 {
		return fmt.Sprintf("%s -> ε", p.Name)
	}
	return fmt.Sprintf("%s -> %s", p.Name, strings.Join(p.Symbols, " "))
}

// Equal reports whether p and o are the same production.
func (p Production) Equal(o Production) bool {
	if p.Name != o.Name || len(p.Symbols) != len(o.Symbols) {
		return false
	}
	for i := range p.Symbols {
		if p.Symbols[i] != o.Symbols[i] {
			return false
		}
	}
	return true
}

// Grammar is an ordered set of productions over a start symbol. Productions
// are kept in declaration order since that order is significant: it is used
// to pick a default start symbol, and production indices are used as the
// stable identity for Reduce actions.
type Grammar struct {
	StartSymbol string
	Productions []Production

	terminals    util.KeySet[string]
	nonterminals util.KeySet[string]
}

// New builds a Grammar from the given productions. If start is empty, the
// name of the first production is used, matching the teacher's and the
// original ppci builder's "if no start symbol set, pick the first one"
// behavior.
func New(start string, productions []Production) Grammar {
	g := Grammar{
		StartSymbol: start,
		Productions: productions,
	}
	if g.StartSymbol == "" && len(productions) > 0 {
		g.StartSymbol = productions[0].Name
	}
	g.index()
	return g
}

func (g *Grammar) index() {
	g.nonterminals = util.NewKeySet[string]()
	for _, p := range g.Productions {
		g.nonterminals.Add(p.Name)
	}
	g.terminals = util.NewKeySet[string]()
	for _, p := range g.Productions {
		for _, sym := range p.Symbols {
			if !g.nonterminals.Has(sym) {
				g.terminals.Add(sym)
			}
		}
	}
}

// IsTerminal reports whether sym is a terminal symbol of g: it appears on
// the right-hand side of some production but never as a production's Name.
func (g Grammar) IsTerminal(sym string) bool {
	return g.terminals.Has(sym)
}

// IsNonTerminal reports whether sym names at least one production.
func (g Grammar) IsNonTerminal(sym string) bool {
	return g.nonterminals.Has(sym)
}

// ProductionsFor returns, in declaration order, every production whose Name
// is nt.
func (g Grammar) ProductionsFor(nt string) []Production {
	var out []Production
	for _, p := range g.Productions {
		if p.Name == nt {
			out = append(out, p)
		}
	}
	return out
}

// IndexOf returns the declaration-order index of p within g.Productions, or
// -1 if p is not one of g's productions. Reduce actions carry this index as
// their stable identity rather than a copy of the Production itself.
func (g Grammar) IndexOf(p Production) int {
	for i, cand := range g.Productions {
		if cand.Equal(p) {
			return i
		}
	}
	return -1
}

// Symbols returns every terminal and nonterminal symbol in g, sorted for
// deterministic iteration. EOF is not included; callers that need it add it
// explicitly the way the augmented grammar's start item does.
func (g Grammar) Symbols() []string {
	set := util.NewKeySet[string]()
	set.AddAll(g.terminals)
	set.AddAll(g.nonterminals)
	syms := set.Elements()
	sort.Strings(syms)
	return syms
}

// Terminals returns g's terminal symbols, sorted.
func (g Grammar) Terminals() []string {
	syms := g.terminals.Elements()
	sort.Strings(syms)
	return syms
}

// NonTerminals returns g's nonterminal symbols, sorted.
func (g Grammar) NonTerminals() []string {
	syms := g.nonterminals.Elements()
	sort.Strings(syms)
	return syms
}

// Augmented returns a copy of g with a synthetic start production
// "S' -> StartSymbol" prepended, and StartSymbol set to the new S'. This is
// the augmentation Algorithm 4.56 requires before constructing the
// canonical collection, so that accept can be detected as a specific
// reduction of item [S' -> StartSymbol ., $] rather than by special-casing
// the grammar's own start symbol.
func (g Grammar) Augmented() Grammar {
	augStart := g.StartSymbol + "'"
	for g.IsNonTerminal(augStart) || g.IsTerminal(augStart) {
		augStart += "'"
	}
	prods := make([]Production, 0, len(g.Productions)+1)
	prods = append(prods, Production{Name: augStart, Symbols: []string{g.StartSymbol}})
	prods = append(prods, g.Productions...)
	return New(augStart, prods)
}
