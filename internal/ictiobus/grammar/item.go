package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/glubfish/ictiobus/internal/util"
)

// Item is an LR(1) item: a production with a dot position marking how much
// of the right-hand side has been matched, plus a lookahead terminal. Item
// is comparable so it can key a map or live in a util.KeySet directly,
// unlike the teacher's LR1Item/LR0Item pair which carries the production's
// symbols split across Left/Right slices; here the production is referenced
// by its declaration index into a Grammar, keeping Item itself a small,
// hashable value.
type Item struct {
	Production int
	Dot        int
	Lookahead  string
}

// IsShift reports whether the dot is before the end of the production,
// i.e. whether this item can still shift over its Next symbol.
func (it Item) IsShift(g Grammar) bool {
	return it.Dot < len(g.Productions[it.Production].Symbols)
}

// IsReduce reports whether the dot is at the end of the production.
func (it Item) IsReduce(g Grammar) bool {
	return !it.IsShift(g)
}

// Next returns the symbol immediately after the dot. Only valid when
// IsShift is true.
func (it Item) Next(g Grammar) string {
	return g.Productions[it.Production].Symbols[it.Dot]
}

// NextNext returns the symbol after Next, or Epsilon if there is none. Used
// by closure's lookahead computation (FIRST of what follows the
// just-introduced nonterminal, concatenated with the item's own lookahead).
func (it Item) NextNext(g Grammar) string {
	syms := g.Productions[it.Production].Symbols
	if it.Dot+1 >= len(syms) {
		return Epsilon
	}
	return syms[it.Dot+1]
}

// CanShiftOver reports whether this item can shift over sym: it is not yet
// at the end of its production, and Next equals sym.
func (it Item) CanShiftOver(g Grammar, sym string) bool {
	return it.IsShift(g) && it.Next(g) == sym
}

// Shifted returns a copy of it with the dot advanced one position.
func (it Item) Shifted() Item {
	return Item{Production: it.Production, Dot: it.Dot + 1, Lookahead: it.Lookahead}
}

// String renders the item as "[Name -> pre . post, lookahead]".
func (it Item) String(g Grammar) string {
	prod := g.Productions[it.Production]
	pre := strings.Join(prod.Symbols[:it.Dot], " ")
	post := strings.Join(prod.Symbols[it.Dot:], " ")
	return fmt.Sprintf("[%s -> %s . %s, %s]", prod.Name, pre, post, it.Lookahead)
}

// ItemSet is a set of LR(1) items: one state of the canonical collection.
type ItemSet = util.KeySet[Item]

// NewItemSet builds an ItemSet from the given items.
func NewItemSet(items ...Item) ItemSet {
	s := util.NewKeySet[Item]()
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// SortedItems returns the items of s in a deterministic order, sorted by
// production index then dot then lookahead. Used for display and for
// hashing a state by its canonical string form.
func SortedItems(s ItemSet) []Item {
	items := s.Elements()
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Production != b.Production {
			return a.Production < b.Production
		}
		if a.Dot != b.Dot {
			return a.Dot < b.Dot
		}
		return a.Lookahead < b.Lookahead
	})
	return items
}

// StateKey returns a canonical string identifying the contents of s,
// suitable as a map key for deduplicating states in the canonical
// collection. Two item sets with the same StateKey are the same state.
func StateKey(g Grammar, s ItemSet) string {
	var sb strings.Builder
	for _, it := range SortedItems(s) {
		sb.WriteString(it.String(g))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FirstSets computes the FIRST set of every terminal and nonterminal symbol
// in g via fixed-point iteration, following Algorithm in the original
// ppci calculate_first_sets: a terminal's FIRST set is itself; a
// nonterminal's FIRST set is built by repeatedly scanning every production,
// tracking which symbols are nullable, and propagating FIRST(beta) into
// FIRST(rule.Name) for each leading symbol beta in the production's body
// until nothing changes.
func FirstSets(g Grammar) (first map[string]util.KeySet[string], nullable map[string]bool) {
	first = make(map[string]util.KeySet[string])
	nullable = make(map[string]bool)

	for _, t := range g.Terminals() {
		first[t] = util.KeySetOf([]string{t})
		nullable[t] = false
	}
	first[EOF] = util.KeySetOf([]string{EOF})
	nullable[EOF] = false
	first[Epsilon] = util.KeySetOf([]string{Epsilon})
	nullable[Epsilon] = true

	for _, nt := range g.NonTerminals() {
		first[nt] = util.NewKeySet[string]()
		nullable[nt] = false
	}

	for {
		changed := false
		for _, rule := range g.Productions {
			allNullable := true
			for _, beta := range rule.Symbols {
				if !nullable[beta] {
					allNullable = false
					break
				}
			}
			if allNullable && !nullable[rule.Name] {
				nullable[rule.Name] = true
				changed = true
			}

			for _, beta := range rule.Symbols {
				before := first[rule.Name].Len()
				betaFirst := first[beta].Copy().(util.KeySet[string])
				delete(betaFirst, Epsilon)
				first[rule.Name].AddAll(betaFirst)
				if first[rule.Name].Len() != before {
					changed = true
				}
				if !nullable[beta] {
					break
				}
			}
		}
		if !changed {
			break
		}
	}

	return first, nullable
}

// lookaheadsFor computes the set of lookahead terminals to use when an item
// introduces a production for its Next symbol: FIRST(NextNext), or the
// item's own lookahead when there is no symbol after Next (NextNext is
// Epsilon). FirstSets never puts Epsilon into a nonterminal's FIRST set, so
// a nullable nonterminal after Next contributes only its FIRST set; the
// item's lookahead is not added for it, and symbols beyond NextNext are not
// consulted. This mirrors first2 in the original ppci closure implementation.
func lookaheadsFor(first map[string]util.KeySet[string], it Item, g Grammar) util.KeySet[string] {
	nextNext := it.NextNext(g)
	f := first[nextNext].Copy().(util.KeySet[string])
	if f.Has(Epsilon) {
		delete(f, Epsilon)
		f.Add(it.Lookahead)
	}
	return f
}

// ItemClosure expands the given seed items by repeatedly following epsilon
// moves: whenever an item's Next symbol is a nonterminal, every production
// for that nonterminal is added back into the set, dotted at zero, with
// lookaheads computed from FIRST(NextNext). Iteration continues until no
// new items are added.
func ItemClosure(g Grammar, first map[string]util.KeySet[string], seed ItemSet) ItemSet {
	closure := util.NewKeySet[Item]()
	var worklist []Item
	for _, it := range seed.Elements() {
		closure.Add(it)
		worklist = append(worklist, it)
	}

	for len(worklist) > 0 {
		it := worklist[0]
		worklist = worklist[1:]

		if !it.IsShift(g) {
			continue
		}
		next := it.Next(g)
		if !g.IsNonTerminal(next) {
			continue
		}
		for _, prod := range g.ProductionsFor(next) {
			prodIdx := g.IndexOf(prod)
			for _, la := range lookaheadsFor(first, it, g).Elements() {
				cand := Item{Production: prodIdx, Dot: 0, Lookahead: la}
				if !closure.Has(cand) {
					closure.Add(cand)
					worklist = append(worklist, cand)
				}
			}
		}
	}
	return closure
}

// Goto computes the item set reached from state by shifting over sym: every
// item in state that can shift over sym is advanced, and the result is
// closed.
func Goto(g Grammar, first map[string]util.KeySet[string], state ItemSet, sym string) ItemSet {
	next := util.NewKeySet[Item]()
	for _, it := range state.Elements() {
		if it.CanShiftOver(g, sym) {
			next.Add(it.Shifted())
		}
	}
	if next.Empty() {
		return next
	}
	return ItemClosure(g, first, next)
}
