// Package automaton builds canonical-LR(1) action and goto tables from a
// grammar.Grammar; the parse package drives them against a token stream. Table
// construction follows the canonical collection algorithm (Algorithm 4.56
// in the dragon book, and gen_canonical_set/generate_tables in ppci's
// pcc.lr): states are item sets reached from the augmented grammar's
// initial state by repeated GOTO, explored breadth-first with a worklist
// until no new state appears.
package automaton

import (
	"fmt"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/google/uuid"

	"github.com/glubfish/ictiobus/internal/iclog"
	"github.com/glubfish/ictiobus/internal/icterrors"
	"github.com/glubfish/ictiobus/internal/ictiobus/grammar"
	"github.com/glubfish/ictiobus/internal/util"
)

// ActionKind distinguishes the four things a table cell can tell the
// automaton to do.
type ActionKind int

const (
	Error ActionKind = iota
	Shift
	Reduce
	Accept
)

func (k ActionKind) String() string {
	switch k {
	case Shift:
		return "shift"
	case Reduce:
		return "reduce"
	case Accept:
		return "accept"
	default:
		return "error"
	}
}

// Action is one cell of the action table: what to do when the automaton is
// in a given state and sees a given lookahead terminal.
type Action struct {
	Kind       ActionKind
	NextState  int // valid when Kind == Shift
	Production int // valid when Kind == Reduce or Kind == Accept
}

// String renders the action the way conflict messages and table dumps
// reference it, e.g. "shift 4", "reduce 2" or "accept 0".
func (a Action) String() string {
	switch a.Kind {
	case Shift:
		return fmt.Sprintf("shift %d", a.NextState)
	case Reduce:
		return fmt.Sprintf("reduce %d", a.Production)
	case Accept:
		return fmt.Sprintf("accept %d", a.Production)
	default:
		return "error"
	}
}

type actionKey struct {
	state    int
	terminal string
}

type gotoKey struct {
	state int
	symbol string
}

// Tables is the complete result of table construction: the action and goto
// tables, the grammar they were built from (augmented), and a BuildID: a
// fresh random UUID per Build call that tells one build apart from another.
// It is not linked to any IR module's BuildID.
type Tables struct {
	Grammar grammar.Grammar // augmented
	Action  map[actionKey]Action
	Goto    map[gotoKey]int
	States  []grammar.ItemSet
	BuildID uuid.UUID
}

// ActionFor returns the action for (state, terminal) and whether one
// exists.
func (t *Tables) ActionFor(state int, terminal string) (Action, bool) {
	a, ok := t.Action[actionKey{state, terminal}]
	return a, ok
}

// GotoFor returns the state reached from state on nonterminal symbol, and
// whether a transition exists.
func (t *Tables) GotoFor(state int, symbol string) (int, bool) {
	s, ok := t.Goto[gotoKey{state, symbol}]
	return s, ok
}

// Build constructs the canonical-LR(1) tables for g. g is augmented
// internally; callers pass their original, unaugmented grammar.
//
// Conflicts are resolved with a shift preference: when a state already has
// a Reduce action for a terminal and a Shift action for the same cell is
// computed, the Shift wins and replaces it; the symmetric case (an
// incoming Reduce where a Shift already won) is silently dropped. Any other
// disagreement — most commonly reduce/reduce — is a hard
// icterrors.GrammarConflict, since there is no universally reasonable
// default for it. This mirrors setAction in ppci's pcc.lr.generate_tables.
func Build(g grammar.Grammar, logger *iclog.Logger) (*Tables, error) {
	aug := g.Augmented()
	first, _ := grammar.FirstSets(aug)

	startProds := aug.ProductionsFor(aug.StartSymbol)
	if len(startProds) != 1 {
		return nil, icterrors.GrammarErrorf("augmented start symbol %q must have exactly one production, found %d", aug.StartSymbol, len(startProds))
	}
	startProdIdx := aug.IndexOf(startProds[0])

	initial := grammar.ItemClosure(aug, first, grammar.NewItemSet(
		grammar.Item{Production: startProdIdx, Dot: 0, Lookahead: grammar.EOF},
	))

	states, transitions, _ := buildCanonicalCollection(aug, first, initial)
	logger.Infof("canonical collection has %d states", len(states))

	tables := &Tables{
		Grammar: aug,
		Action:  make(map[actionKey]Action),
		Goto:    make(map[gotoKey]int),
		States:  states,
		BuildID: uuid.New(),
	}

	for stateIdx, state := range states {
		for _, it := range state.Elements() {
			if it.IsShift(aug) && aug.IsTerminal(it.Next(aug)) {
				target, ok := transitions[gotoKey{stateIdx, it.Next(aug)}]
				if !ok {
					continue
				}
				if err := setAction(tables, stateIdx, it.Next(aug), Action{Kind: Shift, NextState: target}); err != nil {
					return nil, err
				}
			}
			if it.IsReduce(aug) {
				prod := aug.Productions[it.Production]
				var act Action
				if prod.Name == aug.StartSymbol && it.Lookahead == grammar.EOF {
					act = Action{Kind: Accept, Production: it.Production}
				} else {
					act = Action{Kind: Reduce, Production: it.Production}
				}
				if err := setAction(tables, stateIdx, it.Lookahead, act); err != nil {
					return nil, err
				}
			}
		}
		for _, nt := range aug.NonTerminals() {
			if target, ok := transitions[gotoKey{stateIdx, nt}]; ok {
				tables.Goto[gotoKey{stateIdx, nt}] = target
			}
		}
	}

	return tables, nil
}

func setAction(t *Tables, state int, terminal string, incoming Action) error {
	key := actionKey{state, terminal}
	existing, ok := t.Action[key]
	if !ok {
		t.Action[key] = incoming
		return nil
	}
	if existing == incoming {
		return nil
	}
	if existing.Kind == Reduce && incoming.Kind == Shift {
		t.Action[key] = incoming
		return nil
	}
	if existing.Kind == Shift && incoming.Kind == Reduce {
		return nil
	}
	return icterrors.NewGrammarConflict(state, terminal, stringerOf(existing), stringerOf(incoming),
		existing.Production, incoming.Production)
}

type actionStringer Action

func (a actionStringer) String() string { return Action(a).String() }

func stringerOf(a Action) fmt.Stringer { return actionStringer(a) }

// buildCanonicalCollection explores the canonical collection of LR(1) item
// sets breadth-first from initial, using an arraylist-backed worklist (the
// same exploration shape gorgo's CFSM builder uses treeset/arraylist for)
// and a string-keyed index for state deduplication. It returns the states
// in discovery order, the GOTO transition map, and an index from state
// contents to position in States.
func buildCanonicalCollection(g grammar.Grammar, first map[string]util.KeySet[string], initial grammar.ItemSet) ([]grammar.ItemSet, map[gotoKey]int, map[string]int) {
	var states []grammar.ItemSet
	indexOf := make(map[string]int)
	transitions := make(map[gotoKey]int)

	worklist := arraylist.New()

	addState := func(s grammar.ItemSet) int {
		key := grammar.StateKey(g, s)
		if idx, ok := indexOf[key]; ok {
			return idx
		}
		idx := len(states)
		indexOf[key] = idx
		states = append(states, s)
		worklist.Add(idx)
		return idx
	}

	addState(initial)

	for !worklist.Empty() {
		front, _ := worklist.Get(0)
		worklist.Remove(0)
		stateIdx := front.(int)
		state := states[stateIdx]

		for _, sym := range g.Symbols() {
			next := grammar.Goto(g, first, state, sym)
			if next.Empty() {
				continue
			}
			nextIdx := addState(next)
			transitions[gotoKey{stateIdx, sym}] = nextIdx
		}
	}

	return states, transitions, indexOf
}
