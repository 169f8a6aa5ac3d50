package automaton

import (
	"fmt"

	"github.com/dekarrin/rosed"

	"github.com/glubfish/ictiobus/internal/ictiobus/grammar"
)

// String renders the action and goto tables as a bordered grid: one row per
// state, one "A:term" column per terminal followed by a divider then one
// "G:nt" column per nonterminal.
func (t *Tables) String() string {
	terms := t.Grammar.Terminals()
	terms = append(terms, grammar.EOF)
	nonterms := t.Grammar.NonTerminals()

	headers := []string{"state", "|"}
	for _, term := range terms {
		headers = append(headers, fmt.Sprintf("A:%s", term))
	}
	headers = append(headers, "|")
	for _, nt := range nonterms {
		headers = append(headers, fmt.Sprintf("G:%s", nt))
	}

	data := [][]string{headers}
	for stateIdx := range t.States {
		row := []string{fmt.Sprintf("%d", stateIdx), "|"}

		for _, term := range terms {
			cell := ""
			if act, ok := t.ActionFor(stateIdx, term); ok {
				switch act.Kind {
				case Accept:
					cell = "acc"
				case Reduce:
					cell = fmt.Sprintf("r%d", act.Production)
				case Shift:
					cell = fmt.Sprintf("s%d", act.NextState)
				}
			}
			row = append(row, cell)
		}

		row = append(row, "|")
		for _, nt := range nonterms {
			cell := ""
			if target, ok := t.GotoFor(stateIdx, nt); ok {
				cell = fmt.Sprintf("%d", target)
			}
			row = append(row, cell)
		}

		data = append(data, row)
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 10, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}
