package automaton

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dekarrin/lrk/internal/grammar"
	"github.com/dekarrin/lrk/internal/kstring"
	"github.com/dekarrin/rosed"
)

// String renders t as a human-readable GOTO/ACTION table, one row per
// state, the same way the teacher's canonicalLR1Table.String()
// (ictiobus/parse/clr1.go, lalr.go, slr.go) renders its own tables via
// rosed.Edit("").InsertTableOpts. Those tables give one column per
// terminal, since their ACTION is keyed by a single lookahead token; an
// LR(k) ACTION row is keyed by a k-symbol KString instead, so this
// generalizes to one "lookahead: action" cell per state rather than one
// cell per terminal.
func (t *Tables) String(g *grammar.Grammar) string {
	headers := []string{"state", "action (lookahead: action)", "goto (symbol: state)"}
	data := [][]string{headers}

	for s := 0; s < t.NumStates(); s++ {
		data = append(data, []string{
			strconv.Itoa(s),
			t.actionCell(g, s),
			t.gotoCell(g, s),
		})
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 100, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

func (t *Tables) actionCell(g *grammar.Grammar, state int) string {
	type entry struct {
		mu  string
		act string
	}

	var entries []entry
	for _, cell := range t.Action[state] {
		var act string
		switch cell.Value.Kind() {
		case Accept:
			act = "acc"
		case Shift:
			act = "shift"
		case Reduce:
			act = fmt.Sprintf("r%d: %s", cell.Value.Rule(), g.Production(cell.Value.Rule()).String(g))
		}
		entries = append(entries, entry{mu: lookaheadString(g, cell.Lookahead), act: act})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].mu < entries[j].mu })

	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s: %s", e.mu, e.act)
	}
	return strings.Join(parts, "; ")
}

func (t *Tables) gotoCell(g *grammar.Grammar, state int) string {
	type entry struct {
		sym string
		dst int
	}

	var entries []entry
	for sym, dst := range t.Goto[state] {
		entries = append(entries, entry{sym: g.Name(sym), dst: dst})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].sym < entries[j].sym })

	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s: %d", e.sym, e.dst)
	}
	return strings.Join(parts, "; ")
}

// lookaheadString renders mu as space-separated symbol names, or "ε" for the
// empty KString.
func lookaheadString(g *grammar.Grammar, mu kstring.KString) string {
	if mu.Len() == 0 {
		return "ε"
	}
	names := make([]string, mu.Len())
	for i, sym := range mu.Symbols() {
		names[i] = g.Name(sym)
	}
	return strings.Join(names, " ")
}
