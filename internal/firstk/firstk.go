// Package firstk computes FIRST_k lookahead sets for every symbol in a
// grammar via worklist fixed-point iteration, per spec §4.2.
package firstk

import (
	"github.com/dekarrin/lrk/internal/grammar"
	"github.com/dekarrin/lrk/internal/kstring"
)

// Table holds FIRST_k(X) for every symbol id X in a grammar.
type Table struct {
	sets []kstring.Set
}

// Of returns FIRST_k(sym).
func (t *Table) Of(sym int) kstring.Set {
	return t.sets[sym]
}

// OfSequence computes FIRST_k(X1 X2 ... Xm) for a right-hand-side sequence,
// i.e. FIRST_k[X1] ⊕ FIRST_k[X2] ⊕ ... ⊕ FIRST_k[Xm]. An empty sequence
// yields the set containing only the empty KString.
func (t *Table) OfSequence(syms []int) kstring.Set {
	result := kstring.NewSet(kstring.Empty())
	for _, sym := range syms {
		result = result.Concat(t.Of(sym))
	}
	return result
}

// Build computes the FIRST_k table for g by worklist fixed-point.
//
// Terminals get their base case immediately: { KString(t) } if k > 0, or the
// single empty KString if k == 0 (spec §4.2's k=0 collapse). Nonterminals
// start empty and are repeatedly recomputed from their productions; the
// nonterminals whose productions mention a nonterminal are re-queued only
// when a recomputation actually changes that nonterminal's set, and a
// "currently enqueued" membership set prevents duplicate worklist entries
// from causing quadratic re-expansion (spec §9).
func Build(g *grammar.Grammar) *Table {
	t := &Table{sets: make([]kstring.Set, g.NumSymbols())}

	var dependents = make(map[int][]int) // nonterminal -> nonterminals whose productions mention it

	var worklist []int
	enqueued := make(map[int]bool)

	for sym := 0; sym < g.NumSymbols(); sym++ {
		if g.IsNonTerminal(sym) {
			worklist = append(worklist, sym)
			enqueued[sym] = true
		} else if kstring.K() > 0 {
			t.sets[sym] = kstring.NewSet(kstring.One(sym))
		} else {
			t.sets[sym] = kstring.NewSet(kstring.Empty())
		}
	}

	for _, p := range g.Productions() {
		for _, sym := range p.RHS {
			if g.IsNonTerminal(sym) {
				dependents[sym] = append(dependents[sym], p.LHS)
			}
		}
	}

	for len(worklist) > 0 {
		nt := worklist[0]
		worklist = worklist[1:]
		enqueued[nt] = false

		result := kstring.Set{}
		for _, prodIdx := range g.ProductionsFor(nt) {
			rhs := g.Production(prodIdx).RHS
			result = result.Merge(t.OfSequence(rhs))
		}

		changed := !result.Equal(t.sets[nt])
		t.sets[nt] = result
		if changed {
			for _, dep := range dependents[nt] {
				if !enqueued[dep] {
					worklist = append(worklist, dep)
					enqueued[dep] = true
				}
			}
		}
	}

	return t
}
