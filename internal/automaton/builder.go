package automaton

import (
	"fmt"

	"github.com/dekarrin/lrk/internal/firstk"
	"github.com/dekarrin/lrk/internal/grammar"
	"github.com/dekarrin/lrk/internal/kstring"
	"github.com/dekarrin/lrk/internal/lrkerrors"
)

// ActionCell pairs a lookahead KString with the action installed for it, so
// that callers (the table codec in particular) can iterate a state's ACTION
// row without losing the original KString each entry is keyed on — a plain
// map[string]Action would only keep the derived MapKey.
type ActionCell struct {
	Lookahead kstring.KString
	Value     Action
}

// Tables holds the complete, immutable result of a build: the state set
// (indexed implicitly by position), the GOTO graph, and the ACTION table.
type Tables struct {
	States []Kernel
	Goto   []map[int]int
	Action []map[string]ActionCell
}

// NumStates returns the number of states in the automaton.
func (t *Tables) NumStates() int {
	return len(t.States)
}

// Builder constructs the canonical LR(k) states, GOTO graph, and ACTION
// table for a grammar, given its precomputed FIRST_k table.
//
// Construction proceeds in two passes over each kernel pulled from the
// worklist: closure expands the kernel into its full item set (the
// non-kernel items generated by the closure rule), and the loop in Build then
// walks that item set once to install ACTION entries and bucket the
// non-complete items by their next symbol into prospective successor kernels,
// which it connects to states through GOTO. Keeping these as two distinct
// steps (rather than interleaving them) is what lets a conflict be reported
// with the state id and lookahead that provoked it, since that second pass
// always knows exactly which state it is operating on.
type Builder struct {
	g     *grammar.Grammar
	first *firstk.Table
}

// NewBuilder constructs a Builder for g using the given FIRST_k table.
func NewBuilder(g *grammar.Grammar, first *firstk.Table) *Builder {
	return &Builder{g: g, first: first}
}

// Build runs the full fixed-point state construction described in spec
// §4.3 and returns the resulting Tables, or a BuildConflict error describing
// the offending state and lookahead.
func (b *Builder) Build() (*Tables, error) {
	t := &Tables{}
	kernelIndex := map[string]int{}

	initial := Canonicalize(Kernel{{
		Rule:      b.g.AugmentedProduction,
		Dot:       0,
		Lookahead: kstring.Empty(),
	}})
	t.States = append(t.States, initial)
	t.Goto = append(t.Goto, map[int]int{})
	t.Action = append(t.Action, map[string]ActionCell{})
	kernelIndex[initial.Key()] = 0

	worklist := []int{0}
	for len(worklist) > 0 {
		state := worklist[0]
		worklist = worklist[1:]

		items := b.closure(t.States[state])
		buckets := map[int]Kernel{}
		bucketOrder := []int{}

		for _, it := range items {
			rhs := b.g.Production(it.Rule).RHS
			if it.Dot == len(rhs) {
				if err := b.install(t, state, it.Lookahead, ReduceAction(it.Rule)); err != nil {
					return nil, err
				}
				continue
			}

			sym := rhs[it.Dot]
			if _, ok := buckets[sym]; !ok {
				bucketOrder = append(bucketOrder, sym)
			}
			buckets[sym] = append(buckets[sym], it.Advanced())

			if b.g.IsTerminal(sym) {
				mus := b.lookaheadsFrom(rhs, it.Dot, it.Lookahead)
				for _, mu := range mus.Items() {
					if err := b.install(t, state, mu, ShiftAction()); err != nil {
						return nil, err
					}
				}
			}
		}

		for _, sym := range bucketOrder {
			candidate := Canonicalize(buckets[sym])
			key := candidate.Key()

			target, exists := kernelIndex[key]
			if !exists {
				target = len(t.States)
				t.States = append(t.States, candidate)
				t.Goto = append(t.Goto, map[int]int{})
				t.Action = append(t.Action, map[string]ActionCell{})
				kernelIndex[key] = target
				worklist = append(worklist, target)
			}
			t.Goto[state][sym] = target
		}
	}

	if err := b.setAccept(t); err != nil {
		return nil, err
	}

	return t, nil
}

// closure computes the non-kernel items of a state: repeat until stable —
// for every item A -> α · B β, λ where B is a nonterminal, and for every
// production B -> γ, add items B -> · γ, μ for each μ in FIRST_k(β) ⊕ {λ}.
func (b *Builder) closure(kernel Kernel) []Item {
	seen := map[string]bool{}
	var result []Item
	var worklist []Item

	push := func(it Item) {
		key := Kernel{it}.Key()
		if seen[key] {
			return
		}
		seen[key] = true
		result = append(result, it)
		worklist = append(worklist, it)
	}

	for _, it := range kernel {
		push(it)
	}

	for len(worklist) > 0 {
		it := worklist[0]
		worklist = worklist[1:]

		rhs := b.g.Production(it.Rule).RHS
		if it.Dot >= len(rhs) {
			continue
		}
		sym := rhs[it.Dot]
		if !b.g.IsNonTerminal(sym) {
			continue
		}

		mus := b.lookaheadsFrom(rhs, it.Dot+1, it.Lookahead)
		for _, prodIdx := range b.g.ProductionsFor(sym) {
			for _, mu := range mus.Items() {
				push(Item{Rule: prodIdx, Dot: 0, Lookahead: mu})
			}
		}
	}

	return result
}

// lookaheadsFrom computes FIRST_k(rhs[from:]) ⊕ {outer}.
func (b *Builder) lookaheadsFrom(rhs []int, from int, outer kstring.KString) kstring.Set {
	var tail []int
	if from < len(rhs) {
		tail = rhs[from:]
	}
	return b.first.OfSequence(tail).Concat(kstring.NewSet(outer))
}

// install sets action[state][mu] = act, detecting shift/reduce and
// reduce/reduce conflicts per spec §4.3. A repeated identical SHIFT is
// accepted idempotently.
func (b *Builder) install(t *Tables, state int, mu kstring.KString, act Action) error {
	key := mu.MapKey()
	row := t.Action[state]
	existing, ok := row[key]
	if !ok {
		row[key] = ActionCell{Lookahead: mu, Value: act}
		return nil
	}

	if existing.Value.Kind() == Shift && act.Kind() == Shift {
		return nil
	}
	if existing.Value.Kind() == Reduce && act.Kind() == Reduce && existing.Value.Rule() == act.Rule() {
		return nil
	}

	return b.conflictError(state, mu, existing.Value, act)
}

func (b *Builder) conflictError(state int, mu kstring.KString, existing, attempted Action) error {
	describe := func(a Action) string {
		if a.Kind() == Reduce {
			return fmt.Sprintf("reduce(%s)", b.g.Production(a.Rule()).String(b.g))
		}
		return a.String()
	}

	kind := "conflict"
	switch {
	case existing.Kind() == Reduce && attempted.Kind() == Reduce:
		kind = "reduce/reduce conflict"
	case (existing.Kind() == Reduce && attempted.Kind() == Shift) || (existing.Kind() == Shift && attempted.Kind() == Reduce):
		kind = "shift/reduce conflict"
	}

	return lrkerrors.New(
		lrkerrors.BuildConflict,
		"%s in state %d on lookahead %v: %s vs %s",
		kind, state, mu.Symbols(), describe(existing), describe(attempted),
	)
}

// setAccept locates the state reached from state 0 on the grammar's
// original start symbol and marks it accepting on the empty lookahead,
// overwriting whatever was installed there during the main build (spec
// §4.3 step 5, §9). It asserts that such a state exists, since its absence
// means the grammar's start symbol is unreachable from itself — a
// pathological case the builder refuses to silently mishandle.
func (b *Builder) setAccept(t *Tables) error {
	augRHS := b.g.Production(b.g.AugmentedProduction).RHS
	if len(augRHS) != 1 {
		return lrkerrors.New(lrkerrors.GrammarSyntax, "augmented start production must have exactly one RHS symbol")
	}
	startSym := augRHS[0]

	target, ok := t.Goto[0][startSym]
	if !ok {
		return lrkerrors.New(lrkerrors.CorruptTable, "no state reachable from state 0 on start symbol %q", b.g.Name(startSym))
	}

	key := kstring.Empty().MapKey()
	t.Action[target][key] = ActionCell{Lookahead: kstring.Empty(), Value: AcceptAction()}
	return nil
}
