// Package automaton builds the canonical LR(k) item sets, states, GOTO
// graph, and ACTION table for a grammar, per spec §4.3.
package automaton

import (
	"sort"

	"github.com/dekarrin/lrk/internal/kstring"
)

// Item is a (rule_id, dot_position, lookahead) triple. It is well-formed
// when 0 <= dot <= len(rhs(rule_id)).
type Item struct {
	Rule      int
	Dot       int
	Lookahead kstring.KString
}

// Equal compares two items structurally over all three fields.
func (a Item) Equal(b Item) bool {
	return a.Rule == b.Rule && a.Dot == b.Dot && a.Lookahead.Equal(b.Lookahead)
}

// Less gives a total order over items: by rule, then dot, then lookahead.
// Used to canonicalize kernels so that syntactic permutations of the same
// item set compare equal.
func (a Item) Less(b Item) bool {
	if a.Rule != b.Rule {
		return a.Rule < b.Rule
	}
	if a.Dot != b.Dot {
		return a.Dot < b.Dot
	}
	return a.Lookahead.Less(b.Lookahead)
}

// Advanced returns a copy of the item with the dot moved one position to the
// right.
func (it Item) Advanced() Item {
	return Item{Rule: it.Rule, Dot: it.Dot + 1, Lookahead: it.Lookahead}
}

// Kernel is a canonicalized, sorted slice of items. Two kernels are
// identical iff their sorted sequences are equal, which is what gives a
// state its identity (spec §3).
type Kernel []Item

// Canonicalize sorts k in place and returns it, so that kernels built from
// different bucket orderings still produce identical slices for identical
// item sets.
func Canonicalize(k Kernel) Kernel {
	sort.Slice(k, func(i, j int) bool { return k[i].Less(k[j]) })
	return k
}

// Key renders the kernel into a string suitable for use as a map key, so
// that the state builder can intern kernels in a kernel -> state-id index.
// It assumes k is already canonicalized.
func (k Kernel) Key() string {
	// Each item contributes a fixed-width-ish record: rule, dot, then the
	// lookahead symbols with a length prefix. Using a byte builder keeps
	// this allocation-light relative to formatting through fmt.
	buf := make([]byte, 0, len(k)*12)
	var tmp [4]byte
	putInt := func(v int) {
		tmp[0] = byte(v)
		tmp[1] = byte(v >> 8)
		tmp[2] = byte(v >> 16)
		tmp[3] = byte(v >> 24)
		buf = append(buf, tmp[:]...)
	}
	for _, it := range k {
		putInt(it.Rule)
		putInt(it.Dot)
		putInt(it.Lookahead.Len())
		for _, sym := range it.Lookahead.Symbols() {
			putInt(sym)
		}
	}
	return string(buf)
}

// Equal reports whether two already-canonicalized kernels are identical.
func (k Kernel) Equal(o Kernel) bool {
	if len(k) != len(o) {
		return false
	}
	for i := range k {
		if !k[i].Equal(o[i]) {
			return false
		}
	}
	return true
}
