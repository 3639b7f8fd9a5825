// Package kstring implements bounded-length lookahead strings ("KStrings")
// over terminal symbol ids, the sorted/deduplicated sets of them used as
// FIRST_k results, and the concatenation operator that drives both the
// analyzer and the item-closure lookahead computation.
package kstring

import "sort"

// k is the process-wide lookahead bound shared by every KString created
// through this package's constructors (read it with K). It is set by
// Configure and must match the bound recorded in any table file that gets
// loaded (see internal/table).
var k int = 1

// Configure sets the process-wide lookahead bound. It must be called before
// any KString of a build or parse is constructed; the builder and runtime
// rely on K staying the same for the whole of one build or parse. Callers
// that work at several bounds (the runtime parser, the build service, tests)
// call it again before each build or parse.
func Configure(bound int) {
	if bound < 0 {
		panic("kstring: negative lookahead bound")
	}
	k = bound
}

// K returns the currently configured lookahead bound.
func K() int {
	return k
}

// KString is a bounded sequence of up to K terminal ids with an explicit
// length. The zero value is the empty KString (length 0), which is the
// identity element of Concat.
type KString struct {
	syms []int32
}

// Empty returns the empty KString.
func Empty() KString {
	return KString{}
}

// One returns the length-1 KString containing just sym. It panics if K is 0,
// since a length-1 string cannot exist under a zero lookahead bound.
func One(sym int) KString {
	if k == 0 {
		panic("kstring: cannot construct a length-1 KString when K is 0")
	}
	return KString{syms: []int32{int32(sym)}}
}

// FromSlice builds a KString from syms, truncating to K symbols.
func FromSlice(syms []int) KString {
	n := len(syms)
	if n > k {
		n = k
	}
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		out[i] = int32(syms[i])
	}
	return KString{syms: out}
}

// Len returns the length of the KString.
func (s KString) Len() int {
	return len(s.syms)
}

// At returns the symbol id at position i.
func (s KString) At(i int) int {
	return int(s.syms[i])
}

// Symbols returns the KString's contents as a plain int slice.
func (s KString) Symbols() []int {
	out := make([]int, len(s.syms))
	for i, v := range s.syms {
		out[i] = int(v)
	}
	return out
}

// Concat implements a ⊕ b: the truncation of a·b to at most K symbols. If
// |a| = K, the result is a unchanged. The empty KString is the identity.
func (a KString) Concat(b KString) KString {
	if len(a.syms) >= k {
		return a
	}
	room := k - len(a.syms)
	n := len(b.syms)
	if n > room {
		n = room
	}
	if n == 0 {
		return a
	}
	out := make([]int32, len(a.syms)+n)
	copy(out, a.syms)
	copy(out[len(a.syms):], b.syms[:n])
	return KString{syms: out}
}

// Compare gives the total order over KStrings: lexicographic by prefix, then
// by length. It returns -1, 0, or 1.
func (a KString) Compare(b KString) int {
	n := len(a.syms)
	if len(b.syms) < n {
		n = len(b.syms)
	}
	for i := 0; i < n; i++ {
		if a.syms[i] != b.syms[i] {
			if a.syms[i] < b.syms[i] {
				return -1
			}
			return 1
		}
	}
	if len(a.syms) == len(b.syms) {
		return 0
	}
	if len(a.syms) < len(b.syms) {
		return -1
	}
	return 1
}

// Equal reports whether a and b hold the same symbols.
func (a KString) Equal(b KString) bool {
	return a.Compare(b) == 0
}

// Less reports whether a sorts before b under Compare's total order.
func (a KString) Less(b KString) bool {
	return a.Compare(b) < 0
}

// MapKey renders the KString as a comparable string suitable for use as a Go
// map key (KString itself is not comparable because it holds a slice). The
// encoding is a one-byte length prefix followed by every symbol at its full
// four-byte width, so distinct symbol sequences never collide.
func (a KString) MapKey() string {
	buf := make([]byte, 0, 1+4*len(a.syms))
	buf = append(buf, byte(len(a.syms)))
	for _, sym := range a.syms {
		buf = append(buf, byte(sym), byte(sym>>8), byte(sym>>16), byte(sym>>24))
	}
	return string(buf)
}

// Hash is a small, deterministic integer mix over the stored symbols plus
// the length, matching the mixing strategy of the original implementation
// this package was modeled on. The closure and worklist dedup in this module
// key on MapKey and Kernel.Key, not on Hash. It is never persisted, so it
// need not be stable across versions of this package.
func (a KString) Hash() uint64 {
	seed := uint64(len(a.syms))
	var x uint64
	for _, sym := range a.syms {
		x = uint64(sym)
		x = ((x >> 16) ^ x) * 0x45d9f3b
		x = ((x >> 16) ^ x) * 0x45d9f3b
		x = (x >> 16) ^ x
		seed ^= x + 0x9e3779b9 + (seed << 6) + (seed >> 2)
	}
	return seed
}

// Set is a sorted, deduplicated sequence of KStrings: the representation
// used for both FIRST_k(X) and an item's set of possible shift/reduce
// lookaheads before it collapses to individual ACTION entries.
type Set struct {
	items []KString
}

// NewSet builds a Set from the given KStrings, sorting and deduplicating
// them.
func NewSet(items ...KString) Set {
	s := Set{items: append([]KString(nil), items...)}
	s.normalize()
	return s
}

func (s *Set) normalize() {
	sort.Slice(s.items, func(i, j int) bool { return s.items[i].Less(s.items[j]) })
	out := s.items[:0]
	for i, it := range s.items {
		if i == 0 || !out[len(out)-1].Equal(it) {
			out = append(out, it)
		}
	}
	s.items = out
}

// Len returns the number of KStrings in the set.
func (s Set) Len() int {
	return len(s.items)
}

// Items returns the sorted, deduplicated KStrings in the set. The caller must
// not mutate the returned slice.
func (s Set) Items() []KString {
	return s.items
}

// Concat computes the lookahead-set concatenation a ⊕ b: the pairwise
// KString concatenation of every element of a with every element of b,
// sorted and deduplicated. Per spec this is how FIRST_k(X1...Xm) is built up
// symbol by symbol.
func (a Set) Concat(b Set) Set {
	if len(a.items) == 0 || len(b.items) == 0 {
		return Set{}
	}
	out := make([]KString, 0, len(a.items)*len(b.items))
	for _, x := range a.items {
		if x.Len() == k {
			// already maximal length: concatenation is the identity, per
			// Concat's own truncation rule, so b contributes nothing.
			out = append(out, x)
			continue
		}
		for _, y := range b.items {
			out = append(out, x.Concat(y))
		}
	}
	s := Set{items: out}
	s.normalize()
	return s
}

// Merge returns the sorted union of a and b.
func (a Set) Merge(b Set) Set {
	out := make([]KString, 0, len(a.items)+len(b.items))
	i, j := 0, 0
	for i < len(a.items) || j < len(b.items) {
		switch {
		case j == len(b.items):
			out = appendUnique(out, a.items[i])
			i++
		case i == len(a.items):
			out = appendUnique(out, b.items[j])
			j++
		case a.items[i].Less(b.items[j]):
			out = appendUnique(out, a.items[i])
			i++
		case b.items[j].Less(a.items[i]):
			out = appendUnique(out, b.items[j])
			j++
		default:
			out = appendUnique(out, a.items[i])
			i++
			j++
		}
	}
	return Set{items: out}
}

func appendUnique(out []KString, k KString) []KString {
	if len(out) > 0 && out[len(out)-1].Equal(k) {
		return out
	}
	return append(out, k)
}

// Equal reports whether a and b contain exactly the same KStrings.
func (a Set) Equal(b Set) bool {
	if len(a.items) != len(b.items) {
		return false
	}
	for i := range a.items {
		if !a.items[i].Equal(b.items[i]) {
			return false
		}
	}
	return true
}
