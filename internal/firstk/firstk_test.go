package firstk

import (
	"testing"

	"github.com/dekarrin/lrk/internal/grammar"
	"github.com/dekarrin/lrk/internal/kstring"
)

// setOf builds the expected Set for a symbol sequence given as terminal
// names, resolved against g, for comparison against a Table entry.
func setOf(t *testing.T, g *grammar.Grammar, seqs ...string) kstring.Set {
	t.Helper()
	var items []kstring.KString
	for _, seq := range seqs {
		if seq == "" {
			items = append(items, kstring.Empty())
			continue
		}
		var syms []int
		for _, ch := range seq {
			id, ok := g.ID(string(ch))
			if !ok {
				t.Fatalf("undefined symbol %q in expected set", string(ch))
			}
			syms = append(syms, id)
		}
		items = append(items, kstring.FromSlice(syms))
	}
	return kstring.NewSet(items...)
}

func assertSetEqual(t *testing.T, name string, got, want kstring.Set) {
	t.Helper()
	if got.Len() != want.Len() {
		t.Fatalf("FIRST_3(%s): got %d items %v, want %d items", name, got.Len(), got.Items(), want.Len())
	}
	for i, w := range want.Items() {
		if !got.Items()[i].Equal(w) {
			t.Fatalf("FIRST_3(%s): item %d: got %v want %v", name, i, got.Items()[i].Symbols(), w.Symbols())
		}
	}
}

func TestBuildLR3Grammar(t *testing.T) {
	kstring.Configure(3)

	g, err := grammar.LoadFile("../../testdata/lr3_grammar.txt")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	table := Build(g)

	sID, _ := g.ID("S")
	aID, _ := g.ID("A")
	bID, _ := g.ID("B")
	cID, _ := g.ID("C")

	assertSetEqual(t, "A", table.Of(aID), setOf(t, g, "a", ""))
	assertSetEqual(t, "B", table.Of(bID), setOf(t, g, "bb", ""))
	assertSetEqual(t, "C", table.Of(cID), setOf(t, g, "cdc", "d"))
	assertSetEqual(t, "S", table.Of(sID), setOf(t, g, "abb", "acd", "ad", "bbc", "bbd", "cdc", "d"))
}

func TestBuildKZeroCollapsesToEpsilon(t *testing.T) {
	kstring.Configure(0)

	g, err := grammar.LoadFile("../../testdata/lr0_grammar.txt")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	table := Build(g)
	for sym := 0; sym < g.NumSymbols(); sym++ {
		s := table.Of(sym)
		if s.Len() != 1 || !s.Items()[0].Equal(kstring.Empty()) {
			t.Fatalf("symbol %q: FIRST_0 should collapse to {ε}, got %v", g.Name(sym), s.Items())
		}
	}
}

func TestOfSequenceEmptyYieldsEpsilon(t *testing.T) {
	kstring.Configure(2)

	g, err := grammar.LoadFile("../../testdata/lr3_grammar.txt")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	table := Build(g)

	got := table.OfSequence(nil)
	if got.Len() != 1 || !got.Items()[0].Equal(kstring.Empty()) {
		t.Fatalf("OfSequence(nil) should be {ε}, got %v", got.Items())
	}
}
