package automaton

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dekarrin/lrk/internal/firstk"
	"github.com/dekarrin/lrk/internal/grammar"
	"github.com/dekarrin/lrk/internal/kstring"
	"github.com/dekarrin/lrk/internal/lrkerrors"
)

func build(t *testing.T, path string, k int) (*grammar.Grammar, *Tables, error) {
	t.Helper()
	kstring.Configure(k)
	g, err := grammar.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile(%s): %v", path, err)
	}
	first := firstk.Build(g)
	tbl, err := NewBuilder(g, first).Build()
	return g, tbl, err
}

func TestBuildLR6GrammarConflictsAtK5(t *testing.T) {
	_, _, err := build(t, "../../testdata/lr6_grammar.txt", 5)
	if err == nil {
		t.Fatal("expected a BuildConflict at k=5 (grammar is LR(6), not LR(5))")
	}
	if code, ok := lrkerrors.GetCode(err); !ok || code != lrkerrors.BuildConflict {
		t.Fatalf("got error %v, want a BuildConflict", err)
	}
}

func TestBuildLR6GrammarSucceedsAtK6(t *testing.T) {
	_, tbl, err := build(t, "../../testdata/lr6_grammar.txt", 6)
	if err != nil {
		t.Fatalf("build at k=6 should succeed, got %v", err)
	}
	if tbl.NumStates() == 0 {
		t.Fatal("expected at least one state")
	}
}

func TestBuildLR0GrammarSucceedsAtKZero(t *testing.T) {
	_, tbl, err := build(t, "../../testdata/lr0_grammar.txt", 0)
	if err != nil {
		t.Fatalf("build at k=0 should succeed, got %v", err)
	}
	if tbl.NumStates() == 0 {
		t.Fatal("expected at least one state")
	}
}

func TestBuildBaseGrammarConflictsAtKZero(t *testing.T) {
	_, _, err := build(t, "../../testdata/base_grammar.txt", 0)
	if err == nil {
		t.Fatal("expected a BuildConflict at k=0")
	}
	var code lrkerrors.Code
	var ok bool
	if code, ok = lrkerrors.GetCode(err); !ok || code != lrkerrors.BuildConflict {
		t.Fatalf("got error %v, want a BuildConflict", err)
	}
	if !errors.Is(err, lrkerrors.ErrBuildConflict) {
		t.Fatalf("errors.Is should recognize a BuildConflict sentinel")
	}
}

func TestBuildBaseGrammarSucceedsAtKOne(t *testing.T) {
	_, tbl, err := build(t, "../../testdata/base_grammar.txt", 1)
	if err != nil {
		t.Fatalf("build at k=1 should succeed, got %v", err)
	}

	// the state reached from state 0 on S must accept on the empty lookahead.
	g, _ := grammar.LoadFile("../../testdata/base_grammar.txt")
	sID, _ := g.ID("S")
	target, ok := tbl.Goto[0][sID]
	if !ok {
		t.Fatal("no GOTO entry from state 0 on S")
	}
	cell, ok := tbl.Action[target][kstring.Empty().MapKey()]
	if !ok || cell.Value.Kind() != Accept {
		t.Fatalf("expected an ACCEPT action at the state reached via S, got %v", cell.Value)
	}
}

func TestTablesStringDumpsEveryState(t *testing.T) {
	g, tbl, err := build(t, "../../testdata/base_grammar.txt", 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	dump := tbl.String(g)
	for s := 0; s < tbl.NumStates(); s++ {
		want := fmt.Sprintf("%d", s)
		if !strings.Contains(dump, want) {
			t.Fatalf("dump missing a row for state %d:\n%s", s, dump)
		}
	}
	if !strings.Contains(dump, "acc") {
		t.Fatalf("dump should show the ACCEPT action:\n%s", dump)
	}
}
