package table

import (
	"bytes"
	"os"
	"testing"

	"github.com/dekarrin/lrk/internal/automaton"
	"github.com/dekarrin/lrk/internal/firstk"
	"github.com/dekarrin/lrk/internal/grammar"
	"github.com/dekarrin/lrk/internal/kstring"
)

func TestWriteReadRoundTripEqual(t *testing.T) {
	const k = 6
	kstring.Configure(k)

	g, err := grammar.LoadFile("../../testdata/lr6_grammar.txt")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	first := firstk.Build(g)
	built, err := automaton.NewBuilder(g, first).Build()
	if err != nil {
		t.Fatalf("build at k=6 should succeed, got %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, k, g, built); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rt, err := Read(bytes.NewReader(buf.Bytes()), k)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	direct := FromBuild(k, g, built)

	if rt.NumSymbols() != direct.NumSymbols() {
		t.Fatalf("NumSymbols: got %d want %d", rt.NumSymbols(), direct.NumSymbols())
	}
	for id := 0; id < direct.NumSymbols(); id++ {
		if rt.Name(id) != direct.Name(id) {
			t.Fatalf("symbol %d name: got %q want %q", id, rt.Name(id), direct.Name(id))
		}
	}

	if len(rt.Productions) != len(direct.Productions) {
		t.Fatalf("production count: got %d want %d", len(rt.Productions), len(direct.Productions))
	}
	for i := range direct.Productions {
		want := direct.Productions[i]
		got := rt.Productions[i]
		if got.LHS != want.LHS || len(got.RHS) != len(want.RHS) {
			t.Fatalf("production %d: got %+v want %+v", i, got, want)
		}
		for j := range want.RHS {
			if got.RHS[j] != want.RHS[j] {
				t.Fatalf("production %d rhs[%d]: got %d want %d", i, j, got.RHS[j], want.RHS[j])
			}
		}
	}

	if rt.NumStates() != direct.NumStates() {
		t.Fatalf("state count: got %d want %d", rt.NumStates(), direct.NumStates())
	}
	for s := 0; s < direct.NumStates(); s++ {
		if len(rt.Goto[s]) != len(direct.Goto[s]) {
			t.Fatalf("state %d goto row size: got %d want %d", s, len(rt.Goto[s]), len(direct.Goto[s]))
		}
		for sym, dst := range direct.Goto[s] {
			if rt.Goto[s][sym] != dst {
				t.Fatalf("state %d goto[%d]: got %d want %d", s, sym, rt.Goto[s][sym], dst)
			}
		}

		if len(rt.Action[s]) != len(direct.Action[s]) {
			t.Fatalf("state %d action row size: got %d want %d", s, len(rt.Action[s]), len(direct.Action[s]))
		}
		for key, cell := range direct.Action[s] {
			gotCell, ok := rt.Action[s][key]
			if !ok {
				t.Fatalf("state %d action[%q] missing after round trip", s, key)
			}
			if gotCell.Value.Raw() != cell.Value.Raw() {
				t.Fatalf("state %d action[%q]: got %v want %v", s, key, gotCell.Value, cell.Value)
			}
			if !gotCell.Lookahead.Equal(cell.Lookahead) {
				t.Fatalf("state %d action[%q] lookahead: got %v want %v", s, key, gotCell.Lookahead.Symbols(), cell.Lookahead.Symbols())
			}
		}
	}
}

func TestReadRejectsKMismatch(t *testing.T) {
	const k = 1
	kstring.Configure(k)

	g, err := grammar.LoadFile("../../testdata/base_grammar.txt")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	first := firstk.Build(g)
	built, err := automaton.NewBuilder(g, first).Build()
	if err != nil {
		t.Fatalf("build at k=1 should succeed, got %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, k, g, built); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := Read(bytes.NewReader(buf.Bytes()), 2); err == nil {
		t.Fatal("expected a KMismatch error when reading with a different k")
	}
}

func TestWriteFileLeavesNoFileOnError(t *testing.T) {
	const k = 1
	kstring.Configure(k)

	g, err := grammar.LoadFile("../../testdata/base_grammar.txt")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	first := firstk.Build(g)
	built, err := automaton.NewBuilder(g, first).Build()
	if err != nil {
		t.Fatalf("build at k=1 should succeed, got %v", err)
	}

	// A directory path can be created (os.Create succeeds on some platforms'
	// special files) but never successfully flushed; more portably, write to
	// a path under a nonexistent directory so os.Create itself fails and no
	// file is left behind to clean up.
	err = WriteFile("/nonexistent-dir/table.bin", k, g, built)
	if err == nil {
		t.Fatal("expected an error writing to a nonexistent directory")
	}
	if _, statErr := os.Stat("/nonexistent-dir/table.bin"); !os.IsNotExist(statErr) {
		t.Fatalf("expected no table file to be left behind, stat returned %v", statErr)
	}
}
