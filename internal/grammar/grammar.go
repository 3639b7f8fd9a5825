// Package grammar loads a textual context-free grammar into a numbered,
// integer-id representation and augments it with a fresh start production,
// per spec §3 and §4.1.
package grammar

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/dekarrin/lrk/internal/lrkerrors"
)

// Reserved token names. Grammar files and the runtime's own token stream must
// not use these as ordinary terminal names.
const (
	EPS         = "eps"
	Separator   = "->"
	StartSymbol = "S"
)

// Production is a pair (lhs, rhs) where rhs is a span into the grammar's
// shared rhs storage, so that productions' right-hand sides share a single
// backing allocation rather than each owning a copy.
type Production struct {
	LHS int
	RHS []int
}

// String renders the production using the grammar's symbol names.
func (p Production) String(g *Grammar) string {
	var sb strings.Builder
	sb.WriteString(g.Name(p.LHS))
	sb.WriteString(" -> ")
	if len(p.RHS) == 0 {
		sb.WriteString(EPS)
	} else {
		for i, sym := range p.RHS {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(g.Name(sym))
		}
	}
	return sb.String()
}

// Grammar owns the name/id mapping, the numbered production list, the set of
// nonterminal ids, and the augmented start id.
//
// A Grammar is built once by Load and is read-only afterward; nothing in
// this package mutates a Grammar after construction returns.
type Grammar struct {
	nameByID    []string
	idByName    map[string]int
	productions []Production
	rhsStorage  []int
	nonterm     map[int]bool

	// Start is the id of the augmented start symbol S'.
	Start int

	// AugmentedProduction is the index in Productions() of S' -> S.
	AugmentedProduction int
}

// NumSymbols returns the number of distinct symbol ids (terminal and
// nonterminal) defined in the grammar, including the augmented start symbol.
func (g *Grammar) NumSymbols() int {
	return len(g.nameByID)
}

// Name returns the textual name for a symbol id.
func (g *Grammar) Name(id int) string {
	return g.nameByID[id]
}

// ID returns the symbol id for a name and whether it is defined.
func (g *Grammar) ID(name string) (int, bool) {
	id, ok := g.idByName[name]
	return id, ok
}

// IsNonTerminal reports whether id appears as the LHS of some production.
func (g *Grammar) IsNonTerminal(id int) bool {
	return g.nonterm[id]
}

// IsTerminal reports whether id is not a nonterminal.
func (g *Grammar) IsTerminal(id int) bool {
	return !g.nonterm[id]
}

// Productions returns the full, file-ordered production list with the
// augmented S' -> S production appended last.
func (g *Grammar) Productions() []Production {
	return g.productions
}

// Production returns the production numbered id.
func (g *Grammar) Production(id int) Production {
	return g.productions[id]
}

// ProductionsFor returns the indices of every production whose LHS is sym,
// in file order.
func (g *Grammar) ProductionsFor(sym int) []int {
	var out []int
	for i, p := range g.productions {
		if p.LHS == sym {
			out = append(out, i)
		}
	}
	return out
}

// RHSStorageSize returns the total number of symbols stored across every
// production's right-hand side, including the augmented production. It is
// exposed so the table codec can record total_rhs_ints without recomputing
// it.
func (g *Grammar) RHSStorageSize() int {
	return len(g.rhsStorage)
}

type loader struct {
	g         *Grammar
	temp      [][]int // per-production rhs, prior to flattening into rhsStorage
	sawStartS bool
}

// LoadFile reads a grammar from the file at path. See Load for the grammar
// text format.
func LoadFile(path string) (*Grammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, lrkerrors.Wrap(lrkerrors.IOError, err, "open grammar file %q", path)
	}
	defer f.Close()
	g, err := Load(f)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Load parses a textual grammar, one production per line, of the form
// "LHS -> rhs_1 rhs_2 ... rhs_n" (a lone "eps" rhs denotes an empty
// production), interns symbols in first-seen order, and augments the result
// with a fresh start production S' -> S.
//
// Blank lines are skipped; per spec §9 this is implementation-defined, and
// skipping (rather than rejecting) is this implementation's choice so that
// grammar files may be visually separated into sections.
func Load(r io.Reader) (*Grammar, error) {
	l := &loader{g: &Grammar{idByName: map[string]int{}, nonterm: map[int]bool{}}}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := l.loadLine(line, lineNo); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, lrkerrors.Wrap(lrkerrors.IOError, err, "read grammar")
	}

	if !l.sawStartS {
		return nil, lrkerrors.New(lrkerrors.GrammarSyntax, "no start nonterminal %q defined", StartSymbol)
	}

	l.augment()

	// Spans taken while rhsStorage was still growing may point at an older
	// backing array; re-point every production into the final one.
	pos := 0
	for i := range l.g.productions {
		n := len(l.g.productions[i].RHS)
		l.g.productions[i].RHS = l.g.rhsStorage[pos : pos+n : pos+n]
		pos += n
	}

	l.markNonterminals()

	return l.g, nil
}

func (l *loader) intern(name string) int {
	if id, ok := l.g.idByName[name]; ok {
		return id
	}
	id := len(l.g.nameByID)
	l.g.nameByID = append(l.g.nameByID, name)
	l.g.idByName[name] = id
	return id
}

func (l *loader) loadLine(line string, lineNo int) error {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return lrkerrors.New(lrkerrors.GrammarSyntax, "line %d: incorrect production: %q", lineNo, line)
	}
	if fields[1] != Separator {
		return lrkerrors.New(lrkerrors.GrammarSyntax, "line %d: expected %q as second token: %q", lineNo, Separator, line)
	}

	lhsName := fields[0]
	lhsID := l.intern(lhsName)
	if lhsName == StartSymbol {
		l.sawStartS = true
	}

	rhsFields := fields[2:]
	var rhs []int
	if !(len(rhsFields) == 1 && rhsFields[0] == EPS) {
		for _, tok := range rhsFields {
			if tok == EPS {
				return lrkerrors.New(lrkerrors.GrammarSyntax, "line %d: %q may only appear alone on a rhs: %q", lineNo, EPS, line)
			}
			rhs = append(rhs, l.intern(tok))
		}
	}

	rhsStart := len(l.g.rhsStorage)
	l.g.rhsStorage = append(l.g.rhsStorage, rhs...)
	l.g.productions = append(l.g.productions, Production{
		LHS: lhsID,
		RHS: l.g.rhsStorage[rhsStart : rhsStart+len(rhs) : rhsStart+len(rhs)],
	})

	return nil
}

// augment synthesizes a fresh start symbol by appending "0"s to "S_0" until
// unique, assigns it a new id, and appends the S' -> S production.
func (l *loader) augment() {
	startID := l.g.idByName[StartSymbol]

	name := "S_0"
	for {
		if _, taken := l.g.idByName[name]; !taken {
			break
		}
		name += "0"
	}

	augID := l.intern(name)
	rhsStart := len(l.g.rhsStorage)
	l.g.rhsStorage = append(l.g.rhsStorage, startID)
	l.g.productions = append(l.g.productions, Production{
		LHS: augID,
		RHS: l.g.rhsStorage[rhsStart : rhsStart+1 : rhsStart+1],
	})

	l.g.Start = augID
	l.g.AugmentedProduction = len(l.g.productions) - 1
}

func (l *loader) markNonterminals() {
	for _, p := range l.g.productions {
		l.g.nonterm[p.LHS] = true
	}
}

// String renders the grammar back into its textual format (without the
// augmentation, which is an implementation detail), mainly for debugging and
// test fixtures.
func (g *Grammar) String() string {
	var sb strings.Builder
	for i, p := range g.productions {
		if i == g.AugmentedProduction {
			continue
		}
		sb.WriteString(p.String(g))
		sb.WriteByte('\n')
	}
	return sb.String()
}
