// Package table implements the fixed binary layout for a built LR(k)
// automaton described in spec §4.4: a streaming-friendly, little-endian
// encoding of the symbol table, productions, GOTO rows, and ACTION rows.
//
// This codec intentionally does not use a generic reflection-based
// serializer (this module's ambient stack otherwise leans on
// github.com/dekarrin/rezi for that — see Manifest in manifest.go): the
// wire format here is dictated field-by-field, byte-by-byte, by spec §4.4,
// down to "KString stored as a fixed-size record of (i32[k], u8 len)" and
// the requirement that symbol names and production RHSes decode into flat,
// contiguous buffers the reader hands out spans into rather than
// reallocating. A generic codec has no knob for that; encoding/binary does.
package table

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"unsafe"

	"github.com/dekarrin/lrk/internal/automaton"
	"github.com/dekarrin/lrk/internal/grammar"
	"github.com/dekarrin/lrk/internal/kstring"
	"github.com/dekarrin/lrk/internal/lrkerrors"
)

var byteOrder = binary.LittleEndian

// RuntimeTable is everything the runtime parser needs: the symbol table,
// the productions (for reduction arity/lhs lookup), GOTO, and ACTION. It is
// produced either by reading a table file (Read) or directly from a fresh
// build (FromBuild), so a loaded table and a freshly built one are driven
// through exactly one code path.
type RuntimeTable struct {
	K int

	nameBuf  []byte // flat backing store for every symbol name
	names    []string
	idByName map[string]int

	rhsBuf      []int32 // flat backing store for every production's RHS
	Productions []Production

	Goto   []map[int]int
	Action []map[string]automaton.ActionCell
}

// Production mirrors grammar.Production but with RHS as a span into the
// RuntimeTable's flat rhsBuf, so loading a table never allocates one slice
// per production.
type Production struct {
	LHS int
	RHS []int32
}

// NumSymbols returns the number of distinct symbols in the table.
func (rt *RuntimeTable) NumSymbols() int { return len(rt.names) }

// Name returns the textual name of symbol id.
func (rt *RuntimeTable) Name(id int) string { return rt.names[id] }

// SymbolID returns the id for name and whether it is defined.
func (rt *RuntimeTable) SymbolID(name string) (int, bool) {
	id, ok := rt.idByName[name]
	return id, ok
}

// NumStates returns the number of automaton states in the table.
func (rt *RuntimeTable) NumStates() int { return len(rt.Goto) }

// FromBuild packages a grammar and freshly built Tables into a RuntimeTable,
// without a serialization round trip. Write/Read produce a byte-identical
// structural result to this, which is what the round-trip property in spec
// §8 tests.
func FromBuild(k int, g *grammar.Grammar, built *automaton.Tables) *RuntimeTable {
	rt := &RuntimeTable{K: k}

	rt.names = make([]string, g.NumSymbols())
	rt.idByName = make(map[string]int, g.NumSymbols())
	for id := 0; id < g.NumSymbols(); id++ {
		name := g.Name(id)
		rt.names[id] = name
		rt.idByName[name] = id
	}

	rt.Productions = make([]Production, len(g.Productions()))
	for i, p := range g.Productions() {
		rhs := make([]int32, len(p.RHS))
		for j, s := range p.RHS {
			rhs[j] = int32(s)
		}
		rt.Productions[i] = Production{LHS: p.LHS, RHS: rhs}
	}

	rt.Goto = built.Goto
	rt.Action = built.Action
	return rt
}

// WriteFile builds and writes the table for (k, g, built) to path. On any
// error, including a write failure partway through, the partially written
// file is removed so path never holds a truncated table.
func WriteFile(path string, k int, g *grammar.Grammar, built *automaton.Tables) (err error) {
	f, createErr := os.Create(path)
	if createErr != nil {
		return lrkerrors.Wrap(lrkerrors.IOError, createErr, "create table file %q", path)
	}
	defer func() {
		f.Close()
		if err != nil {
			os.Remove(path)
		}
	}()

	bw := bufio.NewWriter(f)
	if err = Write(bw, k, g, built); err != nil {
		return err
	}
	if ferr := bw.Flush(); ferr != nil {
		err = lrkerrors.Wrap(lrkerrors.IOError, ferr, "flush table file %q", path)
		return err
	}
	return nil
}

// Write serializes (k, g, built) to w in the layout of spec §4.4.
func Write(w io.Writer, k int, g *grammar.Grammar, built *automaton.Tables) error {
	ew := &errWriter{w: w}

	ew.writeI32(int32(k))

	ew.writeU64(uint64(g.NumSymbols()))
	total := 0
	for id := 0; id < g.NumSymbols(); id++ {
		total += len(g.Name(id))
	}
	ew.writeU64(uint64(total))
	for id := 0; id < g.NumSymbols(); id++ {
		name := g.Name(id)
		ew.writeU32(uint32(len(name)))
		ew.writeBytes([]byte(name))
	}

	prods := g.Productions()
	ew.writeU64(uint64(len(prods)))
	ew.writeU64(uint64(g.RHSStorageSize()))
	for _, p := range prods {
		ew.writeI32(int32(p.LHS))
		ew.writeU32(uint32(len(p.RHS)))
		for _, s := range p.RHS {
			ew.writeI32(int32(s))
		}
	}

	ew.writeU64(uint64(len(built.Goto)))
	for _, row := range built.Goto {
		ew.writeU32(uint32(len(row)))
		for sym, dst := range row {
			ew.writeI32(int32(sym))
			ew.writeU32(uint32(dst))
		}
	}

	ew.writeU64(uint64(len(built.Action)))
	for _, row := range built.Action {
		ew.writeU32(uint32(len(row)))
		for _, cell := range row {
			ew.writeKString(k, cell.Lookahead)
			ew.writeU32(cell.Value.Raw())
		}
	}

	return ew.err
}

// Read parses a table file's bytes expecting lookahead bound k, and returns
// the RuntimeTable the runtime parser drives. It fails with KMismatch if the
// file's recorded k differs from k.
func Read(r io.Reader, k int) (*RuntimeTable, error) {
	er := &errReader{r: r}

	fileK := er.readI32()
	if er.err == nil && int(fileK) != k {
		return nil, lrkerrors.New(lrkerrors.KMismatch, "table file has k=%d, runtime configured for k=%d", fileK, k)
	}

	rt := &RuntimeTable{K: k}

	tokenCount := er.readU64()
	totalNameBytes := er.readU64()
	rt.nameBuf = make([]byte, totalNameBytes)
	rt.names = make([]string, 0, tokenCount)
	rt.idByName = make(map[string]int, tokenCount)
	pos := 0
	for i := uint64(0); i < tokenCount && er.err == nil; i++ {
		l := er.readU32()
		end := pos + int(l)
		if end > len(rt.nameBuf) {
			return nil, lrkerrors.New(lrkerrors.CorruptTable, "symbol name table overruns declared byte total")
		}
		er.readInto(rt.nameBuf[pos:end])
		var name string
		if end > pos {
			name = unsafe.String(&rt.nameBuf[pos], end-pos)
		}
		rt.names = append(rt.names, name)
		rt.idByName[name] = len(rt.names) - 1
		pos = end
	}

	prodCount := er.readU64()
	totalRHS := er.readU64()
	rt.rhsBuf = make([]int32, totalRHS)
	rt.Productions = make([]Production, 0, prodCount)
	rpos := 0
	for i := uint64(0); i < prodCount && er.err == nil; i++ {
		lhs := er.readI32()
		rl := er.readU32()
		rend := rpos + int(rl)
		if rend > len(rt.rhsBuf) {
			return nil, lrkerrors.New(lrkerrors.CorruptTable, "production RHS storage overruns declared total")
		}
		for j := rpos; j < rend && er.err == nil; j++ {
			rt.rhsBuf[j] = er.readI32()
		}
		rt.Productions = append(rt.Productions, Production{LHS: int(lhs), RHS: rt.rhsBuf[rpos:rend:rend]})
		rpos = rend
	}

	numStates := er.readU64()
	rt.Goto = make([]map[int]int, numStates)
	for i := uint64(0); i < numStates && er.err == nil; i++ {
		count := er.readU32()
		row := make(map[int]int, count)
		for j := uint32(0); j < count && er.err == nil; j++ {
			sym := er.readI32()
			dst := er.readU32()
			row[int(sym)] = int(dst)
		}
		rt.Goto[i] = row
	}

	numStatesAgain := er.readU64()
	if er.err == nil && numStatesAgain != numStates {
		return nil, lrkerrors.New(lrkerrors.CorruptTable, "num_states_again (%d) does not match num_states (%d)", numStatesAgain, numStates)
	}
	rt.Action = make([]map[string]automaton.ActionCell, numStates)
	for i := uint64(0); i < numStates && er.err == nil; i++ {
		count := er.readU32()
		row := make(map[string]automaton.ActionCell, count)
		for j := uint32(0); j < count && er.err == nil; j++ {
			ks := er.readKString(k)
			actRaw := er.readU32()
			row[ks.MapKey()] = automaton.ActionCell{Lookahead: ks, Value: automaton.FromRaw(actRaw)}
		}
		rt.Action[i] = row
	}

	if er.err != nil {
		return nil, lrkerrors.Wrap(lrkerrors.IOError, er.err, "read table")
	}
	return rt, nil
}

// ReadFile reads and parses the table file at path, expecting lookahead k.
func ReadFile(path string, k int) (*RuntimeTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, lrkerrors.Wrap(lrkerrors.IOError, err, "open table file %q", path)
	}
	defer f.Close()
	return Read(bufio.NewReader(f), k)
}

// errWriter accumulates the first error across a sequence of writes so
// Write's body can stay free of per-field error checks.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) writeBytes(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *errWriter) writeI32(v int32) {
	if e.err != nil {
		return
	}
	var buf [4]byte
	byteOrder.PutUint32(buf[:], uint32(v))
	_, e.err = e.w.Write(buf[:])
}

func (e *errWriter) writeU32(v uint32) {
	if e.err != nil {
		return
	}
	var buf [4]byte
	byteOrder.PutUint32(buf[:], v)
	_, e.err = e.w.Write(buf[:])
}

func (e *errWriter) writeU64(v uint64) {
	if e.err != nil {
		return
	}
	var buf [8]byte
	byteOrder.PutUint64(buf[:], v)
	_, e.err = e.w.Write(buf[:])
}

func (e *errWriter) writeKString(k int, s kstring.KString) {
	if e.err != nil {
		return
	}
	syms := s.Symbols()
	for i := 0; i < k; i++ {
		var v int32
		if i < len(syms) {
			v = int32(syms[i])
		}
		e.writeI32(v)
	}
	var lb [1]byte
	lb[0] = byte(s.Len())
	_, e.err = e.w.Write(lb[:])
}

// errReader is the read-side mirror of errWriter.
type errReader struct {
	r   io.Reader
	err error
}

func (e *errReader) readInto(buf []byte) {
	if e.err != nil {
		return
	}
	_, e.err = io.ReadFull(e.r, buf)
}

func (e *errReader) readI32() int32 {
	if e.err != nil {
		return 0
	}
	var buf [4]byte
	if _, err := io.ReadFull(e.r, buf[:]); err != nil {
		e.err = err
		return 0
	}
	return int32(byteOrder.Uint32(buf[:]))
}

func (e *errReader) readU32() uint32 {
	if e.err != nil {
		return 0
	}
	var buf [4]byte
	if _, err := io.ReadFull(e.r, buf[:]); err != nil {
		e.err = err
		return 0
	}
	return byteOrder.Uint32(buf[:])
}

func (e *errReader) readU64() uint64 {
	if e.err != nil {
		return 0
	}
	var buf [8]byte
	if _, err := io.ReadFull(e.r, buf[:]); err != nil {
		e.err = err
		return 0
	}
	return byteOrder.Uint64(buf[:])
}

func (e *errReader) readKString(k int) kstring.KString {
	if e.err != nil {
		return kstring.Empty()
	}
	syms := make([]int, k)
	for i := 0; i < k; i++ {
		syms[i] = int(e.readI32())
	}
	var lb [1]byte
	if _, err := io.ReadFull(e.r, lb[:]); err != nil {
		e.err = err
		return kstring.Empty()
	}
	return kstring.FromSlice(syms[:lb[0]])
}
