// Package runtime drives a loaded LR(k) table against a token stream,
// producing either a right-most derivation (as a sequence of reduced rule
// ids) or a precise syntax error, per spec §4.5.
package runtime

import (
	"strings"

	"github.com/dekarrin/lrk/internal/automaton"
	"github.com/dekarrin/lrk/internal/kstring"
	"github.com/dekarrin/lrk/internal/lrkerrors"
	"github.com/dekarrin/lrk/internal/table"
)

// Parser drives a RuntimeTable against tokenized input.
type Parser struct {
	t *table.RuntimeTable
}

// New builds a Parser from a loaded table.
func New(t *table.RuntimeTable) *Parser {
	return &Parser{t: t}
}

// Tokenize splits text on whitespace and resolves each piece to a symbol id.
// Input tokens are whitespace-separated and must match a terminal name
// literally (spec §1's stated non-goal of lexical analysis).
func (p *Parser) Tokenize(text string) ([]int, error) {
	fields := strings.Fields(text)
	out := make([]int, len(fields))
	for i, f := range fields {
		id, ok := p.t.SymbolID(f)
		if !ok {
			return nil, lrkerrors.New(lrkerrors.UnknownToken, "unknown token %q", f)
		}
		out[i] = id
	}
	return out, nil
}

// Parse runs the shift-reduce driver over tokens and returns the ordered
// list of reduced rule ids (spec §4.5's right-most derivation, in reverse).
func (p *Parser) Parse(tokens []int) ([]int, error) {
	kstring.Configure(p.t.K)

	stack := []int{0} // state ids
	// stack holds state ids only; a parallel symStack holds the symbols
	// pushed between them, mirroring spec §4.5's "integer stack whose
	// entries alternate (state, symbol, state, symbol, ..., state)".
	symStack := []int{}

	var derivation []int
	n := len(tokens)

	for i := 0; i <= n; {
		topState := stack[len(stack)-1]

		remaining := n - i
		width := p.t.K
		if remaining < width {
			width = remaining
		}
		lookahead := kstring.FromSlice(tokens[i : i+width])

		cell, ok := p.t.Action[topState][lookahead.MapKey()]
		if !ok {
			return nil, lrkerrors.New(lrkerrors.SyntaxError, "syntax error at token %d", i)
		}

		switch cell.Value.Kind() {
		case automaton.Shift:
			if i >= n {
				return nil, lrkerrors.New(lrkerrors.SyntaxError, "syntax error at token %d", i)
			}
			sym := tokens[i]
			dst, ok := p.t.Goto[topState][sym]
			if !ok {
				return nil, lrkerrors.New(lrkerrors.CorruptTable, "missing GOTO after SHIFT in state %d on symbol %d", topState, sym)
			}
			symStack = append(symStack, sym)
			stack = append(stack, dst)
			i++

		case automaton.Reduce:
			rule := cell.Value.Rule()
			prod := p.t.Productions[rule]
			arity := len(prod.RHS)

			derivation = append(derivation, rule)

			symStack = symStack[:len(symStack)-arity]
			stack = stack[:len(stack)-arity]

			newTop := stack[len(stack)-1]
			lhs := prod.LHS
			dst, ok := p.t.Goto[newTop][lhs]
			if !ok {
				return nil, lrkerrors.New(lrkerrors.CorruptTable, "missing GOTO after REDUCE in state %d on symbol %d", newTop, lhs)
			}
			symStack = append(symStack, lhs)
			stack = append(stack, dst)

		case automaton.Accept:
			if i != n {
				return nil, lrkerrors.New(lrkerrors.SyntaxError, "syntax error at token %d", i)
			}
			i++

		default:
			return nil, lrkerrors.New(lrkerrors.CorruptTable, "unrecognized action kind in state %d", topState)
		}
	}

	return derivation, nil
}

// ParseText tokenizes text and parses it in one call.
func (p *Parser) ParseText(text string) ([]int, error) {
	tokens, err := p.Tokenize(text)
	if err != nil {
		return nil, err
	}
	return p.Parse(tokens)
}
