package grammar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadInternsSymbolsInFileOrder(t *testing.T) {
	assert := assert.New(t)

	g, err := Load(strings.NewReader("S -> a S b S\nS -> eps\n"))
	if !assert.NoError(err) {
		return
	}

	id, ok := g.ID("S")
	assert.True(ok, "S should be defined")
	assert.Zero(id, "S should be the first-interned symbol")
	assert.True(g.IsNonTerminal(id), "S should be a nonterminal")

	aID, ok := g.ID("a")
	assert.True(ok, "a should be defined")
	assert.True(g.IsTerminal(aID), "a should be a terminal")
}

func TestLoadAugmentsWithFreshStartSymbol(t *testing.T) {
	assert := assert.New(t)

	g, err := Load(strings.NewReader("S -> a\n"))
	if !assert.NoError(err) {
		return
	}

	aug := g.Production(g.AugmentedProduction)
	assert.Equal("S_0", g.Name(aug.LHS))
	if assert.Len(aug.RHS, 1) {
		assert.Equal("S", g.Name(aug.RHS[0]))
	}
	assert.Equal(aug.LHS, g.Start)
}

func TestLoadAugmentedNameAvoidsCollision(t *testing.T) {
	assert := assert.New(t)

	g, err := Load(strings.NewReader("S -> S_0\nS_0 -> a\n"))
	if !assert.NoError(err) {
		return
	}
	assert.NotEqual("S_0", g.Name(g.Start), "augmented symbol name must not collide with an existing symbol")
}

func TestLoadEpsilonProduction(t *testing.T) {
	assert := assert.New(t)

	g, err := Load(strings.NewReader("S -> eps\n"))
	if !assert.NoError(err) {
		return
	}
	assert.Empty(g.Production(0).RHS, "eps production should have an empty RHS")
}

func TestLoadMissingStartSymbolFails(t *testing.T) {
	_, err := Load(strings.NewReader("A -> a\n"))
	assert.Error(t, err, "expected an error when no S production is present")
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	_, err := Load(strings.NewReader("S a b\n"))
	assert.Error(t, err, "expected an error for a line missing the -> separator")
}

func TestLoadRejectsEpsMixedWithSymbols(t *testing.T) {
	_, err := Load(strings.NewReader("S -> a eps\n"))
	assert.Error(t, err, "expected an error when eps appears alongside other RHS symbols")
}

func TestLoadSkipsBlankLines(t *testing.T) {
	assert := assert.New(t)

	g, err := Load(strings.NewReader("S -> a\n\n\nA -> b\n"))
	if !assert.NoError(err) {
		return
	}
	assert.Len(g.Productions(), 3) // S -> a, A -> b, plus the augmented production
}

func TestProductionsForReturnsFileOrder(t *testing.T) {
	assert := assert.New(t)

	g, err := Load(strings.NewReader("S -> a\nS -> b\n"))
	if !assert.NoError(err) {
		return
	}
	sID, _ := g.ID("S")
	assert.Equal([]int{0, 1}, g.ProductionsFor(sID))
}
