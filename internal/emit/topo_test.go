package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraphPointerEdgesOrderUnlessCyclic(t *testing.T) {
	g := newGraph([]string{"a", "b", "c"})
	g.require("a", "c", true)
	g.require("b", "a", true)
	assert.Equal(t, topo{Order: []string{"c", "a", "b"}}, g.sort())
}

func TestGraphStrongRequirementUpgradesPointerEdge(t *testing.T) {
	g := newGraph([]string{"a", "b"})
	g.require("a", "b", true)
	g.require("b", "a", true)
	g.require("b", "a", false)
	// a waits on b only through a pointer, b needs a by value
	assert.Equal(t, []string{"a", "b"}, g.sort().Order)

	g = newGraph([]string{"a", "b"})
	g.require("a", "b", false)
	g.require("b", "a", false)
	got := g.sort()
	assert.Empty(t, got.Order)
	assert.Equal(t, []string{"a", "b"}, got.Cycles)
}
