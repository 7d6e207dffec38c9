package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildGraph_BothDirections(t *testing.T) {
	g := BuildGraph([]Edge{
		{A: "N1", B: "N2", Weight: 20},
		{A: "N1", B: "N3", Weight: 14},
	})

	assert.Equal(t, []NodeId{"N1", "N2", "N3"}, g.Nodes())
	assert.Equal(t, []Neighbor{{Id: "N2", Weight: 20}, {Id: "N3", Weight: 14}}, g.Neighbors("N1"))
	assert.Equal(t, []Neighbor{{Id: "N1", Weight: 20}}, g.Neighbors("N2"))

	w, ok := g.Weight("N3", "N1")
	assert.True(t, ok)
	assert.Equal(t, 14, w)
}

func TestBuildGraph_DuplicateEdgeKeepsPosition(t *testing.T) {
	g := BuildGraph([]Edge{
		{A: "N1", B: "N2", Weight: 20},
		{A: "N1", B: "N3", Weight: 14},
		{A: "N2", B: "N1", Weight: 7},
	})

	// the repeated pair keeps its slot but takes the new weight
	assert.Equal(t, []Neighbor{{Id: "N2", Weight: 7}, {Id: "N3", Weight: 14}}, g.Neighbors("N1"))
	assert.Equal(t, []Neighbor{{Id: "N1", Weight: 7}}, g.Neighbors("N2"))
}

func TestBuildGraph_SelfLoopDropped(t *testing.T) {
	g := BuildGraph([]Edge{
		{A: "N1", B: "N1", Weight: 5},
		{A: "N1", B: "N2", Weight: 1},
	})

	assert.Equal(t, []Neighbor{{Id: "N2", Weight: 1}}, g.Neighbors("N1"))
}

func TestGraph_UnknownNode(t *testing.T) {
	g := BuildGraph([]Edge{{A: "N1", B: "N2", Weight: 1}})

	assert.Empty(t, g.Neighbors("N99"))
	assert.False(t, g.Contains("N99"))
	_, ok := g.Weight("N1", "N99")
	assert.False(t, ok)
}
