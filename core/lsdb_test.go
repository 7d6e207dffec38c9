package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redeslab/lsr/protocol"
	"github.com/redeslab/lsr/state"
)

func lspOf(origin state.NodeId, seq uint64, nbrs ...protocol.LSPNeighbor) protocol.LSP {
	return protocol.LSP{Origin: origin, Seq: seq, Neighbors: nbrs, TTL: state.DefaultLSPTTL}
}

func TestLSDB_AcceptMonotone(t *testing.T) {
	db := NewLSDB()

	assert.True(t, db.Accept(lspOf("N3", 1, protocol.LSPNeighbor{Id: "N9", Weight: 2})))
	assert.True(t, db.Accept(lspOf("N3", 2, protocol.LSPNeighbor{Id: "N9", Weight: 2})))
	assert.False(t, db.Accept(lspOf("N3", 2)))
	assert.False(t, db.Accept(lspOf("N3", 1)))

	seq, ok := db.Seq("N3")
	assert.True(t, ok)
	assert.Equal(t, uint64(2), seq)
	assert.Equal(t, 1, db.Len())
}

func TestLSDB_NewOriginAlwaysAccepted(t *testing.T) {
	db := NewLSDB()
	assert.True(t, db.Accept(lspOf("N3", 5)))
	assert.True(t, db.Accept(lspOf("N9", 1)))
	assert.Equal(t, 2, db.Len())

	_, ok := db.Seq("N6")
	assert.False(t, ok)
}

func TestLSDB_StaleRejectLeavesEntryIntact(t *testing.T) {
	db := NewLSDB()
	db.Accept(lspOf("N3", 2, protocol.LSPNeighbor{Id: "N9", Weight: 2}))
	db.Accept(lspOf("N3", 1, protocol.LSPNeighbor{Id: "N9", Weight: 99}))

	g := db.Graph()
	w, ok := g.Weight("N3", "N9")
	assert.True(t, ok)
	assert.Equal(t, 2, w)
}

func TestLSDB_GraphUnionsAllOrigins(t *testing.T) {
	db := NewLSDB()
	db.Accept(lspOf("N3", 1,
		protocol.LSPNeighbor{Id: "N9", Weight: 2},
		protocol.LSPNeighbor{Id: "N4", Weight: 14}))
	db.Accept(lspOf("N9", 1,
		protocol.LSPNeighbor{Id: "N3", Weight: 2},
		protocol.LSPNeighbor{Id: "N6", Weight: 1}))

	g := db.Graph()
	assert.ElementsMatch(t, []state.NodeId{"N3", "N9", "N4", "N6"}, g.Nodes())
	w, ok := g.Weight("N9", "N6")
	assert.True(t, ok)
	assert.Equal(t, 1, w)
}

func TestLSDB_SnapshotIsACopy(t *testing.T) {
	db := NewLSDB()
	db.Accept(lspOf("N3", 1, protocol.LSPNeighbor{Id: "N9", Weight: 2}))

	snap := db.Snapshot()
	snap["N3"].Neighbors[0].Weight = 99
	delete(snap, "N3")

	again := db.Snapshot()
	assert.Equal(t, 2, again["N3"].Neighbors[0].Weight)
	assert.Equal(t, uint64(1), again["N3"].Seq)
}
