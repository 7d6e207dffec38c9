package core

import (
	"github.com/redeslab/lsr/protocol"
	"github.com/redeslab/lsr/state"
)

// LSDBEntry is the most recently accepted advertisement from one origin.
type LSDBEntry struct {
	Seq       uint64
	Neighbors []protocol.LSPNeighbor
}

// LSDB stores the freshest link-state packet seen from each origin. It is
// owned by exactly one router and only tracks freshness; recomputing routes
// after an accepted update is the owner's job.
type LSDB struct {
	order   []state.NodeId
	entries map[state.NodeId]LSDBEntry
}

func NewLSDB() *LSDB {
	return &LSDB{entries: make(map[state.NodeId]LSDBEntry)}
}

// Accept stores the LSP iff its origin is new or its seq is strictly greater
// than the stored one. Equal or smaller seq is a no-op returning false; this
// is the flooding loop and duplicate suppression mechanism.
func (db *LSDB) Accept(lsp protocol.LSP) bool {
	cur, ok := db.entries[lsp.Origin]
	if ok && lsp.Seq <= cur.Seq {
		return false
	}
	if !ok {
		db.order = append(db.order, lsp.Origin)
	}
	db.entries[lsp.Origin] = LSDBEntry{Seq: lsp.Seq, Neighbors: lsp.Neighbors}
	return true
}

// Seq reports the stored sequence number for an origin.
func (db *LSDB) Seq(origin state.NodeId) (uint64, bool) {
	e, ok := db.entries[origin]
	return e.Seq, ok
}

func (db *LSDB) Len() int {
	return len(db.entries)
}

// Graph rebuilds a topology snapshot by unioning every stored adjacency.
// Each call returns a fresh graph; nothing is mutated in place.
func (db *LSDB) Graph() *state.Graph {
	edges := make([]state.Edge, 0)
	for _, origin := range db.order {
		for _, n := range db.entries[origin].Neighbors {
			edges = append(edges, state.Edge{A: origin, B: n.Id, Weight: n.Weight})
		}
	}
	return state.BuildGraph(edges)
}

// Snapshot copies the database contents, keyed by origin. Used by the
// simulation driver to compare convergence across routers.
func (db *LSDB) Snapshot() map[state.NodeId]LSDBEntry {
	out := make(map[state.NodeId]LSDBEntry, len(db.entries))
	for origin, e := range db.entries {
		nbrs := make([]protocol.LSPNeighbor, len(e.Neighbors))
		copy(nbrs, e.Neighbors)
		out[origin] = LSDBEntry{Seq: e.Seq, Neighbors: nbrs}
	}
	return out
}
