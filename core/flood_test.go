package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redeslab/lsr/protocol"
	"github.com/redeslab/lsr/state"
)

type sentLSP struct {
	To  state.NodeId
	LSP protocol.LSP
}

// recorder captures flooding actions instead of sending them anywhere.
type recorder struct {
	sent   []sentLSP
	events []FloodEvent
}

func (r *recorder) SendLSP(neigh state.NodeId, lsp protocol.LSP) {
	r.sent = append(r.sent, sentLSP{To: neigh, LSP: lsp})
}

func (r *recorder) Log(event FloodEvent, msg string, args ...any) {
	r.events = append(r.events, event)
}

var floodAdj = []state.Neighbor{
	{Id: "N9", Weight: 2},
	{Id: "N4", Weight: 14},
	{Id: "N1", Weight: 14},
}

func TestOriginateLSP(t *testing.T) {
	db := NewLSDB()
	rec := &recorder{}

	lsp := OriginateLSP(db, rec, "N3", 1, floodAdj)

	seq, ok := db.Seq("N3")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), seq)
	assert.Equal(t, state.DefaultLSPTTL, lsp.TTL)

	assert.Equal(t, []sentLSP{
		{To: "N9", LSP: lsp},
		{To: "N4", LSP: lsp},
		{To: "N1", LSP: lsp},
	}, rec.sent)
	assert.Equal(t, []FloodEvent{LSPOriginated}, rec.events)
}

func TestRelayLSP_AcceptedRelaysExceptArrival(t *testing.T) {
	db := NewLSDB()
	rec := &recorder{}

	lsp := protocol.LSP{Origin: "N6", Seq: 1, TTL: 16,
		Neighbors: []protocol.LSPNeighbor{{Id: "N9", Weight: 1}}}
	changed := RelayLSP(db, rec, floodAdj, "N9", lsp)

	assert.True(t, changed)
	assert.Equal(t, []FloodEvent{LSPAccepted}, rec.events)

	// relayed once to every neighbour except the arrival one, TTL down by one
	relayed := lsp
	relayed.TTL = 15
	assert.Equal(t, []sentLSP{
		{To: "N4", LSP: relayed},
		{To: "N1", LSP: relayed},
	}, rec.sent)
}

func TestRelayLSP_StaleDroppedSilently(t *testing.T) {
	db := NewLSDB()
	rec := &recorder{}

	lsp := protocol.LSP{Origin: "N6", Seq: 3, TTL: 16}
	assert.True(t, RelayLSP(db, rec, floodAdj, "N9", lsp))

	rec.sent = nil
	rec.events = nil
	assert.False(t, RelayLSP(db, rec, floodAdj, "N4", lsp))
	assert.False(t, RelayLSP(db, rec, floodAdj, "N4", protocol.LSP{Origin: "N6", Seq: 2, TTL: 16}))
	assert.Empty(t, rec.sent)
	assert.Equal(t, []FloodEvent{StaleLSPRejected, StaleLSPRejected}, rec.events)
}

func TestRelayLSP_TTLExhaustedStillAccepted(t *testing.T) {
	db := NewLSDB()
	rec := &recorder{}

	lsp := protocol.LSP{Origin: "N6", Seq: 1, TTL: 1}
	assert.True(t, RelayLSP(db, rec, floodAdj, "N9", lsp))

	// stored locally but not propagated further
	seq, ok := db.Seq("N6")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), seq)
	assert.Empty(t, rec.sent)
	assert.Equal(t, []FloodEvent{LSPAccepted, LSPTTLExhausted}, rec.events)
}
