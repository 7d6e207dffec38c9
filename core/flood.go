package core

import (
	"github.com/redeslab/lsr/protocol"
	"github.com/redeslab/lsr/state"
)

type FloodEvent int

const (
	LSPOriginated FloodEvent = iota
	LSPAccepted
	StaleLSPRejected
	LSPTTLExhausted
)

func (e FloodEvent) String() string {
	switch e {
	case LSPOriginated:
		return "LSP_ORIGINATED"
	case LSPAccepted:
		return "LSP_ACCEPTED"
	case StaleLSPRejected:
		return "STALE_LSP_REJECTED"
	case LSPTTLExhausted:
		return "LSP_TTL_EXHAUSTED"
	}
	return ""
}

// Flooder abstracts the sends the flooding engine performs, so tests can
// record actions without a transport.
type Flooder interface {
	SendLSP(neigh state.NodeId, lsp protocol.LSP)
	Log(event FloodEvent, msg string, args ...any)
}

// OriginateLSP emits a fresh self-description to every neighbour and stores
// it locally. seq must be strictly greater than any previously originated.
func OriginateLSP(db *LSDB, f Flooder, self state.NodeId, seq uint64, adj []state.Neighbor) protocol.LSP {
	lsp := protocol.NewLSP(self, seq, adj, state.DefaultLSPTTL)
	db.Accept(lsp)
	for _, n := range adj {
		f.SendLSP(n.Id, lsp)
	}
	f.Log(LSPOriginated, "originated lsp", "seq", seq)
	return lsp
}

// RelayLSP processes an LSP received from neighbour `from`. An accepted LSP
// is relayed once, unchanged except for the TTL, to every neighbour but the
// one it arrived from; a stale or duplicate LSP is dropped silently. This
// bounds propagation to one relay per router per distinct (origin, seq), so
// a flood terminates even though the topology is not a tree.
//
// The return value reports whether the database changed.
func RelayLSP(db *LSDB, f Flooder, adj []state.Neighbor, from state.NodeId, lsp protocol.LSP) bool {
	if !db.Accept(lsp) {
		f.Log(StaleLSPRejected, "dropping stale lsp", "origin", lsp.Origin, "seq", lsp.Seq)
		return false
	}
	f.Log(LSPAccepted, "accepted lsp", "origin", lsp.Origin, "seq", lsp.Seq)

	relay := lsp
	relay.TTL--
	if relay.TTL <= 0 {
		f.Log(LSPTTLExhausted, "lsp ttl exhausted, not relaying", "origin", lsp.Origin, "seq", lsp.Seq)
		return true
	}
	for _, n := range adj {
		if n.Id != from {
			f.SendLSP(n.Id, relay)
		}
	}
	return true
}
