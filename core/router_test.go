package core

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redeslab/lsr/protocol"
	"github.com/redeslab/lsr/spf"
	"github.com/redeslab/lsr/state"
	"github.com/redeslab/lsr/transport"
)

// testRouter wires a router by hand, skipping Init so no timers run.
func testRouter(t *testing.T) (*Router, *transport.MemoryBus) {
	t.Helper()
	bus := transport.NewMemoryBus()
	t.Cleanup(func() { _ = bus.Close() })

	dir := transport.NewDirectory("sec30", "grupo", []state.NodeId{"N3", "N9", "N11"})
	addr, err := dir.ToAddress("N3")
	require.NoError(t, err)

	return &Router{
		State: &state.State{
			Env: &state.Env{
				Context:  context.Background(),
				Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
				LocalCfg: state.LocalCfg{Id: "N3", Protocol: state.ProtocolLinkState},
			},
		},
		Self:      "N3",
		Adjacency: []state.Neighbor{{Id: "N9", Weight: 2}},
		DB:        NewLSDB(),
		NextHops:  spf.NextHopTable{"N9": {Next: "N9", Cost: 2}, "N11": {Next: "N9", Cost: 11}},
		bus:       bus,
		dir:       dir,
		addr:      addr,
	}, bus
}

func TestForward_TTLZero(t *testing.T) {
	r, _ := testRouter(t)
	env := protocol.Envelope{Type: protocol.Message, TTL: 0}
	assert.ErrorIs(t, r.Forward(env, "N11"), ErrTTLExhausted)
}

func TestForward_Unreachable(t *testing.T) {
	r, _ := testRouter(t)
	env := protocol.Envelope{Type: protocol.Message, TTL: 5}
	assert.ErrorIs(t, r.Forward(env, "N42"), ErrUnreachable)
}

func TestForward_EnrichesHeaders(t *testing.T) {
	r, bus := testRouter(t)

	next, err := r.dir.ToAddress("N9")
	require.NoError(t, err)
	ch, err := bus.Subscribe(context.Background(), next)
	require.NoError(t, err)

	env := protocol.Envelope{
		Type:    protocol.Message,
		From:    r.addr,
		TTL:     5,
		Headers: headerChain("N1", []state.NodeId{"N1"}, 14),
	}
	require.NoError(t, r.Forward(env, "N11"))

	select {
	case got := <-ch:
		assert.Equal(t, 4, got.TTL)
		via, ok := got.Headers.Via()
		assert.True(t, ok)
		assert.Equal(t, state.NodeId("N3"), via)
		assert.Equal(t, []state.NodeId{"N1", "N3"}, got.Headers.Path())
		// cost accumulates the traversed edge weight
		assert.Equal(t, 16, got.Headers.Cost())
	case <-time.After(time.Second):
		t.Fatal("nothing forwarded")
	}
}

func headerChain(via state.NodeId, path []state.NodeId, cost int) protocol.Headers {
	return protocol.Headers{}.
		With(protocol.HeaderVia, via).
		With(protocol.HeaderPath, path).
		With(protocol.HeaderCost, cost)
}

func TestHandleEnvelope_DeliversToSelf(t *testing.T) {
	r, _ := testRouter(t)

	env := protocol.Envelope{
		Type:    protocol.Message,
		From:    "sec30.grupo9.nodo9",
		To:      r.addr,
		TTL:     3,
		Headers: headerChain("N9", []state.NodeId{"N9"}, 2),
		Payload: []byte(`"hola"`),
	}
	require.NoError(t, r.HandleEnvelope(r.State, env))

	require.Len(t, r.Delivered, 1)
	assert.Equal(t, []state.NodeId{"N9"}, r.Delivered[0].Path)
	assert.Equal(t, 2, r.Delivered[0].Cost)
}

func TestHandleEnvelope_BadAddressesAreNotFatal(t *testing.T) {
	r, _ := testRouter(t)

	assert.NoError(t, r.HandleEnvelope(r.State, protocol.Envelope{
		Type: protocol.Message, To: "bogus", TTL: 3,
	}))
	assert.NoError(t, r.HandleEnvelope(r.State, protocol.Envelope{
		Type: protocol.LSPKind, From: "bogus", TTL: 3,
	}))
	assert.NoError(t, r.HandleEnvelope(r.State, protocol.Envelope{Type: "mystery"}))
	assert.Empty(t, r.Delivered)
}
