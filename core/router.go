package core

import (
	"context"
	"errors"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/redeslab/lsr/protocol"
	"github.com/redeslab/lsr/spf"
	"github.com/redeslab/lsr/state"
	"github.com/redeslab/lsr/transport"
)

// Delivery failures. Surfaced to the forwarding caller and logged; never
// fatal to the router.
var (
	ErrUnreachable  = errors.New("destination unreachable")
	ErrTTLExhausted = errors.New("ttl exhausted")
)

// Delivery records a message that reached its destination.
type Delivery struct {
	Envelope protocol.Envelope
	Path     []state.NodeId
	Cost     int
}

// Router is the per-node actor. It owns one LSDB and one next-hop table,
// emits hello and link-state traffic, and forwards user messages hop by hop.
// All fields are owned by the node's state loop.
type Router struct {
	*state.State
	Self      state.NodeId
	Adjacency []state.Neighbor
	DB        *LSDB
	NextHops  spf.NextHopTable
	Delivered []Delivery

	bus     transport.Bus
	dir     *transport.Directory
	addr    protocol.Address
	selfSeq uint64
	hello   *ttlcache.Cache[state.NodeId, time.Time]
}

func NewRouter(bus transport.Bus) *Router {
	return &Router{bus: bus}
}

// Addr is the transport address this router subscribes on.
func (r *Router) Addr() protocol.Address {
	return r.addr
}

func (r *Router) helloInterval() time.Duration {
	if r.LocalCfg.HelloInterval > 0 {
		return r.LocalCfg.HelloInterval
	}
	return state.HelloInterval
}

func (r *Router) floodInterval() time.Duration {
	if r.LocalCfg.FloodInterval > 0 {
		return r.LocalCfg.FloodInterval
	}
	return state.FloodInterval
}

func (r *Router) Init(s *state.State) error {
	r.State = s
	r.Self = s.LocalCfg.Id

	full, err := s.CentralCfg.Graph()
	if err != nil {
		return err
	}
	r.Adjacency = full.Neighbors(r.Self)

	r.dir = transport.NewDirectory(s.Namespace, s.GroupBase, full.Nodes())
	r.addr, err = r.dir.ToAddress(r.Self)
	if err != nil {
		return err
	}

	// bootstrap: self-seed the database from the static local adjacency
	r.DB = NewLSDB()
	r.selfSeq = 1
	r.DB.Accept(protocol.NewLSP(r.Self, r.selfSeq, r.Adjacency, state.DefaultLSPTTL))

	switch s.LocalCfg.Protocol {
	case state.ProtocolStatic:
		// one table for the whole run, from the full known topology
		r.NextHops = spf.BuildNextHop(full, r.Self)
	case state.ProtocolLinkState:
		r.NextHops = spf.BuildNextHop(r.DB.Graph(), r.Self)
		s.Env.RepeatTask(r.floodTick, r.floodInterval())
	}

	r.hello = ttlcache.New[state.NodeId, time.Time](
		ttlcache.WithTTL[state.NodeId, time.Time](r.helloInterval() * time.Duration(state.HelloMisses)),
	)
	r.hello.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[state.NodeId, time.Time]) {
		if reason == ttlcache.EvictionReasonExpired {
			s.Log.Warn("neighbour silent", "neigh", item.Key(), "last_hello", item.Value())
		}
	})
	go r.hello.Start()
	s.Env.RepeatTask(r.helloTick, r.helloInterval())

	s.Log.Info("router up",
		"addr", r.addr,
		"protocol", s.LocalCfg.Protocol,
		"neighbours", len(r.Adjacency))
	return nil
}

func (r *Router) Cleanup(s *state.State) error {
	if r.hello != nil {
		r.hello.Stop()
	}
	return nil
}

// SendLSP implements Flooder.
func (r *Router) SendLSP(neigh state.NodeId, lsp protocol.LSP) {
	payload, err := lsp.Encode()
	if err != nil {
		r.State.Log.Warn("encode lsp failed", "err", err)
		return
	}
	addr, err := r.dir.ToAddress(neigh)
	if err != nil {
		r.State.Log.Warn("cannot resolve neighbour address", "neigh", neigh, "err", err)
		return
	}
	r.send(addr, protocol.Envelope{
		Type:    protocol.LSPKind,
		From:    r.addr,
		To:      addr,
		TTL:     lsp.TTL,
		Payload: payload,
	})
}

// Log implements Flooder.
func (r *Router) Log(event FloodEvent, msg string, args ...any) {
	args = append([]any{"event", event.String()}, args...)
	r.State.Log.Debug(msg, args...)
}

func (r *Router) floodTick(s *state.State) error {
	r.selfSeq++
	OriginateLSP(r.DB, r, r.Self, r.selfSeq, r.Adjacency)
	// accepting our own fresher LSP counts as a database change
	r.recompute()
	return nil
}

func (r *Router) helloTick(s *state.State) error {
	for _, n := range r.Adjacency {
		addr, err := r.dir.ToAddress(n.Id)
		if err != nil {
			s.Log.Warn("cannot resolve neighbour address", "neigh", n.Id, "err", err)
			continue
		}
		r.send(addr, protocol.Envelope{
			Type: protocol.Hello,
			From: r.addr,
			To:   addr,
			TTL:  1,
		})
	}
	return nil
}

// recompute swaps in a freshly derived next-hop table. The swap is atomic by
// construction: the table is replaced wholesale on the state loop, never
// merged in place.
func (r *Router) recompute() {
	if r.LocalCfg.Protocol != state.ProtocolLinkState {
		return
	}
	r.NextHops = spf.BuildNextHop(r.DB.Graph(), r.Self)
}

// send is fire-and-forget: the router never awaits delivery confirmation.
func (r *Router) send(addr protocol.Address, env protocol.Envelope) {
	if err := r.bus.Send(r.Context, addr, env); err != nil {
		r.State.Log.Warn("send failed", "to", addr, "err", err)
	}
}

// HandleEnvelope processes one inbound envelope on the state loop. No
// envelope may terminate the router: every failure is local, logged, and
// recoverable by later traffic.
func (r *Router) HandleEnvelope(s *state.State, env protocol.Envelope) error {
	switch env.Type {
	case protocol.Hello:
		from, err := r.dir.ToNode(env.From)
		if err != nil {
			s.Log.Warn("hello from unresolvable address", "from", env.From, "err", err)
			return nil
		}
		// liveness signal only, no routing state change
		r.hello.Set(from, time.Now(), ttlcache.DefaultTTL)
		s.Log.Debug("hello received", "from", from)

	case protocol.LSPKind:
		if s.LocalCfg.Protocol != state.ProtocolLinkState {
			s.Log.Debug("ignoring lsp in static mode", "from", env.From)
			return nil
		}
		from, err := r.dir.ToNode(env.From)
		if err != nil {
			s.Log.Warn("lsp from unresolvable address", "from", env.From, "err", err)
			return nil
		}
		lsp, err := protocol.DecodeLSP(env.Payload)
		if err != nil {
			s.Log.Warn("dropping malformed lsp", "from", from, "err", err)
			return nil
		}
		if RelayLSP(r.DB, r, r.Adjacency, from, lsp) {
			r.recompute()
		}

	case protocol.Message:
		dst, err := r.dir.ToNode(env.To)
		if err != nil {
			s.Log.Warn("message to unresolvable address", "to", env.To, "err", err)
			return nil
		}
		if dst == r.Self {
			r.deliver(env)
			return nil
		}
		if err := r.Forward(env, dst); err != nil {
			s.Log.Warn("delivery failed", "dst", dst, "ttl", env.TTL, "err", err)
		}

	default:
		s.Log.Debug("ignoring envelope of unknown type", "type", env.Type)
	}
	return nil
}

// deliver terminates a message addressed to this node.
func (r *Router) deliver(env protocol.Envelope) {
	d := Delivery{
		Envelope: env,
		Path:     env.Headers.Path(),
		Cost:     env.Headers.Cost(),
	}
	r.Delivered = append(r.Delivered, d)
	r.State.Log.Info("message delivered",
		"from", env.From,
		"path", d.Path,
		"cost", d.Cost,
		"payload", string(env.Payload))
}

// Forward relays a user message one hop toward dst. Single-shot: an
// unreachable destination or exhausted TTL drops the message with a failed
// delivery result, no retry and no acknowledgment.
func (r *Router) Forward(env protocol.Envelope, dst state.NodeId) error {
	if env.TTL <= 0 {
		return ErrTTLExhausted
	}
	hop, ok := r.NextHops[dst]
	if !ok {
		return ErrUnreachable
	}
	// the next hop always lies on a local edge
	weight := 0
	for _, n := range r.Adjacency {
		if n.Id == hop.Next {
			weight = n.Weight
			break
		}
	}

	addr, err := r.dir.ToAddress(hop.Next)
	if err != nil {
		return err
	}

	env.TTL--
	env.Headers = env.Headers.
		With(protocol.HeaderVia, r.Self).
		With(protocol.HeaderPath, append(env.Headers.Path(), r.Self)).
		With(protocol.HeaderCost, env.Headers.Cost()+weight)

	r.State.Log.Debug("forwarding message", "dst", dst, "next", hop.Next, "ttl", env.TTL)
	r.send(addr, env)
	return nil
}
