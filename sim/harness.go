// Package sim is the simulation driver: it builds N routers from a topology
// over a shared in-memory bus, starts them, injects traffic, and stops them.
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/redeslab/lsr/core"
	"github.com/redeslab/lsr/protocol"
	"github.com/redeslab/lsr/spf"
	"github.com/redeslab/lsr/state"
	"github.com/redeslab/lsr/transport"
)

// Signal is a one-shot broadcast.
type Signal chan bool

func NewSignal() Signal {
	return make(chan bool)
}
func (s Signal) Trigger() {
	select {
	case <-s:
	default:
		close(s)
	}
}
func (s Signal) Triggered() bool {
	select {
	case <-s:
		return true
	default:
		return false
	}
}
func (s Signal) Wait() {
	<-s
}

// Harness runs every node of a topology in-process, one state loop per node,
// communicating only through the shared memory bus.
type Harness struct {
	Central  state.CentralCfg
	Bus      *transport.MemoryBus
	Dir      *transport.Directory
	States   []*state.State
	Locals   []state.LocalCfg
	LogLevel slog.Level

	nodes  []state.NodeId
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a harness for the given topology text, with every node running
// the same protocol.
func New(topology string, proto state.Protocol) (*Harness, error) {
	return NewFromCentral(state.CentralCfg{
		Namespace: "sec30",
		GroupBase: "grupo",
		Topology:  topology,
	}, proto)
}

// NewFromCentral builds a harness from an existing network-global config.
func NewFromCentral(central state.CentralCfg, proto state.Protocol) (*Harness, error) {
	g, err := central.Graph()
	if err != nil {
		return nil, err
	}
	h := &Harness{
		Central:  central,
		Bus:      transport.NewMemoryBus(),
		Dir:      transport.NewDirectory(central.Namespace, central.GroupBase, g.Nodes()),
		LogLevel: slog.LevelInfo,
		nodes:    g.Nodes(),
	}
	for _, id := range g.Nodes() {
		h.Locals = append(h.Locals, state.LocalCfg{
			Id:            id,
			Protocol:      proto,
			HelloInterval: 100 * time.Millisecond,
			FloodInterval: 100 * time.Millisecond,
		})
	}
	h.States = make([]*state.State, len(h.Locals))
	return h, nil
}

// Start launches every node and waits for all of them to enter their state
// loop.
func (h *Harness) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	h.ctx = ctx
	h.cancel = cancel
	h.group, _ = errgroup.WithContext(ctx)
	for idx := range h.Locals {
		idx := idx
		h.group.Go(func() error {
			return core.Start(ctx, h.Central, h.Locals[idx], h.Bus, h.LogLevel, &h.States[idx])
		})
	}
	deadline := time.Now().Add(10 * time.Second)
	for {
		started := true
		for idx := range h.Locals {
			if h.States[idx] == nil || !h.States[idx].Started.Load() {
				started = false
				break
			}
		}
		if started {
			return nil
		}
		if time.Now().After(deadline) {
			h.Stop()
			return fmt.Errorf("timed out waiting for nodes to start")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Stop cancels every node, waits for their loops to finish, and closes the
// bus. Safe at any point of the run.
func (h *Harness) Stop() {
	for _, s := range h.States {
		if s != nil {
			core.Stop(s)
		}
	}
	if h.group != nil {
		_ = h.group.Wait()
	}
	_ = h.Bus.Close()
	if h.cancel != nil {
		h.cancel()
	}
}

// Nodes returns the topology's nodes in insertion order.
func (h *Harness) Nodes() []state.NodeId {
	return h.nodes
}

func (h *Harness) stateOf(id state.NodeId) *state.State {
	for idx, l := range h.Locals {
		if l.Id == id {
			return h.States[idx]
		}
	}
	return nil
}

// InjectHello makes `from` address a hello directly to `to`.
func (h *Harness) InjectHello(from, to state.NodeId) error {
	fromAddr, err := h.Dir.ToAddress(from)
	if err != nil {
		return err
	}
	toAddr, err := h.Dir.ToAddress(to)
	if err != nil {
		return err
	}
	return h.Bus.Send(context.Background(), toAddr, protocol.Envelope{
		Type: protocol.Hello,
		From: fromAddr,
		To:   toAddr,
		TTL:  1,
	})
}

// InjectMessage hands a user message to the source node, which routes it
// toward dst using its own next-hop table.
func (h *Harness) InjectMessage(src, dst state.NodeId, ttl int, payload string) error {
	srcAddr, err := h.Dir.ToAddress(src)
	if err != nil {
		return err
	}
	dstAddr, err := h.Dir.ToAddress(dst)
	if err != nil {
		return err
	}
	body, _ := json.Marshal(payload)
	return h.Bus.Send(context.Background(), srcAddr, protocol.Envelope{
		Type:    protocol.Message,
		From:    srcAddr,
		To:      dstAddr,
		TTL:     ttl,
		Payload: body,
	})
}

// NextHops snapshots a node's next-hop table from its state loop.
func (h *Harness) NextHops(id state.NodeId) (spf.NextHopTable, error) {
	s := h.stateOf(id)
	if s == nil {
		return nil, fmt.Errorf("unknown node %s", id)
	}
	res, err := s.DispatchWait(func(s *state.State) (any, error) {
		r := core.Get[*core.Router](s)
		table := make(spf.NextHopTable, len(r.NextHops))
		for k, v := range r.NextHops {
			table[k] = v
		}
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(spf.NextHopTable), nil
}

// LSDBSnapshot snapshots a node's link-state database.
func (h *Harness) LSDBSnapshot(id state.NodeId) (map[state.NodeId]core.LSDBEntry, error) {
	s := h.stateOf(id)
	if s == nil {
		return nil, fmt.Errorf("unknown node %s", id)
	}
	res, err := s.DispatchWait(func(s *state.State) (any, error) {
		return core.Get[*core.Router](s).DB.Snapshot(), nil
	})
	if err != nil {
		return nil, err
	}
	return res.(map[state.NodeId]core.LSDBEntry), nil
}

// Delivered snapshots the messages a node has accepted for itself.
func (h *Harness) Delivered(id state.NodeId) ([]core.Delivery, error) {
	s := h.stateOf(id)
	if s == nil {
		return nil, fmt.Errorf("unknown node %s", id)
	}
	res, err := s.DispatchWait(func(s *state.State) (any, error) {
		r := core.Get[*core.Router](s)
		out := make([]core.Delivery, len(r.Delivered))
		copy(out, r.Delivered)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]core.Delivery), nil
}
