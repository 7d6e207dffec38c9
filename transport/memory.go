package transport

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/redeslab/lsr/protocol"
)

// Filter observes every envelope before delivery. Returning true intercepts
// it: delivery stops and the envelope goes no further.
type Filter func(to protocol.Address, env protocol.Envelope) bool

// linkCond degrades a directed address pair.
type linkCond struct {
	latency time.Duration
	jitter  time.Duration
	loss    float64
}

// MemoryBus is an in-process bus used by the simulation driver and tests.
// Each subscriber gets a buffered channel; a full subscriber drops envelopes,
// which the flooding and seq machinery already tolerates.
type MemoryBus struct {
	mu     sync.Mutex
	subs   map[protocol.Address][]chan protocol.Envelope
	conds  map[pairKey]linkCond
	filter Filter
	closed bool
}

type pairKey struct {
	from, to protocol.Address
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subs:  make(map[protocol.Address][]chan protocol.Envelope),
		conds: make(map[pairKey]linkCond),
	}
}

// SetFilter installs an envelope tap. Test-only observation hook.
func (b *MemoryBus) SetFilter(f Filter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = f
}

// Degrade applies latency/jitter/loss to envelopes sent from one address to
// another.
func (b *MemoryBus) Degrade(from, to protocol.Address, latency, jitter time.Duration, loss float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conds[pairKey{from, to}] = linkCond{latency: latency, jitter: jitter, loss: loss}
}

func (b *MemoryBus) Send(ctx context.Context, addr protocol.Address, env protocol.Envelope) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	filter := b.filter
	cond, degraded := b.conds[pairKey{env.From, addr}]
	b.mu.Unlock()

	if filter != nil && filter(addr, env) {
		return nil
	}
	if degraded {
		if cond.loss > 0 && rand.Float64() < cond.loss {
			return nil
		}
		if cond.latency > 0 || cond.jitter > 0 {
			delay := cond.latency + time.Duration(rand.Float64()*float64(cond.jitter))
			time.AfterFunc(delay, func() {
				b.deliver(addr, env)
			})
			return nil
		}
	}
	b.deliver(addr, env)
	return nil
}

func (b *MemoryBus) deliver(addr protocol.Address, env protocol.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs[addr] {
		select {
		case ch <- env:
		default: // subscriber saturated, drop
		}
	}
}

func (b *MemoryBus) Subscribe(ctx context.Context, addr protocol.Address) (<-chan protocol.Envelope, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan protocol.Envelope, 256)
	b.subs[addr] = append(b.subs[addr], ch)
	return ch, nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	b.subs = nil
	return nil
}
