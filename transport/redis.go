package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/redeslab/lsr/protocol"
	"github.com/redeslab/lsr/state"
)

// RedisBus delivers envelopes over redis pub/sub channels, one channel per
// transport address. This is the broker deployment; the simulation driver
// uses MemoryBus instead.
type RedisBus struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisBus connects to the broker and verifies it responds before any
// node starts, so a misconfigured broker fails the run up front rather than
// as silent message loss.
func NewRedisBus(ctx context.Context, cfg state.RedisCfg, log *slog.Logger) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis preflight %s: %w", cfg.Addr, err)
	}
	return &RedisBus{client: client, log: log}, nil
}

func (b *RedisBus) Send(ctx context.Context, addr protocol.Address, env protocol.Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, string(addr), data).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, addr protocol.Address) (<-chan protocol.Envelope, error) {
	ps := b.client.Subscribe(ctx, string(addr))
	// force the subscription before returning so no early envelope is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	out := make(chan protocol.Envelope, 256)
	go func() {
		defer close(out)
		defer ps.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ps.Channel():
				if !ok {
					return
				}
				env, err := protocol.DecodeEnvelope([]byte(msg.Payload))
				if err != nil {
					b.log.Warn("dropping undecodable envelope", "channel", addr, "err", err)
					continue
				}
				select {
				case out <- env:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}
