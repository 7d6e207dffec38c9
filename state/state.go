package state

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Module is a unit of per-node functionality wired into the state loop.
type Module interface {
	Init(s *State) error
	Cleanup(s *State) error
}

// State access must be done only on the node's own state-loop goroutine.
type State struct {
	*Env
	Modules  map[string]Module
	Started  atomic.Bool
	Stopping atomic.Bool
}

// Env can be read from any goroutine.
type Env struct {
	DispatchChannel chan<- func(s *State) error
	CentralCfg
	LocalCfg
	Context context.Context
	Cancel  context.CancelCauseFunc
	Log     *slog.Logger
}
