package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"reflect"
	"time"

	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"

	"github.com/redeslab/lsr/state"
	"github.com/redeslab/lsr/transport"
)

// Get returns a registered module by type.
func Get[T state.Module](s *state.State) T {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return s.Modules[t.String()].(T)
}

func buildLogger(ncfg state.LocalCfg, logLevel slog.Level) (*slog.Logger, error) {
	handlers := []slog.Handler{
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        logLevel,
			AddSource:    false,
			TimeFormat:   "15:04:05",
			CustomPrefix: string(ncfg.Id),
		}),
	}
	if ncfg.LogPath != "" {
		if err := os.MkdirAll(path.Dir(ncfg.LogPath), 0700); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(ncfg.LogPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0700)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel}))
	}
	return slog.New(slogmulti.Fanout(handlers...)), nil
}

// Start runs one node until parent or the node's own context is cancelled.
// The bus is the node's only connection to the rest of the network. OS signal
// handling belongs to the caller, through parent. If initState is non-nil it
// receives the node's state before the loop starts, so a driver can inspect
// and stop the node.
func Start(parent context.Context, ccfg state.CentralCfg, ncfg state.LocalCfg, bus transport.Bus, logLevel slog.Level, initState **state.State) error {
	if err := ncfg.Protocol.Validate(); err != nil {
		return err
	}
	if !ncfg.Protocol.Implemented() {
		return fmt.Errorf("%s: %w", ncfg.Protocol, state.ErrNotImplemented)
	}

	ctx, cancel := context.WithCancelCause(parent)
	dispatch := make(chan func(s *state.State) error, 128)

	logger, err := buildLogger(ncfg, logLevel)
	if err != nil {
		cancel(err)
		return err
	}

	s := state.State{
		Modules: make(map[string]state.Module),
		Env: &state.Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: dispatch,
			CentralCfg:      ccfg,
			LocalCfg:        ncfg,
			Log:             logger,
		},
	}
	if initState != nil {
		*initState = &s
	}

	if err := initModules(&s, bus); err != nil {
		Stop(&s)
		return err
	}

	if err := startInbound(&s, bus); err != nil {
		Stop(&s)
		return err
	}

	return MainLoop(&s, dispatch)
}

func initModules(s *state.State, bus transport.Bus) error {
	modules := []state.Module{
		NewRouter(bus),
	}
	for _, module := range modules {
		s.Modules[reflect.TypeOf(module).String()] = module
		if err := module.Init(s); err != nil {
			return err
		}
	}
	return nil
}

// startInbound pumps the node's subscription stream onto the state loop.
func startInbound(s *state.State, bus transport.Bus) error {
	r := Get[*Router](s)
	ch, err := bus.Subscribe(s.Context, r.Addr())
	if err != nil {
		return err
	}
	go func() {
		for {
			select {
			case env, ok := <-ch:
				if !ok {
					return
				}
				s.Dispatch(func(s *state.State) error {
					return r.HandleEnvelope(s, env)
				})
			case <-s.Context.Done():
				return
			}
		}
	}()
	return nil
}

func MainLoop(s *state.State, dispatch <-chan func(*state.State) error) error {
	s.Log.Debug("started state loop")
	s.Started.Store(true)
	for {
		select {
		case fun := <-dispatch:
			if fun == nil {
				goto endLoop
			}
			start := time.Now()
			if err := fun(s); err != nil {
				s.Log.Error("error occurred during dispatch", "error", err)
				s.Cancel(err)
			}
			if elapsed := time.Since(start); elapsed > state.DispatchWarnThreshold {
				s.Log.Warn("dispatch took a long time!", "elapsed", elapsed, "len", len(dispatch))
			}
		case <-s.Context.Done():
			goto endLoop
		}
	}
endLoop:
	s.Log.Info("stopped state loop", "reason", context.Cause(s.Context).Error())
	Stop(s)
	return nil
}

// Stop cancels the node and cleans up its modules. Safe to call at any point
// and more than once.
func Stop(s *state.State) {
	if s.Stopping.Swap(true) {
		return // don't stop twice
	}
	s.Cancel(context.Canceled)
	if s.DispatchChannel != nil {
		// must stay non-nil after close: a late Dispatch has to panic on the
		// closed channel and recover, not block on a nil send
		close(s.DispatchChannel)
	}
	for moduleName, module := range s.Modules {
		if err := module.Cleanup(s); err != nil {
			s.Log.Error("error occurred during cleanup", "module", moduleName, "error", err)
		}
	}
	s.Log.Info("stopped")
}
