package boot

import (
	"errors"
	"fmt"
	"sync/atomic"

	"dolphinretro/emucore"

	"github.com/rs/zerolog"
)

var ErrInvalidParameters = errors.New("invalid boot parameters")

// Request asks for a game to be booted. It is consumed at most once.
type Request struct {
	Path      string
	Session   *emucore.BootSession
	IsNetPlay bool
}

func (r Request) kind() string {
	if r.IsNetPlay {
		return "NetPlay"
	}
	return "Game"
}

type State int

const (
	NoGame State = iota
	PendingReady
	Running
)

func (s State) String() string {
	switch s {
	case NoGame:
		return "no game"
	case PendingReady:
		return "pending ready"
	case Running:
		return "running"
	}
	return "unknown"
}

// Gate defers boot requests until the host's graphics context is ready.
//
// RequestBoot and Tick must be called from the tick thread. NotifyContextReady
// and core state notifications may arrive from any thread.
type Gate struct {
	log  zerolog.Logger
	core emucore.Core

	ready  atomic.Bool
	loaded atomic.Bool

	pending    *Request
	subscribed bool

	// Booted runs after every successful boot.
	Booted func(req Request)
}

func NewGate(log zerolog.Logger, core emucore.Core) *Gate {
	return &Gate{
		log:  log.With().Str("component", "boot").Logger(),
		core: core,
	}
}

// Notify implements interfaces.Observer for core state changes.
func (g *Gate) Notify(object interface{}) {
	if state, ok := object.(emucore.State); ok && state == emucore.Uninitialized {
		g.loaded.Store(false)
	}
}

func (g *Gate) NotifyContextReady(ready bool) {
	g.ready.Store(ready)
}

func (g *Gate) IsReady() bool  { return g.ready.Load() }
func (g *Gate) IsLoaded() bool { return g.loaded.Load() }

// MarkUnloaded records that the game is gone without waiting for the core's
// state notification.
func (g *Gate) MarkUnloaded() { g.loaded.Store(false) }

func (g *Gate) HasPending() bool { return g.pending != nil }

func (g *Gate) State() State {
	switch {
	case g.loaded.Load():
		return Running
	case g.pending != nil:
		return PendingReady
	default:
		return NoGame
	}
}

// RequestBoot boots immediately when the context is ready. Otherwise req
// replaces any pending request and a nil error is returned.
func (g *Gate) RequestBoot(req Request) error {
	if !g.ready.Load() {
		if g.pending != nil {
			g.log.Debug().Str("path", g.pending.Path).Msg("boot: requestBoot: replacing pending boot")
		}
		g.pending = &req
		g.log.Info().Str("path", req.Path).Bool("netplay", req.IsNetPlay).Msg("boot: requestBoot: deferred until context is ready")
		return nil
	}

	return g.execute(req)
}

// Tick boots the pending request when no game runs and the context is ready.
// It reports whether a boot was attempted.
func (g *Gate) Tick() bool {
	if g.loaded.Load() || g.pending == nil || !g.ready.Load() {
		return false
	}

	req := *g.pending
	g.pending = nil
	if err := g.execute(req); err != nil {
		g.log.Warn().Err(err).Msg("boot: tick: pending boot dropped")
	}
	return true
}

// Reset drops any pending request.
func (g *Gate) Reset() {
	g.pending = nil
}

func (g *Gate) execute(req Request) error {
	params, err := g.core.BootParameters(req.Path, req.Session)
	if err != nil || params == nil {
		g.log.Error().Err(err).Str("path", req.Path).Msgf("boot: %s boot failed: invalid boot parameters", req.kind())
		return fmt.Errorf("%s: %w", req.Path, ErrInvalidParameters)
	}

	if !g.subscribed {
		g.core.Subscribe(g)
		g.subscribed = true
	}

	if err = g.core.Boot(params); err != nil {
		g.log.Error().Err(err).Str("path", req.Path).Msgf("boot: %s failed to boot", req.kind())
		return fmt.Errorf("boot %s: %w", req.Path, err)
	}

	g.loaded.Store(true)
	g.log.Info().Str("path", req.Path).Bool("netplay", req.IsNetPlay).Msg("boot: booted")

	if g.Booted != nil {
		g.Booted(req)
	}
	return nil
}

// Close unsubscribes from core state notifications.
func (g *Gate) Close() {
	if g.subscribed {
		g.core.Unsubscribe(g)
		g.subscribed = false
	}
}
