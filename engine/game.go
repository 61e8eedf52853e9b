package engine

import (
	"fmt"

	"dolphinretro/boot"
	"dolphinretro/gamefile"
	"dolphinretro/netplay"
)

// LoadGame records the game and either starts the configured netplay
// session or boots it, deferring the boot until the graphics context is
// ready. It reports false on any failure.
func (c *Context) LoadGame(path string) bool {
	if !c.initialized || path == "" {
		return false
	}

	c.hwRender = c.host.Env != nil && c.host.Env.EnableHardwareRender()
	if !c.hwRender {
		c.log.Error().Str("path", path).Msg("engine: loadGame: hardware rendering unavailable")
		return false
	}
	// the host announces the new context through ContextReset
	c.gate.NotifyContextReady(false)

	c.applyOptions()

	game, err := gamefile.Open(path)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("engine: loadGame: could not identify game")
	}
	c.setGame(path, game)

	if mode := c.netplay.Mode(); mode != netplay.Disabled {
		if err = c.netplay.StartSession(mode); err != nil {
			c.setStatus(fmt.Sprintf("NetPlay %s failed: %v", mode, err))
			return false
		}
		return true
	}

	if err = c.gate.RequestBoot(boot.Request{Path: path}); err != nil {
		c.setStatus(fmt.Sprintf("Failed to boot %s", game.NetPlayName()))
		return false
	}
	return true
}

// UnloadGame tears down netplay, stops the game and forgets it.
func (c *Context) UnloadGame() {
	if !c.initialized {
		return
	}

	c.netplay.Shutdown()
	c.stopCore(true)
	c.gate.MarkUnloaded()
	c.gate.Reset()
	c.hwRender = false
	c.setGame("", nil)
}

// stopCore stops a loaded game and, when announce is set, tells the netplay
// session.
func (c *Context) stopCore(announce bool) {
	if !c.gate.IsLoaded() {
		return
	}

	if !c.core.IsUninitialized() {
		c.core.Stop()
	}
	c.core.Shutdown()
	c.gate.MarkUnloaded()
	if announce {
		c.netplay.GameStopped()
	}
}

func (c *Context) setGame(path string, game *gamefile.GameFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gamePath = path
	c.game = game
}

func (c *Context) booted(req boot.Request) {
	c.applyCheats()
	c.mu.Lock()
	name := c.game.NetPlayName()
	c.mu.Unlock()
	if name == "" {
		name = req.Path
	}
	if req.IsNetPlay {
		c.setStatus("NetPlay: started " + name)
	}
}

// Game implements netplay.PluginHost.
func (c *Context) Game() (string, *gamefile.GameFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gamePath, c.game
}

// Running reports whether a game is booted.
func (c *Context) Running() bool { return c.gate.IsLoaded() }

// RequestStop asks the next tick to stop the running game. Stops from
// netplay peers are remote.
func (c *Context) RequestStop(remote bool) {
	if remote {
		c.stopRequests.Or(stopRemote)
		return
	}
	c.stopRequests.Or(stopLocal)
}

func (c *Context) RequestBoot(req boot.Request) error { return c.gate.RequestBoot(req) }

func (c *Context) Username() (string, bool) {
	if c.host.Env == nil {
		return "", false
	}
	return c.host.Env.Username()
}

// RoomsRefreshed republishes the host options so the room option lists the
// new labels.
func (c *Context) RoomsRefreshed(values []string) {
	c.rooms = values
	c.publishOptions(c.host.Env)
}

var _ netplay.PluginHost = (*Context)(nil)
