package engine

import (
	"dolphinretro/config"
)

// SetCheat classifies code for slot index and applies the cheat list. An
// unparsable code leaves an invalid entry in the slot.
func (c *Context) SetCheat(index int, enabled bool, code string) {
	if !c.initialized || index < 0 {
		return
	}

	entry, err := c.classifier.Classify(index, enabled, code)
	if err != nil {
		c.log.Warn().Err(err).Int("index", index).Msg("engine: setCheat: cheat unparsable")
	}
	c.cheats.Set(index, entry)
	c.applyCheats()
}

// CheatReset clears every cheat slot.
func (c *Context) CheatReset() {
	if !c.initialized {
		return
	}
	c.cheats.Reset()
	c.applyCheats()
}

// applyCheats hands the valid cheats to the core when a game is loaded and
// turns cheats on when any of them is enabled.
func (c *Context) applyCheats() bool {
	if !c.gate.IsLoaded() {
		return false
	}

	ar, gecko, anyEnabled := c.cheats.Collect()
	if anyEnabled {
		if c.store.Update(func(s *config.Settings) { s.Core.EnableCheats = true }) {
			c.core.ApplySettings(c.store.Get().Core)
		}
	}

	c.core.ApplyCheats(ar, gecko)
	c.log.Debug().Int("ar", len(ar)).Int("gecko", len(gecko)).Bool("enabled", anyEnabled).Msg("engine: applyCheats")
	return true
}
