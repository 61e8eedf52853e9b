package engine

// SerializeSize is the save-state size, zero without a loaded game.
func (c *Context) SerializeSize() int {
	if !c.initialized || !c.gate.IsLoaded() {
		return 0
	}
	return c.core.SaveStateSize()
}

// Serialize writes a save state into buf when a game is loaded and buf is
// large enough.
func (c *Context) Serialize(buf []byte) bool {
	if !c.initialized || !c.gate.IsLoaded() || buf == nil {
		return false
	}

	size := c.core.SaveStateSize()
	if size == 0 || size > len(buf) {
		c.log.Warn().Int("size", size).Int("buffer", len(buf)).Msg("engine: serialize: buffer too small")
		return false
	}

	if err := c.core.SaveState(buf[:size]); err != nil {
		c.log.Error().Err(err).Msg("engine: serialize")
		return false
	}
	return true
}

// Unserialize loads a save state produced by Serialize.
func (c *Context) Unserialize(buf []byte) bool {
	if !c.initialized || !c.gate.IsLoaded() || len(buf) == 0 {
		return false
	}

	// the core may keep the buffer beyond this call
	state := append([]byte(nil), buf...)
	if err := c.core.LoadState(state); err != nil {
		c.log.Error().Err(err).Msg("engine: unserialize")
		return false
	}
	return true
}
