package engine

import (
	"dolphinretro/config"
	"dolphinretro/interfaces"
)

// Tick runs one host frame: options, input, stop requests, netplay, the
// boot gate, core jobs and presentation, in that order.
func (c *Context) Tick() {
	if !c.initialized {
		return
	}

	if c.host.Env != nil && c.host.Env.VariablesUpdated() {
		c.applyOptions()
	}

	if c.host.Input != nil {
		c.host.Input.PollInput()
	}

	if req := c.stopRequests.Swap(0); req != 0 {
		c.stopCore(req&stopLocal != 0)
	}

	c.netplay.Tick()
	c.gate.Tick()

	loaded := c.gate.IsLoaded()
	if loaded {
		c.core.HostDispatchJobs()
	}

	if c.host.Video == nil {
		return
	}
	if c.pendingPresent.Swap(false) {
		c.host.Video.RefreshHardwareFrame(c.presentWidth.Load(), c.presentHeight.Load())
	}
	if !loaded || !c.hwRender {
		c.host.Video.RefreshDummyFrame()
	}
}

// PresentFrame marks a rendered hardware frame for the next tick to present.
func (c *Context) PresentFrame(width, height uint32) {
	c.presentWidth.Store(width)
	c.presentHeight.Store(height)
	c.pendingPresent.Store(true)
}

// ContextReset signals that the host's graphics context became usable.
func (c *Context) ContextReset() {
	c.gate.NotifyContextReady(true)
	c.log.Debug().Msg("engine: contextReset: graphics context ready")
}

// ContextDestroy signals that the host's graphics context is gone. A running
// game is left to the graphics layer.
func (c *Context) ContextDestroy() {
	c.gate.NotifyContextReady(false)
	c.log.Debug().Msg("engine: contextDestroy: graphics context lost")
}

func (c *Context) applyOptions() {
	if c.host.Env == nil {
		return
	}

	if changed, _ := config.ApplyCoreOptions(c.log, c.store, c.host.Env); changed {
		c.log.Debug().Msg("engine: applyOptions: core settings changed")
	}
	c.core.ApplySettings(c.store.Get().Core)
	c.netplay.ApplyOptions(c.host.Env)
}

// publishOptions sends every option definition to the host. When current is
// non-nil the user's current choices stay selected.
func (c *Context) publishOptions(current interfaces.OptionSource) {
	if c.host.Env == nil {
		return
	}

	defs := config.BuildDefinitions(c.store.Get(), c.rooms, current)
	if !c.host.Env.SetVariables(defs) {
		c.log.Warn().Int("options", len(defs)).Msg("engine: publishOptions: host rejected option definitions")
	}
}
