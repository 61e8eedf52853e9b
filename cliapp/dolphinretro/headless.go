package main

import (
	"strings"
	"sync"

	"dolphinretro/interfaces"

	"github.com/rs/zerolog"
)

// headlessHost stands in for a libretro frontend: it keeps option values in
// memory, counts frames and samples, and logs on-screen messages.
type headlessHost struct {
	log      zerolog.Logger
	username string

	mu      sync.Mutex
	vars    map[string]string
	updated bool
	defs    int

	polls       int
	hwFrames    int
	dummyFrames int
	samples     int
	width       uint32
	height      uint32
}

func newHeadlessHost(log zerolog.Logger, vars map[string]string, username string) *headlessHost {
	if vars == nil {
		vars = make(map[string]string)
	}
	return &headlessHost{
		log:      log.With().Str("component", "host").Logger(),
		username: username,
		vars:     vars,
	}
}

func (h *headlessHost) GetVariable(key string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.vars[key]
	return v, ok
}

func (h *headlessHost) VariablesUpdated() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	updated := h.updated
	h.updated = false
	return updated
}

// SetVariables fills every option the user did not choose with its default,
// the first value of the definition.
func (h *headlessHost) SetVariables(vars []interfaces.Variable) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.defs++
	for _, v := range vars {
		if _, ok := h.vars[v.Key]; ok {
			continue
		}
		_, values, ok := strings.Cut(v.Value, "; ")
		if !ok {
			h.log.Warn().Str("key", v.Key).Msg("host: malformed option definition")
			continue
		}
		def, _, _ := strings.Cut(values, "|")
		h.vars[v.Key] = def
	}
	return true
}

func (h *headlessHost) Set(key, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.vars[key] = value
	h.updated = true
}

func (h *headlessHost) EnableHardwareRender() bool { return true }
func (h *headlessHost) SystemDirectory() string    { return "" }
func (h *headlessHost) SaveDirectory() string      { return "" }

func (h *headlessHost) Username() (string, bool) {
	return h.username, h.username != ""
}

func (h *headlessHost) PollInput() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.polls++
}

func (h *headlessHost) RefreshHardwareFrame(width, height uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hwFrames++
	h.width, h.height = width, height
}

func (h *headlessHost) RefreshDummyFrame() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dummyFrames++
}

func (h *headlessHost) WriteAudioBatch(frames []int16) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(frames) / 2
	h.samples += n
	return n
}

func (h *headlessHost) ShowMessage(msg string, frames uint) {
	h.log.Info().Str("msg", msg).Uint("frames", frames).Msg("host: message")
}

type frameStats struct {
	Polls       int
	HWFrames    int
	DummyFrames int
	Samples     int
	Width       uint32
	Height      uint32
}

func (h *headlessHost) Stats() frameStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return frameStats{
		Polls:       h.polls,
		HWFrames:    h.hwFrames,
		DummyFrames: h.dummyFrames,
		Samples:     h.samples,
		Width:       h.width,
		Height:      h.height,
	}
}
