package mock

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"dolphinretro/cheats"
	"dolphinretro/config"
	"dolphinretro/emucore"
	"dolphinretro/interfaces"
)

const (
	FrameWidth  = 640
	FrameHeight = 528

	// 32kHz stereo at 60 frames per second:
	audioFramesPerTick = 32000 / 60

	stateSize = 64
)

var ErrBootRefused = errors.New("mock core refused to boot")

// Core is an in-memory emulation core. It boots instantly, renders a frame
// per dispatched job batch, and produces silence.
type Core struct {
	// FailParameters makes BootParameters fail for every path.
	FailParameters bool
	// FailBoot makes Boot fail after parameters were built.
	FailBoot bool
	// Present is called for each frame rendered by HostDispatchJobs.
	Present func(width, height uint32)

	mu        sync.Mutex
	state     emucore.State
	observers interfaces.ObserverList

	boots     []emucore.BootParameters
	stops     int
	shutdowns int
	jobs      int
	frame     uint64

	settings config.CoreSettings
	ar       []cheats.ARCode
	gecko    []cheats.GeckoCode
	audio    interfaces.AudioBatchSink
	silence  []int16
}

func NewCore() *Core {
	return &Core{
		observers: make(interfaces.ObserverList),
		silence:   make([]int16, audioFramesPerTick*2),
	}
}

func (c *Core) Subscribe(observer interfaces.Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers[observer] = observer
}

func (c *Core) Unsubscribe(observer interfaces.Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.observers, observer)
}

func (c *Core) setState(state emucore.State) {
	c.mu.Lock()
	c.state = state
	observers := make(interfaces.ObserverList, len(c.observers))
	for k, v := range c.observers {
		observers[k] = v
	}
	c.mu.Unlock()

	observers.NotifyAll(state)
}

func (c *Core) State() emucore.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Core) BootParameters(path string, session *emucore.BootSession) (*emucore.BootParameters, error) {
	if path == "" || c.FailParameters {
		return nil, fmt.Errorf("mock: no boot parameters for %q", path)
	}
	return &emucore.BootParameters{Path: path, Session: session}, nil
}

func (c *Core) Boot(params *emucore.BootParameters) error {
	if c.FailBoot {
		return ErrBootRefused
	}

	c.mu.Lock()
	c.boots = append(c.boots, *params)
	c.frame = 0
	c.mu.Unlock()

	c.setState(emucore.Starting)
	c.setState(emucore.Running)
	return nil
}

// Boots returns the parameters of every successful boot so far.
func (c *Core) Boots() []emucore.BootParameters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]emucore.BootParameters(nil), c.boots...)
}

func (c *Core) IsUninitialized() bool {
	return c.State() == emucore.Uninitialized
}

func (c *Core) Stop() {
	if c.IsUninitialized() {
		return
	}

	c.mu.Lock()
	c.stops++
	c.mu.Unlock()

	c.setState(emucore.Stopping)
	c.setState(emucore.Uninitialized)
}

func (c *Core) Stops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

func (c *Core) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdowns++
}

func (c *Core) Shutdowns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shutdowns
}

func (c *Core) HostDispatchJobs() {
	c.mu.Lock()
	c.jobs++
	running := c.state == emucore.Running
	if running {
		c.frame++
	}
	audio, present := c.audio, c.Present
	c.mu.Unlock()

	if !running {
		return
	}
	if audio != nil {
		audio.WriteAudioBatch(c.silence)
	}
	if present != nil {
		present(FrameWidth, FrameHeight)
	}
}

func (c *Core) Jobs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jobs
}

func (c *Core) ApplySettings(settings config.CoreSettings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = settings
}

func (c *Core) Settings() config.CoreSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

func (c *Core) ApplyCheats(ar []cheats.ARCode, gecko []cheats.GeckoCode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ar = append([]cheats.ARCode(nil), ar...)
	c.gecko = append([]cheats.GeckoCode(nil), gecko...)
}

func (c *Core) Cheats() ([]cheats.ARCode, []cheats.GeckoCode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ar, c.gecko
}

// DecryptARCode derives one operation per line from an FNV hash. It stands in
// for the real Action Replay cipher, which lives in the emulation core.
func (c *Core) DecryptARCode(lines []string) ([]cheats.AREntry, error) {
	ops := make([]cheats.AREntry, 0, len(lines))
	for _, line := range lines {
		if len(line) != 13 {
			return nil, fmt.Errorf("mock: encrypted line %q has %d characters", line, len(line))
		}
		h := fnv.New64a()
		_, _ = h.Write([]byte(line))
		sum := h.Sum64()
		ops = append(ops, cheats.AREntry{CmdAddr: uint32(sum >> 32), Value: uint32(sum)})
	}
	return ops, nil
}

func (c *Core) SetAudioSink(sink interfaces.AudioBatchSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audio = sink
}

func (c *Core) SaveStateSize() int { return stateSize }

func (c *Core) SaveState(buf []byte) error {
	if len(buf) < stateSize {
		return fmt.Errorf("mock: state buffer too small: %d < %d", len(buf), stateSize)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range buf[:stateSize] {
		buf[i] = 0
	}
	binary.LittleEndian.PutUint64(buf, c.frame)
	return nil
}

func (c *Core) LoadState(buf []byte) error {
	if len(buf) < 8 {
		return fmt.Errorf("mock: state buffer too small: %d", len(buf))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = binary.LittleEndian.Uint64(buf)
	return nil
}

func (c *Core) Frame() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}
