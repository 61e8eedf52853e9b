// Package engine holds the orchestration context behind the host boundary
// operations and the per-tick loop that drives booting, netplay and cheats.
package engine

import (
	"io"
	"sync"
	"sync/atomic"

	"dolphinretro/boot"
	"dolphinretro/cheats"
	"dolphinretro/config"
	"dolphinretro/emucore"
	"dolphinretro/gamefile"
	"dolphinretro/interfaces"
	"dolphinretro/lobby"
	"dolphinretro/netplay"
	"dolphinretro/netplay/udpsession"
	"dolphinretro/util"

	_ "dolphinretro/lobby/grpcdir"
	_ "dolphinretro/lobby/httpdir"
	_ "dolphinretro/lobby/wsdir"

	"github.com/rs/zerolog"
)

// frames a status message stays on screen:
const statusFrames = 180

// stop request sources, or'ed into Context.stopRequests:
const (
	stopLocal uint32 = 1 << iota
	stopRemote
)

// Host bundles the capabilities registered by the embedding runtime. Any of
// them may be nil.
type Host struct {
	Env         interfaces.Environment
	Input       interfaces.InputPoller
	Video       interfaces.VideoRefresher
	AudioBatch  interfaces.AudioBatchSink
	AudioSample interfaces.AudioSampleSink
	Log         interfaces.LogSink
	Messages    interfaces.MessageSink
}

type Options struct {
	// ConfigPath is the settings file. Empty keeps settings in memory.
	ConfigPath string
	LogLevel   string
	// LogWriter receives log output when the host has no log sink. Nil logs
	// to stderr.
	LogWriter io.Writer

	// Factory creates netplay sessions. Nil selects the UDP transport.
	Factory netplay.Factory
	// Directory overrides the room directory opened from the index server
	// setting. It is not closed by Deinit.
	Directory lobby.Directory
}

// Context is the orchestration context. Boundary operations must be called
// from the host thread; PresentFrame, RequestStop and the readiness
// notifications may be called from any thread.
type Context struct {
	host Host
	core emucore.Core
	opts Options

	root zerolog.Logger
	log  zerolog.Logger

	store      *config.Store
	gate       *boot.Gate
	catalog    *lobby.Catalog
	netplay    *netplay.Orchestrator
	classifier *cheats.Classifier
	cheats     cheats.List
	dir        lobby.Directory

	initialized bool
	hwRender    bool
	rooms       []string
	status      string

	stopRequests   atomic.Uint32
	pendingPresent atomic.Bool
	presentWidth   atomic.Uint32
	presentHeight  atomic.Uint32

	mu       sync.Mutex
	gamePath string
	game     *gamefile.GameFile
}

func New(host Host, core emucore.Core, opts Options) *Context {
	return &Context{
		host: host,
		core: core,
		opts: opts,
		root: zerolog.Nop(),
		log:  zerolog.Nop(),
	}
}

// Init builds the context: loggers, settings, lobby catalog, netplay
// orchestrator and boot gate. It publishes the host options and selects the
// audio sink.
func (c *Context) Init() {
	if c.initialized {
		return
	}

	w := c.opts.LogWriter
	if c.host.Log != nil {
		w = util.NewHostLogWriter(c.host.Log)
	}
	c.root = util.NewLogger(c.opts.LogLevel, w)
	c.log = c.root.With().Str("component", "engine").Logger()

	c.store = c.loadSettings()
	settings := c.store.Get()

	c.dir = c.opts.Directory
	if c.dir == nil && settings.NetPlay.IndexServer != "" {
		dir, err := lobby.Open(settings.NetPlay.IndexServer)
		if err != nil {
			c.log.Warn().Err(err).Str("url", settings.NetPlay.IndexServer).Msg("engine: init: no room directory")
		} else {
			c.dir = dir
		}
	}
	c.catalog = lobby.NewCatalog(c.root, c.dir)
	c.rooms = c.catalog.BuildDisplayValues()

	factory := c.opts.Factory
	if factory == nil {
		factory = udpsession.Factory{Log: c.root}
	}
	c.netplay = netplay.NewOrchestrator(c.root, c.store, factory, c.catalog, c)

	c.classifier = cheats.NewClassifier(c.root, c.core)
	c.gate = boot.NewGate(c.root, c.core)
	c.gate.Booted = c.booted

	c.selectAudioSink()
	c.publishOptions(nil)
	c.applyOptions()

	c.initialized = true
	c.log.Info().Str("config", c.store.Path()).Msg("engine: initialized")
}

func (c *Context) loadSettings() *config.Store {
	if c.opts.ConfigPath == "" {
		return config.NewMemoryStore(c.root, config.Default())
	}

	store, err := config.Load(c.root, c.opts.ConfigPath)
	if err != nil {
		c.log.Error().Err(err).Str("path", c.opts.ConfigPath).Msg("engine: init: using default settings")
		return config.NewMemoryStore(c.root, config.Default())
	}
	return store
}

func (c *Context) selectAudioSink() {
	switch {
	case c.host.AudioBatch != nil:
		c.core.SetAudioSink(c.host.AudioBatch)
	case c.host.AudioSample != nil:
		c.core.SetAudioSink(sampleShim{c.host.AudioSample})
	default:
		c.core.SetAudioSink(nil)
	}
}

// Deinit tears down netplay and any loaded game, then resets all state.
func (c *Context) Deinit() {
	if !c.initialized {
		return
	}

	c.netplay.Shutdown()
	c.stopCore(true)

	c.gate.Close()
	c.gate.Reset()
	c.gate.NotifyContextReady(false)
	c.core.SetAudioSink(nil)
	c.cheats.Reset()
	c.setGame("", nil)

	if c.dir != nil && c.opts.Directory == nil {
		if err := c.dir.Close(); err != nil {
			c.log.Warn().Err(err).Msg("engine: deinit: close room directory")
		}
	}
	c.dir = nil
	c.catalog.Clear()

	c.rooms = nil
	c.status = ""
	c.hwRender = false
	c.stopRequests.Store(0)
	c.pendingPresent.Store(false)
	c.initialized = false

	c.log.Info().Msg("engine: deinitialized")
}

func (c *Context) IsInitialized() bool { return c.initialized }

// Settings returns the current persisted settings.
func (c *Context) Settings() config.Settings { return c.store.Get() }

func (c *Context) Netplay() *netplay.Orchestrator { return c.netplay }
func (c *Context) Catalog() *lobby.Catalog        { return c.catalog }
func (c *Context) BootState() boot.State          { return c.gate.State() }

// Status is the last message shown to the user.
func (c *Context) Status() string { return c.status }

func (c *Context) setStatus(msg string) {
	c.status = msg
	c.log.Info().Str("status", msg).Msg("engine: status")
	if c.host.Messages != nil {
		c.host.Messages.ShowMessage(msg, statusFrames)
	}
}
