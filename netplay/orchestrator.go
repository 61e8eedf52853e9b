package netplay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"dolphinretro/boot"
	"dolphinretro/config"
	"dolphinretro/gamefile"
	"dolphinretro/interfaces"
	"dolphinretro/lobby"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultRoomName = "NetPlay Session"

	refreshTimeout = 10 * time.Second
)

var (
	ErrConnectionFailed = errors.New("netplay connection failed")
	ErrSessionActive    = errors.New("netplay session already active")
	ErrNoGame           = errors.New("no valid game file loaded")
)

// PluginHost is the plugin the orchestrator drives. Game, Running and
// RequestStop may be called from session goroutines.
type PluginHost interface {
	// Game returns the path and identity of the game passed to loadGame.
	Game() (path string, game *gamefile.GameFile)
	// Running reports whether the core is running a game.
	Running() bool
	// RequestStop asks the tick thread to stop the running game. A remote
	// stop came from a peer and is not announced back to the session.
	RequestStop(remote bool)
	RequestBoot(req boot.Request) error
	Username() (string, bool)
	// RoomsRefreshed receives the lobby room choices after a refresh.
	RoomsRefreshed(values []string)
}

// Orchestrator owns the netplay session lifecycle. All methods except the
// session callbacks run on the tick thread.
type Orchestrator struct {
	log      zerolog.Logger
	store    *config.Store
	factory  Factory
	host     PluginHost
	catalog  *lobby.Catalog
	resolver *Resolver

	mode       SessionMode
	connection ConnectionMode
	room       string
	cache      map[string]string

	startRequested   atomic.Bool
	refreshRequested atomic.Bool
	teardownPending  bool

	mu             sync.Mutex
	id             string
	server         Server
	client         Client
	ui             *sessionUI
	negotiated     gamefile.SyncIdentifier
	negotiatedName string
	pendingBoot    *boot.Request
}

func NewOrchestrator(log zerolog.Logger, store *config.Store, factory Factory, catalog *lobby.Catalog, host PluginHost) *Orchestrator {
	log = log.With().Str("component", "netplay").Logger()
	return &Orchestrator{
		log:      log,
		store:    store,
		factory:  factory,
		host:     host,
		catalog:  catalog,
		resolver: NewResolver(log, store, catalog),
		cache:    make(map[string]string),
	}
}

func (o *Orchestrator) Mode() SessionMode              { return o.mode }
func (o *Orchestrator) Connection() ConnectionMode     { return o.connection }
func (o *Orchestrator) Catalog() *lobby.Catalog        { return o.catalog }
func (o *Orchestrator) SetMode(mode SessionMode)       { o.mode = mode }
func (o *Orchestrator) SetConnection(c ConnectionMode) { o.connection = c }
func (o *Orchestrator) SelectRoom(label string)        { o.room = label }

// Active reports whether a session server or client exists.
func (o *Orchestrator) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.server != nil || o.client != nil
}

func (o *Orchestrator) IsHosting() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.server != nil
}

// SessionID identifies the current session in logs; empty when idle.
func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.id
}

// NegotiatedGame is the game the session last agreed on.
func (o *Orchestrator) NegotiatedGame() (gamefile.SyncIdentifier, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.negotiated, o.negotiatedName
}

// changed records value for key and reports whether it differs from the
// previously seen value.
func (o *Orchestrator) changed(key, value string) bool {
	if prev, ok := o.cache[key]; ok && prev == value {
		return false
	}
	o.cache[key] = value
	return true
}

// ApplyOptions copies netplay options into the settings and acts on the
// toggles that changed since the previous call.
func (o *Orchestrator) ApplyOptions(src interfaces.OptionSource) {
	config.ApplyNetPlayOptions(o.log, o.store, src)

	if v, ok := src.GetVariable(config.KeyNetPlayConnection); ok {
		if c, err := ParseConnectionMode(v); err != nil {
			o.log.Warn().Err(err).Msg("config: option rejected")
		} else {
			o.connection = c
		}
	}
	if v, ok := src.GetVariable(config.KeyNetPlayLobbyRoom); ok {
		o.room = v
	}

	if v, ok := src.GetVariable(config.KeyNetPlayLobbyRefresh); ok && o.changed(config.KeyNetPlayLobbyRefresh, v) && v == config.Yes {
		o.refreshRequested.Store(true)
	}
	if v, ok := src.GetVariable(config.KeyNetPlayStart); ok && o.changed(config.KeyNetPlayStart, v) && v == config.Yes {
		o.requestStartGame()
	}

	if v, ok := src.GetVariable(config.KeyNetPlayMode); ok {
		m, err := ParseSessionMode(v)
		if err != nil {
			o.log.Warn().Err(err).Msg("config: option rejected")
			return
		}
		o.mode = m
		if o.changed(config.KeyNetPlayMode, v) && m == Disabled && o.Active() {
			o.StopSession()
		}
	}
}

func (o *Orchestrator) requestStartGame() {
	o.mu.Lock()
	server := o.server
	o.mu.Unlock()

	if server == nil {
		o.log.Warn().Msg("netplay: start: only the host can start the game")
		return
	}
	if !server.RequestStartGame() {
		o.log.Warn().Msg("netplay: start: server refused to start the game")
	}
}

// StartSession hosts or joins a session. On failure nothing is left running.
func (o *Orchestrator) StartSession(mode SessionMode) error {
	if o.Active() {
		o.log.Warn().Str("mode", mode.String()).Str("session", o.SessionID()).Msg("netplay: start session: session already active")
		return ErrSessionActive
	}

	switch mode {
	case Host:
		return o.startHost()
	case Join:
		return o.startJoin()
	}
	return fmt.Errorf("netplay: start session: mode %s: %w", mode, config.ErrInvalidValue)
}

func (o *Orchestrator) traversalChoice(traversal bool) {
	choice := config.TraversalChoiceDirect
	if traversal {
		choice = config.TraversalChoiceTraversal
	}
	o.store.UpdateAndSave(func(s *config.Settings) {
		s.NetPlay.TraversalChoice = choice
	})
}

func (o *Orchestrator) nickname(np config.NetPlaySettings) string {
	if name, ok := o.host.Username(); ok && name != "" {
		return name
	}
	return np.Nickname
}

func (o *Orchestrator) startHost() error {
	path, game := o.host.Game()
	if path == "" || !game.IsValid() {
		o.log.Warn().Str("path", path).Msg("netplay: host: no valid game file loaded")
		return ErrNoGame
	}

	traversal := o.connection == Traversal
	o.traversalChoice(traversal)
	np := o.store.Get().NetPlay

	port := np.HostPort
	if traversal {
		port = np.ListenPort
	}

	roomName := np.IndexName
	if roomName == "" {
		roomName = game.NetPlayName()
	}
	if roomName == "" {
		roomName = DefaultRoomName
	}
	if np.UseIndex {
		o.store.UpdateAndSave(func(s *config.Settings) {
			s.NetPlay.IndexName = roomName
		})
	}

	id := uuid.NewString()
	log := o.log.With().Str("session", id).Logger()
	ui := &sessionUI{o: o, log: log}

	server, err := o.factory.NewServer(ServerConfig{
		Port:            port,
		UseRelay:        traversal,
		TraversalServer: np.TraversalServer,
		TraversalPort:   np.TraversalPort,
		UseUPnP:         np.UseUPnP,
		NetworkMode:     np.NetworkMode,
		BufferSize:      np.BufferSize,
		Advertise:       np.UseIndex,
		RoomName:        roomName,
		Region:          np.IndexRegion,
		Password:        np.IndexPassword,
		IndexServer:     np.IndexServer,
	}, ui)
	if err != nil {
		log.Error().Err(err).Msgf("netplay: host failed to listen on port %d", port)
		ui.release()
		return fmt.Errorf("%w: listen on port %d: %w", ErrConnectionFailed, port, err)
	}

	syncID := game.SyncIdentifier()
	o.mu.Lock()
	o.id = id
	o.server = server
	o.ui = ui
	o.negotiated = syncID
	o.negotiatedName = roomName
	o.mu.Unlock()

	// peers see the room name as the selected game's name
	if err = server.ChangeGame(syncID, roomName); err != nil {
		log.Warn().Err(err).Msg("netplay: host: could not announce game")
	}

	client, err := o.factory.NewClient(ClientConfig{
		Address:  "127.0.0.1",
		Port:     server.Port(),
		Nickname: o.nickname(np),
	}, ui)
	if err != nil {
		log.Error().Err(err).Uint16("port", server.Port()).Msg("netplay: host: local client failed to connect")
		o.shutdown()
		return fmt.Errorf("%w: local client: %w", ErrConnectionFailed, err)
	}

	o.mu.Lock()
	o.client = client
	o.mu.Unlock()
	o.mode = Host

	log.Info().
		Uint16("port", server.Port()).
		Bool("traversal", traversal).
		Str("room", roomName).
		Str("game", game.NetPlayName()).
		Msg("netplay: hosting")
	return nil
}

func (o *Orchestrator) startJoin() error {
	target, err := o.resolver.Resolve(o.connection, o.room)
	if err != nil {
		o.log.Warn().Err(err).Str("connection", o.connection.String()).Msg("netplay: join: no target")
		return err
	}

	o.traversalChoice(target.UseRelay)
	if target.UseRelay {
		o.store.UpdateAndSave(func(s *config.Settings) {
			s.NetPlay.HostCode = target.Address
		})
	}
	np := o.store.Get().NetPlay

	id := uuid.NewString()
	log := o.log.With().Str("session", id).Logger()
	ui := &sessionUI{o: o, log: log}

	o.mu.Lock()
	o.id = id
	o.ui = ui
	o.mu.Unlock()

	client, err := o.factory.NewClient(ClientConfig{
		Address:         target.Address,
		Port:            target.Port,
		UseRelay:        target.UseRelay,
		Nickname:        o.nickname(np),
		TraversalServer: np.TraversalServer,
		TraversalPort:   np.TraversalPort,
	}, ui)
	if err != nil {
		log.Error().Err(err).Str("address", target.Address).Uint16("port", target.Port).Msg("netplay: join failed to connect")
		o.shutdown()
		return fmt.Errorf("%w: connect to %s: %w", ErrConnectionFailed, target.Address, err)
	}

	o.mu.Lock()
	o.client = client
	o.mu.Unlock()
	o.mode = Join

	log.Info().
		Str("address", target.Address).
		Uint16("port", target.Port).
		Bool("traversal", target.UseRelay).
		Msg("netplay: joined")
	return nil
}

// StopSession stops the running game first, if any; the session is torn
// down by the tick that observes the core stopped.
func (o *Orchestrator) StopSession() {
	if !o.Active() {
		o.teardownPending = false
		return
	}
	if o.host.Running() {
		if !o.teardownPending {
			o.teardownPending = true
			o.host.RequestStop(false)
			o.log.Info().Str("session", o.SessionID()).Msg("netplay: stop session: stopping game first")
		}
		return
	}
	o.shutdown()
}

// Shutdown tears the session down immediately.
func (o *Orchestrator) Shutdown() {
	o.shutdown()
}

func (o *Orchestrator) shutdown() {
	o.mu.Lock()
	id, client, server, ui := o.id, o.client, o.server, o.ui
	o.id = ""
	o.client = nil
	o.server = nil
	o.ui = nil
	o.negotiated = gamefile.SyncIdentifier{}
	o.negotiatedName = ""
	o.pendingBoot = nil
	o.mu.Unlock()

	o.startRequested.Store(false)
	o.teardownPending = false

	// client before server, both before the callback sink they share
	if client != nil {
		if err := client.Close(); err != nil {
			o.log.Warn().Err(err).Str("session", id).Msg("netplay: shutdown: client close")
		}
	}
	if server != nil {
		if err := server.Close(); err != nil {
			o.log.Warn().Err(err).Str("session", id).Msg("netplay: shutdown: server close")
		}
	}
	if ui != nil {
		ui.release()
	}

	if id != "" {
		o.log.Info().Str("session", id).Msg("netplay: session ended")
	}
}

// Tick runs once per host tick after options were applied.
func (o *Orchestrator) Tick() {
	if o.startRequested.Swap(false) {
		o.startNetPlayGame()
	}

	if o.Active() && (o.teardownPending || o.mode == Disabled) {
		o.StopSession()
	}

	// blocks the tick for up to refreshTimeout while the directory answers
	if o.refreshRequested.Swap(false) {
		if err := o.RefreshRooms(context.Background()); err != nil {
			o.log.Warn().Err(err).Msg("netplay: lobby refresh failed")
		}
	}

	o.mu.Lock()
	req := o.pendingBoot
	o.pendingBoot = nil
	o.mu.Unlock()

	if req != nil {
		if o.host.Running() {
			o.log.Warn().Str("path", req.Path).Msg("netplay: boot: game already running")
		} else if err := o.host.RequestBoot(*req); err != nil {
			o.log.Error().Err(err).Str("path", req.Path).Msg("netplay: boot failed")
		}
	}
}

// startNetPlayGame starts the loaded game on the session client when it is
// the game the session negotiated.
func (o *Orchestrator) startNetPlayGame() {
	o.mu.Lock()
	client, negotiated := o.client, o.negotiated
	o.mu.Unlock()

	if client == nil || o.host.Running() {
		return
	}

	path, game := o.host.Game()
	if path == "" || !game.IsValid() {
		o.log.Warn().Msg("netplay: start: no valid game file loaded")
		return
	}

	if !negotiated.IsZero() {
		if cmp := game.SyncIdentifier().Compare(negotiated); cmp != gamefile.SameGame {
			o.log.Warn().
				Stringer("comparison", cmp).
				Stringer("loaded", game.SyncIdentifier()).
				Stringer("negotiated", negotiated).
				Msg("netplay: start: game mismatch")
			return
		}
	}

	if !client.StartGame(path) {
		o.log.Warn().Str("path", path).Msg("netplay: start: client refused to start the game")
	}
}

// RefreshRooms fetches the lobby rooms for the configured region and hands
// the new room choices to the host.
func (o *Orchestrator) RefreshRooms(ctx context.Context) error {
	if o.catalog == nil {
		return lobby.ErrNoDirectory
	}

	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	if err := o.catalog.Refresh(ctx, o.store.Get().NetPlay.IndexRegion); err != nil {
		return err
	}
	o.host.RoomsRefreshed(o.catalog.BuildDisplayValues())
	return nil
}

// GameStopped tells the session the local game stopped.
func (o *Orchestrator) GameStopped() {
	o.mu.Lock()
	client := o.client
	o.mu.Unlock()
	if client != nil {
		client.StopGame()
	}
}
