package netplay

import (
	"sync/atomic"

	"dolphinretro/boot"
	"dolphinretro/emucore"
	"dolphinretro/gamefile"

	"github.com/rs/zerolog"
)

// sessionUI is the callback sink shared by one session's server and client.
// Once released it ignores every callback.
type sessionUI struct {
	o   *Orchestrator
	log zerolog.Logger

	released atomic.Bool
}

func (u *sessionUI) release() {
	u.released.Store(true)
}

func (u *sessionUI) live() bool {
	return !u.released.Load()
}

func (u *sessionUI) BootGame(path string, session *emucore.BootSession) {
	if !u.live() {
		return
	}
	if u.o.host.Running() {
		u.log.Warn().Str("path", path).Msg("netplay: boot game: a game is already running")
		return
	}

	u.o.mu.Lock()
	u.o.pendingBoot = &boot.Request{Path: path, Session: session, IsNetPlay: true}
	u.o.mu.Unlock()
	u.log.Info().Str("path", path).Msg("netplay: boot game: queued")
}

func (u *sessionUI) StopGame() {
	if !u.live() {
		return
	}
	u.o.host.RequestStop(true)
}

func (u *sessionUI) IsHosting() bool {
	if !u.live() {
		return false
	}
	return u.o.IsHosting()
}

func (u *sessionUI) FindGameFile(id gamefile.SyncIdentifier) *gamefile.GameFile {
	_, game := u.o.host.Game()
	if !game.IsValid() || game.SyncIdentifier().Compare(id) != gamefile.SameGame {
		return nil
	}
	return game
}

func (u *sessionUI) OnMsgChangeGame(id gamefile.SyncIdentifier, name string) {
	if !u.live() {
		return
	}
	u.o.mu.Lock()
	u.o.negotiated = id
	u.o.negotiatedName = name
	u.o.mu.Unlock()
	u.log.Info().Str("game", name).Stringer("id", id).Msg("netplay: game changed")
}

func (u *sessionUI) OnMsgStartGame() {
	if !u.live() {
		return
	}
	u.o.startRequested.Store(true)
}

func (u *sessionUI) OnMsgStopGame() {
	u.StopGame()
}

func (u *sessionUI) AppendChat(msg string) {
	u.log.Info().Str("msg", msg).Msg("netplay: chat")
}

func (u *sessionUI) OnPlayerConnect(name string) {
	u.log.Info().Str("player", name).Msg("netplay: player connected")
}

func (u *sessionUI) OnPlayerDisconnect(name string) {
	u.log.Info().Str("player", name).Msg("netplay: player disconnected")
}

func (u *sessionUI) OnPadBufferChanged(buffer uint32) {
	u.log.Info().Uint32("buffer", buffer).Msg("netplay: pad buffer changed")
}

func (u *sessionUI) OnHostInputAuthorityChanged(enabled bool) {
	u.log.Info().Bool("enabled", enabled).Msg("netplay: host input authority changed")
}

func (u *sessionUI) OnConnectionLost() {
	u.log.Warn().Msg("netplay: connection lost")
}

func (u *sessionUI) OnConnectionError(message string) {
	u.log.Error().Str("error", message).Msg("netplay: connection error")
}

func (u *sessionUI) OnDesync(frame uint32, player string) {
	u.log.Warn().Uint32("frame", frame).Str("player", player).Msg("netplay: possible desync")
}

func (u *sessionUI) OnGolferChanged(isGolfer bool, golfer string) {
	if golfer == "" {
		return
	}
	u.log.Info().Bool("local", isGolfer).Str("golfer", golfer).Msg("netplay: golfer changed")
}

func (u *sessionUI) OnTTLDetermined(ttl uint8) {
	u.log.Info().Uint8("ttl", ttl).Msg("netplay: ttl determined")
}

func (u *sessionUI) OnTraversalError(err error) {
	u.log.Error().Err(err).Msg("netplay: traversal error")
}

func (u *sessionUI) OnIndexAddFailed(err error) {
	u.log.Warn().Err(err).Msg("netplay: failed to add session to the index")
}

func (u *sessionUI) OnIndexRefreshFailed(err error) {
	u.log.Warn().Err(err).Msg("netplay: failed to refresh session on the index")
}
