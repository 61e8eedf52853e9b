package netplay

import (
	"dolphinretro/emucore"
	"dolphinretro/gamefile"
)

// Server is a running netplay session server.
type Server interface {
	// Port is the port the server is bound to.
	Port() uint16
	ChangeGame(id gamefile.SyncIdentifier, name string) error
	// RequestStartGame asks every connected player to start the selected game.
	RequestStartGame() bool
	Close() error
}

// Client is a player connected to a netplay server.
type Client interface {
	IsConnected() bool
	// StartGame starts the negotiated game from the local file at path.
	StartGame(path string) bool
	// StopGame tells the server the local game stopped.
	StopGame() bool
	Close() error
}

type ServerConfig struct {
	Port     uint16
	UseRelay bool

	TraversalServer string
	TraversalPort   uint16
	UseUPnP         bool

	NetworkMode string
	BufferSize  uint32

	// Advertise publishes the room to IndexServer under RoomName.
	Advertise   bool
	RoomName    string
	Region      string
	Password    string
	IndexServer string
}

type ClientConfig struct {
	Address  string
	Port     uint16
	UseRelay bool
	Nickname string

	TraversalServer string
	TraversalPort   uint16
}

// Factory creates session servers and clients. Both report to ui until they
// are closed.
type Factory interface {
	NewServer(cfg ServerConfig, ui UI) (Server, error)
	NewClient(cfg ClientConfig, ui UI) (Client, error)
}

// UI receives session events. Methods are called from the session's own
// goroutines.
type UI interface {
	BootGame(path string, session *emucore.BootSession)
	StopGame()
	IsHosting() bool
	FindGameFile(id gamefile.SyncIdentifier) *gamefile.GameFile

	OnMsgChangeGame(id gamefile.SyncIdentifier, name string)
	OnMsgStartGame()
	OnMsgStopGame()

	AppendChat(msg string)
	OnPlayerConnect(name string)
	OnPlayerDisconnect(name string)
	OnPadBufferChanged(buffer uint32)
	OnHostInputAuthorityChanged(enabled bool)
	OnConnectionLost()
	OnConnectionError(message string)
	OnDesync(frame uint32, player string)
	OnGolferChanged(isGolfer bool, golfer string)
	OnTTLDetermined(ttl uint8)
	OnTraversalError(err error)
	OnIndexAddFailed(err error)
	OnIndexRefreshFailed(err error)
}
