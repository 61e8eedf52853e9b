package udpsession

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"dolphinretro/gamefile"
	"dolphinretro/lobby"
	"dolphinretro/netplay"
	"dolphinretro/util"

	"github.com/rs/zerolog"
)

var ErrRelayUnsupported = errors.New("udpsession: traversal relay is not supported")

const (
	indexTimeout   = 5 * time.Second
	indexKeepAlive = 30 * time.Second
)

type peer struct {
	addr *net.UDPAddr
	name string
}

// Server is a netplay session server on a UDP socket.
type Server struct {
	log zerolog.Logger
	ui  netplay.UI
	cfg netplay.ServerConfig

	conn *net.UDPConn
	port uint16

	mu      sync.Mutex
	peers   map[string]*peer
	game    game
	dir     lobby.Directory
	secret  string
	closed  bool
	stopped chan struct{}

	wg sync.WaitGroup
}

// Listen binds cfg.Port on all interfaces; port 0 picks an ephemeral port.
func Listen(log zerolog.Logger, cfg netplay.ServerConfig, ui netplay.UI) (*Server, error) {
	log = log.With().Str("component", "udpsession").Str("role", "server").Logger()
	if cfg.UseRelay {
		ui.OnTraversalError(ErrRelayUnsupported)
		return nil, ErrRelayUnsupported
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(cfg.Port)})
	if err != nil {
		return nil, fmt.Errorf("udpsession: listen on port %d: %w", cfg.Port, err)
	}

	s := &Server{
		log:     log,
		ui:      ui,
		cfg:     cfg,
		conn:    conn,
		port:    uint16(conn.LocalAddr().(*net.UDPAddr).Port),
		peers:   make(map[string]*peer),
		stopped: make(chan struct{}),
	}
	log.Info().Uint16("port", s.port).Msg("udpsession: listening")

	s.wg.Add(1)
	go s.readLoop()
	return s, nil
}

func (s *Server) Port() uint16 { return s.port }

func (s *Server) Players() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.peers))
	for _, p := range s.peers {
		names = append(names, p.name)
	}
	return names
}

func (s *Server) ChangeGame(id gamefile.SyncIdentifier, name string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return net.ErrClosed
	}
	s.game = game{ID: id, Name: name}
	advertise := s.cfg.Advertise && s.dir == nil
	s.mu.Unlock()

	buf := makePacket(KindChangeGame)
	writeGame(buf, game{ID: id, Name: name})
	s.broadcast(buf.Bytes(), nil)

	if advertise {
		s.advertise(id)
	}
	return nil
}

func (s *Server) RequestStartGame() bool {
	s.mu.Lock()
	ready := !s.closed && !s.game.isZero() && len(s.peers) > 0
	s.mu.Unlock()
	if !ready {
		return false
	}

	s.broadcast(makePacket(KindStartGame).Bytes(), nil)
	return true
}

func (s *Server) send(b []byte, addr *net.UDPAddr) {
	if _, err := s.conn.WriteToUDP(b, addr); err != nil && !errors.Is(err, net.ErrClosed) {
		s.log.Debug().Err(err).Stringer("peer", addr).Msg("udpsession: send failed")
	}
}

// broadcast sends b to every peer except skip.
func (s *Server) broadcast(b []byte, skip *net.UDPAddr) {
	s.mu.Lock()
	addrs := make([]*net.UDPAddr, 0, len(s.peers))
	for _, p := range s.peers {
		if skip != nil && p.addr.String() == skip.String() {
			continue
		}
		addrs = append(addrs, p.addr)
	}
	s.mu.Unlock()

	for _, addr := range addrs {
		s.send(b, addr)
	}
}

// must run in a goroutine
func (s *Server) readLoop() {
	defer s.wg.Done()
	defer func() {
		if err := recover(); err != nil {
			util.LogPanic(s.log, err)
		}
	}()

	b := make([]byte, maxPacket)
	for {
		n, addr, err := s.conn.ReadFromUDP(b)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.log.Error().Err(err).Msg("udpsession: read failed")
				s.ui.OnConnectionError(err.Error())
			}
			return
		}

		kind, r, err := parsePacket(b[:n])
		if err != nil {
			s.log.Debug().Err(err).Stringer("peer", addr).Msg("udpsession: dropped packet")
			continue
		}
		s.handle(kind, r, addr)
	}
}

func (s *Server) handle(kind Kind, r *bytes.Reader, addr *net.UDPAddr) {
	key := addr.String()

	switch kind {
	case KindHello:
		name, err := readString(r)
		if err != nil {
			return
		}
		s.mu.Lock()
		_, known := s.peers[key]
		s.peers[key] = &peer{addr: addr, name: name}
		w := welcome{BufferSize: s.cfg.BufferSize, NetworkMode: s.cfg.NetworkMode, Game: s.game}
		s.mu.Unlock()

		buf := makePacket(KindWelcome)
		writeWelcome(buf, w)
		s.send(buf.Bytes(), addr)
		if !known {
			s.ui.OnPlayerConnect(name)
		}

	case KindChat:
		msg, err := readString(r)
		if err != nil {
			return
		}
		name := s.peerName(key)
		s.ui.AppendChat(name + ": " + msg)
		buf := makePacket(KindChat)
		writeString(buf, name+": "+msg)
		s.broadcast(buf.Bytes(), addr)

	case KindStopGame:
		if s.peerName(key) == "" {
			return
		}
		s.broadcast(makePacket(KindStopGame).Bytes(), addr)

	case KindBye:
		s.mu.Lock()
		p, ok := s.peers[key]
		delete(s.peers, key)
		s.mu.Unlock()
		if ok {
			s.ui.OnPlayerDisconnect(p.name)
		}

	default:
		s.log.Debug().Stringer("kind", kind).Stringer("peer", addr).Msg("udpsession: unexpected packet")
	}
}

func (s *Server) peerName(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.peers[key]; ok {
		return p.name
	}
	return ""
}

func (s *Server) advertise(id gamefile.SyncIdentifier) {
	dir, err := lobby.Open(s.cfg.IndexServer)
	if err != nil {
		s.ui.OnIndexAddFailed(err)
		return
	}
	adv, ok := dir.(lobby.Advertiser)
	if !ok {
		_ = dir.Close()
		s.ui.OnIndexAddFailed(fmt.Errorf("udpsession: directory %s does not accept rooms", s.cfg.IndexServer))
		return
	}

	serverID := hostAddress()
	if s.cfg.Password != "" {
		if serverID, err = lobby.EncryptID(serverID, s.cfg.Password); err != nil {
			_ = dir.Close()
			s.ui.OnIndexAddFailed(err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()
	secret, err := adv.Add(ctx, lobby.Session{
		Name:        s.cfg.RoomName,
		Region:      s.cfg.Region,
		GameID:      id.GameID,
		ServerID:    serverID,
		Method:      lobby.MethodDirect,
		Port:        int(s.port),
		PlayerCount: 1,
		HasPassword: s.cfg.Password != "",
	})
	if err != nil {
		_ = dir.Close()
		s.ui.OnIndexAddFailed(err)
		return
	}

	s.mu.Lock()
	s.dir = dir
	s.secret = secret
	s.mu.Unlock()
	s.log.Info().Str("room", s.cfg.RoomName).Str("index", s.cfg.IndexServer).Msg("udpsession: advertised")

	if ka, ok := dir.(lobby.KeepAliver); ok {
		s.wg.Add(1)
		go s.keepAlive(ka, secret)
	}
}

// must run in a goroutine
func (s *Server) keepAlive(ka lobby.KeepAliver, secret string) {
	defer s.wg.Done()

	t := time.NewTicker(indexKeepAlive)
	defer t.Stop()
	for {
		select {
		case <-s.stopped:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
			err := ka.KeepAlive(ctx, secret)
			cancel()
			if err != nil {
				s.ui.OnIndexRefreshFailed(err)
			}
		}
	}
}

// hostAddress returns the first non-loopback IPv4 address of this machine.
func hostAddress() string {
	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return "127.0.0.1"
}

// Close says goodbye to every peer, withdraws the room from the index and
// releases the port.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	dir, secret := s.dir, s.secret
	s.dir = nil
	s.mu.Unlock()

	s.broadcast(makePacket(KindBye).Bytes(), nil)
	close(s.stopped)
	err := s.conn.Close()
	s.wg.Wait()

	if dir != nil {
		if adv, ok := dir.(lobby.Advertiser); ok {
			ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
			if rerr := adv.Remove(ctx, secret); rerr != nil {
				s.log.Warn().Err(rerr).Msg("udpsession: could not withdraw room")
			}
			cancel()
		}
		_ = dir.Close()
	}

	s.log.Info().Uint16("port", s.port).Msg("udpsession: closed")
	return err
}
