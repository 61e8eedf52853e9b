package udpsession

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"dolphinretro/emucore"
	"dolphinretro/netplay"
	"dolphinretro/util"

	"github.com/rs/zerolog"
)

// DefaultHandshakeTimeout bounds how long Dial waits for the server's welcome.
const DefaultHandshakeTimeout = 3 * time.Second

var ErrNotConnected = errors.New("udpsession: not connected")

// Client is a netplay session client on a connected UDP socket.
type Client struct {
	log  zerolog.Logger
	ui   netplay.UI
	name string

	conn      *net.UDPConn
	connected atomic.Bool

	mu   sync.Mutex
	game game

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Dial connects to the server at cfg.Address:cfg.Port and completes the
// hello/welcome handshake within timeout.
func Dial(log zerolog.Logger, cfg netplay.ClientConfig, ui netplay.UI, timeout time.Duration) (*Client, error) {
	log = log.With().Str("component", "udpsession").Str("role", "client").Logger()
	if cfg.UseRelay {
		ui.OnTraversalError(ErrRelayUnsupported)
		return nil, ErrRelayUnsupported
	}
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}

	hostport := net.JoinHostPort(cfg.Address, strconv.Itoa(int(cfg.Port)))
	raddr, err := net.ResolveUDPAddr("udp", hostport)
	if err != nil {
		return nil, fmt.Errorf("udpsession: resolve %s: %w", hostport, err)
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("udpsession: dial %s: %w", hostport, err)
	}

	c := &Client{
		log:  log,
		ui:   ui,
		name: cfg.Nickname,
		conn: conn,
	}

	w, err := c.handshake(timeout)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("udpsession: handshake with %s: %w", hostport, err)
	}
	c.connected.Store(true)
	log.Info().Str("server", hostport).Str("nickname", c.name).Msg("udpsession: connected")

	ui.OnPadBufferChanged(w.BufferSize)
	ui.OnHostInputAuthorityChanged(w.NetworkMode == "hostinputauthority")
	if !w.Game.isZero() {
		c.setGame(w.Game)
	}

	c.wg.Add(1)
	go c.readLoop()
	return c, nil
}

func (c *Client) handshake(timeout time.Duration) (w welcome, err error) {
	buf := makePacket(KindHello)
	writeString(buf, c.name)
	if _, err = c.conn.Write(buf.Bytes()); err != nil {
		return
	}

	if err = c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return
	}
	defer func() { _ = c.conn.SetReadDeadline(time.Time{}) }()

	b := make([]byte, maxPacket)
	for {
		var n int
		if n, err = c.conn.Read(b); err != nil {
			return
		}

		kind, r, perr := parsePacket(b[:n])
		if perr != nil || kind != KindWelcome {
			continue
		}
		return readWelcome(r)
	}
}

func (c *Client) setGame(g game) {
	c.mu.Lock()
	c.game = g
	c.mu.Unlock()
	c.ui.OnMsgChangeGame(g.ID, g.Name)
}

func (c *Client) Game() (name string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.game.Name, !c.game.isZero()
}

func (c *Client) IsConnected() bool { return c.connected.Load() }

// StartGame boots the local file at path when it holds the negotiated game.
func (c *Client) StartGame(path string) bool {
	if !c.connected.Load() {
		return false
	}

	c.mu.Lock()
	g := c.game
	c.mu.Unlock()

	if !g.isZero() && c.ui.FindGameFile(g.ID) == nil {
		c.log.Warn().Str("game", g.Name).Msg("udpsession: start game: game file not found")
		return false
	}

	data := &bytes.Buffer{}
	writeGame(data, g)
	c.ui.BootGame(path, &emucore.BootSession{
		ID:   c.conn.RemoteAddr().String(),
		Data: data.Bytes(),
	})
	return true
}

func (c *Client) StopGame() bool {
	return c.write(makePacket(KindStopGame).Bytes()) == nil
}

func (c *Client) SendChat(msg string) error {
	buf := makePacket(KindChat)
	writeString(buf, msg)
	return c.write(buf.Bytes())
}

func (c *Client) write(b []byte) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	_, err := c.conn.Write(b)
	return err
}

// must run in a goroutine
func (c *Client) readLoop() {
	defer c.wg.Done()
	defer func() {
		if err := recover(); err != nil {
			util.LogPanic(c.log, err)
		}
	}()
	defer c.connected.Store(false)

	b := make([]byte, maxPacket)
	for {
		n, err := c.conn.Read(b)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				c.log.Error().Err(err).Msg("udpsession: read failed")
				c.ui.OnConnectionError(err.Error())
			}
			return
		}

		kind, r, err := parsePacket(b[:n])
		if err != nil {
			c.log.Debug().Err(err).Msg("udpsession: dropped packet")
			continue
		}

		switch kind {
		case KindChangeGame:
			g, err := readGame(r)
			if err != nil {
				continue
			}
			c.setGame(g)
		case KindStartGame:
			c.ui.OnMsgStartGame()
		case KindStopGame:
			c.ui.OnMsgStopGame()
		case KindChat:
			if msg, err := readString(r); err == nil {
				c.ui.AppendChat(msg)
			}
		case KindBye:
			c.log.Info().Msg("udpsession: server closed the session")
			c.ui.OnConnectionLost()
			return
		case KindWelcome:
		default:
			c.log.Debug().Stringer("kind", kind).Msg("udpsession: unexpected packet")
		}
	}
}

// Close says goodbye to the server and waits for the read loop to exit.
func (c *Client) Close() (err error) {
	c.closeOnce.Do(func() {
		if c.connected.Load() {
			_ = c.write(makePacket(KindBye).Bytes())
		}
		c.connected.Store(false)
		err = c.conn.Close()
		c.wg.Wait()
	})
	return
}
