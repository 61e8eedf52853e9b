package wsdir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"dolphinretro/lobby"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

const defaultPath = "/v0/ws"

var ErrClosed = errors.New("wsdir: directory closed")

// Directory keeps one websocket to a lobby server open and issues directory
// requests over it. A broken socket is redialed on the next request.
type Directory struct {
	urlstr string

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

func NewDirectory(urlstr string) *Directory {
	return &Directory{urlstr: urlstr}
}

func (d *Directory) dial(ctx context.Context) (err error) {
	conn, br, _, err := ws.Dial(ctx, d.urlstr)
	if err != nil {
		return fmt.Errorf("wsdir: dial %s: %w", d.urlstr, err)
	}
	if br != nil {
		ws.PutReader(br)
	}
	d.conn = conn
	return nil
}

func (d *Directory) drop() {
	if d.conn != nil {
		_ = d.conn.Close()
		d.conn = nil
	}
}

func (d *Directory) roundTrip(ctx context.Context, req lobby.Request) (rsp lobby.Response, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		err = ErrClosed
		return
	}
	if d.conn == nil {
		if err = d.dial(ctx); err != nil {
			return
		}
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = d.conn.SetDeadline(deadline)
	} else {
		_ = d.conn.SetDeadline(time.Time{})
	}

	b, err := json.Marshal(req)
	if err != nil {
		return
	}
	if err = wsutil.WriteClientMessage(d.conn, ws.OpText, b); err != nil {
		d.drop()
		err = fmt.Errorf("wsdir: %s request: %w", req.Op, err)
		return
	}

	msg, _, err := wsutil.ReadServerData(d.conn)
	if err != nil {
		d.drop()
		err = fmt.Errorf("wsdir: %s response: %w", req.Op, err)
		return
	}
	if err = json.Unmarshal(msg, &rsp); err != nil {
		err = fmt.Errorf("wsdir: %s response: decode: %w", req.Op, err)
		return
	}
	err = rsp.Err()
	return
}

func (d *Directory) List(ctx context.Context, filters map[string]string) ([]lobby.Session, error) {
	rsp, err := d.roundTrip(ctx, lobby.Request{Op: lobby.OpList, Filters: filters})
	if err != nil {
		return nil, err
	}
	return rsp.Sessions, nil
}

func (d *Directory) Add(ctx context.Context, s lobby.Session) (string, error) {
	rsp, err := d.roundTrip(ctx, lobby.Request{Op: lobby.OpAdd, Session: &s})
	if err != nil {
		return "", err
	}
	return rsp.Secret, nil
}

func (d *Directory) Remove(ctx context.Context, id string) error {
	_, err := d.roundTrip(ctx, lobby.Request{Op: lobby.OpRemove, Secret: id})
	return err
}

func (d *Directory) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.drop()
	return nil
}

type Driver struct{}

func (Driver) Open(u *url.URL) (lobby.Directory, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("wsdir: missing host in %q", u.String())
	}
	dst := *u
	if dst.Path == "" || dst.Path == "/" {
		dst.Path = defaultPath
	}
	return NewDirectory(dst.String()), nil
}

func init() {
	lobby.Register("ws", Driver{})
	lobby.Register("wss", Driver{})
}
