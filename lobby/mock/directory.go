package mock

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"dolphinretro/lobby"

	"github.com/google/uuid"
)

const driverName = "mock"

var ErrClosed = errors.New("mock directory closed")

// Directory is an in-memory room directory.
type Directory struct {
	// Err, when set, is returned by List.
	Err error

	mu       sync.Mutex
	sessions map[string]lobby.Session
	order    []string
	lists    int
	filters  []map[string]string
	closed   bool
}

func NewDirectory(sessions ...lobby.Session) *Directory {
	d := &Directory{sessions: make(map[string]lobby.Session)}
	for _, s := range sessions {
		_, _ = d.Add(context.Background(), s)
	}
	return d
}

func (d *Directory) List(ctx context.Context, filters map[string]string) ([]lobby.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.lists++
	d.filters = append(d.filters, filters)
	if d.Err != nil {
		return nil, d.Err
	}
	if d.closed {
		return nil, ErrClosed
	}

	list := make([]lobby.Session, 0, len(d.order))
	for _, id := range d.order {
		s := d.sessions[id]
		if lobby.Matches(s, filters) {
			list = append(list, s)
		}
	}
	return list, nil
}

func (d *Directory) Add(_ context.Context, s lobby.Session) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := uuid.NewString()
	d.sessions[id] = s
	d.order = append(d.order, id)
	return id, nil
}

func (d *Directory) Remove(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.sessions[id]; !ok {
		return lobby.ErrRoomNotFound
	}
	delete(d.sessions, id)
	for i, o := range d.order {
		if o == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetErr makes subsequent List calls fail with err.
func (d *Directory) SetErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Err = err
}

// Lists returns how many times List was called and the filters of the last call.
func (d *Directory) Lists() (int, map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.filters) == 0 {
		return d.lists, nil
	}
	return d.lists, d.filters[len(d.filters)-1]
}

func (d *Directory) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Directory) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Driver hands out one shared directory per URL host, so that "mock://lan"
// reaches the same rooms from anywhere in the process.
type Driver struct {
	mu   sync.Mutex
	dirs map[string]*Directory
}

// handle is a shared directory as returned by Open; closing it leaves the
// shared rooms in place.
type handle struct {
	*Directory
}

func (handle) Close() error { return nil }

func (drv *Driver) Open(u *url.URL) (lobby.Directory, error) {
	return handle{drv.Shared(u.Host)}, nil
}

func (drv *Driver) Shared(name string) *Directory {
	drv.mu.Lock()
	defer drv.mu.Unlock()
	if drv.dirs == nil {
		drv.dirs = make(map[string]*Directory)
	}
	d, ok := drv.dirs[name]
	if !ok || d.isClosed() {
		d = NewDirectory()
		drv.dirs[name] = d
	}
	return d
}

var Default = &Driver{}

func init() {
	lobby.Register(driverName, Default)
}
