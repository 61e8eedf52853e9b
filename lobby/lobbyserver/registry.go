package lobbyserver

import (
	"context"
	"sync"
	"time"

	"dolphinretro/lobby"

	"github.com/google/uuid"
)

// DefaultTTL is how long an advertised session stays listed without being re-added.
const DefaultTTL = 2 * time.Minute

type entry struct {
	session lobby.Session
	seen    time.Time
}

// Registry is the in-memory set of advertised sessions behind a lobby server.
type Registry struct {
	TTL time.Duration
	Now func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{
		TTL:     DefaultTTL,
		Now:     time.Now,
		entries: make(map[string]*entry),
	}
}

func (r *Registry) List(ctx context.Context, filters map[string]string) ([]lobby.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep()

	list := make([]lobby.Session, 0, len(r.order))
	for _, id := range r.order {
		s := r.entries[id].session
		if lobby.Matches(s, filters) {
			list = append(list, s)
		}
	}
	return list, nil
}

func (r *Registry) Add(_ context.Context, s lobby.Session) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	r.entries[id] = &entry{session: s, seen: r.Now()}
	r.order = append(r.order, id)
	return id, nil
}

// Touch keeps the session with the given secret listed for another TTL.
func (r *Registry) Touch(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if ok {
		e.seen = r.Now()
	}
	return ok
}

func (r *Registry) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return lobby.ErrRoomNotFound
	}
	r.remove(id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep()
	return len(r.order)
}

func (r *Registry) Close() error { return nil }

func (r *Registry) remove(id string) {
	delete(r.entries, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// sweep drops expired sessions; mu must be held.
func (r *Registry) sweep() {
	if r.TTL <= 0 {
		return
	}
	deadline := r.Now().Add(-r.TTL)
	for i := 0; i < len(r.order); {
		id := r.order[i]
		if r.entries[id].seen.Before(deadline) {
			r.remove(id)
			continue
		}
		i++
	}
}
