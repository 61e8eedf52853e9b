package lobby

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// MaxRooms bounds how many rooms are offered for selection.
const MaxRooms = 24

// ManualRoom is the room choice meaning "use the configured address".
const ManualRoom = "manual"

var (
	ErrRoomUnavailable = errors.New("room unavailable")
	ErrRoomNotSelected = fmt.Errorf("%w: lobby room not selected", ErrRoomUnavailable)
	ErrRoomNotFound    = fmt.Errorf("%w: lobby room not found", ErrRoomUnavailable)
	ErrNoDirectory     = errors.New("no room directory configured")

	labelReplacer = strings.NewReplacer("|", "/", ";", "/", "\n", " ", "\r", " ")
)

// Sanitize replaces the characters reserved by the host option grammar.
func Sanitize(s string) string {
	return labelReplacer.Replace(s)
}

// Label renders the display label of the room at rank (0-based).
func Label(rank int, s Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d: %s", rank+1, s.Name)
	if s.GameID != "" {
		fmt.Fprintf(&b, " (%s)", s.GameID)
	}
	fmt.Fprintf(&b, " [%d]", s.PlayerCount)
	if s.HasPassword {
		b.WriteString(" P")
	}
	if s.InGame {
		b.WriteString(" InGame")
	}
	return Sanitize(b.String())
}

// Catalog holds the last room list fetched from a directory together with
// the label lookup built from it. It is safe for concurrent use.
type Catalog struct {
	log zerolog.Logger

	mu     sync.Mutex
	dir    Directory
	rooms  []Session
	labels map[string]int
	values []string
}

func NewCatalog(log zerolog.Logger, dir Directory) *Catalog {
	c := &Catalog{
		log: log.With().Str("component", "lobby").Logger(),
		dir: dir,
	}
	c.rebuild()
	return c
}

func (c *Catalog) SetDirectory(dir Directory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dir = dir
}

// Refresh replaces the catalog with the directory's rooms for region. On
// failure the current catalog is kept.
func (c *Catalog) Refresh(ctx context.Context, region string) error {
	c.mu.Lock()
	dir := c.dir
	c.mu.Unlock()

	if dir == nil {
		c.log.Warn().Msg("lobby: refresh: no room directory configured")
		return ErrNoDirectory
	}

	filters := map[string]string{}
	if region != "" {
		filters["region"] = region
	}

	rooms, err := dir.List(ctx, filters)
	if err != nil {
		c.log.Warn().Err(err).Str("region", region).Msg("lobby: refresh failed")
		return fmt.Errorf("lobby: refresh: %w", err)
	}

	c.mu.Lock()
	c.rooms = rooms
	c.rebuild()
	c.mu.Unlock()

	c.log.Info().Int("rooms", len(rooms)).Str("region", region).Msg("lobby: refreshed rooms")
	return nil
}

// rebuild must be called with mu held.
func (c *Catalog) rebuild() {
	c.labels = make(map[string]int)
	c.values = []string{ManualRoom}
	for i, room := range c.rooms {
		if i >= MaxRooms {
			break
		}
		label := Label(i, room)
		c.labels[label] = i
		c.values = append(c.values, label)
	}
}

// BuildDisplayValues returns "manual" followed by the label of each offered room.
func (c *Catalog) BuildDisplayValues() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebuild()
	return append([]string(nil), c.values...)
}

// Lookup resolves a label produced by BuildDisplayValues.
func (c *Catalog) Lookup(label string) (Session, error) {
	if label == "" || label == ManualRoom {
		return Session{}, ErrRoomNotSelected
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.labels[label]
	if !ok || i >= len(c.rooms) {
		return Session{}, fmt.Errorf("%w: %q", ErrRoomNotFound, label)
	}
	return c.rooms[i], nil
}

func (c *Catalog) Rooms() []Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Session(nil), c.rooms...)
}

func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rooms)
}

func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms = nil
	c.rebuild()
}
