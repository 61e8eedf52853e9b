package lobby

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"
)

// Directory lists advertised rooms.
type Directory interface {
	List(ctx context.Context, filters map[string]string) ([]Session, error)
	Close() error
}

// Advertiser is implemented by directories that accept new rooms.
type Advertiser interface {
	Add(ctx context.Context, s Session) (id string, err error)
	Remove(ctx context.Context, id string) error
}

// KeepAliver is implemented by directories that expire rooms which are not
// refreshed.
type KeepAliver interface {
	KeepAlive(ctx context.Context, id string) error
}

type Driver interface {
	Open(u *url.URL) (Directory, error)
}

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// Register makes a directory driver available for the given URL scheme.
// If Register is called twice with the same scheme or if driver is nil,
// it panics.
func Register(scheme string, driver Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if driver == nil {
		panic("lobby: Register driver is nil")
	}
	if _, dup := drivers[scheme]; dup {
		panic("lobby: Register called twice for scheme " + scheme)
	}
	drivers[scheme] = driver
}

func unregisterAllDrivers() {
	driversMu.Lock()
	defer driversMu.Unlock()
	// For tests.
	drivers = make(map[string]Driver)
}

// Drivers returns a sorted list of the registered schemes.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	list := make([]string, 0, len(drivers))
	for scheme := range drivers {
		list = append(list, scheme)
	}
	sort.Strings(list)
	return list
}

// Open connects to the room directory at rawurl using the driver registered
// for its scheme.
func Open(rawurl string) (Directory, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("lobby: parse directory url: %w", err)
	}

	driversMu.RLock()
	driveri, ok := drivers[u.Scheme]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("lobby: unknown directory scheme %q (forgotten import?)", u.Scheme)
	}

	return driveri.Open(u)
}
