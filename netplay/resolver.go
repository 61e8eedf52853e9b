package netplay

import (
	"fmt"

	"dolphinretro/config"
	"dolphinretro/lobby"

	"github.com/rs/zerolog"
)

// JoinTarget is where a client connects.
type JoinTarget struct {
	Address  string
	Port     uint16
	UseRelay bool
}

// Resolver computes join targets from the settings and, in lobby mode, the
// room catalog.
type Resolver struct {
	log     zerolog.Logger
	store   *config.Store
	catalog *lobby.Catalog
}

func NewResolver(log zerolog.Logger, store *config.Store, catalog *lobby.Catalog) *Resolver {
	return &Resolver{
		log:     log,
		store:   store,
		catalog: catalog,
	}
}

// Resolve returns the join target for mode. room is the selected lobby room
// label and is only consulted in lobby mode.
func (r *Resolver) Resolve(mode ConnectionMode, room string) (JoinTarget, error) {
	np := r.store.Get().NetPlay

	switch mode {
	case Direct:
		return JoinTarget{Address: np.Address, Port: np.ConnectPort}, nil
	case Traversal:
		return JoinTarget{Address: np.HostCode, Port: np.ConnectPort, UseRelay: true}, nil
	case Lobby:
		return r.resolveRoom(room, np)
	}
	return JoinTarget{}, fmt.Errorf("netplay: resolve: connection mode %d: %w", mode, config.ErrInvalidValue)
}

func (r *Resolver) resolveRoom(label string, np config.NetPlaySettings) (JoinTarget, error) {
	if r.catalog == nil {
		return JoinTarget{}, lobby.ErrRoomNotSelected
	}

	room, err := r.catalog.Lookup(label)
	if err != nil {
		r.log.Warn().Err(err).Str("room", label).Msg("netplay: resolve: lobby room unavailable")
		return JoinTarget{}, err
	}

	id := room.ServerID
	if room.HasPassword {
		if id, err = room.DecryptID(np.IndexPassword); err != nil {
			r.log.Warn().Err(err).Str("room", room.Name).Msg("netplay: resolve: cannot decrypt room id")
			return JoinTarget{}, err
		}
	}

	if room.UsesTraversal() {
		return JoinTarget{Address: id, Port: np.ConnectPort, UseRelay: true}, nil
	}

	if room.Port < 1 || room.Port > 65535 {
		return JoinTarget{}, fmt.Errorf("%w: room %q advertises port %d", lobby.ErrRoomUnavailable, room.Name, room.Port)
	}
	target := JoinTarget{Address: id, Port: uint16(room.Port)}
	r.store.UpdateAndSave(func(s *config.Settings) {
		s.NetPlay.Address = target.Address
		s.NetPlay.ConnectPort = target.Port
	})
	return target, nil
}
