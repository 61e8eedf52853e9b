package netplay

import (
	"fmt"
	"strings"

	"dolphinretro/config"
)

type SessionMode int

const (
	Disabled SessionMode = iota
	Host
	Join
)

func (m SessionMode) String() string {
	switch m {
	case Disabled:
		return "disabled"
	case Host:
		return "host"
	case Join:
		return "join"
	}
	return "unknown"
}

func ParseSessionMode(s string) (SessionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled":
		return Disabled, nil
	case "host":
		return Host, nil
	case "join":
		return Join, nil
	}
	return Disabled, fmt.Errorf("netplay mode %q: %w", s, config.ErrInvalidValue)
}

type ConnectionMode int

const (
	Direct ConnectionMode = iota
	Traversal
	Lobby
)

func (m ConnectionMode) String() string {
	switch m {
	case Direct:
		return "direct"
	case Traversal:
		return "traversal"
	case Lobby:
		return "lobby"
	}
	return "unknown"
}

func ParseConnectionMode(s string) (ConnectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct":
		return Direct, nil
	case "traversal":
		return Traversal, nil
	case "lobby":
		return Lobby, nil
	}
	return Direct, fmt.Errorf("netplay connection %q: %w", s, config.ErrInvalidValue)
}
