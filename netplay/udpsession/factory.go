package udpsession

import (
	"time"

	"dolphinretro/netplay"

	"github.com/rs/zerolog"
)

// Factory creates UDP session servers and clients.
type Factory struct {
	Log              zerolog.Logger
	HandshakeTimeout time.Duration
}

func (f Factory) NewServer(cfg netplay.ServerConfig, ui netplay.UI) (netplay.Server, error) {
	s, err := Listen(f.Log, cfg, ui)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (f Factory) NewClient(cfg netplay.ClientConfig, ui netplay.UI) (netplay.Client, error) {
	c, err := Dial(f.Log, cfg, ui, f.HandshakeTimeout)
	if err != nil {
		return nil, err
	}
	return c, nil
}
