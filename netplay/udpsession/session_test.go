package udpsession_test

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dolphinretro/boot"
	"dolphinretro/config"
	"dolphinretro/gamefile"
	"dolphinretro/netplay"
	"dolphinretro/netplay/udpsession"
	"dolphinretro/util"
)

type host struct {
	mu      sync.Mutex
	game    *gamefile.GameFile
	running atomic.Bool
	boots   []boot.Request
}

func (h *host) Game() (string, *gamefile.GameFile) { return h.game.Path, h.game }
func (h *host) Running() bool                      { return h.running.Load() }
func (h *host) RequestStop(bool)                   { h.running.Store(false) }
func (h *host) RequestBoot(req boot.Request) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.boots = append(h.boots, req)
	h.running.Store(true)
	return nil
}
func (h *host) Username() (string, bool) { return "", false }
func (h *host) RoomsRefreshed([]string)  {}

func (h *host) bootCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.boots)
}

// failingClients serves real UDP servers but refuses every client.
type failingClients struct {
	udpsession.Factory
}

func (failingClients) NewClient(netplay.ClientConfig, netplay.UI) (netplay.Client, error) {
	return nil, errors.New("loopback refused")
}

func freePort(t *testing.T) uint16 {
	t.Helper()
	pc, err := net.ListenPacket("udp", ":0")
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()
	return uint16(pc.LocalAddr().(*net.UDPAddr).Port)
}

var game = &gamefile.GameFile{Path: "/games/melee.iso", GameID: "GALE01", Title: "Melee", Platform: gamefile.GameCube}

func newOrchestrator(t *testing.T, factory netplay.Factory, h *host, port uint16) *netplay.Orchestrator {
	log := util.NewTestingLogger(t)
	store := config.NewMemoryStore(log, config.Default())
	store.Update(func(s *config.Settings) { s.NetPlay.HostPort = port })
	o := netplay.NewOrchestrator(log, store, factory, nil, h)
	t.Cleanup(o.Shutdown)
	return o
}

func TestHost_LoopbackFailureReleasesPort(t *testing.T) {
	port := freePort(t)
	h := &host{game: game}
	factory := udpsession.Factory{Log: util.NewTestingLogger(t), HandshakeTimeout: time.Second}

	o := newOrchestrator(t, failingClients{factory}, h, port)
	if err := o.StartSession(netplay.Host); !errors.Is(err, netplay.ErrConnectionFailed) {
		t.Fatalf("err = %v", err)
	}
	if o.Active() {
		t.Fatal("session left running")
	}

	o = newOrchestrator(t, factory, h, port)
	if err := o.StartSession(netplay.Host); err != nil {
		t.Fatalf("host again on port %d: %v", port, err)
	}
	if !o.IsHosting() {
		t.Error("not hosting")
	}
}

func TestHost_StartGameBootsThroughTick(t *testing.T) {
	h := &host{game: game}
	factory := udpsession.Factory{Log: util.NewTestingLogger(t), HandshakeTimeout: time.Second}
	o := newOrchestrator(t, factory, h, freePort(t))

	if err := o.StartSession(netplay.Host); err != nil {
		t.Fatal(err)
	}

	opts := map[string]string{config.KeyNetPlayMode: "host", config.KeyNetPlayStart: config.Yes}
	o.ApplyOptions(optionSource(opts))

	deadline := time.Now().Add(3 * time.Second)
	for h.bootCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("game never booted")
		}
		o.Tick()
		time.Sleep(5 * time.Millisecond)
	}

	req := h.boots[0]
	if !req.IsNetPlay || req.Path != game.Path || req.Session == nil {
		t.Errorf("boot request = %+v", req)
	}
}

type optionSource map[string]string

func (o optionSource) GetVariable(key string) (string, bool) {
	v, ok := o[key]
	return v, ok
}
