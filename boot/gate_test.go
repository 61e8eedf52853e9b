package boot

import (
	"errors"
	"testing"

	"dolphinretro/emucore/mock"
	"dolphinretro/util"
)

func newTestGate(t *testing.T) (*Gate, *mock.Core) {
	core := mock.NewCore()
	return NewGate(util.NewTestingLogger(t), core), core
}

func TestGate_DeferredUntilReady(t *testing.T) {
	g, core := newTestGate(t)

	booted := 0
	g.Booted = func(Request) { booted++ }

	if err := g.RequestBoot(Request{Path: "game.iso"}); err != nil {
		t.Fatal(err)
	}
	if g.State() != PendingReady || len(core.Boots()) != 0 {
		t.Fatalf("booted before ready: state=%v boots=%d", g.State(), len(core.Boots()))
	}
	if g.Tick() {
		t.Fatal("tick booted without readiness")
	}

	g.NotifyContextReady(true)
	if !g.Tick() {
		t.Fatal("tick did not boot")
	}
	if g.Tick() {
		t.Fatal("second tick booted again")
	}

	if n := len(core.Boots()); n != 1 || booted != 1 {
		t.Fatalf("boots = %d, booted callbacks = %d", n, booted)
	}
	if g.State() != Running || g.HasPending() {
		t.Errorf("state = %v, pending = %v", g.State(), g.HasPending())
	}
}

func TestGate_LastRequestWins(t *testing.T) {
	g, core := newTestGate(t)

	_ = g.RequestBoot(Request{Path: "first.iso"})
	_ = g.RequestBoot(Request{Path: "second.iso", IsNetPlay: true})

	g.NotifyContextReady(true)
	g.Tick()

	boots := core.Boots()
	if len(boots) != 1 || boots[0].Path != "second.iso" {
		t.Fatalf("boots = %+v", boots)
	}
}

func TestGate_ImmediateWhenReady(t *testing.T) {
	g, core := newTestGate(t)
	g.NotifyContextReady(true)

	if err := g.RequestBoot(Request{Path: "game.iso"}); err != nil {
		t.Fatal(err)
	}
	if len(core.Boots()) != 1 || !g.IsLoaded() {
		t.Fatal("not booted immediately")
	}
}

func TestGate_FailureClearsSlot(t *testing.T) {
	g, core := newTestGate(t)
	core.FailParameters = true

	_ = g.RequestBoot(Request{Path: "bad.iso"})
	g.NotifyContextReady(true)
	if !g.Tick() {
		t.Fatal("no attempt made")
	}
	if g.State() != NoGame || g.HasPending() {
		t.Fatalf("state = %v, pending = %v", g.State(), g.HasPending())
	}
	if g.Tick() {
		t.Fatal("failed boot retried")
	}

	err := g.RequestBoot(Request{Path: "bad.iso"})
	if !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("err = %v", err)
	}

	core.FailParameters = false
	core.FailBoot = true
	if err = g.RequestBoot(Request{Path: "game.iso"}); !errors.Is(err, mock.ErrBootRefused) {
		t.Errorf("err = %v", err)
	}
	if g.IsLoaded() {
		t.Error("loaded after refused boot")
	}
}

func TestGate_UninitializedStateUnloads(t *testing.T) {
	g, core := newTestGate(t)
	g.NotifyContextReady(true)
	_ = g.RequestBoot(Request{Path: "game.iso"})

	// losing the context does not stop the game:
	g.NotifyContextReady(false)
	if !g.IsLoaded() {
		t.Fatal("context loss unloaded the game")
	}

	core.Stop()
	if g.IsLoaded() || g.State() != NoGame {
		t.Fatalf("state = %v after core stop", g.State())
	}

	g.Close()
	g.NotifyContextReady(true)
	_ = g.RequestBoot(Request{Path: "game.iso"})
	if !g.IsLoaded() {
		t.Fatal("reboot failed")
	}
}
