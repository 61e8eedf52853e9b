package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dolphinretro/config"
	"dolphinretro/lobby"
	"dolphinretro/lobby/lobbyserver"
	"dolphinretro/util"

	"github.com/gin-gonic/gin"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	return &app{
		configPath: filepath.Join(t.TempDir(), "dolphinretro.yml"),
		logLevel:   "disabled",
	}
}

func writeGame(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.dol")
	if err := os.WriteFile(path, []byte("dol"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunOptions_Variables(t *testing.T) {
	o := runOptions{
		mode:        "join",
		connection:  "direct",
		address:     "10.0.0.1",
		connectPort: 2700,
		set:         []string{"netplay_buffer_size=8", "dolphin_vsync=enabled"},
	}

	vars, err := o.variables()
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		config.KeyNetPlayMode:        "join",
		config.KeyNetPlayConnection:  "direct",
		config.KeyNetPlayAddress:     "10.0.0.1",
		config.KeyNetPlayConnectPort: "2700",
		config.KeyNetPlayBufferSize:  "8",
		config.KeyVSync:              "enabled",
	}
	if len(vars) != len(want) {
		t.Fatalf("expected %d variables, got %v", len(want), vars)
	}
	for k, v := range want {
		if vars[k] != v {
			t.Errorf("%s: expected %q, got %q", k, v, vars[k])
		}
	}

	o.set = []string{"novalue"}
	if _, err = o.variables(); err == nil {
		t.Fatal("expected malformed --set to fail")
	}
}

func TestRun_Headless(t *testing.T) {
	a := newTestApp(t)
	out := &bytes.Buffer{}

	err := a.run(t.Context(), out, writeGame(t), runOptions{
		ticks:      5,
		startAfter: -1,
		stats:      true,
		cheats:     []string{"AR: 04000000 89ABCDEF"},
	})
	if err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{
		"ticks:        5\n",
		"boot state:   running\n",
		"core frames:  5\n",
		"hw frames:    5 (640x528)\n",
		"tick duration (us):",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in output:\n%s", want, got)
		}
	}

	if _, err = os.Stat(a.configPath); err != nil {
		t.Fatalf("expected settings file written: %v", err)
	}
}

func TestRun_LoadFailure(t *testing.T) {
	a := newTestApp(t)
	err := a.run(t.Context(), &bytes.Buffer{}, writeGame(t), runOptions{
		ticks:      1,
		startAfter: -1,
		mode:       "join",
		connection: "lobby",
	})
	if err == nil {
		t.Fatal("expected join without a room to fail")
	}
}

func TestClassify(t *testing.T) {
	a := newTestApp(t)

	tests := []struct {
		name string
		code string
		want []string
		fail bool
	}{
		{
			name: "action replay",
			code: "AR: 04000000 89ABCDEF",
			want: []string{"actionreplay valid=true", "  04000000 89ABCDEF"},
		},
		{
			name: "gecko passthrough",
			code: "gecko: C2000000 00000001; not hex",
			want: []string{"gecko valid=true", "  C2000000 00000001", "  not hex (passthrough)"},
		},
		{
			name: "unparsable",
			code: "hello",
			want: []string{"valid=false"},
			fail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			err := a.classify(out, 0, true, tt.code)
			if (err != nil) != tt.fail {
				t.Fatalf("unexpected error %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("expected %q in output:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestRooms(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reg := lobbyserver.NewRegistry()
	_, _ = reg.Add(context.Background(), lobby.Session{Name: "Melee", Region: "EU", GameID: "GALE01", Method: lobby.MethodDirect, PlayerCount: 2})
	_, _ = reg.Add(context.Background(), lobby.Session{Name: "Other", Region: "NA", Method: lobby.MethodDirect})

	srv := httptest.NewServer(lobbyserver.New(util.NewTestingLogger(t), reg).Handler())
	defer srv.Close()

	a := newTestApp(t)
	out := &bytes.Buffer{}
	if err := a.rooms(t.Context(), out, srv.URL, "EU", time.Second); err != nil {
		t.Fatal(err)
	}

	want := "manual\n1: Melee (GALE01) [2]\n"
	if out.String() != want {
		t.Fatalf("expected %q, got %q", want, out.String())
	}
}

func TestServeLobby(t *testing.T) {
	a := newTestApp(t)
	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan error, 1)
	go func() {
		done <- a.serveLobby(ctx, serveOptions{httpAddr: "127.0.0.1:0", grpcAddr: "127.0.0.1:0", ttl: time.Minute})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRootCommand(t *testing.T) {
	root := newRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"--log-level=disabled", "classify", "--enabled=false", "04000000 89ABCDEF"})

	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "enabled=false") {
		t.Fatalf("unexpected output %q", out.String())
	}
}
