package lobbyserver_test

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dolphinretro/lobby"
	"dolphinretro/lobby/grpcdir"
	"dolphinretro/lobby/httpdir"
	"dolphinretro/lobby/lobbyserver"
	"dolphinretro/lobby/wsdir"
	"dolphinretro/util"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func startServer(t *testing.T) (*lobbyserver.Server, *httptest.Server) {
	t.Helper()
	s := lobbyserver.New(util.NewTestingLogger(t), lobbyserver.NewRegistry())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

var rooms = []lobby.Session{
	{Name: "NA melee", Region: "NA", GameID: "GALE01", ServerID: "10.0.0.2", Method: lobby.MethodDirect, Port: 2626, PlayerCount: 2},
	{Name: "EU mario kart", Region: "EU", GameID: "GM4E01", ServerID: "abcdef12", Method: lobby.MethodTraversal, PlayerCount: 1},
}

func advertise(t *testing.T, ctx context.Context, adv lobby.Advertiser) []string {
	t.Helper()
	var ids []string
	for _, r := range rooms {
		id, err := adv.Add(ctx, r)
		if err != nil {
			t.Fatalf("add %q: %v", r.Name, err)
		}
		if id == "" {
			t.Fatalf("add %q: empty secret", r.Name)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestHTTPDirectory(t *testing.T) {
	_, ts := startServer(t)
	ctx := testContext(t)

	dir, err := lobby.Open(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer dir.Close()

	adv, ok := dir.(lobby.Advertiser)
	if !ok {
		t.Fatal("http directory does not advertise")
	}
	ids := advertise(t, ctx, adv)

	all, err := dir.List(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("listed %d sessions", len(all))
	}
	if all[0] != rooms[0] {
		t.Errorf("session = %+v, want %+v", all[0], rooms[0])
	}

	eu, err := dir.List(ctx, map[string]string{"region": "EU"})
	if err != nil {
		t.Fatal(err)
	}
	if len(eu) != 1 || eu[0].ServerID != "abcdef12" || !eu[0].UsesTraversal() {
		t.Errorf("EU sessions = %+v", eu)
	}

	if err = adv.Remove(ctx, ids[0]); err != nil {
		t.Fatal(err)
	}
	if err = adv.Remove(ctx, ids[0]); err == nil {
		t.Error("second remove succeeded")
	}

	if err = dir.(*httpdir.Directory).KeepAlive(ctx, ids[1]); err != nil {
		t.Errorf("keepalive: %v", err)
	}
}

func TestHTTPDirectory_Unreachable(t *testing.T) {
	_, ts := startServer(t)
	url := ts.URL
	ts.Close()

	dir, err := lobby.Open(url)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = dir.List(testContext(t), nil); err == nil {
		t.Error("list against closed server succeeded")
	}
}

func TestHTTPDirectory_RejectsNamelessSession(t *testing.T) {
	_, ts := startServer(t)
	dir := httpdir.NewDirectory(ts.URL, nil)
	if _, err := dir.Add(testContext(t), lobby.Session{}); err == nil {
		t.Error("nameless session accepted")
	}
}

func TestWebSocketDirectory(t *testing.T) {
	s, ts := startServer(t)
	ctx := testContext(t)

	dir, err := lobby.Open("ws" + strings.TrimPrefix(ts.URL, "http"))
	if err != nil {
		t.Fatal(err)
	}
	defer dir.Close()

	ids := advertise(t, ctx, dir.(lobby.Advertiser))
	if s.Registry().Len() != 2 {
		t.Fatalf("registry has %d sessions", s.Registry().Len())
	}

	na, err := dir.List(ctx, map[string]string{"region": "NA"})
	if err != nil {
		t.Fatal(err)
	}
	if len(na) != 1 || na[0].Name != "NA melee" {
		t.Errorf("NA sessions = %+v", na)
	}

	if err = dir.(lobby.Advertiser).Remove(ctx, ids[1]); err != nil {
		t.Fatal(err)
	}
	all, err := dir.List(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("listed %d sessions after remove", len(all))
	}

	_ = dir.Close()
	if _, err = dir.List(ctx, nil); !errors.Is(err, wsdir.ErrClosed) {
		t.Errorf("list after close err = %v", err)
	}
}

func TestGRPCDirectory(t *testing.T) {
	s, _ := startServer(t)
	ctx := testContext(t)
	advertise(t, ctx, s.Registry())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	g := grpc.NewServer()
	s.RegisterGRPC(g)
	go func() { _ = g.Serve(lis) }()
	defer g.Stop()

	dir, err := lobby.Open("grpc://" + lis.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer dir.Close()

	all, err := dir.List(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("listed %d sessions", len(all))
	}
	if all[0] != rooms[0] || all[1] != rooms[1] {
		t.Errorf("sessions = %+v", all)
	}

	eu, err := dir.List(ctx, map[string]string{"game": "GM4E01"})
	if err != nil {
		t.Fatal(err)
	}
	if len(eu) != 1 || eu[0].Port != 0 {
		t.Errorf("filtered sessions = %+v", eu)
	}

	if _, ok := dir.(*grpcdir.Directory); !ok {
		t.Errorf("opened %T", dir)
	}
}

func TestRegistry_Expiry(t *testing.T) {
	now := time.Unix(1000, 0)
	reg := lobbyserver.NewRegistry()
	reg.Now = func() time.Time { return now }

	ctx := testContext(t)
	a, _ := reg.Add(ctx, rooms[0])
	_, _ = reg.Add(ctx, rooms[1])

	now = now.Add(lobbyserver.DefaultTTL / 2)
	if !reg.Touch(a) {
		t.Fatal("touch failed")
	}
	now = now.Add(lobbyserver.DefaultTTL/2 + time.Second)

	list, _ := reg.List(ctx, nil)
	if len(list) != 1 || list[0].Name != rooms[0].Name {
		t.Errorf("sessions after expiry = %+v", list)
	}
	if reg.Touch("missing") {
		t.Error("touched missing session")
	}
}
