package lobby

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"dolphinretro/util"
)

type fakeDirectory struct {
	rooms   []Session
	err     error
	filters map[string]string
}

func (d *fakeDirectory) List(_ context.Context, filters map[string]string) ([]Session, error) {
	d.filters = filters
	if d.err != nil {
		return nil, d.err
	}
	return d.rooms, nil
}

func (d *fakeDirectory) Close() error { return nil }

func TestLabel(t *testing.T) {
	tests := []struct {
		rank int
		s    Session
		want string
	}{
		{0, Session{Name: "Melee netplay", GameID: "GALE01", PlayerCount: 2}, "1: Melee netplay (GALE01) [2]"},
		{4, Session{Name: "locked", PlayerCount: 1, HasPassword: true, InGame: true}, "5: locked [1] P InGame"},
		{1, Session{Name: "a|b;c\r\nd", PlayerCount: 3}, "2: a/b/c  d [3]"},
	}
	for _, tt := range tests {
		if got := Label(tt.rank, tt.s); got != tt.want {
			t.Errorf("Label(%d, %+v) = %q, want %q", tt.rank, tt.s, got, tt.want)
		}
	}
}

func TestLabel_NoReservedCharacters(t *testing.T) {
	nasty := []string{"|", ";", "\n", "\r", "a|;\n\rb", "||||", "x;y", ""}
	for i, name := range nasty {
		for _, game := range nasty {
			label := Label(i, Session{Name: name, GameID: game, PlayerCount: i})
			if strings.ContainsAny(label, "|;\n\r") {
				t.Errorf("label %q contains reserved characters", label)
			}
		}
	}
}

func TestCatalog_RefreshAndLookup(t *testing.T) {
	dir := &fakeDirectory{rooms: []Session{
		{Name: "one", GameID: "GALE01", PlayerCount: 1, ServerID: "10.0.0.1", Method: MethodDirect, Port: 2626},
		{Name: "two", PlayerCount: 2, ServerID: "abcdef12", Method: MethodTraversal},
	}}
	c := NewCatalog(util.NewTestingLogger(t), dir)

	if err := c.Refresh(context.Background(), "NA"); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(dir.filters, map[string]string{"region": "NA"}) {
		t.Errorf("filters = %v", dir.filters)
	}

	values := c.BuildDisplayValues()
	want := []string{ManualRoom, "1: one (GALE01) [1]", "2: two [2]"}
	if !reflect.DeepEqual(values, want) {
		t.Fatalf("values = %q, want %q", values, want)
	}

	room, err := c.Lookup(values[2])
	if err != nil {
		t.Fatal(err)
	}
	if room.ServerID != "abcdef12" {
		t.Errorf("room = %+v", room)
	}

	if _, err = c.Lookup(ManualRoom); !errors.Is(err, ErrRoomNotSelected) || !errors.Is(err, ErrRoomUnavailable) {
		t.Errorf("manual lookup err = %v", err)
	}
	if _, err = c.Lookup("9: gone [1]"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("missing lookup err = %v", err)
	}
}

func TestCatalog_NoRegionFilter(t *testing.T) {
	dir := &fakeDirectory{}
	c := NewCatalog(util.NewTestingLogger(t), dir)
	if err := c.Refresh(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if len(dir.filters) != 0 {
		t.Errorf("filters = %v", dir.filters)
	}
}

func TestCatalog_EmptyRefresh(t *testing.T) {
	dir := &fakeDirectory{rooms: []Session{{Name: "old", PlayerCount: 1}}}
	c := NewCatalog(util.NewTestingLogger(t), dir)
	if err := c.Refresh(context.Background(), "EU"); err != nil {
		t.Fatal(err)
	}

	dir.rooms = nil
	if err := c.Refresh(context.Background(), "EU"); err != nil {
		t.Fatalf("empty refresh raised %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("len = %d", c.Len())
	}
	if got := c.BuildDisplayValues(); !reflect.DeepEqual(got, []string{ManualRoom}) {
		t.Errorf("values = %q", got)
	}
}

func TestCatalog_FailedRefreshKeepsRooms(t *testing.T) {
	dir := &fakeDirectory{rooms: []Session{{Name: "kept", PlayerCount: 1}}}
	c := NewCatalog(util.NewTestingLogger(t), dir)
	_ = c.Refresh(context.Background(), "")

	dir.err = errors.New("index unreachable")
	if err := c.Refresh(context.Background(), ""); err == nil {
		t.Fatal("expected error")
	}
	if c.Len() != 1 {
		t.Errorf("len = %d", c.Len())
	}
	if _, err := c.Lookup("1: kept [1]"); err != nil {
		t.Errorf("lookup after failed refresh: %v", err)
	}
}

func TestCatalog_CapsOfferedRooms(t *testing.T) {
	dir := &fakeDirectory{}
	for i := 0; i < MaxRooms+6; i++ {
		dir.rooms = append(dir.rooms, Session{Name: fmt.Sprintf("room%d", i), PlayerCount: 1})
	}
	c := NewCatalog(util.NewTestingLogger(t), dir)
	_ = c.Refresh(context.Background(), "")

	values := c.BuildDisplayValues()
	if len(values) != MaxRooms+1 {
		t.Fatalf("got %d values", len(values))
	}
	if _, err := c.Lookup(Label(MaxRooms, dir.rooms[MaxRooms])); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("room beyond cap selectable: %v", err)
	}
}

func TestCatalog_NoDirectory(t *testing.T) {
	c := NewCatalog(util.NewTestingLogger(t), nil)
	if err := c.Refresh(context.Background(), ""); !errors.Is(err, ErrNoDirectory) {
		t.Errorf("err = %v", err)
	}
}

func TestRoomID_RoundTrip(t *testing.T) {
	sealed, err := EncryptID("abcdef12", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(sealed, "abcdef12") {
		t.Fatal("server id not encrypted")
	}

	s := Session{ServerID: sealed, HasPassword: true}
	id, err := s.DecryptID("secret")
	if err != nil {
		t.Fatal(err)
	}
	if id != "abcdef12" {
		t.Errorf("id = %q", id)
	}

	for _, pw := range []string{"", "wrong"} {
		if _, err = s.DecryptID(pw); !errors.Is(err, ErrBadPassword) || !errors.Is(err, ErrRoomUnavailable) {
			t.Errorf("password %q: err = %v", pw, err)
		}
	}

	garbage := Session{ServerID: "not base64!", HasPassword: true}
	if _, err = garbage.DecryptID("secret"); !errors.Is(err, ErrBadPassword) {
		t.Errorf("garbage err = %v", err)
	}
}

func TestMatches(t *testing.T) {
	s := Session{Name: "Friday Melee", Region: "NA", GameID: "GALE01", InGame: true}
	tests := []struct {
		filters map[string]string
		want    bool
	}{
		{nil, true},
		{map[string]string{"region": "NA"}, true},
		{map[string]string{"region": "na"}, true},
		{map[string]string{"region": "EU"}, false},
		{map[string]string{"name": "melee", "in_game": "true"}, true},
		{map[string]string{"password": "true"}, false},
		{map[string]string{"bogus": "x"}, false},
		{map[string]string{"region": ""}, true},
	}
	for _, tt := range tests {
		if got := Matches(s, tt.filters); got != tt.want {
			t.Errorf("Matches(%v) = %v, want %v", tt.filters, got, tt.want)
		}
	}
}

type nopDriver struct{ opened *url.URL }

func (d *nopDriver) Open(u *url.URL) (Directory, error) {
	d.opened = u
	return &fakeDirectory{}, nil
}

func TestRegistry(t *testing.T) {
	unregisterAllDrivers()
	defer unregisterAllDrivers()

	d := &nopDriver{}
	Register("test", d)
	if got := Drivers(); !reflect.DeepEqual(got, []string{"test"}) {
		t.Errorf("drivers = %v", got)
	}

	if _, err := Open("test://host:1234/path"); err != nil {
		t.Fatal(err)
	}
	if d.opened == nil || d.opened.Host != "host:1234" {
		t.Errorf("opened = %v", d.opened)
	}
	if _, err := Open("nope://host"); err == nil {
		t.Error("unknown scheme opened")
	}

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	Register("test", d)
}
