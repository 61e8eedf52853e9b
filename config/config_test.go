package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"dolphinretro/util"
)

type optionMap map[string]string

func (m optionMap) GetVariable(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func TestLoad_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dolphinretro.yaml")

	s, err := Load(util.NewTestingLogger(t), path)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Get(); got != Default() {
		t.Errorf("settings = %+v, want defaults", got)
	}
	if _, err = os.Stat(path); err != nil {
		t.Errorf("default file not written: %v", err)
	}
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dolphinretro.yaml")
	yaml := "netplay:\n  nickname: alice\n  host_port: 3000\ncore:\n  efb_scale: 3\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOLPHINRETRO_NETPLAY_INDEX_PASSWORD", "hunter2")

	s, err := Load(util.NewTestingLogger(t), path)
	if err != nil {
		t.Fatal(err)
	}

	got := s.Get()
	if got.NetPlay.Nickname != "alice" || got.NetPlay.HostPort != 3000 || got.Core.EFBScale != 3 {
		t.Errorf("file values not loaded: %+v", got)
	}
	if got.NetPlay.IndexPassword != "hunter2" {
		t.Errorf("env override not applied: %q", got.NetPlay.IndexPassword)
	}
	if got.NetPlay.ConnectPort != DefaultPort {
		t.Errorf("default not kept: %d", got.NetPlay.ConnectPort)
	}
}

func TestStore_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dolphinretro.yaml")
	log := util.NewTestingLogger(t)

	s, err := Load(log, path)
	if err != nil {
		t.Fatal(err)
	}
	if !s.UpdateAndSave(func(st *Settings) { st.NetPlay.Address = "10.0.0.9" }) {
		t.Fatal("update reported no change")
	}
	if s.UpdateAndSave(func(st *Settings) { st.NetPlay.Address = "10.0.0.9" }) {
		t.Error("identical update reported a change")
	}

	reloaded, err := Load(log, path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Get().NetPlay.Address != "10.0.0.9" {
		t.Errorf("address = %q", reloaded.Get().NetPlay.Address)
	}
}

func TestApplyNetPlayOptions_RejectsOutOfDomain(t *testing.T) {
	s := NewMemoryStore(util.NewTestingLogger(t), Default())
	opts := optionMap{
		KeyNetPlayConnectPort:      "70000",
		KeyNetPlayHostPort:         "2700",
		KeyNetPlayListenPort:       "0",
		KeyNetPlayBufferSize:       "21",
		KeyNetPlayClientBufferSize: "5",
		KeyNetPlayLobbyRegion:      "XX",
		KeyNetPlayNetworkMode:      "golf",
		KeyNetPlayUseUPnP:          "maybe",
		KeyNetPlayEnableQoS:        "disabled",
		KeyNetPlayAddress:          "example.org",
	}

	changed, errs := ApplyNetPlayOptions(util.NewTestingLogger(t), s, opts)
	if !changed {
		t.Fatal("expected a change")
	}
	if len(errs) != 5 {
		t.Errorf("errs = %v", errs)
	}
	for _, err := range errs {
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("err %v is not ErrInvalidValue", err)
		}
	}

	def := Default().NetPlay
	got := s.Get().NetPlay
	if got.ConnectPort != def.ConnectPort || got.ListenPort != def.ListenPort || got.BufferSize != def.BufferSize {
		t.Errorf("rejected numeric value stored: %+v", got)
	}
	if got.IndexRegion != def.IndexRegion || got.UseUPnP != def.UseUPnP {
		t.Errorf("rejected enum value stored: %+v", got)
	}
	if got.HostPort != 2700 || got.ClientBufferSize != 5 || got.NetworkMode != "golf" || got.EnableQoS || got.Address != "example.org" {
		t.Errorf("accepted values not stored: %+v", got)
	}
}

func TestApplyCoreOptions(t *testing.T) {
	s := NewMemoryStore(util.NewTestingLogger(t), Default())
	opts := optionMap{
		KeyInternalResolution: "3x",
		KeyCheats:             "enabled",
		KeyDualCore:           "disabled",
		WiimoteKey(1):         "real",
		WiimoteKey(2):         "bluetooth",
	}

	changed, errs := ApplyCoreOptions(util.NewTestingLogger(t), s, opts)
	if !changed || len(errs) != 1 {
		t.Fatalf("changed=%v errs=%v", changed, errs)
	}

	got := s.Get().Core
	if got.EFBScale != 3 || !got.EnableCheats || got.CPUThread {
		t.Errorf("core = %+v", got)
	}
	if got.WiimoteSources != [4]string{WiimoteEmulated, WiimoteReal, WiimoteNone, WiimoteNone} {
		t.Errorf("wiimotes = %v", got.WiimoteSources)
	}

	if changed, _ = ApplyCoreOptions(util.NewTestingLogger(t), s, opts); changed {
		t.Error("second apply reported a change")
	}
}

func TestDefinition_DefaultFirst(t *testing.T) {
	tests := []struct {
		values []string
		def    string
		want   string
	}{
		{[]string{"a", "b", "c"}, "b", "Desc; b|a|c"},
		{[]string{"a", "b"}, "a", "Desc; a|b"},
		{[]string{"a", "b"}, "z", "Desc; z|a|b"},
	}
	for _, tt := range tests {
		if got := Definition("k", "Desc", tt.values, tt.def); got.Value != tt.want {
			t.Errorf("Definition(%v, %q) = %q, want %q", tt.values, tt.def, got.Value, tt.want)
		}
	}
}

func TestPortValues(t *testing.T) {
	tests := []struct {
		port uint16
		want []string
	}{
		{2626, []string{"2626", "2624", "2628"}},
		{3000, []string{"3000", "2626", "2998", "3002"}},
		{1, []string{"1", "2626", "3"}},
		{65535, []string{"65535", "2626", "65533"}},
	}
	for _, tt := range tests {
		if got := PortValues(tt.port); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("PortValues(%d) = %v, want %v", tt.port, got, tt.want)
		}
	}
}

func TestBuildDefinitions(t *testing.T) {
	defs := BuildDefinitions(Default(), []string{ManualRoom, "1: Room [2]"}, optionMap{KeyNetPlayMode: "join"})

	byKey := map[string]string{}
	for _, d := range defs {
		if _, dup := byKey[d.Key]; dup {
			t.Errorf("duplicate key %s", d.Key)
		}
		byKey[d.Key] = d.Value
	}

	if got := byKey[KeyNetPlayMode]; got != "NetPlay mode; join|disabled|host" {
		t.Errorf("mode = %q", got)
	}
	if got := byKey[KeyNetPlayLobbyRoom]; got != "NetPlay lobby room; manual|1: Room [2]" {
		t.Errorf("room = %q", got)
	}
	if got := byKey[KeyNetPlayLobbyRegion]; !strings.HasPrefix(got, "NetPlay lobby region; NA|") {
		t.Errorf("region = %q", got)
	}
	if got := byKey[KeyInternalResolution]; !strings.HasPrefix(got, "Internal resolution; 1x|") {
		t.Errorf("resolution = %q", got)
	}
	if len(defs) != 42 {
		t.Errorf("got %d definitions", len(defs))
	}
}
