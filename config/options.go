package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"dolphinretro/interfaces"
)

// ErrInvalidValue is reported when a host option value lies outside its domain.
var ErrInvalidValue = errors.New("configuration value invalid")

const (
	KeyInternalResolution = "dolphin_internal_resolution"
	KeyWidescreenHack     = "dolphin_widescreen_hack"
	KeyVSync              = "dolphin_vsync"
	KeyDualCore           = "dolphin_dual_core"
	KeyDSPHLE             = "dolphin_dsp_hle"
	KeySyncOnSkipIdle     = "dolphin_sync_on_skip_idle"
	KeyCheats             = "dolphin_cheats"
	KeySaveStates         = "dolphin_savestates"
	KeyWiimoteSpeaker     = "dolphin_wiimote_speaker"
	KeyWiimotePrefix      = "dolphin_wiimote_"

	KeyNetPlayMode               = "dolphin_netplay_mode"
	KeyNetPlayConnection         = "dolphin_netplay_connection"
	KeyNetPlayNickname           = "dolphin_netplay_nickname"
	KeyNetPlayAddress            = "dolphin_netplay_address"
	KeyNetPlayConnectPort        = "dolphin_netplay_connect_port"
	KeyNetPlayHostPort           = "dolphin_netplay_host_port"
	KeyNetPlayListenPort         = "dolphin_netplay_listen_port"
	KeyNetPlayHostCode           = "dolphin_netplay_host_code"
	KeyNetPlayTraversalServer    = "dolphin_netplay_traversal_server"
	KeyNetPlayTraversalPort      = "dolphin_netplay_traversal_port"
	KeyNetPlayTraversalPortAlt   = "dolphin_netplay_traversal_port_alt"
	KeyNetPlayLobbyRefresh       = "dolphin_netplay_lobby_refresh"
	KeyNetPlayLobbyRoom          = "dolphin_netplay_lobby_room"
	KeyNetPlayLobbyAdvertise     = "dolphin_netplay_lobby_advertise"
	KeyNetPlayLobbyRegion        = "dolphin_netplay_lobby_region"
	KeyNetPlayStart              = "dolphin_netplay_start"
	KeyNetPlayNetworkMode        = "dolphin_netplay_network_mode"
	KeyNetPlayBufferSize         = "dolphin_netplay_buffer_size"
	KeyNetPlayClientBufferSize   = "dolphin_netplay_client_buffer_size"
	KeyNetPlaySaveDataLoad       = "dolphin_netplay_savedata_load"
	KeyNetPlaySaveDataWrite      = "dolphin_netplay_savedata_write"
	KeyNetPlaySaveDataSyncAllWii = "dolphin_netplay_savedata_sync_all_wii"
	KeyNetPlaySyncCodes          = "dolphin_netplay_sync_codes"
	KeyNetPlayStrictSettingsSync = "dolphin_netplay_strict_settings_sync"
	KeyNetPlayRecordInputs       = "dolphin_netplay_record_inputs"
	KeyNetPlayGolfOverlay        = "dolphin_netplay_golf_overlay"
	KeyNetPlayHideRemoteGBAs     = "dolphin_netplay_hide_remote_gbas"
	KeyNetPlayUseUPnP            = "dolphin_netplay_use_upnp"
	KeyNetPlayEnableQoS          = "dolphin_netplay_enable_qos"
)

const (
	Enabled  = "enabled"
	Disabled = "disabled"
	Yes      = "yes"
	No       = "no"

	ManualRoom = "manual"

	WiimoteEmulated = "emulated"
	WiimoteReal     = "real"
	WiimoteNone     = "none"
)

var (
	InternalResolutions = []string{"1x", "2x", "3x", "4x", "5x", "6x", "8x", "10x", "12x"}
	Regions             = []string{"EA", "CN", "EU", "NA", "SA", "OC", "AF"}
	NetworkModes        = []string{"fixeddelay", "hostinputauthority", "golf"}
	WiimoteSources      = []string{WiimoteEmulated, WiimoteReal, WiimoteNone}
	SessionModes        = []string{"disabled", "host", "join"}
	ConnectionModes     = []string{"direct", "traversal", "lobby"}
)

// WiimoteKey returns the option key of the wiimote slot (0-based).
func WiimoteKey(index int) string {
	return KeyWiimotePrefix + strconv.Itoa(index+1)
}

func EnabledDisabled(enabled bool) string {
	if enabled {
		return Enabled
	}
	return Disabled
}

// Definition builds a host option definition string. The default value is
// moved to the front of values, or inserted there when values lacks it.
func Definition(key, description string, values []string, def string) interfaces.Variable {
	ordered := make([]string, 0, len(values)+1)
	ordered = append(ordered, def)
	for _, v := range values {
		if v != def {
			ordered = append(ordered, v)
		}
	}

	return interfaces.Variable{
		Key:   key,
		Value: description + "; " + strings.Join(ordered, "|"),
	}
}

// PortValues offers the configured port, the default port, and the configured
// port +/- 2 when they stay inside [1, 65535].
func PortValues(configured uint16) []string {
	var values []string
	add := func(port int) {
		if port < 1 || port > 65535 {
			return
		}
		s := strconv.Itoa(port)
		for _, v := range values {
			if v == s {
				return
			}
		}
		values = append(values, s)
	}

	add(int(configured))
	add(DefaultPort)
	add(int(configured) - 2)
	add(int(configured) + 2)
	return values
}

func withConfigured(configured string, fixed ...string) []string {
	values := make([]string, 0, len(fixed)+1)
	if configured != "" {
		values = append(values, configured)
	}
	for _, f := range fixed {
		if f != configured {
			values = append(values, f)
		}
	}
	return values
}

func AddressValues(configured string) []string {
	return withConfigured(configured, "127.0.0.1", "localhost", "192.168.0.1", "192.168.1.1", "10.0.0.1")
}

func HostCodeValues(configured string) []string {
	return withConfigured(configured, DefaultHostCode)
}

func TraversalServerValues(configured string) []string {
	return withConfigured(configured, DefaultTraversalServer)
}

func internalResolutionDefault(scale int) string {
	candidate := strconv.Itoa(scale) + "x"
	for _, v := range InternalResolutions {
		if v == candidate {
			return candidate
		}
	}
	return "1x"
}

// BuildDefinitions returns every host option definition. roomValues lists the
// lobby room choices, "manual" first. When current is non-nil the values the
// user selected become the defaults.
func BuildDefinitions(s Settings, roomValues []string, current interfaces.OptionSource) []interfaces.Variable {
	def := func(key, fallback string) string {
		if current == nil {
			return fallback
		}
		if v, ok := current.GetVariable(key); ok && v != "" {
			return v
		}
		return fallback
	}

	var defs []interfaces.Variable
	add := func(key, description string, values []string, fallback string) {
		defs = append(defs, Definition(key, description, values, def(key, fallback)))
	}
	toggle := []string{Disabled, Enabled}
	ed := EnabledDisabled
	core, np := s.Core, s.NetPlay

	add(KeyInternalResolution, "Internal resolution", InternalResolutions, internalResolutionDefault(core.EFBScale))
	add(KeyWidescreenHack, "Widescreen hack", toggle, ed(core.WidescreenHack))
	add(KeyVSync, "VSync", toggle, ed(core.VSync))
	add(KeyDualCore, "Dual core (CPU thread)", toggle, ed(core.CPUThread))
	add(KeyDSPHLE, "DSP HLE", toggle, ed(core.DSPHLE))
	add(KeySyncOnSkipIdle, "Sync on skip idle", toggle, ed(core.SyncOnSkipIdle))
	add(KeyCheats, "Enable cheats", toggle, ed(core.EnableCheats))
	add(KeySaveStates, "Enable savestates", toggle, ed(core.EnableSaveStates))
	add(KeyWiimoteSpeaker, "Wiimote speaker", toggle, ed(core.WiimoteSpeaker))
	for i, source := range core.WiimoteSources {
		if source == "" {
			source = WiimoteNone
		}
		add(WiimoteKey(i), fmt.Sprintf("Wiimote %d source", i+1), WiimoteSources, source)
	}

	region := np.IndexRegion
	if region == "" {
		region = DefaultRegion
	}
	if len(roomValues) == 0 {
		roomValues = []string{ManualRoom}
	}

	add(KeyNetPlayMode, "NetPlay mode", SessionModes, "disabled")
	add(KeyNetPlayConnection, "NetPlay connection", ConnectionModes, "direct")
	nickname := np.Nickname
	if nickname == "" {
		nickname = "Player"
	}
	add(KeyNetPlayNickname, "NetPlay nickname", withConfigured(nickname, "Player"), nickname)
	add(KeyNetPlayAddress, "NetPlay address (direct join)", AddressValues(np.Address), np.Address)
	add(KeyNetPlayConnectPort, "NetPlay connect port", PortValues(np.ConnectPort), strconv.Itoa(int(np.ConnectPort)))
	add(KeyNetPlayHostPort, "NetPlay host port", PortValues(np.HostPort), strconv.Itoa(int(np.HostPort)))
	add(KeyNetPlayListenPort, "NetPlay traversal listen port", PortValues(np.ListenPort), strconv.Itoa(int(np.ListenPort)))
	add(KeyNetPlayHostCode, "NetPlay host code (traversal join)", HostCodeValues(np.HostCode), np.HostCode)
	add(KeyNetPlayTraversalServer, "NetPlay traversal server", TraversalServerValues(np.TraversalServer), np.TraversalServer)
	add(KeyNetPlayTraversalPort, "NetPlay traversal port", PortValues(np.TraversalPort), strconv.Itoa(int(np.TraversalPort)))
	add(KeyNetPlayTraversalPortAlt, "NetPlay traversal port alt", PortValues(np.TraversalPortAlt), strconv.Itoa(int(np.TraversalPortAlt)))
	add(KeyNetPlayLobbyRefresh, "NetPlay lobby refresh", []string{No, Yes}, No)
	add(KeyNetPlayLobbyRoom, "NetPlay lobby room", roomValues, ManualRoom)
	add(KeyNetPlayLobbyAdvertise, "NetPlay lobby advertise", toggle, ed(np.UseIndex))
	add(KeyNetPlayLobbyRegion, "NetPlay lobby region", Regions, region)
	add(KeyNetPlayStart, "NetPlay start game", []string{No, Yes}, No)
	add(KeyNetPlayNetworkMode, "NetPlay network mode", NetworkModes, np.NetworkMode)
	add(KeyNetPlayBufferSize, "NetPlay buffer size",
		[]string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "12", "15"}, strconv.Itoa(int(np.BufferSize)))
	add(KeyNetPlayClientBufferSize, "NetPlay client buffer size",
		[]string{"1", "2", "3", "4", "5"}, strconv.Itoa(int(np.ClientBufferSize)))
	add(KeyNetPlaySaveDataLoad, "NetPlay load save data", toggle, ed(np.SaveDataLoad))
	add(KeyNetPlaySaveDataWrite, "NetPlay write save data", toggle, ed(np.SaveDataWrite))
	add(KeyNetPlaySaveDataSyncAllWii, "NetPlay sync all Wii saves", toggle, ed(np.SaveDataSyncAllWii))
	add(KeyNetPlaySyncCodes, "NetPlay sync cheats", toggle, ed(np.SyncCodes))
	add(KeyNetPlayStrictSettingsSync, "NetPlay strict settings sync", toggle, ed(np.StrictSettingsSync))
	add(KeyNetPlayRecordInputs, "NetPlay record inputs", toggle, ed(np.RecordInputs))
	add(KeyNetPlayGolfOverlay, "NetPlay golf overlay", toggle, ed(np.GolfModeOverlay))
	add(KeyNetPlayHideRemoteGBAs, "NetPlay hide remote GBAs", toggle, ed(np.HideRemoteGBAs))
	add(KeyNetPlayUseUPnP, "NetPlay use UPNP", toggle, ed(np.UseUPnP))
	add(KeyNetPlayEnableQoS, "NetPlay enable QoS", toggle, ed(np.EnableQoS))

	return defs
}
