package config

const (
	DefaultPort             = 2626
	DefaultTraversalServer  = "stun.dolphin-emu.org"
	DefaultTraversalPort    = 6262
	DefaultTraversalPortAlt = 6226
	DefaultHostCode         = "00000000"
	DefaultIndexServer      = "https://lobby.dolphin-emu.org"
	DefaultRegion           = "NA"

	TraversalChoiceDirect    = "direct"
	TraversalChoiceTraversal = "traversal"
)

// NetPlaySettings are the persisted netplay settings shared with the session
// client and server.
type NetPlaySettings struct {
	Nickname         string `mapstructure:"nickname" yaml:"nickname"`
	Address          string `mapstructure:"address" yaml:"address"`
	ConnectPort      uint16 `mapstructure:"connect_port" yaml:"connect_port"`
	HostPort         uint16 `mapstructure:"host_port" yaml:"host_port"`
	ListenPort       uint16 `mapstructure:"listen_port" yaml:"listen_port"`
	HostCode         string `mapstructure:"host_code" yaml:"host_code"`
	TraversalChoice  string `mapstructure:"traversal_choice" yaml:"traversal_choice"`
	TraversalServer  string `mapstructure:"traversal_server" yaml:"traversal_server"`
	TraversalPort    uint16 `mapstructure:"traversal_port" yaml:"traversal_port"`
	TraversalPortAlt uint16 `mapstructure:"traversal_port_alt" yaml:"traversal_port_alt"`
	UseUPnP          bool   `mapstructure:"use_upnp" yaml:"use_upnp"`
	EnableQoS        bool   `mapstructure:"enable_qos" yaml:"enable_qos"`
	NetworkMode      string `mapstructure:"network_mode" yaml:"network_mode"`
	BufferSize       uint32 `mapstructure:"buffer_size" yaml:"buffer_size"`
	ClientBufferSize uint32 `mapstructure:"client_buffer_size" yaml:"client_buffer_size"`

	UseIndex      bool   `mapstructure:"use_index" yaml:"use_index"`
	IndexName     string `mapstructure:"index_name" yaml:"index_name"`
	IndexRegion   string `mapstructure:"index_region" yaml:"index_region"`
	IndexPassword string `mapstructure:"index_password" yaml:"index_password"`
	IndexServer   string `mapstructure:"index_server" yaml:"index_server"`

	SaveDataLoad       bool `mapstructure:"savedata_load" yaml:"savedata_load"`
	SaveDataWrite      bool `mapstructure:"savedata_write" yaml:"savedata_write"`
	SaveDataSyncAllWii bool `mapstructure:"savedata_sync_all_wii" yaml:"savedata_sync_all_wii"`
	SyncCodes          bool `mapstructure:"sync_codes" yaml:"sync_codes"`
	StrictSettingsSync bool `mapstructure:"strict_settings_sync" yaml:"strict_settings_sync"`
	RecordInputs       bool `mapstructure:"record_inputs" yaml:"record_inputs"`
	GolfModeOverlay    bool `mapstructure:"golf_mode_overlay" yaml:"golf_mode_overlay"`
	HideRemoteGBAs     bool `mapstructure:"hide_remote_gbas" yaml:"hide_remote_gbas"`
}

// CoreSettings are the emulation settings exposed as host options.
type CoreSettings struct {
	EFBScale         int       `mapstructure:"efb_scale" yaml:"efb_scale"`
	WidescreenHack   bool      `mapstructure:"widescreen_hack" yaml:"widescreen_hack"`
	VSync            bool      `mapstructure:"vsync" yaml:"vsync"`
	CPUThread        bool      `mapstructure:"cpu_thread" yaml:"cpu_thread"`
	DSPHLE           bool      `mapstructure:"dsp_hle" yaml:"dsp_hle"`
	SyncOnSkipIdle   bool      `mapstructure:"sync_on_skip_idle" yaml:"sync_on_skip_idle"`
	EnableCheats     bool      `mapstructure:"enable_cheats" yaml:"enable_cheats"`
	EnableSaveStates bool      `mapstructure:"enable_savestates" yaml:"enable_savestates"`
	WiimoteSpeaker   bool      `mapstructure:"wiimote_speaker" yaml:"wiimote_speaker"`
	WiimoteSources   [4]string `mapstructure:"wiimote_sources" yaml:"wiimote_sources"`
}

type Settings struct {
	NetPlay NetPlaySettings `mapstructure:"netplay" yaml:"netplay"`
	Core    CoreSettings    `mapstructure:"core" yaml:"core"`
}

func Default() Settings {
	return Settings{
		NetPlay: NetPlaySettings{
			Nickname:         "Player",
			Address:          "127.0.0.1",
			ConnectPort:      DefaultPort,
			HostPort:         DefaultPort,
			ListenPort:       DefaultPort,
			HostCode:         DefaultHostCode,
			TraversalChoice:  TraversalChoiceDirect,
			TraversalServer:  DefaultTraversalServer,
			TraversalPort:    DefaultTraversalPort,
			TraversalPortAlt: DefaultTraversalPortAlt,
			EnableQoS:        true,
			NetworkMode:      "fixeddelay",
			BufferSize:       5,
			ClientBufferSize: 1,
			IndexRegion:      DefaultRegion,
			IndexServer:      DefaultIndexServer,
			SaveDataLoad:     true,
			SaveDataWrite:    true,
			SyncCodes:        true,
			GolfModeOverlay:  true,
		},
		Core: CoreSettings{
			EFBScale:         1,
			CPUThread:        true,
			DSPHLE:           true,
			SyncOnSkipIdle:   true,
			EnableSaveStates: true,
			WiimoteSources:   [4]string{WiimoteEmulated, WiimoteNone, WiimoteNone, WiimoteNone},
		},
	}
}
