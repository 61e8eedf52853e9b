package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"dolphinretro/config"
	"dolphinretro/emucore/mock"
	"dolphinretro/engine"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/spf13/cobra"
)

type runOptions struct {
	ticks      int
	fps        int
	stats      bool
	startAfter int

	mode        string
	connection  string
	address     string
	connectPort int
	hostPort    int
	room        string
	nickname    string

	cheats []string
	set    []string
}

func (a *app) newRunCommand() *cobra.Command {
	o := runOptions{}

	cmd := &cobra.Command{
		Use:   "run <game>",
		Short: "Run a game headless against the in-memory core",
		Long: "Run drives the orchestration loop the way a libretro frontend would, " +
			"with an in-memory emulation core. Use it to exercise netplay sessions and cheats.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), cmd.OutOrStdout(), args[0], o)
		},
	}

	f := cmd.Flags()
	f.IntVar(&o.ticks, "ticks", 600, "number of ticks to run; 0 runs until interrupted")
	f.IntVar(&o.fps, "fps", 60, "ticks per second; 0 runs unpaced")
	f.BoolVar(&o.stats, "stats", false, "print a histogram of tick durations")
	f.IntVar(&o.startAfter, "start-after", -1, "when hosting, start the netplay game after this many ticks")
	f.StringVar(&o.mode, "netplay", "", "netplay mode (disabled, host, join)")
	f.StringVar(&o.connection, "connection", "", "netplay connection (direct, traversal, lobby)")
	f.StringVar(&o.address, "address", "", "address to join in direct mode")
	f.IntVar(&o.connectPort, "port", 0, "port to join")
	f.IntVar(&o.hostPort, "host-port", 0, "port to host on")
	f.StringVar(&o.room, "room", "", "lobby room label to join, as printed by the rooms command")
	f.StringVar(&o.nickname, "nickname", "", "netplay nickname")
	f.StringArrayVar(&o.cheats, "cheat", nil, "cheat code for the next slot; may be repeated")
	f.StringArrayVar(&o.set, "set", nil, "host option as key=value; may be repeated")
	return cmd
}

// variables turns the flags into host option values.
func (o runOptions) variables() (map[string]string, error) {
	vars := make(map[string]string)
	put := func(key, value string) {
		if value != "" {
			vars[key] = value
		}
	}
	port := func(key string, value int) {
		if value != 0 {
			vars[key] = strconv.Itoa(value)
		}
	}

	put(config.KeyNetPlayMode, o.mode)
	put(config.KeyNetPlayConnection, o.connection)
	put(config.KeyNetPlayAddress, o.address)
	put(config.KeyNetPlayLobbyRoom, o.room)
	put(config.KeyNetPlayNickname, o.nickname)
	port(config.KeyNetPlayConnectPort, o.connectPort)
	port(config.KeyNetPlayHostPort, o.hostPort)

	for _, kv := range o.set {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--set %q: expected key=value", kv)
		}
		if !strings.HasPrefix(key, "dolphin_") {
			key = "dolphin_" + key
		}
		vars[key] = value
	}
	return vars, nil
}

func (a *app) run(ctx context.Context, out io.Writer, path string, o runOptions) error {
	vars, err := o.variables()
	if err != nil {
		return err
	}

	log := a.logger()
	host := newHeadlessHost(log, vars, o.nickname)
	core := mock.NewCore()

	ec := engine.New(engine.Host{
		Env:        host,
		Input:      host,
		Video:      host,
		AudioBatch: host,
		Messages:   host,
	}, core, engine.Options{
		ConfigPath: a.configPath,
		LogLevel:   a.logLevel,
	})
	core.Present = ec.PresentFrame

	ec.Init()
	defer ec.Deinit()

	for i, code := range o.cheats {
		ec.SetCheat(i, true, code)
	}

	if !ec.LoadGame(path) {
		return fmt.Errorf("load %s: failed; %s", path, orElse(ec.Status(), "see log"))
	}
	ec.ContextReset()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var pace <-chan time.Time
	if o.fps > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(o.fps))
		defer ticker.Stop()
		pace = ticker.C
	}

	var durations []float64
	ticks := 0
loop:
	for o.ticks <= 0 || ticks < o.ticks {
		if ticks == o.startAfter {
			host.Set(config.KeyNetPlayStart, config.Yes)
		}

		start := time.Now()
		ec.Tick()
		if o.stats {
			durations = append(durations, float64(time.Since(start).Microseconds()))
		}
		ticks++

		if pace == nil {
			if ctx.Err() != nil {
				break loop
			}
			continue
		}
		select {
		case <-ctx.Done():
			break loop
		case <-pace:
		}
	}

	s := host.Stats()
	fmt.Fprintf(out, "ticks:        %d\n", ticks)
	fmt.Fprintf(out, "boot state:   %s\n", ec.BootState())
	fmt.Fprintf(out, "core frames:  %d\n", core.Frame())
	fmt.Fprintf(out, "hw frames:    %d (%dx%d)\n", s.HWFrames, s.Width, s.Height)
	fmt.Fprintf(out, "dummy frames: %d\n", s.DummyFrames)
	fmt.Fprintf(out, "audio frames: %d\n", s.Samples)
	if id := ec.Netplay().SessionID(); id != "" {
		fmt.Fprintf(out, "session:      %s\n", id)
	}
	if status := ec.Status(); status != "" {
		fmt.Fprintf(out, "status:       %s\n", status)
	}

	if o.stats && len(durations) > 0 {
		fmt.Fprintln(out, "tick duration (us):")
		if err = histogram.Fprint(out, histogram.Hist(20, durations), histogram.Linear(40)); err != nil {
			return err
		}
	}
	return nil
}

func orElse(a, b string) string {
	if a == "" {
		return b
	}
	return a
}
