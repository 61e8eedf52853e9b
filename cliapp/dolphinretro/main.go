package main

import (
	"fmt"
	"os"
	"path/filepath"

	"dolphinretro/util"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// include these room directory drivers:
import (
	_ "dolphinretro/lobby/grpcdir"
	_ "dolphinretro/lobby/httpdir"
	_ "dolphinretro/lobby/mock"
	_ "dolphinretro/lobby/wsdir"
)

type app struct {
	configPath string
	logLevel   string
}

func (a *app) logger() zerolog.Logger {
	return util.NewLogger(a.logLevel, nil)
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dolphinretro", "dolphinretro.yml")
	}
	return "dolphinretro.yml"
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "dolphinretro",
		Short:         "Boot, netplay and cheat orchestration for the Dolphin libretro core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", defaultConfigPath(), "settings file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	root.AddCommand(
		a.newRunCommand(),
		a.newRoomsCommand(),
		a.newClassifyCommand(),
		a.newLobbyCommand(),
	)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dolphinretro: %v\n", err)
		os.Exit(1)
	}
}
