package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"dolphinretro/config"
	"dolphinretro/lobby"

	"github.com/spf13/cobra"
)

func (a *app) newRoomsCommand() *cobra.Command {
	var (
		index   string
		region  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List lobby rooms as offered to the host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.rooms(cmd.Context(), cmd.OutOrStdout(), index, region, timeout)
		},
	}

	f := cmd.Flags()
	f.StringVar(&index, "index", "", "room directory url (http, https, ws, wss, grpc); defaults to the configured index server")
	f.StringVar(&region, "region", "", "region filter; defaults to the configured lobby region")
	f.DurationVar(&timeout, "timeout", 10*time.Second, "directory query timeout")
	return cmd
}

func (a *app) rooms(ctx context.Context, out io.Writer, index, region string, timeout time.Duration) error {
	log := a.logger()

	if index == "" || region == "" {
		store, err := config.Load(log, a.configPath)
		if err != nil {
			return err
		}
		np := store.Get().NetPlay
		index = orElse(index, np.IndexServer)
		region = orElse(region, np.IndexRegion)
	}

	dir, err := lobby.Open(index)
	if err != nil {
		return err
	}
	defer dir.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	catalog := lobby.NewCatalog(log, dir)
	if err = catalog.Refresh(ctx, region); err != nil {
		return fmt.Errorf("rooms: %w", err)
	}

	for _, label := range catalog.BuildDisplayValues() {
		fmt.Fprintln(out, label)
	}
	return nil
}
