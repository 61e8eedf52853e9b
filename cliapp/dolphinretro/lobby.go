package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dolphinretro/lobby/lobbyserver"
	"dolphinretro/util"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	httpAddr string
	grpcAddr string
	ttl      time.Duration
}

func (a *app) newLobbyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lobby",
		Short: "Room directory tools",
	}

	o := serveOptions{}
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve a room directory over HTTP, websocket and gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serveLobby(ctx, o)
		},
	}

	f := serve.Flags()
	f.StringVar(&o.httpAddr, "http", "127.0.0.1:2627", "HTTP and websocket listen address")
	f.StringVar(&o.grpcAddr, "grpc", "127.0.0.1:2628", "gRPC listen address; empty disables gRPC")
	f.DurationVar(&o.ttl, "ttl", lobbyserver.DefaultTTL, "how long a room stays listed without a keepalive")

	cmd.AddCommand(serve)
	return cmd
}

func (a *app) serveLobby(ctx context.Context, o serveOptions) error {
	log := a.logger()
	if log.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := lobbyserver.NewRegistry()
	reg.TTL = o.ttl
	srv := lobbyserver.New(log, reg)

	httpServer := &http.Server{
		Addr:              o.httpAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 2)
	go func() {
		defer func() {
			if err := recover(); err != nil {
				util.LogPanic(log, err)
			}
		}()
		log.Info().Str("addr", o.httpAddr).Msg("lobby: serving http")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	var g *grpc.Server
	if o.grpcAddr != "" {
		lis, err := net.Listen("tcp", o.grpcAddr)
		if err != nil {
			_ = httpServer.Close()
			return err
		}

		g = grpc.NewServer()
		srv.RegisterGRPC(g)
		go func() {
			defer func() {
				if err := recover(); err != nil {
					util.LogPanic(log, err)
				}
			}()
			log.Info().Str("addr", lis.Addr().String()).Msg("lobby: serving grpc")
			if err := g.Serve(lis); err != nil {
				errc <- err
			}
		}()
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errc:
		log.Error().Err(err).Msg("lobby: server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		log.Warn().Err(serr).Msg("lobby: http shutdown")
	}
	if g != nil {
		g.GracefulStop()
	}

	log.Info().Int("rooms", reg.Len()).Msg("lobby: stopped")
	return err
}
