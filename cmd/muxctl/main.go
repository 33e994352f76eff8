package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/edgemux/internal/admin"
	"github.com/danmuck/edgemux/internal/auth"
	"github.com/danmuck/edgemux/internal/mux"
	"github.com/danmuck/edgemux/internal/observability"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to muxctl TOML config")
	flag.Parse()

	observability.InitLogger("muxctl")
	cfg := defaultAppConfig()
	if *configPath != "" {
		loaded, err := loadAppConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "muxctl: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "muxctl: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg appConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []mux.Option{
		mux.WithSide(cfg.Side),
		mux.WithLogger(log.With().Str("app", cfg.ID).Logger()),
	}
	if cfg.RemoteAddr != "" {
		opts = append(opts, mux.WithPinger(&mux.DialPinger{Address: cfg.RemoteAddr}))
	}
	svc := mux.NewService(cfg.Service, opts...)

	// sessions do not inherit the signal context: a signal is turned into
	// an orderly Close below
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancel()
		return svc.Run(gctx)
	})
	if cfg.AdminAddr != "" {
		srv := admin.New(cfg.ID, cfg.AdminAddr, svc, cfg.CorsOrigins)
		if cfg.AdminToken != "" {
			srv.Auth = auth.StaticToken{Token: cfg.AdminToken}
		}
		g.Go(func() error {
			return srv.Serve(gctx)
		})
	}
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-ctx.Done():
		}
		log.Info().Str("id", cfg.ID).Msg("muxctl.run signal received")
		closeCtx, cancelClose := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelClose()
		if ctrl := svc.Control(); ctrl != nil {
			ctrl.Close(closeCtx)
			ctrl.Release()
		}
		cancel()
		return nil
	})

	log.Info().Str("id", cfg.ID).Str("admin", cfg.AdminAddr).Str("remote", cfg.RemoteAddr).Msg("muxctl.run start")
	return g.Wait()
}
