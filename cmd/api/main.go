package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"ridematch/internal/api"
	"ridematch/internal/buildinfo"
	"ridematch/internal/config"
	"ridematch/internal/metrics"
	"ridematch/internal/scheduler"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	if cfg.Development() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	metrics.RegisterDefault()

	srvDeps, err := api.NewServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init server")
	}
	defer func() { _ = srvDeps.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srvDeps.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("version", buildinfo.Version).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("graceful shutdown HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Start webhook worker
	worker := srvDeps.NewWebhookWorker()
	g.Go(func() error {
		return worker.Run(ctx)
	})

	if cfg.AutoMatchSchedule != "" {
		am, err := scheduler.NewAutoMatcher(srvDeps.Dispatch, cfg.AutoMatchSchedule, cfg.SolveTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid auto-match schedule")
		}
		if err := am.Start(); err != nil {
			log.Fatal().Err(err).Msg("cannot start auto-matcher")
		}
		g.Go(func() error {
			<-ctx.Done()
			am.Stop()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}
