package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"example.com/elliott-wave-analyzer/internal/analyzer"
	"example.com/elliott-wave-analyzer/internal/config"
	"example.com/elliott-wave-analyzer/internal/httpapi"
	"example.com/elliott-wave-analyzer/internal/labeler"
	"example.com/elliott-wave-analyzer/internal/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config, defaults used when empty")
	addr := flag.String("addr", "", "listen address, overrides config")
	corsOrigins := flag.String("cors-origins", "*", "comma separated allowed origins")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("load config")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log := newLogger(cfg)
	log.Info().Str("addr", cfg.Server.Addr).Str("strategy", cfg.Labeler.Strategy).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	an, err := analyzer.New(analyzer.Config{
		MinProbability: cfg.Analyzer.MinProbability,
		MaxSwings:      cfg.Analyzer.MaxSwings,
		MaxResults:     cfg.Analyzer.MaxResults,
		Workers:        cfg.Analyzer.Workers,
		Confirmation:   cfg.Analyzer.Confirmation,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("analyzer init")
	}

	lb, err := labeler.New(labeler.Config{
		MinProbability: cfg.Labeler.MinProbability,
		Stride:         cfg.Labeler.Stride,
		MaxPerStart:    cfg.Labeler.MaxPerStart,
		MinWindow:      cfg.Labeler.MinWindow,
		Strategy:       labeler.Strategy(cfg.Labeler.Strategy),
		Workers:        cfg.Labeler.Workers,
		Impulse:        true,
		Correction:     true,
	}, an, log)
	if err != nil {
		log.Fatal().Err(err).Msg("labeler init")
	}

	var rec *metrics.Recorder
	if cfg.Metrics.Enabled {
		rec = metrics.New()
	}

	api := httpapi.New(an, lb, rec, log)
	api.MetricsPath = cfg.Metrics.Path
	api.AllowedOrigins = httpapi.ParseAllowedOrigins(*corsOrigins)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var out = zerolog.New(os.Stderr)
	if cfg.Log.Pretty {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return out.Level(level).With().Timestamp().Logger()
}
