package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PeleiaDePelego/BotBinance/internal/arbitrage"
	"github.com/PeleiaDePelego/BotBinance/internal/backtest"
	"github.com/PeleiaDePelego/BotBinance/internal/config"
	"github.com/PeleiaDePelego/BotBinance/internal/graph"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/health"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/log"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/metrics"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/runner"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/version"
	"github.com/PeleiaDePelego/BotBinance/internal/orderexec"
	"github.com/PeleiaDePelego/BotBinance/internal/pnl"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	logger := log.NewLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("bad configuration")
	}
	v := version.Get()
	logger.Info().Str("version", v.Version).Str("commit", v.Commit).Msg("starting")

	sinks, latest, err := buildSinks(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open sinks")
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Error().Err(err).Msg("close sinks")
		}
	}()

	// Offline replay: ARBITR_BACKTEST_CSV=/path/to/quotes.csv
	if path := os.Getenv("ARBITR_BACKTEST_CSV"); path != "" {
		if _, err := backtest.RunFile(ctx, path, cfg, sinks, logger); err != nil {
			logger.Error().Err(err).Msg("backtest failed")
		}
		return
	}

	registry := metrics.Init(logger)
	handler, err := buildMux(cfg, logger, registry, latest)
	if err != nil {
		logger.Fatal().Err(err).Msg("http setup")
	}
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()
	logger.Info().Str("addr", cfg.Server.Addr).Msg("http listening")

	source, markets, err := buildSource(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("quote source")
	}
	var exec orderexec.Executor
	if cfg.Trading.Enabled {
		exec = orderexec.PaperExecutor{
			Logger:  logger,
			Anchors: graph.NewAnchors(cfg.Scanner.Anchors),
			Markets: markets,
			PnL:     pnl.NewTracker(),
		}
		logger.Warn().Msg("trading enabled in paper mode; no orders leave the process")
	}

	g, gctx := runner.WithContext(ctx)
	workerErrCh := g.Go(gctx, func(ctx context.Context) error {
		return arbitrage.New(cfg, source, sinks, exec, logger).Run(ctx)
	})

	health.SetReady(true)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sigCh:
		logger.Info().Str("signal", s.String()).Msg("shutdown signal received")
	case err := <-workerErrCh:
		if err != nil {
			logger.Error().Err(err).Msg("scanner error")
		}
	}

	health.SetReady(false)
	cancel()
	_ = g.Wait()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := source.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("source stop")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("shutdown complete")
}
