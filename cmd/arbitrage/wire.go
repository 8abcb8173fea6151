package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/PeleiaDePelego/BotBinance/internal/api/rest"
	"github.com/PeleiaDePelego/BotBinance/internal/config"
	"github.com/PeleiaDePelego/BotBinance/internal/exchange/binance"
	"github.com/PeleiaDePelego/BotBinance/internal/exchange/common"
	"github.com/PeleiaDePelego/BotBinance/internal/graph"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/health"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/http/middleware"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/log"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/metrics"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/netutil"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/vault"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/version"
	"github.com/PeleiaDePelego/BotBinance/internal/report"
)

// buildMux assembles the admin and API surface.
func buildMux(cfg config.Config, logger log.Logger, reg *prometheus.Registry, latest *report.Latest) (http.Handler, error) {
	adminCIDRs, err := netutil.ParseCIDRs(cfg.Server.AdminAllowCIDRs)
	if err != nil {
		return nil, fmt.Errorf("admin_allow_cidrs: %w", err)
	}
	api := rest.New(latest).Handler()

	mux := http.NewServeMux()
	mux.Handle("/metrics", middleware.AdminGate(adminCIDRs, metrics.Handler(reg)))
	mux.HandleFunc("/healthz", health.Healthz)
	mux.HandleFunc("/readyz", health.Readyz)
	mux.HandleFunc("/version", version.Handler)
	mux.Handle("/cycles", api)
	mux.Handle("/status", api)
	if cfg.Server.Pprof {
		mux.Handle("/debug/pprof/", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Index)))
		mux.Handle("/debug/pprof/cmdline", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Cmdline)))
		mux.Handle("/debug/pprof/profile", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Profile)))
		mux.Handle("/debug/pprof/symbol", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Symbol)))
		mux.Handle("/debug/pprof/trace", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Trace)))
	}
	return middleware.RequestID(middleware.Logger(logger)(middleware.Recover(logger)(mux))), nil
}

// buildSinks opens every configured sink. The returned Latest is always
// part of the fan-out and is never filtered.
func buildSinks(ctx context.Context, cfg config.Config, logger log.Logger) (report.Sink, *report.Latest, error) {
	latest := report.NewLatest()
	var filtered report.Multi
	closeAll := func() { _ = filtered.Close() }

	if cfg.Report.Console {
		filtered = append(filtered, report.NewConsole(os.Stdout))
	}
	if cfg.Report.CSVPath != "" {
		s, err := report.OpenCSV(cfg.Report.CSVPath)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		filtered = append(filtered, s)
	}
	if cfg.Report.SQLitePath != "" {
		s, err := report.OpenSQLite(cfg.Report.SQLitePath)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		filtered = append(filtered, s)
	}
	if rc := cfg.Report.Redis; rc.Addr != "" {
		s := report.NewRedis(report.RedisOptions{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
			Key:      rc.Key,
			TTL:      time.Duration(rc.TTLSeconds) * time.Second,
			History:  rc.History,
		})
		if err := s.Ping(ctx); err != nil {
			logger.Warn().Err(err).Str("addr", rc.Addr).Msg("redis unreachable; will keep trying per iteration")
		}
		health.Register("redis", s.Ping)
		filtered = append(filtered, s)
	}

	names := make([]string, 0, len(filtered))
	sinks := report.Multi{latest}
	for _, s := range filtered {
		names = append(names, s.Name())
		sinks = append(sinks, report.Filtered{Next: s, MinProfitPct: cfg.Report.MinProfitPct})
	}
	logger.Info().Strs("sinks", names).Float64("min_profit_pct", cfg.Report.MinProfitPct).Msg("reporting configured")
	return sinks, latest, nil
}

// buildSource returns the started quote source and whatever market
// metadata was available.
func buildSource(ctx context.Context, cfg config.Config, logger log.Logger) (common.QuoteSource, map[string]common.Market, error) {
	bc := cfg.Exchanges.Binance
	secrets := vault.Chain{
		vault.EnvStore{Prefix: "ARBITR_"},
		vault.StaticStore{"BINANCE_API_KEY": bc.APIKey, "BINANCE_SECRET": bc.Secret},
	}
	adapter := binance.New(cfg, secrets, logger)
	if err := adapter.Start(ctx); err != nil {
		return nil, nil, err
	}
	var markets map[string]common.Market
	if bc.ExactSymbols || bc.Stream {
		m, err := adapter.ListSymbols(ctx)
		switch {
		case err == nil:
			markets = m
		case bc.Stream:
			return nil, nil, fmt.Errorf("stream needs exchangeInfo: %w", err)
		}
	}
	if !bc.Stream {
		return adapter, markets, nil
	}
	symbols := binance.SelectSymbols(markets, graph.NewAnchors(cfg.Scanner.Anchors))
	ws := binance.NewStream(bc.WSURL, symbols, markets, logger)
	if err := ws.Start(ctx); err != nil {
		return nil, nil, err
	}
	health.Register("binance-ws", func(ctx context.Context) error {
		if _, err := ws.GetBookTickers(ctx); errors.Is(err, binance.ErrNoData) {
			return err
		}
		return nil
	})
	return ws, markets, nil
}
