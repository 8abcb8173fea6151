package arbitrage

import (
	"context"
	"fmt"
	"time"

	"github.com/PeleiaDePelego/BotBinance/internal/config"
	"github.com/PeleiaDePelego/BotBinance/internal/exchange/common"
	"github.com/PeleiaDePelego/BotBinance/internal/graph"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/log"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/metrics"
	"github.com/PeleiaDePelego/BotBinance/internal/orderexec"
	"github.com/PeleiaDePelego/BotBinance/internal/report"
	"github.com/PeleiaDePelego/BotBinance/internal/risk"
	"github.com/PeleiaDePelego/BotBinance/internal/strategy"
)

// Engine polls a quote source and runs the detection pipeline once per tick.
type Engine struct {
	cfg     config.Config
	source  common.QuoteSource
	anchors *graph.Anchors
	sink    report.Sink
	exec    orderexec.Executor
	gate    risk.Gate
	logger  log.Logger
	seq     int
}

// New wires an engine. exec may be nil; it is only used when trading is
// enabled in cfg.
func New(cfg config.Config, source common.QuoteSource, sink report.Sink, exec orderexec.Executor, logger log.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		source:  source,
		anchors: graph.NewAnchors(cfg.Scanner.Anchors),
		sink:    sink,
		exec:    exec,
		gate:    risk.NewCooldown(time.Duration(cfg.Trading.CooldownMs) * time.Millisecond),
		logger:  log.Component(logger, "scanner"),
	}
}

// Run scans immediately and then every interval until ctx is done or the
// configured number of iterations has completed.
func (e *Engine) Run(ctx context.Context) error {
	interval := time.Duration(e.cfg.Scanner.IntervalMs) * time.Millisecond
	e.logger.Info().
		Str("source", e.source.Name()).
		Strs("anchors", e.anchors.Codes()).
		Strs("roots", e.cfg.Scanner.Roots).
		Float64("fee", e.cfg.Scanner.Fee).
		Float64("break_even_gross", strategy.BreakEvenGross(graph.Hops, e.cfg.Scanner.Fee)).
		Dur("interval", interval).
		Int("max_iterations", e.cfg.Scanner.MaxIterations).
		Msg("scanner started")

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		e.step(ctx)
		if limit := e.cfg.Scanner.MaxIterations; limit > 0 && e.seq >= limit {
			e.logger.Info().Int("iterations", e.seq).Msg("iteration limit reached")
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

func (e *Engine) step(ctx context.Context) {
	it, err := e.Scan(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.ScanErrorsTotal.Inc()
		e.logger.Warn().Err(err).Int("iteration", e.seq).Msg("scan skipped")
		return
	}
	if err := e.sink.Report(ctx, it); err != nil {
		e.logger.Error().Err(err).Int("iteration", it.Seq).Msg("report failed")
	}
	e.dispatch(ctx, it)
}

// Scan fetches one snapshot and returns its ranked, deduplicated cycles.
// Each call counts as one iteration, failed or not.
func (e *Engine) Scan(ctx context.Context) (report.Iteration, error) {
	e.seq++
	fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.Scanner.FetchTimeoutMs)*time.Millisecond)
	start := time.Now()
	tickers, err := e.source.GetBookTickers(fetchCtx)
	cancel()
	metrics.FetchLatencyMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		return report.Iteration{}, fmt.Errorf("fetch %s: %w", e.source.Name(), err)
	}

	start = time.Now()
	g, bst := graph.Build(tickers, e.anchors)
	cycles, dst := graph.Detect(g, e.cfg.Scanner.Roots, e.cfg.Scanner.Fee)
	elapsed := time.Since(start)

	metrics.ScansTotal.Inc()
	metrics.ScanLatencyMs.Observe(float64(elapsed.Microseconds()) / 1000)
	metrics.TickersReceived.Set(float64(bst.Tickers))
	metrics.TickersSkipped.WithLabelValues("zero_ask").Add(float64(bst.ZeroAsk))
	metrics.TickersSkipped.WithLabelValues("malformed").Add(float64(bst.Malformed))
	metrics.TickersSkipped.WithLabelValues("unmatched").Add(float64(bst.Unmatched))
	metrics.GraphCurrencies.Set(float64(len(g.Currencies())))
	metrics.GraphEdges.Set(float64(g.EdgeCount()))
	metrics.CyclesFound.Add(float64(len(cycles)))
	metrics.CyclesDuplicate.Add(float64(dst.Duplicates))
	best := 0.0
	if len(cycles) > 0 {
		best = cycles[0].ProfitPct()
	}
	metrics.BestProfitPct.Set(best)
	for _, c := range cycles {
		metrics.CycleProfitPct.Observe(c.ProfitPct())
	}

	e.logger.Debug().
		Int("iteration", e.seq).
		Int("tickers", bst.Tickers).
		Int("accepted", bst.Accepted).
		Int("edges", g.EdgeCount()).
		Int("candidates", dst.Candidates).
		Int("cycles", len(cycles)).
		Float64("best_pct", best).
		Dur("took", elapsed).
		Msg("scan complete")

	return report.Iteration{Seq: e.seq, At: time.Now(), Graph: g, Cycles: cycles}, nil
}
