package backtest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/PeleiaDePelego/BotBinance/internal/config"
	"github.com/PeleiaDePelego/BotBinance/internal/exchange/common"
	"github.com/PeleiaDePelego/BotBinance/internal/graph"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/log"
	"github.com/PeleiaDePelego/BotBinance/internal/report"
	"github.com/PeleiaDePelego/BotBinance/internal/strategy"
)

// Result summarises a replay.
type Result struct {
	Rows       int
	Skipped    int
	Snapshots  int
	Cycles     int
	Profitable int
	Best       graph.Cycle
	// BestGross is the rate product of Best before fees.
	BestGross float64
}

// RunFile replays the CSV at path. See Run for the format.
func RunFile(ctx context.Context, path string, cfg config.Config, sink report.Sink, logger log.Logger) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()
	return Run(ctx, f, cfg, sink, logger)
}

// Run replays recorded quotes through the detection pipeline.
// CSV format: ts,symbol,bid,ask. Consecutive rows sharing ts form one
// snapshot. ts is unix milliseconds or RFC3339. A header row is skipped.
// sink may be nil.
func Run(ctx context.Context, r io.Reader, cfg config.Config, sink report.Sink, logger log.Logger) (Result, error) {
	anchors := graph.NewAnchors(cfg.Scanner.Anchors)
	logger = log.Component(logger, "backtest")
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	var (
		res     Result
		curTS   string
		tickers []common.Ticker
	)
	flush := func() error {
		if len(tickers) == 0 {
			return nil
		}
		res.Snapshots++
		g, _ := graph.Build(tickers, anchors)
		cycles, _ := graph.Detect(g, cfg.Scanner.Roots, cfg.Scanner.Fee)
		res.Cycles += len(cycles)
		res.Profitable += len(strategy.Filter(cycles, cfg.Report.MinProfitPct))
		if len(cycles) > 0 && cycles[0].Profit > res.Best.Profit {
			res.Best = cycles[0]
			res.BestGross = strategy.CompoundFee(hopRates(g, res.Best), 0)
		}
		tickers = tickers[:0]
		if sink == nil {
			return nil
		}
		return sink.Report(ctx, report.Iteration{Seq: res.Snapshots, At: parseTS(curTS), Graph: g, Cycles: cycles})
	}
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("backtest line %d: %w", line, err)
		}
		if len(rec) < 4 {
			res.Skipped++
			continue
		}
		bid, errB := strconv.ParseFloat(rec[2], 64)
		ask, errA := strconv.ParseFloat(rec[3], 64)
		if errB != nil || errA != nil {
			if line > 1 {
				res.Skipped++
			}
			continue
		}
		res.Rows++
		if rec[0] != curTS {
			if err := flush(); err != nil {
				return res, err
			}
			curTS = rec[0]
		}
		tickers = append(tickers, common.Ticker{Symbol: rec[1], Bid: bid, Ask: ask})
	}
	if err := flush(); err != nil {
		return res, err
	}
	logger.Info().
		Int("rows", res.Rows).
		Int("skipped", res.Skipped).
		Int("snapshots", res.Snapshots).
		Int("cycles", res.Cycles).
		Int("profitable", res.Profitable).
		Str("best", res.Best.Path()).
		Float64("best_pct", res.Best.ProfitPct()).
		Float64("best_gross", res.BestGross).
		Msg("backtest complete")
	return res, nil
}

func hopRates(g *graph.Graph, c graph.Cycle) []float64 {
	out := make([]float64, 0, len(c.Coins))
	for i := 0; i+1 < len(c.Coins); i++ {
		r, _ := g.Rate(c.Coins[i], c.Coins[i+1])
		out = append(out, r)
	}
	return out
}

func parseTS(s string) time.Time {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Time{}
}
