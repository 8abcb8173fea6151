package arbitrage

import (
	"context"

	"github.com/PeleiaDePelego/BotBinance/internal/report"
	"github.com/PeleiaDePelego/BotBinance/internal/strategy"
)

// dispatch hands the best cycle of an iteration to the executor when
// trading is enabled, the cycle clears the reporting threshold and it was
// not submitted within the cooldown.
func (e *Engine) dispatch(ctx context.Context, it report.Iteration) {
	if !e.cfg.Trading.Enabled || e.exec == nil || len(it.Cycles) == 0 {
		return
	}
	best := it.Cycles[0]
	if strategy.Reject(best, e.cfg.Report.MinProfitPct) {
		return
	}
	if !e.gate.Allow(best.Key()) {
		e.logger.Debug().Str("cycle", best.Path()).Msg("cycle cooling down")
		return
	}
	if _, err := e.exec.Submit(ctx, best, it.Graph); err != nil {
		e.logger.Error().Err(err).Str("cycle", best.Path()).Msg("submit failed")
	}
}
