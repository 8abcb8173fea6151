package orderexec

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/PeleiaDePelego/BotBinance/internal/exchange/common"
	"github.com/PeleiaDePelego/BotBinance/internal/graph"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/log"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/metrics"
	"github.com/PeleiaDePelego/BotBinance/internal/pnl"
	"github.com/PeleiaDePelego/BotBinance/internal/strategy"
)

type Executor interface {
	// g is the graph c was found in; it may be nil.
	Submit(ctx context.Context, c graph.Cycle, g *graph.Graph) ([]common.Order, error)
}

// PaperExecutor turns a cycle into the market orders it would take and logs
// them. Nothing is sent to an exchange.
type PaperExecutor struct {
	Logger  log.Logger
	Anchors *graph.Anchors
	Markets map[string]common.Market // optional; resolves hops between two anchors
	PnL     *pnl.Tracker             // optional
}

func (p PaperExecutor) Submit(ctx context.Context, c graph.Cycle, g *graph.Graph) ([]common.Order, error) {
	var known func(string) bool
	switch {
	case len(p.Markets) > 0:
		known = func(sym string) bool { _, ok := p.Markets[sym]; return ok }
	case g != nil:
		known = g.HasSymbol
	}
	orders, err := Legs(c, p.Anchors, known)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].ID = uuid.NewString()
		o := orders[i]
		metrics.OrdersSubmitted.WithLabelValues("paper").Inc()
		p.Logger.Info().
			Int("leg", i+1).
			Str("cycle", c.Path()).
			Str("id", o.ID).
			Str("symbol", o.Symbol).
			Str("side", string(o.Side)).
			Float64("profit_bps", strategy.ProfitBps(c.Profit)).
			Msg("paper order")
	}
	if p.PnL != nil {
		p.PnL.Record(c)
		p.Logger.Info().
			Str("root", c.Coins[0]).
			Int("trades", p.PnL.Trades()).
			Float64("realized", p.PnL.Realized(c.Coins[0])).
			Msg("paper pnl")
	}
	return orders, nil
}

// Legs maps every hop of c onto a market order. With a known market list
// the hop buys "to+from" or sells "from+to", whichever exists. Without one,
// each candidate must split under anchors the way the graph builder would
// split it; when both do, the quote ranked earlier among the anchors wins.
func Legs(c graph.Cycle, anchors *graph.Anchors, known func(symbol string) bool) ([]common.Order, error) {
	if len(c.Coins) < 2 {
		return nil, fmt.Errorf("cycle %q has no hops", c.Path())
	}
	out := make([]common.Order, 0, len(c.Coins)-1)
	for i := 0; i+1 < len(c.Coins); i++ {
		from, to := c.Coins[i], c.Coins[i+1]
		buy, sell := to+from, from+to
		var buyOK, sellOK bool
		if known != nil {
			buyOK, sellOK = known(buy), known(sell)
		} else {
			buyOK = splitsAs(anchors, buy, to, from)
			sellOK = splitsAs(anchors, sell, from, to)
			if buyOK && sellOK {
				buyOK = anchors.Rank(from) < anchors.Rank(to)
				sellOK = !buyOK
			}
		}
		switch {
		case buyOK:
			out = append(out, common.Order{Symbol: buy, Side: common.Buy})
		case sellOK:
			out = append(out, common.Order{Symbol: sell, Side: common.Sell})
		default:
			return nil, fmt.Errorf("no market for hop %s->%s", from, to)
		}
	}
	return out, nil
}

func splitsAs(anchors *graph.Anchors, symbol, base, quote string) bool {
	sec, pri, ok := anchors.SplitSymbol(symbol)
	return ok && sec == base && pri == quote
}
