package arbitrage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PeleiaDePelego/BotBinance/internal/config"
	"github.com/PeleiaDePelego/BotBinance/internal/exchange/common"
	"github.com/PeleiaDePelego/BotBinance/internal/graph"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/log"
	"github.com/PeleiaDePelego/BotBinance/internal/report"
)

type fakeSource struct {
	mu      sync.Mutex
	calls   int
	failOn  map[int]bool
	tickers []common.Ticker
}

func (f *fakeSource) Name() string                    { return "fake" }
func (f *fakeSource) Start(ctx context.Context) error { return nil }
func (f *fakeSource) Stop(ctx context.Context) error  { return nil }
func (f *fakeSource) GetBookTickers(ctx context.Context) ([]common.Ticker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failOn[f.calls] {
		return nil, errors.New("exchange down")
	}
	return f.tickers, nil
}

// one profitable loop: USDT->ETH->BTC->USDT = 0.0005 * 0.06 * 40000 = 1.2
func profitableTickers() []common.Ticker {
	return []common.Ticker{
		{Symbol: "ETHUSDT", Bid: 2000, Ask: 2000},
		{Symbol: "ETHBTC", Bid: 0.06, Ask: 0.06},
		{Symbol: "BTCUSDT", Bid: 40000, Ask: 40000},
		{Symbol: "DEADUSDT", Bid: 1, Ask: 0},
	}
}

type recordSink struct {
	mu  sync.Mutex
	its []report.Iteration
}

func (r *recordSink) Name() string { return "record" }
func (r *recordSink) Report(ctx context.Context, it report.Iteration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.its = append(r.its, it)
	return nil
}
func (r *recordSink) Close() error { return nil }

type recordExec struct{ got []graph.Cycle }

func (r *recordExec) Submit(ctx context.Context, c graph.Cycle, g *graph.Graph) ([]common.Order, error) {
	r.got = append(r.got, c)
	return nil, nil
}

func testConfig() config.Config {
	cfg := config.Load()
	cfg.Scanner.Anchors = []string{"USDT", "BTC"}
	cfg.Scanner.Roots = []string{"USDT"}
	cfg.Scanner.Fee = 0
	cfg.Scanner.IntervalMs = 5
	cfg.Scanner.MaxIterations = 3
	cfg.Scanner.FetchTimeoutMs = 500
	return cfg
}

func TestScan(t *testing.T) {
	eng := New(testConfig(), &fakeSource{tickers: profitableTickers()}, &recordSink{}, nil, log.Nop())
	it, err := eng.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if it.Seq != 1 || len(it.Cycles) != 1 {
		t.Fatalf("unexpected iteration %+v", it)
	}
	if it.Cycles[0].Path() != "USDT->ETH->BTC->USDT" {
		t.Fatalf("unexpected cycle %s", it.Cycles[0].Path())
	}
	if it.Cycles[0].Profit < 1.1999 || it.Cycles[0].Profit > 1.2001 {
		t.Fatalf("unexpected profit %v", it.Cycles[0].Profit)
	}
	if _, ok := it.Graph.Rate("USDT", "DEAD"); ok {
		t.Fatalf("zero-ask market leaked into the graph")
	}
}

func TestRunStopsAtIterationLimit(t *testing.T) {
	src := &fakeSource{tickers: profitableTickers(), failOn: map[int]bool{2: true}}
	sink := &recordSink{}
	eng := New(testConfig(), src, sink, nil, log.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := eng.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatalf("run should stop on its own before the deadline")
	}
	if src.calls != 3 {
		t.Fatalf("expected 3 fetches, got %d", src.calls)
	}
	// the failed fetch is skipped, not reported
	if len(sink.its) != 2 || sink.its[0].Seq != 1 || sink.its[1].Seq != 3 {
		t.Fatalf("unexpected reported iterations %+v", sink.its)
	}
}

func TestRunHonoursCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Scanner.MaxIterations = 0
	eng := New(cfg, &fakeSource{tickers: profitableTickers()}, &recordSink{}, nil, log.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
}

func TestDispatch(t *testing.T) {
	cfg := testConfig()
	cfg.Scanner.MaxIterations = 1
	exec := &recordExec{}

	eng := New(cfg, &fakeSource{tickers: profitableTickers()}, &recordSink{}, exec, log.Nop())
	_ = eng.Run(context.Background())
	if len(exec.got) != 0 {
		t.Fatalf("executor must not be used while trading is disabled")
	}

	cfg.Trading.Enabled = true
	eng = New(cfg, &fakeSource{tickers: profitableTickers()}, &recordSink{}, exec, log.Nop())
	_ = eng.Run(context.Background())
	if len(exec.got) != 1 || exec.got[0].Path() != "USDT->ETH->BTC->USDT" {
		t.Fatalf("expected the best cycle to be submitted, got %+v", exec.got)
	}

	cfg.Report.MinProfitPct = 50 // the loop only makes 20%
	exec.got = nil
	eng = New(cfg, &fakeSource{tickers: profitableTickers()}, &recordSink{}, exec, log.Nop())
	_ = eng.Run(context.Background())
	if len(exec.got) != 0 {
		t.Fatalf("cycles under the threshold must not be submitted")
	}
}

func TestDispatchCooldown(t *testing.T) {
	cfg := testConfig()
	cfg.Trading.Enabled = true
	cfg.Trading.CooldownMs = 60_000
	exec := &recordExec{}
	eng := New(cfg, &fakeSource{tickers: profitableTickers()}, &recordSink{}, exec, log.Nop())
	_ = eng.Run(context.Background())
	if len(exec.got) != 1 {
		t.Fatalf("a persistent cycle should be submitted once per cooldown, got %d", len(exec.got))
	}

	cfg.Trading.CooldownMs = 0
	exec.got = nil
	eng = New(cfg, &fakeSource{tickers: profitableTickers()}, &recordSink{}, exec, log.Nop())
	_ = eng.Run(context.Background())
	if len(exec.got) != 3 {
		t.Fatalf("without cooldown every iteration submits, got %d", len(exec.got))
	}
}
