// Package report delivers ranked cycles to their consumers: the console,
// a CSV file, SQLite, Redis and the in-memory view behind /cycles.
package report

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/PeleiaDePelego/BotBinance/internal/graph"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/metrics"
	"github.com/PeleiaDePelego/BotBinance/internal/strategy"
)

// Iteration is one scan's ranked output.
type Iteration struct {
	Seq    int
	At     time.Time
	Graph  *graph.Graph
	Cycles []graph.Cycle
}

type Sink interface {
	Name() string
	Report(ctx context.Context, it Iteration) error
	Close() error
}

// CycleView is the serialised form of a cycle.
type CycleView struct {
	Path         string   `json:"path"`
	Coins        []string `json:"coins"`
	ProfitFactor float64  `json:"profit_factor"`
	ProfitPct    float64  `json:"profit_pct"`
}

func View(c graph.Cycle) CycleView {
	return CycleView{Path: c.Path(), Coins: c.Coins, ProfitFactor: c.Profit, ProfitPct: c.ProfitPct()}
}

// IterationView is the serialised form of an iteration.
type IterationView struct {
	Seq    int         `json:"seq"`
	At     time.Time   `json:"at"`
	Cycles []CycleView `json:"cycles"`
}

func ViewIteration(it Iteration) IterationView {
	out := IterationView{Seq: it.Seq, At: it.At, Cycles: make([]CycleView, 0, len(it.Cycles))}
	for _, c := range it.Cycles {
		out.Cycles = append(out.Cycles, View(c))
	}
	return out
}

// Multi fans an iteration out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Name() string { return "multi" }

func (m Multi) Report(ctx context.Context, it Iteration) error {
	var errs []error
	for _, s := range m {
		if err := s.Report(ctx, it); err != nil {
			metrics.SinkErrorsTotal.WithLabelValues(s.Name()).Inc()
			errs = append(errs, err)
			continue
		}
		if _, ok := s.(Filtered); ok {
			continue // counts what survived its threshold
		}
		metrics.CyclesReported.WithLabelValues(s.Name()).Add(float64(len(it.Cycles)))
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// Filtered forwards only cycles at or above MinProfitPct.
type Filtered struct {
	Next         Sink
	MinProfitPct float64
}

func (f Filtered) Name() string { return f.Next.Name() }

func (f Filtered) Report(ctx context.Context, it Iteration) error {
	it.Cycles = strategy.Filter(it.Cycles, f.MinProfitPct)
	if err := f.Next.Report(ctx, it); err != nil {
		return err
	}
	metrics.CyclesReported.WithLabelValues(f.Name()).Add(float64(len(it.Cycles)))
	return nil
}

func (f Filtered) Close() error { return f.Next.Close() }

// Latest remembers the most recent iteration for readers such as the REST API.
type Latest struct {
	mu sync.RWMutex
	it IterationView
	ok bool
}

func NewLatest() *Latest { return &Latest{} }

func (l *Latest) Name() string { return "latest" }

func (l *Latest) Report(ctx context.Context, it Iteration) error {
	v := ViewIteration(it)
	l.mu.Lock()
	l.it, l.ok = v, true
	l.mu.Unlock()
	return nil
}

func (l *Latest) Close() error { return nil }

// Get returns the last iteration and whether one has been reported yet.
func (l *Latest) Get() (IterationView, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.it, l.ok
}
