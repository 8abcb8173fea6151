package pnl

import (
	"sort"
	"sync"

	"github.com/PeleiaDePelego/BotBinance/internal/graph"
)

// Tracker accumulates the return of executed cycles per root currency,
// expressed per unit of the root committed to each cycle.
type Tracker struct {
	mu     sync.Mutex
	trades int
	byRoot map[string]float64
}

func NewTracker() *Tracker { return &Tracker{byRoot: make(map[string]float64)} }

// Record books one cycle. Profit 1.004 adds 0.004 to its root.
func (t *Tracker) Record(c graph.Cycle) {
	if len(c.Coins) == 0 {
		return
	}
	t.mu.Lock()
	t.trades++
	t.byRoot[c.Coins[0]] += c.Profit - 1
	t.mu.Unlock()
}

func (t *Tracker) Trades() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trades
}

// Realized returns the accumulated return for root.
func (t *Tracker) Realized(root string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byRoot[root]
}

// Roots lists the currencies with booked cycles, sorted.
func (t *Tracker) Roots() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.byRoot))
	for r := range t.byRoot {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
