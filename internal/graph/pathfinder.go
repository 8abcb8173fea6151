package graph

import (
	"iter"
	"strings"
)

// Hops is the fixed length of every cycle searched for.
const Hops = 3

// Cycle is a closed walk start -> hop1 -> hop2 -> start and the amount of
// start currency it returns per unit put in, net of fees.
type Cycle struct {
	Coins  []string
	Profit float64
}

// ProfitPct is the net gain in percent.
func (c Cycle) ProfitPct() float64 { return (c.Profit - 1) * 100 }

// Path renders the coins as "A->B->C->A".
func (c Cycle) Path() string { return strings.Join(c.Coins, "->") }

// FindCycles lazily yields every cycle of exactly Hops conversions that
// starts and ends at start with a profit factor above 1. Each conversion
// keeps (1 - fee) of the converted amount. A start currency without edges
// yields nothing.
func FindCycles(g *Graph, start string, fee float64) iter.Seq[Cycle] {
	return func(yield func(Cycle) bool) {
		path := make([]string, 1, Hops+1)
		path[0] = start
		walk(g, start, start, Hops, 1.0, 1.0-fee, path, yield)
	}
}

// walk returns false once the consumer has asked to stop.
func walk(g *Graph, start, current string, left int, amount, keep float64, path []string, yield func(Cycle) bool) bool {
	for _, e := range g.Neighbors(current) {
		next := amount * e.Rate * keep
		if left == 1 {
			if e.To != start || !(next > 1.0) {
				continue
			}
			coins := make([]string, len(path)+1)
			copy(coins, path)
			coins[len(path)] = start
			if !yield(Cycle{Coins: coins, Profit: next}) {
				return false
			}
			continue
		}
		if !walk(g, start, e.To, left-1, next, keep, append(path, e.To), yield) {
			return false
		}
	}
	return true
}
