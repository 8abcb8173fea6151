// Package graph turns a flat set of best bid/ask quotes into a conversion
// rate graph and searches it for profitable three-hop cycles.
//
// Everything here is a pure, per-iteration computation: nothing is logged,
// nothing is shared between calls, and a Graph is not safe for concurrent
// mutation.
package graph

import (
	"math"
	"sort"
	"strings"

	"github.com/PeleiaDePelego/BotBinance/internal/exchange/common"
)

// Edge is one outgoing conversion: one unit of the source currency buys
// Rate units of To.
type Edge struct {
	To   string
	Rate float64
}

// Graph is an adjacency map currency -> currency -> rate.
type Graph struct {
	rates   map[string]map[string]float64
	sorted  map[string][]Edge
	edges   int
	symbols map[string]struct{}
}

func New() *Graph {
	return &Graph{
		rates:   make(map[string]map[string]float64),
		sorted:  make(map[string][]Edge),
		symbols: make(map[string]struct{}),
	}
}

// HasSymbol reports whether Build accepted a ticker for the market symbol.
func (g *Graph) HasSymbol(symbol string) bool {
	_, ok := g.symbols[symbol]
	return ok
}

// FromRates builds a graph from a literal adjacency map.
func FromRates(m map[string]map[string]float64) *Graph {
	g := New()
	for from, tos := range m {
		for to, rate := range tos {
			g.Set(from, to, rate)
		}
	}
	return g
}

// Set inserts or overwrites the edge from -> to.
func (g *Graph) Set(from, to string, rate float64) {
	tos, ok := g.rates[from]
	if !ok {
		tos = make(map[string]float64)
		g.rates[from] = tos
	}
	if _, exists := tos[to]; !exists {
		g.edges++
	}
	tos[to] = rate
	delete(g.sorted, from)
}

func (g *Graph) Rate(from, to string) (float64, bool) {
	r, ok := g.rates[from][to]
	return r, ok
}

// Neighbors returns the outgoing edges of from ordered by target currency,
// so that searches over the same graph always visit edges in the same order.
func (g *Graph) Neighbors(from string) []Edge {
	if out, ok := g.sorted[from]; ok {
		return out
	}
	tos := g.rates[from]
	if len(tos) == 0 {
		return nil
	}
	out := make([]Edge, 0, len(tos))
	for to, rate := range tos {
		out = append(out, Edge{To: to, Rate: rate})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].To < out[j].To })
	g.sorted[from] = out
	return out
}

// Currencies lists every currency with at least one outgoing edge, sorted.
func (g *Graph) Currencies() []string {
	out := make([]string, 0, len(g.rates))
	for c := range g.rates {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (g *Graph) EdgeCount() int { return g.edges }

// BuildStats counts what happened to each ticker handed to Build.
type BuildStats struct {
	Tickers   int
	Accepted  int
	ZeroAsk   int
	Malformed int
	Unmatched int
}

// Build converts tickers into a conversion graph. Each accepted ticker adds
// primary -> secondary at 1/ask and secondary -> primary at bid, where the
// primary is the anchor currency the symbol is quoted in. Tickers with a zero
// ask, unusable prices or no matching anchor are skipped.
func Build(tickers []common.Ticker, anchors *Anchors) (*Graph, BuildStats) {
	g := New()
	st := BuildStats{Tickers: len(tickers)}
	for _, t := range tickers {
		if t.Ask == 0 {
			st.ZeroAsk++
			continue
		}
		if !validPrice(t.Ask) || !validPrice(t.Bid) {
			st.Malformed++
			continue
		}
		secondary, primary, ok := anchors.Split(t)
		if !ok {
			st.Unmatched++
			continue
		}
		g.Set(primary, secondary, 1/t.Ask)
		g.Set(secondary, primary, t.Bid)
		g.symbols[t.Symbol] = struct{}{}
		st.Accepted++
	}
	return g, st
}

func validPrice(p float64) bool {
	return p >= 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

// Anchors decides which quote currency a market symbol belongs to.
type Anchors struct {
	set   map[string]struct{}
	order []string
}

// NewAnchors keeps the given priority order but moves longer codes ahead of
// shorter ones, so that a code which is a suffix of another ("ETH" and
// "BETH") can never claim the longer one's markets.
func NewAnchors(codes []string) *Anchors {
	a := &Anchors{set: make(map[string]struct{}, len(codes))}
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, dup := a.set[c]; dup {
			continue
		}
		a.set[c] = struct{}{}
		a.order = append(a.order, c)
	}
	sort.SliceStable(a.order, func(i, j int) bool { return len(a.order[i]) > len(a.order[j]) })
	return a
}

// Codes returns the anchors in matching order.
func (a *Anchors) Codes() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

func (a *Anchors) Contains(code string) bool {
	_, ok := a.set[code]
	return ok
}

// Split returns the secondary and primary currency of a ticker. When the
// source reported the market's quote asset the split is exact; otherwise it
// falls back to SplitSymbol.
func (a *Anchors) Split(t common.Ticker) (secondary, primary string, ok bool) {
	if t.Quote != "" {
		if t.Base == "" || t.Base == t.Quote || !a.Contains(t.Quote) {
			return "", "", false
		}
		return t.Base, t.Quote, true
	}
	return a.SplitSymbol(t.Symbol)
}

// SplitSymbol matches the first anchor that is a proper suffix of symbol.
// A split whose secondary equals the anchor ("ETHETH") is rejected.
func (a *Anchors) SplitSymbol(symbol string) (secondary, primary string, ok bool) {
	for _, anchor := range a.order {
		if len(symbol) > len(anchor) && strings.HasSuffix(symbol, anchor) {
			secondary = symbol[:len(symbol)-len(anchor)]
			if secondary == anchor {
				return "", "", false
			}
			return secondary, anchor, true
		}
	}
	return "", "", false
}

// Rank returns the position of code in matching order, or -1.
func (a *Anchors) Rank(code string) int {
	for i, c := range a.order {
		if c == code {
			return i
		}
	}
	return -1
}
