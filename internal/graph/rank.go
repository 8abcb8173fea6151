package graph

import "slices"

// Rank returns a copy of cycles ordered by profit factor, highest first.
// Cycles with equal profit keep their relative order.
func Rank(cycles []Cycle) []Cycle {
	out := slices.Clone(cycles)
	slices.SortStableFunc(out, func(a, b Cycle) int {
		switch {
		case a.Profit > b.Profit:
			return -1
		case a.Profit < b.Profit:
			return 1
		}
		return 0
	})
	return out
}

// DetectStats summarises one Detect call.
type DetectStats struct {
	Candidates int
	Duplicates int
}

// Detect runs the cycle search from each root in order, keeps the first
// cycle per currency set across all roots and returns the survivors ranked.
func Detect(g *Graph, roots []string, fee float64) ([]Cycle, DetectStats) {
	var (
		st   DetectStats
		kept []Cycle
	)
	seen := NewDedup()
	for _, root := range roots {
		for c := range FindCycles(g, root, fee) {
			st.Candidates++
			if seen.Admit(c) {
				kept = append(kept, c)
			}
		}
	}
	st.Duplicates = seen.Dropped()
	return Rank(kept), st
}
