package strategy

import "github.com/PeleiaDePelego/BotBinance/internal/graph"

// Reject reports whether a cycle is below the reporting threshold.
func Reject(c graph.Cycle, minProfitPct float64) bool {
	return ProfitPct(c.Profit) < minProfitPct
}

// Filter keeps the cycles at or above minProfitPct, preserving order.
func Filter(cycles []graph.Cycle, minProfitPct float64) []graph.Cycle {
	out := make([]graph.Cycle, 0, len(cycles))
	for _, c := range cycles {
		if Reject(c, minProfitPct) {
			continue
		}
		out = append(out, c)
	}
	return out
}
