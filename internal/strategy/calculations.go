package strategy

import "math"

// ProfitPct converts a profit factor into a net gain in percent.
func ProfitPct(factor float64) float64 { return (factor - 1) * 100 }

// ProfitBps converts a profit factor into a net gain in basis points.
func ProfitBps(factor float64) float64 { return (factor - 1) * 10000 }

// CompoundFee returns the amount obtained by chaining rates when every
// conversion keeps (1 - fee) of its output.
func CompoundFee(rates []float64, fee float64) float64 {
	amount := 1.0
	for _, r := range rates {
		amount *= r * (1 - fee)
	}
	return amount
}

// BreakEvenGross is the gross rate product a cycle of n hops needs to cover
// its fees.
func BreakEvenGross(n int, fee float64) float64 {
	return 1 / math.Pow(1-fee, float64(n))
}
