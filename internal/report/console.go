package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// Console prints every cycle followed by the rate of each hop:
//
//	2024-05-01T10:00:00Z USDT->ETH->BTC->USDT       0.1523% profit
//	     ETH  / USDT:        0.00050000
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Report(ctx context.Context, it Iteration) error {
	if len(it.Cycles) == 0 {
		return nil
	}
	ts := it.At.Format(time.RFC3339Nano)
	for _, cy := range it.Cycles {
		if _, err := fmt.Fprintf(c.w, "%s %-26s %7.4f%% profit\n", ts, cy.Path(), cy.ProfitPct()); err != nil {
			return err
		}
		for i := 0; i+1 < len(cy.Coins); i++ {
			first, second := cy.Coins[i], cy.Coins[i+1]
			rate := 0.0
			if it.Graph != nil {
				rate, _ = it.Graph.Rate(first, second)
			}
			if _, err := fmt.Fprintf(c.w, "     %-4s / %-4s: %17.8f\n", second, first, rate); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(c.w); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(c.w, "________")
	return err
}

func (c *Console) Close() error { return nil }
