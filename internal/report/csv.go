package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// CSV appends one row per cycle: timestamp, path, profit percent.
type CSV struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

func OpenCSV(path string) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	return &CSV{f: f, w: csv.NewWriter(f)}, nil
}

func (c *CSV) Name() string { return "csv" }

func (c *CSV) Report(ctx context.Context, it Iteration) error {
	if len(it.Cycles) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := it.At.Format(time.RFC3339Nano)
	for _, cy := range it.Cycles {
		row := []string{ts, cy.Path(), strconv.FormatFloat(cy.ProfitPct(), 'f', 4, 64)}
		if err := c.w.Write(row); err != nil {
			return err
		}
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		_ = c.f.Close()
		return err
	}
	return c.f.Close()
}
