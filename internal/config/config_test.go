package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	_ = os.Unsetenv("ARBITR_CONFIG")
	_ = os.Unsetenv("ARBITR_FEE")
	_ = os.Unsetenv("ARBITR_LOG_LEVEL")

	c := Load()
	if c.Scanner.Fee != 0.00075 {
		t.Fatalf("expected default fee 0.00075, got %v", c.Scanner.Fee)
	}
	if c.Logging.Level != "info" {
		t.Fatalf("expected default log level info, got %s", c.Logging.Level)
	}
	if len(c.Scanner.Roots) != 2 || c.Scanner.Roots[0] != "USDT" || c.Scanner.Roots[1] != "BUSD" {
		t.Fatalf("unexpected default roots %v", c.Scanner.Roots)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARBITR_LOG_LEVEL", "debug")
	t.Setenv("ARBITR_FEE", "0.001")
	t.Setenv("ARBITR_ANCHORS", "usdt, btc,,eth")
	t.Setenv("ARBITR_MAX_ITERATIONS", "0")
	c := Load()
	if c.Logging.Level != "debug" {
		t.Fatalf("env override failed for log level, got %s", c.Logging.Level)
	}
	if c.Scanner.Fee != 0.001 {
		t.Fatalf("env override failed for fee, got %v", c.Scanner.Fee)
	}
	want := []string{"USDT", "BTC", "ETH"}
	if len(c.Scanner.Anchors) != len(want) {
		t.Fatalf("anchors: want %v, got %v", want, c.Scanner.Anchors)
	}
	for i := range want {
		if c.Scanner.Anchors[i] != want[i] {
			t.Fatalf("anchors: want %v, got %v", want, c.Scanner.Anchors)
		}
	}
	if c.Scanner.MaxIterations != 0 {
		t.Fatalf("expected unbounded iterations, got %d", c.Scanner.MaxIterations)
	}
}

func TestYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	body := []byte("scanner:\n  roots: [BTC]\n  interval_ms: 250\nreport:\n  min_profit_pct: 0.15\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ARBITR_CONFIG", path)
	c := Load()
	if len(c.Scanner.Roots) != 1 || c.Scanner.Roots[0] != "BTC" {
		t.Fatalf("roots from yaml not applied: %v", c.Scanner.Roots)
	}
	if c.Scanner.IntervalMs != 250 {
		t.Fatalf("interval from yaml not applied: %d", c.Scanner.IntervalMs)
	}
	if c.Report.MinProfitPct != 0.15 {
		t.Fatalf("min profit from yaml not applied: %v", c.Report.MinProfitPct)
	}
	// untouched keys keep their defaults
	if c.Scanner.Fee != 0.00075 {
		t.Fatalf("fee default lost: %v", c.Scanner.Fee)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"negative fee", func(c *Config) { c.Scanner.Fee = -0.1 }},
		{"fee of one", func(c *Config) { c.Scanner.Fee = 1 }},
		{"no anchors", func(c *Config) { c.Scanner.Anchors = nil }},
		{"no roots", func(c *Config) { c.Scanner.Roots = nil }},
		{"zero interval", func(c *Config) { c.Scanner.IntervalMs = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := defaultConfig()
			tc.mut(&c)
			if err := c.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}
