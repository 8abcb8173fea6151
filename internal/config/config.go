package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Server struct {
		Addr                string   `yaml:"addr"`
		Pprof               bool     `yaml:"pprof"`
		ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
		IdleTimeoutSeconds  int      `yaml:"idle_timeout_seconds"`
		AdminAllowCIDRs     []string `yaml:"admin_allow_cidrs"`
	} `yaml:"server"`
	Scanner struct {
		Fee            float64  `yaml:"fee"`
		Anchors        []string `yaml:"anchors"`
		Roots          []string `yaml:"roots"`
		IntervalMs     int      `yaml:"interval_ms"`
		MaxIterations  int      `yaml:"max_iterations"`
		FetchTimeoutMs int      `yaml:"fetch_timeout_ms"`
	} `yaml:"scanner"`
	Trading struct {
		Enabled    bool `yaml:"enabled"`
		CooldownMs int  `yaml:"cooldown_ms"`
	} `yaml:"trading"`
	Report struct {
		MinProfitPct float64 `yaml:"min_profit_pct"`
		Console      bool    `yaml:"console"`
		CSVPath      string  `yaml:"csv_path"`
		SQLitePath   string  `yaml:"sqlite_path"`
		Redis        struct {
			Addr       string `yaml:"addr"`
			Password   string `yaml:"password"`
			DB         int    `yaml:"db"`
			Key        string `yaml:"key"`
			TTLSeconds int    `yaml:"ttl_seconds"`
			History    int    `yaml:"history"`
		} `yaml:"redis"`
	} `yaml:"report"`
	Exchanges struct {
		Binance struct {
			BaseURL        string  `yaml:"base_url"`
			WSURL          string  `yaml:"ws_url"`
			Stream         bool    `yaml:"stream"`
			ExactSymbols   bool    `yaml:"exact_symbols"`
			RequestsPerSec float64 `yaml:"requests_per_sec"`
			APIKey         string  `yaml:"api_key"`
			Secret         string  `yaml:"secret"`
		} `yaml:"binance"`
	} `yaml:"exchanges"`
}

func defaultConfig() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Server.Addr = ":9090"
	c.Server.Pprof = false
	c.Server.ReadTimeoutSeconds = 5
	c.Server.WriteTimeoutSeconds = 10
	c.Server.IdleTimeoutSeconds = 60
	c.Server.AdminAllowCIDRs = []string{"127.0.0.0/8", "::1/128"}
	c.Scanner.Fee = 0.00075 // taker fee with BNB discount
	c.Scanner.Anchors = []string{"ETH", "USDT", "BTC", "BNB", "ADA", "SOL", "LINK", "LTC", "UNI", "XTZ"}
	c.Scanner.Roots = []string{"USDT", "BUSD"}
	c.Scanner.IntervalMs = 1000
	c.Scanner.MaxIterations = 5000
	c.Scanner.FetchTimeoutMs = 4000
	c.Trading.Enabled = false
	c.Trading.CooldownMs = 5000
	c.Report.MinProfitPct = 0.1
	c.Report.Console = true
	c.Report.CSVPath = "arbitrage.csv"
	c.Report.Redis.Key = "arbitr:cycles"
	c.Report.Redis.TTLSeconds = 60
	c.Report.Redis.History = 500
	c.Exchanges.Binance.BaseURL = "https://api.binance.com"
	c.Exchanges.Binance.WSURL = "wss://stream.binance.com:9443/stream"
	c.Exchanges.Binance.ExactSymbols = true
	c.Exchanges.Binance.RequestsPerSec = 5
	return c
}

func Load() Config {
	c := defaultConfig()
	if path := os.Getenv("ARBITR_CONFIG"); path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}
	if v := os.Getenv("ARBITR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ARBITR_LOG_PRETTY"); v == "1" || v == "true" {
		c.Logging.Pretty = true
	}
	if v := os.Getenv("ARBITR_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("ARBITR_PPROF"); v == "1" || v == "true" {
		c.Server.Pprof = true
	}
	if v := os.Getenv("ARBITR_ADMIN_ALLOW_CIDRS"); v != "" {
		c.Server.AdminAllowCIDRs = splitCSV(v)
	}
	if v := os.Getenv("ARBITR_FEE"); v != "" {
		var f float64
		if _, err := fmt.Sscan(v, &f); err == nil && f >= 0 {
			c.Scanner.Fee = f
		}
	}
	if v := os.Getenv("ARBITR_ANCHORS"); v != "" {
		c.Scanner.Anchors = upper(splitCSV(v))
	}
	if v := os.Getenv("ARBITR_ROOTS"); v != "" {
		c.Scanner.Roots = upper(splitCSV(v))
	}
	if v := os.Getenv("ARBITR_INTERVAL_MS"); v != "" {
		var n int
		_, _ = fmt.Sscan(v, &n)
		if n > 0 {
			c.Scanner.IntervalMs = n
		}
	}
	if v := os.Getenv("ARBITR_MAX_ITERATIONS"); v != "" {
		var n int
		if _, err := fmt.Sscan(v, &n); err == nil && n >= 0 {
			c.Scanner.MaxIterations = n
		}
	}
	if v := os.Getenv("ARBITR_TRADING_ENABLED"); v == "1" || v == "true" {
		c.Trading.Enabled = true
	}
	if v := os.Getenv("ARBITR_MIN_PROFIT_PCT"); v != "" {
		var f float64
		if _, err := fmt.Sscan(v, &f); err == nil {
			c.Report.MinProfitPct = f
		}
	}
	if v, ok := os.LookupEnv("ARBITR_CSV_PATH"); ok {
		c.Report.CSVPath = v
	}
	if v := os.Getenv("ARBITR_SQLITE_PATH"); v != "" {
		c.Report.SQLitePath = v
	}
	if v := os.Getenv("ARBITR_REDIS_ADDR"); v != "" {
		c.Report.Redis.Addr = v
	}
	if v := os.Getenv("ARBITR_REDIS_PASSWORD"); v != "" {
		c.Report.Redis.Password = v
	}
	if v := os.Getenv("ARBITR_BINANCE_BASE_URL"); v != "" {
		c.Exchanges.Binance.BaseURL = v
	}
	if v := os.Getenv("ARBITR_BINANCE_STREAM"); v == "1" || v == "true" {
		c.Exchanges.Binance.Stream = true
	}
	// API keys only from env
	if v := os.Getenv("ARBITR_BINANCE_API_KEY"); v != "" {
		c.Exchanges.Binance.APIKey = v
	}
	if v := os.Getenv("ARBITR_BINANCE_SECRET"); v != "" {
		c.Exchanges.Binance.Secret = v
	}
	return c
}

// Validate reports the first setting that would make the scanner misbehave.
func (c Config) Validate() error {
	if c.Scanner.Fee < 0 || c.Scanner.Fee >= 1 {
		return fmt.Errorf("%w: scanner.fee %v outside [0,1)", ErrInvalid, c.Scanner.Fee)
	}
	if len(c.Scanner.Anchors) == 0 {
		return fmt.Errorf("%w: scanner.anchors is empty", ErrInvalid)
	}
	if len(c.Scanner.Roots) == 0 {
		return fmt.Errorf("%w: scanner.roots is empty", ErrInvalid)
	}
	if c.Scanner.IntervalMs <= 0 {
		return fmt.Errorf("%w: scanner.interval_ms must be positive", ErrInvalid)
	}
	if c.Trading.CooldownMs < 0 {
		return fmt.Errorf("%w: trading.cooldown_ms must not be negative", ErrInvalid)
	}
	if c.Scanner.MaxIterations < 0 {
		return fmt.Errorf("%w: scanner.max_iterations must not be negative", ErrInvalid)
	}
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func upper(in []string) []string {
	for i := range in {
		in[i] = strings.ToUpper(in[i])
	}
	return in
}
