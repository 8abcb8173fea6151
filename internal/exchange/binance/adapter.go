package binance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sugawarayuuta/sonnet"

	"github.com/PeleiaDePelego/BotBinance/internal/config"
	"github.com/PeleiaDePelego/BotBinance/internal/exchange/common"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/log"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/metrics"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/network"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/vault"
)

var (
	// ErrStatus wraps non-2xx responses.
	ErrStatus = errors.New("unexpected status")
	// ErrNoData is returned when a snapshot would be empty.
	ErrNoData = errors.New("no ticker data")
)

const marketsTTL = time.Hour

var (
	_ common.QuoteSource  = (*Adapter)(nil)
	_ common.SymbolLister = (*Adapter)(nil)
	_ common.QuoteSource  = (*Stream)(nil)
)

type Adapter struct {
	cfg    config.Config
	http   *http.Client
	apiKey string
	logger log.Logger

	mu        sync.RWMutex
	markets   map[string]common.Market
	marketsAt time.Time
}

func New(cfg config.Config, secrets vault.SecretStore, logger log.Logger) *Adapter {
	rps := cfg.Exchanges.Binance.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}
	timeout := time.Duration(cfg.Scanner.FetchTimeoutMs) * time.Millisecond
	a := &Adapter{
		cfg:    cfg,
		http:   network.NewHTTPClient("binance", timeout, network.NewTokenBucket(int(rps*2), rps, 250)),
		logger: logger.With().Str("exchange", "binance").Logger(),
	}
	if secrets != nil {
		if k, err := secrets.Get("BINANCE_API_KEY"); err == nil {
			a.apiKey = k
		}
	}
	return a
}

func (a *Adapter) Name() string { return "binance" }

// Start preloads market metadata when exact symbol splitting is enabled.
// A failure is logged and retried lazily on the next fetch.
func (a *Adapter) Start(ctx context.Context) error {
	if !a.cfg.Exchanges.Binance.ExactSymbols {
		return nil
	}
	if _, err := a.ListSymbols(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("exchangeInfo unavailable; falling back to suffix matching")
	}
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error { return nil }

type bookTicker struct {
	Symbol   string `json:"symbol"`
	BidPrice string `json:"bidPrice"`
	AskPrice string `json:"askPrice"`
}

// GetBookTickers fetches best bid/ask for every symbol in one request.
// Records whose prices do not parse are dropped and counted.
func (a *Adapter) GetBookTickers(ctx context.Context) ([]common.Ticker, error) {
	var raw []bookTicker
	if err := a.get(ctx, "/api/v3/ticker/bookTicker", &raw); err != nil {
		return nil, err
	}
	markets := a.cachedMarkets(ctx)
	out := make([]common.Ticker, 0, len(raw))
	for _, r := range raw {
		t, err := parseTicker(r.Symbol, r.BidPrice, r.AskPrice)
		if err != nil {
			metrics.TickersSkipped.WithLabelValues("malformed").Inc()
			a.logger.Debug().Err(err).Str("symbol", r.Symbol).Msg("skipping malformed ticker")
			continue
		}
		if m, ok := markets[t.Symbol]; ok {
			t.Base, t.Quote = m.Base, m.Quote
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return out, nil
}

type exchangeInfo struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
	} `json:"symbols"`
}

// ListSymbols returns symbol -> base/quote for every spot market currently
// TRADING and refreshes the adapter's cache.
func (a *Adapter) ListSymbols(ctx context.Context) (map[string]common.Market, error) {
	var info exchangeInfo
	if err := a.get(ctx, "/api/v3/exchangeInfo", &info); err != nil {
		return nil, err
	}
	out := make(map[string]common.Market, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Symbol == "" || s.BaseAsset == "" || s.QuoteAsset == "" || s.Status != "TRADING" {
			continue
		}
		out[s.Symbol] = common.Market{Symbol: s.Symbol, Base: s.BaseAsset, Quote: s.QuoteAsset}
	}
	a.mu.Lock()
	a.markets = out
	a.marketsAt = time.Now()
	a.mu.Unlock()
	a.logger.Info().Int("markets", len(out)).Msg("market metadata loaded")
	return out, nil
}

func (a *Adapter) cachedMarkets(ctx context.Context) map[string]common.Market {
	if !a.cfg.Exchanges.Binance.ExactSymbols {
		return nil
	}
	a.mu.RLock()
	m, at := a.markets, a.marketsAt
	a.mu.RUnlock()
	if m != nil && time.Since(at) < marketsTTL {
		return m
	}
	fresh, err := a.ListSymbols(ctx)
	if err != nil {
		a.logger.Debug().Err(err).Msg("market metadata refresh failed")
		return m
	}
	return fresh
}

func (a *Adapter) get(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.Exchanges.Binance.BaseURL+endpoint, nil)
	if err != nil {
		return err
	}
	if a.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", a.apiKey)
	}
	resp, err := a.http.Do(req)
	if err != nil {
		metrics.APIErrorsTotal.WithLabelValues("binance", endpoint).Inc()
		return fmt.Errorf("binance %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode/100 != 2 {
		metrics.APIErrorsTotal.WithLabelValues("binance", endpoint).Inc()
		return fmt.Errorf("binance %s: %w: %d", endpoint, ErrStatus, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.APIErrorsTotal.WithLabelValues("binance", endpoint).Inc()
		return fmt.Errorf("binance %s: read: %w", endpoint, err)
	}
	if err := sonnet.Unmarshal(body, v); err != nil {
		metrics.APIErrorsTotal.WithLabelValues("binance", endpoint).Inc()
		return fmt.Errorf("binance %s: decode: %w", endpoint, err)
	}
	return nil
}

func parseTicker(symbol, bid, ask string) (common.Ticker, error) {
	if symbol == "" {
		return common.Ticker{}, fmt.Errorf("empty symbol")
	}
	b, err := decimal.NewFromString(bid)
	if err != nil {
		return common.Ticker{}, fmt.Errorf("bid %q: %w", bid, err)
	}
	a, err := decimal.NewFromString(ask)
	if err != nil {
		return common.Ticker{}, fmt.Errorf("ask %q: %w", ask, err)
	}
	return common.Ticker{Symbol: symbol, Bid: b.InexactFloat64(), Ask: a.InexactFloat64()}, nil
}
