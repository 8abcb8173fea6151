package binance

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sugawarayuuta/sonnet"

	"github.com/PeleiaDePelego/BotBinance/internal/exchange/common"
	"github.com/PeleiaDePelego/BotBinance/internal/graph"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/log"
	"github.com/PeleiaDePelego/BotBinance/internal/infra/metrics"
)

const (
	// MaxStreams is the per-connection stream limit enforced by Binance.
	MaxStreams     = 1024
	subscribeBatch = 200
	maxBackoff     = 30 * time.Second
)

// Stream keeps the latest best bid/ask per symbol from the combined
// <symbol>@bookTicker streams and serves them as snapshots.
type Stream struct {
	url     string
	symbols []string
	markets map[string]common.Market
	logger  log.Logger
	dialer  websocket.Dialer

	mu     sync.RWMutex
	quotes map[string]common.Ticker

	cancel context.CancelFunc
	done   chan struct{}
}

// NewStream subscribes to the given symbols (at most MaxStreams). markets,
// when non-nil, supplies base/quote for exact splitting.
func NewStream(url string, symbols []string, markets map[string]common.Market, logger log.Logger) *Stream {
	if len(symbols) > MaxStreams {
		logger.Warn().Int("requested", len(symbols)).Int("limit", MaxStreams).Msg("too many symbols for one stream; truncating")
		symbols = symbols[:MaxStreams]
	}
	return &Stream{
		url:     url,
		symbols: symbols,
		markets: markets,
		logger:  logger.With().Str("exchange", "binance-ws").Logger(),
		dialer:  websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		quotes:  make(map[string]common.Ticker, len(symbols)),
	}
}

// SelectSymbols picks the markets quoted in an anchor currency, sorted.
func SelectSymbols(markets map[string]common.Market, anchors *graph.Anchors) []string {
	out := make([]string, 0, len(markets))
	for sym, m := range markets {
		if anchors.Contains(m.Quote) {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Stream) Name() string { return "binance-ws" }

// Start launches the connection loop; it returns immediately.
func (s *Stream) Start(ctx context.Context) error {
	if len(s.symbols) == 0 {
		return fmt.Errorf("binance stream: no symbols to subscribe")
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
	return nil
}

func (s *Stream) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetBookTickers returns a copy of the cached quotes ordered by symbol.
func (s *Stream) GetBookTickers(ctx context.Context) ([]common.Ticker, error) {
	s.mu.RLock()
	out := make([]common.Ticker, 0, len(s.quotes))
	for _, t := range s.quotes {
		out = append(out, t)
	}
	s.mu.RUnlock()
	if len(out) == 0 {
		return nil, ErrNoData
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (s *Stream) run(ctx context.Context) {
	defer close(s.done)
	backoff := time.Second
	for {
		started := time.Now()
		err := s.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > maxBackoff {
			backoff = time.Second
		}
		reason := "read_error"
		if err == nil {
			reason = "closed"
		}
		metrics.WSReconnects.WithLabelValues("binance", reason).Inc()
		s.logger.Warn().Err(err).Dur("backoff", backoff).Msg("stream disconnected; reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

type subscribeMsg struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

type combinedMsg struct {
	Stream string `json:"stream"`
	Data   struct {
		Symbol string `json:"s"`
		Bid    string `json:"b"`
		BidQty string `json:"B"` // quantities; named so they never land in Bid/Ask
		Ask    string `json:"a"`
		AskQty string `json:"A"`
	} `json:"data"`
}

// session runs one connection until it fails or ctx ends.
func (s *Stream) session(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = conn.Close()
	}()

	for i, id := 0, 1; i < len(s.symbols); i, id = i+subscribeBatch, id+1 {
		end := min(i+subscribeBatch, len(s.symbols))
		params := make([]string, 0, end-i)
		for _, sym := range s.symbols[i:end] {
			params = append(params, strings.ToLower(sym)+"@bookTicker")
		}
		b, err := sonnet.Marshal(subscribeMsg{Method: "SUBSCRIBE", Params: params, ID: id})
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
	}
	s.logger.Info().Int("symbols", len(s.symbols)).Msg("stream subscribed")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg combinedMsg
		if err := sonnet.Unmarshal(data, &msg); err != nil || msg.Stream == "" {
			// subscription acks carry no stream name
			continue
		}
		t, err := parseTicker(msg.Data.Symbol, msg.Data.Bid, msg.Data.Ask)
		if err != nil {
			metrics.TickersSkipped.WithLabelValues("malformed").Inc()
			continue
		}
		if m, ok := s.markets[t.Symbol]; ok {
			t.Base, t.Quote = m.Base, m.Quote
		}
		s.mu.Lock()
		s.quotes[t.Symbol] = t
		s.mu.Unlock()
		metrics.WSMessages.WithLabelValues("binance").Inc()
	}
}
