package common

import "context"

// Ticker is the best bid/ask of one spot market. Base and Quote are empty
// when the source does not know how the symbol splits into assets.
type Ticker struct {
	Symbol string
	Base   string
	Quote  string
	Bid    float64
	Ask    float64
}

// Market describes how a symbol splits into base and quote asset.
type Market struct {
	Symbol string
	Base   string
	Quote  string
}

type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

type Order struct {
	ID     string // optional client order ID
	Symbol string
	Side   OrderSide
	Qty    float64
	Price  float64
}

// QuoteSource delivers complete best bid/ask snapshots, one per call.
type QuoteSource interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	GetBookTickers(ctx context.Context) ([]Ticker, error)
}

// Optional capability: market metadata (symbol -> base/quote)
type SymbolLister interface {
	ListSymbols(ctx context.Context) (map[string]Market, error)
}
