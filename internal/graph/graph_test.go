package graph

import (
	"math"
	"testing"

	"github.com/PeleiaDePelego/BotBinance/internal/exchange/common"
)

func TestSplitSymbol(t *testing.T) {
	a := NewAnchors([]string{"ETH", "USDT", "BTC", "BETH"})
	cases := []struct {
		symbol, secondary, primary string
		ok                         bool
	}{
		{"ETHUSDT", "ETH", "USDT", true},
		{"ETHBTC", "ETH", "BTC", true},
		{"ADAETH", "ADA", "ETH", true},
		{"ABETH", "A", "BETH", true}, // longer anchor wins over its suffix
		{"USDT", "", "", false},      // empty secondary
		{"BTCTRY", "", "", false},
		{"ETHETH", "", "", false}, // would be a self edge
	}
	for _, tc := range cases {
		sec, pri, ok := a.SplitSymbol(tc.symbol)
		if ok != tc.ok || sec != tc.secondary || pri != tc.primary {
			t.Fatalf("%s: want (%q,%q,%v), got (%q,%q,%v)", tc.symbol, tc.secondary, tc.primary, tc.ok, sec, pri, ok)
		}
	}
}

func TestNewAnchorsOrdering(t *testing.T) {
	a := NewAnchors([]string{"eth", "USDT", "BTC", "ETH", " ", "BUSD"})
	got := a.Codes()
	want := []string{"USDT", "BUSD", "ETH", "BTC"}
	if len(got) != len(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v, got %v", want, got)
		}
	}
}

func TestSplitExactMarket(t *testing.T) {
	a := NewAnchors([]string{"ETH", "USDT"})
	// Exchange metadata takes precedence over suffix matching.
	sec, pri, ok := a.Split(common.Ticker{Symbol: "BETHETH", Base: "BETH", Quote: "ETH"})
	if !ok || sec != "BETH" || pri != "ETH" {
		t.Fatalf("unexpected exact split (%q,%q,%v)", sec, pri, ok)
	}
	if _, _, ok := a.Split(common.Ticker{Symbol: "ETHBTC", Base: "ETH", Quote: "BTC"}); ok {
		t.Fatalf("quote outside anchor set must not match")
	}
}

func TestBuildEdges(t *testing.T) {
	anchors := NewAnchors([]string{"USDT"})
	g, st := Build([]common.Ticker{{Symbol: "ETHUSDT", Bid: 1999, Ask: 2000}}, anchors)
	if st.Accepted != 1 {
		t.Fatalf("expected one accepted ticker, got %+v", st)
	}
	r, ok := g.Rate("USDT", "ETH")
	if !ok || math.Abs(r-1.0/2000) > 1e-15 {
		t.Fatalf("USDT->ETH want %v, got %v (%v)", 1.0/2000, r, ok)
	}
	r, ok = g.Rate("ETH", "USDT")
	if !ok || r != 1999 {
		t.Fatalf("ETH->USDT want 1999, got %v (%v)", r, ok)
	}
	if g.EdgeCount() != 2 {
		t.Fatalf("expected 2 edges, got %d", g.EdgeCount())
	}
}

func TestBuildSkipsBadTickers(t *testing.T) {
	anchors := NewAnchors([]string{"USDT", "BTC"})
	tickers := []common.Ticker{
		{Symbol: "ETHUSDT", Bid: 1999, Ask: 0},
		{Symbol: "BNBUSDT", Bid: 300, Ask: math.NaN()},
		{Symbol: "SOLUSDT", Bid: -1, Ask: 20},
		{Symbol: "XRPTRY", Bid: 1, Ask: 1.1},
		{Symbol: "ETHBTC", Bid: 0.05, Ask: 0.051},
	}
	g, st := Build(tickers, anchors)
	if st.ZeroAsk != 1 || st.Malformed != 2 || st.Unmatched != 1 || st.Accepted != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if _, ok := g.Rate("USDT", "ETH"); ok {
		t.Fatalf("zero ask must not produce an edge")
	}
	if _, ok := g.Rate("ETH", "USDT"); ok {
		t.Fatalf("zero ask must not produce the reverse edge either")
	}
	if got := g.Currencies(); len(got) != 2 || got[0] != "BTC" || got[1] != "ETH" {
		t.Fatalf("unexpected currencies %v", got)
	}
}

func TestBuildDropsSelfEdges(t *testing.T) {
	anchors := NewAnchors([]string{"ETH", "USDT"})
	g, st := Build([]common.Ticker{
		{Symbol: "ETHETH", Bid: 1, Ask: 1},
		{Symbol: "ETHUSDT", Bid: 1999, Ask: 2000},
	}, anchors)
	if st.Unmatched != 1 || st.Accepted != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if _, ok := g.Rate("ETH", "ETH"); ok {
		t.Fatalf("self edge ETH->ETH must not exist")
	}
	if !g.HasSymbol("ETHUSDT") || g.HasSymbol("ETHETH") {
		t.Fatalf("only accepted markets are recorded")
	}
}

func TestAnchorsRank(t *testing.T) {
	a := NewAnchors([]string{"ETH", "USDT", "BTC"})
	if a.Rank("USDT") != 0 || a.Rank("ETH") != 1 || a.Rank("BTC") != 2 || a.Rank("XRP") != -1 {
		t.Fatalf("unexpected ranks for %v", a.Codes())
	}
}

func TestBuildLastSeenWins(t *testing.T) {
	anchors := NewAnchors([]string{"USDT"})
	g, _ := Build([]common.Ticker{
		{Symbol: "ETHUSDT", Bid: 1, Ask: 2},
		{Symbol: "ETHUSDT", Bid: 3, Ask: 4},
	}, anchors)
	if r, _ := g.Rate("ETH", "USDT"); r != 3 {
		t.Fatalf("expected last bid to win, got %v", r)
	}
	if g.EdgeCount() != 2 {
		t.Fatalf("overwrite must not add edges, got %d", g.EdgeCount())
	}
}

func TestNeighborsSorted(t *testing.T) {
	g := FromRates(map[string]map[string]float64{"USDT": {"SOL": 1, "BTC": 2, "ETH": 3}})
	n := g.Neighbors("USDT")
	if len(n) != 3 || n[0].To != "BTC" || n[1].To != "ETH" || n[2].To != "SOL" {
		t.Fatalf("neighbors not sorted: %+v", n)
	}
	g.Set("USDT", "ADA", 4)
	if n := g.Neighbors("USDT"); n[0].To != "ADA" {
		t.Fatalf("neighbors cache not refreshed after Set: %+v", n)
	}
	if g.Neighbors("XTZ") != nil {
		t.Fatalf("unknown currency should have no neighbors")
	}
}
