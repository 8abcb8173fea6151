package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ScansTotal       = prometheus.NewCounter(prometheus.CounterOpts{Name: "scans_total", Help: "Completed scan iterations"})
	ScanErrorsTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "scan_errors_total", Help: "Iterations skipped because the quote fetch failed"})
	ScanLatencyMs    = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "scan_latency_ms", Help: "Graph build + cycle search latency", Buckets: prometheus.ExponentialBuckets(0.25, 2, 14)})
	FetchLatencyMs   = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "fetch_latency_ms", Help: "Quote snapshot fetch latency", Buckets: prometheus.LinearBuckets(10, 50, 20)})
	TickersReceived  = prometheus.NewGauge(prometheus.GaugeOpts{Name: "tickers_received", Help: "Tickers in the last snapshot"})
	TickersSkipped   = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "tickers_skipped_total", Help: "Tickers dropped by the normalizer by reason"}, []string{"reason"})
	GraphCurrencies  = prometheus.NewGauge(prometheus.GaugeOpts{Name: "graph_currencies", Help: "Currencies with outgoing edges in the last graph"})
	GraphEdges       = prometheus.NewGauge(prometheus.GaugeOpts{Name: "graph_edges", Help: "Edges in the last graph"})
	CyclesFound      = prometheus.NewCounter(prometheus.CounterOpts{Name: "cycles_found_total", Help: "Profitable cycles after deduplication"})
	CyclesDuplicate  = prometheus.NewCounter(prometheus.CounterOpts{Name: "cycles_duplicate_total", Help: "Profitable cycles dropped as duplicates"})
	BestProfitPct    = prometheus.NewGauge(prometheus.GaugeOpts{Name: "best_profit_pct", Help: "Best profit of the last iteration in percent (0 if none)"})
	CycleProfitPct   = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "cycle_profit_pct", Help: "Profit per reported cycle in percent", Buckets: prometheus.LinearBuckets(0, 0.05, 20)})
	CyclesReported   = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "cycles_reported_total", Help: "Cycles delivered to a sink"}, []string{"sink"})
	SinkErrorsTotal  = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "sink_errors_total", Help: "Sink write failures"}, []string{"sink"})
	APIErrorsTotal   = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "api_errors_total", Help: "API errors by exchange and endpoint"}, []string{"exchange", "endpoint"})
	RateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rate_limited_total", Help: "Requests delayed by the local token bucket"}, []string{"exchange"})
	RTTRestMs        = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "rtt_rest_ms", Help: "Last REST round trip by exchange"}, []string{"exchange"})
	WSReconnects     = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ws_reconnects_total", Help: "WS reconnects by exchange and reason"}, []string{"exchange", "reason"})
	WSMessages       = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ws_messages_total", Help: "WS quote updates applied by exchange"}, []string{"exchange"})
	OrdersSubmitted  = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "orders_submitted_total", Help: "Legs handed to the executor by mode"}, []string{"mode"})
)

func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		ScansTotal, ScanErrorsTotal, ScanLatencyMs, FetchLatencyMs,
		TickersReceived, TickersSkipped, GraphCurrencies, GraphEdges,
		CyclesFound, CyclesDuplicate, BestProfitPct, CycleProfitPct,
		CyclesReported, SinkErrorsTotal, APIErrorsTotal, RateLimitedTotal, RTTRestMs,
		WSReconnects, WSMessages, OrdersSubmitted,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("Prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
