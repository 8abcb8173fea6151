package rest

import (
	"net/http"
	"strconv"

	"github.com/sugawarayuuta/sonnet"

	"github.com/PeleiaDePelego/BotBinance/internal/report"
)

// CycleReader is satisfied by report.Latest.
type CycleReader interface {
	Get() (report.IterationView, bool)
}

type Server struct {
	mux    *http.ServeMux
	cycles CycleReader
}

func New(cycles CycleReader) *Server {
	s := &Server{mux: http.NewServeMux(), cycles: cycles}
	s.mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.HandleFunc("/cycles", s.handleCycles)
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

// handleCycles serves the latest ranked iteration. Optional query params:
// min_profit_pct drops cycles below the given percentage, limit caps the
// number returned.
func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	v, ok := s.cycles.Get()
	if !ok {
		http.Error(w, "no iteration yet", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	if raw := q.Get("min_profit_pct"); raw != "" {
		min, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "bad min_profit_pct", http.StatusBadRequest)
			return
		}
		kept := make([]report.CycleView, 0, len(v.Cycles))
		for _, c := range v.Cycles {
			if c.ProfitPct >= min {
				kept = append(kept, c)
			}
		}
		v.Cycles = kept
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		if n < len(v.Cycles) {
			v.Cycles = v.Cycles[:n]
		}
	}
	b, err := sonnet.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}
