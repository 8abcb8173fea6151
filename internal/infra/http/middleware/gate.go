package middleware

import (
	"net"
	"net/http"

	"github.com/PeleiaDePelego/BotBinance/internal/infra/netutil"
)

// AdminGate restricts access to admin endpoints (metrics, pprof) by remote
// IP against allowed CIDR list.
func AdminGate(allowed []*net.IPNet, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip := net.ParseIP(host)
		if ip == nil || !netutil.Contains(allowed, ip) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
