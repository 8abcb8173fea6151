package middleware

import (
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func ok(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(GetRequestID(r.Context()))) }

func TestRequestID(t *testing.T) {
	h := RequestID(http.HandlerFunc(ok))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc")
	h.ServeHTTP(rec, req)
	if rec.Body.String() != "abc" || rec.Header().Get("X-Request-Id") != "abc" {
		t.Fatalf("incoming id not propagated: %q", rec.Body.String())
	}

	a, b := httptest.NewRecorder(), httptest.NewRecorder()
	h.ServeHTTP(a, httptest.NewRequest(http.MethodGet, "/", nil))
	h.ServeHTTP(b, httptest.NewRequest(http.MethodGet, "/", nil))
	if a.Body.String() == "" || a.Body.String() == b.Body.String() {
		t.Fatalf("generated ids should be unique, got %q and %q", a.Body.String(), b.Body.String())
	}
}

func TestLoggerAndRecover(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).Level(zerolog.InfoLevel)
	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	h := Logger(l)(Recover(l)(boom))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cycles", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	out := buf.String()
	if !strings.Contains(out, `"panic":"boom"`) || !strings.Contains(out, `"status":500`) {
		t.Fatalf("unexpected log output %s", out)
	}

	buf.Reset()
	Logger(l)(http.HandlerFunc(ok)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if buf.Len() != 0 {
		t.Fatalf("health requests should log at debug, got %s", buf.String())
	}
}

func TestAdminGate(t *testing.T) {
	_, lo, _ := net.ParseCIDR("127.0.0.0/8")
	h := AdminGate([]*net.IPNet{lo}, http.HandlerFunc(ok))
	cases := []struct {
		remote string
		want   int
	}{
		{"127.0.0.1:5555", http.StatusOK},
		{"10.0.0.1:5555", http.StatusForbidden},
		{"garbage", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		req.RemoteAddr = tc.remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: got %d want %d", tc.remote, rec.Code, tc.want)
		}
	}
}
