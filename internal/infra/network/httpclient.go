package network

import (
	"net"
	"net/http"
	"time"

	"github.com/PeleiaDePelego/BotBinance/internal/infra/metrics"
)

// NewHTTPClient returns a client tuned for short REST polls. When bucket is
// non-nil every request first waits for a token, and the measured round
// trip is fed back into the bucket and the rtt_rest_ms gauge.
func NewHTTPClient(exchange string, timeout time.Duration, bucket *TokenBucket) *http.Client {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{Transport: &limitedTransport{next: tr, bucket: bucket, exchange: exchange}, Timeout: timeout}
}

type limitedTransport struct {
	next     http.RoundTripper
	bucket   *TokenBucket
	exchange string
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.bucket != nil {
		waited, err := t.bucket.Wait(req.Context())
		if err != nil {
			return nil, err
		}
		if waited {
			metrics.RateLimitedTotal.WithLabelValues(t.exchange).Inc()
		}
	}
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	rtt := float64(time.Since(start).Microseconds()) / 1000
	metrics.RTTRestMs.WithLabelValues(t.exchange).Set(rtt)
	if t.bucket != nil && err == nil {
		t.bucket.AdjustForRTT(rtt)
	}
	return resp, err
}
