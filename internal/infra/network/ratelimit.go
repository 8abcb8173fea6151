package network

import (
	"context"
	"sync"
	"time"
)

// Adaptive token bucket that reduces burst when RTT degrades >2x baseline

type TokenBucket struct {
	mu            sync.Mutex
	capacity      int
	minRate       float64
	tokens        float64
	rate          float64 // tokens per second
	last          time.Time
	baselineRTTms float64
}

func NewTokenBucket(capacity int, rate float64, baselineRTTms float64) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	return &TokenBucket{capacity: capacity, tokens: float64(capacity), rate: rate, minRate: rate / 4, last: time.Now(), baselineRTTms: baselineRTTms}
}

func (b *TokenBucket) Allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill(now)
	if b.tokens >= 1 {
		b.tokens -= 1
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is done. It reports whether
// the caller had to wait at all.
func (b *TokenBucket) Wait(ctx context.Context) (bool, error) {
	waited := false
	for {
		b.mu.Lock()
		b.refill(time.Now())
		if b.tokens >= 1 {
			b.tokens -= 1
			b.mu.Unlock()
			return waited, nil
		}
		need := time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
		b.mu.Unlock()
		if need < time.Millisecond {
			need = time.Millisecond
		}
		waited = true
		t := time.NewTimer(need)
		select {
		case <-ctx.Done():
			t.Stop()
			return waited, ctx.Err()
		case <-t.C:
		}
	}
}

func (b *TokenBucket) refill(now time.Time) {
	dt := now.Sub(b.last).Seconds()
	if dt < 0 {
		dt = 0
	}
	b.last = now
	b.tokens += b.rate * dt
	if b.tokens > float64(b.capacity) {
		b.tokens = float64(b.capacity)
	}
}

// AdjustForRTT halves burst and rate (down to a quarter of the initial rate)
// when the observed round trip exceeds twice the baseline.
func (b *TokenBucket) AdjustForRTT(rttMs float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.baselineRTTms <= 0 {
		return
	}
	if rttMs/b.baselineRTTms > 2.0 {
		b.capacity = max(1, b.capacity/2)
		b.rate = maxf(b.minRate, b.rate*0.5)
		if b.tokens > float64(b.capacity) {
			b.tokens = float64(b.capacity)
		}
	}
}

// Rate returns the current refill rate in tokens per second.
func (b *TokenBucket) Rate() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rate
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
