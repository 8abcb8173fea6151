package risk

import (
	"sync"
	"time"
)

// Gate decides whether an opportunity may be acted on.
type Gate interface {
	Allow(key string) bool
}

// Cooldown admits a key at most once per window. A persistent cycle is
// reported every iteration but only submitted again after it cools down.
type Cooldown struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{window: window, now: time.Now, last: make(map[string]time.Time)}
}

func (c *Cooldown) Allow(key string) bool {
	if c.window <= 0 {
		return true
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.last[key]; ok && now.Sub(t) < c.window {
		return false
	}
	c.last[key] = now
	// keep the map bounded by dropping anything already cooled down
	if len(c.last) > 1024 {
		for k, t := range c.last {
			if now.Sub(t) >= c.window {
				delete(c.last, k)
			}
		}
	}
	return true
}
