package graph

import (
	"sort"
	"strings"
)

// Key identifies the set of currencies a cycle touches, regardless of the
// direction or rotation it was walked in.
func (c Cycle) Key() string {
	coins := make([]string, 0, len(c.Coins))
	seen := make(map[string]struct{}, len(c.Coins))
	for _, coin := range c.Coins {
		if _, ok := seen[coin]; ok {
			continue
		}
		seen[coin] = struct{}{}
		coins = append(coins, coin)
	}
	sort.Strings(coins)
	return strings.Join(coins, "|")
}

// Dedup admits the first cycle for each currency set. Use one per scan.
type Dedup struct {
	seen    map[string]struct{}
	dropped int
}

func NewDedup() *Dedup { return &Dedup{seen: make(map[string]struct{})} }

// Admit reports whether c is the first cycle seen over its currency set.
func (d *Dedup) Admit(c Cycle) bool {
	k := c.Key()
	if _, ok := d.seen[k]; ok {
		d.dropped++
		return false
	}
	d.seen[k] = struct{}{}
	return true
}

// Dropped is the number of cycles rejected so far.
func (d *Dedup) Dropped() int { return d.dropped }
