package scanner

import (
	"fmt"
	"sync"
	"time"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

// Dedup suppresses repeat emissions of the same opportunity inside a rolling
// window. The same price gap persisting across consecutive scans would
// otherwise be reported on every tick.
type Dedup struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
}

// NewDedup creates a deduplicator with the given suppression window.
func NewDedup(window time.Duration) *Dedup {
	return &Dedup{
		window: window,
		seen:   make(map[string]time.Time),
	}
}

// Allow reports whether the opportunity is novel within the window, and marks
// it as seen. Expired entries are pruned on the way through.
func (d *Dedup) Allow(opp *domain.Opportunity, now time.Time) bool {
	key := dedupKey(opp)

	d.mu.Lock()
	defer d.mu.Unlock()

	for k, ts := range d.seen {
		if now.Sub(ts) > d.window {
			delete(d.seen, k)
		}
	}
	if ts, ok := d.seen[key]; ok && now.Sub(ts) <= d.window {
		return false
	}
	d.seen[key] = now
	return true
}

// dedupKey identifies an opportunity by route, not by ID or prices, so the
// same gap at a slightly different level still collapses into one signal.
func dedupKey(opp *domain.Opportunity) string {
	return fmt.Sprintf("%s|%s|%s|%s", opp.Type, opp.Pair, opp.BuyVenue, opp.SellVenue)
}
