package cache

import (
	"context"
	"log/slog"
	"time"
)

// RunSweeper runs the periodic TTL cleanup until ctx is cancelled. It returns
// within one tick interval of cancellation. A panic inside a single sweep is
// recovered and logged; the sweep resumes on the next tick.
func (c *PriceCache) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info("cache sweeper started", slog.Duration("interval", interval))
	defer c.logger.Info("cache sweeper stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.sweepOnce()
		}
	}
}

func (c *PriceCache) sweepOnce() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("cache sweep panicked", slog.Any("panic", r))
		}
	}()
	c.CleanupExpired(time.Now().UTC())
}

// HealthPair summarizes one pair for the health snapshot.
type HealthPair struct {
	Pair       string    `json:"pair"`
	Venues     int       `json:"venues"`
	Stale      int       `json:"stale"`
	LastUpdate time.Time `json:"last_update"`
}

// Health reports the cache entry count and per-pair staleness relative to the
// given threshold, for consumption by an external observability collaborator.
func (c *PriceCache) Health(now time.Time, staleThreshold time.Duration) (entries int, pairs []HealthPair) {
	for _, s := range c.shards {
		s.mu.RLock()
		for pair, venues := range s.pairs {
			hp := HealthPair{Pair: pair, Venues: len(venues)}
			for _, rec := range venues {
				entries++
				if rec.IsStale(now, staleThreshold) {
					hp.Stale++
				}
				if rec.ObservedAt.After(hp.LastUpdate) {
					hp.LastUpdate = rec.ObservedAt
				}
			}
			pairs = append(pairs, hp)
		}
		s.mu.RUnlock()
	}
	return entries, pairs
}
