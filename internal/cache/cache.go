// Package cache implements the concurrent, TTL-bounded store of the latest
// price observation per (pair, venue). The map is sharded by pair so writers
// and readers of different pairs never contend on the same lock, and every
// replace is atomic per key: a snapshot sees each record exactly as last
// written, never torn.
package cache

import (
	"hash/fnv"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

const shardCount = 32

// shard holds the venue->record maps for the pairs hashed into it.
type shard struct {
	mu    sync.RWMutex
	pairs map[string]map[string]domain.PriceRecord
}

// PriceCache is the sharded in-memory price store. It is safe for concurrent
// use by any number of writers and readers.
type PriceCache struct {
	shards  [shardCount]*shard
	ttl     time.Duration
	logger  *slog.Logger
	onEvict func(removed int)
}

// Config holds cache construction parameters.
type Config struct {
	TTL    time.Duration
	Logger *slog.Logger
	// OnEvict, if set, is called with the number of entries each cleanup
	// removed.
	OnEvict func(removed int)
}

// New creates an empty PriceCache with the given TTL. Entries older than the
// TTL are removed by CleanupExpired / RunSweeper.
func New(cfg Config) *PriceCache {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &PriceCache{
		ttl:     cfg.TTL,
		logger:  logger.With(slog.String("component", "price_cache")),
		onEvict: cfg.OnEvict,
	}
	for i := range c.shards {
		c.shards[i] = &shard{pairs: make(map[string]map[string]domain.PriceRecord)}
	}
	return c
}

func (c *PriceCache) shardFor(pair string) *shard {
	h := fnv.New32a()
	h.Write([]byte(pair))
	return c.shards[h.Sum32()%shardCount]
}

// Update stores the record as the latest observation for its (pair, venue)
// key, unconditionally replacing any previous record (last write wins).
// Records that fail validation are rejected and never reach the cache.
func (c *PriceCache) Update(rec domain.PriceRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	s := c.shardFor(rec.Pair)
	s.mu.Lock()
	venues, ok := s.pairs[rec.Pair]
	if !ok {
		venues = make(map[string]domain.PriceRecord)
		s.pairs[rec.Pair] = venues
	}
	venues[rec.Venue] = rec
	s.mu.Unlock()

	c.logger.Debug("price cache updated",
		slog.String("pair", rec.Pair),
		slog.String("venue", rec.Venue),
		slog.Float64("price", rec.Price),
		slog.Uint64("slot", rec.Slot),
	)
	return nil
}

// Get returns the latest record for (pair, venue), if present.
func (c *PriceCache) Get(pair, venue string) (domain.PriceRecord, bool) {
	s := c.shardFor(pair)
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.pairs[pair][venue]
	return rec, ok
}

// Snapshot returns a point-in-time copy of all venue records for a pair,
// sorted by venue id for deterministic iteration. The copy is taken under the
// shard lock; callers compute on it without holding any lock. Cross-record
// consistency across the snapshot is not guaranteed — slot-alignment and
// staleness checks in the detectors are the accepted mechanism for that.
func (c *PriceCache) Snapshot(pair string) []domain.VenueRecord {
	s := c.shardFor(pair)
	s.mu.RLock()
	venues := s.pairs[pair]
	out := make([]domain.VenueRecord, 0, len(venues))
	for v, rec := range venues {
		out = append(out, domain.VenueRecord{Venue: v, Record: rec})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Venue < out[j].Venue })
	return out
}

// Len returns the total number of cached (pair, venue) entries.
func (c *PriceCache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		for _, venues := range s.pairs {
			n += len(venues)
		}
		s.mu.RUnlock()
	}
	return n
}

// Pairs returns all pair ids currently present in the cache, sorted.
func (c *PriceCache) Pairs() []string {
	var out []string
	for _, s := range c.shards {
		s.mu.RLock()
		for p := range s.pairs {
			out = append(out, p)
		}
		s.mu.RUnlock()
	}
	sort.Strings(out)
	return out
}

// CleanupExpired removes entries whose age relative to now exceeds the TTL,
// and drops pair buckets left empty. It is idempotent: a second run with the
// same now removes nothing. Returns the number of entries removed.
func (c *PriceCache) CleanupExpired(now time.Time) int {
	removed := 0
	for _, s := range c.shards {
		s.mu.Lock()
		for pair, venues := range s.pairs {
			for venue, rec := range venues {
				if rec.Age(now) > c.ttl {
					delete(venues, venue)
					removed++
				}
			}
			if len(venues) == 0 {
				delete(s.pairs, pair)
			}
		}
		s.mu.Unlock()
	}
	if removed > 0 {
		c.logger.Info("cleaned up expired cache entries", slog.Int("removed", removed))
		if c.onEvict != nil {
			c.onEvict(removed)
		}
	}
	return removed
}
