// Package domain defines the core data model for the price monitor: price
// records, detected opportunities, and the interfaces that connect the cache
// and detectors to the outside world.
package domain

import (
	"fmt"
	"time"
)

// PriceRecord is a single normalized price observation for a trading pair on
// one venue. Records are immutable once constructed; the cache replaces them
// wholesale and never mutates in place.
type PriceRecord struct {
	Pair          string    `json:"pair"`
	Venue         string    `json:"venue"`
	Price         float64   `json:"price"`
	Liquidity     float64   `json:"liquidity"` // quote-currency units (USD)
	Slot          uint64    `json:"slot"`      // monotonic ledger state counter per venue
	ObservedAt    time.Time `json:"observed_at"`
	VaultABalance uint64    `json:"vault_a_balance"`
	VaultBBalance uint64    `json:"vault_b_balance"`
	FeeRate       float64   `json:"fee_rate"` // e.g. 0.003 for 0.3%
}

// Validate checks the record against the ingestion-boundary invariants.
// Malformed records are rejected before they can reach the cache.
func (r PriceRecord) Validate() error {
	if r.Pair == "" {
		return fmt.Errorf("%w: empty pair", ErrInvalidRecord)
	}
	if r.Venue == "" {
		return fmt.Errorf("%w: empty venue", ErrInvalidRecord)
	}
	if r.Price <= 0 {
		return fmt.Errorf("%w: non-positive price %f for %s on %s", ErrInvalidRecord, r.Price, r.Pair, r.Venue)
	}
	if r.Liquidity < 0 {
		return fmt.Errorf("%w: negative liquidity %f for %s on %s", ErrInvalidRecord, r.Liquidity, r.Pair, r.Venue)
	}
	if r.FeeRate < 0 || r.FeeRate >= 1 {
		return fmt.Errorf("%w: fee rate %f out of [0,1)", ErrInvalidRecord, r.FeeRate)
	}
	return nil
}

// Age returns how old the record is relative to now.
func (r PriceRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.ObservedAt)
}

// IsStale reports whether the record is older than the given threshold.
func (r PriceRecord) IsStale(now time.Time, threshold time.Duration) bool {
	return r.Age(now) > threshold
}

// PriceImpact estimates the price impact (percent) of a trade of the given
// size against the smaller vault. An empty pool yields maximum impact.
func (r PriceRecord) PriceImpact(tradeSize float64) float64 {
	smaller := r.VaultABalance
	if r.VaultBBalance < smaller {
		smaller = r.VaultBBalance
	}
	if smaller == 0 {
		return 100.0
	}
	return tradeSize / float64(smaller) * 100.0
}

// VenueRecord pairs a venue id with its latest record, as returned by cache
// snapshots.
type VenueRecord struct {
	Venue  string      `json:"venue"`
	Record PriceRecord `json:"record"`
}
