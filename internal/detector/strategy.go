// Package detector provides the selectable arbitrage detection strategies
// (spatial, statistical, triangular) behind a common scan contract.
package detector

import (
	"context"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

// SnapshotSource is the read-side of the price cache that strategies consume.
type SnapshotSource interface {
	Get(pair, venue string) (domain.PriceRecord, bool)
	Snapshot(pair string) []domain.VenueRecord
}

// Result carries the outcome of a single strategy scan. At most one of the
// fields is set: a validated opportunity, or a statistical-breakdown advisory.
type Result struct {
	Opportunity *domain.Opportunity
	Advisory    *domain.Advisory
}

// Strategy is a detection strategy that scans the cached state relevant to
// one trading pair. Filtering conditions (stale data, slot misalignment,
// insufficient history) yield an empty Result, never an error.
type Strategy interface {
	Name() string
	Scan(ctx context.Context, pair string) (Result, error)
}

// slotDiff returns |a - b| for unsigned slots.
func slotDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
