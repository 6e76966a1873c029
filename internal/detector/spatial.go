package detector

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/dexmon/internal/costs"
	"github.com/alanyoungcy/dexmon/internal/domain"
)

// SpatialConfig holds the spatial detector parameters.
type SpatialConfig struct {
	// MinProfitPct is the minimum net profit (percent) an opportunity must
	// exceed to be emitted.
	MinProfitPct float64
	// SlotTolerance is the maximum slot distance between the buy and sell
	// observations.
	SlotTolerance uint64
	// StaleThreshold discards records older than this before comparison.
	StaleThreshold time.Duration
	// SizeFraction of the thinner side's liquidity recommended as trade size.
	SizeFraction float64
	Costs        costs.Config
}

// Spatial detects cross-venue price gaps for a single pair: buy on the
// cheapest venue, sell on the most expensive one.
type Spatial struct {
	source SnapshotSource
	cfg    SpatialConfig
	logger *slog.Logger
}

// NewSpatial creates the spatial detector.
func NewSpatial(source SnapshotSource, cfg SpatialConfig, logger *slog.Logger) *Spatial {
	return &Spatial{
		source: source,
		cfg:    cfg,
		logger: logger.With(slog.String("strategy", "spatial")),
	}
}

// Name returns the strategy identifier.
func (s *Spatial) Name() string { return "spatial" }

// Scan compares fresh venue records for the pair and returns an opportunity
// when the net gap clears the profit threshold. Ties on price are broken by
// lexicographic venue order (the snapshot is sorted), so selection is
// deterministic.
func (s *Spatial) Scan(ctx context.Context, pair string) (Result, error) {
	_ = ctx
	now := time.Now().UTC()

	snap := s.source.Snapshot(pair)
	fresh := snap[:0:0]
	for _, vr := range snap {
		if !vr.Record.IsStale(now, s.cfg.StaleThreshold) {
			fresh = append(fresh, vr)
		}
	}
	if len(fresh) < 2 {
		return Result{}, nil
	}

	buy, sell := fresh[0], fresh[0]
	for _, vr := range fresh[1:] {
		if vr.Record.Price < buy.Record.Price {
			buy = vr
		}
		if vr.Record.Price > sell.Record.Price {
			sell = vr
		}
	}
	if buy.Venue == sell.Venue {
		return Result{}, nil
	}

	diff := slotDiff(buy.Record.Slot, sell.Record.Slot)
	if diff > s.cfg.SlotTolerance {
		s.logger.Debug("slot desynchronization",
			slog.String("pair", pair),
			slog.Uint64("buy_slot", buy.Record.Slot),
			slog.Uint64("sell_slot", sell.Record.Slot),
		)
		return Result{}, nil
	}

	grossPct := (sell.Record.Price - buy.Record.Price) / buy.Record.Price * 100
	breakdown := costs.Total(buy.Record, sell.Record, s.cfg.Costs)
	netPct := costs.NetProfitPct(grossPct, breakdown)
	if netPct <= s.cfg.MinProfitPct {
		return Result{}, nil
	}

	minLiq := minFloat(buy.Record.Liquidity, sell.Record.Liquidity)

	// Zero liquidity on either side yields a zero recommended size; the
	// opportunity is still reported and left to downstream validation.
	size := minLiq * s.cfg.SizeFraction
	confidence := spatialConfidence(diff, minLiq)

	opp := domain.Opportunity{
		ID:              uuid.NewString(),
		Type:            domain.OpportunitySpatial,
		Pair:            pair,
		BuyVenue:        buy.Venue,
		SellVenue:       sell.Venue,
		BuyPrice:        buy.Record.Price,
		SellPrice:       sell.Record.Price,
		GrossProfitPct:  grossPct,
		NetProfitPct:    netPct,
		RecommendedSize: size,
		Confidence:      confidence,
		DetectedAt:      now,
		Costs:           breakdown,
	}
	return Result{Opportunity: &opp}, nil
}

// spatialConfidence weighs slot alignment (closer is better) against
// liquidity depth, clamped to [0,1].
func spatialConfidence(slotDiff uint64, minLiquidity float64) float64 {
	slotFactor := 1 - minFloat(float64(slotDiff)/10, 0.5)
	liquidityFactor := minFloat(minLiquidity/1_000_000, 1)
	return clamp01(0.6*slotFactor + 0.4*liquidityFactor)
}
