package detector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

// TriangularConfig holds the three-legged cycle detector parameters.
type TriangularConfig struct {
	// ProfitThresholdPct is the minimum net cycle profit (percent).
	ProfitThresholdPct float64
	// SlotTolerance is the maximum spread between the newest and oldest leg
	// slot.
	SlotTolerance uint64
	// StaleThreshold discards records older than this.
	StaleThreshold time.Duration
	// SizeFraction of the thinnest leg's liquidity recommended as trade size.
	SizeFraction float64
	// SlippagePct is applied once per leg.
	SlippagePct float64
	GasPct      float64
	TipPct      float64
}

// Cycle is a closed three-legged conversion path on a single venue, e.g.
// SOL/USDC -> ETH/SOL -> USDC/ETH.
type Cycle struct {
	Venue string
	Pairs [3]string
	Label string
}

// Triangular multiplies the exchange rates around registered three-legged
// cycles and signals when the fee-adjusted product exceeds one by more than
// the threshold.
type Triangular struct {
	source SnapshotSource
	cfg    TriangularConfig
	logger *slog.Logger

	mu     sync.RWMutex
	byPair map[string][]Cycle
}

// NewTriangular creates the triangular detector with no cycles registered.
func NewTriangular(source SnapshotSource, cfg TriangularConfig, logger *slog.Logger) *Triangular {
	return &Triangular{
		source: source,
		cfg:    cfg,
		logger: logger.With(slog.String("strategy", "triangular")),
		byPair: make(map[string][]Cycle),
	}
}

// Name returns the strategy identifier.
func (t *Triangular) Name() string { return "triangular" }

// AddCycle registers a cycle. Every member pair indexes the cycle so an
// update to any leg triggers re-evaluation.
func (t *Triangular) AddCycle(c Cycle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range c.Pairs {
		t.byPair[p] = append(t.byPair[p], c)
	}
}

// Scan re-evaluates every cycle that includes the updated pair.
func (t *Triangular) Scan(ctx context.Context, pair string) (Result, error) {
	_ = ctx
	now := time.Now().UTC()

	t.mu.RLock()
	cycles := t.byPair[pair]
	t.mu.RUnlock()

	for _, c := range cycles {
		if opp := t.scanCycle(c, now); opp != nil {
			return Result{Opportunity: opp}, nil
		}
	}
	return Result{}, nil
}

func (t *Triangular) scanCycle(c Cycle, now time.Time) *domain.Opportunity {
	var legs [3]domain.PriceRecord
	for i, p := range c.Pairs {
		rec, ok := t.source.Get(p, c.Venue)
		if !ok || rec.IsStale(now, t.cfg.StaleThreshold) || rec.Price <= 0 {
			return nil
		}
		legs[i] = rec
	}

	minSlot, maxSlot := legs[0].Slot, legs[0].Slot
	minLiq := legs[0].Liquidity
	for _, rec := range legs[1:] {
		if rec.Slot < minSlot {
			minSlot = rec.Slot
		}
		if rec.Slot > maxSlot {
			maxSlot = rec.Slot
		}
		if rec.Liquidity < minLiq {
			minLiq = rec.Liquidity
		}
	}
	if maxSlot-minSlot > t.cfg.SlotTolerance {
		t.logger.Debug("cycle legs out of sync",
			slog.String("cycle", c.Label),
			slog.Uint64("slot_spread", maxSlot-minSlot),
		)
		return nil
	}

	netMultiplier := 1.0
	for _, rec := range legs {
		netMultiplier *= rec.Price * (1 - rec.FeeRate)
	}

	grossPct := (netMultiplier - 1) * 100
	costPct := t.cfg.GasPct + t.cfg.TipPct + 3*t.cfg.SlippagePct
	netPct := grossPct - costPct
	if netPct <= t.cfg.ProfitThresholdPct {
		return nil
	}

	confidence := triangularConfidence(maxSlot-minSlot, minLiq)

	return &domain.Opportunity{
		ID:              uuid.NewString(),
		Type:            domain.OpportunityTriangular,
		Pair:            c.Label,
		BuyVenue:        c.Venue,
		SellVenue:       c.Venue,
		BuyPrice:        legs[0].Price,
		SellPrice:       legs[0].Price * netMultiplier,
		GrossProfitPct:  grossPct,
		NetProfitPct:    netPct,
		RecommendedSize: minLiq * t.cfg.SizeFraction,
		Confidence:      confidence,
		DetectedAt:      now,
		Costs: domain.CostBreakdown{
			SlippagePct: 3 * t.cfg.SlippagePct,
			GasPct:      t.cfg.GasPct,
			TipPct:      t.cfg.TipPct,
		},
	}
}

// triangularConfidence weighs slot alignment against the thinnest leg's
// depth. Tighter than the spatial weighting because three legs must land
// close together.
func triangularConfidence(slotSpread uint64, minLiquidity float64) float64 {
	slotFactor := 1 - minFloat(float64(slotSpread)/5, 0.5)
	liquidityFactor := minFloat(minLiquidity/1_000_000, 1)
	return clamp01(0.5*slotFactor + 0.5*liquidityFactor)
}
