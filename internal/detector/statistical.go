package detector

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/dexmon/internal/domain"
	"github.com/alanyoungcy/dexmon/internal/stats"
)

// StatisticalConfig holds the pairs-trading detector parameters.
type StatisticalConfig struct {
	// EntryZScore is the absolute z-score above which a divergence signal is
	// emitted.
	EntryZScore float64
	// ExitZScore marks mean reversion; informational only for the detector.
	ExitZScore float64
	// StopZScore is the breakdown threshold: beyond it the relationship is
	// assumed broken and an advisory is emitted instead of an opportunity.
	StopZScore float64
	// WindowSize is the rolling spread window capacity.
	WindowSize int
	// MinSamples is the minimum window fill before z-scores are trusted.
	MinSamples int
	// StaleThreshold discards records older than this.
	StaleThreshold time.Duration
	// SizeFraction of the thinner leg's liquidity recommended as trade size.
	SizeFraction float64
}

// Couple is a candidate cointegrated pair traded on one venue.
type Couple struct {
	PairA string
	PairB string
	Venue string
}

// PairStatistics tracks the calibrated relationship and rolling spread window
// for one couple.
type PairStatistics struct {
	Beta        float64
	HalfLife    float64
	window      *stats.Rolling
	lastUpdated time.Time
	seen        observation
}

// observation identifies one spread input by the slots and timestamps of the
// two records that produced it.
type observation struct {
	slotA, slotB uint64
	atA, atB     time.Time
}

// Statistical watches log-price spreads between historically correlated pairs
// and signals when the spread diverges beyond the entry threshold.
type Statistical struct {
	source  SnapshotSource
	cfg     StatisticalConfig
	logger  *slog.Logger
	mu      sync.Mutex
	couples map[string][]Couple // keyed by member pair for O(1) lookup on scan
	state   map[Couple]*PairStatistics
}

// NewStatistical creates the statistical detector with no couples registered.
func NewStatistical(source SnapshotSource, cfg StatisticalConfig, logger *slog.Logger) *Statistical {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 100
	}
	return &Statistical{
		source:  source,
		cfg:     cfg,
		logger:  logger.With(slog.String("strategy", "statistical")),
		couples: make(map[string][]Couple),
		state:   make(map[Couple]*PairStatistics),
	}
}

// Name returns the strategy identifier.
func (s *Statistical) Name() string { return "statistical" }

// SetCalibration registers (or re-registers) a couple with its hedge ratio.
// Re-registering resets the rolling window.
func (s *Statistical) SetCalibration(c Couple, beta, halfLife float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state[c]; !ok {
		s.couples[c.PairA] = append(s.couples[c.PairA], c)
		s.couples[c.PairB] = append(s.couples[c.PairB], c)
	}
	s.state[c] = &PairStatistics{
		Beta:     beta,
		HalfLife: halfLife,
		window:   stats.NewRolling(s.cfg.WindowSize),
	}
}

// Scan evaluates every couple the pair participates in. Each scan pushes one
// spread observation into the couple's window; signals fire once the window
// holds MinSamples observations.
func (s *Statistical) Scan(ctx context.Context, pair string) (Result, error) {
	_ = ctx
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.couples[pair] {
		res := s.scanCouple(c, now)
		if res.Opportunity != nil || res.Advisory != nil {
			return res, nil
		}
	}
	return Result{}, nil
}

func (s *Statistical) scanCouple(c Couple, now time.Time) Result {
	ps := s.state[c]

	recA, okA := s.source.Get(c.PairA, c.Venue)
	recB, okB := s.source.Get(c.PairB, c.Venue)
	if !okA || !okB {
		return Result{}
	}
	if recA.IsStale(now, s.cfg.StaleThreshold) || recB.IsStale(now, s.cfg.StaleThreshold) {
		return Result{}
	}
	if recA.Price <= 0 || recB.Price <= 0 {
		return Result{}
	}

	// A couple is indexed under both member pairs, so a sweep over every pair
	// reaches it twice. The same underlying records are one observation, not
	// two: skip until either record actually changes.
	obs := observation{recA.Slot, recB.Slot, recA.ObservedAt, recB.ObservedAt}
	if ps.seen == obs {
		return Result{}
	}
	ps.seen = obs

	spread := math.Log(recA.Price) - ps.Beta*math.Log(recB.Price)
	ps.window.Push(spread)
	ps.lastUpdated = now

	if ps.window.Len() < s.cfg.MinSamples {
		return Result{}
	}
	std := ps.window.StdDev()
	if std < 1e-9 {
		return Result{}
	}
	z := (spread - ps.window.Mean()) / std

	if math.Abs(z) > s.cfg.StopZScore {
		s.logger.Warn("spread relationship breakdown",
			slog.String("pair_a", c.PairA),
			slog.String("pair_b", c.PairB),
			slog.Float64("z_score", z),
		)
		return Result{Advisory: &domain.Advisory{
			Pair:       c.PairA + "/" + c.PairB,
			ZScore:     z,
			Spread:     spread,
			ObservedAt: now,
		}}
	}
	if math.Abs(z) <= s.cfg.EntryZScore {
		return Result{}
	}

	// Positive z: A rich relative to B, so sell A and buy B. Negative is the
	// mirror image.
	buyPair, sellPair := c.PairB, c.PairA
	buyRec, sellRec := recB, recA
	if z < 0 {
		buyPair, sellPair = c.PairA, c.PairB
		buyRec, sellRec = recA, recB
	}

	minLiq := minFloat(recA.Liquidity, recB.Liquidity)
	confidence := statisticalConfidence(z, s.cfg.StopZScore, ps.window.Len(), ps.window.Cap())

	opp := domain.Opportunity{
		ID:              uuid.NewString(),
		Type:            domain.OpportunityStatistical,
		Pair:            sellPair + "/" + buyPair,
		BuyVenue:        c.Venue,
		SellVenue:       c.Venue,
		BuyPrice:        buyRec.Price,
		SellPrice:       sellRec.Price,
		GrossProfitPct:  math.Abs(z),
		NetProfitPct:    math.Abs(z),
		RecommendedSize: minLiq * s.cfg.SizeFraction,
		Confidence:      confidence,
		DetectedAt:      now,
	}
	return Result{Opportunity: &opp}
}

// statisticalConfidence weighs signal strength (how far past entry, short of
// the stop) against the history depth backing the estimate.
func statisticalConfidence(z, stopZ float64, samples, capacity int) float64 {
	zFactor := clamp01(math.Abs(z) / stopZ)
	historyFactor := clamp01(float64(samples) / float64(capacity))
	return clamp01(0.6*zFactor + 0.4*historyFactor)
}
