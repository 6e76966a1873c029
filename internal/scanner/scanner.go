// Package scanner orchestrates detection: it runs every registered strategy
// against the cached state, filters thin markets, deduplicates repeats, and
// hands surviving opportunities to the sink.
package scanner

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/dexmon/internal/detector"
	"github.com/alanyoungcy/dexmon/internal/domain"
	"github.com/alanyoungcy/dexmon/internal/metrics"
)

// Source is the cache view the scanner reads: per-pair snapshots plus the set
// of known pairs for interval sweeps.
type Source interface {
	Snapshot(pair string) []domain.VenueRecord
	Pairs() []string
	Len() int
}

// Config holds the orchestration parameters.
type Config struct {
	// MinLiquidityUsd is the floor below which a pair is not scanned at all.
	// A pair passes when at least one venue clears the floor.
	MinLiquidityUsd float64
	// ScanInterval drives the periodic full sweep that backstops the
	// event-driven path.
	ScanInterval time.Duration
	// DedupWindow suppresses repeats of the same route.
	DedupWindow time.Duration
	// Concurrency bounds the number of pairs scanned in parallel during a
	// sweep. Zero means 4.
	Concurrency int
}

// Scanner fans pair updates out to the strategy registry and funnels results
// to the sink exactly once per dedup window.
type Scanner struct {
	source   Source
	registry *detector.Registry
	sink     domain.OpportunitySink
	dedup    *Dedup
	cfg      Config
	met      *metrics.Metrics
	logger   *slog.Logger
}

// New wires a scanner. The sink may not be nil; metrics may be nil in tests.
func New(source Source, registry *detector.Registry, sink domain.OpportunitySink, cfg Config, met *metrics.Metrics, logger *slog.Logger) *Scanner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Scanner{
		source:   source,
		registry: registry,
		sink:     sink,
		dedup:    NewDedup(cfg.DedupWindow),
		cfg:      cfg,
		met:      met,
		logger:   logger.With(slog.String("component", "scanner")),
	}
}

// OnUpdate is the event-driven path: scan a single pair right after its cache
// entry changed.
func (s *Scanner) OnUpdate(ctx context.Context, pair string) {
	s.ScanPair(ctx, pair)
}

// Run drives the periodic sweep until the context is cancelled. It backstops
// the event-driven path: statistical windows keep filling and slow pairs are
// still revisited even when no update arrives.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	s.logger.Info("scanner started",
		slog.Duration("interval", s.cfg.ScanInterval),
		slog.Int("concurrency", s.cfg.Concurrency),
	)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scanner stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scanner) sweep(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, pair := range s.source.Pairs() {
		pair := pair
		g.Go(func() error {
			s.ScanPair(ctx, pair)
			return nil
		})
	}
	_ = g.Wait()

	if s.met != nil {
		s.met.CacheEntries.Set(float64(s.source.Len()))
	}
}

// ScanPair runs every registered strategy for one pair. A panicking strategy
// is contained and logged; the remaining strategies and pairs still run.
func (s *Scanner) ScanPair(ctx context.Context, pair string) {
	if !s.liquidEnough(pair) {
		return
	}

	start := time.Now()
	for _, strat := range s.registry.All() {
		s.runStrategy(ctx, strat, pair)
	}
	if s.met != nil {
		s.met.ScanDuration.Observe(time.Since(start).Seconds())
	}
}

func (s *Scanner) runStrategy(ctx context.Context, strat detector.Strategy, pair string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("strategy panicked",
				slog.String("strategy", strat.Name()),
				slog.String("pair", pair),
				slog.Any("panic", r),
			)
		}
	}()

	res, err := strat.Scan(ctx, pair)
	if err != nil {
		s.logger.Error("strategy scan failed",
			slog.String("strategy", strat.Name()),
			slog.String("pair", pair),
			slog.Any("error", err),
		)
		return
	}

	if res.Advisory != nil {
		if s.met != nil {
			s.met.Advisories.Inc()
		}
		if err := s.sink.EmitAdvisory(ctx, res.Advisory); err != nil {
			s.logger.Error("advisory emit failed", slog.Any("error", err))
		}
	}
	if res.Opportunity == nil {
		return
	}

	now := time.Now().UTC()
	if !s.dedup.Allow(res.Opportunity, now) {
		if s.met != nil {
			s.met.OpportunitiesMuted.Inc()
		}
		return
	}
	if s.met != nil {
		s.met.Opportunities.WithLabelValues(string(res.Opportunity.Type)).Inc()
	}
	s.logger.Info("opportunity detected",
		slog.String("id", res.Opportunity.ID),
		slog.String("strategy", strat.Name()),
		slog.String("summary", res.Opportunity.Summary()),
	)
	if err := s.sink.Emit(ctx, res.Opportunity); err != nil {
		s.logger.Error("opportunity emit failed",
			slog.String("id", res.Opportunity.ID),
			slog.Any("error", err),
		)
	}
}

// liquidEnough applies the market-depth floor: a pair is scannable when any
// venue's liquidity clears the configured minimum.
func (s *Scanner) liquidEnough(pair string) bool {
	if s.cfg.MinLiquidityUsd <= 0 {
		return true
	}
	for _, vr := range s.source.Snapshot(pair) {
		if vr.Record.Liquidity >= s.cfg.MinLiquidityUsd {
			return true
		}
	}
	return false
}
