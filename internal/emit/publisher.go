// Package emit delivers validated opportunities to the outside world: the
// Redis signal bus for machine consumers, the notifier for operators, and an
// in-memory ring the HTTP API serves from.
package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alanyoungcy/dexmon/internal/domain"
	"github.com/alanyoungcy/dexmon/internal/notify"
)

// Bus channels and streams used for signal delivery.
const (
	OpportunityChannel = "dexmon:opportunities"
	OpportunityStream  = "dexmon:opportunities:stream"
	AdvisoryChannel    = "dexmon:advisories"
)

// Config holds publisher parameters.
type Config struct {
	// RecentSize bounds the in-memory ring of recent opportunities. Zero
	// means 100.
	RecentSize int
}

// Publisher implements domain.OpportunitySink. Bus and notifier are optional;
// a nil dependency simply skips that delivery path, so the monitor runs
// standalone without Redis or chat credentials.
type Publisher struct {
	bus      domain.SignalBus
	notifier *notify.Notifier
	logger   *slog.Logger

	mu     sync.Mutex
	recent []domain.Opportunity
	next   int
	filled bool
}

// NewPublisher wires a publisher.
func NewPublisher(bus domain.SignalBus, notifier *notify.Notifier, cfg Config, logger *slog.Logger) *Publisher {
	size := cfg.RecentSize
	if size <= 0 {
		size = 100
	}
	return &Publisher{
		bus:      bus,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "publisher")),
		recent:   make([]domain.Opportunity, size),
	}
}

// Emit records the opportunity and pushes it to every configured path. Bus
// and notifier failures are reported but do not stop the other paths.
func (p *Publisher) Emit(ctx context.Context, opp *domain.Opportunity) error {
	p.remember(*opp)

	payload, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("emit: marshal opportunity %s: %w", opp.ID, err)
	}

	var errs []error
	if p.bus != nil {
		if err := p.bus.Publish(ctx, OpportunityChannel, payload); err != nil {
			errs = append(errs, err)
		}
		if err := p.bus.StreamAppend(ctx, OpportunityStream, payload); err != nil {
			errs = append(errs, err)
		}
	}
	if p.notifier != nil {
		if err := p.notifier.NotifyOpportunity(ctx, opp); err != nil {
			errs = append(errs, err)
		}
	}

	for _, e := range errs {
		p.logger.Error("delivery failed",
			slog.String("id", opp.ID),
			slog.Any("error", e),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("emit: %d delivery path(s) failed for %s", len(errs), opp.ID)
	}
	return nil
}

// EmitAdvisory publishes a statistical-breakdown advisory.
func (p *Publisher) EmitAdvisory(ctx context.Context, adv *domain.Advisory) error {
	payload, err := json.Marshal(adv)
	if err != nil {
		return fmt.Errorf("emit: marshal advisory: %w", err)
	}

	var errs []error
	if p.bus != nil {
		if err := p.bus.Publish(ctx, AdvisoryChannel, payload); err != nil {
			errs = append(errs, err)
		}
	}
	if p.notifier != nil {
		if err := p.notifier.NotifyAdvisory(ctx, adv); err != nil {
			errs = append(errs, err)
		}
	}

	for _, e := range errs {
		p.logger.Error("advisory delivery failed", slog.Any("error", e))
	}
	if len(errs) > 0 {
		return fmt.Errorf("emit: %d delivery path(s) failed for advisory", len(errs))
	}
	return nil
}

func (p *Publisher) remember(opp domain.Opportunity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recent[p.next] = opp
	p.next = (p.next + 1) % len(p.recent)
	if p.next == 0 {
		p.filled = true
	}
}

// Recent returns the retained opportunities, newest first.
func (p *Publisher) Recent() []domain.Opportunity {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.next
	if p.filled {
		n = len(p.recent)
	}
	out := make([]domain.Opportunity, 0, n)
	for i := 1; i <= n; i++ {
		idx := (p.next - i + len(p.recent)) % len(p.recent)
		out = append(out, p.recent[idx])
	}
	return out
}

var _ domain.OpportunitySink = (*Publisher)(nil)
