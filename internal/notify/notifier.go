// Package notify fans detection alerts out to operator channels (Telegram,
// Discord). Alerts can be filtered by event type and by a minimum confidence
// so low-quality signals stay out of chat.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

// Event types emitted by the monitor.
const (
	EventOpportunity = "opportunity_detected"
	EventBreakdown   = "stat_breakdown"
)

// Sender is one delivery channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier dispatches alerts to every registered sender. A failing sender
// never blocks delivery to the others.
type Notifier struct {
	senders       []Sender
	events        map[string]bool
	minConfidence float64
	logger        *slog.Logger
}

// NewNotifier creates a Notifier. Only event types in events pass the filter;
// an empty list allows everything. Opportunities below minConfidence are
// dropped.
func NewNotifier(senders []Sender, events []string, minConfidence float64, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders:       senders,
		events:        allowed,
		minConfidence: minConfidence,
		logger:        logger.With(slog.String("component", "notifier")),
	}
}

// NotifyOpportunity formats and delivers a detected opportunity.
func (n *Notifier) NotifyOpportunity(ctx context.Context, opp *domain.Opportunity) error {
	if !n.allowed(EventOpportunity) {
		return nil
	}
	if opp.Confidence < n.minConfidence {
		n.logger.DebugContext(ctx, "alert below confidence floor",
			slog.String("id", opp.ID),
			slog.Float64("confidence", opp.Confidence),
		)
		return nil
	}

	title := fmt.Sprintf("%s opportunity: %s", strings.ToUpper(string(opp.Type)), opp.Pair)
	message := fmt.Sprintf(
		"%s\nnet profit: %.3f%% (gross %.3f%%)\nsize: %.0f\nconfidence: %.2f",
		opp.Summary(), opp.NetProfitPct, opp.GrossProfitPct, opp.RecommendedSize, opp.Confidence,
	)
	return n.dispatch(ctx, title, message)
}

// NotifyAdvisory delivers a statistical-breakdown warning.
func (n *Notifier) NotifyAdvisory(ctx context.Context, adv *domain.Advisory) error {
	if !n.allowed(EventBreakdown) {
		return nil
	}
	title := fmt.Sprintf("spread breakdown: %s", adv.Pair)
	message := fmt.Sprintf("z-score %.2f exceeded stop threshold (spread %.6f)", adv.ZScore, adv.Spread)
	return n.dispatch(ctx, title, message)
}

func (n *Notifier) allowed(event string) bool {
	return len(n.events) == 0 || n.events[event]
}

func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "alert sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
