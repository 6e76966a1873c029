package domain

import "context"

// OpportunitySink receives validated detector output. Each opportunity is
// emitted exactly once; fan-out to multiple downstream consumers is the
// sink implementation's concern, not the detectors'.
type OpportunitySink interface {
	Emit(ctx context.Context, opp *Opportunity) error
	EmitAdvisory(ctx context.Context, adv *Advisory) error
}

// StreamMessage represents a single entry from a durable stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub and durable streams for the opportunity output
// transport.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}
