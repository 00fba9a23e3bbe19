package audit

import (
	"context"
	"log/slog"
	"time"
)

// Sink receives audit events. Implementations must be safe for concurrent
// use.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. It is append-only and fans out
// through a Sink so tests can swap destinations easily. Audit is best effort:
// a failing sink is logged and never blocks the action being audited.
type Publisher struct {
	sink   Sink
	logger *slog.Logger
}

// NewPublisher constructs a Publisher. A nil sink disables auditing.
func NewPublisher(sink Sink, logger *slog.Logger) *Publisher {
	return &Publisher{sink: sink, logger: logger}
}

// Emit records one event, stamping the time when unset.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil || p.sink == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.sink.Append(ctx, event); err != nil {
		p.logger.WarnContext(ctx, "audit append failed", "action", event.Action, "error", err)
	}
}
