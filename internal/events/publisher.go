package events

import (
	"context"
	"log/slog"

	"budgettracker/internal/store"
)

// MessagePublisher sends one change message.
type MessagePublisher interface {
	Publish(ctx context.Context, msg *ChangeMessage) error
}

// Publisher forwards committed store changes to the change feed. It is
// best-effort: a failed publish is logged and never fails the mutation.
type Publisher struct {
	out    MessagePublisher
	logger *slog.Logger
}

var _ store.Listener = (*Publisher)(nil)

func NewPublisher(out MessagePublisher, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{out: out, logger: logger}
}

// OnChange implements store.Listener.
func (p *Publisher) OnChange(ctx context.Context, c store.Change) {
	msg := NewChangeMessage(c)
	if err := p.out.Publish(context.WithoutCancel(ctx), msg); err != nil {
		p.logger.WarnContext(ctx, "Failed to publish change",
			"kind", c.Kind,
			"id", c.ID,
			"error", err)
	}
}
