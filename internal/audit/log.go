package audit

import (
	"context"
	"log/slog"
)

// LogPublisher writes audit events to the structured log. It is the sink for
// deployments without Kafka and for tests.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, event Event) error {
	event = stamp(event)
	p.logger.InfoContext(ctx, "audit event",
		"action", event.Action,
		"provider_id", event.ProviderID,
		"plan_id", event.PlanID,
		"subject", event.Subject,
		"detail", event.Detail,
	)
	return nil
}

func (p *LogPublisher) Close() {}
