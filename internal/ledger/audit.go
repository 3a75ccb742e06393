package ledger

import (
	"context"
	"log/slog"

	"bondline/internal/events"
	"bondline/pkg/requestcontext"
)

// LogAudit writes a structured audit line enriched with the request ID.
func LogAudit(ctx context.Context, logger *slog.Logger, event string, attrs ...any) {
	if logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	args := append(attrs, "event", event, "log_type", "audit")
	logger.InfoContext(ctx, event, args...)
}

// Emit publishes committed-state events. A failing sink is logged and never
// fails the ledger operation that produced the events.
func Emit(ctx context.Context, logger *slog.Logger, publisher events.Publisher, evs ...events.Event) {
	if publisher == nil || len(evs) == 0 {
		return
	}
	requestID := requestcontext.RequestID(ctx)
	actor := requestcontext.Caller(ctx)
	for i := range evs {
		if evs[i].RequestID == "" {
			evs[i].RequestID = requestID
		}
		if evs[i].Actor.IsZero() {
			evs[i].Actor = actor
		}
	}
	if err := publisher.Publish(ctx, evs...); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to publish ledger events",
			"count", len(evs),
			"first_type", evs[0].Type,
			"error", err,
		)
	}
}
