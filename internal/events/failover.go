package events

import (
	"context"
	"log/slog"

	"bondline/pkg/platform/circuit"
)

// Failover sends events to a primary sink and diverts them to a fallback
// while the breaker is open. The primary is still attempted on every call so
// the breaker can observe recovery.
type Failover struct {
	primary  Publisher
	fallback Publisher
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewFailover(primary, fallback Publisher, breaker *circuit.Breaker, logger *slog.Logger) *Failover {
	if breaker == nil {
		breaker = circuit.New("events")
	}
	return &Failover{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (f *Failover) Publish(ctx context.Context, events ...Event) error {
	err := f.primary.Publish(ctx, events...)
	if err == nil {
		usePrimary, change := f.breaker.RecordSuccess()
		if change.Closed {
			f.log(ctx, slog.LevelInfo, "event sink recovered, circuit closed")
		}
		if usePrimary {
			return nil
		}
		// Half-recovered: the primary accepted the batch but the breaker is
		// still open, so the fallback gets a copy too.
		return f.fallback.Publish(ctx, events...)
	}

	useFallback, change := f.breaker.RecordFailure()
	if change.Opened {
		f.log(ctx, slog.LevelWarn, "event sink failing, circuit opened", "error", err)
	}
	if !useFallback {
		return err
	}
	return f.fallback.Publish(ctx, events...)
}

func (f *Failover) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if f.logger == nil {
		return
	}
	args = append(args, "breaker", f.breaker.Name())
	f.logger.Log(ctx, level, msg, args...)
}

// LogSink writes events to a structured logger. It is the fallback when no
// broker is reachable.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, events ...Event) error {
	for _, e := range events {
		s.logger.InfoContext(ctx, "ledger event",
			"event_id", e.ID.String(),
			"event_type", string(e.Type),
			"identity_id", uint64(e.IdentityID),
			"claim_id", string(e.ClaimID),
			"actor", string(e.Actor),
			"amount", uint64(e.Amount),
			"request_id", e.RequestID,
			"occurred_at", e.OccurredAt,
		)
	}
	return nil
}
