package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/dockwise/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that trace every event at debug level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	entry := func(msg string) func(context.Context, *domain.EntryEvent) {
		return func(ctx context.Context, e *domain.EntryEvent) {
			logger.DebugContext(ctx, msg,
				"session_id", e.SessionID,
				"position", e.Position,
				"entry", e.Entry,
				"intent", e.Intent,
			)
		}
	}
	return domain.LifecycleHooks{
		OnEntryMatched: entry("entry matched"),
		OnReposition:   entry("reposition"),
		OnMismatch:     entry("mismatch"),
		OnHandlerCall: func(ctx context.Context, e *domain.HandlerEvent) {
			logger.DebugContext(ctx, "handler call", "kind", e.Kind, "name", e.Name)
		},
		OnHandlerReturn: func(ctx context.Context, e *domain.HandlerEvent) {
			logger.DebugContext(ctx, "handler return",
				"kind", e.Kind,
				"name", e.Name,
				"duration", e.Duration,
				"is_error", e.IsError,
			)
		},
	}
}
