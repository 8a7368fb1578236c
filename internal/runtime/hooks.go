package runtime

import (
	"context"
	"time"

	"github.com/aretw0/dockwise/pkg/domain"
)

// tracer emits handler lifecycle events around registered handler calls.
type tracer struct {
	hooks domain.LifecycleHooks
}

func (t tracer) call(ctx context.Context, s *domain.Session, kind domain.HandlerKind, name string, fn func() error) error {
	sessionID := ""
	if s != nil {
		sessionID = s.ID
	}
	if t.hooks.OnHandlerCall != nil {
		t.hooks.OnHandlerCall(ctx, &domain.HandlerEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventHandlerCall, SessionID: sessionID},
			Kind:      kind,
			Name:      name,
		})
	}

	start := time.Now()
	err := fn()

	if t.hooks.OnHandlerReturn != nil {
		t.hooks.OnHandlerReturn(ctx, &domain.HandlerEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventHandlerReturn, SessionID: sessionID},
			Kind:      kind,
			Name:      name,
			Duration:  time.Since(start),
			IsError:   err != nil,
		})
	}
	return err
}

func (t tracer) entry(ctx context.Context, typ domain.EventType, s *domain.Session, entry string, intent *string) {
	var hook func(context.Context, *domain.EntryEvent)
	switch typ {
	case domain.EventEntryMatched:
		hook = t.hooks.OnEntryMatched
	case domain.EventReposition:
		hook = t.hooks.OnReposition
	case domain.EventMismatch:
		hook = t.hooks.OnMismatch
	}
	if hook == nil {
		return
	}
	ev := &domain.EntryEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, SessionID: s.ID},
		Position:  s.Position,
		Entry:     entry,
	}
	if intent != nil {
		ev.Intent = *intent
	}
	hook(ctx, ev)
}
