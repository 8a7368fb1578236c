package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventEntryMatched  EventType = "entry_matched"
	EventReposition    EventType = "reposition"
	EventHandlerCall   EventType = "handler_call"
	EventHandlerReturn EventType = "handler_return"
	EventMismatch      EventType = "mismatch"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// EntryEvent reports a matched entry or a change of position.
type EntryEvent struct {
	EventBase
	Position string `json:"position"`
	Entry    string `json:"entry,omitempty"`
	Intent   string `json:"intent,omitempty"`
}

// HandlerEvent reports a registered handler invocation.
type HandlerEvent struct {
	EventBase
	Kind     HandlerKind   `json:"kind"`
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for interpreter observability.
type LifecycleHooks struct {
	OnEntryMatched  func(context.Context, *EntryEvent)
	OnReposition    func(context.Context, *EntryEvent)
	OnHandlerCall   func(context.Context, *HandlerEvent)
	OnHandlerReturn func(context.Context, *HandlerEvent)
	OnMismatch      func(context.Context, *EntryEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnEntryMatched:  chainEntry(h.OnEntryMatched, other.OnEntryMatched),
		OnReposition:    chainEntry(h.OnReposition, other.OnReposition),
		OnHandlerCall:   chainHandler(h.OnHandlerCall, other.OnHandlerCall),
		OnHandlerReturn: chainHandler(h.OnHandlerReturn, other.OnHandlerReturn),
		OnMismatch:      chainEntry(h.OnMismatch, other.OnMismatch),
	}
}

func chainEntry(a, b func(context.Context, *EntryEvent)) func(context.Context, *EntryEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *EntryEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainHandler(a, b func(context.Context, *HandlerEvent)) func(context.Context, *HandlerEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *HandlerEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
