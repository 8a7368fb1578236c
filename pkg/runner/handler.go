package runner

import (
	"context"

	"github.com/aretw0/dockwise/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Input reads one utterance. io.EOF ends the conversation.
	Input(ctx context.Context) (string, error)

	// Sink presents one rendered response.
	Sink(ctx context.Context, text string, s *domain.Session) error

	// SystemOutput presents a meta-message (confirmations, interruptions)
	// distinct from the conversation content.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms response text before it is written, for
// example markdown to ANSI.
type ContentRenderer func(string) (string, error)
