package assistant

import (
	"context"

	"github.com/aretw0/dockwise/pkg/domain"
)

// OnMismatch is a mismatch observer: it logs the utterance that reached a
// fallback and counts it.
func (a *Assistant) OnMismatch(_ context.Context, nlu *domain.NLUResult, stack []domain.StackEntry, s *domain.Session) error {
	var text, intent string
	if nlu != nil {
		text = nlu.Text
		if name := nlu.IntentName(); name != nil {
			intent = *name
		}
	}
	a.logger.Info("utterance not understood",
		"text", text,
		"intent", intent,
		"position", s.Position,
		"candidates", len(stack),
	)
	if a.counter != nil {
		a.counter.ObserveMismatch(s.Position)
	}
	return nil
}
