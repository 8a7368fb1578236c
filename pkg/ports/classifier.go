package ports

import (
	"context"

	"github.com/aretw0/dockwise/pkg/domain"
)

// Classifier performs natural-language understanding on a single utterance.
type Classifier interface {
	// Classify returns the intent and entities detected in text. The threshold
	// is the caller's current confidence floor and may be used as a hint.
	Classify(ctx context.Context, text string, threshold float64) (*domain.NLUResult, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string, threshold float64) (*domain.NLUResult, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, text string, threshold float64) (*domain.NLUResult, error) {
	return f(ctx, text, threshold)
}
