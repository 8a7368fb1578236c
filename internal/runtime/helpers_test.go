package runtime_test

import (
	"context"
	"io"
	"strings"

	"github.com/aretw0/dockwise/internal/runtime"
	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/ports"
)

// transcript records emitted text and input requests in order.
type transcript struct {
	events []string
	said   []string
}

func (tr *transcript) sink() runtime.Sink {
	return func(_ context.Context, text string, _ *domain.Session) error {
		tr.said = append(tr.said, text)
		tr.events = append(tr.events, "say:"+text)
		return nil
	}
}

// script returns an input source that replays lines and then io.EOF.
func (tr *transcript) script(lines ...string) runtime.InputSource {
	return func(context.Context) (string, error) {
		tr.events = append(tr.events, "input")
		if len(lines) == 0 {
			return "", io.EOF
		}
		line := lines[0]
		lines = lines[1:]
		return line, nil
	}
}

// keywords classifies an utterance as the intent named by its first word.
// Words of the form name=value become entities with confidence 0.9.
func keywords(confidence float64) ports.Classifier {
	return ports.ClassifierFunc(func(_ context.Context, text string, _ float64) (*domain.NLUResult, error) {
		fields := strings.Fields(text)
		res := &domain.NLUResult{Text: text}
		for _, f := range fields {
			if k, v, ok := strings.Cut(f, "="); ok {
				res.Entities = append(res.Entities, domain.Entity{Name: k, Value: v, Confidence: 0.9})
				continue
			}
			if res.Intent == nil {
				res.Intent = &domain.Intent{Name: f, Confidence: confidence}
			}
		}
		return res, nil
	})
}

func cond(intent string) *domain.Condition {
	return &domain.Condition{Intent: intent}
}
