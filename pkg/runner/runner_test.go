package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/dockwise"
	"github.com/aretw0/dockwise/pkg/adapters/memory"
	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flow = `
stack:
  - name: "&welcome"
    responses: ["Welcome to dockwise"]
  - name: bye
    condition: {intent: bye}
    action: exit
  - name: done
    condition: {intent: done}
  - name: "&otherwise"
    responses: ["Say bye to leave"]
`

func newEngine(t *testing.T) *dockwise.Engine {
	t.Helper()
	resolver, err := memory.NewResolverFromYAML(map[string]string{"main": flow})
	require.NoError(t, err)

	reg := registry.NewRegistry()
	reg.RegisterAction("exit", func(context.Context, *domain.Session, *domain.NLUResult) (any, error) {
		return nil, domain.ErrExit
	})

	eng, err := dockwise.New(resolver, reg, dockwise.WithClassifier(memory.NewClassifier(
		memory.WithIntent("bye", "bye"),
		memory.WithIntent("done", "done"),
	)))
	require.NoError(t, err)
	return eng
}

func TestRunner_Run(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"exit action", "hmm\nbye\n"},
		{"end of input", "hmm\n"},
		{"exit word", "hmm\nquit\nbye\n"},
		{"completed flow", "hmm\ndone\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			var extra []string
			r := NewRunner(
				WithInputHandler(NewTextHandler(strings.NewReader(tt.input), out)),
				WithSinks(func(_ context.Context, text string, _ *domain.Session) error {
					extra = append(extra, text)
					return nil
				}),
			)

			session, err := r.Run(context.Background(), newEngine(t))
			require.NoError(t, err)
			require.NotNil(t, session)
			assert.Equal(t, "Welcome to dockwise\nSay bye to leave\n", out.String())
			assert.Equal(t, []string{"Welcome to dockwise", "Say bye to leave"}, extra)
		})
	}
}

func TestRunner_ParentCancellationIsNotAnInterrupt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(WithInputHandler(NewTextHandler(strings.NewReader("hmm\n"), &bytes.Buffer{})))
	_, err := r.Run(ctx, newEngine(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrInterrupted)
}

func TestRunner_DefaultHandler(t *testing.T) {
	assert.IsType(t, &TextHandler{}, NewRunner().IO())
	assert.IsType(t, &JSONHandler{}, NewRunner(WithHeadless(true)).IO())
}
