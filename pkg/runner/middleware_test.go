package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedHandler answers Input from a fixed list and records system output.
type scriptedHandler struct {
	answers []string
	system  []string
	said    []string
}

func (h *scriptedHandler) Input(context.Context) (string, error) {
	if len(h.answers) == 0 {
		return "", errors.New("no more answers")
	}
	a := h.answers[0]
	h.answers = h.answers[1:]
	return a, nil
}

func (h *scriptedHandler) Sink(_ context.Context, text string, _ *domain.Session) error {
	h.said = append(h.said, text)
	return nil
}

func (h *scriptedHandler) SystemOutput(_ context.Context, msg string) error {
	h.system = append(h.system, msg)
	return nil
}

func TestConfirmationMiddleware(t *testing.T) {
	tests := []struct {
		answer  string
		allowed bool
	}{
		{"y", true},
		{" YES ", true},
		{"n", false},
		{"", false},
		{"maybe", false},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			h := &scriptedHandler{answers: []string{tt.answer}}
			allowed, err := ConfirmationMiddleware(h)(context.Background(), "image.remove", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
			assert.Equal(t, []string{"Allow 'image.remove'? [y/N]"}, h.system)
		})
	}
}

func TestConfirmationMiddleware_InputError(t *testing.T) {
	h := &scriptedHandler{}
	_, err := ConfirmationMiddleware(h)(context.Background(), "image.remove", nil)
	assert.Error(t, err)
}

func TestMultiInterceptor(t *testing.T) {
	var calls []string
	record := func(name string, allow bool) ActionInterceptor {
		return func(context.Context, string, *domain.Session) (bool, error) {
			calls = append(calls, name)
			return allow, nil
		}
	}

	allowed, err := MultiInterceptor(record("a", true), record("b", false), record("c", true))(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, []string{"a", "b"}, calls)

	allowed, err = MultiInterceptor(AutoApproveMiddleware())(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestGuard(t *testing.T) {
	reg := registry.NewRegistry()
	ran := 0
	reg.RegisterAction("image.remove", func(context.Context, *domain.Session, *domain.NLUResult) (any, error) {
		ran++
		return nil, nil
	})

	h := &scriptedHandler{answers: []string{"no", "yes"}}
	require.NoError(t, Guard(reg, ConfirmationMiddleware(h), "image.remove"))

	fn, ok := reg.Action("image.remove")
	require.True(t, ok)
	s := domain.NewSession("root", domain.DefaultThreshold)

	_, err := fn(context.Background(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ran)
	denied, ok := s.Attribute(DeniedAttribute)
	assert.True(t, ok)
	assert.Equal(t, "image.remove", denied)

	s.PurgeStepAttributes()
	_, err = fn(context.Background(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, ran)
	_, ok = s.Attribute(DeniedAttribute)
	assert.False(t, ok)

	assert.ErrorContains(t, Guard(reg, AutoApproveMiddleware(), "nope"), "nope")
}
