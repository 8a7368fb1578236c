package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/dockwise/internal/runtime"
	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestEvaluator_RequiredEntityMustBeSet(t *testing.T) {
	stack := []domain.StackEntry{
		{Name: "stop", Condition: &domain.Condition{
			Intent:   "stop",
			Entities: []domain.Predicate{{Name: "target", Operator: domain.OpEqual, Value: "db"}},
		}},
		{Name: domain.FallbackEntry, Responses: []string{"?"}},
	}
	ev := runtime.NewEvaluator(registry.NewRegistry(), domain.LifecycleHooks{}, nil)
	s := domain.NewSession("root", 0.6)

	got, err := ev.Match(context.Background(), stack, strPtr("stop"), s)
	require.NoError(t, err)
	assert.Equal(t, domain.FallbackEntry, got.Name)

	s.SetEntity("target", "db")
	got, err = ev.Match(context.Background(), stack, strPtr("stop"), s)
	require.NoError(t, err)
	assert.Equal(t, "stop", got.Name)

	s.SetEntity("target", "cache")
	got, err = ev.Match(context.Background(), stack, strPtr("stop"), s)
	require.NoError(t, err)
	assert.Equal(t, domain.FallbackEntry, got.Name)
}

func TestEvaluator_DeclarationOrderWins(t *testing.T) {
	stack := []domain.StackEntry{
		{Name: "first", Condition: cond("greet")},
		{Name: "second", Condition: cond("greet")},
	}
	ev := runtime.NewEvaluator(registry.NewRegistry(), domain.LifecycleHooks{}, nil)

	got, err := ev.Match(context.Background(), stack, strPtr("greet"), domain.NewSession("root", 0.6))
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
}

func TestEvaluator_NullIntent(t *testing.T) {
	stack := []domain.StackEntry{
		{Name: domain.WelcomeEntry},
		{Name: "needs", Condition: cond("x")},
		{Name: "open", Condition: &domain.Condition{Attributes: []domain.Predicate{{Name: "mode", Operator: domain.OpNotEqual, Value: "off"}}}},
	}
	ev := runtime.NewEvaluator(registry.NewRegistry(), domain.LifecycleHooks{}, nil)
	s := domain.NewSession("root", 0.6)

	_, ok, err := ev.Find(context.Background(), stack, nil, s)
	require.NoError(t, err)
	assert.False(t, ok, "unset attribute fails the != predicate too")

	s.SetAttribute("mode", "on", "")
	got, ok, err := ev.Find(context.Background(), stack, nil, s)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "open", got.Name)

	_, ok, err = ev.Find(context.Background(), stack, strPtr("other"), s)
	require.NoError(t, err)
	assert.False(t, ok, "an entry without required intent does not match a present intent")
}

func TestEvaluator_CustomMatcher(t *testing.T) {
	reg := registry.NewRegistry()
	var received any
	reg.RegisterMatcher("is.local", func(_ context.Context, _ *domain.Session, v any) (bool, error) {
		received = v
		return v == "nginx:latest", nil
	})
	reg.RegisterMatcher("broken", func(context.Context, *domain.Session, any) (bool, error) {
		return false, errors.New("boom")
	})

	stack := []domain.StackEntry{
		{Name: "local", Condition: &domain.Condition{Entities: []domain.Predicate{{Name: "image", Matcher: "is.local"}}}},
	}
	ev := runtime.NewEvaluator(reg, domain.LifecycleHooks{}, nil)
	s := domain.NewSession("root", 0.6)

	got, err := ev.Match(context.Background(), stack, nil, s)
	require.NoError(t, err)
	assert.Equal(t, domain.FallbackEntry, got.Name)
	assert.Equal(t, []string{domain.FallbackResponse}, got.Responses)
	assert.Nil(t, received, "matcher is not invoked for an unset value")

	s.SetEntity("image", "nginx:latest")
	got, err = ev.Match(context.Background(), stack, nil, s)
	require.NoError(t, err)
	assert.Equal(t, "local", got.Name)
	assert.Equal(t, "nginx:latest", received)

	stack[0].Condition.Entities[0].Matcher = "broken"
	_, err = ev.Match(context.Background(), stack, nil, s)
	assert.ErrorContains(t, err, "boom")

	stack[0].Condition.Entities[0].Matcher = "absent"
	_, err = ev.Match(context.Background(), stack, nil, s)
	assert.ErrorIs(t, err, domain.ErrMissingHandler)
}

func TestLooseEqual(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{"8080", 8080, true},
		{8080.0, "8080", true},
		{"8080", "8080.0", true},
		{"80", 8080, false},
		{true, "true", true},
		{"TRUE", true, true},
		{false, "yes", false},
		{"db", "db", true},
		{"db", "DB", false},
		{[]string{"a"}, "[a]", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, runtime.LooseEqual(tt.a, tt.b), "%v == %v", tt.a, tt.b)
	}
}
