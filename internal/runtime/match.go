package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/aretw0/dockwise/internal/logging"
	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/registry"
)

// Handlers is the handler lookup the runtime depends on. *registry.Registry implements it.
type Handlers interface {
	Action(name string) (registry.ActionFunc, bool)
	Matcher(name string) (registry.MatcherFunc, bool)
	Validator(entity string) (registry.ValidatorFunc, bool)
	Filler(name string) (registry.FillerFunc, bool)
}

// Evaluator picks the entry of a stack that matches the current intent and session.
type Evaluator struct {
	handlers Handlers
	tracer   tracer
	logger   *slog.Logger
}

// NewEvaluator creates an evaluator resolving custom matchers through handlers.
func NewEvaluator(handlers Handlers, hooks domain.LifecycleHooks, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Evaluator{handlers: handlers, tracer: tracer{hooks: hooks}, logger: logger}
}

// Match returns the first entry of stack, in declaration order, whose
// condition holds. When none does it returns the stack's fallback entry, or a
// synthesized one when the stack declares none.
func (ev *Evaluator) Match(ctx context.Context, stack []domain.StackEntry, intent *string, s *domain.Session) (domain.StackEntry, error) {
	e, ok, err := ev.Find(ctx, stack, intent, s)
	if err != nil {
		return domain.StackEntry{}, err
	}
	if ok {
		return e, nil
	}
	return Fallback(stack), nil
}

// Find is Match without the fallback. Reserved entries are never selected.
func (ev *Evaluator) Find(ctx context.Context, stack []domain.StackEntry, intent *string, s *domain.Session) (domain.StackEntry, bool, error) {
	for _, e := range stack {
		if domain.IsReserved(e.Name) {
			continue
		}
		ok, err := ev.holds(ctx, e, intent, s)
		if err != nil {
			return domain.StackEntry{}, false, fmt.Errorf("entry '%s': %w", e.Name, err)
		}
		if ok {
			ev.logger.Debug("entry matched", "entry", e.Name, "position", s.Position)
			return e, true, nil
		}
	}
	return domain.StackEntry{}, false, nil
}

// Fallback returns the fallback entry declared in stack or a synthesized one.
func Fallback(stack []domain.StackEntry) domain.StackEntry {
	for _, e := range stack {
		if e.IsFallback() {
			return e
		}
	}
	return domain.StackEntry{
		Name:      domain.FallbackEntry,
		Responses: []string{domain.FallbackResponse},
	}
}

func (ev *Evaluator) holds(ctx context.Context, e domain.StackEntry, intent *string, s *domain.Session) (bool, error) {
	required := e.RequiredIntent()
	if intent == nil {
		if required != "" {
			return false, nil
		}
	} else if required != *intent {
		return false, nil
	}

	if e.Condition == nil {
		return true, nil
	}

	for _, p := range e.Condition.Entities {
		v, ok := s.Entity(p.Name)
		held, err := ev.predicate(ctx, p, v, ok, s)
		if err != nil || !held {
			return false, err
		}
	}
	for _, p := range e.Condition.Attributes {
		v, ok := s.Attribute(p.Name)
		held, err := ev.predicate(ctx, p, v, ok, s)
		if err != nil || !held {
			return false, err
		}
	}
	return true, nil
}

func (ev *Evaluator) predicate(ctx context.Context, p domain.Predicate, value any, set bool, s *domain.Session) (bool, error) {
	if !set || value == nil {
		return false, nil
	}

	if p.Matcher != "" {
		fn, ok := ev.handlers.Matcher(p.Matcher)
		if !ok {
			return false, domain.MissingHandler(domain.KindMatcher, p.Matcher)
		}
		var held bool
		err := ev.tracer.call(ctx, s, domain.KindMatcher, p.Matcher, func() error {
			var err error
			held, err = fn(ctx, s, value)
			return err
		})
		if err != nil {
			return false, fmt.Errorf("matcher '%s': %w", p.Matcher, err)
		}
		return held, nil
	}

	switch p.Operator {
	case domain.OpEqual:
		return LooseEqual(value, p.Value), nil
	case domain.OpNotEqual:
		return !LooseEqual(value, p.Value), nil
	default:
		return false, fmt.Errorf("%w: predicate '%s' has unknown operator '%s'", domain.ErrInvalidFlow, p.Name, p.Operator)
	}
}

// LooseEqual compares a stored value with a literal. Numbers and numeric
// strings compare numerically, booleans compare with their text form
// case-insensitively, anything else compares by its fmt text.
func LooseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	_, aBool := a.(bool)
	_, bBool := b.(bool)
	if aBool || bBool {
		return strings.EqualFold(strings.TrimSpace(fmt.Sprint(a)), strings.TrimSpace(fmt.Sprint(b)))
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
