package assistant

import (
	"context"
	"fmt"

	"github.com/aretw0/dockwise/pkg/adapters/docker"
	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/registry"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ImageIsLocal matches when the predicate's value names an image present
// locally. An unreachable docker daemon does not match.
func (a *Assistant) ImageIsLocal(ctx context.Context, _ *domain.Session, value any) (bool, error) {
	if value == nil {
		return false, nil
	}
	ref, err := docker.NormalizeReference(fmt.Sprint(value))
	if err != nil {
		return false, nil
	}
	ok, err := a.docker.HasImage(ctx, ref)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		a.logger.Warn("image lookup failed", "image", ref, "err", err)
		return false, nil
	}
	return ok, nil
}

// CompileMatcher compiles a boolean expression into a matcher. The
// expression sees the predicate's value as `value` and the session as
// `entities` and `attributes` (attribute values only). Unknown names
// evaluate to nil.
//
//	value != nil && int(value) >= 1024
//	entities.image startsWith "nginx" && attributes.mode == "dev"
func CompileMatcher(src string) (registry.MatcherFunc, error) {
	program, err := expr.Compile(src,
		expr.Env(matcherEnv(nil, nil)),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile matcher %q: %w", src, err)
	}
	return func(_ context.Context, s *domain.Session, value any) (bool, error) {
		return runMatcher(program, s, value)
	}, nil
}

// RegisterExprMatchers compiles every expression and registers it under its name.
func RegisterExprMatchers(reg *registry.Registry, matchers map[string]string) error {
	for name, src := range matchers {
		fn, err := CompileMatcher(src)
		if err != nil {
			return &domain.ConfigError{Kind: domain.KindMatcher, Name: name, Err: err}
		}
		reg.RegisterMatcher(name, fn)
	}
	return nil
}

func runMatcher(program *vm.Program, s *domain.Session, value any) (bool, error) {
	env := matcherEnv(nil, nil)
	if s != nil {
		attrs := make(map[string]any, len(s.Attributes))
		for k, a := range s.Attributes {
			attrs[k] = a.Value
		}
		env = matcherEnv(s.Entities, attrs)
	}
	env["value"] = value

	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("matcher evaluation: %w", err)
	}
	b, _ := out.(bool)
	return b, nil
}

func matcherEnv(entities, attributes map[string]any) map[string]any {
	if entities == nil {
		entities = map[string]any{}
	}
	if attributes == nil {
		attributes = map[string]any{}
	}
	return map[string]any{
		"value":      nil,
		"entities":   entities,
		"attributes": attributes,
	}
}
