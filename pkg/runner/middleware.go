package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/registry"
)

// DeniedAttribute is the step attribute set to the action name when an
// interceptor blocks it, so responses and conditions can react.
const DeniedAttribute = "denied_action"

// ActionInterceptor decides whether a registered action may run.
type ActionInterceptor func(ctx context.Context, name string, s *domain.Session) (bool, error)

// MultiInterceptor chains interceptors; the first denial or error wins.
func MultiInterceptor(interceptors ...ActionInterceptor) ActionInterceptor {
	return func(ctx context.Context, name string, s *domain.Session) (bool, error) {
		for _, interceptor := range interceptors {
			allowed, err := interceptor(ctx, name, s)
			if err != nil || !allowed {
				return false, err
			}
		}
		return true, nil
	}
}

// ConfirmationMiddleware asks through handler before an action runs. Only
// "y" and "yes" allow it.
func ConfirmationMiddleware(handler IOHandler) ActionInterceptor {
	return func(ctx context.Context, name string, _ *domain.Session) (bool, error) {
		if err := handler.SystemOutput(ctx, fmt.Sprintf("Allow '%s'? [y/N]", name)); err != nil {
			return false, err
		}
		input, err := handler.Input(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(input)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}

// AutoApproveMiddleware allows everything.
func AutoApproveMiddleware() ActionInterceptor {
	return func(context.Context, string, *domain.Session) (bool, error) {
		return true, nil
	}
}

// Guard re-registers the named actions of reg behind interceptor. Unknown
// names are returned as an error. A blocked action does nothing and sets
// DeniedAttribute for the current step.
func Guard(reg *registry.Registry, interceptor ActionInterceptor, names ...string) error {
	var missing []string
	for _, name := range names {
		fn, ok := reg.Action(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		reg.RegisterAction(name, guarded(name, fn, interceptor))
	}
	if len(missing) > 0 {
		return fmt.Errorf("cannot guard unregistered actions: %s", strings.Join(missing, ", "))
	}
	return nil
}

func guarded(name string, fn registry.ActionFunc, interceptor ActionInterceptor) registry.ActionFunc {
	return func(ctx context.Context, s *domain.Session, nlu *domain.NLUResult) (any, error) {
		allowed, err := interceptor(ctx, name, s)
		if err != nil {
			return nil, fmt.Errorf("action interceptor: %w", err)
		}
		if !allowed {
			s.SetAttribute(DeniedAttribute, name, domain.LifespanStep)
			return nil, nil
		}
		return fn(ctx, s, nlu)
	}
}
