package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/dockwise/internal/logging"
	"github.com/aretw0/dockwise/pkg/domain"
)

// PurgePolicy decides whether step attributes are purged after a jump.
type PurgePolicy int

const (
	// PurgeAlways purges step attributes at the end of every entry.
	PurgeAlways PurgePolicy = iota
	// PurgeSkipJumps keeps step attributes alive across a jump so the target can read them.
	PurgeSkipJumps
)

func (p PurgePolicy) String() string {
	if p == PurgeSkipJumps {
		return "skip-jumps"
	}
	return "always"
}

// ParsePurgePolicy parses "always" or "skip-jumps".
func ParsePurgePolicy(s string) (PurgePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "always":
		return PurgeAlways, nil
	case "skip-jumps", "skip_jumps":
		return PurgeSkipJumps, nil
	}
	return PurgeAlways, fmt.Errorf("unknown purge policy %q", s)
}

// Pipeline runs the pre, main and post actions of an entry.
type Pipeline struct {
	handlers Handlers
	policy   PurgePolicy
	tracer   tracer
	logger   *slog.Logger
}

// NewPipeline creates an action pipeline.
func NewPipeline(handlers Handlers, policy PurgePolicy, hooks domain.LifecycleHooks, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{handlers: handlers, policy: policy, tracer: tracer{hooks: hooks}, logger: logger}
}

// RunPre runs the entry's pre-action, if any.
func (p *Pipeline) RunPre(ctx context.Context, e domain.StackEntry, s *domain.Session, nlu *domain.NLUResult) error {
	return p.run(ctx, e.PreAction, s, nlu)
}

// RunMain runs the entry's main action, if any.
func (p *Pipeline) RunMain(ctx context.Context, e domain.StackEntry, s *domain.Session, nlu *domain.NLUResult) error {
	return p.run(ctx, e.Action, s, nlu)
}

// RunPost runs the entry's post-action, if any, and then purges step
// attributes. Under PurgeSkipJumps a jumping entry without a post-action keeps them.
func (p *Pipeline) RunPost(ctx context.Context, e domain.StackEntry, s *domain.Session, nlu *domain.NLUResult) error {
	if err := p.run(ctx, e.PostAction, s, nlu); err != nil {
		return err
	}
	if p.policy == PurgeSkipJumps && e.Jump != "" && e.PostAction == "" {
		return nil
	}
	s.PurgeStepAttributes()
	return nil
}

func (p *Pipeline) run(ctx context.Context, name string, s *domain.Session, nlu *domain.NLUResult) error {
	if name == "" {
		return nil
	}
	fn, ok := p.handlers.Action(name)
	if !ok {
		return domain.MissingHandler(domain.KindAction, name)
	}

	var out any
	err := p.tracer.call(ctx, s, domain.KindAction, name, func() error {
		var err error
		out, err = fn(ctx, s, nlu)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrExit) {
			return err
		}
		return fmt.Errorf("action '%s': %w", name, err)
	}
	p.logger.Debug("action returned", "action", name, "result", out)
	return nil
}
