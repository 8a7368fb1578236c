package dockwise

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/dockwise/internal/compiler"
	"github.com/aretw0/dockwise/internal/logging"
	"github.com/aretw0/dockwise/internal/runtime"
	"github.com/aretw0/dockwise/internal/validator"
	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/ports"
	"github.com/aretw0/dockwise/pkg/registry"
)

// DefaultEntry is the fragment reference of the root dialog.
const DefaultEntry = "main"

type (
	// InputSource supplies user text, one line per call.
	InputSource = runtime.InputSource
	// Sink receives every rendered response.
	Sink = runtime.Sink
	// MismatchObserver is notified whenever the fallback entry runs.
	MismatchObserver = runtime.MismatchObserver
	// PurgePolicy decides whether jumps clear step-scoped attributes.
	PurgePolicy = runtime.PurgePolicy
)

const (
	PurgeAlways    = runtime.PurgeAlways
	PurgeSkipJumps = runtime.PurgeSkipJumps
)

// ParsePurgePolicy parses "always" or "skip-jumps".
func ParsePurgePolicy(s string) (PurgePolicy, error) {
	return runtime.ParsePurgePolicy(s)
}

// Engine is the high-level entry point for dockwise.
// It assembles a flow once and runs conversations over it.
type Engine struct {
	resolver ports.FragmentResolver
	registry *registry.Registry

	entry      string
	globalRef  string
	classifier ports.Classifier
	hooks      domain.LifecycleHooks
	observers  []MismatchObserver
	out        io.Writer
	logger     *slog.Logger

	runtimeOpts []runtime.Option

	tree   *domain.DialogNode
	global []domain.StackEntry
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls accumulate.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithEntry sets the fragment reference of the root dialog (default: "main").
func WithEntry(ref string) Option {
	return func(e *Engine) {
		e.entry = ref
	}
}

// WithGlobal sets the fragment reference of the global stack.
func WithGlobal(ref string) Option {
	return func(e *Engine) {
		e.globalRef = ref
	}
}

// WithClassifier sets the NLU classifier.
func WithClassifier(c ports.Classifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithMismatchObservers registers fallback observers.
func WithMismatchObservers(observers ...MismatchObserver) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, observers...)
	}
}

// WithOutput sets the writer used when a conversation has no sinks.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.out = w
	}
}

// WithMaxSlotAttempts bounds rejected values per slot. 0 means unbounded.
func WithMaxSlotAttempts(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMaxSlotAttempts(n))
	}
}

// WithPurgePolicy selects whether jumps purge step attributes.
func WithPurgePolicy(p PurgePolicy) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithPurgePolicy(p))
	}
}

// WithSeed makes response selection deterministic.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithSeed(seed))
	}
}

// WithDefaultThreshold sets the intent confidence floor for nodes without an override.
func WithDefaultThreshold(t float64) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithDefaultThreshold(t))
	}
}

// WithEntityFloor sets the minimum confidence for stored entities.
func WithEntityFloor(f float64) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithEntityFloor(f))
	}
}

// New loads the flow through resolver, assembles it, validates it and binds
// every handler name it uses against reg. Any failure is returned before a
// conversation can start.
func New(resolver ports.FragmentResolver, reg *registry.Registry, opts ...Option) (*Engine, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if reg == nil {
		reg = registry.NewRegistry()
	}

	eng := &Engine{
		resolver: resolver,
		registry: reg,
		entry:    DefaultEntry,
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	eng.logger = eng.logger.With("flow", eng.entry)

	asm := compiler.NewAssembler(resolver, compiler.WithLogger(eng.logger))

	raw, err := resolver.Resolve(eng.entry)
	if err != nil {
		return nil, &domain.ConfigError{Kind: domain.KindFragment, Name: eng.entry, Err: err}
	}
	eng.tree, err = asm.Assemble(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble %q: %w", eng.entry, err)
	}

	if eng.globalRef != "" {
		raw, err := resolver.Resolve(eng.globalRef)
		if err != nil {
			return nil, &domain.ConfigError{Kind: domain.KindFragment, Name: eng.globalRef, Err: err}
		}
		eng.global, err = asm.AssembleStack(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to assemble global stack %q: %w", eng.globalRef, err)
		}
	}

	if err := validator.ValidateFlow(eng.tree, eng.global); err != nil {
		return nil, err
	}
	if err := reg.Bind(eng.tree, eng.global); err != nil {
		return nil, err
	}

	eng.logger.Debug("flow ready", "global_entries", len(eng.global))
	return eng, nil
}

// Tree returns the assembled root dialog.
func (e *Engine) Tree() *domain.DialogNode {
	return e.tree
}

// Global returns the assembled global stack.
func (e *Engine) Global() []domain.StackEntry {
	return e.global
}

// Registry returns the handler registry the flow was bound against.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// NewInterpreter creates a fresh conversation over the assembled flow.
func (e *Engine) NewInterpreter(input InputSource, sinks ...Sink) (*runtime.Interpreter, error) {
	opts := []runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithGlobalStack(e.global),
		runtime.WithInput(input),
		runtime.WithSinks(sinks...),
		runtime.WithMismatchObservers(e.observers...),
	}
	if e.classifier != nil {
		opts = append(opts, runtime.WithClassifier(e.classifier))
	}
	if e.out != nil {
		opts = append(opts, runtime.WithOutput(e.out))
	}
	opts = append(opts, e.runtimeOpts...)
	return runtime.New(e.tree, e.registry, opts...)
}

// Converse runs one conversation to completion and returns its final session.
// The error follows Interpreter.Start: domain.ErrExit, the input error
// (io.EOF when input runs out) or nil when the flow completes.
func (e *Engine) Converse(ctx context.Context, input InputSource, sinks ...Sink) (*domain.Session, error) {
	it, err := e.NewInterpreter(input, sinks...)
	if err != nil {
		return nil, err
	}
	err = it.Start(ctx)
	return it.Session(), err
}
