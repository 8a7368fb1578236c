package registry

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/dockwise/pkg/domain"
)

// ActionFunc is a side-effecting step of an entry. The returned value is
// informational; returning domain.ErrExit ends the conversation.
type ActionFunc func(ctx context.Context, s *domain.Session, nlu *domain.NLUResult) (any, error)

// MatcherFunc decides whether a stored entity or attribute value satisfies a predicate.
type MatcherFunc func(ctx context.Context, s *domain.Session, value any) (bool, error)

// ValidatorFunc checks and normalizes a raw slot value. It is keyed by entity name.
type ValidatorFunc func(ctx context.Context, value any) (normalized any, ok bool, err error)

// FillerFunc tries to resolve a slot value without asking the user.
// Returning a nil value means nothing was found.
type FillerFunc func(ctx context.Context, s *domain.Session) (any, error)

// Registry holds the handlers a flow refers to by name.
type Registry struct {
	mu         sync.RWMutex
	actions    map[string]ActionFunc
	matchers   map[string]MatcherFunc
	validators map[string]ValidatorFunc
	fillers    map[string]FillerFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions:    make(map[string]ActionFunc),
		matchers:   make(map[string]MatcherFunc),
		validators: make(map[string]ValidatorFunc),
		fillers:    make(map[string]FillerFunc),
	}
}

// RegisterAction adds an action. An existing action with the same name is overwritten.
func (r *Registry) RegisterAction(name string, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = fn
}

// RegisterMatcher adds a custom matcher.
func (r *Registry) RegisterMatcher(name string, fn MatcherFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matchers[name] = fn
}

// RegisterValidator adds a slot validator for the named entity.
func (r *Registry) RegisterValidator(entity string, fn ValidatorFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[entity] = fn
}

// RegisterFiller adds a slot fill-handler.
func (r *Registry) RegisterFiller(name string, fn FillerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fillers[name] = fn
}

// Action looks up an action by name.
func (r *Registry) Action(name string) (ActionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.actions[name]
	return fn, ok
}

// Matcher looks up a matcher by name.
func (r *Registry) Matcher(name string) (MatcherFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.matchers[name]
	return fn, ok
}

// Validator looks up the validator registered for an entity.
func (r *Registry) Validator(entity string) (ValidatorFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.validators[entity]
	return fn, ok
}

// Filler looks up a fill-handler by name.
func (r *Registry) Filler(name string) (FillerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.fillers[name]
	return fn, ok
}

// Names lists registered handler names of the given kind, sorted.
func (r *Registry) Names(kind domain.HandlerKind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	switch kind {
	case domain.KindAction:
		names = keys(r.actions)
	case domain.KindMatcher:
		names = keys(r.matchers)
	case domain.KindValidator:
		names = keys(r.validators)
	case domain.KindFiller:
		names = keys(r.fillers)
	}
	sort.Strings(names)
	return names
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Bind checks that every action, matcher and fill-handler named anywhere in
// the assembled tree or the global stack is registered. All missing names are
// reported together in a single *domain.ConfigError.
func (r *Registry) Bind(root *domain.DialogNode, global []domain.StackEntry) error {
	b := &binder{reg: r, seen: make(map[string]bool)}
	if root != nil {
		b.node(root)
	}
	b.entries(global)

	switch len(b.missing) {
	case 0:
		return nil
	case 1:
		return b.missing[0]
	}

	names := make([]string, 0, len(b.missing))
	errs := make([]error, 0, len(b.missing))
	for _, m := range b.missing {
		names = append(names, string(m.Kind)+" "+m.Name)
		errs = append(errs, m)
	}
	return &domain.ConfigError{
		Kind: domain.KindBinding,
		Name: strings.Join(names, ", "),
		Err:  errors.Join(errs...),
	}
}

type binder struct {
	reg     *Registry
	seen    map[string]bool
	missing []*domain.ConfigError
}

func (b *binder) node(n *domain.DialogNode) {
	b.entries(n.Stack)
}

func (b *binder) entries(stack []domain.StackEntry) {
	for _, e := range stack {
		b.action(e.PreAction)
		b.action(e.Action)
		b.action(e.PostAction)
		if e.Condition != nil {
			for _, p := range e.Condition.Entities {
				b.matcher(p.Matcher)
			}
			for _, p := range e.Condition.Attributes {
				b.matcher(p.Matcher)
			}
		}
		for _, s := range e.Slots {
			b.filler(s.Filler)
		}
		if e.Dialog != nil {
			b.node(e.Dialog)
		}
	}
}

func (b *binder) action(name string) {
	if name == "" {
		return
	}
	_, ok := b.reg.Action(name)
	b.check(domain.KindAction, name, ok)
}

func (b *binder) matcher(name string) {
	if name == "" {
		return
	}
	_, ok := b.reg.Matcher(name)
	b.check(domain.KindMatcher, name, ok)
}

func (b *binder) filler(name string) {
	if name == "" {
		return
	}
	_, ok := b.reg.Filler(name)
	b.check(domain.KindFiller, name, ok)
}

func (b *binder) check(kind domain.HandlerKind, name string, ok bool) {
	key := string(kind) + "/" + name
	if ok || b.seen[key] {
		return
	}
	b.seen[key] = true
	b.missing = append(b.missing, domain.MissingHandler(kind, name))
}
