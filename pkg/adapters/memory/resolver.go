package memory

import (
	"fmt"
	"sync"

	"github.com/aretw0/dockwise/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Resolver implements ports.FragmentResolver over an in-memory map of raw fragments.
type Resolver struct {
	mu        sync.RWMutex
	fragments map[string]any
}

// NewResolver creates a resolver from already-decoded fragments.
func NewResolver(fragments map[string]any) *Resolver {
	r := &Resolver{fragments: make(map[string]any, len(fragments))}
	for k, v := range fragments {
		r.fragments[k] = v
	}
	return r
}

// NewResolverFromYAML decodes each YAML document and creates a resolver.
// This is convenient in tests and examples.
func NewResolverFromYAML(sources map[string]string) (*Resolver, error) {
	fragments := make(map[string]any, len(sources))
	for ref, src := range sources {
		var raw any
		if err := yaml.Unmarshal([]byte(src), &raw); err != nil {
			return nil, fmt.Errorf("failed to decode fragment %s: %w", ref, err)
		}
		fragments[ref] = raw
	}
	return &Resolver{fragments: fragments}, nil
}

// Add registers or replaces a fragment.
func (r *Resolver) Add(ref string, raw any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fragments[ref] = raw
}

// Resolve returns the raw fragment for ref.
func (r *Resolver) Resolve(ref string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	raw, ok := r.fragments[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFragmentNotFound, ref)
	}
	return raw, nil
}
