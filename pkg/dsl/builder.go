package dsl

import (
	"fmt"
	"sort"

	"github.com/aretw0/dockwise/pkg/adapters/memory"
	"gopkg.in/yaml.v3"
)

// Builder collects named fragments.
type Builder struct {
	dialogs map[string]*DialogBuilder
	stacks  map[string]*StackBuilder
}

// New creates an empty builder.
func New() *Builder {
	return &Builder{
		dialogs: make(map[string]*DialogBuilder),
		stacks:  make(map[string]*StackBuilder),
	}
}

// Dialog declares a dialog fragment resolvable as ref.
// If the fragment already exists, it returns the existing builder.
func (b *Builder) Dialog(ref string) *DialogBuilder {
	if d, ok := b.dialogs[ref]; ok {
		return d
	}
	d := &DialogBuilder{}
	b.dialogs[ref] = d
	return d
}

// Stack declares a bare entry-list fragment, used by imports and as a
// global stack.
func (b *Builder) Stack(ref string) *StackBuilder {
	if s, ok := b.stacks[ref]; ok {
		return s
	}
	s := &StackBuilder{}
	b.stacks[ref] = s
	return s
}

// Refs returns the declared references in sorted order.
func (b *Builder) Refs() []string {
	refs := make([]string, 0, len(b.dialogs)+len(b.stacks))
	for ref := range b.dialogs {
		refs = append(refs, ref)
	}
	for ref := range b.stacks {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// YAML renders the fragment ref as it would be written in a flow file.
func (b *Builder) YAML(ref string) ([]byte, error) {
	var v any
	if d, ok := b.dialogs[ref]; ok {
		node := d.Build()
		v = &node
	} else if s, ok := b.stacks[ref]; ok {
		v = s.Build()
	} else {
		return nil, fmt.Errorf("unknown fragment %q", ref)
	}
	return yaml.Marshal(v)
}

// Build compiles the fragments into a memory resolver. Fragments go through
// the same decoding as flow files, so the resolver is indistinguishable from
// one loaded from disk.
func (b *Builder) Build() (*memory.Resolver, error) {
	for ref := range b.dialogs {
		if _, dup := b.stacks[ref]; dup {
			return nil, fmt.Errorf("fragment %q declared as both dialog and stack", ref)
		}
	}

	sources := make(map[string]string, len(b.dialogs)+len(b.stacks))
	for _, ref := range b.Refs() {
		data, err := b.YAML(ref)
		if err != nil {
			return nil, err
		}
		sources[ref] = string(data)
	}

	resolver, err := memory.NewResolverFromYAML(sources)
	if err != nil {
		return nil, fmt.Errorf("failed to build resolver: %w", err)
	}
	return resolver, nil
}
