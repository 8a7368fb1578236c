package compiler

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/dockwise/internal/logging"
	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/ports"
)

// RootID is assigned to a root node that declares no id.
const RootID = "root"

// Assembler expands a fragmented flow definition into one self-contained tree.
// Dialog references are replaced by the resolved node and import markers are
// replaced in place by the resolved entries.
type Assembler struct {
	resolver ports.FragmentResolver
	parser   *Parser
	logger   *slog.Logger
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithLogger sets the logger used to trace fragment resolution.
func WithLogger(logger *slog.Logger) AssemblerOption {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// NewAssembler creates an assembler backed by resolver. A nil resolver fails
// every reference with domain.ErrFragmentNotFound.
func NewAssembler(resolver ports.FragmentResolver, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		resolver: resolver,
		parser:   NewParser(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble parses a raw root node and expands it.
func (a *Assembler) Assemble(raw any) (*domain.DialogNode, error) {
	node, err := a.parser.ParseNode(raw)
	if err != nil {
		return nil, err
	}
	return a.AssembleNode(node)
}

// AssembleNode expands an already parsed tree. The input is not modified.
// Assembling a tree that has no references left performs no resolver calls.
func (a *Assembler) AssembleNode(root *domain.DialogNode) (*domain.DialogNode, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: empty flow", domain.ErrInvalidFlow)
	}
	if root.ID == "" {
		clone := *root
		clone.ID = RootID
		root = &clone
	}

	out, err := a.node(root, nil)
	if err != nil {
		return nil, err
	}
	if err := checkTree(out); err != nil {
		return nil, err
	}
	return out, nil
}

// AssembleStack expands a raw entry list, typically the global stack.
// Entries of a global stack may not descend into nested dialogs.
func (a *Assembler) AssembleStack(raw any) ([]domain.StackEntry, error) {
	if raw == nil {
		return nil, nil
	}
	entries, err := a.parser.ParseStack(raw)
	if err != nil {
		return nil, err
	}
	out, err := a.stack("global", entries, nil)
	if err != nil {
		return nil, err
	}
	for _, e := range out {
		if e.Dialog != nil {
			return nil, fmt.Errorf("%w: global entry '%s' declares a nested dialog", domain.ErrInvalidFlow, e.Name)
		}
	}
	return out, nil
}

// node assembles n. chain holds the references being expanded on the current
// path and is used for cycle detection.
func (a *Assembler) node(n *domain.DialogNode, chain []string) (*domain.DialogNode, error) {
	out := &domain.DialogNode{ID: n.ID, Threshold: n.Threshold}
	stack, err := a.stack(n.ID, n.Stack, chain)
	if err != nil {
		return nil, err
	}
	out.Stack = stack
	return out, nil
}

func (a *Assembler) stack(owner string, in []domain.StackEntry, chain []string) ([]domain.StackEntry, error) {
	entries := slices.Clone(in)
	chains := make([][]string, len(entries))
	for i := range chains {
		chains[i] = chain
	}

	for i := 0; i < len(entries); {
		e := entries[i]
		if e.Import == "" {
			resolved, err := a.entry(owner, e, chains[i])
			if err != nil {
				return nil, err
			}
			entries[i] = resolved
			i++
			continue
		}

		key := "import:" + e.Import
		if slices.Contains(chains[i], key) {
			return nil, cycleError(e.Import, chains[i])
		}
		raw, err := a.resolve(e.Import)
		if err != nil {
			return nil, err
		}
		imported, err := a.importedEntries(e.Import, raw)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("import spliced", "ref", e.Import, "owner", owner, "entries", len(imported))

		sub := append(slices.Clone(chains[i]), key)
		subChains := make([][]string, len(imported))
		for j := range subChains {
			subChains[j] = sub
		}
		entries = slices.Replace(entries, i, i+1, imported...)
		chains = slices.Replace(chains, i, i+1, subChains...)
		// i is not advanced: the spliced entries are scanned next.
	}
	return entries, nil
}

func (a *Assembler) entry(owner string, e domain.StackEntry, chain []string) (domain.StackEntry, error) {
	switch {
	case e.DialogRef != "":
		key := "dialog:" + e.DialogRef
		if slices.Contains(chain, key) {
			return e, cycleError(e.DialogRef, chain)
		}
		raw, err := a.resolve(e.DialogRef)
		if err != nil {
			return e, err
		}
		child, err := a.parser.ParseNode(raw)
		if err != nil {
			return e, fmt.Errorf("dialog '%s': %w", e.DialogRef, err)
		}
		if child.ID == "" {
			child.ID = e.DialogRef
		}
		a.logger.Debug("dialog resolved", "ref", e.DialogRef, "id", child.ID)
		assembled, err := a.node(child, append(slices.Clone(chain), key))
		if err != nil {
			return e, err
		}
		e.Dialog = assembled
		e.DialogRef = ""
	case e.Dialog != nil:
		child := e.Dialog
		if child.ID == "" {
			clone := *child
			clone.ID = owner + "/" + e.Name
			child = &clone
		}
		assembled, err := a.node(child, chain)
		if err != nil {
			return e, err
		}
		e.Dialog = assembled
	}
	return e, nil
}

func (a *Assembler) importedEntries(ref string, raw any) ([]domain.StackEntry, error) {
	// A fragment may be a bare entry list or a node whose stack is imported.
	if m, ok := raw.(map[string]any); ok {
		raw = m["stack"]
	}
	entries, err := a.parser.ParseStack(raw)
	if err != nil {
		return nil, fmt.Errorf("import '%s': %w", ref, err)
	}
	return entries, nil
}

func (a *Assembler) resolve(ref string) (any, error) {
	if a.resolver == nil {
		return nil, &domain.ConfigError{Kind: domain.KindFragment, Name: ref, Err: domain.ErrFragmentNotFound}
	}
	raw, err := a.resolver.Resolve(ref)
	if err != nil {
		return nil, &domain.ConfigError{Kind: domain.KindFragment, Name: ref, Err: err}
	}
	if raw == nil {
		return nil, &domain.ConfigError{Kind: domain.KindFragment, Name: ref, Err: domain.ErrFragmentNotFound}
	}
	return raw, nil
}

func cycleError(ref string, chain []string) error {
	return &domain.ConfigError{
		Kind: domain.KindFragment,
		Name: ref,
		Err:  fmt.Errorf("%w: %v", domain.ErrFragmentCycle, chain),
	}
}

// checkTree rejects duplicate node ids and nodes with more than one fallback.
func checkTree(root *domain.DialogNode) error {
	seen := make(map[string]bool)
	var errs []error

	var walk func(n *domain.DialogNode)
	walk = func(n *domain.DialogNode) {
		if seen[n.ID] {
			errs = append(errs, fmt.Errorf("%w: duplicate node id '%s'", domain.ErrInvalidFlow, n.ID))
		}
		seen[n.ID] = true

		fallbacks := 0
		for _, e := range n.Stack {
			if e.IsFallback() {
				fallbacks++
			}
			if e.Dialog != nil {
				walk(e.Dialog)
			}
		}
		if fallbacks > 1 {
			errs = append(errs, fmt.Errorf("%w: node '%s' declares %d fallback entries", domain.ErrInvalidFlow, n.ID, fallbacks))
		}
	}
	walk(root)
	return errors.Join(errs...)
}
