package compiler

import (
	"errors"
	"testing"

	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingResolver resolves from a fixed map and counts calls.
type countingResolver struct {
	fragments map[string]string
	calls     []string
	t         *testing.T
}

func (r *countingResolver) Resolve(ref string) (any, error) {
	r.calls = append(r.calls, ref)
	src, ok := r.fragments[ref]
	if !ok {
		return nil, domain.ErrFragmentNotFound
	}
	return parseYAML(r.t, src), nil
}

func names(stack []domain.StackEntry) []string {
	out := make([]string, 0, len(stack))
	for _, e := range stack {
		out = append(out, e.Name)
	}
	return out
}

func assertNoMarkers(t *testing.T, n *domain.DialogNode) {
	t.Helper()
	for _, e := range n.Stack {
		assert.Empty(t, e.Import, "import marker left in %s", n.ID)
		assert.Empty(t, e.DialogRef, "dialog reference left in %s", n.ID)
		if e.Dialog != nil {
			assertNoMarkers(t, e.Dialog)
		}
	}
}

func TestAssembler_ImportsSplicedInPlace(t *testing.T) {
	r := &countingResolver{t: t, fragments: map[string]string{
		"common": `[{name: help}, {import: exit}, {name: about}]`,
		"exit":   `[{name: quit}, {name: bye}]`,
	}}

	root, err := NewAssembler(r).Assemble(parseYAML(t, `
id: root
stack:
  - name: "&welcome"
  - import: common
  - name: last
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"&welcome", "help", "quit", "bye", "about", "last"}, names(root.Stack))
	assert.Equal(t, []string{"common", "exit"}, r.calls)
	assertNoMarkers(t, root)
}

func TestAssembler_DialogReference(t *testing.T) {
	r := &countingResolver{t: t, fragments: map[string]string{
		"run":    `{stack: [{name: "&welcome", responses: [Running]}, {import: shared}, {name: deep, dialog: ports}]}`,
		"shared": `[{name: cancel}]`,
		"ports":  `{id: port-wizard, stack: [{name: ask}]}`,
	}}

	root, err := NewAssembler(r).Assemble(parseYAML(t, `
stack:
  - name: run
    dialog: run
`))
	require.NoError(t, err)

	assert.Equal(t, RootID, root.ID)
	run := root.Stack[0].Dialog
	require.NotNil(t, run)
	assert.Equal(t, "run", run.ID, "referenced dialog without id takes the reference name")
	assert.Equal(t, []string{"&welcome", "cancel", "deep"}, names(run.Stack))
	require.NotNil(t, run.Stack[2].Dialog)
	assert.Equal(t, "port-wizard", run.Stack[2].Dialog.ID)
	assertNoMarkers(t, root)
}

func TestAssembler_EmbeddedDialogGetsID(t *testing.T) {
	root, err := NewAssembler(nil).Assemble(parseYAML(t, `
id: main
stack:
  - name: settings
    dialog:
      stack: [{name: show}]
`))
	require.NoError(t, err)
	assert.Equal(t, "main/settings", root.Stack[0].Dialog.ID)
}

func TestAssembler_MissingFragmentIsFatal(t *testing.T) {
	r := &countingResolver{t: t, fragments: map[string]string{}}

	root, err := NewAssembler(r).Assemble(parseYAML(t, `{id: root, stack: [{import: nowhere}]}`))
	assert.Nil(t, root)
	assert.ErrorIs(t, err, domain.ErrFragmentNotFound)

	var cfgErr *domain.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, domain.KindFragment, cfgErr.Kind)
	assert.Equal(t, "nowhere", cfgErr.Name)
}

func TestAssembler_Idempotent(t *testing.T) {
	r := &countingResolver{t: t, fragments: map[string]string{
		"common": `[{name: help}]`,
		"run":    `{stack: [{name: go}]}`,
	}}
	a := NewAssembler(r)

	first, err := a.Assemble(parseYAML(t, `{id: root, stack: [{import: common}, {name: run, dialog: run}]}`))
	require.NoError(t, err)

	failing := ports.ResolverFunc(func(ref string) (any, error) {
		t.Fatalf("resolver called for %s", ref)
		return nil, nil
	})
	second, err := NewAssembler(failing).AssembleNode(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAssembler_Cycles(t *testing.T) {
	tests := []struct {
		name      string
		fragments map[string]string
		root      string
	}{
		{
			name:      "import cycle",
			fragments: map[string]string{"a": `[{import: b}]`, "b": `[{name: x}, {import: a}]`},
			root:      `{id: root, stack: [{import: a}]}`,
		},
		{
			name:      "self import",
			fragments: map[string]string{"a": `[{import: a}]`},
			root:      `{id: root, stack: [{import: a}]}`,
		},
		{
			name:      "dialog cycle",
			fragments: map[string]string{"loop": `{id: loop, stack: [{name: again, dialog: loop}]}`},
			root:      `{id: root, stack: [{name: go, dialog: loop}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &countingResolver{t: t, fragments: tt.fragments}
			_, err := NewAssembler(r).Assemble(parseYAML(t, tt.root))
			assert.ErrorIs(t, err, domain.ErrFragmentCycle)
		})
	}
}

func TestAssembler_RepeatedImportIsNotACycle(t *testing.T) {
	r := &countingResolver{t: t, fragments: map[string]string{"help": `[{name: help}]`}}

	root, err := NewAssembler(r).Assemble(parseYAML(t, `
id: root
stack:
  - import: help
  - name: sub
    dialog:
      id: sub
      stack: [{import: help}]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"help", "sub"}, names(root.Stack))
	assert.Equal(t, []string{"help"}, names(root.Stack[1].Dialog.Stack))
}

func TestAssembler_StructuralChecks(t *testing.T) {
	t.Run("duplicate node id", func(t *testing.T) {
		_, err := NewAssembler(nil).Assemble(parseYAML(t, `
id: root
stack:
  - name: a
    dialog: {id: same, stack: [{name: x}]}
  - name: b
    dialog: {id: same, stack: [{name: y}]}
`))
		assert.ErrorIs(t, err, domain.ErrInvalidFlow)
	})

	t.Run("duplicate fallback", func(t *testing.T) {
		_, err := NewAssembler(nil).Assemble(parseYAML(t, `{id: root, stack: [{name: "&otherwise"}, {name: "&otherwise"}]}`))
		assert.ErrorIs(t, err, domain.ErrInvalidFlow)
	})
}

func TestAssembler_AssembleStack(t *testing.T) {
	r := &countingResolver{t: t, fragments: map[string]string{"cancel": `[{name: cancel, action: session.reset}]`}}
	a := NewAssembler(r)

	global, err := a.AssembleStack(parseYAML(t, `[{import: cancel}, {name: "&otherwise", responses: ["?"]}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"cancel", "&otherwise"}, names(global))

	_, err = a.AssembleStack(parseYAML(t, `[{name: x, dialog: {id: x, stack: []}}]`))
	assert.ErrorIs(t, err, domain.ErrInvalidFlow)

	global, err = a.AssembleStack(nil)
	assert.NoError(t, err)
	assert.Empty(t, global)
}
