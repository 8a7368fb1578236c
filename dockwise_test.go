package dockwise_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aretw0/dockwise"
	"github.com/aretw0/dockwise/pkg/adapters/memory"
	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mainFlow = `
stack:
  - name: "&welcome"
    responses: ["Welcome!"]
  - name: greet
    condition: {intent: greet}
    responses: ["Hello!"]
  - name: run
    condition: {intent: run}
    responses: ["OK."]
    dialog: run
  - import: common
  - name: "&otherwise"
    responses: ["Pardon?"]
`

const runFlow = `
stack:
  - name: "&welcome"
    responses: ["Which image?"]
  - name: pick
    condition: {intent: image}
    pre_action: remember
    responses: ["Running {{attributes.picked}}"]
  - import: common
`

const commonFlow = `
- name: bye
  condition: {intent: bye}
  action: exit
`

const globalFlow = `
- name: cancel
  condition: {intent: cancel}
  responses: ["Cancelled"]
  jump: "&welcome"
`

func newResolver(t *testing.T) *memory.Resolver {
	t.Helper()
	r, err := memory.NewResolverFromYAML(map[string]string{
		"main":   mainFlow,
		"run":    runFlow,
		"common": commonFlow,
		"global": globalFlow,
	})
	require.NoError(t, err)
	return r
}

func newRegistry() *registry.Registry {
	reg := registry.NewRegistry()
	reg.RegisterAction("exit", func(context.Context, *domain.Session, *domain.NLUResult) (any, error) {
		return nil, domain.ErrExit
	})
	reg.RegisterAction("remember", func(_ context.Context, s *domain.Session, nlu *domain.NLUResult) (any, error) {
		s.SetAttribute("picked", nlu.Text, domain.LifespanDefault)
		return nil, nil
	})
	return reg
}

func classifier() *memory.Classifier {
	return memory.NewClassifier(
		memory.WithIntent("greet", "hello", "hi"),
		memory.WithIntent("run", "run"),
		memory.WithIntent("image", "nginx", "redis"),
		memory.WithIntent("bye", "bye"),
		memory.WithIntent("cancel", "cancel"),
	)
}

func lines(in ...string) dockwise.InputSource {
	return func(context.Context) (string, error) {
		if len(in) == 0 {
			return "", io.EOF
		}
		next := in[0]
		in = in[1:]
		return next, nil
	}
}

func collect(out *[]string) dockwise.Sink {
	return func(_ context.Context, text string, _ *domain.Session) error {
		*out = append(*out, text)
		return nil
	}
}

func TestEngine_Converse(t *testing.T) {
	eng, err := dockwise.New(newResolver(t), newRegistry(),
		dockwise.WithGlobal("global"),
		dockwise.WithClassifier(classifier()),
	)
	require.NoError(t, err)

	var said []string
	session, err := eng.Converse(context.Background(),
		lines("hello", "what?", "run", "nginx", "bye"),
		collect(&said),
	)

	assert.ErrorIs(t, err, domain.ErrExit)
	assert.Equal(t, []string{
		"Welcome!",
		"Hello!",
		"Pardon?",
		"OK.",
		"Which image?",
		"Running nginx",
	}, said)
	require.NotNil(t, session)
	v, ok := session.Attribute("picked")
	assert.True(t, ok)
	assert.Equal(t, "nginx", v)
}

func TestEngine_GlobalStack(t *testing.T) {
	eng, err := dockwise.New(newResolver(t), newRegistry(),
		dockwise.WithGlobal("global"),
		dockwise.WithClassifier(classifier()),
	)
	require.NoError(t, err)
	require.Len(t, eng.Global(), 1)

	var said []string
	_, err = eng.Converse(context.Background(), lines("run", "cancel"), collect(&said))

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"Welcome!", "OK.", "Which image?", "Cancelled", "Welcome!"}, said)
}

func TestEngine_ConversationsAreIndependent(t *testing.T) {
	eng, err := dockwise.New(newResolver(t), newRegistry(), dockwise.WithClassifier(classifier()))
	require.NoError(t, err)

	first, err := eng.Converse(context.Background(), lines("run", "redis"), collect(new([]string)))
	assert.ErrorIs(t, err, io.EOF)
	second, err := eng.Converse(context.Background(), lines(), collect(new([]string)))
	assert.ErrorIs(t, err, io.EOF)

	assert.NotEqual(t, first.ID, second.ID)
	_, ok := second.Attribute("picked")
	assert.False(t, ok)
}

func TestNew_MissingHandler(t *testing.T) {
	_, err := dockwise.New(newResolver(t), registry.NewRegistry())

	var cfg *domain.ConfigError
	require.True(t, errors.As(err, &cfg))
	assert.ErrorIs(t, err, domain.ErrMissingHandler)
	assert.Contains(t, err.Error(), "exit")
	assert.Contains(t, err.Error(), "remember")
}

func TestNew_MissingFragment(t *testing.T) {
	_, err := dockwise.New(newResolver(t), newRegistry(), dockwise.WithEntry("nowhere"))
	assert.ErrorIs(t, err, domain.ErrFragmentNotFound)

	_, err = dockwise.New(newResolver(t), newRegistry(), dockwise.WithGlobal("nowhere"))
	assert.ErrorIs(t, err, domain.ErrFragmentNotFound)
}

func TestNew_InvalidFlow(t *testing.T) {
	r := newResolver(t)
	r.Add("broken", map[string]any{
		"stack": []any{
			map[string]any{"name": "a", "jump": "missing"},
		},
	})

	_, err := dockwise.New(r, newRegistry(), dockwise.WithEntry("broken"))
	assert.ErrorIs(t, err, domain.ErrInvalidFlow)
}

func TestParsePurgePolicy(t *testing.T) {
	p, err := dockwise.ParsePurgePolicy("skip-jumps")
	require.NoError(t, err)
	assert.Equal(t, dockwise.PurgeSkipJumps, p)

	_, err = dockwise.ParsePurgePolicy("sometimes")
	assert.Error(t, err)
}
