package flows_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aretw0/dockwise"
	"github.com/aretw0/dockwise/flows"
	"github.com/aretw0/dockwise/pkg/adapters/docker"
	"github.com/aretw0/dockwise/pkg/adapters/memory"
	"github.com/aretw0/dockwise/pkg/assistant"
	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocker struct {
	local  map[string]bool
	pulled []string
	runs   []domain.RunSettings
}

func (f *fakeDocker) Images(context.Context) ([]docker.Image, error) {
	return []docker.Image{{Repository: "nginx", Tag: "latest", Size: "141MB", CreatedSince: "2 weeks ago"}}, nil
}

func (f *fakeDocker) HasImage(_ context.Context, ref string) (bool, error) {
	return f.local[ref], nil
}

func (f *fakeDocker) Pull(_ context.Context, ref string) error {
	f.pulled = append(f.pulled, ref)
	f.local[ref] = true
	return nil
}

func (f *fakeDocker) Run(_ context.Context, s domain.RunSettings) (string, error) {
	f.runs = append(f.runs, s)
	return "4f9a1c2b3d4e5f60718293a4", nil
}

func (f *fakeDocker) Remove(context.Context, ...string) error { return nil }

func script(in ...string) dockwise.InputSource {
	return func(context.Context) (string, error) {
		if len(in) == 0 {
			return "", io.EOF
		}
		next := in[0]
		in = in[1:]
		return next, nil
	}
}

func engine(t *testing.T, d *fakeDocker, store *memory.Store) *dockwise.Engine {
	t.Helper()
	classifier, err := flows.OfflineClassifier()
	require.NoError(t, err)

	reg := registry.NewRegistry()
	require.NoError(t, assistant.New(d, store, &bytes.Buffer{}).Register(reg))

	eng, err := dockwise.New(flows.Resolver(), reg,
		dockwise.WithEntry(flows.Main),
		dockwise.WithGlobal(flows.Global),
		dockwise.WithClassifier(classifier),
		dockwise.WithPurgePolicy(dockwise.PurgeSkipJumps),
		dockwise.WithSeed(1),
	)
	require.NoError(t, err)
	return eng
}

func TestEmbeddedFlowsAssemble(t *testing.T) {
	eng := engine(t, &fakeDocker{local: map[string]bool{}}, memory.NewStore())

	assert.Equal(t, "root", eng.Tree().ID)
	run, ok := eng.Tree().Entry("run")
	require.True(t, ok)
	require.NotNil(t, run.Dialog)
	assert.Equal(t, "run", run.Dialog.ID)

	_, ok = eng.Tree().Entry("bye")
	assert.True(t, ok, "common entries are imported")
	require.Len(t, eng.Global(), 1)
	assert.Equal(t, "cancel", eng.Global()[0].Name)
}

func TestOfflineClassifier(t *testing.T) {
	c, err := flows.OfflineClassifier()
	require.NoError(t, err)

	tests := []struct {
		text   string
		intent string
		image  string
		port   string
	}{
		{"list images", "list_images", "", ""},
		{"pull nginx:1.27", "pull_image", "nginx:1.27", ""},
		{"run redis on port 6379", "run_image", "redis", "6379"},
		{"show settings for redis", "show_settings", "redis", ""},
		{"save settings", "save_settings", "", ""},
		{"cancel", "cancel", "", ""},
		{"bye", "goodbye", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res, err := c.Classify(context.Background(), tt.text, 0.6)
			require.NoError(t, err)
			require.NotNil(t, res.Intent)
			assert.Equal(t, tt.intent, res.Intent.Name)

			found := map[string]any{}
			for _, e := range res.Entities {
				found[e.Name] = e.Value
			}
			if tt.image != "" {
				assert.Equal(t, tt.image, found["image"])
			}
			if tt.port != "" {
				assert.Equal(t, tt.port, found["port"])
			}
		})
	}
}

func TestConversation(t *testing.T) {
	d := &fakeDocker{local: map[string]bool{"nginx:latest": true}}
	store := memory.NewStore()
	eng := engine(t, d, store)

	var said []string
	_, err := eng.Converse(context.Background(),
		script(
			"list images",
			"pull redis:7",
			"pull nginx",
			"run nginx on port 8080",
			"yes",
			"save settings",
			"cancel",
			"bye",
		),
		func(_ context.Context, text string, _ *domain.Session) error {
			said = append(said, text)
			return nil
		},
	)
	require.ErrorIs(t, err, domain.ErrExit)

	require.Len(t, said, 14)
	assert.Contains(t, said[0], "dockwise")
	assert.Equal(t, "- `nginx:latest` (141MB, 2 weeks ago)", said[1])
	assert.Equal(t, "On it.", said[2])
	assert.Equal(t, "Pulled redis:7.", said[3])
	assert.Equal(t, "`nginx` is already available locally.", said[4])
	assert.Equal(t, "Let's start a container.", said[5])
	assert.Equal(t, "Start `nginx:latest` now? (yes/no)", said[6])
	assert.Equal(t, "Starting `nginx:latest`.", said[7])
	assert.Equal(t, "Started container 4f9a1c2b3d4e from nginx:latest. Say *save settings* to reuse these options next time.", said[8])
	assert.Equal(t, "Saving.", said[9])
	assert.Equal(t, "Saved settings for nginx:latest.", said[10])
	assert.Equal(t, "Cancelled.", said[11])
	assert.Contains(t, []string{"Anything else?", "What next?"}, said[12])
	assert.Equal(t, "Bye!", said[13])

	assert.Equal(t, []string{"redis:7"}, d.pulled)
	require.Len(t, d.runs, 1)
	assert.Equal(t, "nginx:latest", d.runs[0].Image)

	saved, err := store.Load(context.Background(), "nginx:latest")
	require.NoError(t, err)
	assert.Equal(t, d.runs[0].Ports, saved.Ports)
}
