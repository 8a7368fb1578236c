package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListImages(t *testing.T) {
	d, _ := testDeps(t, testConfig(t, nil))

	var buf bytes.Buffer
	require.NoError(t, ListImages(context.Background(), d, &buf))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "IMAGE")
	assert.Contains(t, string(lines[1]), "nginx:latest")
	assert.Contains(t, string(lines[2]), "redis:7")
}

func TestPullAndRemove(t *testing.T) {
	d, exec := testDeps(t, testConfig(t, nil))
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, PullImage(ctx, d, &buf, "alpine"))
	require.NoError(t, RemoveImages(ctx, d, &buf, []string{"alpine", "redis:7"}))
	assert.Error(t, PullImage(ctx, d, &buf, "Not A Ref"))

	assert.Equal(t, []string{"pull alpine:latest", "rmi alpine:latest redis:7"}, exec.commands())
	assert.Contains(t, buf.String(), "Pulled alpine:latest.")
	assert.Contains(t, buf.String(), "Removed redis:7.")
}

func TestRunImage(t *testing.T) {
	d, exec := testDeps(t, testConfig(t, nil))
	ctx := context.Background()

	require.NoError(t, d.Store.Save(ctx, domain.RunSettings{
		Image:  "nginx:latest",
		Name:   "web",
		Ports:  []string{"8080:80"},
		Detach: true,
	}))

	var buf bytes.Buffer
	err := RunImage(ctx, d, &buf, RunRequest{Image: "nginx", Env: []string{"MODE=dev"}})
	require.NoError(t, err)
	assert.Equal(t, "4f9a1c2b3d4e\n", buf.String())

	err = RunImage(ctx, d, &buf, RunRequest{Image: "redis:7", Ports: []string{"6379"}, Save: true})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"run -d --name web -p 8080:80 -e MODE=dev nginx:latest",
		"run -d -p 6379:6379 redis:7",
	}, exec.commands())

	saved, err := d.Store.Load(ctx, "redis:7")
	require.NoError(t, err)
	assert.Equal(t, []string{"6379:6379"}, saved.Ports)

	err = RunImage(ctx, d, &buf, RunRequest{Image: "redis:7", Env: []string{"=oops"}})
	assert.ErrorContains(t, err, "KEY=VALUE")
}

func TestSettingsCommands(t *testing.T) {
	d, _ := testDeps(t, testConfig(t, nil))
	ctx := context.Background()
	require.NoError(t, d.Store.Save(ctx, domain.RunSettings{Image: "redis:7", Ports: []string{"6379:6379"}}))

	var buf bytes.Buffer
	require.NoError(t, ListSettings(ctx, d, &buf))
	assert.Equal(t, "redis:7\n", buf.String())

	buf.Reset()
	require.NoError(t, ShowSettings(ctx, d, &buf, "redis:7"))
	assert.Contains(t, buf.String(), "image: redis:7")
	assert.Contains(t, buf.String(), "- 6379:6379")

	buf.Reset()
	require.NoError(t, DeleteSettings(ctx, d, &buf, "redis:7"))
	assert.Equal(t, "Forgot settings for redis:7.\n", buf.String())

	err := ShowSettings(ctx, d, &buf, "redis:7")
	assert.ErrorIs(t, err, domain.ErrSettingsNotFound)
}

func TestValidate(t *testing.T) {
	d, _ := testDeps(t, testConfig(t, nil))

	var buf bytes.Buffer
	require.NoError(t, Validate(d, &buf))
	assert.Contains(t, buf.String(), `flow "root" is valid`)

	bad, _ := testDeps(t, testConfig(t, map[string]any{"flows": t.TempDir()}))
	buf.Reset()
	assert.Error(t, Validate(bad, &buf))
	assert.Contains(t, buf.String(), "main")
}

func TestGraph(t *testing.T) {
	d, _ := testDeps(t, testConfig(t, nil))

	var buf bytes.Buffer
	require.NoError(t, Graph(d, &buf, "run"))
	assert.Contains(t, buf.String(), "graph TD")
	assert.Contains(t, buf.String(), `d_run("run")`)
	assert.Contains(t, buf.String(), "classDef current")
}

func TestNLUStatus_Offline(t *testing.T) {
	d, _ := testDeps(t, testConfig(t, nil))

	var buf bytes.Buffer
	require.NoError(t, NLUStatus(context.Background(), d, &buf))
	assert.Equal(t, "offline keyword model\n", buf.String())
}
