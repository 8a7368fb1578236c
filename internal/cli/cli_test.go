package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/dockwise/internal/config"
	"github.com/aretw0/dockwise/internal/logging"
	"github.com/aretw0/dockwise/pkg/adapters/docker"
	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const imagesJSON = `{"ID":"a1b2c3","Repository":"nginx","Tag":"latest","Size":"141MB","CreatedSince":"2 weeks ago"}
{"ID":"d4e5f6","Repository":"redis","Tag":"7","Size":"117MB","CreatedSince":"3 days ago"}
`

var _ docker.Executor = (*fakeExecutor)(nil)

// fakeExecutor answers docker invocations from canned output and records them.
type fakeExecutor struct {
	mu    sync.Mutex
	calls [][]string
}

func (f *fakeExecutor) Exec(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()

	switch args[0] {
	case "images":
		return []byte(imagesJSON), nil, nil
	case "image":
		return nil, []byte("Error: No such image: " + args[len(args)-1]), errors.New("exit status 1")
	case "run":
		return []byte("4f9a1c2b3d4e\n"), nil, nil
	case "version":
		return []byte("27.3.1\n"), nil, nil
	}
	return nil, nil, nil
}

func (f *fakeExecutor) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		out = append(out, strings.Join(c, " "))
	}
	return out
}

func testConfig(t *testing.T, overrides map[string]any) *config.Config {
	t.Helper()
	v := config.New()
	v.Set("nlu.offline", true)
	v.Set("store.driver", config.DriverMemory)
	v.Set("seed", 1)
	for k, val := range overrides {
		v.Set(k, val)
	}
	cfg, err := config.Load(v, "")
	require.NoError(t, err)
	return cfg
}

func testDeps(t *testing.T, cfg *config.Config) (*Deps, *fakeExecutor) {
	t.Helper()
	exec := &fakeExecutor{}
	d, err := Setup(cfg, logging.NewNop(), WithExecutor(exec))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d, exec
}

func TestNewLogger(t *testing.T) {
	cfg := testConfig(t, map[string]any{"log.level": "warn", "log.format": "json"})

	var buf bytes.Buffer
	logger, err := NewLogger(cfg, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	cfg.Debug = true
	buf.Reset()
	logger, err = NewLogger(cfg, &buf)
	require.NoError(t, err)
	logger.Debug("traced")
	assert.Contains(t, buf.String(), "traced")

	cfg.Log.Level = "loud"
	_, err = NewLogger(cfg, &buf)
	assert.Error(t, err)
}

func TestNewStore(t *testing.T) {
	t.Run("File", func(t *testing.T) {
		cfg := testConfig(t, map[string]any{"store.driver": config.DriverFile, "store.dir": t.TempDir()})
		store, closer, err := NewStore(cfg)
		require.NoError(t, err)
		defer closer.Close()

		ctx := context.Background()
		require.NoError(t, store.Save(ctx, domain.RunSettings{Image: "nginx:latest", Ports: []string{"8080:80"}}))
		images, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"nginx:latest"}, images)
	})

	t.Run("Encrypted", func(t *testing.T) {
		cfg := testConfig(t, map[string]any{"store.encryption-key": "0123456789abcdef0123456789abcdef"})
		store, _, err := NewStore(cfg)
		require.NoError(t, err)

		ctx := context.Background()
		want := domain.RunSettings{Image: "postgres:16", Env: map[string]string{"POSTGRES_PASSWORD": "secret"}}
		require.NoError(t, store.Save(ctx, want))
		got, err := store.Load(ctx, "postgres:16")
		require.NoError(t, err)
		assert.Equal(t, "secret", got.Env["POSTGRES_PASSWORD"])
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		cfg := testConfig(t, nil)
		cfg.Store.Driver = "sqlite"
		_, _, err := NewStore(cfg)
		assert.ErrorContains(t, err, "sqlite")
	})
}

func TestBuildEngine(t *testing.T) {
	cfg := testConfig(t, nil)
	d, _ := testDeps(t, cfg)

	engine, err := d.BuildEngine(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "root", engine.Tree().ID)
	assert.NotEmpty(t, engine.Global(), "embedded global stack is used by default")

	cfg.Purge = "sometimes"
	_, err = d.BuildEngine(nil, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestBuildEngine_ConfirmGuard(t *testing.T) {
	cfg := testConfig(t, map[string]any{"confirm": []string{"image.remove", "image.missing"}})
	d, _ := testDeps(t, cfg)

	handler := runner.NewJSONHandler(strings.NewReader(""), &bytes.Buffer{})
	_, err := d.BuildEngine(handler, &bytes.Buffer{})
	assert.ErrorContains(t, err, "image.missing")
}

func TestChat_JSON(t *testing.T) {
	cfg := testConfig(t, map[string]any{"json": true})
	d, exec := testDeps(t, cfg)

	in := strings.NewReader(`{"text":"list my images"}` + "\n" + `{"text":"pull redis:7"}` + "\n")
	var out, errw bytes.Buffer
	require.NoError(t, Chat(context.Background(), d, in, &out, &errw))

	var texts []string
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var msg runner.Message
		require.NoError(t, json.Unmarshal([]byte(line), &msg), line)
		assert.Equal(t, runner.MessageResponse, msg.Type)
		assert.NotEmpty(t, msg.Session)
		texts = append(texts, msg.Text)
	}
	require.Len(t, texts, 4)
	assert.Contains(t, texts[0], "dockwise")
	assert.Contains(t, texts[1], "`nginx:latest` (141MB, 2 weeks ago)")
	assert.Contains(t, texts[1], "`redis:7`")
	assert.Equal(t, "On it.", texts[2])
	assert.Equal(t, "Pulled redis:7.", texts[3])

	assert.Contains(t, errw.String(), "Pulling redis:7...")
	assert.Contains(t, exec.commands(), "pull redis:7")
}

func TestChat_Text(t *testing.T) {
	cfg := testConfig(t, nil)
	d, _ := testDeps(t, cfg)

	in := strings.NewReader("help\nbye\n")
	var out bytes.Buffer
	require.NoError(t, Chat(context.Background(), d, in, &out, &bytes.Buffer{}))

	assert.Contains(t, out.String(), "dockwise")
	assert.Contains(t, out.String(), "*pull nginx:1.27*")
	assert.Contains(t, out.String(), "Bye!")
}
