// Package cli wires configuration into the engine, the assistant and the
// adapters behind each dockwise command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/dockwise"
	"github.com/aretw0/dockwise/flows"
	"github.com/aretw0/dockwise/internal/config"
	"github.com/aretw0/dockwise/internal/logging"
	"github.com/aretw0/dockwise/pkg/adapters/docker"
	"github.com/aretw0/dockwise/pkg/adapters/file"
	httpadapter "github.com/aretw0/dockwise/pkg/adapters/http"
	"github.com/aretw0/dockwise/pkg/adapters/memory"
	"github.com/aretw0/dockwise/pkg/adapters/nlu"
	"github.com/aretw0/dockwise/pkg/adapters/redis"
	"github.com/aretw0/dockwise/pkg/assistant"
	"github.com/aretw0/dockwise/pkg/observability"
	"github.com/aretw0/dockwise/pkg/persistence/middleware"
	"github.com/aretw0/dockwise/pkg/ports"
	"github.com/aretw0/dockwise/pkg/registry"
	"github.com/aretw0/dockwise/pkg/runner"
	"github.com/prometheus/client_golang/prometheus"
)

// NewLogger creates the application logger. Debug mode forces the debug level.
func NewLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return logging.NewWithFormat(w, level, cfg.Log.Format), nil
}

// NewResolver resolves flow references from cfg.Flows, or from the embedded
// flows when no directory is configured.
func NewResolver(cfg *config.Config) ports.FragmentResolver {
	if cfg.Flows != "" {
		return file.NewDirResolver(cfg.Flows)
	}
	return flows.Resolver()
}

// GlobalRef returns the global stack reference, defaulting to the embedded
// one when the embedded flows are in use.
func GlobalRef(cfg *config.Config) string {
	if cfg.Global == "" && cfg.Flows == "" {
		return flows.Global
	}
	return cfg.Global
}

// NewClassifier returns the offline keyword classifier or an NLU client,
// cached when nlu.cache-ttl is positive.
func NewClassifier(cfg *config.Config, logger *slog.Logger) (ports.Classifier, error) {
	if cfg.NLU.Offline {
		return flows.OfflineClassifier()
	}
	client := nlu.NewClient(cfg.NLU.URL,
		nlu.WithTimeout(cfg.NLU.Timeout),
		nlu.WithDebug(cfg.Debug),
		nlu.WithLogger(logger),
	)
	if cfg.NLU.CacheTTL > 0 {
		return nlu.NewCachedClassifier(client, cfg.NLU.CacheTTL), nil
	}
	return client, nil
}

// NewStore opens the configured settings store, encrypted when a key is set.
// The returned closer releases the backend connection.
func NewStore(cfg *config.Config) (ports.SettingsStore, io.Closer, error) {
	var (
		store  ports.SettingsStore
		closer io.Closer = nopCloser{}
	)
	switch cfg.Store.Driver {
	case config.DriverFile, "":
		store = file.NewStore(cfg.Store.Dir)
	case config.DriverMemory:
		store = memory.NewStore()
	case config.DriverRedis:
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		store, closer = rs, rs
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if cfg.Store.EncryptionKey != "" {
		store = middleware.Chain(store, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey: []byte(cfg.Store.EncryptionKey),
		}))
	}
	return store, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Deps holds the collaborators shared by the commands.
type Deps struct {
	Config   *config.Config
	Logger   *slog.Logger
	Docker   *docker.Client
	Store    ports.SettingsStore
	Metrics  *observability.Metrics
	Gatherer *prometheus.Registry
	Streams  *httpadapter.StreamManager

	closers []io.Closer
}

// SetupOption customizes Setup.
type SetupOption func(*setupOptions)

type setupOptions struct {
	executor docker.Executor
	store    ports.SettingsStore
}

// WithExecutor replaces the process executor of the docker client.
func WithExecutor(e docker.Executor) SetupOption {
	return func(o *setupOptions) {
		o.executor = e
	}
}

// WithStore replaces the configured settings store.
func WithStore(s ports.SettingsStore) SetupOption {
	return func(o *setupOptions) {
		o.store = s
	}
}

// Setup creates the dependencies described by cfg.
func Setup(cfg *config.Config, logger *slog.Logger, opts ...SetupOption) (*Deps, error) {
	var o setupOptions
	for _, opt := range opts {
		opt(&o)
	}

	dockerOpts := []docker.Option{
		docker.WithBinary(cfg.Docker.Binary),
		docker.WithLogger(logger),
	}
	if o.executor != nil {
		dockerOpts = append(dockerOpts, docker.WithExecutor(o.executor))
	}

	gatherer := prometheus.NewRegistry()
	d := &Deps{
		Config:   cfg,
		Logger:   logger,
		Docker:   docker.NewClient(dockerOpts...),
		Metrics:  observability.NewMetrics(gatherer),
		Gatherer: gatherer,
		Streams:  httpadapter.NewStreamManager(logger),
	}

	if o.store != nil {
		d.Store = o.store
		return d, nil
	}
	store, closer, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}
	d.Store = store
	d.closers = append(d.closers, closer)
	return d, nil
}

// Close releases everything Setup opened.
func (d *Deps) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c.Close())
	}
	d.closers = nil
	return errors.Join(errs...)
}

// BuildEngine registers the assistant handlers and assembles the flow.
// handler answers confirmation prompts for the actions listed in
// cfg.Confirm; out receives the assistant's progress notices.
func (d *Deps) BuildEngine(handler runner.IOHandler, out io.Writer) (*dockwise.Engine, error) {
	cfg := d.Config

	classifier, err := NewClassifier(cfg, d.Logger)
	if err != nil {
		return nil, fmt.Errorf("error creating classifier: %w", err)
	}

	reg := registry.NewRegistry()
	asst := assistant.New(d.Docker, d.Store, out,
		assistant.WithLogger(d.Logger),
		assistant.WithExprMatchers(cfg.Matchers),
		assistant.WithMismatchCounter(d.Metrics),
		assistant.WithDetach(cfg.Docker.Detach),
	)
	if err := asst.Register(reg); err != nil {
		return nil, err
	}
	if len(cfg.Confirm) > 0 && handler != nil {
		if err := runner.Guard(reg, runner.ConfirmationMiddleware(handler), cfg.Confirm...); err != nil {
			return nil, err
		}
	}

	purge, err := dockwise.ParsePurgePolicy(cfg.Purge)
	if err != nil {
		return nil, err
	}

	opts := []dockwise.Option{
		dockwise.WithLogger(d.Logger),
		dockwise.WithClassifier(classifier),
		dockwise.WithMismatchObservers(asst.OnMismatch),
		dockwise.WithLifecycleHooks(d.Metrics.Hooks()),
		dockwise.WithLifecycleHooks(d.Streams.Hooks()),
		dockwise.WithMaxSlotAttempts(cfg.Slots.MaxAttempts),
		dockwise.WithPurgePolicy(purge),
		dockwise.WithDefaultThreshold(cfg.NLU.Threshold),
	}
	if cfg.Entry != "" {
		opts = append(opts, dockwise.WithEntry(cfg.Entry))
	}
	if ref := GlobalRef(cfg); ref != "" {
		opts = append(opts, dockwise.WithGlobal(ref))
	}
	if cfg.Debug {
		opts = append(opts, dockwise.WithLifecycleHooks(observability.LoggingHooks(d.Logger)))
	}
	if cfg.Seed != 0 {
		opts = append(opts, dockwise.WithSeed(cfg.Seed))
	}

	engine, err := dockwise.New(NewResolver(cfg), reg, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

// Ping checks that the docker CLI answers.
func (d *Deps) Ping(ctx context.Context) (string, error) {
	return d.Docker.Version(ctx)
}
