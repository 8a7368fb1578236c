// Package assistant is the handler set of the dockwise conversation: the
// actions, validators, fill-handlers and matchers that the default flow
// names, backed by the docker CLI and a settings store.
package assistant

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/dockwise/internal/logging"
	"github.com/aretw0/dockwise/pkg/adapters/docker"
	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/ports"
	"github.com/aretw0/dockwise/pkg/registry"
)

// Entity names read and written by the handlers.
const (
	EntityImage   = "image"
	EntityPort    = "port"
	EntityName    = "name"
	EntityConfirm = "confirm"
)

// Attribute names written by the handlers. All are step-scoped.
const (
	AttrResult   = "result"
	AttrFailed   = "failed"
	AttrImages   = "images"
	AttrCount    = "image_count"
	AttrSettings = "settings"
)

// Docker is the part of the docker CLI the assistant drives.
// *docker.Client implements it.
type Docker interface {
	Images(ctx context.Context) ([]docker.Image, error)
	HasImage(ctx context.Context, ref string) (bool, error)
	Pull(ctx context.Context, ref string) error
	Run(ctx context.Context, s domain.RunSettings) (string, error)
	Remove(ctx context.Context, refs ...string) error
}

// MismatchCounter records utterances that reached a fallback.
type MismatchCounter interface {
	ObserveMismatch(position string)
}

// Assistant owns the collaborators shared by all handlers.
type Assistant struct {
	docker Docker
	store  ports.SettingsStore
	out    io.Writer

	matchers map[string]string
	counter  MismatchCounter
	detach   bool
	logger   *slog.Logger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		a.logger = logger
	}
}

// WithExprMatchers adds matchers compiled from expressions, keyed by name.
func WithExprMatchers(matchers map[string]string) Option {
	return func(a *Assistant) {
		for name, src := range matchers {
			a.matchers[name] = src
		}
	}
}

// WithMismatchCounter records fallbacks seen by the mismatch observer.
func WithMismatchCounter(c MismatchCounter) Option {
	return func(a *Assistant) {
		a.counter = c
	}
}

// WithDetach selects whether containers started by image.run are detached
// when no saved setting says otherwise. The default is true.
func WithDetach(detach bool) Option {
	return func(a *Assistant) {
		a.detach = detach
	}
}

// New creates an Assistant. out receives progress notices for slow
// operations; nil means stdout.
func New(d Docker, store ports.SettingsStore, out io.Writer, opts ...Option) *Assistant {
	if out == nil {
		out = os.Stdout
	}
	a := &Assistant{
		docker:   d,
		store:    store,
		out:      out,
		matchers: make(map[string]string),
		detach:   true,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Register adds every handler to reg. It fails if an expression matcher
// does not compile.
func (a *Assistant) Register(reg *registry.Registry) error {
	reg.RegisterAction("images.list", a.ListImages)
	reg.RegisterAction("image.pull", a.PullImage)
	reg.RegisterAction("image.run", a.RunImage)
	reg.RegisterAction("image.remove", a.RemoveImage)
	reg.RegisterAction("settings.save", a.SaveSettings)
	reg.RegisterAction("settings.show", a.ShowSettings)
	reg.RegisterAction("session.reset", ResetSession)
	reg.RegisterAction("exit", Exit)

	reg.RegisterValidator(EntityImage, ValidateImage)
	reg.RegisterValidator(EntityPort, ValidatePort)
	reg.RegisterValidator(EntityConfirm, ValidateConfirm)

	reg.RegisterFiller("settings.ports", a.FillPort)
	reg.RegisterFiller("settings.name", a.FillName)

	reg.RegisterMatcher("image.local", a.ImageIsLocal)
	return RegisterExprMatchers(reg, a.matchers)
}
