package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/dockwise"
	"github.com/aretw0/dockwise/internal/logging"
	"github.com/aretw0/dockwise/pkg/domain"
)

// ErrInterrupted is returned when a signal stops the conversation.
var ErrInterrupted = errors.New("interrupted")

// Sink receives every rendered response.
type Sink = dockwise.Sink

// Runner runs a conversation with an IOHandler.
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler (or a
	// JSONHandler when Headless) over stdin/stdout is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	Headless bool
	Renderer ContentRenderer
	Sinks    []Sink
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run holds one conversation until it ends. The end of input, "exit"/"quit"
// and actions returning domain.ErrExit all end it cleanly with a nil error.
func (r *Runner) Run(ctx context.Context, engine *dockwise.Engine) (*domain.Session, error) {
	handler := r.resolveHandler()

	signals := NewSignalManager(ctx)
	defer signals.Stop()

	sinks := append([]Sink{handler.Sink}, r.Sinks...)
	session, err := engine.Converse(signals.Context(), handler.Input, sinks...)

	switch {
	case err == nil:
		r.Logger.Debug("conversation complete")
		return session, nil
	case errors.Is(err, domain.ErrExit), errors.Is(err, io.EOF):
		r.Logger.Debug("conversation ended", "reason", err)
		return session, nil
	case ctx.Err() == nil && signals.Interrupted():
		r.Logger.Debug("conversation interrupted")
		_ = handler.SystemOutput(context.Background(), "interrupted")
		return session, ErrInterrupted
	}
	return session, err
}

func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	if r.Headless {
		r.Handler = NewJSONHandler(os.Stdin, os.Stdout)
	} else {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout, WithTextHandlerRenderer(r.Renderer))
	}
	return r.Handler
}

// IO returns the handler Run uses, creating the default one if needed.
func (r *Runner) IO() IOHandler {
	return r.resolveHandler()
}
