package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aretw0/dockwise"
	"github.com/aretw0/dockwise/internal/presentation/tui"
	httpadapter "github.com/aretw0/dockwise/pkg/adapters/http"
	"github.com/aretw0/dockwise/pkg/observability"
	"github.com/aretw0/dockwise/pkg/runner"
)

// wordWrap is the column width of rendered markdown.
const wordWrap = 80

// Chat holds one conversation over in and out. In JSON mode every line on
// out is a JSON message and the assistant's progress notices go to errw.
// When cfg.Metrics.Addr is set, /metrics and the inspection API are served
// for the duration of the conversation.
func Chat(ctx context.Context, d *Deps, in io.Reader, out, errw io.Writer) error {
	cfg := d.Config

	var (
		handler     runner.IOHandler
		notices     = out
		interactive bool
	)
	if cfg.JSON {
		handler = runner.NewJSONHandler(in, out)
		notices = errw
	} else {
		interactive = runner.IsTerminal(in)
		opts := []runner.TextHandlerOption{runner.WithPrompt(interactive)}
		if interactive {
			opts = append(opts, runner.WithTextHandlerRenderer(tui.NewRenderer(wordWrap)))
		}
		handler = runner.NewTextHandler(in, out, opts...)
	}

	engine, err := d.BuildEngine(handler, notices)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Metrics.Addr != "" {
		api := httpadapter.NewServer(engine, d.Streams, d.Logger)
		srv := observability.NewServer(cfg.Metrics.Addr, d.Gatherer, api.Routes)
		done := make(chan error, 1)
		go func() {
			done <- observability.Serve(ctx, srv, d.Logger)
		}()
		defer func() {
			cancel()
			if err := <-done; err != nil {
				d.Logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	if interactive {
		tui.PrintBanner(out, strings.TrimSpace(dockwise.Version))
	}

	r := runner.NewRunner(
		runner.WithLogger(d.Logger),
		runner.WithInputHandler(handler),
	)
	session, err := r.Run(ctx, engine)
	if session != nil {
		d.Logger.Debug("session finished", "session", session.ID, "position", session.Position)
	}
	if errors.Is(err, runner.ErrInterrupted) {
		return nil
	}
	return err
}
