package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/dockwise/pkg/domain"
	"golang.org/x/term"
)

// Prompt is written before each read on interactive terminals.
const Prompt = "> "

// TextHandler implements plain-text IO. Lines are read by a background pump
// so that a pending read can be abandoned when the context is cancelled.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	prompt bool

	lines     chan lineResult
	startOnce sync.Once
}

type lineResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithPrompt forces the prompt on or off regardless of terminal detection.
func WithPrompt(enabled bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.prompt = enabled
	}
}

// NewTextHandler creates a handler for standard text IO. Nil arguments
// default to os.Stdin and os.Stdout.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		prompt: IsTerminal(r),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.lines = make(chan lineResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	defer close(h.lines)
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.lines <- lineResult{text: text}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				h.lines <- lineResult{err: err}
			}
			return
		}
	}
}

// Input reads the next line. "exit" and "quit" end the conversation with
// io.EOF; lines rejected by SanitizeInput are reported and read again.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if h.prompt {
			fmt.Fprint(h.Writer, Prompt)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.lines:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", fmt.Errorf("input error: %w", res.err)
			}

			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			switch strings.ToLower(clean) {
			case "exit", "quit":
				return "", io.EOF
			}
			return clean, nil
		}
	}
}

// Sink writes one response, rendered through Renderer when set. Render
// failures fall back to the raw text.
func (h *TextHandler) Sink(_ context.Context, text string, _ *domain.Session) error {
	output := text
	if h.Renderer != nil {
		if rendered, err := h.Renderer(text); err == nil {
			output = rendered
		}
	}
	_, err := fmt.Fprintln(h.Writer, strings.TrimSpace(output))
	return err
}

// SystemOutput writes a bracketed meta-message.
func (h *TextHandler) SystemOutput(_ context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[dockwise] %s\n", msg)
	return err
}
