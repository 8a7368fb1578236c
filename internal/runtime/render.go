package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/aretw0/dockwise/pkg/domain"
)

// Sink receives every rendered response.
type Sink func(ctx context.Context, text string, s *domain.Session) error

var (
	attributeMarker = regexp.MustCompile(`\{\{\s*attributes\.([A-Za-z0-9_\-]+)\s*\}\}`)
	entityMarker    = regexp.MustCompile(`\{\{\s*entities\.([A-Za-z0-9_\-]+)\s*\}\}`)
)

// Renderer resolves response templates against the session and delivers the
// result to the registered sinks.
type Renderer struct {
	sinks []Sink
	out   io.Writer
}

// NewRenderer creates a renderer. With no sinks, text is written to out
// (os.Stdout when out is nil).
func NewRenderer(out io.Writer, sinks ...Sink) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{sinks: sinks, out: out}
}

// Render substitutes the first attribute marker and the first entity marker
// of template. Every occurrence of the same marker text is replaced; other
// markers of the same kind are left as they are. Unset values render empty.
func (r *Renderer) Render(template string, s *domain.Session) string {
	text := template
	if m := attributeMarker.FindStringSubmatch(text); m != nil {
		v, _ := s.Attribute(m[1])
		text = strings.ReplaceAll(text, m[0], display(v))
	}
	if m := entityMarker.FindStringSubmatch(text); m != nil {
		v, _ := s.Entity(m[1])
		text = strings.ReplaceAll(text, m[0], display(v))
	}
	return text
}

// Emit delivers text to each sink in registration order, stopping at the first error.
func (r *Renderer) Emit(ctx context.Context, text string, s *domain.Session) error {
	if len(r.sinks) == 0 {
		_, err := fmt.Fprintln(r.out, text)
		return err
	}
	for _, sink := range r.sinks {
		if err := sink(ctx, text, s); err != nil {
			return fmt.Errorf("output sink: %w", err)
		}
	}
	return nil
}

// Say renders template and emits the result.
func (r *Renderer) Say(ctx context.Context, template string, s *domain.Session) error {
	return r.Emit(ctx, r.Render(template, s), s)
}

func display(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
