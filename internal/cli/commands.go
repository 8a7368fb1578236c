package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/dockwise/internal/presentation/graph"
	"github.com/aretw0/dockwise/internal/presentation/tui"
	"github.com/aretw0/dockwise/pkg/adapters/docker"
	"github.com/aretw0/dockwise/pkg/adapters/nlu"
	"github.com/aretw0/dockwise/pkg/assistant"
	"github.com/aretw0/dockwise/pkg/domain"
	"gopkg.in/yaml.v3"
)

// ListImages prints the local images as a table.
func ListImages(ctx context.Context, d *Deps, w io.Writer) error {
	images, err := d.Docker.Images(ctx)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		fmt.Fprintln(w, "No local images.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "IMAGE\tID\tSIZE\tCREATED")
	for _, img := range images {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", img.Ref(), img.ID, img.Size, img.CreatedSince)
	}
	return tw.Flush()
}

// PullImage pulls ref.
func PullImage(ctx context.Context, d *Deps, w io.Writer, ref string) error {
	ref, err := docker.NormalizeReference(ref)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Pulling %s...\n", ref)
	if err := d.Docker.Pull(ctx, ref); err != nil {
		return err
	}
	fmt.Fprintf(w, "Pulled %s.\n", ref)
	return nil
}

// RunRequest holds the options of a one-shot run.
type RunRequest struct {
	Image string
	Ports []string
	Name  string
	Env   []string
	Save  bool
}

// RunImage starts a container from req.Image. Options given in req override
// the saved settings; with Save the merged settings are stored.
func RunImage(ctx context.Context, d *Deps, w io.Writer, req RunRequest) error {
	ref, err := docker.NormalizeReference(req.Image)
	if err != nil {
		return err
	}

	settings := domain.RunSettings{Image: ref, Detach: d.Config.Docker.Detach}
	saved, err := d.Store.Load(ctx, ref)
	switch {
	case err == nil:
		settings = *saved
		settings.Image = ref
	case !errors.Is(err, domain.ErrSettingsNotFound):
		return fmt.Errorf("failed to load settings for %s: %w", ref, err)
	}

	if len(req.Ports) > 0 {
		settings.Ports = nil
		for _, p := range req.Ports {
			settings.Ports = append(settings.Ports, assistant.Publish(p))
		}
	}
	if req.Name != "" {
		settings.Name = req.Name
	}
	for _, kv := range req.Env {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid env %q, expected KEY=VALUE", kv)
		}
		if settings.Env == nil {
			settings.Env = make(map[string]string)
		}
		settings.Env[key] = value
	}

	id, err := d.Docker.Run(ctx, settings)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, id)

	if req.Save {
		if err := d.Store.Save(ctx, settings); err != nil {
			return fmt.Errorf("failed to save settings for %s: %w", ref, err)
		}
		d.Logger.Info("settings saved", "image", ref)
	}
	return nil
}

// RemoveImages removes refs.
func RemoveImages(ctx context.Context, d *Deps, w io.Writer, refs []string) error {
	normalized := make([]string, 0, len(refs))
	for _, ref := range refs {
		n, err := docker.NormalizeReference(ref)
		if err != nil {
			return err
		}
		normalized = append(normalized, n)
	}
	if err := d.Docker.Remove(ctx, normalized...); err != nil {
		return err
	}
	for _, ref := range normalized {
		fmt.Fprintf(w, "Removed %s.\n", ref)
	}
	return nil
}

// ListSettings prints the images with saved settings, one per line.
func ListSettings(ctx context.Context, d *Deps, w io.Writer) error {
	images, err := d.Store.List(ctx)
	if err != nil {
		return err
	}
	for _, img := range images {
		fmt.Fprintln(w, img)
	}
	return nil
}

// ShowSettings prints the saved settings of ref as YAML.
func ShowSettings(ctx context.Context, d *Deps, w io.Writer, ref string) error {
	ref, err := docker.NormalizeReference(ref)
	if err != nil {
		return err
	}
	settings, err := d.Store.Load(ctx, ref)
	if err != nil {
		return fmt.Errorf("%s: %w", ref, err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return err
	}
	return enc.Close()
}

// DeleteSettings forgets the saved settings of ref.
func DeleteSettings(ctx context.Context, d *Deps, w io.Writer, ref string) error {
	ref, err := docker.NormalizeReference(ref)
	if err != nil {
		return err
	}
	if err := d.Store.Delete(ctx, ref); err != nil {
		return err
	}
	fmt.Fprintf(w, "Forgot settings for %s.\n", ref)
	return nil
}

// Validate assembles and binds the configured flow, reporting the outcome on w.
func Validate(d *Deps, w io.Writer) error {
	engine, err := d.BuildEngine(nil, io.Discard)
	if err != nil {
		var cfgErr *domain.ConfigError
		if errors.As(err, &cfgErr) {
			tui.Diagnostic(w, tui.LevelError, "%s %q: %v", cfgErr.Kind, cfgErr.Name, cfgErr.Err)
		} else {
			tui.Diagnostic(w, tui.LevelError, "%v", err)
		}
		return err
	}

	tree := engine.Tree()
	tui.Diagnostic(w, tui.LevelInfo, "flow %q is valid: %d entries, %d global entries",
		tree.ID, countEntries(tree), len(engine.Global()))
	if GlobalRef(d.Config) == "" {
		tui.Diagnostic(w, tui.LevelWarn, "no global stack configured")
	}
	return nil
}

func countEntries(n *domain.DialogNode) int {
	total := len(n.Stack)
	for _, e := range n.Stack {
		if e.Dialog != nil {
			total += countEntries(e.Dialog)
		}
	}
	return total
}

// Graph prints the flow as a Mermaid diagram, highlighting position when set.
func Graph(d *Deps, w io.Writer, position string) error {
	engine, err := d.BuildEngine(nil, io.Discard)
	if err != nil {
		return err
	}
	var overlay *graph.GraphOverlay
	if position != "" {
		overlay = &graph.GraphOverlay{Position: position}
	}
	_, err = io.WriteString(w, graph.GenerateMermaid(engine.Tree(), engine.Global(), overlay))
	return err
}

// NLUStatus prints the model loaded by the NLU server.
func NLUStatus(ctx context.Context, d *Deps, w io.Writer) error {
	cfg := d.Config
	if cfg.NLU.Offline {
		fmt.Fprintln(w, "offline keyword model")
		return nil
	}
	client := nlu.NewClient(cfg.NLU.URL, nlu.WithTimeout(cfg.NLU.Timeout), nlu.WithLogger(d.Logger))
	status, err := client.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "url:      %s\nmodel:    %s\ntraining: %d\n", cfg.NLU.URL, status.ModelFile, status.Training)
	return nil
}
