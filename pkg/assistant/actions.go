package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/dockwise/pkg/adapters/docker"
	"github.com/aretw0/dockwise/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Actions report through step attributes: AttrResult carries a message for
// the entry's responses and AttrFailed is set when the operation failed.
// Collaborator failures are reported, not returned, so the conversation
// continues; only context cancellation ends it.

// ListImages stores the local images as a markdown list in AttrImages and
// AttrResult.
func (a *Assistant) ListImages(ctx context.Context, s *domain.Session, _ *domain.NLUResult) (any, error) {
	images, err := a.docker.Images(ctx)
	if err != nil {
		return nil, a.fail(ctx, s, "Could not list images", err)
	}

	s.SetAttribute(AttrCount, len(images), domain.LifespanStep)
	if len(images) == 0 {
		s.SetAttribute(AttrImages, "No local images.", domain.LifespanStep)
		a.report(s, "No local images.")
		return images, nil
	}

	var b strings.Builder
	for i, img := range images {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- `%s` (%s, %s)", img.Ref(), img.Size, img.CreatedSince)
	}
	s.SetAttribute(AttrImages, b.String(), domain.LifespanStep)
	a.report(s, "%s", b.String())
	return images, nil
}

// PullImage pulls the image entity.
func (a *Assistant) PullImage(ctx context.Context, s *domain.Session, _ *domain.NLUResult) (any, error) {
	ref, ok := a.image(s)
	if !ok {
		return nil, nil
	}
	fmt.Fprintf(a.out, "Pulling %s...\n", ref)
	if err := a.docker.Pull(ctx, ref); err != nil {
		return nil, a.fail(ctx, s, "Could not pull "+ref, err)
	}
	a.report(s, "Pulled %s.", ref)
	return ref, nil
}

// RunImage starts a container from the image entity. Saved settings for the
// image are the base; port and name entities override them. A confirm
// entity other than "yes" cancels the run.
func (a *Assistant) RunImage(ctx context.Context, s *domain.Session, _ *domain.NLUResult) (any, error) {
	ref, ok := a.image(s)
	if !ok {
		return nil, nil
	}
	defer s.ForgetEntity(EntityConfirm)
	if !confirmed(s) {
		a.report(s, "Cancelled.")
		return nil, nil
	}

	settings, err := a.settingsFor(ctx, s, ref)
	if err != nil {
		return nil, a.fail(ctx, s, "Could not read settings for "+ref, err)
	}

	id, err := a.docker.Run(ctx, settings)
	if err != nil {
		return nil, a.fail(ctx, s, "Could not start "+ref, err)
	}
	if settings.Detach {
		a.report(s, "Started container %s from %s.", shortID(id), ref)
	} else {
		a.report(s, "%s exited.\n%s", ref, id)
	}
	return id, nil
}

// RemoveImage deletes the image entity once confirmed.
func (a *Assistant) RemoveImage(ctx context.Context, s *domain.Session, _ *domain.NLUResult) (any, error) {
	ref, ok := a.image(s)
	if !ok {
		return nil, nil
	}
	defer s.ForgetEntity(EntityConfirm)
	if !confirmed(s) {
		a.report(s, "Kept %s.", ref)
		return nil, nil
	}

	if err := a.docker.Remove(ctx, ref); err != nil {
		return nil, a.fail(ctx, s, "Could not remove "+ref, err)
	}
	s.ForgetEntity(EntityImage)
	a.report(s, "Removed %s.", ref)
	return ref, nil
}

// SaveSettings stores the port and name entities for the image entity.
func (a *Assistant) SaveSettings(ctx context.Context, s *domain.Session, _ *domain.NLUResult) (any, error) {
	ref, ok := a.image(s)
	if !ok {
		return nil, nil
	}
	settings, err := a.settingsFor(ctx, s, ref)
	if err != nil {
		return nil, a.fail(ctx, s, "Could not read settings for "+ref, err)
	}
	if err := a.store.Save(ctx, settings); err != nil {
		return nil, a.fail(ctx, s, "Could not save settings for "+ref, err)
	}
	a.report(s, "Saved settings for %s.", ref)
	return settings, nil
}

// ShowSettings stores the saved settings of the image entity as YAML in
// AttrSettings and as a fenced block in AttrResult.
func (a *Assistant) ShowSettings(ctx context.Context, s *domain.Session, _ *domain.NLUResult) (any, error) {
	ref, ok := a.image(s)
	if !ok {
		return nil, nil
	}
	saved, err := a.store.Load(ctx, ref)
	if errors.Is(err, domain.ErrSettingsNotFound) {
		a.report(s, "No saved settings for %s.", ref)
		s.SetAttribute(AttrSettings, "", domain.LifespanStep)
		return nil, nil
	}
	if err != nil {
		return nil, a.fail(ctx, s, "Could not read settings for "+ref, err)
	}

	out, err := yaml.Marshal(saved)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	text := strings.TrimSpace(string(out))
	s.SetAttribute(AttrSettings, text, domain.LifespanStep)
	a.report(s, "Settings for %s:\n\n```yaml\n%s\n```", ref, text)
	return saved, nil
}

// ResetSession forgets every entity and attribute.
func ResetSession(_ context.Context, s *domain.Session, _ *domain.NLUResult) (any, error) {
	s.Reset()
	s.SetAttribute(AttrResult, "Starting over.", domain.LifespanStep)
	return nil, nil
}

// Exit ends the conversation.
func Exit(context.Context, *domain.Session, *domain.NLUResult) (any, error) {
	return nil, domain.ErrExit
}

// settingsFor merges saved settings for ref with the port and name entities.
func (a *Assistant) settingsFor(ctx context.Context, s *domain.Session, ref string) (domain.RunSettings, error) {
	settings := domain.RunSettings{Image: ref, Detach: a.detach}
	saved, err := a.store.Load(ctx, ref)
	switch {
	case err == nil:
		settings = *saved
		settings.Image = ref
	case !errors.Is(err, domain.ErrSettingsNotFound):
		return settings, err
	}

	if port, ok := entityString(s, EntityPort); ok {
		settings.Ports = []string{Publish(port)}
	}
	if name, ok := entityString(s, EntityName); ok {
		settings.Name = name
	}
	return settings, nil
}

// image returns the normalized image entity, reporting a failure when it is
// missing or invalid.
func (a *Assistant) image(s *domain.Session) (string, bool) {
	raw, ok := entityString(s, EntityImage)
	if !ok {
		s.SetAttribute(AttrFailed, true, domain.LifespanStep)
		a.report(s, "No image given.")
		return "", false
	}
	ref, err := docker.NormalizeReference(raw)
	if err != nil {
		s.SetAttribute(AttrFailed, true, domain.LifespanStep)
		a.report(s, "'%s' is not a valid image reference.", raw)
		return "", false
	}
	return ref, true
}

func (a *Assistant) report(s *domain.Session, format string, args ...any) {
	s.SetAttribute(AttrResult, fmt.Sprintf(format, args...), domain.LifespanStep)
}

// fail records err for the responses. Context errors are returned so the
// conversation stops.
func (a *Assistant) fail(ctx context.Context, s *domain.Session, msg string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	a.logger.Warn(msg, "error", err)
	s.SetAttribute(AttrFailed, true, domain.LifespanStep)
	a.report(s, "%s: %v", msg, err)
	return nil
}

func confirmed(s *domain.Session) bool {
	v, ok := entityString(s, EntityConfirm)
	return !ok || v == "yes"
}

func entityString(s *domain.Session, name string) (string, bool) {
	v, ok := s.Entity(name)
	if !ok || v == nil {
		return "", false
	}
	str := strings.TrimSpace(fmt.Sprint(v))
	return str, str != ""
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
