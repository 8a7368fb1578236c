package assistant

import (
	"context"
	"errors"

	"github.com/aretw0/dockwise/pkg/domain"
)

// FillPort proposes the first saved port of the image entity.
func (a *Assistant) FillPort(ctx context.Context, s *domain.Session) (any, error) {
	saved, err := a.saved(ctx, s)
	if err != nil || saved == nil || len(saved.Ports) == 0 {
		return nil, err
	}
	return saved.Ports[0], nil
}

// FillName proposes the saved container name of the image entity.
func (a *Assistant) FillName(ctx context.Context, s *domain.Session) (any, error) {
	saved, err := a.saved(ctx, s)
	if err != nil || saved == nil || saved.Name == "" {
		return nil, err
	}
	return saved.Name, nil
}

// saved loads settings for the image entity; nil without error when there
// is no image or nothing saved.
func (a *Assistant) saved(ctx context.Context, s *domain.Session) (*domain.RunSettings, error) {
	raw, ok := entityString(s, EntityImage)
	if !ok {
		return nil, nil
	}
	ref, ok, _ := ValidateImage(ctx, raw)
	if !ok {
		return nil, nil
	}
	settings, err := a.store.Load(ctx, ref.(string))
	if errors.Is(err, domain.ErrSettingsNotFound) {
		return nil, nil
	}
	return settings, err
}
