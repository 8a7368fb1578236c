package ports

import (
	"context"

	"github.com/aretw0/dockwise/pkg/domain"
)

// SettingsStore persists run settings keyed by image reference.
type SettingsStore interface {
	// Save persists the settings, overwriting any previous value for the image.
	Save(ctx context.Context, settings domain.RunSettings) error

	// Load retrieves the settings for an image.
	// Returns domain.ErrSettingsNotFound if none were saved.
	Load(ctx context.Context, image string) (*domain.RunSettings, error)

	// Delete removes the settings for an image. Deleting a missing entry is not an error.
	Delete(ctx context.Context, image string) error

	// List returns the images that have saved settings.
	List(ctx context.Context) ([]string, error)
}
