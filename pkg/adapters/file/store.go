package file

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/dockwise/pkg/domain"
)

// Store implements ports.SettingsStore using the local filesystem.
// It stores one JSON file per image in a configured directory.
type Store struct {
	BasePath string
}

// NewStore creates a new Store with the given base path.
// If basePath is empty, it defaults to ".dockwise/settings".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".dockwise", "settings")
	}
	return &Store{BasePath: basePath}
}

// Image references contain '/' and ':', so file names are query-escaped.
func (s *Store) path(image string) string {
	return filepath.Join(s.BasePath, url.QueryEscape(image)+".json")
}

// Save persists the settings to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, settings domain.RunSettings) error {
	if settings.Image == "" {
		return fmt.Errorf("image cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure settings directory: %w", err)
	}

	destPath := s.path(settings.Image)

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	// Same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing settings file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to settings file: %w", err)
	}
	return nil
}

// Load reads the settings for image.
func (s *Store) Load(ctx context.Context, image string) (*domain.RunSettings, error) {
	if image == "" {
		return nil, fmt.Errorf("image cannot be empty")
	}

	data, err := os.ReadFile(s.path(image))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings domain.RunSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return &settings, nil
}

// Delete removes the settings file.
func (s *Store) Delete(ctx context.Context, image string) error {
	if image == "" {
		return fmt.Errorf("image cannot be empty")
	}

	err := os.Remove(s.path(image))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete settings file: %w", err)
	}
	return nil
}

// List returns the images with saved settings, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	var images []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		image, err := url.QueryUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		images = append(images, image)
	}
	sort.Strings(images)
	return images, nil
}
