package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/dockwise/pkg/domain"
)

// Store implements ports.SettingsStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.RunSettings
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.RunSettings),
	}
}

// Save stores a copy of the settings.
func (s *Store) Save(ctx context.Context, settings domain.RunSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[settings.Image] = clone(settings)
	return nil
}

// Load returns a copy so callers cannot mutate the stored value.
func (s *Store) Load(ctx context.Context, image string) (*domain.RunSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, ok := s.data[image]
	if !ok {
		return nil, domain.ErrSettingsNotFound
	}
	ret := clone(settings)
	return &ret, nil
}

// Delete removes the settings for image.
func (s *Store) Delete(ctx context.Context, image string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, image)
	return nil
}

// List returns the stored images, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	images := make([]string, 0, len(s.data))
	for image := range s.data {
		images = append(images, image)
	}
	sort.Strings(images)
	return images, nil
}

func clone(s domain.RunSettings) domain.RunSettings {
	s.Ports = slices.Clone(s.Ports)
	if s.Env != nil {
		s.Env = maps.Clone(s.Env)
	}
	return s
}
