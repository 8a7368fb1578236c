package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSettingsStoreContract runs a suite of tests to verify that a SettingsStore
// implementation adheres to the interface contract.
func RunSettingsStoreContract(t *testing.T, store SettingsStore) {
	ctx := context.Background()
	image := "contract/nginx-" + time.Now().Format("20060102150405") + ":latest"

	t.Run("Save and Load", func(t *testing.T) {
		settings := domain.RunSettings{
			Image:  image,
			Name:   "web",
			Ports:  []string{"8080:80"},
			Env:    map[string]string{"MODE": "dev"},
			Detach: true,
		}

		require.NoError(t, store.Save(ctx, settings), "Save should not return error")

		loaded, err := store.Load(ctx, image)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, settings.Image, loaded.Image)
		assert.Equal(t, "web", loaded.Name)
		assert.Equal(t, []string{"8080:80"}, loaded.Ports)
		assert.Equal(t, "dev", loaded.Env["MODE"])
		assert.True(t, loaded.Detach)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.RunSettings{Image: image, Ports: []string{"9090"}}))

		loaded, err := store.Load(ctx, image)
		require.NoError(t, err)
		assert.Equal(t, []string{"9090"}, loaded.Ports)
		assert.Empty(t, loaded.Name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing/"+image)
		assert.ErrorIs(t, err, domain.ErrSettingsNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.RunSettings{Image: image}))

		require.NoError(t, store.Delete(ctx, image), "Delete should not return error")

		_, err := store.Load(ctx, image)
		assert.ErrorIs(t, err, domain.ErrSettingsNotFound, "Load after Delete should return ErrSettingsNotFound")
	})

	t.Run("List", func(t *testing.T) {
		img1 := image + "-1"
		img2 := image + "-2"
		_ = store.Save(ctx, domain.RunSettings{Image: img1})
		_ = store.Save(ctx, domain.RunSettings{Image: img2})

		defer func() {
			_ = store.Delete(ctx, img1)
			_ = store.Delete(ctx, img2)
		}()

		images, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, images, img1)
		assert.Contains(t, images, img2)
	})
}
