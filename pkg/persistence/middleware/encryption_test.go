package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/dockwise/pkg/adapters/memory"
	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/persistence/middleware"
	"github.com/aretw0/dockwise/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func settings() domain.RunSettings {
	return domain.RunSettings{
		Image:  "postgres:16",
		Ports:  []string{"5432:5432"},
		Env:    map[string]string{"POSTGRES_PASSWORD": "my-secret-sauce"},
		Detach: true,
	}
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, settings()))

	stored, err := underlying.Load(ctx, "postgres:16")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.Env["POSTGRES_PASSWORD"], middleware.EncryptedPrefix))
	assert.NotContains(t, stored.Env["POSTGRES_PASSWORD"], "my-secret-sauce")
	assert.Equal(t, []string{"5432:5432"}, stored.Ports)

	loaded, err := secure.Load(ctx, "postgres:16")
	require.NoError(t, err)
	assert.Equal(t, settings(), *loaded)

	list, err := secure.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"postgres:16"}, list)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	old := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, old.Save(ctx, settings()))

	rotated := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)
	loaded, err := rotated.Load(ctx, "postgres:16")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.Env["POSTGRES_PASSWORD"])

	wrong := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err = wrong.Load(ctx, "postgres:16")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RefusesPlainValues(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, settings()))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "postgres:16")
	assert.ErrorContains(t, err, "unencrypted")
}

func TestEncryptionMiddleware_BadKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	})
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSettingsStoreContract(t, middleware.Chain(memory.NewStore(), mw))
}
