package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/dockwise/pkg/adapters/redis"
	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSettingsStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	now := time.Now()
	clock := func() time.Time { return now }
	store := redis.NewFromClient(client, redis.WithTTL(time.Second), redis.WithClock(clock))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.RunSettings{Image: "nginx:latest", Ports: []string{"80"}}))

	images, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, images, "nginx:latest")

	mr.FastForward(2 * time.Second)
	now = now.Add(2 * time.Second)

	_, err = store.Load(ctx, "nginx:latest")
	assert.ErrorIs(t, err, domain.ErrSettingsNotFound)

	images, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.RunSettings{Image: "redis:7"}))

	assert.True(t, mr.Exists("custom:app:image:redis:7"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	require.NoError(t, store.Ping(ctx))

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"redis:7"}, list)
}
