package fidstore

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis"
	"github.com/go-redis/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	minidb, err := miniredis.Run()
	require.NoError(t, err)
	defer minidb.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: minidb.Addr()})
	defer redisClient.Close()

	stores := map[string]Store{
		"inMemory": NewInMemoryStore(),
		"file":     NewFileStore(filepath.Join(t.TempDir(), "framework.id")),
		"redis":    NewRedisStore(redisClient, "test-framework"),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			id, err := store.Get()
			require.NoError(t, err)
			assert.Empty(t, id, "a fresh store holds no id")

			require.NoError(t, store.Set("fw-20260830-0001"))
			id, err = store.Get()
			require.NoError(t, err)
			assert.Equal(t, "fw-20260830-0001", id)

			require.NoError(t, store.Set("fw-20260830-0002"))
			id, err = store.Get()
			require.NoError(t, err)
			assert.Equal(t, "fw-20260830-0002", id, "set overwrites")

			require.NoError(t, store.Clear())
			id, err = store.Get()
			require.NoError(t, err)
			assert.Empty(t, id)

			require.NoError(t, store.Clear(), "clearing an empty store is a no-op")
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framework.id")

	first := NewFileStore(path)
	require.NoError(t, first.Set("fw-persisted"))

	second := NewFileStore(path)
	id, err := second.Get()
	require.NoError(t, err)
	assert.Equal(t, "fw-persisted", id)
}

func TestRedisStoreKeysAreScopedByFramework(t *testing.T) {
	minidb, err := miniredis.Run()
	require.NoError(t, err)
	defer minidb.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: minidb.Addr()})
	defer redisClient.Close()

	one := NewRedisStore(redisClient, "framework-one")
	two := NewRedisStore(redisClient, "framework-two")

	require.NoError(t, one.Set("fw-1"))
	require.NoError(t, two.Set("fw-2"))

	id, err := one.Get()
	require.NoError(t, err)
	assert.Equal(t, "fw-1", id)

	id, err = two.Get()
	require.NoError(t, err)
	assert.Equal(t, "fw-2", id)
}
