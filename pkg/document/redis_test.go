package document

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a RedisStore connected to a miniredis instance
func setupTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := NewRedisStore(&redis.Options{Addr: mr.Addr()}, "test-session")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestNewRedisStore(t *testing.T) {
	t.Run("creates store successfully", func(t *testing.T) {
		store, _ := setupTestStore(t)
		assert.NotNil(t, store)
		assert.Equal(t, "test-session", store.session)
	})

	t.Run("rejects empty session name", func(t *testing.T) {
		_, err := NewRedisStore(&redis.Options{Addr: "localhost:6379"}, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "session name cannot be empty")
	})
}

func TestRedisStorePing(t *testing.T) {
	store, _ := setupTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	rec := Record{
		"id":   "abc",
		"type": "rect",
		"x":    12.5,
		"fill": map[string]any{
			"kind":    "gradient",
			"payload": map[string]any{"stops": []any{map[string]any{"offset": 0.0, "color": "#fff"}}},
		},
	}

	err := store.Transact(ctx, "origin-1", func(tx Tx) error {
		tx.Set(ObjectKey("abc"), rec)
		return nil
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, ObjectKey("abc"))
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{ObjectKey("abc")}, keys)
}

func TestRedisStoreSetReplacesStaleFields(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	err := store.Transact(ctx, "origin-1", func(tx Tx) error {
		tx.Set(ObjectKey("abc"), Record{"id": "abc", "text": "hello"})
		return nil
	})
	require.NoError(t, err)

	err = store.Transact(ctx, "origin-1", func(tx Tx) error {
		tx.Set(ObjectKey("abc"), Record{"id": "abc"})
		return nil
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, ObjectKey("abc"))
	require.NoError(t, err)
	_, hasText := got["text"]
	assert.False(t, hasText, "replaced record should not keep stale fields")
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	err := store.Transact(ctx, "origin-1", func(tx Tx) error {
		tx.Set(ObjectKey("abc"), Record{"id": "abc"})
		return nil
	})
	require.NoError(t, err)

	err = store.Transact(ctx, "origin-1", func(tx Tx) error {
		tx.Delete(ObjectKey("abc"))
		return nil
	})
	require.NoError(t, err)

	_, err = store.Get(ctx, ObjectKey("abc"))
	assert.True(t, IsNotFound(err))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRedisStoreEvents(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	sub, err := store.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	// Give the pub/sub subscription a moment to establish.
	time.Sleep(50 * time.Millisecond)

	err = store.Transact(ctx, "origin-9", func(tx Tx) error {
		tx.Set(ObjectKey("abc"), Record{"id": "abc"})
		tx.Set(SettingsPresetKey, Record{"value": "dark"})
		return nil
	})
	require.NoError(t, err)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "origin-9", ev.Origin)
		assert.Equal(t, []string{ObjectKey("abc"), SettingsPresetKey}, ev.ChangedKeys)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestHashRecordRoundTrip(t *testing.T) {
	rec := Record{
		"id":    "abc",
		"x":     3.25,
		"label": "hello",
		"tags":  []any{"a", "b"},
	}

	hash, err := RecordToHash(rec)
	require.NoError(t, err)

	// Hash fields are strings for Redis; round-trip through the string form.
	stringHash := make(map[string]string, len(hash))
	for k, v := range hash {
		stringHash[k] = v.(string)
	}

	got, err := HashToRecord(stringHash)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestHashToRecordMalformed(t *testing.T) {
	_, err := HashToRecord(map[string]string{"x": "not json{"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal field")
}
