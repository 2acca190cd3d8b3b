package document

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	t.Run("returns ErrNotFound for missing key", func(t *testing.T) {
		_, err := store.Get(ctx, ObjectKey("missing"))
		assert.True(t, IsNotFound(err))
	})

	t.Run("returns stored record", func(t *testing.T) {
		rec := Record{"id": "abc", "x": 1.5}
		err := store.Transact(ctx, "origin-1", func(tx Tx) error {
			tx.Set(ObjectKey("abc"), rec)
			return nil
		})
		require.NoError(t, err)

		got, err := store.Get(ctx, ObjectKey("abc"))
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("returned record does not alias store state", func(t *testing.T) {
		got, err := store.Get(ctx, ObjectKey("abc"))
		require.NoError(t, err)
		got["x"] = 99.0

		again, err := store.Get(ctx, ObjectKey("abc"))
		require.NoError(t, err)
		assert.Equal(t, 1.5, again["x"])
	})
}

func TestMemoryStoreTransact(t *testing.T) {
	ctx := context.Background()

	t.Run("fn error aborts all mutations", func(t *testing.T) {
		store := NewMemoryStore()
		err := store.Transact(ctx, "origin-1", func(tx Tx) error {
			tx.Set(ObjectKey("a"), Record{"id": "a"})
			return assert.AnError
		})
		assert.Error(t, err)

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("empty transaction publishes no event", func(t *testing.T) {
		store := NewMemoryStore()
		sub, err := store.Subscribe(ctx)
		require.NoError(t, err)
		defer sub.Close()

		err = store.Transact(ctx, "origin-1", func(tx Tx) error { return nil })
		require.NoError(t, err)

		select {
		case ev := <-sub.Events():
			t.Fatalf("unexpected event: %+v", ev)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("delete removes the record", func(t *testing.T) {
		store := NewMemoryStore()
		err := store.Transact(ctx, "origin-1", func(tx Tx) error {
			tx.Set(ObjectKey("a"), Record{"id": "a"})
			return nil
		})
		require.NoError(t, err)

		err = store.Transact(ctx, "origin-1", func(tx Tx) error {
			tx.Delete(ObjectKey("a"))
			return nil
		})
		require.NoError(t, err)

		_, err = store.Get(ctx, ObjectKey("a"))
		assert.True(t, IsNotFound(err))
	})
}

func TestMemoryStoreEvents(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sub, err := store.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	err = store.Transact(ctx, "origin-7", func(tx Tx) error {
		tx.Set(ObjectKey("a"), Record{"id": "a"})
		tx.Delete(ObjectKey("b"))
		return nil
	})
	require.NoError(t, err)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "origin-7", ev.Origin)
		assert.Equal(t, []string{ObjectKey("a"), ObjectKey("b")}, ev.ChangedKeys)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestMemoryStoreSubscriptionClose(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sub, err := store.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	// Safe to close twice.
	require.NoError(t, sub.Close())

	// Events channel drains closed.
	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("events channel not closed")
	}

	// Writes after close must not panic or block.
	err = store.Transact(ctx, "origin-1", func(tx Tx) error {
		tx.Set(ObjectKey("a"), Record{"id": "a"})
		return nil
	})
	assert.NoError(t, err)
}

func TestObjectKeyRoundTrip(t *testing.T) {
	key := ObjectKey("abc-123")
	id, ok := ObjectID(key)
	assert.True(t, ok)
	assert.Equal(t, "abc-123", id)

	_, ok = ObjectID(SettingsDimensionsKey)
	assert.False(t, ok)
	_, ok = ObjectID(SettingsPresetKey)
	assert.False(t, ok)
}
