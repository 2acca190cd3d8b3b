package engine

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/easel/pkg/document"
	"github.com/dyluth/easel/pkg/scene"
)

const (
	testDebounce = 25 * time.Millisecond
	waitFor      = 2 * time.Second
	tick         = 5 * time.Millisecond
)

// countingStore wraps a Store and counts Set/Delete calls per key, so tests
// can assert on exactly how many writes the projector produced.
type countingStore struct {
	document.Store
	mu   sync.Mutex
	sets map[string]int
	dels map[string]int
}

func newCountingStore(inner document.Store) *countingStore {
	return &countingStore{
		Store: inner,
		sets:  make(map[string]int),
		dels:  make(map[string]int),
	}
}

func (c *countingStore) Transact(ctx context.Context, origin string, fn func(document.Tx) error) error {
	return c.Store.Transact(ctx, origin, func(tx document.Tx) error {
		return fn(&countingTx{inner: tx, c: c})
	})
}

type countingTx struct {
	inner document.Tx
	c     *countingStore
}

func (t *countingTx) Set(key string, rec document.Record) {
	t.c.mu.Lock()
	t.c.sets[key]++
	t.c.mu.Unlock()
	t.inner.Set(key, rec)
}

func (t *countingTx) Delete(key string) {
	t.c.mu.Lock()
	t.c.dels[key]++
	t.c.mu.Unlock()
	t.inner.Delete(key)
}

func (c *countingStore) setCount(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets[key]
}

func (c *countingStore) deleteCount(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dels[key]
}

func (c *countingStore) totalDeletes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, count := range c.dels {
		n += count
	}
	return n
}

// fakeResolver returns a fixed image for every texture.
type fakeResolver struct {
	img image.Image
	err error
}

func (f *fakeResolver) Resolve(ctx context.Context, name, tint string) (image.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

// attachSession creates and attaches a session with test-friendly defaults.
func attachSession(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.Debounce == 0 {
		opts.Debounce = testDebounce
	}
	sess, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, sess.Attach(context.Background()))
	t.Cleanup(func() { sess.Close() })
	return sess
}

// drain waits until every task currently queued on the session loop has run.
func drain(s *Session) {
	s.loop.call(func() {})
}

func solidRect(fill string) *scene.Object {
	return &scene.Object{
		Type:   scene.ObjectRect,
		X:      10,
		Y:      20,
		Width:  100,
		Height: 50,
		Fill:   scene.Solid(fill),
	}
}

func TestNewValidation(t *testing.T) {
	t.Run("requires scene", func(t *testing.T) {
		_, err := New(Options{Store: document.NewMemoryStore()})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "scene cannot be nil")
	})

	t.Run("requires store", func(t *testing.T) {
		_, err := New(Options{Scene: scene.NewMemory()})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "store cannot be nil")
	})

	t.Run("sessions get distinct origins", func(t *testing.T) {
		a, err := New(Options{Scene: scene.NewMemory(), Store: document.NewMemoryStore()})
		require.NoError(t, err)
		b, err := New(Options{Scene: scene.NewMemory(), Store: document.NewMemoryStore()})
		require.NoError(t, err)
		assert.NotEqual(t, a.Origin(), b.Origin())
	})
}

func TestAttachTwiceFails(t *testing.T) {
	sess := attachSession(t, Options{Scene: scene.NewMemory(), Store: document.NewMemoryStore()})
	err := sess.Attach(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already attached")
}

func TestUseBeforeAttachPanics(t *testing.T) {
	sess, err := New(Options{Scene: scene.NewMemory(), Store: document.NewMemoryStore()})
	require.NoError(t, err)

	assert.Panics(t, func() { sess.Settings() })
	assert.Panics(t, func() { sess.UpdateSettings(SettingsPatch{}) })
}

func TestCloseIsIdempotent(t *testing.T) {
	sess := attachSession(t, Options{Scene: scene.NewMemory(), Store: document.NewMemoryStore()})
	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())

	// Close before attach is also fine.
	unattached, err := New(Options{Scene: scene.NewMemory(), Store: document.NewMemoryStore()})
	require.NoError(t, err)
	assert.NoError(t, unattached.Close())
}
