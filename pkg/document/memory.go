package document

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store implementation. It backs unit tests
// and replicas that share a process; the replication boundary is simply the
// store value itself, so two sessions attached to one MemoryStore behave
// like two participants in a shared session.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	subs    map[int]*memorySub
	nextSub int
}

type memorySub struct {
	events chan *Event
	errs   chan error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		subs:    make(map[int]*memorySub),
	}
}

// Get returns the record stored under key, or ErrNotFound.
func (m *MemoryStore) Get(ctx context.Context, key string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return CloneRecord(rec), nil
}

// Keys returns every key currently present.
func (m *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.records))
	for k := range m.records {
		keys = append(keys, k)
	}
	return keys, nil
}

// memoryTx buffers mutations until commit.
type memoryTx struct {
	ops []memoryOp
}

type memoryOp struct {
	key    string
	rec    Record // nil means delete
	delete bool
}

func (t *memoryTx) Set(key string, rec Record) {
	t.ops = append(t.ops, memoryOp{key: key, rec: CloneRecord(rec)})
}

func (t *memoryTx) Delete(key string) {
	t.ops = append(t.ops, memoryOp{key: key, delete: true})
}

// Transact applies fn's buffered mutations atomically and fans one change
// event out to every live subscriber.
func (m *MemoryStore) Transact(ctx context.Context, origin string, fn func(tx Tx) error) error {
	tx := &memoryTx{}
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.ops) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	changed := make([]string, 0, len(tx.ops))
	for _, op := range tx.ops {
		if op.delete {
			delete(m.records, op.key)
		} else {
			m.records[op.key] = op.rec
		}
		changed = append(changed, op.key)
	}

	// Fan-out happens under the lock so no send can race a subscription's
	// channel close (which also runs under the lock).
	ev := &Event{ChangedKeys: changed, Origin: origin}
	for _, s := range m.subs {
		// At-most-once: a slow subscriber drops events, it never blocks
		// the writer. Matches Redis Pub/Sub delivery semantics.
		select {
		case s.events <- ev:
		default:
		}
	}
	return nil
}

// Subscribe starts delivering change events.
func (m *MemoryStore) Subscribe(ctx context.Context) (*Subscription, error) {
	eventsChan := make(chan *Event, 64)
	errorsChan := make(chan error, 1)
	subCtx, cancelFunc := context.WithCancel(ctx)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = &memorySub{events: eventsChan, errs: errorsChan}
	m.mu.Unlock()

	go func() {
		<-subCtx.Done()
		m.mu.Lock()
		delete(m.subs, id)
		close(eventsChan)
		close(errorsChan)
		m.mu.Unlock()
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// Close drops all records and subscriptions.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]Record)
	return nil
}
