package document

import (
	"context"
	"errors"
	"sync"
)

// Record is the flat, plain-data representation of one replicated entry.
// Values must be JSON-representable: strings, bools, float64 numbers, and
// nested map[string]any / []any. Rich in-memory types (gradients, image
// handles) are encoded to tagged plain values before they reach a Record.
type Record = map[string]any

// Event describes one committed transaction: the keys it touched and the
// origin tag of the participant that produced it.
type Event struct {
	ChangedKeys []string `json:"changed_keys"`
	Origin      string   `json:"origin"`
}

// Tx is the mutation surface available inside a transaction.
// Mutations are buffered and become visible (and observable via a single
// change event) only when the transaction function returns nil.
type Tx interface {
	// Set writes a record under key, replacing any previous record.
	Set(key string, rec Record)

	// Delete removes the record under key. Deleting an absent key is a no-op.
	Delete(key string)
}

// Store is the replicated document: a transactional keyed map of records
// with origin-tagged change notifications. Implementations are safe for
// concurrent use.
type Store interface {
	// Get returns the record stored under key.
	// Returns ErrNotFound if no record exists.
	Get(ctx context.Context, key string) (Record, error)

	// Keys returns every key currently present, in no particular order.
	Keys(ctx context.Context) ([]string, error)

	// Transact runs fn against a transaction buffer and, if fn returns nil,
	// commits the buffered mutations atomically and publishes one change
	// event tagged with origin. If fn returns an error nothing is applied.
	Transact(ctx context.Context, origin string, fn func(tx Tx) error) error

	// Subscribe starts delivering change events for this session.
	// Caller must Close the subscription when done.
	Subscribe(ctx context.Context) (*Subscription, error)

	// Close releases the store's resources.
	Close() error
}

// ErrNotFound is returned by Get for keys with no record.
var ErrNotFound = errors.New("document: record not found")

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Subscription is an active change-event subscription.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of change events. The channel is closed when
// the subscription is closed or its context is cancelled.
func (s *Subscription) Events() <-chan *Event {
	return s.events
}

// Errors returns the channel of non-fatal subscription errors (e.g. a
// malformed event payload). The subscription continues after an error.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Implements io.Closer.
// Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// CloneRecord returns a deep copy of rec, so callers can hold or mutate the
// result without aliasing store-internal state.
func CloneRecord(rec Record) Record {
	if rec == nil {
		return nil
	}
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
