package document

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the production Store: records as Redis hashes, a set
// indexing the live keys, and a Pub/Sub channel carrying change events.
// All Redis keys and channels are namespaced by session name. The store is
// safe for concurrent use from multiple goroutines.
type RedisStore struct {
	rdb     *redis.Client
	session string
}

// NewRedisStore creates a store for the named session.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - session: editing session identifier (must not be empty)
//
// Returns an error if session is empty.
func NewRedisStore(redisOpts *redis.Options, session string) (*RedisStore, error) {
	if session == "" {
		return nil, fmt.Errorf("session name cannot be empty")
	}

	return &RedisStore{
		rdb:     redis.NewClient(redisOpts),
		session: session,
	}, nil
}

// Ping verifies Redis connectivity. Useful for health checks.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection. Implements io.Closer.
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}

// Get returns the record stored under key.
// Returns ErrNotFound if no record exists.
func (r *RedisStore) Get(ctx context.Context, key string) (Record, error) {
	hashData, err := r.rdb.HGetAll(ctx, redisRecordKey(r.session, key)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read record from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys.
	if len(hashData) == 0 {
		return nil, ErrNotFound
	}

	rec, err := HashToRecord(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize record %q: %w", key, err)
	}
	return rec, nil
}

// Keys returns every key currently present in the session.
func (r *RedisStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := r.rdb.SMembers(ctx, redisIndexKey(r.session)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read key index from Redis: %w", err)
	}
	return keys, nil
}

// redisTx buffers mutations until commit.
type redisTx struct {
	ops []redisOp
}

type redisOp struct {
	key    string
	rec    Record
	delete bool
}

func (t *redisTx) Set(key string, rec Record) {
	t.ops = append(t.ops, redisOp{key: key, rec: CloneRecord(rec)})
}

func (t *redisTx) Delete(key string) {
	t.ops = append(t.ops, redisOp{key: key, delete: true})
}

// Transact applies fn's buffered mutations in one pipeline and publishes a
// single change event tagged with origin.
func (r *RedisStore) Transact(ctx context.Context, origin string, fn func(tx Tx) error) error {
	tx := &redisTx{}
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.ops) == 0 {
		return nil
	}

	pipe := r.rdb.TxPipeline()
	changed := make([]string, 0, len(tx.ops))
	for _, op := range tx.ops {
		recordKey := redisRecordKey(r.session, op.key)
		if op.delete {
			pipe.Del(ctx, recordKey)
			pipe.SRem(ctx, redisIndexKey(r.session), op.key)
		} else {
			hash, err := RecordToHash(op.rec)
			if err != nil {
				return fmt.Errorf("failed to serialize record %q: %w", op.key, err)
			}
			// Full replacement: drop stale fields before writing.
			pipe.Del(ctx, recordKey)
			pipe.HSet(ctx, recordKey, hash)
			pipe.SAdd(ctx, redisIndexKey(r.session), op.key)
		}
		changed = append(changed, op.key)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction to Redis: %w", err)
	}

	eventJSON, err := json.Marshal(&Event{ChangedKeys: changed, Origin: origin})
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := r.rdb.Publish(ctx, redisEventsChannel(r.session), eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Subscribe starts delivering change events for this session.
// Caller must call subscription.Close() when done. Context cancellation
// also stops the subscription.
//
// Events are delivered on a buffered channel to prevent blocking. If the
// subscriber is too slow, events may be dropped by Redis Pub/Sub
// (at-most-once delivery).
func (r *RedisStore) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := r.rdb.Subscribe(ctx, redisEventsChannel(r.session))

	eventsChan := make(chan *Event, 64)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					// Send error on error channel, skip message.
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal change event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
