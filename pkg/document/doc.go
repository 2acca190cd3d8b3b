// Package document provides the replicated document substrate for easel:
// a transactional keyed map of plain records, shared by every participant
// in an editing session.
//
// # Overview
//
// The document is the authoritative cross-participant source of truth for
// scene contents. Each drawable object is stored as a flat record under an
// object key, and dedicated settings keys hold the session-level canvas
// settings. The sync engine projects local scene mutations into the
// document and applies remote document mutations back onto the scene.
//
// # Origin tags
//
// Every transaction carries an origin tag identifying the participant that
// produced it. Change events deliver the tag alongside the changed keys so
// a subscriber can recognise its own writes and skip them - the engine's
// echo suppression depends on this.
//
// # Stores
//
// Two Store implementations are provided:
//
//   - MemoryStore: a single-process store with synchronous-ish event
//     delivery, used by tests and by replicas that share a process.
//   - RedisStore: records as Redis hashes plus a Pub/Sub events channel,
//     namespaced by session name so multiple sessions can safely coexist
//     on one Redis server.
//
// # Usage Example
//
//	store, err := document.NewRedisStore(&redis.Options{Addr: addr}, "studio-1")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.Transact(ctx, origin, func(tx document.Tx) error {
//		tx.Set(document.ObjectKey("abc"), rec)
//		return nil
//	})
//
//	sub, err := store.Subscribe(ctx)
//	defer sub.Close()
//	for ev := range sub.Events() {
//		// ev.ChangedKeys, ev.Origin
//	}
//
// # Redis Schema
//
// Records: easel:{session}:{key} (hash, one field per record field)
// Key index: easel:{session}:keys (set)
// Change events: easel:{session}:events (Pub/Sub, JSON-encoded Event)
//
// # Design Principles
//
// - Plain data: records hold only primitives and nested plain maps/slices
// - Isolation: session namespacing prevents cross-session interference
// - At-most-once events: slow subscribers drop, they never block writers
package document
