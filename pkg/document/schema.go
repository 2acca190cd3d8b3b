package document

import (
	"fmt"
	"strings"
)

// Key pattern helpers
//
// Store keys are flat strings. Object records live under "object:{id}" and
// settings records under "settings:{name}". The Redis store additionally
// namespaces everything by session name so multiple easel sessions can
// safely coexist on a single Redis server.

// Settings live under two independent keys so a participant can update the
// canvas dimensions without touching the preset, and vice versa. A change
// event for one settings key says nothing about the other.
const (
	// SettingsDimensionsKey holds the canvas dimensions record {width, height}.
	SettingsDimensionsKey = "settings:dimensions"

	// SettingsPresetKey holds the named preset record {value}.
	SettingsPresetKey = "settings:preset"
)

const objectKeyPrefix = "object:"

// ObjectKey returns the store key for the object with the given id.
// Pattern: object:{id}
func ObjectKey(id string) string {
	return objectKeyPrefix + id
}

// ObjectID extracts the object id from a store key.
// Returns ("", false) for keys that are not object keys.
func ObjectID(key string) (string, bool) {
	if !strings.HasPrefix(key, objectKeyPrefix) {
		return "", false
	}
	return key[len(objectKeyPrefix):], true
}

// redisRecordKey returns the Redis key holding one record's hash.
// Pattern: easel:{session}:{key}
func redisRecordKey(session, key string) string {
	return fmt.Sprintf("easel:%s:%s", session, key)
}

// redisIndexKey returns the Redis key of the session's key-index set.
// Pattern: easel:{session}:keys
func redisIndexKey(session string) string {
	return fmt.Sprintf("easel:%s:keys", session)
}

// redisEventsChannel returns the Pub/Sub channel name for change events.
// Pattern: easel:{session}:events
func redisEventsChannel(session string) string {
	return fmt.Sprintf("easel:%s:events", session)
}
