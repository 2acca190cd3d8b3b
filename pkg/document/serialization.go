package document

import (
	"encoding/json"
	"fmt"
)

// Serialization helpers for converting records to and from Redis hashes
//
// Redis stores data as string-to-string maps (hashes). Each record field is
// JSON-encoded into one hash field. This keeps individual fields readable
// with plain Redis tooling while allowing nested plain values (gradient
// stop lists, settings dimensions) inside a field.

// RecordToHash converts a Record to Redis hash format.
// Every field value is JSON-encoded.
func RecordToHash(rec Record) (map[string]any, error) {
	hash := make(map[string]any, len(rec))
	for field, value := range rec {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal field %q: %w", field, err)
		}
		hash[field] = string(encoded)
	}
	return hash, nil
}

// HashToRecord converts a Redis hash back to a Record.
// Each field is JSON-decoded; numbers come back as float64.
func HashToRecord(hash map[string]string) (Record, error) {
	rec := make(Record, len(hash))
	for field, encoded := range hash {
		var value any
		if err := json.Unmarshal([]byte(encoded), &value); err != nil {
			return nil, fmt.Errorf("failed to unmarshal field %q: %w", field, err)
		}
		rec[field] = value
	}
	return rec, nil
}
