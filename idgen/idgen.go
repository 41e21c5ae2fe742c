// Package idgen provides pluggable ID generation for venuery entities.
//
// Constructors across the ingest service accept a Generator, making the ID
// strategy a startup-time decision rather than a compile-time one. The
// convention is UUIDv7 with an entity prefix ("itm_", "job_") so identifiers
// sort by creation time and remain self-describing in logs.
package idgen

import "github.com/google/uuid"

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
// Time-sortable and globally unique.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
// Used for type-scoped identifiers (e.g. "itm_", "job_").
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Item generates staging item IDs ("itm_" + UUIDv7).
var Item = Prefixed("itm_", UUIDv7())

// Job generates ingestion job IDs ("job_" + UUIDv7).
var Job = Prefixed("job_", UUIDv7())
