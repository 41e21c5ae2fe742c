// Package store provides the data access layer for the venuery staging
// queue: ingestion jobs, staging items, the approval state machine, and
// append-only version history.
//
// The store receives an already-opened *sql.DB so tests can substitute an
// in-memory database; it owns no global connection state.
package store

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a staging item or job does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicateTitle is returned when an insert would collide with an
// existing title in the same category (20-character prefix heuristic).
var ErrDuplicateTitle = errors.New("store: duplicate title in category")

// ErrNotInImages is returned when a primary image is set to a URL that is
// not a member of the item's image list.
var ErrNotInImages = errors.New("store: url is not in the item's images")

// ErrImageNotFound is returned when removing a URL absent from the list.
var ErrImageNotFound = errors.New("store: image url not found on item")

// Store wraps the staging database.
type Store struct {
	DB *sql.DB
}

// New creates a Store from an already-opened database connection.
func New(db *sql.DB) *Store {
	return &Store{DB: db}
}
