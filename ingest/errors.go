package ingest

import "errors"

// Sentinel errors classifying per-term and per-request failures. Per-term
// errors never abort a job; they are recorded in the job's error log and the
// loop advances.
var (
	// ErrNoSearchTerms rejects a job request with an empty term list. No job
	// row is created.
	ErrNoSearchTerms = errors.New("no search terms provided")

	// ErrNoStructuredData marks a term the structured source could not
	// resolve.
	ErrNoStructuredData = errors.New("no structured data for term")

	// ErrValidation marks a candidate record rejected by the content
	// validator.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicate marks a term whose title collides with an existing
	// staging item.
	ErrDuplicate = errors.New("duplicate staging title")

	// ErrPersistence marks a staging insert that failed at the store.
	ErrPersistence = errors.New("staging insert failed")

	// ErrCrawlUnavailable rejects a crawl-only job when no crawl credential
	// is configured. This is a precondition: the job is marked failed before
	// any term is processed.
	ErrCrawlUnavailable = errors.New("crawl credential not configured")

	// ErrMutationInFlight rejects a review mutation while another mutation
	// on the same item is still running.
	ErrMutationInFlight = errors.New("mutation already in flight for item")
)

// errorKind maps a per-term error to its error-log classification.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "source_fetch"
	}
}
