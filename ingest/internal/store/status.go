package store

import "fmt"

// Status is the review state of a staging item.
type Status string

// Staging item review states.
const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusPublished Status = "published"
)

// ValidStatus reports whether s is a known review state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusPublished:
		return true
	}
	return false
}

// transitions is the allowed state machine. Self-transitions are handled
// separately as idempotent no-ops and are not listed here.
//
// rejected → approved exists so a reviewer can re-initiate approval after a
// re-ingestion refreshed the item's content; re-ingestion itself never
// changes status.
var transitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusApproved: true,
		StatusRejected: true,
	},
	StatusApproved: {
		StatusPublished: true,
	},
	StatusRejected: {
		StatusApproved: true,
	},
	StatusPublished: {},
}

// TransitionError is returned when a status change violates the state machine.
type TransitionError struct {
	ItemID string
	From   Status
	To     Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("staging item %s: invalid transition %s → %s", e.ItemID, e.From, e.To)
}

// CanTransition reports whether from → to is allowed. Self-transitions are
// allowed (idempotent no-op).
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	return transitions[from][to]
}

// CanApprove reports whether the item may be moved to approved.
func CanApprove(item *StagingItem) bool {
	return CanTransition(item.Status, StatusApproved)
}

// CanReject reports whether the item may be moved to rejected.
func CanReject(item *StagingItem) bool {
	return CanTransition(item.Status, StatusRejected)
}
