package store

import "testing"

func TestCanTransition_Table(t *testing.T) {
	// WHAT: Exhaustive check of the allowed transition table.
	// WHY: The state machine replaced ad-hoc string writes; the table is
	// the contract.
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusPublished, false},
		{StatusApproved, StatusPublished, true},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, true},
		{StatusRejected, StatusPending, false},
		{StatusRejected, StatusPublished, false},
		{StatusPublished, StatusPending, false},
		{StatusPublished, StatusApproved, false},
		// Self-transitions are idempotent no-ops.
		{StatusPending, StatusPending, true},
		{StatusApproved, StatusApproved, true},
		{StatusRejected, StatusRejected, true},
		{StatusPublished, StatusPublished, true},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s): got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestGuards(t *testing.T) {
	item := &StagingItem{Status: StatusPending}
	if !CanApprove(item) || !CanReject(item) {
		t.Error("pending item should be approvable and rejectable")
	}
	item.Status = StatusPublished
	if CanReject(item) {
		t.Error("published item should not be rejectable")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, StatusPublished} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%s) = false", s)
		}
	}
	if ValidStatus("deleted") {
		t.Error("unknown status accepted")
	}
}
