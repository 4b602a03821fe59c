package reservation

import (
	"time"

	"github.com/iliyamo/event-ticketing/internal/seatkey"
)

// Kind classifies the outcome of a reservation operation.  KindNone means
// the operation did what was asked.
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindSeatTaken
	KindMultipleSelection
	KindSeatReassigned
	KindDuplicatePurchase
	KindPartialCleanup
	KindStoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation_error"
	case KindSeatTaken:
		return "seat_taken"
	case KindMultipleSelection:
		return "multiple_selection_not_allowed"
	case KindSeatReassigned:
		return "seat_reassigned"
	case KindDuplicatePurchase:
		return "duplicate_purchase"
	case KindPartialCleanup:
		return "partial_cleanup_failure"
	case KindStoreUnavailable:
		return "store_unavailable"
	}
	return "unknown"
}

// MarshalText lets results be encoded with the kind's name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// AcquireResult is returned by TryAcquire.
type AcquireResult struct {
	Granted      bool
	RemainingTTL time.Duration
	Reason       Kind
	Notify       string
}

// RestoreResult is returned by Restore.  Seat and RemainingTTL are only set
// when Found is true.
type RestoreResult struct {
	Found        bool
	Seat         seatkey.Seat
	SeatKey      string
	RemainingTTL time.Duration
	Reason       Kind
	Notify       string
}

// CommitResult is returned by Commit.  Recorded is true once the purchase
// is in the ledger, even if lease cleanup afterwards was incomplete.
type CommitResult struct {
	Status   bool
	Recorded bool
	Reason   Kind
	Notify   string
}

// CancelResult is returned by Cancel.  Absent keys are diagnostics, not
// failures.
type CancelResult struct {
	Status          bool
	SeatLockAbsent  bool
	UserIndexAbsent bool
	Reason          Kind
	Notify          string
}

// CheckResult is returned by CheckDuplicate.
type CheckResult struct {
	Duplicate bool
	Reason    Kind
	Notify    string
}
