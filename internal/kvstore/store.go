// Package kvstore is the capability the reservation core needs from the
// shared key-value service: leases with per-key TTL, compare-and-delete and
// append-only lists.  Every call is atomic at the store.  Multi-key work
// that must not interleave with other clients is done by AcquirePair and
// AppendIfHolder.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps every failure of the underlying store.  Callers
// treat it as transient.
var ErrUnavailable = errors.New("kvstore: store unavailable")

// AcquireOutcome is the result of AcquirePair.
type AcquireOutcome int

const (
	// Acquired means both leases were created by this call.
	Acquired AcquireOutcome = iota
	// AlreadyHeld means the seat lease already belongs to the holder.  Its
	// TTL is left untouched.
	AlreadyHeld
	// SeatTaken means another holder owns the seat lease.
	SeatTaken
	// HolderBusy means the holder's index points at a different seat.
	HolderBusy
)

func (o AcquireOutcome) String() string {
	switch o {
	case Acquired:
		return "acquired"
	case AlreadyHeld:
		return "already_held"
	case SeatTaken:
		return "seat_taken"
	case HolderBusy:
		return "holder_busy"
	}
	return "unknown"
}

// AppendOutcome is the result of AppendIfHolder.
type AppendOutcome int

const (
	// Appended means the value was added to the list.
	Appended AppendOutcome = iota
	// AlreadyMember means the list already held the value; nothing changed.
	AlreadyMember
	// LockedByOther means the lock key is held by a different value;
	// nothing changed.
	LockedByOther
)

func (o AppendOutcome) String() string {
	switch o {
	case Appended:
		return "appended"
	case AlreadyMember:
		return "already_member"
	case LockedByOther:
		return "locked_by_other"
	}
	return "unknown"
}

// Store is implemented by RedisStore.
type Store interface {
	// Ping verifies connectivity.
	Ping(ctx context.Context) error
	// Get returns the value of key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// RemainingTTL returns the time left on key's lease and whether the
	// key exists.  A key without expiry reports a negative duration.
	RemainingTTL(ctx context.Context, key string) (time.Duration, bool, error)
	// DeleteIfEqual deletes key only while it still holds value.  It
	// reports whether a key was deleted.
	DeleteIfEqual(ctx context.Context, key, value string) (bool, error)
	// AcquirePair creates the seat lease (seatKey -> holder) and the holder
	// index (userKey -> seatKey) in one transaction, both with ttl.
	AcquirePair(ctx context.Context, seatKey, userKey, holder string, ttl time.Duration) (AcquireOutcome, time.Duration, error)
	// AppendIfHolder appends value to the list at listKey unless it is
	// already a member or lockKey exists holding anything but value.  The
	// checks and the append are one step at the store.
	AppendIfHolder(ctx context.Context, listKey, value, lockKey string) (AppendOutcome, error)
	// ListContains reports whether value is a member of the list.
	ListContains(ctx context.Context, listKey, value string) (bool, error)
	// ListMembers returns the list contents, newest first.
	ListMembers(ctx context.Context, listKey string) ([]string, error)
}
