// Package reservation coordinates seat selection across every request
// worker of the platform.  A seat is claimed by a lease in the shared store
// (seat lock), and the claiming user gets a second lease (user index)
// pointing back at it, so one user holds at most one seat in progress.  The
// Manager keeps no in-process state: all coordination goes through
// kvstore.Store, and abandoned selections disappear when their leases
// expire.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/event-ticketing/internal/kvstore"
	"github.com/iliyamo/event-ticketing/internal/ledger"
	"github.com/iliyamo/event-ticketing/internal/seatkey"
)

// DefaultLease is how long a selection lives without commit or cancel.
const DefaultLease = 60 * time.Second

// Logger is satisfied by gommon's *log.Logger and echo.Logger.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

const notifyUnavailable = "service is busy, please try again"

// invalidUser tells the client why its login id was refused.
func invalidUser(err error) string {
	return "invalid user: " + strings.TrimPrefix(err.Error(), seatkey.ErrInvalidLoginID.Error()+": ")
}

// Manager implements acquire, restore, commit and cancel of seat leases.
// It is safe for concurrent use.
type Manager struct {
	store  kvstore.Store
	ledger *ledger.Ledger
	lease  time.Duration
	log    Logger
}

// NewManager builds a Manager over store.  A non-positive lease selects
// DefaultLease.
func NewManager(store kvstore.Store, lease time.Duration, logger Logger) *Manager {
	if lease <= 0 {
		lease = DefaultLease
	}
	return &Manager{
		store:  store,
		ledger: ledger.New(store),
		lease:  lease,
		log:    logger,
	}
}

// Lease returns the configured lease duration.
func (m *Manager) Lease() time.Duration { return m.lease }

// TryAcquire claims seatKey for userID.  Exactly one of any number of
// concurrent callers for a free seat is granted.  A user re-acquiring the
// seat they already hold is granted again with the remaining TTL; the
// lease is not extended.
func (m *Manager) TryAcquire(ctx context.Context, seatKey, userID string) AcquireResult {
	if _, err := seatkey.Decode(seatKey); err != nil {
		return AcquireResult{Reason: KindValidation, Notify: "invalid seat"}
	}
	if err := seatkey.ValidateLoginID(userID); err != nil {
		return AcquireResult{Reason: KindValidation, Notify: invalidUser(err)}
	}

	outcome, ttl, err := m.store.AcquirePair(ctx, seatKey, seatkey.UserIndexKey(userID), userID, m.lease)
	if err != nil {
		m.log.Errorf("reservation: acquire %s for %s: %v", seatKey, userID, err)
		return AcquireResult{Reason: KindStoreUnavailable, Notify: notifyUnavailable}
	}
	switch outcome {
	case kvstore.Acquired, kvstore.AlreadyHeld:
		return AcquireResult{Granted: true, RemainingTTL: ttl, Notify: "seat selected"}
	case kvstore.SeatTaken:
		return AcquireResult{Reason: KindSeatTaken, Notify: "this seat has already been selected, please try again later"}
	default:
		return AcquireResult{Reason: KindMultipleSelection, Notify: "only one seat may be selected at a time"}
	}
}

// Restore returns the seat userID currently holds, if its lease is alive.
// A user index whose seat lock has expired is cleared on the way.
func (m *Manager) Restore(ctx context.Context, userID string) RestoreResult {
	if err := seatkey.ValidateLoginID(userID); err != nil {
		return RestoreResult{Reason: KindValidation, Notify: invalidUser(err)}
	}
	userKey := seatkey.UserIndexKey(userID)

	seatKey, ok, err := m.store.Get(ctx, userKey)
	if err != nil {
		return m.restoreUnavailable(userID, err)
	}
	if !ok {
		return RestoreResult{Notify: "no seat selected"}
	}

	holder, ok, err := m.store.Get(ctx, seatKey)
	if err != nil {
		return m.restoreUnavailable(userID, err)
	}
	if !ok {
		if _, err := m.store.DeleteIfEqual(ctx, userKey, seatKey); err != nil {
			m.log.Warnf("reservation: clearing stale index %s -> %s: %v", userKey, seatKey, err)
		}
		return RestoreResult{Notify: "no seat selected"}
	}
	if holder != userID {
		return RestoreResult{Reason: KindSeatReassigned, Notify: "the selected seat now belongs to another user"}
	}

	seat, err := seatkey.Decode(seatKey)
	if err != nil {
		m.log.Errorf("reservation: user index %s holds malformed key %q: %v", userKey, seatKey, err)
		return RestoreResult{Reason: KindValidation, Notify: "stored selection is unreadable"}
	}
	ttl, ok, err := m.store.RemainingTTL(ctx, seatKey)
	if err != nil {
		return m.restoreUnavailable(userID, err)
	}
	if !ok {
		return RestoreResult{Notify: "no seat selected"}
	}
	return RestoreResult{Found: true, Seat: seat, SeatKey: seatKey, RemainingTTL: ttl, Notify: "selection restored"}
}

func (m *Manager) restoreUnavailable(userID string, err error) RestoreResult {
	m.log.Errorf("reservation: restore for %s: %v", userID, err)
	return RestoreResult{Reason: KindStoreUnavailable, Notify: notifyUnavailable}
}

// Commit records userID as a purchaser of eventID and releases both leases.
// A user already in the ledger gets KindDuplicatePurchase and a seat whose
// lease belongs to another user gets KindSeatTaken; in both cases nothing
// is changed.  If the caller's lease was gone by the time it was released,
// the purchase stands but the result carries KindPartialCleanup: the lease
// expired while the purchase was in flight.
func (m *Manager) Commit(ctx context.Context, eventID int64, userID, seatKey string) CommitResult {
	seat, err := seatkey.Decode(seatKey)
	if err != nil || seat.EventID != eventID {
		return CommitResult{Reason: KindValidation, Notify: "invalid seat"}
	}
	if err := seatkey.ValidateLoginID(userID); err != nil {
		return CommitResult{Reason: KindValidation, Notify: invalidUser(err)}
	}

	outcome, err := m.ledger.Record(ctx, eventID, userID, seatKey)
	if err != nil {
		m.log.Errorf("reservation: commit %s for %s: %v", seatKey, userID, err)
		return CommitResult{Reason: KindStoreUnavailable, Notify: notifyUnavailable}
	}
	switch outcome {
	case kvstore.AlreadyMember:
		return CommitResult{Reason: KindDuplicatePurchase, Notify: "only one ticket per person is allowed for this event"}
	case kvstore.LockedByOther:
		m.log.Warnf("reservation: %s tried to purchase %s held by another user", userID, seatKey)
		return CommitResult{Reason: KindSeatTaken, Notify: "this seat is held by another user"}
	}

	userKey := seatkey.UserIndexKey(userID)
	seatReleased, seatErr := m.store.DeleteIfEqual(ctx, seatKey, userID)
	userReleased, userErr := m.store.DeleteIfEqual(ctx, userKey, seatKey)
	if err := errors.Join(seatErr, userErr); err != nil {
		m.log.Errorf("reservation: releasing leases after commit %s for %s: %v", seatKey, userID, err)
		return CommitResult{Recorded: true, Reason: KindPartialCleanup, Notify: "purchase recorded, seat release failed"}
	}
	if !seatReleased || !userReleased {
		m.log.Warnf("reservation: lease lapsed during commit event=%d user=%s seat=%s seat_lock_released=%t user_index_released=%t",
			eventID, userID, seatKey, seatReleased, userReleased)
		return CommitResult{Recorded: true, Reason: KindPartialCleanup, Notify: "purchase recorded, but the seat lease had already expired"}
	}
	m.log.Infof("reservation: %s purchased %s", userID, seatKey)
	return CommitResult{Status: true, Recorded: true, Notify: fmt.Sprintf("purchase of %s completed", seat.Label())}
}

// Cancel releases the seat lock and user index.  userIndexKey is the
// holder's login id, so only leases that still belong to that user are
// removed; anything else is reported as absent.
func (m *Manager) Cancel(ctx context.Context, seatKey, userIndexKey string) CancelResult {
	if _, err := seatkey.Decode(seatKey); err != nil {
		return CancelResult{Reason: KindValidation, Notify: "invalid seat"}
	}
	if err := seatkey.ValidateLoginID(userIndexKey); err != nil {
		return CancelResult{Reason: KindValidation, Notify: invalidUser(err)}
	}

	seatReleased, err := m.store.DeleteIfEqual(ctx, seatKey, userIndexKey)
	if err != nil {
		return m.cancelUnavailable(seatKey, err)
	}
	userReleased, err := m.store.DeleteIfEqual(ctx, userIndexKey, seatKey)
	if err != nil {
		return m.cancelUnavailable(seatKey, err)
	}

	res := CancelResult{
		Status:          seatReleased && userReleased,
		SeatLockAbsent:  !seatReleased,
		UserIndexAbsent: !userReleased,
	}
	if res.Status {
		res.Notify = fmt.Sprintf("%s and %s released", seatKey, userIndexKey)
		return res
	}
	var missing []string
	if res.SeatLockAbsent {
		missing = append(missing, seatKey)
	}
	if res.UserIndexAbsent {
		missing = append(missing, userIndexKey)
	}
	res.Notify = strings.Join(missing, ", ") + " not found"
	return res
}

func (m *Manager) cancelUnavailable(seatKey string, err error) CancelResult {
	m.log.Errorf("reservation: cancel %s: %v", seatKey, err)
	return CancelResult{Reason: KindStoreUnavailable, Notify: notifyUnavailable}
}

// CheckDuplicate reports whether userID already purchased for eventID.
func (m *Manager) CheckDuplicate(ctx context.Context, eventID int64, userID string) CheckResult {
	if eventID <= 0 {
		return CheckResult{Reason: KindValidation, Notify: "invalid event"}
	}
	if err := seatkey.ValidateLoginID(userID); err != nil {
		return CheckResult{Reason: KindValidation, Notify: invalidUser(err)}
	}
	ok, err := m.ledger.Contains(ctx, eventID, userID)
	if err != nil {
		m.log.Errorf("reservation: check event=%d user=%s: %v", eventID, userID, err)
		return CheckResult{Reason: KindStoreUnavailable, Notify: notifyUnavailable}
	}
	if ok {
		return CheckResult{Duplicate: true, Reason: KindDuplicatePurchase, Notify: "only one ticket per person is allowed for this event"}
	}
	return CheckResult{Notify: "ok"}
}

// Purchasers lists the users recorded for eventID.
func (m *Manager) Purchasers(ctx context.Context, eventID int64) ([]string, error) {
	return m.ledger.Members(ctx, eventID)
}
