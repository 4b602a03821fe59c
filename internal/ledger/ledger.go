// Package ledger records which users completed a purchase for an event.
// Entries are append-only; nothing in this service removes them.
package ledger

import (
	"context"

	"github.com/iliyamo/event-ticketing/internal/kvstore"
	"github.com/iliyamo/event-ticketing/internal/seatkey"
)

// Ledger is the per-event purchase list kept in the shared store.
type Ledger struct {
	store kvstore.Store
}

// New returns a Ledger backed by store.
func New(store kvstore.Store) *Ledger {
	return &Ledger{store: store}
}

// Record adds loginID to the purchasers of eventID for the seat at
// seatKey.  Nothing is written when the user was already recorded
// (kvstore.AlreadyMember) or the seat lock belongs to another user
// (kvstore.LockedByOther).  A lapsed seat lock does not block the record.
func (l *Ledger) Record(ctx context.Context, eventID int64, loginID, seatKey string) (kvstore.AppendOutcome, error) {
	return l.store.AppendIfHolder(ctx, seatkey.LedgerKey(eventID), loginID, seatKey)
}

// Contains reports whether loginID already purchased a ticket for eventID.
func (l *Ledger) Contains(ctx context.Context, eventID int64, loginID string) (bool, error) {
	return l.store.ListContains(ctx, seatkey.LedgerKey(eventID), loginID)
}

// Members lists all purchasers of eventID, most recent first.
func (l *Ledger) Members(ctx context.Context, eventID int64) ([]string, error) {
	return l.store.ListMembers(ctx, seatkey.LedgerKey(eventID))
}
