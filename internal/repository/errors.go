// Package repository defines error types that are reused across
// repositories.  These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios.
package repository

import "errors"

// ErrConflict is returned when a write cannot be performed because a
// conflicting row already exists, such as a second ticket for the same
// seat.  The ledger stays authoritative for purchases, so callers log it.
var ErrConflict = errors.New("conflict")
