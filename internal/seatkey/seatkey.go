// Package seatkey encodes seat identities, user indexes and purchase ledgers
// into store keys.  The formats are shared with data already living in the
// store, so they must not change:
//
//	seat lock:   [event_id:area:row:column]
//	user index:  login_id
//	ledger:      event_id
package seatkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidKey is returned when a seat tuple or key cannot be encoded or
// decoded under the bracket/colon grammar.
var ErrInvalidKey = errors.New("seatkey: invalid key")

// ErrInvalidLoginID is returned for login ids that cannot be used as a user
// index key.
var ErrInvalidLoginID = errors.New("seatkey: invalid login id")

// Seat identifies one physical seat of an event.
type Seat struct {
	EventID int64  `json:"event_id"`
	Area    string `json:"area"`
	Row     int    `json:"row"`
	Column  int    `json:"column"`
}

// Validate reports whether the seat can be encoded.  Numbers must be
// positive and the area must not contain any delimiter or control
// characters.
func (s Seat) Validate() error {
	if s.EventID <= 0 {
		return fmt.Errorf("%w: event_id must be positive", ErrInvalidKey)
	}
	if s.Row <= 0 || s.Column <= 0 {
		return fmt.Errorf("%w: row and column must be positive", ErrInvalidKey)
	}
	if s.Area == "" {
		return fmt.Errorf("%w: area is required", ErrInvalidKey)
	}
	for _, r := range s.Area {
		if r == '[' || r == ']' || r == ':' || unicode.IsControl(r) {
			return fmt.Errorf("%w: area contains %q", ErrInvalidKey, r)
		}
	}
	return nil
}

// Label renders the seat for logs and notifications.
func (s Seat) Label() string {
	return fmt.Sprintf("%s row %d seat %d", s.Area, s.Row, s.Column)
}

// Encode returns the seat lock key for s.
func Encode(s Seat) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	return "[" + strconv.FormatInt(s.EventID, 10) + ":" + s.Area + ":" +
		strconv.Itoa(s.Row) + ":" + strconv.Itoa(s.Column) + "]", nil
}

// Decode parses a seat lock key.  Only canonical keys are accepted (no
// leading zeros or signs), so every seat maps to exactly one key.
func Decode(key string) (Seat, error) {
	if len(key) < 2 || key[0] != '[' || key[len(key)-1] != ']' {
		return Seat{}, fmt.Errorf("%w: %q is not bracketed", ErrInvalidKey, key)
	}
	parts := strings.Split(key[1:len(key)-1], ":")
	if len(parts) != 4 {
		return Seat{}, fmt.Errorf("%w: %q must have 4 fields", ErrInvalidKey, key)
	}
	eventID, err := canonicalInt(parts[0])
	if err != nil {
		return Seat{}, fmt.Errorf("%w: event_id %q", ErrInvalidKey, parts[0])
	}
	row, err := canonicalInt(parts[2])
	if err != nil {
		return Seat{}, fmt.Errorf("%w: row %q", ErrInvalidKey, parts[2])
	}
	col, err := canonicalInt(parts[3])
	if err != nil {
		return Seat{}, fmt.Errorf("%w: column %q", ErrInvalidKey, parts[3])
	}
	s := Seat{EventID: eventID, Area: parts[1], Row: int(row), Column: int(col)}
	if err := s.Validate(); err != nil {
		return Seat{}, err
	}
	return s, nil
}

func canonicalInt(field string) (int64, error) {
	n, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0, err
	}
	if strconv.FormatInt(n, 10) != field {
		return 0, errors.New("not canonical")
	}
	return n, nil
}

// ValidateLoginID checks that id can serve as a user index key.  Ids that
// start with '[' would be indistinguishable from seat lock keys and purely
// numeric ids from ledger keys.
func ValidateLoginID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: login id is empty", ErrInvalidLoginID)
	}
	if id[0] == '[' {
		return fmt.Errorf("%w: %q starts with '['", ErrInvalidLoginID, id)
	}
	if _, err := strconv.ParseInt(id, 10, 64); err == nil {
		return fmt.Errorf("%w: %q is purely numeric; login ids need at least one non-digit character", ErrInvalidLoginID, id)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return fmt.Errorf("%w: %q contains whitespace or control characters", ErrInvalidLoginID, id)
		}
	}
	return nil
}

// UserIndexKey returns the key holding the seat lock key a user currently
// holds.  It is the login id itself.
func UserIndexKey(loginID string) string { return loginID }

// LedgerKey returns the list key recording purchasers of an event.
func LedgerKey(eventID int64) string { return strconv.FormatInt(eventID, 10) }
