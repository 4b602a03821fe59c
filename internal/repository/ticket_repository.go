package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// mysqlDuplicateEntry is MySQL's ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// TicketRepo provides data access to the ticket table.  The table is
// expected to carry a unique key on (event_id, area, row, column).
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the provided database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// Insert stores a ticket and fills in its ID.  A duplicate seat yields
// ErrConflict.
func (r *TicketRepo) Insert(ctx context.Context, t *model.Ticket) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO ticket (register_id, event_id, area, `row`, `column`) VALUES (?, ?, ?, ?, ?)",
		t.RegisterID, t.EventID, t.Area, t.Row, t.Column,
	)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// PurchasedSeats lists every sold seat of an event ordered by area, row and
// column.  An event without sales yields an empty slice.
func (r *TicketRepo) PurchasedSeats(ctx context.Context, eventID int64) ([]model.PurchasedSeat, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT area, `row`, `column` FROM ticket WHERE event_id = ? ORDER BY area, `row`, `column`",
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := []model.PurchasedSeat{}
	for rows.Next() {
		var s model.PurchasedSeat
		if err := rows.Scan(&s.Area, &s.Row, &s.Column); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}
