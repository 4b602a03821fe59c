package database

import (
	"context"
	"database/sql"
	"fmt"
)

// ticketTable is the only table this service writes.  The unique key makes
// a second sale of one seat fail with ER_DUP_ENTRY.
const ticketTable = "CREATE TABLE IF NOT EXISTS ticket (" +
	"id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY, " +
	"register_id BIGINT UNSIGNED NOT NULL, " +
	"event_id BIGINT NOT NULL, " +
	"area VARCHAR(64) NOT NULL, " +
	"`row` INT NOT NULL, " +
	"`column` INT NOT NULL, " +
	"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP, " +
	"UNIQUE KEY uq_ticket_seat (event_id, area, `row`, `column`), " +
	"KEY idx_ticket_register (register_id)" +
	") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"

// EnsureSchema creates the ticket table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, ticketTable); err != nil {
		return fmt.Errorf("create ticket table: %w", err)
	}
	return nil
}
