package model

import "time"

// Ticket is an issued ticket persisted after a successful purchase.  A
// ticket belongs to a registered user (RegisterID) and names exactly one
// seat of one event.
//
// Fields:
//
//	ID         – primary key identifier.
//	RegisterID – register.id of the purchasing user.
//	EventID    – event the seat belongs to.
//	Area       – seating area name as shown to customers.
//	Row        – row number within the area, starting at 1.
//	Column     – seat number within the row, starting at 1.
//	CreatedAt  – when the ticket was issued.
type Ticket struct {
	ID         uint64    // ticket.id
	RegisterID uint64    // ticket.register_id
	EventID    int64     // ticket.event_id
	Area       string    // ticket.area
	Row        int       // ticket.row
	Column     int       // ticket.column
	CreatedAt  time.Time // ticket.created_at
}

// PurchasedSeat is one sold seat of an event, as listed to customers so the
// seat map can grey it out.
type PurchasedSeat struct {
	Area   string `json:"area"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
}
