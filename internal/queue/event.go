// Package queue defines message payloads exchanged over the message broker.
package queue

// TicketPurchasedEvent is published when a purchase is committed.  It
// carries enough information for downstream consumers to log, notify or
// trigger analytics without querying the primary database.
type TicketPurchasedEvent struct {
	EventID     int64  `json:"event_id"`
	LoginID     string `json:"login_id"`
	RegisterID  uint64 `json:"register_id"`
	TicketID    uint64 `json:"ticket_id,omitempty"`
	Area        string `json:"area"`
	Row         int    `json:"row"`
	Column      int    `json:"column"`
	PurchasedAt string `json:"purchased_at"`
}
