package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
	q "github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/reservation"
	"github.com/iliyamo/event-ticketing/internal/seatkey"
)

// TicketStore persists issued tickets.  *repository.TicketRepo satisfies it.
type TicketStore interface {
	Insert(ctx context.Context, t *model.Ticket) error
	PurchasedSeats(ctx context.Context, eventID int64) ([]model.PurchasedSeat, error)
}

// EventPublisher announces completed purchases.  *service.Publisher
// satisfies it.
type EventPublisher interface {
	PublishTicketPurchased(ctx context.Context, event q.TicketPurchasedEvent) error
}

// ListingCache drops cached responses.  *middleware.ResponseCache
// satisfies it.
type ListingCache interface {
	Invalidate(ctx context.Context, path string) error
}

// PurchasedPath is the URL of an event's purchased-seat listing.
func PurchasedPath(eventID int64) string {
	return "/v1/tickets/events/" + strconv.FormatInt(eventID, 10) + "/purchased"
}

// TicketHandler exposes the seat selection flow over HTTP.  Every method
// assumes JWTAuth already ran, so the login id is in the context.
//
// Listing, when set, is cleared after every recorded purchase so the
// purchased-seat listing does not serve a stale copy.
type TicketHandler struct {
	Seats   *reservation.Manager
	Tickets TicketStore
	Events  EventPublisher
	Listing ListingCache
	Log     reservation.Logger
}

// NewTicketHandler panics if the manager or ticket store is nil.  events may
// be nil, in which case purchases are not announced.
func NewTicketHandler(seats *reservation.Manager, tickets TicketStore, events EventPublisher, logger reservation.Logger) *TicketHandler {
	if seats == nil || tickets == nil {
		panic("nil dependency passed to NewTicketHandler")
	}
	return &TicketHandler{Seats: seats, Tickets: tickets, Events: events, Log: logger}
}

type eventRequest struct {
	EventID int64 `json:"event_id"`
}

type seatRequest struct {
	EventID int64  `json:"event_id"`
	Area    string `json:"area"`
	Row     int    `json:"row"`
	Column  int    `json:"column"`
}

func (r seatRequest) seat() seatkey.Seat {
	return seatkey.Seat{EventID: r.EventID, Area: r.Area, Row: r.Row, Column: r.Column}
}

// statusFor maps a failure kind to an HTTP status.
func statusFor(k reservation.Kind) int {
	switch k {
	case reservation.KindNone, reservation.KindPartialCleanup:
		return http.StatusOK
	case reservation.KindValidation:
		return http.StatusBadRequest
	case reservation.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusConflict
	}
}

func reply(c echo.Context, ok bool, kind reservation.Kind, notify string, extra echo.Map) error {
	body := echo.Map{"status": ok, "notify": notify}
	if kind != reservation.KindNone {
		body["reason"] = kind
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(statusFor(kind), body)
}

func badRequest(c echo.Context, notify string) error {
	return reply(c, false, reservation.KindValidation, notify, nil)
}

// bindSeat decodes the request body and encodes the seat key.
func bindSeat(c echo.Context) (seatkey.Seat, string, bool) {
	var req seatRequest
	if err := c.Bind(&req); err != nil {
		return seatkey.Seat{}, "", false
	}
	seat := req.seat()
	key, err := seatkey.Encode(seat)
	if err != nil {
		return seatkey.Seat{}, "", false
	}
	return seat, key, true
}

// Check handles POST /v1/tickets/check.
func (h *TicketHandler) Check(c echo.Context) error {
	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	res := h.Seats.CheckDuplicate(c.Request().Context(), req.EventID, middleware.LoginID(c))
	return reply(c, !res.Duplicate && res.Reason == reservation.KindNone, res.Reason, res.Notify, nil)
}

// Lock handles POST /v1/tickets/lock.  On success expire_seconds tells the
// client how long the selection lives.
func (h *TicketHandler) Lock(c echo.Context) error {
	_, key, ok := bindSeat(c)
	if !ok {
		return badRequest(c, "invalid seat")
	}
	res := h.Seats.TryAcquire(c.Request().Context(), key, middleware.LoginID(c))
	if !res.Granted {
		return reply(c, false, res.Reason, res.Notify, nil)
	}
	return reply(c, true, res.Reason, res.Notify, echo.Map{
		"seat":           key,
		"expire_seconds": seconds(res.RemainingTTL),
	})
}

// Restore handles POST /v1/tickets/restore.  A client reloading the
// checkout page gets its selection and the remaining time back.
func (h *TicketHandler) Restore(c echo.Context) error {
	res := h.Seats.Restore(c.Request().Context(), middleware.LoginID(c))
	if !res.Found {
		return reply(c, false, res.Reason, res.Notify, nil)
	}
	s := res.Seat
	return reply(c, true, res.Reason, res.Notify, echo.Map{
		"seat": []interface{}{s.EventID, s.Area, s.Row, s.Column},
		"time": seconds(res.RemainingTTL),
	})
}

// Cancel handles POST /v1/tickets/cancel.
func (h *TicketHandler) Cancel(c echo.Context) error {
	_, key, ok := bindSeat(c)
	if !ok {
		return badRequest(c, "invalid seat")
	}
	res := h.Seats.Cancel(c.Request().Context(), key, middleware.LoginID(c))
	return reply(c, res.Status, res.Reason, res.Notify, echo.Map{
		"seat_lock_absent":  res.SeatLockAbsent,
		"user_index_absent": res.UserIndexAbsent,
	})
}

// Purchase handles POST /v1/tickets/purchase.  Once the ledger has the
// purchase the ticket row is written and the purchase announced; failures
// of either are logged and do not undo the purchase.
func (h *TicketHandler) Purchase(c echo.Context) error {
	seat, key, ok := bindSeat(c)
	if !ok {
		return badRequest(c, "invalid seat")
	}
	ctx := c.Request().Context()
	loginID := middleware.LoginID(c)

	res := h.Seats.Commit(ctx, seat.EventID, loginID, key)
	if !res.Recorded {
		return reply(c, false, res.Reason, res.Notify, nil)
	}

	now := time.Now().UTC()
	ticket := &model.Ticket{
		RegisterID: middleware.RegisterID(c),
		EventID:    seat.EventID,
		Area:       seat.Area,
		Row:        seat.Row,
		Column:     seat.Column,
		CreatedAt:  now,
	}
	if err := h.Tickets.Insert(ctx, ticket); err != nil {
		h.Log.Errorf("ticket: persisting %s for %s failed: %v", key, loginID, err)
	}
	if h.Listing != nil {
		if err := h.Listing.Invalidate(context.WithoutCancel(ctx), PurchasedPath(seat.EventID)); err != nil {
			h.Log.Warnf("ticket: clearing cached listing for event %d: %v", seat.EventID, err)
		}
	}
	if h.Events != nil {
		ev := q.TicketPurchasedEvent{
			EventID:     seat.EventID,
			LoginID:     loginID,
			RegisterID:  ticket.RegisterID,
			TicketID:    ticket.ID,
			Area:        seat.Area,
			Row:         seat.Row,
			Column:      seat.Column,
			PurchasedAt: now.Format(time.RFC3339),
		}
		if err := h.Events.PublishTicketPurchased(context.WithoutCancel(ctx), ev); err != nil {
			h.Log.Warnf("ticket: publishing purchase of %s failed: %v", key, err)
		}
	}
	extra := echo.Map{"recorded": true}
	if ticket.ID != 0 {
		extra["ticket_id"] = ticket.ID
	}
	return reply(c, res.Status, res.Reason, res.Notify, extra)
}

// Purchased handles GET /v1/tickets/events/:id/purchased.  Recorded
// purchases clear the cached copy, so the listing is only stale for
// purchases whose SQL insert failed.
func (h *TicketHandler) Purchased(c echo.Context) error {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || eventID <= 0 {
		return badRequest(c, "invalid event id")
	}
	ctx := c.Request().Context()
	seats, err := h.Tickets.PurchasedSeats(ctx, eventID)
	if err != nil {
		h.Log.Errorf("ticket: listing purchased seats for event %d: %v", eventID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": false, "notify": "database error"})
	}
	purchasers, err := h.Seats.Purchasers(ctx, eventID)
	if err != nil {
		h.Log.Errorf("ticket: listing purchasers for event %d: %v", eventID, err)
		return reply(c, false, reservation.KindStoreUnavailable, "service is busy, please try again", nil)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":          true,
		"event_id":        eventID,
		"seats":           seats,
		"purchaser_count": len(purchasers),
	})
}

// seconds rounds a remaining lease up so a client never sees 0 for a live
// selection.
func seconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
