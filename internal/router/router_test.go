package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/event-ticketing/internal/handler"
)

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func TestRoutesRegistered(t *testing.T) {
	e := echo.New()
	RegisterRoutes(e, func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	RegisterTickets(e, &handler.TicketHandler{}, "secret", passthrough, passthrough)

	want := map[string]bool{
		"GET /healthz":                         false,
		"POST /v1/tickets/check":               false,
		"POST /v1/tickets/lock":                false,
		"POST /v1/tickets/restore":             false,
		"POST /v1/tickets/cancel":              false,
		"POST /v1/tickets/purchase":            false,
		"GET /v1/tickets/events/:id/purchased": false,
	}
	for _, r := range e.Routes() {
		key := r.Method + " " + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for route, seen := range want {
		assert.True(t, seen, route)
	}
}

func TestTicketRoutesRequireToken(t *testing.T) {
	e := echo.New()
	RegisterTickets(e, &handler.TicketHandler{}, "secret", passthrough, passthrough)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/tickets/lock", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
