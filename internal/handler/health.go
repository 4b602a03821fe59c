package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Pinger is anything that can report its liveness.  *sql.DB qualifies;
// kvstore.Store is wrapped with PingFunc.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Health returns a handler for load balancers.  It reports 200 "ok" only if
// every dependency answers.
func Health(deps map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		for name, p := range deps {
			if err := p.PingContext(ctx); err != nil {
				c.Logger().Warnf("health: %s unreachable: %v", name, err)
				return c.String(http.StatusServiceUnavailable, name+" unavailable")
			}
		}
		return c.String(http.StatusOK, "ok")
	}
}
