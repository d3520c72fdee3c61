package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// AbortRequestOption ...
type AbortRequestOption struct {
	Timeout time.Duration
	// Skipper defines a function to skip middleware.
	Skipper middleware.Skipper
}

// AbortRequest cancel the request context after Timeout, store calls observe the cancellation
func AbortRequest(options ...*AbortRequestOption) echo.MiddlewareFunc {
	cfg := &AbortRequestOption{
		Timeout: 30 * time.Second,
		Skipper: middleware.DefaultSkipper,
	}
	if len(options) > 0 {
		option := options[0]
		if option.Timeout > 0 {
			cfg.Timeout = option.Timeout
		}
		if option.Skipper != nil {
			cfg.Skipper = option.Skipper
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}
			r := c.Request()
			ctx, cancel := context.WithTimeout(r.Context(), cfg.Timeout)
			defer cancel()
			c.SetRequest(r.WithContext(ctx))
			return next(c)
		}
	}
}
