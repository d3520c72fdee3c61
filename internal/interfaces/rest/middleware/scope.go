package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/pot-code/lingo-server/internal/course"
)

const scopeKey = "course.scope"

// RequestScope attach a fresh course.Scope to every request
func RequestScope() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(scopeKey, course.NewScope())
			return next(c)
		}
	}
}

// GetScope scope of the request, nil when RequestScope is not installed
func GetScope(c echo.Context) *course.Scope {
	if v, ok := c.Get(scopeKey).(*course.Scope); ok {
		return v
	}
	return nil
}
