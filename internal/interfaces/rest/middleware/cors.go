package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSOption options for CORS middleware
type CORSOption struct {
	AllowOrigins []string // empty allows none
}

// CORS answers preflight requests and allows credentialed requests from the configured origins.
// Cookies carry the session token, so a wildcard origin is never echoed back.
func CORS(option *CORSOption) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(option.AllowOrigins))
	for _, o := range option.AllowOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			header := c.Response().Header()
			header.Add(echo.HeaderVary, echo.HeaderOrigin)
			if origin == "" || !allowed[origin] {
				if c.Request().Method == http.MethodOptions && origin != "" {
					return c.NoContent(http.StatusForbidden)
				}
				return next(c)
			}

			header.Set(echo.HeaderAccessControlAllowOrigin, origin)
			header.Set(echo.HeaderAccessControlAllowCredentials, "true")
			if c.Request().Method == http.MethodOptions {
				header.Set(echo.HeaderAccessControlAllowMethods, "GET, POST, PUT, DELETE, OPTIONS")
				header.Set(echo.HeaderAccessControlAllowHeaders, "Origin, X-Requested-With, Content-Type, Accept, X-CSRF-Token, Authorization")
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}
