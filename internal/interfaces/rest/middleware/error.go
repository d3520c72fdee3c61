package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorHandlingOption options for error handling
type ErrorHandlingOption struct {
	Handler func(c echo.Context, traceID string, err error)
	Logger  *zap.Logger
}

// ErrorHandling handle errors and panics returned from controller
// **DO NOT return error anymore**
func ErrorHandling(options ...*ErrorHandlingOption) echo.MiddlewareFunc {
	custom := &ErrorHandlingOption{
		Handler: func(c echo.Context, traceID string, err error) {
			c.String(http.StatusInternalServerError, err.Error())
		},
	}
	if len(options) > 0 {
		option := options[0]
		if option.Handler != nil {
			custom.Handler = option.Handler
		}
		if option.Logger != nil {
			custom.Logger = option.Logger
		}
	}
	handler := custom.Handler
	logger := custom.Logger
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			traceID := c.Response().Header().Get(echo.HeaderXRequestID)
			defer func() {
				if any := recover(); any != nil {
					err, ok := any.(error)
					if !ok {
						err = fmt.Errorf("%v", any)
					}
					if logger != nil {
						logger.Error(err.Error(),
							zap.String("url.path", c.Request().RequestURI),
							zap.String("client.address", c.Request().RemoteAddr),
							zap.String("http.request.method", c.Request().Method),
							zap.Int64("http.request.body.bytes", c.Request().ContentLength),
							zap.Strings("route.params.name", c.ParamNames()),
							zap.Strings("route.params.value", c.ParamValues()),
							zap.String("trace.id", traceID),
						)
					}
					handler(c, traceID, err)
				}
			}()
			if err := next(c); err != nil {
				if v, ok := err.(*echo.HTTPError); ok {
					return c.JSON(v.Code, map[string]interface{}{
						"code":  v.Code,
						"title": http.StatusText(v.Code),
					})
				}
				handler(c, traceID, err)
			}
			return nil
		}
	}
}
