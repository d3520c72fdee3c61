package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pot-code/lingo-server/internal/infrastructure/logging"
	"go.uber.org/zap"
)

type LoggingConfig struct {
	// Skipper defines a function to skip middleware.
	Skipper middleware.Skipper
	// Identify returns the learner behind the request, empty for anonymous requests
	Identify func(c echo.Context) string
}

// Logging log one entry per request, server errors at error level and client errors at warn
func Logging(base *zap.Logger, options ...*LoggingConfig) echo.MiddlewareFunc {
	cfg := &LoggingConfig{
		Skipper: middleware.DefaultSkipper,
	}
	if len(options) > 0 {
		option := options[0]
		if option.Skipper != nil {
			cfg.Skipper = option.Skipper
		}
		cfg.Identify = option.Identify
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			req := c.Request()
			fields := []zap.Field{
				zap.String("trace.id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("http.request.method", req.Method),
				zap.String("url.path", req.URL.Path),
				zap.String("http.route", c.Path()),
				zap.String("client.address", c.RealIP()),
				zap.Int64("http.request.body.byte", req.ContentLength),
				zap.Duration("http.response.latency", time.Since(start)),
			}
			if names := c.ParamNames(); len(names) > 0 {
				fields = append(fields,
					zap.Strings("route.params.name", names),
					zap.Strings("route.params.value", c.ParamValues()),
				)
			}
			if cfg.Identify != nil {
				if id := cfg.Identify(c); id != "" {
					fields = append(fields, zap.String("user.id", id))
				}
			}

			code := c.Response().Status
			if err != nil {
				fields = append(fields, zap.Error(err))
				if he, ok := err.(*echo.HTTPError); ok {
					code = he.Code
				}
			}
			fields = append(fields, zap.Int("http.response.status_code", code))
			switch {
			case code >= http.StatusInternalServerError:
				base.Error(http.StatusText(code), fields...)
			case code >= http.StatusBadRequest:
				base.Warn(http.StatusText(code), fields...)
			default:
				base.Debug(http.StatusText(code), fields...)
			}
			return err
		}
	}
}

// SetTraceLogger set logger binding with trace ID into context
func SetTraceLogger(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			logger := base.With(zap.String("trace.id", c.Response().Header().Get(echo.HeaderXRequestID)))
			nr := r.WithContext(logging.SetLoggerInContext(r.Context(), logger))
			c.SetRequest(nr)
			return next(c)
		}
	}
}
