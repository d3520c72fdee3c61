package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	app := echo.New()
	app.Use(Logging(zap.New(core), &LoggingConfig{
		Skipper: func(c echo.Context) bool { return c.Path() == "/skip" },
		Identify: func(c echo.Context) string {
			return c.Request().Header.Get("X-Learner")
		},
	}))
	app.GET("/ok/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	app.GET("/missing", func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound) })
	app.GET("/broken", func(c echo.Context) error { return c.NoContent(http.StatusInternalServerError) })
	app.GET("/skip", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	tests := []struct {
		path  string
		route string
		level zapcore.Level
	}{
		{"/ok/7", "/ok/:id", zapcore.DebugLevel},
		{"/missing", "/missing", zapcore.WarnLevel},
		{"/broken", "/broken", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		req.Header.Set("X-Learner", "a")
		app.ServeHTTP(httptest.NewRecorder(), req)

		entries := logs.TakeAll()
		if len(entries) != 1 {
			t.Fatalf("GET %s logged %d entries, want 1", tt.path, len(entries))
		}
		if entries[0].Level != tt.level {
			t.Errorf("GET %s level = %s, want %s", tt.path, entries[0].Level, tt.level)
		}
		fields := entries[0].ContextMap()
		if fields["user.id"] != "a" {
			t.Errorf("GET %s user.id = %v, want a", tt.path, fields["user.id"])
		}
		if fields["http.route"] != tt.route {
			t.Errorf("GET %s http.route = %v, want %s", tt.path, fields["http.route"], tt.route)
		}
	}

	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/skip", nil))
	if n := logs.Len(); n != 0 {
		t.Errorf("skipped route logged %d entries", n)
	}
}
