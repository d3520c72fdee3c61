package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/lingo-server/internal/interfaces/rest/middleware"
	"go.uber.org/zap/zaptest"
)

func deny(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}
}

func scoped(c echo.Context) error {
	if middleware.GetScope(c) == nil {
		return c.NoContent(http.StatusInternalServerError)
	}
	return c.NoContent(http.StatusOK)
}

func TestCreateEndpoint_AccessLevels(t *testing.T) {
	app := echo.New()
	err := createEndpoint(app, &endpoint{
		apiVersion: "v1",
		logger:     zaptest.NewLogger(t),
		guards:     guards{signedIn: {deny}},
		groups: []*apiGroup{
			{
				prefix: "/open",
				routes: []*route{{"GET", "/", scoped, inherit}},
			},
			{
				prefix: "/closed",
				access: signedIn,
				routes: []*route{
					{"GET", "/", scoped, inherit},
					{"GET", "/peek", scoped, public},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("createEndpoint() error = %v", err)
	}

	for path, want := range map[string]int{
		"/v1/open/":        http.StatusOK,
		"/v1/closed/":      http.StatusUnauthorized,
		"/v1/closed/peek":  http.StatusOK,
		"/v1/closed/other": http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Errorf("GET %s status = %d, want %d", path, rec.Code, want)
		}
	}
}

func TestCreateEndpoint_Misconfigured(t *testing.T) {
	tests := []struct {
		name  string
		route *route
	}{
		{"unknown method", &route{"BREW", "/", scoped, public}},
		{"missing guard", &route{"GET", "/", scoped, optional}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := createEndpoint(echo.New(), &endpoint{
				apiVersion: "/v1",
				logger:     zaptest.NewLogger(t),
				groups:     []*apiGroup{{prefix: "/x", routes: []*route{tt.route}}},
			})
			if err == nil {
				t.Error("expected an error")
			}
		})
	}
}
