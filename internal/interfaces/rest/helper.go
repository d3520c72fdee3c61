package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/lingo-server/internal/interfaces/rest/middleware"
	"go.uber.org/zap"
)

// access who may call a route
type access int

const (
	inherit  access = iota // route follows its group
	public                 // no token is read
	optional               // claims are available when a valid token is sent
	signedIn               // requests without a valid token are rejected
)

func (a access) String() string {
	switch a {
	case inherit:
		return "inherit"
	case public:
		return "public"
	case optional:
		return "optional"
	case signedIn:
		return "signed-in"
	}
	return fmt.Sprintf("access(%d)", int(a))
}

// guards middlewares enforcing each access level
type guards map[access][]echo.MiddlewareFunc

type endpoint struct {
	apiVersion  string
	logger      *zap.Logger // bound to the request trace ID for every route
	guards      guards
	middlewares []echo.MiddlewareFunc
	groups      []*apiGroup
}

type apiGroup struct {
	prefix string
	access access
	routes []*route
}

type route struct {
	method  string
	path    string
	handler echo.HandlerFunc
	access  access
}

var knownMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodHead:   true,
}

// createEndpoint mount def under its api version.
//
// Every route gets the trace logger and a fresh request scope, followed by the guard of its
// access level. Routes and groups left at inherit resolve to public.
func createEndpoint(app *echo.Echo, def *endpoint) error {
	prefix := def.apiVersion
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	base := []echo.MiddlewareFunc{middleware.SetTraceLogger(def.logger), middleware.RequestScope()}
	root := app.Group(prefix, append(base, def.middlewares...)...)

	for _, group := range def.groups {
		echoGroup := root.Group(group.prefix)
		for _, api := range group.routes {
			if !knownMethods[api.method] {
				return fmt.Errorf("createEndpoint: unknown method %s for %s%s", api.method, group.prefix, api.path)
			}
			level := api.access
			if level == inherit {
				level = group.access
			}
			if level == inherit {
				level = public
			}
			guard, ok := def.guards[level]
			if !ok && level != public {
				return fmt.Errorf("createEndpoint: no guard for %s access on %s%s", level, group.prefix, api.path)
			}
			echoGroup.Add(api.method, api.path, api.handler, guard...)
		}
	}
	return nil
}
