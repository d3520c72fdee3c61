package rest

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	"github.com/pot-code/lingo-server/internal/course"
	infra "github.com/pot-code/lingo-server/internal/infrastructure"
	"github.com/pot-code/lingo-server/internal/infrastructure/auth"
	"github.com/pot-code/lingo-server/internal/infrastructure/driver"
	"github.com/pot-code/lingo-server/internal/infrastructure/validate"
	"github.com/pot-code/lingo-server/internal/interfaces/rest/handler"
	"github.com/pot-code/lingo-server/internal/interfaces/rest/middleware"
	"github.com/pot-code/lingo-server/internal/learner"
	"github.com/pot-code/lingo-server/internal/quiz"
	"go.elastic.co/apm/module/apmechov4"
	"go.uber.org/zap"
)

// Serve create http transport server and block until it stops
func Serve(
	conn driver.ITransactionalDB,
	rdb driver.KeyValueDB,
	option *infra.AppConfig,
	LearnerUseCase learner.LearnerUseCase,
	CourseUseCase course.CourseUseCase,
	logger *zap.Logger,
) error {
	app, err := NewServer(conn, rdb, option, LearnerUseCase, CourseUseCase, logger)
	if err != nil {
		return err
	}
	printRoutes(app, logger)
	return app.Start(fmt.Sprintf("%s:%d", option.Host, option.Port))
}

// NewServer wire middlewares and routes
func NewServer(
	conn driver.ITransactionalDB,
	rdb driver.KeyValueDB,
	option *infra.AppConfig,
	LearnerUseCase learner.LearnerUseCase,
	CourseUseCase course.CourseUseCase,
	logger *zap.Logger,
) (*echo.Echo, error) {
	policy, err := quiz.ParseReviewPolicy(option.Quiz.ReviewPolicy)
	if err != nil {
		return nil, err
	}

	var (
		app       = echo.New()
		validator = validate.NewValidator()
		websocket = infra.NewWebsocket(option.AllowOrigins)
		jwtUtil   = auth.NewJWTUtil(option.Security.JWTMethod,
			option.Security.JWTSecret,
			option.Security.TokenName,
			option.SessionTimeout)
		blacklist = func(ctx context.Context, token string) (bool, error) {
			return rdb.Exists(ctx, token)
		}
		jwtMiddleware = middleware.VerifyToken(jwtUtil, &middleware.ValidateTokenOption{
			InBlackList: blacklist,
		})
		optionalJWTMiddleware = middleware.VerifyToken(jwtUtil, &middleware.ValidateTokenOption{
			InBlackList: blacklist,
			Optional:    true,
		})
		refreshMiddleware = middleware.RefreshToken(jwtUtil, &middleware.RefreshTokenOption{
			Threshold: option.SessionRefresh,
		})
	)
	app.HideBanner = true

	registerLivenessProbe(app, conn, rdb)
	if option.Env == infra.EnvDevelopment {
		registerProfileEndpoints(app)

		app.Use(middleware.Logging(logger, &middleware.LoggingConfig{
			Skipper: func(e echo.Context) bool {
				return strings.HasPrefix(e.Request().RequestURI, "/healthz")
			},
			Identify: func(c echo.Context) string {
				if claims := jwtUtil.GetContextToken(c); claims != nil {
					return claims.UID
				}
				return ""
			},
		}))
	}
	app.Use(echo_middleware.RequestID())
	app.Use(middleware.ErrorHandling(
		&middleware.ErrorHandlingOption{
			Handler: func(c echo.Context, traceID string, err error) {
				c.JSON(http.StatusInternalServerError,
					handler.NewRESTStandardError(http.StatusInternalServerError, err.Error()).SetTraceID(traceID),
				)
				logger.Error(err.Error(), zap.String("trace.id", traceID))
			},
			Logger: logger,
		},
	))
	app.Use(echo_middleware.Secure())
	if option.DevOP.APM {
		app.Use(apmechov4.Middleware())
	}
	app.Use(middleware.CORS(&middleware.CORSOption{AllowOrigins: option.AllowOrigins}))
	app.Use(middleware.AbortRequest(&middleware.AbortRequestOption{
		Timeout: option.RequestTimeout,
		// quiz sessions outlive a request
		Skipper: func(c echo.Context) bool {
			return strings.Contains(c.Request().URL.Path, "/ws/")
		},
	}))

	var (
		LearnerHandler = handler.NewLearnerHandler(jwtUtil, rdb, LearnerUseCase, validator)
		CourseHandler  = handler.NewCourseHandler(CourseUseCase, jwtUtil, validator)
		QuizHandler    = handler.NewQuizHandler(CourseUseCase, jwtUtil, policy)
	)

	err = createEndpoint(app,
		&endpoint{
			apiVersion: "api/v1",
			logger:     logger,
			guards: guards{
				optional: {optionalJWTMiddleware, refreshMiddleware},
				signedIn: {jwtMiddleware, refreshMiddleware},
			},
			groups: []*apiGroup{
				{
					prefix: "/learner",
					access: public,
					routes: []*route{
						{"POST", "/sign-in", LearnerHandler.HandleSignIn, inherit},
						{"PUT", "/sign-out", LearnerHandler.HandleSignOut, inherit},
						{"POST", "/sign-up", LearnerHandler.HandleSignUp, inherit},
						{"GET", "/exists", LearnerHandler.HandleLearnerExists, inherit},
					},
				},
				{
					prefix: "/course",
					access: optional,
					routes: []*route{
						{"GET", "/", CourseHandler.HandleGetCourses, inherit},
					},
				},
				{
					prefix: "/progress",
					access: optional,
					routes: []*route{
						{"GET", "/", CourseHandler.HandleGetProgress, inherit},
						{"PUT", "/course", CourseHandler.HandleSelectCourse, signedIn},
					},
				},
				{
					prefix: "/learn",
					access: optional,
					routes: []*route{
						{"GET", "/", CourseHandler.HandleGetLearn, inherit},
					},
				},
				{
					prefix: "/lesson",
					access: optional,
					routes: []*route{
						{"GET", "/:id", CourseHandler.HandleGetLesson, inherit},
					},
				},
				{
					prefix: "/ws",
					access: signedIn,
					routes: []*route{
						{"GET", "/quiz/:id", websocket.WithHeartbeat(QuizHandler.HandleQuiz), inherit},
					},
				},
			},
		})
	if err != nil {
		return nil, err
	}
	return app, nil
}

func printRoutes(app *echo.Echo, logger *zap.Logger) {
	for _, route := range app.Routes() {
		if !strings.HasPrefix(route.Name, "github.com/labstack/echo") {
			logger.Info("Registered route", zap.String("method", route.Method), zap.String("path", route.Path))
		}
	}
}

func registerLivenessProbe(app *echo.Echo, db driver.ITransactionalDB, rdb driver.KeyValueDB) {
	app.GET("/healthz", func(c echo.Context) error {
		if db.Ping() == nil && rdb.Ping() == nil {
			return c.NoContent(http.StatusOK)
		}
		return c.NoContent(http.StatusServiceUnavailable)
	})
}

func registerProfileEndpoints(app *echo.Echo) {
	expvarHandler := expvar.Handler()
	app.GET("/debug/vars", func(c echo.Context) error {
		expvarHandler.ServeHTTP(c.Response().Writer, c.Request())
		return nil
	})
	app.GET("/debug/pprof/", func(c echo.Context) error {
		pprof.Index(c.Response().Writer, c.Request())
		return nil
	})
	app.GET("/debug/pprof/:name", func(c echo.Context) error {
		switch c.Param("name") {
		case "cmdline":
			pprof.Cmdline(c.Response().Writer, c.Request())
		case "profile":
			pprof.Profile(c.Response().Writer, c.Request())
		case "symbol":
			pprof.Symbol(c.Response().Writer, c.Request())
		case "trace":
			pprof.Trace(c.Response().Writer, c.Request())
		default:
			pprof.Handler(c.Param("name")).ServeHTTP(c.Response().Writer, c.Request())
		}
		return nil
	})
}
