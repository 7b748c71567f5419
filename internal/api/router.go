package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/andamios/andamios-api/docs"
	"github.com/andamios/andamios-api/internal/api/handler"
	"github.com/andamios/andamios-api/internal/api/middleware"
	"github.com/andamios/andamios-api/internal/core/ports"
)

// Deps are the services and settings the router is built from.
type Deps struct {
	Log   zerolog.Logger
	Auth  ports.AuthService
	Users ports.UserService
	Items ports.ItemService

	// Health lists the dependencies checked by /health/ready.
	Health map[string]handler.Pinger

	CORSOrigins    []string
	RequestTimeout time.Duration

	// Registerer and Gatherer back the HTTP metrics and /metrics. They
	// default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     d.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
		AllowCredentials: true,
	}))
	if d.RequestTimeout > 0 {
		e.Use(echomiddleware.ContextTimeoutWithConfig(echomiddleware.ContextTimeoutConfig{
			Timeout: d.RequestTimeout,
		}))
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "andamios",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Service endpoints (no auth required) ---
	health := handler.NewHealthHandler(d.Health, d.Log)
	e.GET("/", health.Root)
	e.GET("/health", health.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", health.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	requireAuth := middleware.Auth(d.Auth)
	v1 := e.Group("/api/v1")

	// --- Auth routes ---
	auth := handler.NewAuthHandler(d.Auth)
	v1.POST("/auth/register", auth.Register)
	v1.POST("/auth/login", auth.Login)
	v1.POST("/auth/logout", auth.Logout, requireAuth)
	v1.GET("/auth/me", auth.Me, requireAuth)

	// --- Protected resources ---
	users := handler.NewUserHandler(d.Users)
	ug := v1.Group("/users", requireAuth)
	ug.GET("", users.List)
	ug.POST("", users.Create)
	ug.GET("/:id", users.Get)
	ug.PUT("/:id", users.Update)
	ug.DELETE("/:id", users.Delete)

	items := handler.NewItemHandler(d.Items)
	ig := v1.Group("/items", requireAuth)
	ig.GET("", items.List)
	ig.POST("", items.Create)
	ig.GET("/:id", items.Get)
	ig.PUT("/:id", items.Update)
	ig.DELETE("/:id", items.Delete)

	return e
}

// requestLogger writes one access log line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = log.Error()
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
