package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/identity-service/docs"
	"github.com/99minutos/identity-service/internal/api/handler"
	"github.com/99minutos/identity-service/internal/api/middleware"
	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
	"github.com/99minutos/identity-service/internal/pkg/config"
)

// Dependencies is everything the router wires into routes.
type Dependencies struct {
	Config *config.Config
	Logger zerolog.Logger
	Auth   ports.AuthService
	Users  ports.UserService
	Tokens ports.TokenService
	// LongWindow is the shared long-window limiter; nil falls back to an
	// in-process one.
	LongWindow middleware.WindowAllower
	// Checks are the readiness probes, keyed by dependency name.
	Checks map[string]handler.Check
	// Registerer and Gatherer default to the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	rl := d.Config.RateLimit

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: strings.Split(d.Config.CORSOrigin, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.HeaderAPIKey},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "identity",
		Subsystem:  "http",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Operational routes (no auth, not throttled) ---
	health := handler.NewHealthHandler(d.Checks)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Throttled API ---
	longWindow := middleware.WindowLimit("long", rl.LongLimit, rl.LongTTL)
	if d.LongWindow != nil {
		longWindow = middleware.SharedWindowLimit("long", d.LongWindow, d.Logger)
	}
	api := e.Group("", middleware.WindowLimit("short", rl.ShortLimit, rl.ShortTTL), longWindow)

	accessToken := middleware.AccessToken(d.Tokens)
	authenticate := middleware.Authenticate(d.Tokens, d.Auth)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Users)
	auth := api.Group("/auth")
	auth.POST("/sign-in", authHandler.SignIn, middleware.Credentials(d.Auth))
	auth.POST("/sign-up", authHandler.SignUp)
	auth.POST("/refresh-token", authHandler.Refresh, middleware.RefreshToken(d.Tokens))
	auth.GET("/me", authHandler.Me, accessToken)
	auth.POST("/change-password", authHandler.ChangePassword, accessToken)
	auth.GET("/api-key", authHandler.APIKey, accessToken)
	auth.POST("/api-key/rotate", authHandler.RotateAPIKey, accessToken)
	auth.GET("/api-key/me", authHandler.APIKeyMe, middleware.APIKey(d.Auth))

	// --- User routes ---
	userHandler := handler.NewUserHandler(d.Users)
	adminOnly := middleware.Guard(middleware.Policy{Roles: []domain.Role{domain.RoleAdmin}})
	ownerOnly := middleware.Guard(middleware.Policy{
		Owner: &middleware.Ownership{Param: handler.UserParam, Resolve: userHandler.ResolveOwner},
	})

	users := api.Group("/users", authenticate)
	users.POST("", userHandler.Create, adminOnly)
	users.GET("", userHandler.List, adminOnly)
	users.GET("/:id", userHandler.Get, ownerOnly)
	users.PATCH("/:id", userHandler.Update, ownerOnly)
	users.DELETE("/:id", userHandler.Delete, ownerOnly)
	users.PATCH("/:id/role", userHandler.ChangeRole, adminOnly)

	return e
}
