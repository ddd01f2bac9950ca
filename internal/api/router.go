package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/fieldops/contractor-api/docs"
	"github.com/fieldops/contractor-api/internal/api/handler"
	"github.com/fieldops/contractor-api/internal/api/middleware"
	"github.com/fieldops/contractor-api/internal/core/domain"
	"github.com/fieldops/contractor-api/internal/core/ports"
	"github.com/fieldops/contractor-api/internal/infrastructure/http/handlers"
)

// RouterConfig carries the wired dependencies the HTTP surface needs.
// Services are built in main so the dispatcher and repositories share a
// single store client per process.
type RouterConfig struct {
	DB         *mongo.Database
	Redis      *redis.Client
	JWTSecret  string
	Invites    ports.InviteService
	Identities ports.IdentityService
	Logger     zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("contractor"))

	authMiddleware := middleware.Auth(cfg.JWTSecret)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(cfg.Identities)
	e.POST("/auth/signup", authHandler.Signup)
	e.POST("/auth/login", authHandler.Login)

	// --- Invite routes (owner/admin only) ---
	inviteHandler := handler.NewInviteHandler(cfg.Invites)
	invites := e.Group("/v1/invites", authMiddleware, middleware.RBAC(domain.RoleOwner, domain.RoleAdmin))
	invites.POST("", inviteHandler.Create)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(cfg.DB, cfg.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
