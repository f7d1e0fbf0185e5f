package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/99minutos/bank-teller/internal/api/handler"
	"github.com/99minutos/bank-teller/internal/api/middleware"
	"github.com/99minutos/bank-teller/internal/core/domain"
	"github.com/99minutos/bank-teller/internal/core/ports"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Teller   ports.Teller
	Interest ports.InterestService
	Checks   map[string]handler.Check
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("teller"))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Teller)
	accountHandler := handler.NewAccountHandler(deps.Teller, deps.Interest)
	authMiddleware := middleware.Auth(deps.Teller)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, authMiddleware)

	// --- Teller routes ---
	v1 := e.Group("/v1", authMiddleware)
	v1.GET("/me", authHandler.Me)
	v1.POST("/accounts/:id/deposit", accountHandler.Deposit)
	v1.POST("/accounts/:id/withdraw", accountHandler.Withdraw)
	v1.POST("/transfers", accountHandler.Transfer)
	v1.POST("/accounts/:id/interest", accountHandler.ApplyInterest, middleware.RBAC(domain.RoleAdmin))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
