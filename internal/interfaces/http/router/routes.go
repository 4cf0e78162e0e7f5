package router

import (
	"github.com/gin-gonic/gin"
	accessapp "github.com/society/backend/internal/application/access"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/interfaces/http/handler"
	"github.com/society/backend/internal/interfaces/http/middleware"
)

// Handlers are the HTTP handlers of the console API
type Handlers struct {
	Auth        *handler.AuthHandler
	Apartments  *handler.ApartmentHandler
	Maintenance *handler.MaintenanceHandler
	Reports     *handler.ReportHandler
	Bills       *handler.BillHandler
	Roles       *handler.RoleHandler
	System      *handler.SystemHandler
}

// APIConfig holds the middleware the console API is mounted with
type APIConfig struct {
	JWT         middleware.JWTMiddlewareConfig
	Permissions middleware.PermissionResolver
	Guard       *accessapp.Guard
	// LoginLimiter throttles POST /auth/login per client IP; nil disables it
	LoginLimiter *middleware.RateLimiter
	Profiling    bool
}

// ConsoleAPI builds the route groups of the console API. Every route but
// login, refresh and health runs behind JWT authentication and permission
// resolution; capability gates are per route.
func ConsoleAPI(r *Router, h Handlers, cfg APIConfig) {
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(cfg.JWT),
		middleware.TracingAttributeInjector(),
		middleware.Profiling(cfg.Profiling),
		middleware.ResolvePermissions(cfg.Permissions, cfg.JWT.Logger),
	)

	require := func(c access.Capability) gin.HandlerFunc {
		return middleware.RequireCapability(cfg.Guard, c)
	}

	login := []gin.HandlerFunc{h.Auth.Login}
	if cfg.LoginLimiter != nil {
		login = append([]gin.HandlerFunc{middleware.RateLimit(cfg.LoginLimiter)}, login...)
	}
	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", login...)
	authRoutes.POST("/refresh", h.Auth.RefreshToken)
	authRoutes.POST("/logout", h.Auth.Logout)

	root := NewDomainGroup("console", "")
	root.GET("/health", h.System.Health)
	root.GET("/permissions", h.Auth.Permissions)

	root.GET("/apartment-types", h.Apartments.ListTypes)
	root.POST("/apartment-types", require(access.CapCompany), h.Apartments.CreateType)
	root.GET("/apartments", h.Apartments.ListApartments)
	root.POST("/apartments", require(access.CapCompany), h.Apartments.CreateApartment)

	root.GET("/maintenance-setting", require(access.CapBilling), h.Maintenance.ListSchedules)
	root.POST("/maintenance-setting/:cost_type", require(access.CapBilling), h.Maintenance.SaveSchedule)
	root.PUT("/maintenance-setting/:cost_type/activate", require(access.CapBilling), h.Maintenance.ActivateSchedule)

	root.GET("/table/financial/report/:start/:end/:type", require(access.CapBilling), h.Reports.ReportRows)
	root.GET("/billing/summary/:start/:end/:type", require(access.CapBilling), h.Reports.Summary)

	// resource scope on the bill's apartment is checked after the record loads
	bills := root.Group("bills", "/bills/:id")
	bills.Use(require(access.CapBilling))
	bills.POST("/payments", h.Bills.RecordPayment)
	bills.GET("/payments", h.Bills.Ledger)
	bills.POST("/statement", h.Bills.Statement)

	root.PUT("/roles/:id/grants", require(access.CapSuperAdmin), h.Roles.ReplaceGrants)

	r.Register(authRoutes).Register(root)
}
