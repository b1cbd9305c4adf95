package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/buildhive/buildhive/internal/app"
	iauth "github.com/buildhive/buildhive/internal/auth"
	"github.com/buildhive/buildhive/internal/handlers"
	"github.com/buildhive/buildhive/internal/middleware"
	"github.com/buildhive/buildhive/internal/rbac"
	"github.com/buildhive/buildhive/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, engine *rbac.Engine, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if engine == nil {
		return nil, fmt.Errorf("decision engine must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	r.NoRoute(middleware.NotFoundHandler)

	// Health endpoint (public)
	r.GET("/health", handlers.Health())

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	rbacSvc, err := services.NewRBACService(db, engine.Cache(), audit)
	if err != nil {
		return nil, err
	}
	tenantSvc, err := services.NewTenantService(db, audit)
	if err != nil {
		return nil, err
	}
	projectSvc, err := services.NewProjectService(db, audit)
	if err != nil {
		return nil, err
	}

	authHandler, err := handlers.NewAuthHandler(db, jwt)
	if err != nil {
		return nil, err
	}
	roleHandler, err := handlers.NewRoleHandler(rbacSvc, engine)
	if err != nil {
		return nil, err
	}
	tenantHandler, err := handlers.NewTenantHandler(tenantSvc)
	if err != nil {
		return nil, err
	}
	projectHandler, err := handlers.NewProjectHandler(projectSvc)
	if err != nil {
		return nil, err
	}
	auditHandler, err := handlers.NewAuditHandler(audit)
	if err != nil {
		return nil, err
	}

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes run with a resolved tenant context.
	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))
	api.Use(middleware.TenantContext())

	api.GET("/me/permissions", middleware.RequireTenant(), roleHandler.MyPermissions)

	// Roles
	roles := api.Group("/roles")
	roles.Use(middleware.RequireTenant())
	{
		roles.GET("", middleware.RequirePermission(engine, "roles:read"), roleHandler.List)
		roles.GET("/:id", middleware.RequirePermission(engine, "roles:read"), roleHandler.Get)
		roles.POST("", middleware.RequirePermission(engine, "roles:manage"), roleHandler.Create)
		roles.PATCH("/:id", middleware.RequirePermission(engine, "roles:manage"), roleHandler.Update)
		roles.DELETE("/:id", middleware.RequirePermission(engine, "roles:manage"), roleHandler.Delete)
		roles.POST("/:id/assignments", middleware.RequirePermission(engine, "roles:manage"), roleHandler.Assign)
		roles.DELETE("/:id/assignments/:userId", middleware.RequirePermission(engine, "roles:manage"), roleHandler.Revoke)
	}
	api.GET("/users/:id/roles", middleware.RequireTenant(), middleware.RequirePermission(engine, "roles:read"), roleHandler.UserRoles)

	// Tenants (provisioning is cross-tenant, super admin territory)
	tenants := api.Group("/tenants")
	{
		tenants.GET("", middleware.RequirePermission(engine, "tenants:manage"), tenantHandler.List)
		tenants.GET("/:id", middleware.RequirePermission(engine, "tenants:manage"), tenantHandler.Get)
		tenants.POST("", middleware.RequirePermission(engine, "tenants:manage"), tenantHandler.Create)
	}

	// Audit trail
	api.GET("/audit", middleware.RequireTenant(), middleware.RequirePermission(engine, "audit:read"), auditHandler.List)

	// Projects; :id routes carry resource context so managers, members and
	// owners pass the gate without an explicit role grant.
	projects := api.Group("/projects")
	projects.Use(middleware.RequireTenant())
	{
		projects.GET("", middleware.RequirePermission(engine, "projects:read"), projectHandler.List)
		projects.POST("", middleware.RequirePermission(engine, "projects:write"), projectHandler.Create)
		projects.GET("/:id", middleware.RequirePermission(engine, "projects:read", handlers.ProjectContext()), projectHandler.Get)
		projects.POST("/:id/members", middleware.RequirePermission(engine, "projects:write", handlers.ProjectContext()), projectHandler.AddMember)
		projects.DELETE("/:id/members/:userId", middleware.RequirePermission(engine, "projects:write", handlers.ProjectContext()), projectHandler.RemoveMember)
	}

	return r, nil
}
