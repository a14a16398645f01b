package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fulfillment-api/internal/middleware"
	"github.com/noah-isme/fulfillment-api/internal/models"
	"github.com/noah-isme/fulfillment-api/internal/repository"
	"github.com/noah-isme/fulfillment-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth      *AuthHandler
	Customers *CustomerHandler
	Items     *ItemHandler
	Archives  *ArchivedItemHandler
	Orders    *OrderHandler
	Billing   *BillingHandler
	Metrics   *MetricsHandler
}

// RegisterRoutes mounts all API routes onto the engine. Entity routes are
// JWT-guarded; destructive operations additionally require the ADMIN role
// and are audit-logged.
func RegisterRoutes(r *gin.Engine, h Handlers, authSvc *service.AuthService, users *repository.UserRepository, metricsSvc *service.MetricsService) {
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group("/api/v1")

	// The signed token is the credential, so downloads skip the JWT guard.
	api.GET("/billing/exports/:token", h.Billing.Download)

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), h.Auth.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), h.Auth.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), h.Auth.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	protected.GET("/system/metrics", adminOnly, h.Metrics.Snapshot)

	customers := protected.Group("/customers")
	{
		customers.GET("", h.Customers.List)
		customers.POST("", middleware.Audit(users, models.AuditActionCreate, "customer"), h.Customers.Create)
		customers.GET("/:id", h.Customers.Get)
		customers.GET("/:id/billing-report", h.Billing.Report)
		customers.POST("/:id/billing-report/export-link", h.Billing.ExportLink)
		customers.PUT("/:id", middleware.Audit(users, models.AuditActionUpdate, "customer"), h.Customers.Update)
		customers.PATCH("/:id", middleware.Audit(users, models.AuditActionUpdate, "customer"), h.Customers.Patch)
		customers.DELETE("/:id", adminOnly, middleware.Audit(users, models.AuditActionDelete, "customer"), h.Customers.Delete)
	}

	items := protected.Group("/items")
	{
		items.GET("", h.Items.List)
		items.POST("", middleware.Audit(users, models.AuditActionCreate, "item"), h.Items.Create)
		items.GET("/:id", h.Items.Get)
		items.PUT("/:id", middleware.Audit(users, models.AuditActionUpdate, "item"), h.Items.Update)
		items.PATCH("/:id", middleware.Audit(users, models.AuditActionUpdate, "item"), h.Items.Patch)
		items.DELETE("/:id", adminOnly, middleware.Audit(users, models.AuditActionDelete, "item"), h.Items.Delete)
	}

	archives := protected.Group("/archived-items")
	{
		archives.GET("", h.Archives.List)
		archives.POST("", middleware.Audit(users, models.AuditActionCreate, "archived_item"), h.Archives.Create)
		archives.GET("/:id", h.Archives.Get)
		archives.PUT("/:id", middleware.Audit(users, models.AuditActionUpdate, "archived_item"), h.Archives.Update)
		archives.PATCH("/:id", middleware.Audit(users, models.AuditActionUpdate, "archived_item"), h.Archives.Patch)
		archives.DELETE("/:id", adminOnly, middleware.Audit(users, models.AuditActionDelete, "archived_item"), h.Archives.Delete)
	}

	orders := protected.Group("/orders")
	{
		orders.GET("", h.Orders.List)
		orders.POST("", middleware.Audit(users, models.AuditActionCreate, "order"), h.Orders.Create)
		orders.GET("/:id", h.Orders.Get)
		orders.PUT("/:id", middleware.Audit(users, models.AuditActionUpdate, "order"), h.Orders.Update)
		orders.PATCH("/:id", middleware.Audit(users, models.AuditActionUpdate, "order"), h.Orders.Patch)
		orders.DELETE("/:id", adminOnly, middleware.Audit(users, models.AuditActionDelete, "order"), h.Orders.Delete)
	}
}
