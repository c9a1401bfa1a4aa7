package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/freightdesk-api/internal/handler"
	"github.com/noah-isme/freightdesk-api/internal/middleware"
	"github.com/noah-isme/freightdesk-api/internal/models"
	"github.com/noah-isme/freightdesk-api/internal/service"
	"github.com/noah-isme/freightdesk-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/freightdesk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/freightdesk-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Auth           *handler.AuthHandler
	Users          *handler.UserHandler
	Clients        *handler.ClientHandler
	Categories     *handler.CategoryHandler
	ContainerSizes *handler.ContainerSizeHandler
	TruckSizes     *handler.TruckSizeHandler
	Quotations     *handler.QuotationHandler
	RFPs           *handler.RFPHandler
	Approvals      *handler.ApprovalHandler
	Exports        *handler.ExportHandler
	Metrics        *handler.MetricsHandler
}

// Options configures middleware and route exposure.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	LoginLimit     int64
	LoginPeriod    time.Duration
	Logger         *zap.Logger
	Tokens         middleware.TokenValidator
	Audit          middleware.AuditWriter
	Metrics        *service.MetricsService
}

// New builds the gin engine with every route registered.
func New(opts Options, h Handlers) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	prefix := "/" + strings.Trim(opts.APIPrefix, "/")
	if prefix == "/" {
		prefix = "/api"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.Metrics != nil {
		r.GET("/ready", h.Metrics.Ready)
		r.GET("/metrics", h.Metrics.Prometheus)
	}
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(prefix)
	authn := middleware.JWT(opts.Tokens)
	admins := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	auth := api.Group("/auth")
	auth.POST("/login", middleware.RateLimit(opts.LoginLimit, opts.LoginPeriod), h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", authn, h.Auth.Logout)
	auth.POST("/change-password", authn, h.Auth.ChangePassword)
	auth.GET("/me", authn, h.Auth.Me)

	users := api.Group("/users", authn)
	users.GET("", admins, h.Users.List)
	users.POST("", admins, h.Users.Create)
	users.GET("/:id", middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), "SELF"), h.Users.Get)
	users.PUT("/:id", admins, h.Users.Update)
	users.DELETE("/:id", admins, h.Users.Delete)

	protected := api.Group("", authn)
	if h.Metrics != nil {
		protected.GET("/metrics/snapshot", admins, h.Metrics.Snapshot)
	}

	clients := protected.Group("/clients")
	clients.GET("", h.Clients.List)
	clients.GET("/:id", h.Clients.Get)
	clients.POST("", admins, h.Clients.Create)
	clients.PUT("/:id", admins, h.Clients.Update)
	clients.DELETE("/:id", admins, h.Clients.Delete)

	categories := protected.Group("/categories")
	categories.GET("", h.Categories.List)
	categories.GET("/:id", h.Categories.Get)
	categories.POST("", admins, h.Categories.Create)
	categories.PUT("/:id", admins, h.Categories.Update)
	categories.DELETE("/:id", admins, h.Categories.Delete)

	containers := protected.Group("/container-sizes")
	containers.GET("", h.ContainerSizes.List)
	containers.GET("/:id", h.ContainerSizes.Get)
	containers.POST("", admins, h.ContainerSizes.Create)
	containers.PUT("/:id", admins, h.ContainerSizes.Update)
	containers.DELETE("/:id", admins, h.ContainerSizes.Delete)

	trucks := protected.Group("/truck-sizes")
	trucks.GET("", h.TruckSizes.List)
	trucks.GET("/:id", h.TruckSizes.Get)
	trucks.POST("", admins, h.TruckSizes.Create)
	trucks.PUT("/:id", admins, h.TruckSizes.Update)
	trucks.DELETE("/:id", admins, h.TruckSizes.Delete)

	quotations := protected.Group("/quotations")
	quotations.GET("", h.Quotations.List)
	quotations.POST("", h.Quotations.Create)
	quotations.GET("/:id", h.Quotations.Get)
	quotations.PUT("/:id", h.Quotations.Update)
	quotations.DELETE("/:id", h.Quotations.Delete)
	quotations.GET("/:id/pdf", h.Quotations.PDF)
	quotations.POST("/:id/submit", h.Quotations.Submit)
	quotations.POST("/:id/cancel", h.Quotations.Cancel)
	quotations.POST("/:id/revise", h.Quotations.Revise)

	rfps := protected.Group("/rfps")
	rfps.GET("", h.RFPs.List)
	rfps.POST("", h.RFPs.Create)
	rfps.GET("/:id", h.RFPs.Get)
	rfps.PUT("/:id", h.RFPs.Update)
	rfps.DELETE("/:id", h.RFPs.Delete)
	rfps.GET("/:id/pdf", h.RFPs.PDF)
	rfps.POST("/:id/submit", h.RFPs.Submit)
	rfps.POST("/:id/cancel", h.RFPs.Cancel)
	rfps.POST("/:id/revise", h.RFPs.Revise)

	approvals := protected.Group("/approvals")
	approvals.GET("", h.Approvals.List)
	approvals.GET("/stats", h.Approvals.Stats)
	approvals.GET("/quotation/:id", h.Approvals.GetQuotation)
	approvals.POST("/quotation/:id/approve", h.Approvals.ApproveQuotation)
	approvals.POST("/quotation/:id/reject", h.Approvals.RejectQuotation)
	approvals.GET("/quotation/:id/history", h.Approvals.QuotationHistory)
	approvals.GET("/rfp/:id", h.Approvals.GetRFP)
	approvals.POST("/rfp/:id/approve", h.Approvals.ApproveRFP)
	approvals.POST("/rfp/:id/reject", h.Approvals.RejectRFP)
	approvals.GET("/rfp/:id/history", h.Approvals.RFPHistory)

	protected.POST("/exports", middleware.Audit(opts.Audit, models.AuditActionExportCreate, "exports"), h.Exports.Create)
	api.GET("/exports/:token", middleware.Audit(opts.Audit, models.AuditActionExportDownload, "exports"), h.Exports.Download)

	return r
}
