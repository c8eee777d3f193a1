package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin-console/internal/auth"
	"github.com/noah-isme/wellness-admin-console/internal/middleware"
	"github.com/noah-isme/wellness-admin-console/internal/service"
	"github.com/noah-isme/wellness-admin-console/pkg/logger"
	corsmiddleware "github.com/noah-isme/wellness-admin-console/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/wellness-admin-console/pkg/middleware/requestid"
)

// RouterConfig carries everything the console router wires together.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Verifier       *auth.Verifier
	Views          *service.ViewService
	Exports        *service.ExportService
}

// NewRouter builds the console HTTP engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	if prefix == "/" {
		prefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics, "/metrics"))

	metricsHandler := NewMetricsHandler(cfg.Metrics, cfg.Views)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	views := NewViewHandler(cfg.Views, cfg.Exports)
	api := r.Group(prefix)
	// signed links carry their own authorisation
	api.GET("/exports/:token", views.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(cfg.Verifier))
	secured.GET("/resources", views.Resources)
	secured.GET("/views", views.List)
	secured.POST("/views", views.Open)
	secured.GET("/views/:id", views.Get)
	secured.DELETE("/views/:id", views.Close)
	secured.POST("/views/:id/refresh", views.Refresh)
	secured.PATCH("/views/:id/filters", views.UpdateFilters)
	secured.POST("/views/:id/filters/reset", views.ResetFilters)
	secured.POST("/views/:id/search", views.Search)
	secured.POST("/views/:id/page", views.ChangePage)
	secured.POST("/views/:id/limit", views.ChangeLimit)
	secured.DELETE("/views/:id/error", views.ClearError)
	secured.POST("/views/:id/items", views.CreateItem)
	secured.PUT("/views/:id/items/:itemId", views.UpdateItem)
	secured.DELETE("/views/:id/items/:itemId", views.DeleteItem)
	secured.PATCH("/views/:id/items/:itemId/toggle", views.ToggleItem)
	secured.POST("/views/:id/items/:itemId/actions/:action", views.ItemAction)
	secured.GET("/views/:id/export", views.Export)

	return r
}
