package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/grievance_desk/backend/internal/config"
	"github.com/grievance_desk/backend/internal/db"
	"github.com/grievance_desk/backend/internal/http/handlers"
	"github.com/grievance_desk/backend/internal/http/middleware"
	"github.com/grievance_desk/backend/internal/metrics"
	"github.com/grievance_desk/backend/internal/service"

	_ "github.com/grievance_desk/backend/docs"
)

func Router(cfg config.Config, store *db.Store, ingest *service.IngestService, sessions *service.SessionTracker, reg *metrics.Registry, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Ingest:    ingest,
		Sessions:  sessions,
		Metrics:   reg,
		Validator: validator.New(),
		Logger:    logger,
		AdminKey:  cfg.AdminKey,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/complaints", h.ComplaintSubmit)
		api.POST("/complaints/batch", h.ComplaintBatch)
		api.GET("/issues", h.IssuesList)
		api.GET("/issues/:id", h.IssueDetails)
		api.GET("/issues/:id/duplicates", h.IssueDuplicates)
		api.POST("/sessions", h.SessionCreate)
		api.GET("/sessions/:id", h.SessionGet)
		api.GET("/metrics", h.MetricsSnapshot)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.GET("/queue", h.AdminQueue)
		admin.PUT("/issues/:id/status", h.IssueStatusUpdate)
		admin.GET("/stats", h.AdminStats)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
