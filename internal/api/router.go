package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/magda-patterns/internal/analysis"
	"github.com/Conceptual-Machines/magda-patterns/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/magda-patterns/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-patterns/internal/config"
	"github.com/Conceptual-Machines/magda-patterns/internal/metrics"
	"github.com/Conceptual-Machines/magda-patterns/internal/services"
)

// Dependencies are the long-lived services the router hands to handlers.
// DB and Store may be nil when the matching backend is not configured.
type Dependencies struct {
	DB         *gorm.DB
	Store      *analysis.Store
	Results    analysis.Results
	Generation *services.GenerationService
	History    *services.HistoryService
	Metrics    *metrics.Recorder
}

func SetupRouter(deps Dependencies, cfg *config.Config, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.Metrics))

	router.Use(apimiddleware.CORS())

	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Store)
	router.GET("/health", healthHandler.HealthCheck)

	metricsHandler := handlers.NewMetricsHandler(version)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	v1 := router.Group("/api/v1")
	v1.Use(apimiddleware.Auth(cfg))
	{
		v1.GET("/scales", handlers.ListScales)
		v1.GET("/scales/:key", handlers.GetScale)
		v1.GET("/templates", handlers.ListTemplates)

		patternHandler := handlers.NewPatternHandler(deps.Generation)
		v1.POST("/patterns/template", patternHandler.Template)
		v1.POST("/patterns/random", patternHandler.Random)

		analysisHandler := handlers.NewAnalysisHandler(deps.Store, deps.Results)
		v1.GET("/analysis", analysisHandler.List)
		v1.GET("/analysis/:track", analysisHandler.Get)
		v1.PUT("/analysis/:track", analysisHandler.Put)

		generationsHandler := handlers.NewGenerationsHandler(deps.History)
		v1.GET("/generations", generationsHandler.List)
	}

	return router
}
