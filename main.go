package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/magda-patterns/internal/analysis"
	"github.com/Conceptual-Machines/magda-patterns/internal/api"
	"github.com/Conceptual-Machines/magda-patterns/internal/config"
	"github.com/Conceptual-Machines/magda-patterns/internal/database"
	"github.com/Conceptual-Machines/magda-patterns/internal/logger"
	"github.com/Conceptual-Machines/magda-patterns/internal/metrics"
	"github.com/Conceptual-Machines/magda-patterns/internal/midifile"
	"github.com/Conceptual-Machines/magda-patterns/internal/services"
	"github.com/Conceptual-Machines/magda-patterns/internal/storage"
	"github.com/Conceptual-Machines/magda-patterns/pkg/embedded"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	logger.SetDebug(cfg.LogDebug)

	sentryEnabled := false
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "magda-patterns@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			Debug:            cfg.Environment != environmentProduction,
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			sentryEnabled = true
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	ctx := context.Background()
	cw, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		log.Printf("Failed to initialize CloudWatch metrics: %v", err)
	}
	recorder := metrics.NewRecorder(cw, metrics.NewSentryMetrics(sentryEnabled))

	db := connectDatabase(cfg)

	results, err := analysis.LoadFile(cfg.AnalysisResultsPath)
	if err != nil {
		logger.Error("Failed to load analysis results, using defaults", err, logger.Fields{"path": cfg.AnalysisResultsPath})
		results = analysis.Results{}
	}

	var store *analysis.Store
	if cfg.AnalysisStorePath != "" {
		store, err = analysis.OpenStore(cfg.AnalysisStorePath)
		if err != nil {
			sentry.CaptureException(err)
			log.Fatal("Failed to open analysis store:", err)
		}
		defer store.Close()
	}

	restMode, err := midifile.ParseRestMode(cfg.RestMode)
	if err != nil {
		log.Fatal("Invalid REST_MODE:", err)
	}

	history := services.NewHistoryService(db)
	deps := services.Deps{
		Results:  results,
		Manifest: embedded.DefaultManifest(),
		Exporter: storage.New(cfg),
		Metrics:  recorder,
	}
	if store != nil {
		deps.Store = store
	}
	if history.Enabled() {
		deps.History = history
	}
	generation := services.NewGenerationService(deps, services.GeneratorOptions{
		RestMode: restMode,
		Program:  cfg.MIDIProgram,
	})

	if cfg.Environment == environmentProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(api.Dependencies{
		DB:         db,
		Store:      store,
		Results:    results,
		Generation: generation,
		History:    history,
		Metrics:    recorder,
	}, cfg, GetVersion())

	log.Printf("🚀 Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

// connectDatabase returns nil when history is not configured
func connectDatabase(cfg *config.Config) *gorm.DB {
	db, err := database.Connect(cfg.DatabaseURL)
	if errors.Is(err, database.ErrNoDSN) {
		logger.Info("Generation history disabled (DATABASE_URL not set)", nil)
		return nil
	}
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to connect to database:", err)
	}

	if err := database.Migrate(db); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to run migrations:", err)
	}
	return db
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[k] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
