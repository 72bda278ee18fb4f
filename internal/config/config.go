package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration shared by the API server and the CLI
type Config struct {
	// Environment
	Environment string
	Port        string

	// Observability
	SentryDSN string
	LogDebug  bool

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from an upstream gateway
	AuthMode string

	// Generation history (optional, postgres)
	DatabaseURL string

	// Analysis inputs
	AnalysisResultsPath string // JSON written by the analysis step
	AnalysisStorePath   string // SQLite store, empty disables it

	// Output
	OutputDir      string
	ExportS3Bucket string // when set, exports go to S3 instead of OutputDir
	ExportS3Prefix string
	AWSRegion      string

	// MIDI
	RestMode    string // "gap" or "silent-note"
	MIDIProgram int
}

func Load() *Config {
	return &Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		Port:                getEnv("PORT", "8080"),
		SentryDSN:           getEnv("SENTRY_DSN", ""),
		LogDebug:            getEnv("LOG_DEBUG", "false") == "true",
		AuthMode:            getEnv("AUTH_MODE", "none"), // Default to no auth for self-hosted
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		AnalysisResultsPath: getEnv("ANALYSIS_RESULTS_PATH", "analysis_results.json"),
		AnalysisStorePath:   getEnv("ANALYSIS_STORE_PATH", ""),
		OutputDir:           getEnv("OUTPUT_DIR", "output"),
		ExportS3Bucket:      getEnv("EXPORT_S3_BUCKET", ""),
		ExportS3Prefix:      getEnv("EXPORT_S3_PREFIX", "patterns"),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		RestMode:            getEnv("REST_MODE", "gap"),
		MIDIProgram:         getEnvInt("MIDI_PROGRAM", 1),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// IsGatewayMode returns true if running behind an auth gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// IsProduction reports whether production-only integrations (CloudWatch) are enabled
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
