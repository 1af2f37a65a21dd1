// Package config loads the service configuration from the environment and
// fails fast on missing required bindings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mannyyang/docubeam/internal/validate"
)

// Config holds everything the server needs to run.
type Config struct {
	Port string
	Mode string

	// APIKey protects the /documents routes when set.
	APIKey string

	// StorageBucket is the GCS bucket holding all document objects.
	StorageBucket string

	// OCR provider settings.
	OCRAPIKey  string
	OCRBaseURL string
	OCRModel   string
	OCRTimeout time.Duration

	// OCRWorkers bounds concurrent background OCR jobs.
	OCRWorkers int

	// PublicBaseURL prefixes the resource URLs returned to clients.
	PublicBaseURL string
}

// Load reads the environment and validates readiness.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Mode:          getEnv("MODE", "dev"),
		APIKey:        getEnv("API_KEY", ""),
		StorageBucket: getEnv("STORAGE_BUCKET", ""),
		OCRAPIKey:     getEnv("MISTRAL_API_KEY", ""),
		OCRBaseURL:    getEnv("OCR_BASE_URL", ""),
		OCRModel:      getEnv("OCR_MODEL", ""),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
	}

	workers, err := getEnvInt("OCR_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	cfg.OCRWorkers = workers

	timeoutSec, err := getEnvInt("OCR_TIMEOUT_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	cfg.OCRTimeout = time.Duration(timeoutSec) * time.Second

	if err := validate.Environment(cfg.StorageBucket, cfg.OCRAPIKey); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return n, nil
}
