package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds process-level configuration loaded from the environment.
// The calibration threshold itself lives in the calibration document
// (CalibrationPath), not here, so a recalibration never requires a
// process restart to a new environment.
type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64

	// Model weight artifacts, loaded once at startup.
	ModelBackend        string
	AutoencoderPath     string
	ClassifierPath      string

	// Calibration document (YAML key-value file).
	CalibrationPath string

	// Curation settings.
	MinImageWidth    int
	MinImageHeight   int
	MaxPerGroup      int
	ReferenceStore   string
	AzureAccountName string
	AzureAccountKey  string

	// Batch settings.
	BatchWorkers int

	// Scan log (persistence collaborator adapter). Empty disables recording.
	ScanLogPath string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 50*1024*1024), // 50MB, batch zips included

		ModelBackend:    getEnvOrDefault("MODEL_BACKEND", "debug"),
		AutoencoderPath: getEnvOrDefault("AUTOENCODER_PATH", "models/checkpoints/autoencoder.bin"),
		ClassifierPath:  getEnvOrDefault("CLASSIFIER_PATH", "models/checkpoints/classifier.bin"),

		CalibrationPath: getEnvOrDefault("CALIBRATION_PATH", "config/calibration.yaml"),

		MinImageWidth:    int(parseIntOrDefault("MIN_IMAGE_WIDTH", 64)),
		MinImageHeight:   int(parseIntOrDefault("MIN_IMAGE_HEIGHT", 64)),
		MaxPerGroup:      int(parseIntOrDefault("MAX_PER_GROUP", 30)),
		ReferenceStore:   getEnvOrDefault("REFERENCE_STORE", "local"),
		AzureAccountName: os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:  os.Getenv("AZURE_ACCOUNT_KEY"),

		BatchWorkers: int(parseIntOrDefault("BATCH_WORKERS", 0)), // 0 = NumCPU

		ScanLogPath: os.Getenv("SCAN_LOG_PATH"),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be > 0 (got %s)", cfg.RequestTimeout)
	}
	if cfg.MinImageWidth <= 0 || cfg.MinImageHeight <= 0 {
		return nil, fmt.Errorf("minimum image dimensions must be > 0 (got %dx%d)",
			cfg.MinImageWidth, cfg.MinImageHeight)
	}
	if cfg.MaxPerGroup < 0 {
		return nil, fmt.Errorf("MAX_PER_GROUP must be >= 0 (got %d)", cfg.MaxPerGroup)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
