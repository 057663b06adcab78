// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the association service settings.
type Config struct {
	Port                string `yaml:"port"`
	DatabaseURL         string `yaml:"database_url"`
	DirectoryServiceURL string `yaml:"directory_service_url"`
	LogLevel            string `yaml:"log_level"`
	OTLPEndpoint        string `yaml:"otlp_endpoint"`
	SubmitRatePerMinute int    `yaml:"submit_rate_per_minute"`
	SessionIdleMinutes  int    `yaml:"session_idle_minutes"`
	MaxSessions         int    `yaml:"max_sessions"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:                "8084",
		LogLevel:            "info",
		SubmitRatePerMinute: 5,
		SessionIdleMinutes:  30,
		MaxSessions:         1000,
	}
}

// Load reads defaults, then the YAML file at path if path is not empty,
// then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DirectoryServiceURL = getEnv("DIRECTORY_SERVICE_URL", cfg.DirectoryServiceURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)

	for key, dst := range map[string]*int{
		"SUBMIT_RATE_PER_MINUTE": &cfg.SubmitRatePerMinute,
		"SESSION_IDLE_MINUTES":   &cfg.SessionIdleMinutes,
		"MAX_SESSIONS":           &cfg.MaxSessions,
	} {
		n, err := getEnvInt(key, *dst)
		if err != nil {
			return Config{}, err
		}
		if n <= 0 {
			return Config{}, fmt.Errorf("%s must be positive, got %d", key, n)
		}
		*dst = n
	}

	return cfg, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
