package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds validated environment configuration for the synctube server.
type Config struct {
	// Server port (defaults to 8080)
	Port string

	// Optional variables with defaults
	GoEnv          string
	LogLevel       string
	AllowedOrigins string

	// Redis-backed cross-instance bus (optional)
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string

	// Metadata oracle
	MetadataOracleURL string

	// Search collaborator
	YoutubeAPIKey string

	// Tunable room constants (override spec.md defaults for local testing)
	HeartbeatIntervalSeconds float64
	HostGracePeriodSeconds   float64
	ReconnectWindowSeconds   float64

	// Rate limits
	RateLimitAPIGlobal   string
	RateLimitAPIRooms    string
	RateLimitWsIP        string
	RateLimitWsMessages  string
}

// ValidateEnv reads and validates the environment variables and returns a Config object.
// Unset variables take their defaults; returns an error if any set variable is invalid.
func ValidateEnv() (*Config, error) {
	cfg := &Config{}
	var errors []string

	// PORT: defaults to 8080 when unset; must be a valid port number when set
	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		slog.Warn("PORT not set, using default", "port", cfg.Port)
	} else {
		port, err := strconv.Atoi(cfg.Port)
		if err != nil || port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be a valid port number between 1 and 65535 (got '%s')", cfg.Port))
		}
	}

	// Conditional: REDIS_ADDR (required if REDIS_ENABLED=true)
	cfg.RedisEnabled = os.Getenv("REDIS_ENABLED") == "true"
	if cfg.RedisEnabled {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
		if cfg.RedisAddr == "" {
			cfg.RedisAddr = "localhost:6379"
			slog.Warn("REDIS_ADDR not set, using default", "addr", cfg.RedisAddr)
		} else if !isValidHostPort(cfg.RedisAddr) {
			errors = append(errors, fmt.Sprintf("REDIS_ADDR must be in format 'host:port' (got '%s')", cfg.RedisAddr))
		}
		cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	}

	// Optional: GO_ENV (defaults to "production")
	cfg.GoEnv = getEnvOrDefault("GO_ENV", "production")

	// Optional: LOG_LEVEL (defaults to "info")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Optional: ALLOWED_ORIGINS, comma-separated; defaults to localhost dev origins
	cfg.AllowedOrigins = getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")

	// Optional: metadata oracle endpoint (defaults to YouTube's public oEmbed endpoint)
	cfg.MetadataOracleURL = getEnvOrDefault("METADATA_ORACLE_URL", "https://www.youtube.com/oembed")

	cfg.YoutubeAPIKey = os.Getenv("YOUTUBE_API_KEY")

	cfg.HeartbeatIntervalSeconds = getEnvFloatOrDefault("HEARTBEAT_INTERVAL", 1.0)
	cfg.HostGracePeriodSeconds = getEnvFloatOrDefault("HOST_GRACE_PERIOD", 60.0)
	cfg.ReconnectWindowSeconds = getEnvFloatOrDefault("RECONNECT_WINDOW", 30.0)

	// Rate Limits (Defaults: M = Minute, H = Hour), ulule/limiter formatted strings.
	cfg.RateLimitAPIGlobal = getEnvOrDefault("RATE_LIMIT_API_GLOBAL", "1000-M")
	cfg.RateLimitAPIRooms = getEnvOrDefault("RATE_LIMIT_API_ROOMS", "100-M")
	cfg.RateLimitWsIP = getEnvOrDefault("RATE_LIMIT_WS_IP", "200-M")
	cfg.RateLimitWsMessages = getEnvOrDefault("RATE_LIMIT_WS_MESSAGES", "120-M")

	if len(errors) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	logValidatedConfig(cfg)

	return cfg, nil
}

// isValidHostPort checks if a string is in the format "host:port".
func isValidHostPort(addr string) bool {
	parts := strings.Split(addr, ":")
	if len(parts) != 2 {
		return false
	}

	port, err := strconv.Atoi(parts[1])
	if err != nil || port < 1 || port > 65535 {
		return false
	}

	if parts[0] == "" {
		return false
	}

	return true
}

// logValidatedConfig logs the validated configuration.
func logValidatedConfig(cfg *Config) {
	slog.Info("environment configuration validated",
		"port", cfg.Port,
		"go_env", cfg.GoEnv,
		"log_level", cfg.LogLevel,
		"redis_enabled", cfg.RedisEnabled,
		"redis_addr", cfg.RedisAddr,
		"metadata_oracle_url", cfg.MetadataOracleURL,
		"allowed_origins", cfg.AllowedOrigins,
	)
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvFloatOrDefault parses a float env var, falling back to defaultValue on absence or error.
func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("invalid float env var, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return f
}

// AllowedOriginsList splits the configured allow-list into a slice, trimming whitespace.
func (c *Config) AllowedOriginsList() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
