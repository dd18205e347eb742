package config

import (
	"os"
	"strings"
	"testing"
)

// setupTestEnv clears known env vars and returns a restore function.
func setupTestEnv(t *testing.T) func() {
	keys := []string{
		"PORT", "REDIS_ENABLED", "REDIS_ADDR", "REDIS_PASSWORD",
		"GO_ENV", "LOG_LEVEL", "ALLOWED_ORIGINS",
		"METADATA_ORACLE_URL", "YOUTUBE_API_KEY",
		"HEARTBEAT_INTERVAL", "HOST_GRACE_PERIOD", "RECONNECT_WINDOW",
	}
	orig := make(map[string]string, len(keys))
	for _, k := range keys {
		orig[k] = os.Getenv(k)
		os.Unsetenv(k)
	}

	return func() {
		for k, v := range orig {
			if v != "" {
				os.Setenv(k, v)
			} else {
				os.Unsetenv(k)
			}
		}
	}
}

func TestValidateEnv_ValidConfiguration(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("PORT", "8080")
	os.Setenv("REDIS_ENABLED", "false")

	cfg, err := ValidateEnv()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected PORT to be '8080', got '%s'", cfg.Port)
	}
	if cfg.GoEnv != "production" {
		t.Errorf("expected GO_ENV to default to 'production', got '%s'", cfg.GoEnv)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LOG_LEVEL to default to 'info', got '%s'", cfg.LogLevel)
	}
}

func TestValidateEnv_MissingPortDefaults(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	cfg, err := ValidateEnv()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected PORT to default to '8080', got '%s'", cfg.Port)
	}
}

func TestValidateEnv_InvalidPort(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("PORT", "99999")

	_, err := ValidateEnv()
	if err == nil {
		t.Fatal("expected error for invalid PORT, got nil")
	}
	if !strings.Contains(err.Error(), "PORT must be a valid port number") {
		t.Errorf("expected error message about invalid PORT, got: %v", err)
	}
}

func TestValidateEnv_InvalidRedisAddr(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("PORT", "8080")
	os.Setenv("REDIS_ENABLED", "true")
	os.Setenv("REDIS_ADDR", "invalid-format")

	_, err := ValidateEnv()
	if err == nil {
		t.Fatal("expected error for invalid REDIS_ADDR, got nil")
	}
	if !strings.Contains(err.Error(), "REDIS_ADDR must be in format 'host:port'") {
		t.Errorf("expected error message about REDIS_ADDR format, got: %v", err)
	}
}

func TestValidateEnv_RedisDefaultAddr(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("PORT", "8080")
	os.Setenv("REDIS_ENABLED", "true")

	cfg, err := ValidateEnv()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("expected REDIS_ADDR to default to 'localhost:6379', got '%s'", cfg.RedisAddr)
	}
}

func TestValidateEnv_MetadataOracleDefault(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	cfg, err := ValidateEnv()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.MetadataOracleURL != "https://www.youtube.com/oembed" {
		t.Errorf("expected default metadata oracle URL, got '%s'", cfg.MetadataOracleURL)
	}
}

func TestValidateEnv_TunableOverrides(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("HEARTBEAT_INTERVAL", "2.5")
	os.Setenv("HOST_GRACE_PERIOD", "30")

	cfg, err := ValidateEnv()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.HeartbeatIntervalSeconds != 2.5 {
		t.Errorf("expected HEARTBEAT_INTERVAL override, got %v", cfg.HeartbeatIntervalSeconds)
	}
	if cfg.HostGracePeriodSeconds != 30 {
		t.Errorf("expected HOST_GRACE_PERIOD override, got %v", cfg.HostGracePeriodSeconds)
	}
	if cfg.ReconnectWindowSeconds != 30.0 {
		t.Errorf("expected RECONNECT_WINDOW to default to 30, got %v", cfg.ReconnectWindowSeconds)
	}
}

func TestAllowedOriginsList(t *testing.T) {
	cfg := &Config{AllowedOrigins: " http://a.test , http://b.test,,http://c.test "}
	got := cfg.AllowedOriginsList()
	want := []string{"http://a.test", "http://b.test", "http://c.test"}
	if len(got) != len(want) {
		t.Fatalf("expected %d origins, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("origin[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestIsValidHostPort(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		expected bool
	}{
		{"Valid localhost", "localhost:8080", true},
		{"Valid IP", "127.0.0.1:3000", true},
		{"Valid hostname", "example.com:443", true},
		{"Missing port", "localhost", false},
		{"Missing host", ":8080", false},
		{"Invalid port", "localhost:99999", false},
		{"Non-numeric port", "localhost:abc", false},
		{"Multiple colons", "localhost:8080:9090", false},
		{"Empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isValidHostPort(tt.addr)
			if result != tt.expected {
				t.Errorf("isValidHostPort('%s') = %v, expected %v", tt.addr, result, tt.expected)
			}
		})
	}
}
