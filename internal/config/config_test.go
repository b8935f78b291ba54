package config

import (
	"testing"
	"time"
)

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	assertStringEqual(t, "service.name", defaultServiceName, cfg.Service.Name)
	assertStringEqual(t, "service.version", defaultVersion, cfg.Service.Version)
	assertIntEqual(t, "service.port", defaultServicePort, cfg.Service.Port)

	assertStringEqual(t, "meta.api_version", defaultAPIVersion, cfg.Meta.APIVersion)
	assertStringEqual(t, "meta.default_country", defaultCountry, cfg.Meta.DefaultCountry)

	expectedTimeout := defaultUpstreamTimeoutS * time.Second
	if cfg.Meta.UpstreamTimeout != expectedTimeout {
		t.Errorf("meta.upstream_timeout: got %v, want %v",
			cfg.Meta.UpstreamTimeout, expectedTimeout)
	}

	assertIntEqual(t, "rate_limit.max_events_per_minute",
		defaultMaxEventsPerMinute, cfg.RateLimit.MaxEventsPerMinute)
	assertIntEqual(t, "rate_limit.window_seconds",
		defaultWindowSeconds, cfg.RateLimit.WindowSeconds)

	assertStringEqual(t, "logging.level", defaultLoggingLevel, cfg.Logging.Level)
	assertStringEqual(t, "logging.format", defaultLoggingFmt, cfg.Logging.Format)
}

func TestSetDefaults_NoCredentialDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.Meta.PixelID != "" || cfg.Meta.AccessToken != "" {
		t.Fatal("credentials must never be defaulted")
	}
}

func TestValidate_MissingCredentialsIsNotFatal(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("missing credentials must not fail validation, got %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Service.Port = 70000

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for invalid port, got nil")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for invalid log level, got nil")
	}
}

func TestValidate_FatalLevelRejected(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Logging.Level = "fatal"

	// The logger has no fatal level; accepting it would silently log at info.
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for fatal log level, got nil")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("META_PIXEL_ID", "987654321")
	t.Setenv("META_ACCESS_TOKEN", "env-token")
	t.Setenv("CONVERSIONS_RELAY_PORT", "9001")

	cfg := &Config{}
	setDefaults(cfg)
	applyEnvOverrides(cfg)

	assertStringEqual(t, "meta.pixel_id", "987654321", cfg.Meta.PixelID)
	assertStringEqual(t, "meta.access_token", "env-token", cfg.Meta.AccessToken)
	assertIntEqual(t, "service.port", 9001, cfg.Service.Port)
}

func assertStringEqual(t *testing.T, field, want, got string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", field, got, want)
	}
}

func assertIntEqual(t *testing.T, field string, want, got int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %d, want %d", field, got, want)
	}
}
