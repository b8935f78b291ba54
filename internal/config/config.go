package config

import (
	"time"
)

// Default configuration values.
const (
	defaultServiceName  = "conversions-relay"
	defaultServicePort  = 8094
	defaultVersion      = "0.1.0"
	defaultAPIVersion   = "v18.0"
	defaultCountry      = "us"
	defaultLoggingLevel = "info"
	defaultLoggingFmt   = "json"

	defaultMaxEventsPerMinute = 120
	defaultWindowSeconds      = 60

	defaultUpstreamTimeoutS = 10
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Meta      MetaConfig      `yaml:"meta"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Port        int      `env:"CONVERSIONS_RELAY_PORT" yaml:"port"`
	Debug       bool     `env:"APP_DEBUG"              yaml:"debug"`
	CORSOrigins []string `env:"CORS_ORIGINS"           yaml:"cors_origins"`
}

// MetaConfig holds the advertising platform credentials and tuning.
// PixelID and AccessToken are both required for relaying; when either is
// missing the service still starts but answers every relay request with a
// configuration error.
type MetaConfig struct {
	PixelID         string        `env:"META_PIXEL_ID"      yaml:"pixel_id"`
	AccessToken     string        `env:"META_ACCESS_TOKEN"  yaml:"access_token"`
	APIVersion      string        `yaml:"api_version"`
	DefaultCountry  string        `yaml:"default_country"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	MaxEventsPerMinute int `yaml:"max_events_per_minute"`
	WindowSeconds      int `yaml:"window_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return load(path)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setMetaDefaults(&cfg.Meta)
	setRateLimitDefaults(&cfg.RateLimit)
	setLoggingDefaults(&cfg.Logging)
}

// setServiceDefaults applies default values to ServiceConfig.
func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
}

// setMetaDefaults applies default values to MetaConfig.
// Credentials have no defaults on purpose.
func setMetaDefaults(meta *MetaConfig) {
	if meta.APIVersion == "" {
		meta.APIVersion = defaultAPIVersion
	}
	if meta.DefaultCountry == "" {
		meta.DefaultCountry = defaultCountry
	}
	if meta.UpstreamTimeout == 0 {
		meta.UpstreamTimeout = defaultUpstreamTimeoutS * time.Second
	}
}

// setRateLimitDefaults applies default values to RateLimitConfig.
func setRateLimitDefaults(rl *RateLimitConfig) {
	if rl.MaxEventsPerMinute == 0 {
		rl.MaxEventsPerMinute = defaultMaxEventsPerMinute
	}
	if rl.WindowSeconds == 0 {
		rl.WindowSeconds = defaultWindowSeconds
	}
}

// setLoggingDefaults applies default values to LoggingConfig.
func setLoggingDefaults(log *LoggingConfig) {
	if log.Level == "" {
		log.Level = defaultLoggingLevel
	}
	if log.Format == "" {
		log.Format = defaultLoggingFmt
	}
}

// Validate validates the configuration. Missing Meta credentials are not a
// validation error: the relay endpoint reports them per request so a partial
// deployment degrades instead of crash-looping.
func (c *Config) Validate() error {
	if err := ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if err := ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}
