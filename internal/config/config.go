package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Mode            string
	Environment     string
	LotID           string
	LayoutPath      string
	PricingMode     string
	PeakMultiplier  float64
	PeakStartHour   int
	PeakEndHour     int
	ReceiptTTL      time.Duration
	RateLimitPerSec float64
	RateLimitBurst  int
	OTelServiceName string
	OTelEndpoint    string
}

// Load reads the configuration from the environment. Unset variables take
// their defaults; set but malformed ones are reported.
func Load() (*Config, error) {
	var env envParser
	cfg := &Config{
		Port:            envOr("APP_PORT", "8080"),
		Mode:            envOr("APP_MODE", "cli"),
		Environment:     envOr("ENVIRONMENT", "development"),
		LotID:           envOr("PARKING_LOT_ID", "PL-001"),
		LayoutPath:      os.Getenv("PARKING_LAYOUT_PATH"),
		PricingMode:     envOr("PRICING_MODE", "default"),
		PeakMultiplier:  env.floatOr("PEAK_MULTIPLIER", 1.5),
		PeakStartHour:   env.intOr("PEAK_START_HOUR", 7),
		PeakEndHour:     env.intOr("PEAK_END_HOUR", 10),
		ReceiptTTL:      env.durationOr("RECEIPT_TTL", 24*time.Hour),
		RateLimitPerSec: env.floatOr("RATE_LIMIT_PER_SEC", 20),
		RateLimitBurst:  env.intOr("RATE_LIMIT_BURST", 40),
		OTelServiceName: envOr("OTEL_SERVICE_NAME", "parking-lot-service"),
		OTelEndpoint:    envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
	}

	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Mode {
	case "cli", "server", "both":
	default:
		return fmt.Errorf("invalid APP_MODE %q: must be cli, server, or both", c.Mode)
	}
	switch c.PricingMode {
	case "default", "peak":
	default:
		return fmt.Errorf("invalid PRICING_MODE %q: must be default or peak", c.PricingMode)
	}
	if c.PeakStartHour < 0 || c.PeakStartHour > 23 || c.PeakEndHour < 0 || c.PeakEndHour > 24 {
		return fmt.Errorf("invalid peak window %d-%d", c.PeakStartHour, c.PeakEndHour)
	}
	if c.PeakMultiplier <= 0 {
		return fmt.Errorf("PEAK_MULTIPLIER must be positive")
	}
	if c.ReceiptTTL <= 0 {
		return fmt.Errorf("RECEIPT_TTL must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

type envParser struct {
	errs []error
}

func (p *envParser) floatOr(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s %q: not a number", key, v))
		return fallback
	}
	return f
}

func (p *envParser) intOr(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s %q: not an integer", key, v))
		return fallback
	}
	return i
}

func (p *envParser) durationOr(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return fallback
	}
	return d
}
