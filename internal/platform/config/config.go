// Package config loads service configuration. Environment variables win;
// an optional YAML file supplies defaults for anything the environment
// leaves unset.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	platformstrings "caredex/pkg/platform/strings"
)

// Config is the full service configuration.
type Config struct {
	Addr        string `yaml:"addr"`
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	AuditTopic   string   `yaml:"audit_topic"`

	RegistryURL          string        `yaml:"registry_url"`
	RegistryCacheTTL     time.Duration `yaml:"registry_cache_ttl"`
	RegistrySyncEnabled  bool          `yaml:"registry_sync_enabled"`
	RegistrySyncInterval time.Duration `yaml:"registry_sync_interval"`

	RateLimit       int           `yaml:"rate_limit"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`

	ReverifyInterval time.Duration `yaml:"reverify_interval"`
	BaselineDays     int           `yaml:"baseline_days"`

	DedupeWindow          time.Duration `yaml:"dedupe_window"`
	FingerprintingEnabled bool          `yaml:"fingerprinting_enabled"`

	AdminSigningKey string `yaml:"admin_signing_key"`
}

func defaults() Config {
	return Config{
		Addr:                  ":8080",
		AuditTopic:            "caredex.audit",
		RegistryCacheTTL:      time.Hour,
		RegistrySyncInterval:  6 * time.Hour,
		RateLimit:             30,
		RateLimitWindow:       time.Minute,
		ReverifyInterval:      time.Hour,
		BaselineDays:          90,
		DedupeWindow:          24 * time.Hour,
		FingerprintingEnabled: true,
	}
}

// Load builds the configuration. When CAREDEX_CONFIG names a YAML file it is
// read first; environment variables then override its values.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CAREDEX_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.AdminSigningKey == "" {
		// Development fallback; must be overridden in production.
		cfg.AdminSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Addr, "CAREDEX_ADDR")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.AuditTopic, "CAREDEX_AUDIT_TOPIC")
	setString(&c.RegistryURL, "CAREDEX_REGISTRY_URL")
	setString(&c.AdminSigningKey, "CAREDEX_ADMIN_SIGNING_KEY")

	if brokers := os.Getenv("CAREDEX_KAFKA_BROKERS"); brokers != "" {
		c.KafkaBrokers = platformstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}

	setBool(&c.RegistrySyncEnabled, "CAREDEX_REGISTRY_SYNC")
	setBool(&c.FingerprintingEnabled, "CAREDEX_FINGERPRINTING")

	setInt(&c.RateLimit, "CAREDEX_RATE_LIMIT")
	setInt(&c.BaselineDays, "CAREDEX_BASELINE_DAYS")

	setDuration(&c.RateLimitWindow, "CAREDEX_RATE_LIMIT_WINDOW")
	setDuration(&c.ReverifyInterval, "CAREDEX_REVERIFY_INTERVAL")
	setDuration(&c.RegistryCacheTTL, "CAREDEX_REGISTRY_CACHE_TTL")
	setDuration(&c.RegistrySyncInterval, "CAREDEX_REGISTRY_SYNC_INTERVAL")
	setDuration(&c.DedupeWindow, "CAREDEX_DEDUPE_WINDOW")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1"
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
