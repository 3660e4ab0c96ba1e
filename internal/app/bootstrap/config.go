package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the storefront
// data-access service. It merges file defaults and environment overrides
// to support both local and deployed runs.
type Config struct {
	ServiceID string
	Version   string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string

	KafkaBrokers []string
	MetricsTopic string
	EventsTopic  string

	JWTPublicKeyPEM string

	EntryTTL  time.Duration
	ListTTL   time.Duration
	SearchTTL time.Duration
	PageSize  int

	LocalMaxEntries int
	LocalTTLCeiling time.Duration
	RemoteTimeout   time.Duration

	BreakerThreshold int
	BreakerCooldown  time.Duration

	HealthInterval time.Duration
	FlushInterval  time.Duration

	WSMessageRate  float64
	WSMessageBurst int

	MaxDBConns int32
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		Version  string `yaml:"version"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		MetricsTopic string   `yaml:"metrics_topic"`
		EventsTopic  string   `yaml:"events_topic"`
	} `yaml:"dependencies"`
	Cache struct {
		EntryTTLSeconds     int `yaml:"entry_ttl_seconds"`
		ListTTLSeconds      int `yaml:"list_ttl_seconds"`
		SearchTTLSeconds    int `yaml:"search_ttl_seconds"`
		LocalMaxEntries     int `yaml:"local_max_entries"`
		LocalCeilingSeconds int `yaml:"local_ceiling_seconds"`
		RemoteTimeoutMS     int `yaml:"remote_timeout_ms"`
		BreakerThreshold    int `yaml:"breaker_threshold"`
		BreakerCooldownSecs int `yaml:"breaker_cooldown_seconds"`
	} `yaml:"cache"`
	Realtime struct {
		MessageRate  float64 `yaml:"message_rate"`
		MessageBurst int     `yaml:"message_burst"`
	} `yaml:"realtime"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:        "M20-Storefront-Data-Access",
		Version:          "0.1.0",
		HTTPPort:         8080,
		GRPCPort:         9090,
		MetricsTopic:     "platform.metrics.samples",
		EventsTopic:      "storefront.catalog.events",
		EntryTTL:         10 * time.Minute,
		ListTTL:          2 * time.Minute,
		SearchTTL:        time.Minute,
		PageSize:         50,
		LocalMaxEntries:  4096,
		LocalTTLCeiling:  time.Minute,
		RemoteTimeout:    250 * time.Millisecond,
		BreakerThreshold: 5,
		BreakerCooldown:  30 * time.Second,
		HealthInterval:   15 * time.Second,
		FlushInterval:    time.Minute,
		WSMessageRate:    10,
		WSMessageBurst:   20,
		MaxDBConns:       20,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.Version != "" {
			cfg.Version = f.Service.Version
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.Dependencies.MetricsTopic != "" {
			cfg.MetricsTopic = f.Dependencies.MetricsTopic
		}
		if f.Dependencies.EventsTopic != "" {
			cfg.EventsTopic = f.Dependencies.EventsTopic
		}
		if f.Cache.EntryTTLSeconds > 0 {
			cfg.EntryTTL = time.Duration(f.Cache.EntryTTLSeconds) * time.Second
		}
		if f.Cache.ListTTLSeconds > 0 {
			cfg.ListTTL = time.Duration(f.Cache.ListTTLSeconds) * time.Second
		}
		if f.Cache.SearchTTLSeconds > 0 {
			cfg.SearchTTL = time.Duration(f.Cache.SearchTTLSeconds) * time.Second
		}
		if f.Cache.LocalMaxEntries > 0 {
			cfg.LocalMaxEntries = f.Cache.LocalMaxEntries
		}
		if f.Cache.LocalCeilingSeconds > 0 {
			cfg.LocalTTLCeiling = time.Duration(f.Cache.LocalCeilingSeconds) * time.Second
		}
		if f.Cache.RemoteTimeoutMS > 0 {
			cfg.RemoteTimeout = time.Duration(f.Cache.RemoteTimeoutMS) * time.Millisecond
		}
		if f.Cache.BreakerThreshold > 0 {
			cfg.BreakerThreshold = f.Cache.BreakerThreshold
		}
		if f.Cache.BreakerCooldownSecs > 0 {
			cfg.BreakerCooldown = time.Duration(f.Cache.BreakerCooldownSecs) * time.Second
		}
		if f.Realtime.MessageRate > 0 {
			cfg.WSMessageRate = f.Realtime.MessageRate
		}
		if f.Realtime.MessageBurst > 0 {
			cfg.WSMessageBurst = f.Realtime.MessageBurst
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.MetricsTopic = envOrDefault("METRICS_TOPIC", cfg.MetricsTopic)
	cfg.EventsTopic = envOrDefault("EVENTS_TOPIC", cfg.EventsTopic)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.PageSize = envInt("CATALOG_PAGE_SIZE", cfg.PageSize)
	cfg.LocalMaxEntries = envInt("LOCAL_CACHE_MAX_ENTRIES", cfg.LocalMaxEntries)
	cfg.BreakerThreshold = envInt("CACHE_BREAKER_THRESHOLD", cfg.BreakerThreshold)
	cfg.WSMessageBurst = envInt("WS_MESSAGE_BURST", cfg.WSMessageBurst)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.EntryTTL = time.Duration(envInt("CACHE_ENTRY_TTL_SECONDS", int(cfg.EntryTTL.Seconds()))) * time.Second
	cfg.ListTTL = time.Duration(envInt("CACHE_LIST_TTL_SECONDS", int(cfg.ListTTL.Seconds()))) * time.Second
	cfg.SearchTTL = time.Duration(envInt("CACHE_SEARCH_TTL_SECONDS", int(cfg.SearchTTL.Seconds()))) * time.Second
	cfg.LocalTTLCeiling = time.Duration(envInt("LOCAL_CACHE_CEILING_SECONDS", int(cfg.LocalTTLCeiling.Seconds()))) * time.Second
	cfg.RemoteTimeout = time.Duration(envInt("CACHE_REMOTE_TIMEOUT_MS", int(cfg.RemoteTimeout.Milliseconds()))) * time.Millisecond
	cfg.BreakerCooldown = time.Duration(envInt("CACHE_BREAKER_COOLDOWN_SECONDS", int(cfg.BreakerCooldown.Seconds()))) * time.Second
	cfg.HealthInterval = time.Duration(envInt("HEALTH_INTERVAL_SECONDS", int(cfg.HealthInterval.Seconds()))) * time.Second
	cfg.FlushInterval = time.Duration(envInt("METRICS_FLUSH_SECONDS", int(cfg.FlushInterval.Seconds()))) * time.Second
	cfg.WSMessageRate = float64(envInt("WS_MESSAGE_RATE", int(cfg.WSMessageRate)))

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.JWTPublicKeyPEM == "" {
		return Config{}, fmt.Errorf("missing JWT_PUBLIC_KEY_PEM")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
