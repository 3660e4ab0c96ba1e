package application

import (
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/ports"
)

// Capabilities carried in bearer tokens that this service checks.
const (
	PermCatalogRead  = "catalog:read"
	PermCatalogWrite = "catalog:write"
	PermCacheAdmin   = "cache:admin"
)

type Config struct {
	ServiceName string
	Version     string
	// EntryTTL applies to single-entity cache entries; list and search
	// results churn faster and carry their own shorter TTLs.
	EntryTTL  time.Duration
	ListTTL   time.Duration
	SearchTTL time.Duration
	PageSize  int
}

// Actor is the authenticated caller of a use-case.
type Actor struct {
	Claims    ports.AuthClaims
	RequestID string
}

// HealthSource exposes the monitor's latest composite snapshot.
type HealthSource interface {
	Snapshot() domain.HealthSnapshot
}

// MetricsSource exposes the current counter readings without resetting.
type MetricsSource interface {
	Snapshot() map[string]int64
}

type Service struct {
	cfg Config

	store   ports.CacheStore
	catalog ports.CatalogRepository
	hub     ports.Broadcaster
	events  ports.EventPublisher
	health  HealthSource
	metrics MetricsSource

	startedAt time.Time
	nowFn     func() time.Time
}

type Dependencies struct {
	Config Config

	Store   ports.CacheStore
	Catalog ports.CatalogRepository
	Hub     ports.Broadcaster
	Events  ports.EventPublisher
	Health  HealthSource
	Metrics MetricsSource
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "M20-Storefront-Data-Access"
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = 10 * time.Minute
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = 2 * time.Minute
	}
	if cfg.SearchTTL <= 0 {
		cfg.SearchTTL = time.Minute
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	return &Service{
		cfg:       cfg,
		store:     deps.Store,
		catalog:   deps.Catalog,
		hub:       deps.Hub,
		events:    deps.Events,
		health:    deps.Health,
		metrics:   deps.Metrics,
		startedAt: time.Now().UTC(),
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

func appLogger() *slog.Logger {
	return slog.Default().With(
		"service", "M20-Storefront-Data-Access",
		"module", "application",
		"layer", "application",
	)
}
