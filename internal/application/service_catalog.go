package application

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/ports"
)

// GetProduct is the cache-aside read path for a single product. Cache
// tiers failing only cost latency; the catalog loader is the recovery
// path and its errors are the only ones a caller ever sees.
func (s *Service) GetProduct(ctx context.Context, actor Actor, productID string) (domain.CacheItem, error) {
	if actor.Claims.TenantID == "" {
		return domain.CacheItem{}, domain.ErrUnauthorized
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.CacheItem{}, domain.ErrInvalidInput
	}
	tenantID := actor.Claims.TenantID
	key := domain.NewCacheKey(tenantID, domain.ResourceProduct, productID, "").String()

	loader := ports.LoaderFunc(func(ctx context.Context) ([]byte, error) {
		product, err := s.catalog.GetProduct(ctx, tenantID, productID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(product)
	})
	return s.store.Get(ctx, key, s.cfg.EntryTTL, loader)
}

// ListProducts serves one page of the tenant catalog with a page-scoped
// list key, so invalidating "{tenant}:products:*" clears every page.
func (s *Service) ListProducts(ctx context.Context, actor Actor, page int) (domain.CacheItem, error) {
	if actor.Claims.TenantID == "" {
		return domain.CacheItem{}, domain.ErrUnauthorized
	}
	if page < 1 {
		page = 1
	}
	tenantID := actor.Claims.TenantID
	key := domain.NewCacheKey(tenantID, domain.ResourceProductList, "list", "page"+strconv.Itoa(page)).String()

	loader := ports.LoaderFunc(func(ctx context.Context) ([]byte, error) {
		listing, err := s.catalog.ListProducts(ctx, tenantID, page, s.cfg.PageSize)
		if err != nil {
			return nil, err
		}
		return json.Marshal(listing)
	})
	return s.store.Get(ctx, key, s.cfg.ListTTL, loader)
}

// ProductInput is the write-path payload.
type ProductInput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
	Stock      int    `json:"stock"`
	Active     bool   `json:"active"`
}

// UpdateProduct runs the full write path: authoritative store first, then
// cache refresh, then invalidation of derived keys, then realtime and
// stream notification. Everything after the store write is best-effort.
func (s *Service) UpdateProduct(ctx context.Context, actor Actor, input ProductInput) (domain.Product, error) {
	if actor.Claims.TenantID == "" {
		return domain.Product{}, domain.ErrUnauthorized
	}
	if !actor.Claims.HasPermission(PermCatalogWrite) {
		return domain.Product{}, domain.ErrForbidden
	}
	input.ID = strings.TrimSpace(input.ID)
	if input.ID == "" || strings.TrimSpace(input.Name) == "" || input.PriceCents < 0 {
		return domain.Product{}, domain.ErrInvalidInput
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}
	tenantID := actor.Claims.TenantID

	product, err := s.catalog.UpsertProduct(ctx, domain.Product{
		ID:         input.ID,
		TenantID:   tenantID,
		Name:       input.Name,
		PriceCents: input.PriceCents,
		Currency:   input.Currency,
		Stock:      input.Stock,
		Active:     input.Active,
	})
	if err != nil {
		return domain.Product{}, err
	}

	payload, err := json.Marshal(product)
	if err != nil {
		return domain.Product{}, err
	}
	// Invalidate derived keys first, then refresh the entity key, so the
	// exact-key delete in the mapping cannot clobber the fresh value.
	s.onWrite(ctx, tenantID, domain.ResourceProduct, product.ID)
	entryKey := domain.NewCacheKey(tenantID, domain.ResourceProduct, product.ID, "").String()
	_ = s.store.Set(ctx, entryKey, payload, s.cfg.EntryTTL)

	s.notifyProductUpdated(ctx, tenantID, product, payload)
	return product, nil
}

func (s *Service) notifyProductUpdated(ctx context.Context, tenantID string, product domain.Product, payload []byte) {
	event := domain.UpdateEvent{
		Type:      domain.EventProductUpdated,
		Payload:   payload,
		Timestamp: s.nowFn(),
	}

	topic := domain.ProductTopic(product.ID)
	event.Topic = string(topic)
	s.hub.Publish(ctx, tenantID, topic, event)

	event.Topic = string(domain.TopicTenantDashboard)
	s.hub.Publish(ctx, tenantID, domain.TopicTenantDashboard, event)

	if err := s.events.Publish(ctx, "storefront.product.updated", payload, tenantID); err != nil {
		appLogger().WarnContext(ctx, "event stream publish failed",
			"operation", "product_update_event",
			"outcome", "dropped",
			"product_id", product.ID,
			"error", err.Error(),
		)
	}
}
