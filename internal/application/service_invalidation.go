package application

import (
	"context"
	"strings"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
)

// onWrite expands the static invalidation mapping for a write and issues
// the deletes. The coordinator never recomputes values; the next read's
// loader repopulates whatever the delete removed.
func (s *Service) onWrite(ctx context.Context, tenantID string, resource domain.ResourceType, resourceID string) {
	for _, target := range domain.InvalidationTargets(tenantID, resource, resourceID) {
		if target.Key != "" {
			_ = s.store.Delete(ctx, target.Key)
			continue
		}
		if _, err := s.store.DeletePattern(ctx, target.Pattern); err != nil {
			appLogger().WarnContext(ctx, "pattern invalidation incomplete",
				"operation", "cache_invalidation",
				"outcome", "degraded",
				"pattern", target.Pattern,
				"error", err.Error(),
			)
		}
	}
}

// InvalidateResource is the operator invalidation path: it runs the same
// mapping as an authoritative write, without touching the store of record.
func (s *Service) InvalidateResource(ctx context.Context, actor Actor, resource domain.ResourceType, resourceID string) error {
	if actor.Claims.TenantID == "" {
		return domain.ErrUnauthorized
	}
	if !actor.Claims.HasPermission(PermCacheAdmin) {
		return domain.ErrForbidden
	}
	resourceID = strings.TrimSpace(resourceID)
	if resourceID == "" || len(domain.InvalidationTargets(actor.Claims.TenantID, resource, resourceID)) == 0 {
		return domain.ErrInvalidInput
	}
	s.onWrite(ctx, actor.Claims.TenantID, resource, resourceID)

	s.hub.Publish(ctx, actor.Claims.TenantID, domain.TopicTenantDashboard, domain.UpdateEvent{
		Topic:     string(domain.TopicTenantDashboard),
		Type:      domain.EventCacheFlushed,
		Timestamp: s.nowFn(),
	})
	return nil
}

// DeleteCacheKey removes one exact key within the caller's tenant. The
// tenant prefix is enforced here, not trusted from the request.
func (s *Service) DeleteCacheKey(ctx context.Context, actor Actor, key string) error {
	if actor.Claims.TenantID == "" {
		return domain.ErrUnauthorized
	}
	if !actor.Claims.HasPermission(PermCacheAdmin) {
		return domain.ErrForbidden
	}
	key = strings.TrimSpace(key)
	if key == "" || len(key) > 512 {
		return domain.ErrInvalidInput
	}
	tenantPrefix := "{" + actor.Claims.TenantID + "}:"
	if !strings.HasPrefix(key, tenantPrefix) {
		return domain.ErrForbidden
	}
	return s.store.Delete(ctx, key)
}
