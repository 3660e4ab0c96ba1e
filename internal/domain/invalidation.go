package domain

// InvalidationTarget is one delete issued for an authoritative write.
// Exact targets map to a single key delete, pattern targets to a
// pattern delete.
type InvalidationTarget struct {
	Key     string
	Pattern string
}

// InvalidationTargets expands the static resource-type → pattern mapping
// for one write. Patterns target disjoint key spaces, so the order they
// are issued in carries no meaning. Marketplace-wide aggregates are
// invalidated in the same pass, best-effort: they may be briefly stale
// after a single-tenant write and the next aggregate read repopulates
// them through its loader.
func InvalidationTargets(tenantID string, resource ResourceType, resourceID string) []InvalidationTarget {
	switch resource {
	case ResourceProduct:
		return []InvalidationTarget{
			{Key: NewCacheKey(tenantID, ResourceProduct, resourceID, "").String()},
			{Pattern: TenantPattern(tenantID, ResourceProductList)},
			{Pattern: TenantPattern(tenantID, ResourceSearch)},
			{Pattern: TenantPattern(GlobalTenant, ResourceAggregate)},
		}
	case ResourceOrder:
		return []InvalidationTarget{
			{Key: NewCacheKey(tenantID, ResourceOrder, resourceID, "").String()},
			{Pattern: TenantPattern(tenantID, ResourceOrderList)},
			{Pattern: TenantPattern(tenantID, ResourceDashboard)},
		}
	case ResourceDashboard:
		return []InvalidationTarget{
			{Pattern: TenantPattern(tenantID, ResourceDashboard)},
		}
	default:
		return nil
	}
}
