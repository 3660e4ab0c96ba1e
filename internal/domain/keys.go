package domain

import "strings"

// ResourceType identifies the class of cached storefront data. The type is
// part of every cache key so pattern invalidation can target one class
// without touching the others.
type ResourceType string

const (
	ResourceProduct     ResourceType = "product"
	ResourceProductList ResourceType = "products"
	ResourceSearch      ResourceType = "search"
	ResourceOrder       ResourceType = "order"
	ResourceOrderList   ResourceType = "orders"
	ResourceDashboard   ResourceType = "dashboard"
	ResourceAggregate   ResourceType = "aggregate"
)

// GlobalTenant is the pseudo-tenant that owns marketplace-wide aggregate
// keys. It hashes to its own shard group, like any real tenant.
const GlobalTenant = "global"

// CacheKey is the structured form of a storefront cache key. The store
// treats the rendered key as opaque; only the invalidation coordinator
// relies on the structure.
type CacheKey struct {
	TenantID string
	Resource ResourceType
	ID       string
	Modifier string
}

// String renders the key as "{tenant}:resource:id[:modifier]". The braces
// around the tenant are a Redis hash-tag, keeping every key of a tenant on
// related shards so pattern operations stay cheap.
func (k CacheKey) String() string {
	var b strings.Builder
	b.WriteString("{")
	b.WriteString(k.TenantID)
	b.WriteString("}:")
	b.WriteString(string(k.Resource))
	if k.ID != "" {
		b.WriteString(":")
		b.WriteString(k.ID)
	}
	if k.Modifier != "" {
		b.WriteString(":")
		b.WriteString(k.Modifier)
	}
	return b.String()
}

// NewCacheKey builds a key from its components. Identical inputs always
// produce identical keys, which is what makes cache-aside reuse work.
func NewCacheKey(tenantID string, resource ResourceType, id, modifier string) CacheKey {
	return CacheKey{
		TenantID: strings.TrimSpace(tenantID),
		Resource: resource,
		ID:       strings.TrimSpace(id),
		Modifier: strings.TrimSpace(modifier),
	}
}

// TenantPattern renders a wildcard pattern scoped to one tenant and one
// resource class, e.g. "{t1}:products:*". The tenant prefix guarantees a
// pattern delete can never leak into another tenant's key space.
func TenantPattern(tenantID string, resource ResourceType) string {
	return "{" + strings.TrimSpace(tenantID) + "}:" + string(resource) + ":*"
}

// MatchKeyPattern reports whether key matches a glob pattern where '*'
// matches any run of characters, including separators. This mirrors the
// MATCH semantics of a Redis SCAN so the local tier and the remote tier
// agree on what a pattern removes.
func MatchKeyPattern(pattern, key string) bool {
	if pattern == "" {
		return key == ""
	}
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == key
	}
	if !strings.HasPrefix(key, parts[0]) {
		return false
	}
	rest := key[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(part):]
	}
	last := parts[len(parts)-1]
	return last == "" || strings.HasSuffix(rest, last)
}
