package ports

import (
	"time"

	"github.com/google/uuid"
)

// AuthClaims is the identity attached to a request or a realtime
// connection. Tokens are issued by M01; this service only verifies them.
type AuthClaims struct {
	UserID      uuid.UUID
	TenantID    string
	Permissions []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	KeyID       string
}

// HasPermission reports whether the claim set carries a capability.
func (c AuthClaims) HasPermission(perm string) bool {
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// TokenVerifier validates bearer credentials presented at the HTTP edge
// and at websocket connection time.
type TokenVerifier interface {
	ParseAndValidate(raw string) (AuthClaims, error)
}
