package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func newKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, string(publicPEM)
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "m01-auth-key-1"
	raw, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func TestParseAndValidate(t *testing.T) {
	key, publicPEM := newKeyPair(t)
	verifier, err := NewJWTVerifier(publicPEM)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	userID := uuid.NewString()
	raw := signToken(t, key, jwt.MapClaims{
		"user_id":     userID,
		"tenant_id":   "t1",
		"permissions": []string{"catalog:read", "catalog:write"},
		"iat":         time.Now().Unix(),
		"exp":         time.Now().Add(time.Hour).Unix(),
	})

	claims, err := verifier.ParseAndValidate(raw)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID.String() != userID || claims.TenantID != "t1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.HasPermission("catalog:write") || claims.HasPermission("cache:admin") {
		t.Fatalf("unexpected permissions: %v", claims.Permissions)
	}
	if claims.KeyID != "m01-auth-key-1" {
		t.Fatalf("expected kid to carry through, got %q", claims.KeyID)
	}
}

func TestParseAndValidateRejectsExpired(t *testing.T) {
	key, publicPEM := newKeyPair(t)
	verifier, _ := NewJWTVerifier(publicPEM)

	raw := signToken(t, key, jwt.MapClaims{
		"user_id":   uuid.NewString(),
		"tenant_id": "t1",
		"iat":       time.Now().Add(-2 * time.Hour).Unix(),
		"exp":       time.Now().Add(-time.Hour).Unix(),
	})
	if _, err := verifier.ParseAndValidate(raw); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestParseAndValidateRequiresTenant(t *testing.T) {
	key, publicPEM := newKeyPair(t)
	verifier, _ := NewJWTVerifier(publicPEM)

	raw := signToken(t, key, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	if _, err := verifier.ParseAndValidate(raw); err == nil {
		t.Fatal("token without tenant_id must be rejected")
	}
}

func TestParseAndValidateRejectsWrongKey(t *testing.T) {
	key, _ := newKeyPair(t)
	_, otherPublicPEM := newKeyPair(t)
	verifier, _ := NewJWTVerifier(otherPublicPEM)

	raw := signToken(t, key, jwt.MapClaims{
		"user_id":   uuid.NewString(),
		"tenant_id": "t1",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	if _, err := verifier.ParseAndValidate(raw); err == nil {
		t.Fatal("token signed by another key must be rejected")
	}
}

func TestParseAndValidateRejectsNoneAlgorithm(t *testing.T) {
	_, publicPEM := newKeyPair(t)
	verifier, _ := NewJWTVerifier(publicPEM)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id":   uuid.NewString(),
		"tenant_id": "t1",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := verifier.ParseAndValidate(raw); err == nil {
		t.Fatal("alg=none token must be rejected")
	}
}
