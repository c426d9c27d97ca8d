package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chessroom/server/internal/auth"
)

func signedToken(t *testing.T, secret []byte, userID string) string {
	t.Helper()
	claims := auth.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestResolvePrefersValidToken(t *testing.T) {
	secret := []byte("shared-secret")
	resolver := NewResolver(&auth.JWTConfig{Secret: secret})
	tok := signedToken(t, secret, "user-1")

	got := resolver.Resolve(tok, "guest-1", "conn-1")
	if got.Kind() != KindAuthenticated || got.Raw() != "user-1" {
		t.Fatalf("expected authenticated user-1, got %v", got)
	}
}

func TestResolveFallsBackToGuestOnInvalidToken(t *testing.T) {
	resolver := NewResolver(&auth.JWTConfig{Secret: []byte("shared-secret")})

	got := resolver.Resolve("garbage-token", "guest-1", "conn-1")
	if got.Kind() != KindGuest || got.Raw() != "guest-1" {
		t.Fatalf("expected fallback to guest-1, got %v", got)
	}
}

func TestResolveFallsBackToConnectionWithNoCredentials(t *testing.T) {
	resolver := NewResolver(nil)
	got := resolver.Resolve("", "", "conn-1")
	if got.Kind() != KindConnection || got.Raw() != "conn-1" {
		t.Fatalf("expected fallback to the bare connection id, got %v", got)
	}
}

func TestNewGuestIDIsNonEmpty(t *testing.T) {
	if NewGuestID() == "" {
		t.Fatalf("expected a non-empty minted guest id")
	}
}
