package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, secret []byte, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestValidateTokenAccepts(t *testing.T) {
	secret := []byte("test-secret")
	cfg := &JWTConfig{Secret: secret, Issuer: "identity-service", Audience: "chessroom"}

	claims := Claims{
		UserID: "user-1",
		Type:   "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "identity-service",
			Audience:  jwt.ClaimStrings{"chessroom"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok := signedToken(t, secret, claims)

	got, err := ValidateToken(cfg, tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.UserID != "user-1" {
		t.Fatalf("unexpected user id %q", got.UserID)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	secret := []byte("test-secret")
	cfg := &JWTConfig{Secret: secret}
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	tok := signedToken(t, secret, claims)

	if _, err := ValidateToken(cfg, tok); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok := signedToken(t, []byte("real-secret"), claims)

	cfg := &JWTConfig{Secret: []byte("wrong-secret")}
	if _, err := ValidateToken(cfg, tok); err == nil {
		t.Fatalf("expected token signed with a different secret to be rejected")
	}
}

func TestValidateTokenRejectsWrongAudience(t *testing.T) {
	secret := []byte("test-secret")
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{"other-service"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok := signedToken(t, secret, claims)

	cfg := &JWTConfig{Secret: secret, Audience: "chessroom"}
	if _, err := ValidateToken(cfg, tok); err == nil {
		t.Fatalf("expected wrong-audience token to be rejected")
	}
}

func TestValidateTokenRejectsMissingUserID(t *testing.T) {
	secret := []byte("test-secret")
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok := signedToken(t, secret, claims)

	cfg := &JWTConfig{Secret: secret}
	if _, err := ValidateToken(cfg, tok); err == nil {
		t.Fatalf("expected a token with no user_id claim to be rejected")
	}
}

func TestValidateTokenRequiresConfiguredSecret(t *testing.T) {
	if _, err := ValidateToken(nil, "anything"); err == nil {
		t.Fatalf("expected validation with no config to fail")
	}
	if _, err := ValidateToken(&JWTConfig{}, "anything"); err == nil {
		t.Fatalf("expected validation with an empty secret to fail")
	}
}
