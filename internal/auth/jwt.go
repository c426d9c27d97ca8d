package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the shape of the bearer token the identity service issues.
// The Room & Session Engine only ever verifies tokens — register/login/
// refresh live in the identity service, out of scope here — so there is no
// GenerateToken in this package.
type Claims struct {
	UserID string `json:"user_id"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// JWTConfig holds the key material needed to verify a bearer token.
type JWTConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
}

// ValidateToken parses and validates a JWT access token, returning the
// claims on success. The caller (identity.Resolver) treats any error here
// as "no valid token" and demotes to the guest or connection path — this
// function never distinguishes "rejected" from "absent".
func ValidateToken(cfg *JWTConfig, tokenString string) (*Claims, error) {
	if cfg == nil || len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("jwt: verification not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return cfg.Secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.Type != "" && claims.Type != "access" {
		return nil, fmt.Errorf("wrong token type: %s", claims.Type)
	}
	if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
		return nil, fmt.Errorf("invalid issuer")
	}
	if cfg.Audience != "" {
		validAudience := false
		for _, aud := range claims.Audience {
			if aud == cfg.Audience {
				validAudience = true
				break
			}
		}
		if !validAudience {
			return nil, fmt.Errorf("invalid audience")
		}
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("missing user_id claim")
	}

	return claims, nil
}
