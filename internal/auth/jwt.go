// Package auth verifies identity-provider tokens. The provider signs an
// HS256 JWT whose subject is the caller's external identity id; nothing
// else from the token is trusted or used.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avankov/pixvault/internal/common"
)

// ExternalIDFromToken parses and validates the token and returns the
// subject (the external identity id). Malformed, expired, or wrongly
// signed tokens return common.ErrInvalidToken.
func ExternalIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil || !token.Valid {
		return "", common.ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", common.ErrInvalidToken
	}
	return claims.Subject, nil
}

// MintToken issues a token for the given external identity id. Production
// tokens come from the identity provider; this exists for local runs and
// tests.
func MintToken(externalID string, secretKey []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   externalID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
	})
	return token.SignedString(secretKey)
}
