// Package auth implements the stateless bearer-token service: HS256 JWTs
// carrying a subject, issue/expiry timestamps, and an optional
// registration-pending marker.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/verdantlab/floraid/internal/common"
)

// Claims is the token claim set. Subject is an account ID for normal tokens
// and a verified email for registration-pending Google tokens, which also
// carry Register=true.
type Claims struct {
	jwt.RegisteredClaims
	Register bool `json:"register,omitempty"`
}

// GenerateToken signs a token for the given subject. Expiry is always
// issued-at plus validityDuration.
func GenerateToken(subject string, register bool, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Register: register,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry of tokenString and returns
// its claims. Every failure mode (malformed, tampered, expired, wrong
// algorithm) collapses into common.ErrInvalidToken so callers cannot leak
// which check failed.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
