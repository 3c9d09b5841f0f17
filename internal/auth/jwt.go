// Package auth issues and verifies the signed session tokens presented on
// protected requests. Session tokens are never persisted; possession of a
// token with a valid signature proves issuance by this server.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned when the embedded expiry has passed.
	ErrTokenExpired = errors.New("session token expired")
	// ErrTokenMalformed is returned when the token is not parseable.
	ErrTokenMalformed = errors.New("session token malformed")
	// ErrTokenInvalid covers tampered signatures and claim mismatches.
	ErrTokenInvalid = errors.New("session token invalid")
)

type sessionClaims struct {
	jwt.RegisteredClaims
}

// NewSessionToken signs an HS256 token carrying the account id as subject
// with a fixed TTL.
func NewSessionToken(secret, issuer string, ttl time.Duration, accountID string) (string, error) {
	now := time.Now().UTC()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken verifies the signature, issuer and expiry and returns
// the embedded account id.
func ParseSessionToken(secret, issuer, tokenString string) (string, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrTokenMalformed
		default:
			return "", ErrTokenInvalid
		}
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}
