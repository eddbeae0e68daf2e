// internal/auth/token.go
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"
)

const tokenIssuer = "vani-gateway"

// Claims is the bearer-token payload: the caller's phone number and the
// session the token was minted for.
type Claims struct {
	PhoneNumber string `json:"phone_number"`
	SessionID   string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies bearer tokens. The rest of the system
// treats tokens as opaque strings.
type TokenService struct {
	secret []byte
	expiry time.Duration
}

// NewTokenService creates a TokenService with the given HMAC secret and
// token lifetime.
func NewTokenService(secret string, expiry time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), expiry: expiry}
}

// Sign mints a token for the phone number and session.
func (t *TokenService) Sign(phoneNumber string, sessionID types.SessionID) (string, error) {
	now := time.Now()
	claims := Claims{
		PhoneNumber: phoneNumber,
		SessionID:   string(sessionID),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   phoneNumber,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates the token, returning its claims or
// ErrInvalidToken.
func (t *TokenService) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, types.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, types.ErrInvalidToken
	}
	return claims, nil
}
