package auth

import (
	"context"
	"fmt"

	"github.com/dgrijalva/jwt-go"

	"github.com/example/mentorship-backend/internal/booking"
	"github.com/example/mentorship-backend/internal/persistence"
)

// Claims carries the identity attributes embedded in platform session tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// JWTProvider implements Provider over HMAC signed bearer tokens issued by
// the platform's identity service.
type JWTProvider struct {
	key []byte
}

// NewJWTProvider constructs a provider validating tokens against key.
func NewJWTProvider(key []byte) *JWTProvider {
	return &JWTProvider{key: key}
}

// Identify parses and validates token, returning the embedded identity.
func (p *JWTProvider) Identify(_ context.Context, token string) (booking.Identity, error) {
	if token == "" {
		return booking.Identity{}, ErrUnauthorized
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.key, nil
	})
	if err != nil || !parsed.Valid {
		return booking.Identity{}, ErrUnauthorized
	}

	role := persistence.Role(claims.Role)
	if role != persistence.RoleMentor && role != persistence.RoleMentee {
		return booking.Identity{}, ErrUnauthorized
	}
	if claims.UserID == "" {
		return booking.Identity{}, ErrUnauthorized
	}

	return booking.Identity{UserID: claims.UserID, Role: role}, nil
}
