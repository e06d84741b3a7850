package auth

import (
	"context"
	"errors"

	"github.com/example/mentorship-backend/internal/booking"
)

// ErrUnauthorized is returned when a session token cannot be resolved to an identity.
var ErrUnauthorized = errors.New("auth: unauthorized")

// Provider resolves a caller's session token into a trusted identity. Token
// issuance and account verification live outside the engine; every ownership
// check downstream trusts the identity returned here.
type Provider interface {
	Identify(ctx context.Context, token string) (booking.Identity, error)
}
