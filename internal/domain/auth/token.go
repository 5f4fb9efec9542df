package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrTokenNotFound is returned when no principal matches a token hash.
var ErrTokenNotFound = errors.New("token not found")

// TokenRepository resolves an API token (by its HMAC hash) to the principal
// it authenticates, including the vendor affiliation needed for RBAC.
type TokenRepository interface {
	PrincipalByTokenHash(ctx context.Context, hash string) (*Principal, error)
}
