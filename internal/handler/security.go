package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/nordmarket/backend/internal/domain/auth"
)

// principalKey is the context key for the authenticated principal.
type principalKey struct{}

// PrincipalFromContext extracts the authenticated principal stored by the
// Authenticator middleware.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(auth.Principal)
	return p, ok
}

// HashToken computes the peppered HMAC-SHA256 of a raw API token. Only this
// hash is ever stored or compared; the raw token exists client-side only.
func HashToken(pepper []byte, token string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Authenticator returns a middleware that authenticates requests via Bearer
// tokens. The token is hashed with the pepper and resolved to a principal;
// HMAC comparison of raw tokens never happens server-side, so lookup by hash
// is not subject to timing side-channels on the token value itself.
func Authenticator(tokens auth.TokenRepository, pepper []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, r, http.StatusUnauthorized, "missing bearer token")
				return
			}

			p, err := tokens.PrincipalByTokenHash(r.Context(), HashToken(pepper, token))
			if err != nil {
				// Lookup failures and unknown tokens look the same to clients.
				writeError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}
			if !p.Role.Valid() {
				writeError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey{}, *p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}
