package middleware

import (
	"context"
	"net/http"
	"strings"

	"neighborguard/internal/platform/apperr"
	"neighborguard/internal/platform/problem"
	"neighborguard/internal/ports/auth"
)

type ctxKey string

const (
	claimsKey   ctxKey = "claims"
	identityKey ctxKey = "identity"
)

// HeaderUserID es el header de identidad en modo dev (sin verifier).
const HeaderUserID = "X-User-ID"

// AuthContext:
// - Si verifier != nil y viene Bearer token => Verify(); token rechazado => 401.
// - Si verifier == nil => modo dev: si viene header X-User-ID => setea claims.
// - Si no hay claims, el request sigue igual; Identity decide.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				if uid := strings.TrimSpace(r.Header.Get(HeaderUserID)); uid != "" {
					ctx := context.WithValue(r.Context(), claimsKey, auth.Claims{UserID: uid})
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}

				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				problem.Error(w, r, apperr.Unauthorized("invalid bearer token"))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Identity resuelve los claims (o su ausencia) a un usuario existente.
// Un id que no existe => 404; sin id y sin usuario por defecto => 401.
func Identity(resolver auth.IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := GetClaims(r.Context())

			id, err := resolver.ResolveIdentity(r.Context(), claims.UserID)
			if err != nil {
				problem.Error(w, r, err)
				return
			}

			tagUser(r, id.UserID)
			ctx := WithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func GetIdentity(ctx context.Context) (auth.Identity, bool) {
	v, ok := ctx.Value(identityKey).(auth.Identity)
	if !ok || strings.TrimSpace(v.UserID) == "" {
		return auth.Identity{}, false
	}
	return v, true
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
