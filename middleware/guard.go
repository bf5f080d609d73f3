package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/agrofair/fairauth"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the session claims attached by Guard.
func ClaimsFromContext(ctx context.Context) (*fairauth.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*fairauth.SessionClaims)
	return claims, ok
}

// Guard verifies the bearer token on each request and attaches the resulting
// session claims to the request context. Requests without a valid session get
// 401; roles outside the allowed set get 403. An empty allowed set admits any
// valid session.
func Guard(engine *fairauth.Engine, allowed ...fairauth.Role) func(http.Handler) http.Handler {
	allowedSet := make(map[fairauth.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := engine.VerifySession(r.Context(), token)
			if err != nil {
				if errors.Is(err, fairauth.ErrStoreUnavailable) {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if len(allowedSet) > 0 {
				if _, ok := allowedSet[claims.Role]; !ok {
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
