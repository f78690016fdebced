package middlewarex

import (
	"net/http"
	"strings"

	"catalogview/internal/datasource/graphql"
)

// ForwardBearer captures the caller's bearer token so upstream GraphQL calls run with
// the caller's identity. The token is not validated here; the upstream API does that.
func ForwardBearer(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if !strings.HasPrefix(auth, "Bearer ") || token == "" {
				if required {
					http.Error(w, "missing bearer", http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(graphql.WithBearer(r.Context(), token)))
		})
	}
}
