package middlewarex

import (
	"context"
	"net/http"

	"catalogview/internal/notify"

	"github.com/go-chi/chi/v5"
)

// SessionContext tags the request context with the {id} route parameter so
// notifications and logs raised while serving it carry the session id.
func SessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chi.URLParam(r, "id"); id != "" {
			r = r.WithContext(notify.WithSession(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// Detached returns a context that outlives the request but keeps its values
// (bearer token, session id). Fetches started by a request use it.
func Detached(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}
