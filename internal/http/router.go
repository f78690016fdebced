package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"catalogview/internal/datasource/graphql"
	"catalogview/internal/http/handlers"
	middlewarex "catalogview/internal/http/middleware"
	glossarysvc "catalogview/internal/services/glossary"
	"catalogview/internal/services/session"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Pinger is satisfied by *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDependencies holds all dependencies for the HTTP router
type RouterDependencies struct {
	Catalog         *graphql.Catalog
	Sessions        *session.Service
	Glossary        *glossarysvc.Service
	GlossaryBackend string              // "postgres" or "graphql", reported by /health
	Editor          *glossarysvc.Editor // nil without a database
	DB              Pinger              // nil without a database
	RequireBearer   bool
}

// NewRouter creates the HTTP router
func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	// Health check (public)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":           "ok",
			"sessions":         deps.Sessions.Len(),
			"glossary_backend": deps.GlossaryBackend,
		}
		code := http.StatusOK
		if deps.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			body["db"] = "ok"
			if err := deps.DB.Ping(ctx); err != nil {
				log.Warn().Err(err).Msg("health: db ping failed")
				body["status"] = "degraded"
				body["db"] = "unreachable"
				code = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(body)
	})

	r.Group(func(r chi.Router) {
		r.Use(middlewarex.ForwardBearer(deps.RequireBearer))

		r.Get("/collections", handlers.ListCollections(deps.Catalog))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", handlers.CreateSession(deps.Sessions))

			r.Route("/{id}", func(r chi.Router) {
				r.Use(middlewarex.SessionContext)

				r.Get("/", handlers.GetSession(deps.Sessions))
				r.Delete("/", handlers.CloseSession(deps.Sessions))
				r.Patch("/filter", handlers.PatchFilter(deps.Sessions))
				r.Post("/commit", handlers.Commit(deps.Sessions))
				r.Post("/refresh", handlers.Refresh(deps.Sessions))
				r.Post("/page/{n}", handlers.SetPage(deps.Sessions))
			})
		})

		if deps.Glossary != nil {
			r.Get("/glossaries/tree", handlers.GlossaryTree(deps.Glossary))
		}
		if deps.Editor != nil {
			r.Route("/glossaries/nodes", func(r chi.Router) {
				r.Post("/", handlers.SaveGlossaryNode(deps.Editor))
				r.Get("/{uri}", handlers.GetGlossaryNode(deps.Editor))
				r.Delete("/{uri}", handlers.DeleteGlossaryNode(deps.Editor))
			})
		}
	})

	return r
}
