package handlers

import (
	"net/http"

	"catalogview/internal/datasource/graphql"
	glossarysvc "catalogview/internal/services/glossary"
)

// ListCollections returns the collection names sessions can be opened on
func ListCollections(catalog *graphql.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"collections": catalog.List()})
	}
}

// GlossaryTree returns the assembled glossary forest for ?term=
func GlossaryTree(svc *glossarysvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tree, err := svc.Tree(r.Context(), r.URL.Query().Get("term"))
		if err != nil {
			if serviceErr, ok := err.(*glossarysvc.ServiceError); ok {
				http.Error(w, serviceErr.Err.Error(), http.StatusBadGateway)
			} else {
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, tree)
	}
}
