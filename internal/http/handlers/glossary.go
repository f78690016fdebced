package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"catalogview/internal/domain/glossary"
	glossarysvc "catalogview/internal/services/glossary"
	"catalogview/internal/store/repositories"

	"github.com/go-chi/chi/v5"
)

// GetGlossaryNode returns one live node by {uri}
func GetGlossaryNode(editor *glossarysvc.Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := editor.Get(r.Context(), chi.URLParam(r, "uri"))
		if err != nil {
			writeEditorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, n)
	}
}

// SaveGlossaryNode creates or updates a node and refreshes open glossary views
func SaveGlossaryNode(editor *glossarysvc.Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var n glossary.Node
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		refreshed, err := editor.Save(r.Context(), &n)
		if err != nil {
			writeEditorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"node": n, "refreshed": refreshed})
	}
}

// DeleteGlossaryNode soft-deletes {uri} and refreshes open glossary views
func DeleteGlossaryNode(editor *glossarysvc.Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshed, err := editor.Delete(r.Context(), chi.URLParam(r, "uri"))
		if err != nil {
			writeEditorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"refreshed": refreshed})
	}
}

func writeEditorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, glossarysvc.ErrInvalidNode):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repositories.ErrNotFound):
		http.Error(w, "glossary node not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
