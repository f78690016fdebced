package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"catalogview/internal/collection"
	"catalogview/internal/datasource/graphql"
	"catalogview/internal/domain/page"
	middlewarex "catalogview/internal/http/middleware"
	"catalogview/internal/services/session"

	"github.com/go-chi/chi/v5"
)

// SessionView is the JSON shape of a session
type SessionView struct {
	ID         string                            `json:"id"`
	Collection string                            `json:"collection"`
	Filter     page.Filter                       `json:"filter"`
	State      collection.State[json.RawMessage] `json:"state"`
}

// TriggerView answers commit, refresh and page requests
type TriggerView struct {
	Issued bool `json:"issued"`
	SessionView
}

func viewOf(s *session.Session) SessionView {
	return SessionView{
		ID:         s.ID,
		Collection: s.Collection,
		Filter:     s.Controller.CurrentFilter(),
		State:      s.Controller.CurrentState(),
	}
}

// CreateSession opens a list view; it does not fetch
func CreateSession(sessions *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req session.CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		sess, err := sessions.Create(req)
		if err != nil {
			var unknown *graphql.ErrUnknownDocument
			switch {
			case errors.Is(err, session.ErrMissingCollection):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.As(err, &unknown):
				http.Error(w, unknown.Error(), http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, viewOf(sess))
	}
}

// GetSession returns the filter and fetch state of a session
func GetSession(sessions *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookup(w, r, sessions)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, viewOf(sess))
	}
}

// PatchFilter merges a partial filter without fetching
func PatchFilter(sessions *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookup(w, r, sessions)
		if !ok {
			return
		}

		var patch page.Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		changed := sess.Controller.SetFilter(patch)
		writeJSON(w, http.StatusOK, map[string]any{
			"changed": changed,
			"filter":  sess.Controller.CurrentFilter(),
		})
	}
}

// Commit fetches if the filter changed since the last request
func Commit(sessions *session.Service) http.HandlerFunc {
	return trigger(sessions, func(r *http.Request, c *session.Controller) (bool, error) {
		return c.Commit(middlewarex.Detached(r)), nil
	})
}

// Refresh re-fetches the current filter
func Refresh(sessions *session.Service) http.HandlerFunc {
	return trigger(sessions, func(r *http.Request, c *session.Controller) (bool, error) {
		c.Refresh(middlewarex.Detached(r))
		return true, nil
	})
}

// SetPage moves to page {n}
func SetPage(sessions *session.Service) http.HandlerFunc {
	return trigger(sessions, func(r *http.Request, c *session.Controller) (bool, error) {
		n, err := strconv.Atoi(chi.URLParam(r, "n"))
		if err != nil {
			return false, err
		}
		return c.SetPage(middlewarex.Detached(r), n), nil
	})
}

// CloseSession drops a session
func CloseSession(sessions *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Close(chi.URLParam(r, "id")); err != nil {
			if errors.Is(err, session.ErrNotFound) {
				http.Error(w, "session not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// trigger runs fn and, with ?wait=true, answers only after the fetch completed
func trigger(sessions *session.Service, fn func(*http.Request, *session.Controller) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookup(w, r, sessions)
		if !ok {
			return
		}

		issued, err := fn(r, sess.Controller)
		if err != nil {
			http.Error(w, "invalid page number", http.StatusBadRequest)
			return
		}
		if issued && wantWait(r) {
			sess.Controller.Wait()
		}

		status := http.StatusAccepted
		if !issued || wantWait(r) {
			status = http.StatusOK
		}
		writeJSON(w, status, TriggerView{Issued: issued, SessionView: viewOf(sess)})
	}
}

func lookup(w http.ResponseWriter, r *http.Request, sessions *session.Service) (*session.Session, bool) {
	sess, err := sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
		} else {
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return nil, false
	}
	return sess, true
}

func wantWait(r *http.Request) bool {
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	return wait
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
