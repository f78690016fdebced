// Package session keeps server-side list views alive between HTTP calls. Each session
// owns one collection controller bound to a catalog document.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"catalogview/internal/collection"
	"catalogview/internal/datasource/graphql"
	"catalogview/internal/domain/page"
	"catalogview/internal/notify"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound          = errors.New("session not found")
	ErrMissingCollection = errors.New("collection is required")
)

// ServiceError represents a session service error
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return "session service " + e.Op + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Controller is the controller type every session drives; nodes stay raw JSON
type Controller = collection.Controller[json.RawMessage]

// SourceFactory resolves a collection name to a data source
type SourceFactory func(collection string) (collection.DataSource[json.RawMessage], error)

// CatalogSources serves every document of catalog through client
func CatalogSources(client *graphql.Client, catalog *graphql.Catalog) SourceFactory {
	return func(name string) (collection.DataSource[json.RawMessage], error) {
		doc, err := catalog.Get(name)
		if err != nil {
			return nil, err
		}
		return graphql.NewSource[json.RawMessage](client, doc), nil
	}
}

// Override serves collection name from src and defers every other name to base
func Override(base SourceFactory, name string, src collection.DataSource[json.RawMessage]) SourceFactory {
	return func(requested string) (collection.DataSource[json.RawMessage], error) {
		if requested == name {
			return src, nil
		}
		return base(requested)
	}
}

// Session is one list view
type Session struct {
	ID         string      `json:"id"`
	Collection string      `json:"collection"`
	Created    time.Time   `json:"created"`
	Controller *Controller `json:"-"`

	lastUsed atomic.Int64 // unix nanos
}

func (s *Session) touch(now time.Time) { s.lastUsed.Store(now.UnixNano()) }

// LastUsed returns when the session was last looked up
func (s *Session) LastUsed() time.Time { return time.Unix(0, s.lastUsed.Load()) }

// CreateRequest opens a session; a zero Filter means the first page at the default size
type CreateRequest struct {
	Collection string         `json:"collection"`
	Filter     page.Filter    `json:"filter"`
	Variables  map[string]any `json:"variables,omitempty"`
}

// Options holds the paging bounds applied to new sessions
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Service manages the live sessions
type Service struct {
	sources  SourceFactory
	notifier collection.Notifier
	opts     Options
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates a new session service
func NewService(sources SourceFactory, notifier collection.Notifier, opts Options) *Service {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = page.DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = page.MaxPageSize
	}
	return &Service{
		sources:  sources,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create opens a session without fetching
func (s *Service) Create(req CreateRequest) (*Session, error) {
	name := strings.TrimSpace(req.Collection)
	if name == "" {
		return nil, &ServiceError{Op: "create", Err: ErrMissingCollection}
	}
	source, err := s.sources(name)
	if err != nil {
		return nil, &ServiceError{Op: "create", Err: err}
	}

	filter := req.Filter.Clone()
	if filter.PageSize == 0 {
		filter.PageSize = s.opts.DefaultPageSize
	}

	id := uuid.NewString()
	notifier := s.sessionNotifier(id)
	ctrl := collection.New(source, notifier,
		collection.WithOperation(name),
		collection.WithFilter(filter),
		collection.WithVariables(req.Variables),
		collection.WithMaxPageSize(s.opts.MaxPageSize),
		collection.WithLogger(log.Logger.With().Str("session_id", id).Logger()),
	)

	now := s.now()
	sess := &Session{ID: id, Collection: name, Created: now, Controller: ctrl}
	sess.touch(now)

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	log.Info().
		Str("session_id", id).
		Str("collection", name).
		Msg("session opened")
	return sess, nil
}

// sessionNotifier tags every report with the session id
func (s *Service) sessionNotifier(id string) collection.Notifier {
	if s.notifier == nil {
		return nil
	}
	return collection.NotifierFunc(func(ctx context.Context, message string) {
		s.notifier.Report(notify.WithSession(ctx, id), message)
	})
}

// Get returns a live session and marks it used
func (s *Service) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, &ServiceError{Op: "get", Err: ErrNotFound}
	}
	sess.touch(s.now())
	return sess, nil
}

// Close drops a session. Fetches still in flight complete into the detached controller.
func (s *Service) Close(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return &ServiceError{Op: "close", Err: ErrNotFound}
	}
	log.Info().Str("session_id", id).Msg("session closed")
	return nil
}

// Len returns the number of live sessions
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// IDs returns the live session ids, sorted
func (s *Service) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Expire removes sessions unused for longer than ttl and returns their ids
func (s *Service) Expire(ttl time.Duration) []string {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []string
	for id, sess := range s.sessions {
		if sess.LastUsed().Before(cutoff) {
			delete(s.sessions, id)
			expired = append(expired, id)
		}
	}
	sort.Strings(expired)
	return expired
}

// RefreshCollection re-fetches every live session of collection, e.g. after a mutation
// changed its rows. The fetches carry no caller identity, only the session id.
// It returns how many sessions were refreshed.
func (s *Service) RefreshCollection(name string) int {
	s.mu.RLock()
	var targets []*Session
	for _, sess := range s.sessions {
		if sess.Collection == name {
			targets = append(targets, sess)
		}
	}
	s.mu.RUnlock()

	for _, sess := range targets {
		sess.Controller.Refresh(notify.WithSession(context.Background(), sess.ID))
	}
	if len(targets) > 0 {
		log.Debug().Str("collection", name).Int("sessions", len(targets)).Msg("sessions refreshed")
	}
	return len(targets)
}

// Shutdown waits until the fetches of every live session have completed, or ctx ends
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	controllers := make([]*Controller, 0, len(s.sessions))
	for _, sess := range s.sessions {
		controllers = append(controllers, sess.Controller)
	}
	s.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, c := range controllers {
			c.Wait()
		}
	}()

	select {
	case <-done:
		log.Info().Int("sessions", len(controllers)).Msg("session fetches drained")
		return nil
	case <-ctx.Done():
		return &ServiceError{Op: "shutdown", Err: ctx.Err()}
	}
}
