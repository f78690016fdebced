// Package collection drives paginated, filterable fetches of server-side collections
// and exposes the latest requested page as a view-state.
//
// A Controller never fetches on its own: callers trigger fetches with SetPage, Refresh
// or Commit. Every fetch is tagged with a sequence number when issued and its
// completion is applied only while that tag is still the highest one issued, so a slow
// response can never overwrite the result of a later request.
package collection

import (
	"context"
	"fmt"
	"sync"

	"catalogview/internal/domain/page"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Controller owns the filter and fetch state of one list view
type Controller[T any] struct {
	source      DataSource[T]
	notifier    Notifier
	operation   string
	variables   map[string]any
	maxPageSize int
	logger      zerolog.Logger
	listener    func(State[T])

	mu      sync.Mutex
	done    *sync.Cond
	filter  page.Filter
	state   State[T]
	seq     uint64
	issued  *page.Filter // filter of the last issued request
	pending int
}

// Option configures a Controller
type Option func(*options)

type options struct {
	operation   string
	filter      page.Filter
	variables   map[string]any
	maxPageSize int
	logger      *zerolog.Logger
	listener    any
}

// WithOperation names the query sent to the DataSource
func WithOperation(name string) Option {
	return func(o *options) { o.operation = name }
}

// WithFilter sets the initial filter (normalized on construction)
func WithFilter(f page.Filter) Option {
	return func(o *options) { o.filter = f.Clone() }
}

// WithVariables adds non-filter variables sent with every fetch
func WithVariables(vars map[string]any) Option {
	return func(o *options) {
		o.variables = make(map[string]any, len(vars))
		for k, v := range vars {
			o.variables[k] = v
		}
	}
}

// WithMaxPageSize bounds the page size accepted by SetFilter (0 = unbounded)
func WithMaxPageSize(n int) Option {
	return func(o *options) { o.maxPageSize = n }
}

// WithLogger replaces the global zerolog logger
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// WithListener registers a callback receiving every state transition in order.
// It runs under the controller lock and must not call back into the controller.
// New panics when T differs from the controller's node type.
func WithListener[T any](fn func(State[T])) Option {
	return func(o *options) { o.listener = fn }
}

// New creates an Idle controller. It does not fetch.
func New[T any](source DataSource[T], notifier Notifier, opts ...Option) *Controller[T] {
	o := options{filter: page.NewFilter(page.DefaultPageSize)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.operation == "" {
		o.operation = "collection"
	}
	if notifier == nil {
		notifier = NotifierFunc(func(context.Context, string) {})
	}
	logger := log.Logger
	if o.logger != nil {
		logger = *o.logger
	}
	o.filter.Normalize(page.DefaultPageSize, o.maxPageSize)

	c := &Controller[T]{
		source:      source,
		notifier:    notifier,
		operation:   o.operation,
		variables:   o.variables,
		maxPageSize: o.maxPageSize,
		logger:      logger.With().Str("operation", o.operation).Logger(),
		filter:      o.filter,
		state:       idle[T](),
	}
	if o.listener != nil {
		fn, ok := o.listener.(func(State[T]))
		if !ok {
			panic(fmt.Sprintf("collection: listener %T does not match controller state %T", o.listener, State[T]{}))
		}
		c.listener = fn
	}
	c.done = sync.NewCond(&c.mu)
	return c
}

// Operation returns the query name
func (c *Controller[T]) Operation() string {
	return c.operation
}

// CurrentState returns a snapshot of the fetch state
func (c *Controller[T]) CurrentState() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// CurrentFilter returns a copy of the filter
func (c *Controller[T]) CurrentFilter() page.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter.Clone()
}

// SetFilter merges patch into the filter without fetching. The page is never reset
// implicitly; callers narrowing a search set Page to 1 in the same patch.
// It reports whether the filter changed.
func (c *Controller[T]) SetFilter(patch page.Patch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := patch.Apply(c.filter)
	next.Normalize(c.filter.PageSize, c.maxPageSize)
	if next.Equal(c.filter) {
		return false
	}
	c.filter = next
	return true
}

// SetPage moves to page n and fetches it. It is a no-op returning false when n equals
// the current page or lies outside [1, pages] of the latest known result; before any
// result has arrived every page is out of range.
//
// ctx is handed to the DataSource call and must outlive it.
func (c *Controller[T]) SetPage(ctx context.Context, n int) bool {
	c.mu.Lock()
	pages := 0
	if latest := c.state.Latest(); latest != nil {
		pages = latest.Pages
	}
	if n < 1 || n > pages || n == c.filter.Page {
		c.mu.Unlock()
		return false
	}
	c.filter.Page = n
	seq, op := c.issueLocked()
	c.mu.Unlock()

	c.launch(ctx, seq, op)
	return true
}

// Refresh re-fetches the current filter unconditionally, e.g. after a mutation
// invalidated the list.
func (c *Controller[T]) Refresh(ctx context.Context) {
	c.mu.Lock()
	seq, op := c.issueLocked()
	c.mu.Unlock()

	c.launch(ctx, seq, op)
}

// Commit fetches only if the filter differs from the one of the last issued request,
// which is how a search box commits on Enter. It reports whether a fetch was issued.
func (c *Controller[T]) Commit(ctx context.Context) bool {
	c.mu.Lock()
	if c.issued != nil && c.issued.Equal(c.filter) {
		c.mu.Unlock()
		return false
	}
	seq, op := c.issueLocked()
	c.mu.Unlock()

	c.launch(ctx, seq, op)
	return true
}

// Wait blocks until every issued DataSource call has returned, superseded ones included
func (c *Controller[T]) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pending > 0 {
		c.done.Wait()
	}
}

// issueLocked tags a new request and moves to Loading(previous)
func (c *Controller[T]) issueLocked() (uint64, Operation) {
	c.seq++
	c.pending++
	issued := c.filter.Clone()
	c.issued = &issued

	c.setLocked(loading(c.state.Latest(), c.seq))

	op := Operation{Name: c.operation, Filter: issued.Clone(), Variables: c.variables}
	c.logger.Debug().
		Uint64("seq", c.seq).
		Str("term", issued.Term).
		Int("page", issued.Page).
		Int("page_size", issued.PageSize).
		Msg("fetch issued")
	return c.seq, op
}

func (c *Controller[T]) launch(ctx context.Context, seq uint64, op Operation) {
	go func() {
		resp, err := c.execute(ctx, op)
		c.complete(ctx, seq, resp, err)
	}()
}

// execute shields the controller from a panicking DataSource
func (c *Controller[T]) execute(ctx context.Context, op Operation) (resp Response[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TransportError{Op: op.Name, Err: fmt.Errorf("data source panic: %v", r)}
		}
	}()
	return c.source.Execute(ctx, op)
}

func (c *Controller[T]) complete(ctx context.Context, seq uint64, resp Response[T], err error) {
	defer c.finish()

	c.mu.Lock()
	if seq != c.seq {
		c.logger.Debug().Uint64("seq", seq).Uint64("latest", c.seq).Msg("stale response discarded")
		c.mu.Unlock()
		return
	}

	previous := c.state.Previous
	messages := failureMessages(c.operation, resp, err)
	if messages == nil {
		c.setLocked(succeeded(resp.Data, seq))
		c.logger.Debug().Uint64("seq", seq).Int("count", resp.Data.Count).Msg("fetch succeeded")
		if !resp.Data.Consistent() {
			c.logger.Warn().
				Int("count", resp.Data.Count).
				Int("page", resp.Data.Page).
				Int("pages", resp.Data.Pages).
				Msg("inconsistent paging fields in response")
		}
		c.mu.Unlock()
		return
	}

	c.setLocked(failed(messages, previous, seq))
	c.mu.Unlock()

	c.logger.Warn().
		Uint64("seq", seq).
		Str("detail", messages[0]).
		Int("errors", len(messages)).
		Msg("fetch failed")
	c.notifier.Report(ctx, messages[0])
}

// finish releases Wait once a call, and its notification, is fully done
func (c *Controller[T]) finish() {
	c.mu.Lock()
	c.pending--
	c.done.Broadcast()
	c.mu.Unlock()
}

// failureMessages returns nil for a usable response
func failureMessages[T any](operation string, resp Response[T], err error) []string {
	if err != nil {
		return []string{err.Error()}
	}
	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		return messages
	}
	if resp.Data == nil {
		return []string{"no data returned for " + operation}
	}
	return nil
}

func (c *Controller[T]) setLocked(s State[T]) {
	c.state = s
	if c.listener != nil {
		c.listener(c.snapshotLocked())
	}
}

// snapshotLocked copies the state down to the node slices so callers cannot
// mutate the stored payloads
func (c *Controller[T]) snapshotLocked() State[T] {
	s := c.state
	s.Result = s.Result.Clone()
	s.Previous = s.Previous.Clone()
	if s.Errors != nil {
		s.Errors = append([]string(nil), s.Errors...)
	}
	return s
}
