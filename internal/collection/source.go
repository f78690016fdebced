package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"catalogview/internal/domain/page"
)

// Operation identifies a query and carries its variables
type Operation struct {
	Name      string
	Filter    page.Filter
	Variables map[string]any // non-filter variables, e.g. environmentUri
}

// RemoteError is one entry of a GraphQL-style errors list
type RemoteError struct {
	Message string   `json:"message"`
	Path    []string `json:"path,omitempty"`
}

func (e RemoteError) Error() string {
	if len(e.Path) > 0 {
		return e.Message + " (at " + strings.Join(e.Path, ".") + ")"
	}
	return e.Message
}

// Response is what a DataSource resolves with. A non-empty Errors list means Data is ignored.
type Response[T any] struct {
	Data   *page.Result[T]
	Errors []RemoteError
}

// DataSource executes a collection query
type DataSource[T any] interface {
	Execute(ctx context.Context, op Operation) (Response[T], error)
}

// DataSourceFunc adapts a function to DataSource
type DataSourceFunc[T any] func(ctx context.Context, op Operation) (Response[T], error)

func (f DataSourceFunc[T]) Execute(ctx context.Context, op Operation) (Response[T], error) {
	return f(ctx, op)
}

// RawJSON serves the pages of src with every node encoded as JSON, so a typed source
// can back a session that passes rows through untouched
func RawJSON[T any](src DataSource[T]) DataSource[json.RawMessage] {
	return DataSourceFunc[json.RawMessage](func(ctx context.Context, op Operation) (Response[json.RawMessage], error) {
		resp, err := src.Execute(ctx, op)
		if err != nil {
			return Response[json.RawMessage]{}, err
		}
		out := Response[json.RawMessage]{Errors: resp.Errors}
		if resp.Data == nil {
			return out, nil
		}
		nodes := make([]json.RawMessage, 0, len(resp.Data.Nodes))
		for _, n := range resp.Data.Nodes {
			b, err := json.Marshal(n)
			if err != nil {
				return Response[json.RawMessage]{}, &TransportError{Op: op.Name, Err: fmt.Errorf("encode node: %w", err)}
			}
			nodes = append(nodes, b)
		}
		r := page.Result[json.RawMessage]{
			Nodes:       nodes,
			Count:       resp.Data.Count,
			Page:        resp.Data.Page,
			Pages:       resp.Data.Pages,
			PageSize:    resp.Data.PageSize,
			HasNext:     resp.Data.HasNext,
			HasPrevious: resp.Data.HasPrevious,
		}
		out.Data = &r
		return out, nil
	})
}

// Notifier receives one human-readable message per failed fetch
type Notifier interface {
	Report(ctx context.Context, message string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, message string)

func (f NotifierFunc) Report(ctx context.Context, message string) { f(ctx, message) }

// TransportError wraps a DataSource call that failed before producing a response
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
