package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"catalogview/internal/collection"
	"catalogview/internal/domain/page"
)

// Document is a list query and the dotted path of its paged object under `data`,
// e.g. "listWorksheets" or "getOrganization.environments".
type Document struct {
	Name  string `json:"name"`
	Field string `json:"field"`
	Query string `json:"-"`
}

func (d Document) path() []string {
	if d.Field == "" {
		return []string{d.Name}
	}
	return strings.Split(d.Field, ".")
}

// wirePage tolerates queries that select only count and nodes
type wirePage[T any] struct {
	Count       *int  `json:"count"`
	Page        *int  `json:"page"`
	Pages       *int  `json:"pages"`
	PageSize    *int  `json:"pageSize"`
	HasNext     *bool `json:"hasNext"`
	HasPrevious *bool `json:"hasPrevious"`
	Nodes       []T   `json:"nodes"`
}

// Source runs one Document for a collection controller
type Source[T any] struct {
	client *Client
	doc    Document
}

// NewSource binds a document to a client
func NewSource[T any](client *Client, doc Document) *Source[T] {
	return &Source[T]{client: client, doc: doc}
}

// Execute implements collection.DataSource. The filter travels as the `filter`
// variable; operation variables are sent alongside it.
func (s *Source[T]) Execute(ctx context.Context, op collection.Operation) (collection.Response[T], error) {
	vars := make(map[string]any, len(op.Variables)+1)
	for k, v := range op.Variables {
		vars[k] = v
	}
	vars["filter"] = op.Filter.Variables()

	env, err := s.client.Do(ctx, Request{OperationName: s.doc.Name, Query: s.doc.Query, Variables: vars})
	if err != nil {
		return collection.Response[T]{}, &collection.TransportError{Op: op.Name, Err: err}
	}
	if len(env.Errors) > 0 {
		return collection.Response[T]{Errors: env.Errors}, nil
	}

	result, err := decodePage[T](env.Data, s.doc.path(), op.Filter)
	if err != nil {
		return collection.Response[T]{}, &collection.TransportError{Op: op.Name, Err: err}
	}
	return collection.Response[T]{Data: result}, nil
}

// decodePage walks path inside data. A null anywhere on the path yields a nil result.
func decodePage[T any](data json.RawMessage, path []string, filter page.Filter) (*page.Result[T], error) {
	raw := data
	for _, key := range path {
		if isNull(raw) {
			return nil, nil
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		raw = obj[key]
	}
	if isNull(raw) {
		return nil, nil
	}

	var wp wirePage[T]
	if err := json.Unmarshal(raw, &wp); err != nil {
		return nil, fmt.Errorf("failed to decode page %s: %w", strings.Join(path, "."), err)
	}

	count := len(wp.Nodes)
	if wp.Count != nil {
		count = *wp.Count
	}
	pageSize := filter.PageSize
	if wp.PageSize != nil && *wp.PageSize > 0 {
		pageSize = *wp.PageSize
	}
	current := filter.Page
	if wp.Page != nil {
		current = *wp.Page
	}

	// trust the server's derived fields when it sent all of them
	if wp.Pages != nil && wp.HasNext != nil && wp.HasPrevious != nil && wp.Page != nil {
		nodes := wp.Nodes
		if nodes == nil {
			nodes = []T{}
		}
		return &page.Result[T]{
			Nodes:       nodes,
			Count:       count,
			Page:        current,
			Pages:       *wp.Pages,
			PageSize:    pageSize,
			HasNext:     *wp.HasNext,
			HasPrevious: *wp.HasPrevious,
		}, nil
	}
	r := page.NewResult(wp.Nodes, count, current, pageSize)
	return &r, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
