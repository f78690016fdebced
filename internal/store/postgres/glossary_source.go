package postgres

import (
	"context"
	"fmt"

	"catalogview/internal/collection"
	"catalogview/internal/domain/glossary"
	"catalogview/internal/domain/page"
	"catalogview/internal/store/repositories"
)

// GlossarySource serves searchGlossary from the database
type GlossarySource struct {
	repo repositories.GlossaryRepository
}

func NewGlossarySource(repo repositories.GlossaryRepository) *GlossarySource {
	return &GlossarySource{repo: repo}
}

// Execute implements collection.DataSource. The nodeType field accepts one type name
// or a list of them.
func (s *GlossarySource) Execute(ctx context.Context, op collection.Operation) (collection.Response[glossary.Node], error) {
	types, err := nodeTypes(op.Filter.Fields["nodeType"])
	if err != nil {
		return collection.Response[glossary.Node]{Errors: []collection.RemoteError{{Message: err.Error(), Path: []string{"filter", "nodeType"}}}}, nil
	}

	f := op.Filter
	nodes, total, err := s.repo.Search(ctx, repositories.GlossarySearch{
		Term:   f.Term,
		Types:  types,
		Limit:  f.PageSize,
		Offset: f.Offset(),
	})
	if err != nil {
		return collection.Response[glossary.Node]{}, &collection.TransportError{Op: op.Name, Err: err}
	}

	values := make([]glossary.Node, 0, len(nodes))
	for _, n := range nodes {
		values = append(values, *n)
	}
	result := page.NewResult(values, total, f.Page, f.PageSize)
	return collection.Response[glossary.Node]{Data: &result}, nil
}

func nodeTypes(v any) ([]glossary.Type, error) {
	var raw []string
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		raw = []string{x}
	case []string:
		raw = x
	case []any:
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("invalid glossary node type: %v", item)
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("invalid glossary node type filter: %v", v)
	}

	types := make([]glossary.Type, 0, len(raw))
	for _, s := range raw {
		t, err := glossary.ParseType(s)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}
