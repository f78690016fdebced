// Package glossary builds the glossary → category → term picker tree.
package glossary

import (
	"context"
	"fmt"
	"strings"

	"catalogview/internal/collection"
	"catalogview/internal/domain/glossary"
	"catalogview/internal/domain/page"
	"catalogview/internal/hierarchy"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Operation is the query name sent to the data source
const Operation = "searchGlossary"

// ServiceError represents a glossary service error
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return "glossary service " + e.Op + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Tree is an assembled glossary forest
type Tree struct {
	Roots      []*hierarchy.TreeNode[glossary.Node] `json:"roots"`
	Duplicates []hierarchy.Duplicate               `json:"duplicates,omitempty"`
	Count      int                                 `json:"count"`
}

// Service loads every matching node and assembles the tree
type Service struct {
	source      collection.DataSource[glossary.Node]
	pageSize    int
	concurrency int
}

// NewService creates a tree service fetching pageSize nodes per request
func NewService(source collection.DataSource[glossary.Node], pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = 10000
	}
	return &Service{source: source, pageSize: pageSize, concurrency: 4}
}

// Tree returns the forest of nodes matching term (all nodes when term is empty)
func (s *Service) Tree(ctx context.Context, term string) (*Tree, error) {
	filter := page.Filter{Term: strings.TrimSpace(term), Page: 1, PageSize: s.pageSize}

	first, err := s.fetch(ctx, filter)
	if err != nil {
		return nil, &ServiceError{Op: "tree", Err: err}
	}

	pages := [][]glossary.Node{first.Nodes}
	if first.Pages > 1 {
		rest := make([][]glossary.Node, first.Pages-1)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for p := 2; p <= first.Pages; p++ {
			f := filter.Clone()
			f.Page = p
			slot := &rest[p-2]
			g.Go(func() error {
				r, err := s.fetch(gctx, f)
				if err != nil {
					return fmt.Errorf("page %d: %w", f.Page, err)
				}
				*slot = r.Nodes
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, &ServiceError{Op: "tree", Err: err}
		}
		pages = append(pages, rest...)
	}

	var flat []hierarchy.FlatNode[glossary.Node]
	for _, nodes := range pages {
		for _, n := range nodes {
			flat = append(flat, hierarchy.FlatNode[glossary.Node]{ID: n.NodeURI, ParentID: n.ParentURI, Payload: n})
		}
	}

	forest := hierarchy.Assemble(flat)
	if err := forest.Err(); err != nil {
		log.Warn().Err(err).Str("term", filter.Term).Msg("glossary contains duplicate nodes")
	}
	log.Debug().
		Str("term", filter.Term).
		Int("nodes", len(flat)).
		Int("roots", len(forest.Roots)).
		Int("pages", len(pages)).
		Msg("glossary tree assembled")

	return &Tree{Roots: forest.Roots, Duplicates: forest.Duplicates, Count: len(flat)}, nil
}

// fetch runs one page; the first remote error becomes the error, as in a list view
func (s *Service) fetch(ctx context.Context, f page.Filter) (*page.Result[glossary.Node], error) {
	resp, err := s.source.Execute(ctx, collection.Operation{Name: Operation, Filter: f})
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, resp.Errors[0]
	}
	if resp.Data == nil {
		empty := page.Empty[glossary.Node](f.PageSize)
		return &empty, nil
	}
	return resp.Data, nil
}
