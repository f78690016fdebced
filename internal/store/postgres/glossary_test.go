package postgres

import (
	"context"
	"errors"
	"testing"

	"catalogview/internal/collection"
	"catalogview/internal/domain/glossary"
	"catalogview/internal/domain/page"
	"catalogview/internal/store/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGlossaryRepo struct {
	nodes []*glossary.Node
	err   error
	last  repositories.GlossarySearch
}

func (f *fakeGlossaryRepo) Search(_ context.Context, q repositories.GlossarySearch) ([]*glossary.Node, int, error) {
	f.last = q
	if f.err != nil {
		return nil, 0, f.err
	}
	end := q.Offset + q.Limit
	if end > len(f.nodes) {
		end = len(f.nodes)
	}
	if q.Offset >= len(f.nodes) {
		return nil, len(f.nodes), nil
	}
	return f.nodes[q.Offset:end], len(f.nodes), nil
}

func (f *fakeGlossaryRepo) FindByURI(context.Context, string) (*glossary.Node, error) {
	return nil, repositories.ErrNotFound
}

func (f *fakeGlossaryRepo) Save(context.Context, *glossary.Node) error { return nil }

func (f *fakeGlossaryRepo) SoftDelete(context.Context, string) error { return nil }

func TestBuildGlossarySearch(t *testing.T) {
	sql, args := buildGlossarySearch(repositories.GlossarySearch{
		Term:   "50%_off",
		Types:  []glossary.Type{glossary.TypeCategory, glossary.TypeTerm},
		Limit:  10,
		Offset: 20,
	})

	assert.Equal(t, `SELECT "nodeUri", "parentUri", "nodeType", label, path, readme, owner, created, COUNT(*) OVER() AS total`+
		` FROM glossary_node WHERE deleted IS NULL AND (label ILIKE $1 OR readme ILIKE $1) AND "nodeType" = ANY($2)`+
		` ORDER BY path, "nodeUri" LIMIT $3 OFFSET $4`, sql)
	assert.Equal(t, []any{`%50\%\_off%`, []string{"category", "term"}, 10, 20}, args)
}

func TestBuildGlossarySearchUnfiltered(t *testing.T) {
	sql, args := buildGlossarySearch(repositories.GlossarySearch{Term: "  "})
	assert.Contains(t, sql, "WHERE deleted IS NULL ORDER BY")
	assert.NotContains(t, sql, "LIMIT")
	assert.Empty(t, args)

	count, countArgs := buildGlossaryCount(repositories.GlossarySearch{Term: "rev"})
	assert.Equal(t, "SELECT COUNT(*) FROM glossary_node WHERE deleted IS NULL AND (label ILIKE $1 OR readme ILIKE $1)", count)
	assert.Equal(t, []any{"%rev%"}, countArgs)
}

func TestGlossarySourcePages(t *testing.T) {
	repo := &fakeGlossaryRepo{}
	for _, uri := range []string{"g1", "c1", "t1", "t2", "t3"} {
		repo.nodes = append(repo.nodes, &glossary.Node{NodeURI: uri, Type: glossary.TypeTerm})
	}
	src := NewGlossarySource(repo)

	resp, err := src.Execute(context.Background(), collection.Operation{
		Name:   "searchGlossary",
		Filter: page.Filter{Term: "rev", Page: 2, PageSize: 2, Fields: map[string]any{"nodeType": []any{"Term", "category"}}},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Data)

	assert.Equal(t, repositories.GlossarySearch{
		Term:   "rev",
		Types:  []glossary.Type{glossary.TypeTerm, glossary.TypeCategory},
		Limit:  2,
		Offset: 2,
	}, repo.last)
	assert.Equal(t, 5, resp.Data.Count)
	assert.Equal(t, 3, resp.Data.Pages)
	assert.True(t, resp.Data.HasNext)
	assert.True(t, resp.Data.HasPrevious)
	require.Len(t, resp.Data.Nodes, 2)
	assert.Equal(t, "t1", resp.Data.Nodes[0].NodeURI)
}

func TestGlossarySourceInvalidType(t *testing.T) {
	src := NewGlossarySource(&fakeGlossaryRepo{})
	resp, err := src.Execute(context.Background(), collection.Operation{
		Name:   "searchGlossary",
		Filter: page.Filter{Page: 1, PageSize: 10, Fields: map[string]any{"nodeType": "folder"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0].Message, "folder")
}

func TestGlossarySourceDatabaseError(t *testing.T) {
	src := NewGlossarySource(&fakeGlossaryRepo{err: errors.New("connection refused")})
	_, err := src.Execute(context.Background(), collection.Operation{Name: "searchGlossary", Filter: page.NewFilter(10)})

	var te *collection.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "connection refused", te.Error())
	assert.Equal(t, "searchGlossary", te.Op)
}

func TestNodeTypes(t *testing.T) {
	types, err := nodeTypes("GLOSSARY")
	require.NoError(t, err)
	assert.Equal(t, []glossary.Type{glossary.TypeGlossary}, types)

	types, err = nodeTypes(nil)
	require.NoError(t, err)
	assert.Nil(t, types)

	_, err = nodeTypes(42)
	assert.Error(t, err)
	_, err = nodeTypes([]any{"term", 1})
	assert.Error(t, err)
}
