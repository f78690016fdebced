package repositories

import (
	"context"
	"errors"

	"catalogview/internal/domain/glossary"
)

// GlossarySearch selects glossary nodes. Empty fields do not filter.
type GlossarySearch struct {
	Term   string
	Types  []glossary.Type
	Limit  int
	Offset int
}

// GlossaryRepository defines the contract for glossary node data access
type GlossaryRepository interface {
	// Search returns one page of live nodes in hierarchy order and the total match count
	Search(ctx context.Context, q GlossarySearch) ([]*glossary.Node, int, error)
	FindByURI(ctx context.Context, nodeURI string) (*glossary.Node, error)
	Save(ctx context.Context, node *glossary.Node) error
	SoftDelete(ctx context.Context, nodeURI string) error
}

// ErrNotFound is returned by lookups that matched no live row
var ErrNotFound = errors.New("not found")
