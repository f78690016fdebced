package glossary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalogview/internal/domain/glossary"
	"catalogview/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

var ErrInvalidNode = errors.New("invalid glossary node")

// Refresher re-fetches the live list views of a collection
type Refresher interface {
	RefreshCollection(name string) int
}

// Editor writes glossary nodes and refreshes the searchGlossary views they invalidate
type Editor struct {
	repo      repositories.GlossaryRepository
	refresher Refresher
}

// NewEditor creates an editor; refresher may be nil
func NewEditor(repo repositories.GlossaryRepository, refresher Refresher) *Editor {
	return &Editor{repo: repo, refresher: refresher}
}

// Get returns a live node
func (e *Editor) Get(ctx context.Context, nodeURI string) (*glossary.Node, error) {
	n, err := e.repo.FindByURI(ctx, nodeURI)
	if err != nil {
		return nil, &ServiceError{Op: "get", Err: err}
	}
	return n, nil
}

// Save creates or updates a node whose parent, if any, is live. It returns how many
// views were refreshed.
func (e *Editor) Save(ctx context.Context, n *glossary.Node) (int, error) {
	n.NodeURI = strings.TrimSpace(n.NodeURI)
	n.ParentURI = strings.TrimSpace(n.ParentURI)
	if err := n.Validate(); err != nil {
		return 0, &ServiceError{Op: "save", Err: fmt.Errorf("%w: %v", ErrInvalidNode, err)}
	}
	if n.ParentURI == n.NodeURI {
		return 0, &ServiceError{Op: "save", Err: fmt.Errorf("%w: node %s cannot be its own parent", ErrInvalidNode, n.NodeURI)}
	}
	if n.ParentURI != "" {
		if _, err := e.repo.FindByURI(ctx, n.ParentURI); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return 0, &ServiceError{Op: "save", Err: fmt.Errorf("%w: parent %s not found", ErrInvalidNode, n.ParentURI)}
			}
			return 0, &ServiceError{Op: "save", Err: err}
		}
	}

	if err := e.repo.Save(ctx, n); err != nil {
		return 0, &ServiceError{Op: "save", Err: err}
	}
	log.Info().Str("node_uri", n.NodeURI).Str("type", string(n.Type)).Msg("glossary node saved")
	return e.refresh(), nil
}

// Delete soft-deletes a node. Its children stay and surface as roots of the tree.
func (e *Editor) Delete(ctx context.Context, nodeURI string) (int, error) {
	if err := e.repo.SoftDelete(ctx, nodeURI); err != nil {
		return 0, &ServiceError{Op: "delete", Err: err}
	}
	log.Info().Str("node_uri", nodeURI).Msg("glossary node deleted")
	return e.refresh(), nil
}

func (e *Editor) refresh() int {
	if e.refresher == nil {
		return 0
	}
	return e.refresher.RefreshCollection(Operation)
}
