package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalogview/internal/domain/glossary"
	"catalogview/internal/store/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// dbtx is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const glossaryColumns = `"nodeUri", "parentUri", "nodeType", label, path, readme, owner, created`

// glossaryRepository implements GlossaryRepository over the glossary_node table
type glossaryRepository struct {
	db dbtx
}

// NewGlossaryRepository creates a new glossary repository
func NewGlossaryRepository(db dbtx) *glossaryRepository {
	return &glossaryRepository{db: db}
}

// Search returns one page of live nodes ordered by path, plus the total match count
func (r *glossaryRepository) Search(ctx context.Context, q repositories.GlossarySearch) ([]*glossary.Node, int, error) {
	sql, args := buildGlossarySearch(q)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var nodes []*glossary.Node
	total := 0
	for rows.Next() {
		var n glossary.Node
		var parent *string
		var nodeType string
		if err := rows.Scan(&n.NodeURI, &parent, &nodeType, &n.Label, &n.Path, &n.Readme, &n.Owner, &n.Created.Time, &total); err != nil {
			return nil, 0, err
		}
		if err := fillNode(&n, parent, nodeType); err != nil {
			return nil, 0, err
		}
		nodes = append(nodes, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// past the last page the window count is unavailable
	if len(nodes) == 0 && q.Offset > 0 {
		countSQL, countArgs := buildGlossaryCount(q)
		if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
			return nil, 0, err
		}
	}
	return nodes, total, nil
}

// FindByURI finds a live node by its URI
func (r *glossaryRepository) FindByURI(ctx context.Context, nodeURI string) (*glossary.Node, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+glossaryColumns+`
		FROM glossary_node
		WHERE "nodeUri" = $1 AND deleted IS NULL`, nodeURI)

	var n glossary.Node
	var parent *string
	var nodeType string
	err := row.Scan(&n.NodeURI, &parent, &nodeType, &n.Label, &n.Path, &n.Readme, &n.Owner, &n.Created.Time)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := fillNode(&n, parent, nodeType); err != nil {
		return nil, err
	}
	return &n, nil
}

// Save inserts or updates a node and revives it if it was deleted
func (r *glossaryRepository) Save(ctx context.Context, n *glossary.Node) error {
	if err := n.Validate(); err != nil {
		return err
	}
	var parent *string
	if n.ParentURI != "" {
		parent = &n.ParentURI
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO glossary_node ("nodeUri", "parentUri", "nodeType", label, path, readme, owner)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ("nodeUri") DO UPDATE
		SET "parentUri" = EXCLUDED."parentUri",
		    "nodeType" = EXCLUDED."nodeType",
		    label = EXCLUDED.label,
		    path = EXCLUDED.path,
		    readme = EXCLUDED.readme,
		    owner = EXCLUDED.owner,
		    deleted = NULL
		RETURNING created`,
		n.NodeURI, parent, n.Type.Column(), n.Label, n.Path, n.Readme, n.Owner).Scan(&n.Created.Time)
}

// SoftDelete marks a node deleted; its children keep pointing at it
func (r *glossaryRepository) SoftDelete(ctx context.Context, nodeURI string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE glossary_node
		SET deleted = now()
		WHERE "nodeUri" = $1 AND deleted IS NULL`, nodeURI)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func fillNode(n *glossary.Node, parent *string, nodeType string) error {
	if parent != nil {
		n.ParentURI = *parent
	}
	t, err := glossary.ParseType(nodeType)
	if err != nil {
		return fmt.Errorf("node %s: %w", n.NodeURI, err)
	}
	n.Type = t
	return nil
}

// glossaryWhere renders the shared WHERE clause; placeholders start at $1
func glossaryWhere(q repositories.GlossarySearch) (string, []any) {
	conds := []string{"deleted IS NULL"}
	var args []any
	if term := strings.TrimSpace(q.Term); term != "" {
		args = append(args, "%"+escapeLike(term)+"%")
		conds = append(conds, fmt.Sprintf("(label ILIKE $%d OR readme ILIKE $%d)", len(args), len(args)))
	}
	if len(q.Types) > 0 {
		cols := make([]string, 0, len(q.Types))
		for _, t := range q.Types {
			cols = append(cols, t.Column())
		}
		args = append(args, cols)
		conds = append(conds, fmt.Sprintf(`"nodeType" = ANY($%d)`, len(args)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func buildGlossarySearch(q repositories.GlossarySearch) (string, []any) {
	where, args := glossaryWhere(q)
	sql := "SELECT " + glossaryColumns + ", COUNT(*) OVER() AS total FROM glossary_node" + where +
		` ORDER BY path, "nodeUri"`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return sql, args
}

func buildGlossaryCount(q repositories.GlossarySearch) (string, []any) {
	where, args := glossaryWhere(q)
	return "SELECT COUNT(*) FROM glossary_node" + where, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
