package postgres

import (
	"catalogview/internal/store/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo { return &Repo{db: db} }

// Expose the underlying pool for health checks.
func (r *Repo) DB() *pgxpool.Pool { return r.db }

func (r *Repo) Glossary() repositories.GlossaryRepository { return NewGlossaryRepository(r.db) }
