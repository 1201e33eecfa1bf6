// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/verdantlab/floraid/internal/dbx"
	"github.com/verdantlab/floraid/internal/server/migrations"
	"github.com/verdantlab/floraid/internal/server/repositories/accounts"
	"github.com/verdantlab/floraid/internal/server/repositories/identifications"
	"github.com/verdantlab/floraid/internal/server/repositories/species"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Accounts returns an accounts.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

// Species returns a species.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Species(db dbx.DBTX) species.Repository {
	return species.NewPostgresRepository(db)
}

// Identifications returns an identifications.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Identifications(db dbx.DBTX) identifications.Repository {
	return identifications.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
