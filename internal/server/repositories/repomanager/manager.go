package repomanager

import (
	"context"
	"database/sql"

	"github.com/verdantlab/floraid/internal/dbx"
	"github.com/verdantlab/floraid/internal/server/repositories/accounts"
	"github.com/verdantlab/floraid/internal/server/repositories/identifications"
	"github.com/verdantlab/floraid/internal/server/repositories/species"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Species(db dbx.DBTX) species.Repository
	Identifications(db dbx.DBTX) identifications.Repository
}
