package identifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/verdantlab/floraid/internal/common"
	"github.com/verdantlab/floraid/internal/dbx"
	"github.com/verdantlab/floraid/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func (r *PostgresRepository) Create(ctx context.Context, report *models.IncorrectIdentification) (*models.IncorrectIdentification, error) {
	query :=
		`INSERT INTO incorrect_identifications (identification_id, correct_species_id, incorrect_species_id, reported_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		report.IdentificationID, report.CorrectSpeciesID, report.IncorrectSpeciesID, report.ReportedBy).Scan(&report.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return report, nil
}
