package species

import (
	"context"
	"database/sql"
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PostgresRepository) Exists(ctx context.Context, scientificName string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM plant_species WHERE scientific_name = $1)
		 `

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, scientificName).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Create(ctx context.Context, sp *models.PlantSpecies) (*models.PlantSpecies, error) {
	query :=
		`INSERT INTO plant_species (common_name, scientific_name, genus, img_key)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		sp.CommonName, sp.ScientificName, sp.Genus, sp.ImgKey).Scan(&sp.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return sp, nil
}

func (r *PostgresRepository) FindByScientificName(ctx context.Context, scientificName string) (*models.PlantSpecies, error) {
	query :=
		`SELECT id, common_name, scientific_name, genus, img_key, created_at
		 FROM plant_species
		 WHERE scientific_name = $1
		 `

	sp := &models.PlantSpecies{}
	err := r.db.QueryRowContext(ctx, query, scientificName).Scan(
		&sp.ID, &sp.CommonName, &sp.ScientificName, &sp.Genus, &sp.ImgKey, &sp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return sp, nil
}
