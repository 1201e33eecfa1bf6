// Package species persists the plant species catalogue.
package species

import (
	"context"

	"github.com/verdantlab/floraid/internal/server/models"
)

type Repository interface {
	Exists(ctx context.Context, scientificName string) (bool, error)
	Create(ctx context.Context, sp *models.PlantSpecies) (*models.PlantSpecies, error)
	FindByScientificName(ctx context.Context, scientificName string) (*models.PlantSpecies, error)
}
