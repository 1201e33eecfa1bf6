// Package identifications persists incorrect-identification reports.
package identifications

import (
	"context"

	"github.com/verdantlab/floraid/internal/server/models"
)

type Repository interface {
	// Create inserts a report. Missing referenced species or accounts
	// surface as common.ErrorNotFound.
	Create(ctx context.Context, report *models.IncorrectIdentification) (*models.IncorrectIdentification, error)
}
