package services

import (
	"context"
	"database/sql"

	"github.com/verdantlab/floraid/internal/server/models"
	"github.com/verdantlab/floraid/internal/server/repositories/repomanager"
)

// IdentificationService records user reports of wrong identifications.
type IdentificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewIdentificationService(db *sql.DB, repomanager repomanager.RepositoryManager) *IdentificationService {
	return &IdentificationService{db: db, repomanager: repomanager}
}

// Report stores one incorrect-identification report for the given account.
// Unknown species references surface as common.ErrorNotFound.
func (s *IdentificationService) Report(ctx context.Context, accountID, identificationID, correctSpeciesID, incorrectSpeciesID int64) (*models.IncorrectIdentification, error) {
	repo := s.repomanager.Identifications(s.db)
	return repo.Create(ctx, &models.IncorrectIdentification{
		IdentificationID:   identificationID,
		CorrectSpeciesID:   correctSpeciesID,
		IncorrectSpeciesID: incorrectSpeciesID,
		ReportedBy:         accountID,
	})
}
