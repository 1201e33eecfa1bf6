package models

import "time"

// IncorrectIdentification is a user report that the identifier returned the
// wrong species for a submission. Species references are foreign keys into
// plant_species.
type IncorrectIdentification struct {
	ID                 int64
	IdentificationID   int64
	CorrectSpeciesID   int64
	IncorrectSpeciesID int64
	ReportedBy         int64
	CreatedAt          time.Time
}
