package models

import "time"

// PlantSpecies is a catalogued species. ScientificName is unique; ImgKey is
// the object-storage key of the species image, resolved to presigned URLs
// on demand.
type PlantSpecies struct {
	ID             int64
	CommonName     string
	ScientificName string
	Genus          string
	ImgKey         string
	CreatedAt      time.Time
}
