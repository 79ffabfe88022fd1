package models

import "time"

// Location is a geographic search area discovered by the location
// enumeration crawler. Rows are created once and never mutated; the property
// crawler reads them purely as crawl seeds.
type Location struct {
	ID                 string
	Title              string
	Path               string
	Category           string
	IsInterestZone     bool
	NumberOfProperties int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
