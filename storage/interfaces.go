package storage

import (
	"context"

	"github.com/LeosDev13/idealista-scraper/models"
)

// Gateway is the persistence boundary for crawled data.
//
// Insert operations follow a continue-on-error policy: every row is
// attempted independently, each per-row failure is logged with the row's
// natural id, and the call fails only when no row at all could be written.
// A whole-batch abort on one bad row is never acceptable here.
type Gateway interface {
	InsertLocations(ctx context.Context, locations []*models.Location) error
	InsertProperties(ctx context.Context, properties []*models.Property) error

	// GetLocations returns all stored locations ordered by
	// number_of_properties descending.
	GetLocations(ctx context.Context) ([]*models.Location, error)

	Close() error
}
