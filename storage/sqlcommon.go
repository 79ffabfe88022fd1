package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LeosDev13/idealista-scraper/models"
	"github.com/LeosDev13/idealista-scraper/utils"
)

// execPerRow applies query to every row independently. Failed rows are
// logged under their natural id and skipped; the batch fails only when no
// row succeeded.
func execPerRow(ctx context.Context, db *sql.DB, logger *utils.Logger, query string, rows [][]any, ids []string) error {
	if len(rows) == 0 {
		return nil
	}

	saved := 0
	for i, args := range rows {
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			logger.Error("storage: insert row %q failed: %v", ids[i], err)
			continue
		}
		saved++
	}

	logger.Debug("storage: inserted %d/%d rows", saved, len(rows))
	if saved == 0 {
		return fmt.Errorf("storage: all %d rows failed to insert", len(rows))
	}
	return nil
}

func propertyIDs(properties []*models.Property) []string {
	ids := make([]string, len(properties))
	for i, p := range properties {
		ids[i] = p.ID
	}
	return ids
}

func locationIDs(locations []*models.Location) []string {
	ids := make([]string, len(locations))
	for i, l := range locations {
		ids[i] = l.ID
	}
	return ids
}
