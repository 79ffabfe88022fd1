package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/LeosDev13/idealista-scraper/models"
	"github.com/LeosDev13/idealista-scraper/utils"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS locations (
		id                   TEXT PRIMARY KEY,
		title                TEXT NOT NULL,
		path                 TEXT NOT NULL,
		category             TEXT NOT NULL DEFAULT '',
		is_interest_zone     BOOLEAN NOT NULL DEFAULT FALSE,
		number_of_properties INTEGER NOT NULL DEFAULT 0,
		created_at           TIMESTAMPTZ NOT NULL,
		updated_at           TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS properties (
		id                    TEXT PRIMARY KEY,
		price_amount          NUMERIC(12,2) NOT NULL DEFAULT 0,
		price_currency        VARCHAR(3) NOT NULL DEFAULT 'EUR',
		title                 TEXT NOT NULL DEFAULT '',
		description           TEXT NOT NULL DEFAULT '',
		address               TEXT NOT NULL DEFAULT '',
		square_meters         INTEGER NOT NULL DEFAULT 0,
		rooms                 INTEGER NOT NULL DEFAULT 0,
		bathrooms             INTEGER NOT NULL DEFAULT 0,
		has_garage            BOOLEAN NOT NULL DEFAULT FALSE,
		has_garden            BOOLEAN NOT NULL DEFAULT FALSE,
		has_pool              BOOLEAN NOT NULL DEFAULT FALSE,
		has_terrace           BOOLEAN NOT NULL DEFAULT FALSE,
		is_new_development    BOOLEAN NOT NULL DEFAULT FALSE,
		needs_renovation      BOOLEAN NOT NULL DEFAULT FALSE,
		is_in_good_condition  BOOLEAN NOT NULL DEFAULT FALSE,
		agency_name           TEXT NOT NULL DEFAULT '',
		location              TEXT NOT NULL DEFAULT '',
		is_illegally_occupied BOOLEAN NOT NULL DEFAULT FALSE,
		url                   TEXT NOT NULL DEFAULT '',
		location_id           TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_properties_location ON properties(location_id);
	CREATE INDEX IF NOT EXISTS idx_properties_price    ON properties(price_amount);
`

const postgresInsertLocation = `
	INSERT INTO locations (id, title, path, category, is_interest_zone, number_of_properties, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO NOTHING
`

const postgresInsertProperty = `
	INSERT INTO properties (
		id, price_amount, price_currency, title, description, address,
		square_meters, rooms, bathrooms, has_garage, has_garden, has_pool,
		has_terrace, is_new_development, needs_renovation, is_in_good_condition,
		agency_name, location, is_illegally_occupied, url, location_id
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	ON CONFLICT (id) DO NOTHING
`

// PostgresGateway persists crawled data to PostgreSQL.
type PostgresGateway struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresGateway opens a connection, waits for the server to become
// reachable, and creates the schema if missing.
func NewPostgresGateway(dsn string, logger *utils.Logger) (*PostgresGateway, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := utils.Retry(logger, "postgres-ping", 5, 2*time.Second, db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return &PostgresGateway{db: db, logger: logger}, nil
}

// InsertLocations writes enumeration results row by row, skipping failures.
func (g *PostgresGateway) InsertLocations(ctx context.Context, locations []*models.Location) error {
	rows := make([][]any, len(locations))
	for i, l := range locations {
		rows[i] = []any{
			l.ID, l.Title, l.Path, l.Category,
			l.IsInterestZone, l.NumberOfProperties, l.CreatedAt, l.UpdatedAt,
		}
	}
	return execPerRow(ctx, g.db, g.logger, postgresInsertLocation, rows, locationIDs(locations))
}

// InsertProperties writes one extracted batch row by row, skipping failures.
func (g *PostgresGateway) InsertProperties(ctx context.Context, properties []*models.Property) error {
	rows := make([][]any, len(properties))
	for i, p := range properties {
		rows[i] = []any{
			p.ID, p.Price.Amount(), p.Price.Currency(), p.Title, p.Description, p.Address,
			p.SquareMeters, p.Rooms, p.Bathrooms, p.HasGarage, p.HasGarden, p.HasPool,
			p.HasTerrace, p.IsNewDevelopment, p.NeedsRenovation, p.IsInGoodCondition,
			p.AgencyName, p.Location, p.IsIllegallyOccupied, p.URL, p.LocationID,
		}
	}
	return execPerRow(ctx, g.db, g.logger, postgresInsertProperty, rows, propertyIDs(properties))
}

// GetLocations returns all locations, busiest first.
func (g *PostgresGateway) GetLocations(ctx context.Context) ([]*models.Location, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT id, title, path, category, is_interest_zone, number_of_properties, created_at, updated_at
		FROM locations
		ORDER BY number_of_properties DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: get locations: %w", err)
	}
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		l := &models.Location{}
		if err := rows.Scan(
			&l.ID, &l.Title, &l.Path, &l.Category,
			&l.IsInterestZone, &l.NumberOfProperties, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (g *PostgresGateway) Close() error {
	return g.db.Close()
}
