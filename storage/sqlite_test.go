package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeosDev13/idealista-scraper/models"
	"github.com/LeosDev13/idealista-scraper/utils"
)

func newTestSQLite(t *testing.T) *SQLiteGateway {
	t.Helper()
	g, err := NewSQLiteGateway(filepath.Join(t.TempDir(), "test.db"), utils.NewLogger(utils.LevelCritical))
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func testLocation(id string, count int) *models.Location {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	return &models.Location{
		ID: id, Title: "Loc " + id, Path: "/venta-viviendas/" + id + "/",
		Category: "city", IsInterestZone: true, NumberOfProperties: count,
		CreatedAt: now, UpdatedAt: now,
	}
}

func testProperty(t *testing.T, id string, amount float64) *models.Property {
	t.Helper()
	price, err := models.NewMoney(amount, "EUR")
	require.NoError(t, err)
	return &models.Property{
		ID: id, Price: price, Title: "Ad " + id, Rooms: 3, SquareMeters: 80,
		HasGarage: true, URL: "https://example.test/inmueble/" + id + "/", LocationID: "loc-1",
	}
}

func TestSQLiteLocationsRoundtrip(t *testing.T) {
	g := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, g.InsertLocations(ctx, []*models.Location{
		testLocation("a", 5),
		testLocation("b", 50),
		testLocation("c", 20),
	}))

	locations, err := g.GetLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locations, 3)

	// busiest first
	assert.Equal(t, "b", locations[0].ID)
	assert.Equal(t, "c", locations[1].ID)
	assert.Equal(t, "a", locations[2].ID)

	assert.True(t, locations[0].IsInterestZone)
	assert.Equal(t, 50, locations[0].NumberOfProperties)
	assert.Equal(t, 2025, locations[0].CreatedAt.Year())
}

func TestSQLiteInsertPropertiesSplitsMoney(t *testing.T) {
	g := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, g.InsertProperties(ctx, []*models.Property{testProperty(t, "X1", 150000)}))

	var amount float64
	var currency string
	var garage int
	row := g.db.QueryRow(`SELECT price_amount, price_currency, has_garage FROM properties WHERE id = 'X1'`)
	require.NoError(t, row.Scan(&amount, &currency, &garage))

	assert.InDelta(t, 150000, amount, 0.001)
	assert.Equal(t, "EUR", currency)
	assert.Equal(t, 1, garage)
}

func TestSQLiteInsertIgnoresDuplicateIDs(t *testing.T) {
	g := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, g.InsertProperties(ctx, []*models.Property{testProperty(t, "X1", 100)}))
	require.NoError(t, g.InsertProperties(ctx, []*models.Property{
		testProperty(t, "X1", 999),
		testProperty(t, "X2", 200),
	}))

	var count int
	require.NoError(t, g.db.QueryRow(`SELECT COUNT(*) FROM properties`).Scan(&count))
	assert.Equal(t, 2, count)

	// the first write wins: dedup is the store's concern, not extraction's
	var amount float64
	require.NoError(t, g.db.QueryRow(`SELECT price_amount FROM properties WHERE id = 'X1'`).Scan(&amount))
	assert.InDelta(t, 100, amount, 0.001)
}

func TestSQLiteEmptyBatchIsNoop(t *testing.T) {
	g := newTestSQLite(t)
	require.NoError(t, g.InsertProperties(context.Background(), nil))
	require.NoError(t, g.InsertLocations(context.Background(), nil))
}
