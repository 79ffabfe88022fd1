package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeosDev13/idealista-scraper/models"
	"github.com/LeosDev13/idealista-scraper/utils"
)

func newTestCSV(t *testing.T) (*CSVGateway, string) {
	t.Helper()
	dir := t.TempDir()
	g, err := NewCSVGateway(dir, utils.NewLogger(utils.LevelCritical))
	require.NoError(t, err)
	return g, dir
}

func TestCSVLocationsRoundtrip(t *testing.T) {
	g, _ := newTestCSV(t)
	ctx := context.Background()

	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, g.InsertLocations(ctx, []*models.Location{
		{ID: "a", Title: "Almería", Path: "/a/", NumberOfProperties: 3, CreatedAt: now, UpdatedAt: now},
		{ID: "b", Title: "Barcelona", Path: "/b/", IsInterestZone: true, NumberOfProperties: 90, CreatedAt: now, UpdatedAt: now},
	}))

	locations, err := g.GetLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locations, 2)

	assert.Equal(t, "b", locations[0].ID, "busiest location first")
	assert.True(t, locations[0].IsInterestZone)
	assert.Equal(t, "Almería", locations[1].Title)
	assert.Equal(t, now, locations[0].CreatedAt)
}

func TestCSVPropertiesAppendAcrossBatches(t *testing.T) {
	g, dir := newTestCSV(t)
	ctx := context.Background()

	price, err := models.NewMoney(150000, "EUR")
	require.NoError(t, err)

	require.NoError(t, g.InsertProperties(ctx, []*models.Property{
		{ID: "X1", Price: price, Title: "Ad 1", LocationID: "loc-1"},
	}))
	require.NoError(t, g.InsertProperties(ctx, []*models.Property{
		{ID: "X2", Price: price, Title: "Ad 2", LocationID: "loc-1"},
	}))

	raw, err := os.ReadFile(filepath.Join(dir, "properties.csv"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3, "one header plus one line per batch row")
	assert.Contains(t, lines[0], "price_amount")
	assert.Contains(t, lines[1], "X1")
	assert.Contains(t, lines[2], "X2")
}

func TestCSVGetLocationsWithoutFileFails(t *testing.T) {
	g, _ := newTestCSV(t)
	_, err := g.GetLocations(context.Background())
	assert.Error(t, err)
}
