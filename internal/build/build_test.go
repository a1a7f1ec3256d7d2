package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"restaurantfinder/internal"
	"restaurantfinder/internal/config"
	"restaurantfinder/internal/geodata"
	"restaurantfinder/internal/metrics"
	"restaurantfinder/internal/pipeline"
	"restaurantfinder/internal/storage"
)

type stubSearcher struct{ calls int }

func (s *stubSearcher) Search(context.Context, string) (*internal.Coordinates, error) {
	s.calls++
	return &internal.Coordinates{Lat: 44.1, Lng: -70.2}, nil
}

const michelinCSV = `Name,Address,Location,Latitude,Longitude,Award,Year
Chez Leon,"1 Wacker Dr, Chicago, 60601, USA","Chicago, Illinois",41.88,-87.63,1 Star,2024
`

const jamesBeardCSV = `year,category,subcategory,award_status,recipient_name,restaurant_name,location
2023,Best Chef,Great Lakes,Winner,Leon Chef,chez leon,"Chicago, IL"
2021,Outstanding Restaurant,,Finalist,,Harbor House,"Smalltown, ME"
2021,Outstanding Restaurant,,Finalist,,Lost Diner,"Nowhere"
`

func setup(t *testing.T) (*Service, config.Config, *storage.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tables, err := geodata.Load()
	require.NoError(t, err)

	cfg := config.Config{
		RawFeedDir:      filepath.Join(dir, "raw"),
		OutputPath:      filepath.Join(dir, "src", "data", "restaurants.json"),
		MetricsPath:     filepath.Join(dir, "metrics", "restaurantfinder.prom"),
		GeocodeMaxCalls: 10,
		CityJitter:      0.01,
		StateJitter:     0.25,
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "michelin.csv"), []byte(michelinCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "james-beard.csv"), []byte(jamesBeardCSV), 0o644))

	svc := NewService(db, cfg, tables, zaptest.NewLogger(t), metrics.NewRegistry())
	return svc, cfg, db, dir
}

func TestRunBuildsDataset(t *testing.T) {
	svc, cfg, db, dir := setup(t)
	searcher := &stubSearcher{}
	svc.Searcher = searcher
	geocodeOn := true

	res, err := svc.Run(context.Background(), Options{
		MichelinLocation:   filepath.Join(dir, "michelin.csv"),
		JamesBeardLocation: filepath.Join(dir, "james-beard.csv"),
		Geocode:            &geocodeOn,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.TraceID)
	assert.Equal(t, 2, res.Stats.Total)
	assert.Equal(t, 1, res.Stats.Both)
	assert.Equal(t, 2, res.Stats.WithCoordinates)
	assert.Zero(t, searcher.calls, "state centroids cover every adapted record")

	written, err := pipeline.ReadRestaurantsJSON(cfg.OutputPath)
	require.NoError(t, err)
	require.Len(t, written, 2)
	assert.Equal(t, "chez-leon-chicago-IL", written[0].ID)
	assert.Equal(t, 41.88, *written[0].Lat)
	assert.Equal(t, "harbor-house-smalltown-ME", written[1].ID)
	require.NotNil(t, written[1].Lat)
	maine, ok := svc.tables.StateCentroid("ME")
	require.True(t, ok)
	assert.InDelta(t, maine.Lat, *written[1].Lat, 0.25)
	assert.Equal(t, "finalist", *written[1].JamesBeardStatus)

	stored, err := db.ListRestaurants()
	require.NoError(t, err)
	assert.Equal(t, written, stored)

	run, err := db.LatestRun("build")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, res.TraceID, run.TraceID)

	prom, err := os.ReadFile(cfg.MetricsPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(prom), "restaurantfinder_restaurants_total 2"))

	snap, err := db.GetMetadata("feed.james-beard.sha256")
	require.NoError(t, err)
	assert.NotNil(t, snap)
}

func TestRunWithoutGeocoding(t *testing.T) {
	svc, _, _, dir := setup(t)
	searcher := &stubSearcher{}
	svc.Searcher = searcher

	res, err := svc.Run(context.Background(), Options{
		MichelinLocation:   filepath.Join(dir, "michelin.csv"),
		JamesBeardLocation: filepath.Join(dir, "james-beard.csv"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.WithCoordinates)
	assert.Zero(t, searcher.calls)
}

func TestRunFailsOnMissingFeed(t *testing.T) {
	svc, _, _, dir := setup(t)
	_, err := svc.Run(context.Background(), Options{
		MichelinLocation:   filepath.Join(dir, "absent.csv"),
		JamesBeardLocation: filepath.Join(dir, "james-beard.csv"),
	})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = svc.Run(context.Background(), Options{JamesBeardLocation: filepath.Join(dir, "james-beard.csv")})
	assert.Error(t, err)
}

func TestRunOfflineUsesStoredSnapshots(t *testing.T) {
	svc, _, _, dir := setup(t)

	_, err := svc.Run(context.Background(), Options{Offline: true})
	require.Error(t, err)

	_, err = svc.Run(context.Background(), Options{
		MichelinLocation:   filepath.Join(dir, "michelin.csv"),
		JamesBeardLocation: filepath.Join(dir, "james-beard.csv"),
	})
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "michelin.csv")))

	res, err := svc.Run(context.Background(), Options{Offline: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Total)
}
