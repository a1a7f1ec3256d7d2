package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"restaurantfinder/internal"
	"restaurantfinder/internal/metrics"
	"restaurantfinder/internal/storage"
)

const michelinFixture = `Name,Address,Location,Price,Cuisine,Longitude,Latitude,Url,Award
Chez Leon,"1 Wacker Dr, Chicago, 60601, USA","Chicago, Illinois",$$$,French,-87.63,41.88,https://example.test/leon,1 Star
Chez Leon,"1 Wacker Dr, Chicago, 60601, USA","Chicago, Illinois",$$$,French,-87.63,41.88,https://example.test/leon,1 Star
Le Paris,"Rue 1, Paris",Paris France,€€€,French,2.35,48.85,https://example.test/paris,3 Stars
Taco Sur,"9 Main St, Austin, TX 78701","Austin, Texas, USA",$,Mexican,,,https://example.test/taco,Bib Gourmand
`

const jamesBeardFixture = `year,category,subcategory,award_status,recipient_name,restaurant_name,location
2023,Best Chef,Great Lakes,Winner,Leon Chef,chez leon,"Chicago, IL"
2022,Book Awards,,Nominee,Author,,"New York, NY"
2021,Outstanding Restaurant,,Semifinalist,,Harbor House,"Portland, ME"
`

func TestProcessingServiceEndToEnd(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	reg := metrics.NewRegistry()
	svc := NewProcessingService(db, loadTables(t), zaptest.NewLogger(t), reg)

	mres, err := svc.AdaptFeed(internal.FetchedFeed{Source: internal.SourceMichelin, Format: FormatCSV, Body: []byte(michelinFixture)})
	require.NoError(t, err)
	require.Len(t, mres.Records, 2)
	assert.Equal(t, 1, mres.Duplicates)
	assert.Equal(t, 1, mres.Dropped[DropNotUS])

	jres, err := svc.AdaptFeed(internal.FetchedFeed{Source: internal.SourceJamesBeard, Format: FormatCSV, Body: []byte(jamesBeardFixture)})
	require.NoError(t, err)
	require.Len(t, jres.Records, 2)

	built := svc.Build(mres.Records, jres.Records)
	require.Len(t, built.Restaurants, 3)
	leon := built.Restaurants[0]
	assert.Equal(t, "chez-leon-chicago-IL", leon.ID)
	assert.Len(t, leon.Awards, 2)
	assert.True(t, leon.HasMichelin && leon.HasJamesBeard)
	assert.Equal(t, "taco-sur-austin-TX", built.Restaurants[1].ID)
	assert.True(t, built.Restaurants[1].IsBibGourmand)
	assert.Equal(t, "harbor-house-portland-ME", built.Restaurants[2].ID)
	assert.Equal(t, "finalist", *built.Restaurants[2].JamesBeardStatus)

	assert.Equal(t, Stats{
		Total: 3, MichelinOnly: 1, JamesBeardOnly: 1, Both: 1, WithCoordinates: 1,
		ByState: map[string]int{"IL": 1, "TX": 1, "ME": 1},
	}, built.Stats)
	assert.Equal(t, 4.0, testutil.ToFloat64(reg.RowsParsed.WithLabelValues("michelin")))
	assert.Equal(t, 3.0, testutil.ToFloat64(reg.Restaurants))

	require.NoError(t, svc.Persist("trace-1", built, map[string]float64{"totalMs": 1}))
	stored, err := db.ListRestaurants()
	require.NoError(t, err)
	assert.Equal(t, built.Restaurants, stored)

	run, err := db.LatestRun("build")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "trace-1", run.TraceID)
	assert.Equal(t, 3, run.Counts["total"])
}

func TestProcessingServiceUnknownSource(t *testing.T) {
	svc := NewProcessingService(nil, loadTables(t), nil, nil)
	_, err := svc.AdaptRows(internal.Source("zagat"), nil)
	assert.Error(t, err)

	_, err = svc.AdaptFeed(internal.FetchedFeed{Source: internal.SourceMichelin, Format: "pdf"})
	assert.Error(t, err)

	assert.Error(t, svc.Persist("t", BuildResult{}, nil))
}
