package geocode

import (
	"context"
	"math/rand"

	"go.uber.org/zap"

	"restaurantfinder/internal"
	"restaurantfinder/internal/config"
	"restaurantfinder/internal/geodata"
	"restaurantfinder/internal/metrics"
)

// Lookup outcomes, also used as the metrics label.
const (
	ResultPresent  = "present"
	ResultCentroid = "centroid"
	ResultCached   = "cached"
	ResultNetwork  = "network"
	ResultNotFound = "not_found"
	ResultFailed   = "failed"
	ResultBudget   = "budget_exhausted"
)

type Searcher interface {
	Search(ctx context.Context, query string) (*internal.Coordinates, error)
}

// Cache stores network results by query string.
type Cache interface {
	GetGeocode(query string) (*internal.Coordinates, error)
	PutGeocode(query string, c internal.Coordinates) error
}

type Geocoder struct {
	tables      *geodata.Tables
	searcher    Searcher
	cache       Cache
	rand        func() float64
	maxCalls    int
	cityJitter  float64
	stateJitter float64
	logger      *zap.Logger
	metrics     *metrics.Registry
}

type Option func(*Geocoder)

func WithRand(fn func() float64) Option { return func(g *Geocoder) { g.rand = fn } }

func WithCache(c Cache) Option { return func(g *Geocoder) { g.cache = c } }

func WithMetrics(m *metrics.Registry) Option { return func(g *Geocoder) { g.metrics = m } }

func WithLogger(l *zap.Logger) Option { return func(g *Geocoder) { g.logger = l } }

// New builds a geocoder. A nil searcher disables network lookups.
func New(tables *geodata.Tables, searcher Searcher, cfg config.Config, opts ...Option) *Geocoder {
	g := &Geocoder{
		tables:      tables,
		searcher:    searcher,
		rand:        rand.Float64,
		maxCalls:    cfg.GeocodeMaxCalls,
		cityJitter:  cfg.CityJitter,
		stateJitter: cfg.StateJitter,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g
}

type Summary struct {
	Total        int
	NeededLookup int
	APICalls     int
	Results      map[string]int
}

// FromCentroids returns the jittered city centroid, falling back to the
// jittered state centroid. Cities match on the exact name.
func (g *Geocoder) FromCentroids(city, state string) *internal.Coordinates {
	if city != "" {
		if c, ok := g.tables.CityCentroid(city); ok {
			return g.jitter(c.Lat, c.Lng, g.cityJitter)
		}
	}
	if state != "" {
		if s, ok := g.tables.StateCentroid(state); ok {
			return g.jitter(s.Lat, s.Lng, g.stateJitter)
		}
	}
	return nil
}

func (g *Geocoder) jitter(lat, lng, spread float64) *internal.Coordinates {
	return &internal.Coordinates{
		Lat: lat + (g.rand()-0.5)*2*spread,
		Lng: lng + (g.rand()-0.5)*2*spread,
	}
}

// GeocodeAll fills missing coordinates in order. Records that already carry
// both coordinates pass through unchanged. Only context cancellation is
// returned as an error; lookup failures leave the record without coordinates.
func (g *Geocoder) GeocodeAll(ctx context.Context, records []internal.Record) ([]internal.Record, Summary, error) {
	sum := Summary{Total: len(records), Results: map[string]int{}}
	out := make([]internal.Record, 0, len(records))

	for _, r := range records {
		if r.HasCoordinates() {
			out = append(out, r)
			g.observe(&sum, ResultPresent)
			continue
		}
		sum.NeededLookup++

		coords, result, err := g.lookup(ctx, &sum, r)
		if err != nil {
			return nil, sum, err
		}
		g.observe(&sum, result)
		if coords != nil {
			lat, lng := coords.Lat, coords.Lng
			r.Lat, r.Lng = &lat, &lng
		}
		out = append(out, r)
	}

	withCoords := 0
	for _, r := range out {
		if r.HasCoordinates() {
			withCoords++
		}
	}
	g.logger.Info("geocoding finished",
		zap.Int("total", sum.Total),
		zap.Int("needed", sum.NeededLookup),
		zap.Int("api_calls", sum.APICalls),
		zap.Int("with_coordinates", withCoords),
		zap.Any("results", sum.Results),
	)
	return out, sum, nil
}

func (g *Geocoder) lookup(ctx context.Context, sum *Summary, r internal.Record) (*internal.Coordinates, string, error) {
	if c := g.FromCentroids(r.City, r.State); c != nil {
		return c, ResultCentroid, nil
	}
	if g.searcher == nil {
		return nil, ResultNotFound, nil
	}

	query := Query(r.Address, r.City, r.State)
	if g.cache != nil {
		cached, err := g.cache.GetGeocode(query)
		if err != nil {
			g.logger.Warn("geocode cache read failed", zap.String("query", query), zap.Error(err))
		} else if cached != nil {
			return cached, ResultCached, nil
		}
	}

	if sum.APICalls >= g.maxCalls {
		return nil, ResultBudget, nil
	}
	sum.APICalls++
	if sum.APICalls%10 == 0 {
		g.logger.Info("geocoding progress", zap.Int("api_calls", sum.APICalls))
	}

	coords, err := g.searcher.Search(ctx, query)
	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}
	if err != nil {
		g.logger.Warn("geocode lookup failed", zap.String("query", query), zap.Error(err))
		return nil, ResultFailed, nil
	}
	if coords == nil {
		return nil, ResultNotFound, nil
	}
	if g.cache != nil {
		if err := g.cache.PutGeocode(query, *coords); err != nil {
			g.logger.Warn("geocode cache write failed", zap.String("query", query), zap.Error(err))
		}
	}
	return coords, ResultNetwork, nil
}

func (g *Geocoder) observe(sum *Summary, result string) {
	sum.Results[result]++
	if g.metrics != nil {
		g.metrics.GeocodeLookups.WithLabelValues(result).Inc()
	}
}
