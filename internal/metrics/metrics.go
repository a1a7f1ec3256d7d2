package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

type Registry struct {
	reg              *prometheus.Registry
	RowsParsed       *prometheus.CounterVec
	RecordsDropped   *prometheus.CounterVec
	RecordsAdapted   *prometheus.CounterVec
	Duplicates       *prometheus.CounterVec
	Restaurants      prometheus.Gauge
	BothSources      prometheus.Gauge
	WithCoordinates  prometheus.Gauge
	GeocodeLookups   *prometheus.CounterVec
	LastRunTimestamp prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	rowsParsed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "restaurantfinder_rows_parsed_total"}, []string{"source"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "restaurantfinder_records_dropped_total"}, []string{"source", "reason"})
	adapted := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "restaurantfinder_records_adapted_total"}, []string{"source"})
	dups := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "restaurantfinder_duplicates_removed_total"}, []string{"source"})
	restaurants := prometheus.NewGauge(prometheus.GaugeOpts{Name: "restaurantfinder_restaurants_total"})
	both := prometheus.NewGauge(prometheus.GaugeOpts{Name: "restaurantfinder_restaurants_both_sources"})
	withCoords := prometheus.NewGauge(prometheus.GaugeOpts{Name: "restaurantfinder_restaurants_with_coordinates"})
	geocode := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "restaurantfinder_geocode_lookups_total"}, []string{"result"})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{Name: "restaurantfinder_last_run_timestamp_seconds"})

	r.MustRegister(rowsParsed, dropped, adapted, dups, restaurants, both, withCoords, geocode, lastRun)
	return &Registry{
		reg:              r,
		RowsParsed:       rowsParsed,
		RecordsDropped:   dropped,
		RecordsAdapted:   adapted,
		Duplicates:       dups,
		Restaurants:      restaurants,
		BothSources:      both,
		WithCoordinates:  withCoords,
		GeocodeLookups:   geocode,
		LastRunTimestamp: lastRun,
	}
}

// WriteTextfile dumps the registry in text exposition format for the
// node_exporter textfile collector. An empty path disables it.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// ObserveAdapt records one adapter pass. Safe on a nil registry.
func (r *Registry) ObserveAdapt(source string, parsed, kept, duplicates int, dropped map[string]int) {
	if r == nil {
		return
	}
	r.RowsParsed.WithLabelValues(source).Add(float64(parsed))
	r.RecordsAdapted.WithLabelValues(source).Add(float64(kept))
	r.Duplicates.WithLabelValues(source).Add(float64(duplicates))
	for reason, n := range dropped {
		r.RecordsDropped.WithLabelValues(source, reason).Add(float64(n))
	}
}

// ObserveDataset sets the gauges describing the final dataset.
func (r *Registry) ObserveDataset(total, both, withCoordinates int) {
	if r == nil {
		return
	}
	r.Restaurants.Set(float64(total))
	r.BothSources.Set(float64(both))
	r.WithCoordinates.Set(float64(withCoordinates))
	r.LastRunTimestamp.SetToCurrentTime()
}
