package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"restaurantfinder/internal"
	"restaurantfinder/internal/geodata"
	"restaurantfinder/internal/metrics"
	"restaurantfinder/internal/storage"
)

// ProcessingService runs the in-memory stages and hands their output to
// storage. It owns no I/O besides the database.
type ProcessingService struct {
	db       *storage.DB
	logger   *zap.Logger
	metrics  *metrics.Registry
	adapters map[internal.Source]Adapter
	enricher *Enricher
}

func NewProcessingService(db *storage.DB, tables *geodata.Tables, logger *zap.Logger, reg *metrics.Registry) *ProcessingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessingService{
		db:      db,
		logger:  logger,
		metrics: reg,
		adapters: map[internal.Source]Adapter{
			internal.SourceMichelin:   NewMichelinAdapter(tables, logger),
			internal.SourceJamesBeard: NewJamesBeardAdapter(tables, logger),
		},
		enricher: NewEnricher(tables),
	}
}

type BuildResult struct {
	Restaurants []internal.FinalRestaurant
	Stats       Stats
}

func (s *ProcessingService) AdaptFeed(feed internal.FetchedFeed) (AdaptResult, error) {
	table, err := ParseInput(feed.Format, feed.Body)
	if err != nil {
		return AdaptResult{}, fmt.Errorf("parse %s feed: %w", feed.Source, err)
	}
	return s.AdaptRows(feed.Source, table.Rows)
}

func (s *ProcessingService) AdaptRows(source internal.Source, rows []internal.RawRow) (AdaptResult, error) {
	adapter, ok := s.adapters[source]
	if !ok {
		return AdaptResult{}, fmt.Errorf("unsupported source: %s", source)
	}
	res := adapter.Adapt(rows)
	s.metrics.ObserveAdapt(string(source), res.Parsed, len(res.Records), res.Duplicates, res.Dropped)
	return res, nil
}

// Build merges Michelin records ahead of James Beard records, enriches the
// result and summarizes it.
func (s *ProcessingService) Build(michelin, jamesBeard []internal.Record) BuildResult {
	merged := Merge(michelin, jamesBeard)
	s.logger.Info("merged sources",
		zap.Int("michelin", len(michelin)),
		zap.Int("james_beard", len(jamesBeard)),
		zap.Int("restaurants", len(merged)),
	)

	final := s.enricher.EnrichAll(merged)
	stats := Summarize(final)
	s.logger.Info("dataset summary",
		zap.Int("total", stats.Total),
		zap.Int("michelin_only", stats.MichelinOnly),
		zap.Int("james_beard_only", stats.JamesBeardOnly),
		zap.Int("both", stats.Both),
		zap.Int("with_coordinates", stats.WithCoordinates),
		zap.Int("states", len(stats.ByState)),
	)
	s.metrics.ObserveDataset(stats.Total, stats.Both, stats.WithCoordinates)

	return BuildResult{Restaurants: final, Stats: stats}
}

// Persist replaces the stored dataset and records the run.
func (s *ProcessingService) Persist(traceID string, res BuildResult, timings map[string]float64) error {
	if s.db == nil {
		return fmt.Errorf("persist dataset: no database")
	}
	if err := s.db.ReplaceRestaurants(res.Restaurants); err != nil {
		return fmt.Errorf("replace restaurants: %w", err)
	}
	if err := s.db.InsertRun(traceID, "build", timings, res.Stats.Counts()); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	if err := s.db.SetMetadata("dataset.last_build", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return s.db.SetMetadata("dataset.trace_id", traceID)
}
