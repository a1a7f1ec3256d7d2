package build

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"restaurantfinder/internal"
	"restaurantfinder/internal/config"
	"restaurantfinder/internal/feeds"
	"restaurantfinder/internal/geocode"
	"restaurantfinder/internal/geodata"
	"restaurantfinder/internal/metrics"
	"restaurantfinder/internal/pipeline"
	"restaurantfinder/internal/storage"
	"restaurantfinder/internal/util"
)

// Service performs one complete offline dataset build.
type Service struct {
	db      *storage.DB
	cfg     config.Config
	tables  *geodata.Tables
	logger  *zap.Logger
	metrics *metrics.Registry

	// Searcher overrides the network geocoder; nil uses the configured client.
	Searcher geocode.Searcher
}

func NewService(db *storage.DB, cfg config.Config, tables *geodata.Tables, logger *zap.Logger, reg *metrics.Registry) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, cfg: cfg, tables: tables, logger: logger, metrics: reg}
}

// Options override where each feed is read from. Empty fields fall back to
// the configured feed URLs.
type Options struct {
	MichelinLocation   string
	JamesBeardLocation string
	Format             string
	Geocode            *bool
	// Offline rebuilds from the last stored snapshot of each feed.
	Offline bool
}

type Result struct {
	TraceID string
	Stats   pipeline.Stats
	Output  string
	Timings map[string]float64
}

func (s *Service) Run(ctx context.Context, opts Options) (Result, error) {
	traceID := uuid.NewString()
	logger := s.logger.With(zap.String("trace_id", traceID))
	timings := map[string]float64{}
	start := time.Now()

	fetcher := feeds.NewFetchService(s.db, s.cfg.RawFeedDir, logger)
	proc := pipeline.NewProcessingService(s.db, s.tables, logger, s.metrics)

	records := map[internal.Source][]internal.Record{}
	for _, src := range []struct {
		source   internal.Source
		location string
	}{
		{internal.SourceMichelin, util.FirstNonEmpty(opts.MichelinLocation, s.cfg.MichelinCSVURL)},
		{internal.SourceJamesBeard, util.FirstNonEmpty(opts.JamesBeardLocation, s.cfg.JamesBeardCSVURL)},
	} {
		stepStart := time.Now()
		feed, err := s.openFeed(fetcher, src.source, src.location, opts, logger)
		if err != nil {
			return Result{}, err
		}
		fetched, err := fetcher.FetchAndStore(ctx, feed)
		if err != nil {
			return Result{}, err
		}
		adapted, err := proc.AdaptFeed(fetched.Feed)
		if err != nil {
			return Result{}, err
		}
		records[src.source] = adapted.Records
		timings["fetch_"+string(src.source)+"_ms"] = msSince(stepStart)
	}

	geocodeEnabled := s.cfg.GeocodeEnabled
	if opts.Geocode != nil {
		geocodeEnabled = *opts.Geocode
	}
	if geocodeEnabled {
		stepStart := time.Now()
		geocoded, _, err := s.geocoder(logger).GeocodeAll(ctx, records[internal.SourceJamesBeard])
		if err != nil {
			return Result{}, fmt.Errorf("geocode james beard records: %w", err)
		}
		records[internal.SourceJamesBeard] = geocoded
		timings["geocode_ms"] = msSince(stepStart)
	}

	stepStart := time.Now()
	built := proc.Build(records[internal.SourceMichelin], records[internal.SourceJamesBeard])
	if len(built.Restaurants) == 0 {
		return Result{}, errors.New("build produced no restaurants")
	}
	if err := pipeline.WriteJSON(s.cfg.OutputPath, built.Restaurants); err != nil {
		return Result{}, fmt.Errorf("write dataset: %w", err)
	}
	timings["merge_ms"] = msSince(stepStart)
	timings["totalMs"] = msSince(start)

	if err := proc.Persist(traceID, built, timings); err != nil {
		return Result{}, err
	}
	if err := s.metrics.WriteTextfile(s.cfg.MetricsPath); err != nil {
		logger.Warn("metrics textfile not written", zap.Error(err))
	}

	logger.Info("build complete",
		zap.String("output", s.cfg.OutputPath),
		zap.Int("restaurants", built.Stats.Total),
		zap.Float64("total_ms", timings["totalMs"]),
	)
	return Result{TraceID: traceID, Stats: built.Stats, Output: s.cfg.OutputPath, Timings: timings}, nil
}

func (s *Service) openFeed(fetcher *feeds.FetchService, source internal.Source, location string, opts Options, logger *zap.Logger) (feeds.Feed, error) {
	if opts.Offline {
		return fetcher.LatestSnapshot(source)
	}
	if err := s.cfg.Require("feed location for "+string(source), location); err != nil {
		return nil, err
	}
	return feeds.Open(source, location, opts.Format, s.cfg, logger), nil
}

func (s *Service) geocoder(logger *zap.Logger) *geocode.Geocoder {
	var searcher geocode.Searcher = geocode.NewClient(s.cfg)
	if s.Searcher != nil {
		searcher = s.Searcher
	}
	return geocode.New(s.tables, searcher, s.cfg,
		geocode.WithCache(s.db),
		geocode.WithLogger(logger),
		geocode.WithMetrics(s.metrics),
	)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
