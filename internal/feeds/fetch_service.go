package feeds

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"restaurantfinder/internal"
	"restaurantfinder/internal/storage"
)

type FetchService struct {
	store  *SnapshotStore
	logger *zap.Logger
}

type FetchResult struct {
	Feed     internal.FetchedFeed
	Snapshot Snapshot
}

func NewFetchService(db *storage.DB, rawDir string, logger *zap.Logger) *FetchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FetchService{
		store:  NewSnapshotStore(db, rawDir),
		logger: logger,
	}
}

// LatestSnapshot opens the last stored payload of a source as a file feed.
func (s *FetchService) LatestSnapshot(source internal.Source) (Feed, error) {
	path, err := s.store.Latest(source)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("no stored %s snapshot", source)
	}
	return NewFileFeed(source, path, FormatFromPath(path)), nil
}

func (s *FetchService) FetchAndStore(ctx context.Context, feed Feed) (FetchResult, error) {
	fetched, err := feed.Fetch(ctx)
	if err != nil {
		return FetchResult{}, err
	}

	snap, err := s.store.Store(fetched)
	if err != nil {
		return FetchResult{}, err
	}
	s.logger.Info("feed stored",
		zap.String("source", string(fetched.Source)),
		zap.String("location", fetched.Location),
		zap.String("sha256", snap.SHA256),
		zap.Int("bytes", len(fetched.Body)),
	)
	return FetchResult{Feed: fetched, Snapshot: snap}, nil
}
