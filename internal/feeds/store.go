package feeds

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"restaurantfinder/internal"
	"restaurantfinder/internal/storage"
)

type Snapshot struct {
	Path   string
	SHA256 string
}

// SnapshotStore keeps every distinct payload on disk, named by content hash,
// and remembers the latest one per source in the metadata table.
type SnapshotStore struct {
	db     *storage.DB
	rawDir string
}

func NewSnapshotStore(db *storage.DB, rawDir string) *SnapshotStore {
	return &SnapshotStore{db: db, rawDir: rawDir}
}

func (s *SnapshotStore) Store(feed internal.FetchedFeed) (Snapshot, error) {
	hashBytes := sha256.Sum256(feed.Body)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(s.rawDir, 0o755); err != nil {
		return Snapshot{}, err
	}

	rawPath := filepath.Join(s.rawDir, hash+"."+feed.Format)
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, feed.Body, 0o644); err != nil {
			return Snapshot{}, err
		}
	}

	prefix := "feed." + string(feed.Source) + "."
	for key, value := range map[string]string{
		"last_fetch": feed.FetchedAt,
		"sha256":     hash,
		"path":       rawPath,
		"location":   feed.Location,
	} {
		if err := s.db.SetMetadata(prefix+key, value); err != nil {
			return Snapshot{}, fmt.Errorf("record %s metadata: %w", key, err)
		}
	}

	return Snapshot{Path: rawPath, SHA256: hash}, nil
}

// Latest returns the most recently stored snapshot path for a source, or ""
// when nothing was stored yet.
func (s *SnapshotStore) Latest(source internal.Source) (string, error) {
	path, err := s.db.GetMetadata("feed." + string(source) + ".path")
	if err != nil || path == nil {
		return "", err
	}
	return *path, nil
}
