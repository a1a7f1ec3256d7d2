package feeds

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"restaurantfinder/internal"
	"restaurantfinder/internal/config"
	"restaurantfinder/internal/pipeline"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Feed yields the raw payload of one upstream source.
type Feed interface {
	Fetch(ctx context.Context) (internal.FetchedFeed, error)
}

// Open picks an HTTP feed for http(s) locations and a file feed otherwise.
// An empty format is guessed from the location's extension.
func Open(source internal.Source, location, format string, cfg config.Config, logger *zap.Logger) Feed {
	if format == "" {
		format = FormatFromPath(location)
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPFeed(source, location, format, cfg, logger)
	}
	return NewFileFeed(source, location, format)
}

func FormatFromPath(location string) string {
	ext := strings.ToLower(filepath.Ext(location))
	if i := strings.IndexAny(ext, "?#"); i >= 0 {
		ext = ext[:i]
	}
	switch ext {
	case ".html", ".htm":
		return pipeline.FormatHTML
	case ".xlsx":
		return pipeline.FormatXLSX
	default:
		return pipeline.FormatCSV
	}
}

type HTTPFeed struct {
	source      internal.Source
	url         string
	format      string
	httpClient  *http.Client
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *zap.Logger
}

func NewHTTPFeed(source internal.Source, url, format string, cfg config.Config, logger *zap.Logger) *HTTPFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := cfg.FetchMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &HTTPFeed{
		source:      source,
		url:         url,
		format:      format,
		httpClient:  &http.Client{Timeout: time.Duration(cfg.FetchTimeoutMs) * time.Millisecond},
		maxAttempts: attempts,
		sleep:       sleepContext,
		logger:      logger.With(zap.String("source", string(source))),
	}
}

func (f *HTTPFeed) Fetch(ctx context.Context) (internal.FetchedFeed, error) {
	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		body, retry, err := f.get(ctx)
		if err == nil {
			f.logger.Info("feed downloaded", zap.String("url", f.url), zap.Int("bytes", len(body)), zap.Int("attempt", attempt))
			return newFetchedFeed(f.source, f.url, f.format, body), nil
		}
		lastErr = err
		if !retry || attempt == f.maxAttempts {
			break
		}

		backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
		f.logger.Warn("feed download failed, retrying", zap.Error(err), zap.Int("attempt", attempt), zap.Duration("backoff", backoff))
		if err := f.sleep(ctx, backoff); err != nil {
			return internal.FetchedFeed{}, err
		}
	}

	if lastErr == nil {
		lastErr = errors.New("request failed")
	}
	return internal.FetchedFeed{}, fmt.Errorf("fetch %s feed: %w", f.source, lastErr)
}

// get performs one attempt and reports whether a failure is worth retrying.
func (f *HTTPFeed) get(ctx context.Context) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "text/csv, text/html, */*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, true, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, isRetryableStatus(resp.StatusCode), fmt.Errorf("status %d", resp.StatusCode)
	}
	return body, false, nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

type FileFeed struct {
	source internal.Source
	path   string
	format string
}

func NewFileFeed(source internal.Source, path, format string) *FileFeed {
	return &FileFeed{source: source, path: path, format: format}
}

func (f *FileFeed) Fetch(ctx context.Context) (internal.FetchedFeed, error) {
	if err := ctx.Err(); err != nil {
		return internal.FetchedFeed{}, err
	}
	body, err := os.ReadFile(f.path)
	if err != nil {
		return internal.FetchedFeed{}, fmt.Errorf("read %s feed: %w", f.source, err)
	}
	return newFetchedFeed(f.source, f.path, f.format, body), nil
}

func newFetchedFeed(source internal.Source, location, format string, body []byte) internal.FetchedFeed {
	return internal.FetchedFeed{
		Source:    source,
		Location:  location,
		Format:    format,
		Body:      bytes.TrimPrefix(body, utf8BOM),
		FetchedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
