package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultMichelinCSVURL   = "https://raw.githubusercontent.com/ngshiheng/michelin-my-maps/main/data/michelin_my_maps.csv"
	defaultJamesBeardCSVURL = "https://raw.githubusercontent.com/cjwinchester/james-beard/main/james-beard-awards.csv"
)

type Config struct {
	DataDir    string
	DBPath     string
	RawFeedDir string
	OutputPath string

	MichelinCSVURL   string
	JamesBeardCSVURL string
	FetchTimeoutMs   int
	FetchMaxAttempts int

	GeocodeEnabled   bool
	GeocodeBaseURL   string
	GeocodeUserAgent string
	GeocodeDelayMs   int
	GeocodeMaxCalls  int
	GeocodeTimeoutMs int
	CityJitter       float64
	StateJitter      float64

	LogLevel    string
	LogFormat   string
	MetricsPath string
	PageSize    int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}
	dataDir := getEnv("DATA_DIR", filepath.Join(cwd, "data"))

	cfg := Config{
		DataDir:    dataDir,
		DBPath:     getEnv("DB_PATH", filepath.Join(dataDir, "app.db")),
		RawFeedDir: getEnv("RAW_FEED_DIR", filepath.Join(dataDir, "raw")),
		OutputPath: getEnv("OUTPUT_PATH", filepath.Join(cwd, "src", "data", "restaurants.json")),

		MichelinCSVURL:   getEnv("MICHELIN_CSV_URL", defaultMichelinCSVURL),
		JamesBeardCSVURL: getEnv("JAMES_BEARD_CSV_URL", defaultJamesBeardCSVURL),
		FetchTimeoutMs:   getEnvInt("FETCH_TIMEOUT_MS", 30000),
		FetchMaxAttempts: getEnvInt("FETCH_MAX_ATTEMPTS", 5),

		GeocodeEnabled:   getEnvBool("GEOCODE_ENABLED", false),
		GeocodeBaseURL:   getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocodeUserAgent: getEnv("GEOCODE_USER_AGENT", "RestaurantFinderApp/1.0"),
		GeocodeDelayMs:   getEnvInt("GEOCODE_DELAY_MS", 1100),
		GeocodeMaxCalls:  getEnvInt("GEOCODE_MAX_CALLS", 100),
		GeocodeTimeoutMs: getEnvInt("GEOCODE_TIMEOUT_MS", 10000),
		CityJitter:       getEnvFloat("GEOCODE_CITY_JITTER", 0.01),
		StateJitter:      getEnvFloat("GEOCODE_STATE_JITTER", 0.25),

		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", "console")),
		MetricsPath: getEnv("METRICS_PATH", ""),
		PageSize:    getEnvInt("PAGE_SIZE", 20),
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}

	return cfg, nil
}

// FeedURL returns the configured upstream location for a source.
func (c Config) FeedURL(source string) string {
	switch source {
	case "michelin":
		return c.MichelinCSVURL
	case "james-beard":
		return c.JamesBeardCSVURL
	}
	return ""
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
