package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"restaurantfinder/internal"
	"restaurantfinder/internal/geodata"
	"restaurantfinder/internal/util"
)

// Reasons a raw row does not become a record.
const (
	DropNotUS         = "not_us"
	DropNotRestaurant = "not_restaurant"
	DropMissingName   = "missing_name"
	DropMissingState  = "missing_state"
)

type AdaptResult struct {
	Source     internal.Source
	Records    []internal.Record
	Parsed     int
	Dropped    map[string]int
	Duplicates int
}

// Adapter turns one source's raw rows into records. Rows that cannot be
// classified are dropped and counted, never reported as errors.
type Adapter interface {
	Source() internal.Source
	Adapt(rows []internal.RawRow) AdaptResult
}

type MichelinAdapter struct {
	states    *geodata.StateMatcher
	locations *USLocationClassifier
	logger    *zap.Logger
}

func NewMichelinAdapter(tables *geodata.Tables, logger *zap.Logger) *MichelinAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MichelinAdapter{
		states:    tables.MichelinMatcher(),
		locations: NewUSLocationClassifier(tables),
		logger:    logger.With(zap.String("source", string(internal.SourceMichelin))),
	}
}

func (a *MichelinAdapter) Source() internal.Source { return internal.SourceMichelin }

func (a *MichelinAdapter) Adapt(rows []internal.RawRow) AdaptResult {
	res := newAdaptResult(internal.SourceMichelin, len(rows))
	records := make([]internal.Record, 0, len(rows))
	for _, row := range rows {
		location := row.Get("Location", "location")
		address := row.Get("Address", "address")
		if !a.locations.IsUS(location, address) {
			res.Dropped[DropNotUS]++
			continue
		}

		state := a.states.Extract(location)
		if state == "" {
			state = a.states.Extract(address)
		}
		records = append(records, internal.Record{
			Name:       row.Get("Name", "name"),
			Address:    address,
			City:       util.FirstNonEmpty(row.Get("City", "city"), cityFromLocation(location)),
			State:      state,
			Lat:        util.OptionalCoordinate(row.Get("Latitude", "latitude", "lat")),
			Lng:        util.OptionalCoordinate(row.Get("Longitude", "longitude", "lng", "lon")),
			AwardType:  MichelinAwardType(row.Get("Award", "award", "Distinction", "distinction")),
			AwardYear:  util.YearOr(row.Get("Year", "year"), internal.FallbackAwardYear),
			Cuisine:    row.Get("Cuisine", "cuisine"),
			PriceRange: row.Get("Price", "price"),
			Source:     internal.SourceMichelin,
			URL:        row.Get("Url", "url", "URL"),
		})
	}

	res.finish(records)
	a.logger.Info("adapted michelin rows",
		zap.Int("parsed", res.Parsed),
		zap.Int("kept", len(res.Records)),
		zap.Int("duplicates", res.Duplicates),
		zap.Any("dropped", res.Dropped),
		zap.Any("by_award", CountByAwardType(res.Records)),
	)
	return res
}

type JamesBeardAdapter struct {
	states *geodata.StateMatcher
	logger *zap.Logger
}

func NewJamesBeardAdapter(tables *geodata.Tables, logger *zap.Logger) *JamesBeardAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JamesBeardAdapter{
		states: tables.JamesBeardMatcher(),
		logger: logger.With(zap.String("source", string(internal.SourceJamesBeard))),
	}
}

func (a *JamesBeardAdapter) Source() internal.Source { return internal.SourceJamesBeard }

func (a *JamesBeardAdapter) Adapt(rows []internal.RawRow) AdaptResult {
	res := newAdaptResult(internal.SourceJamesBeard, len(rows))
	records := make([]internal.Record, 0, len(rows))
	for _, row := range rows {
		if !IsRestaurantCategory(row["category"], row["subcategory"]) {
			res.Dropped[DropNotRestaurant]++
			continue
		}

		location := row["location"]
		records = append(records, internal.Record{
			Name:          row.Get("restaurant_name", "recipient_name"),
			Chef:          row["recipient_name"],
			City:          cityFromLocation(location),
			State:         a.states.Extract(location),
			AwardType:     "james-beard-" + JamesBeardAwardLevel(row["award_status"]),
			AwardYear:     util.YearOr(row["year"], internal.FallbackAwardYear),
			AwardCategory: row.Get("subcategory", "category"),
			Source:        internal.SourceJamesBeard,
		})
	}

	res.finish(records)
	a.logger.Info("adapted james beard rows",
		zap.Int("parsed", res.Parsed),
		zap.Int("kept", len(res.Records)),
		zap.Int("duplicates", res.Duplicates),
		zap.Any("dropped", res.Dropped),
		zap.Any("by_award", CountByAwardType(res.Records)),
	)
	return res
}

func newAdaptResult(source internal.Source, parsed int) AdaptResult {
	return AdaptResult{Source: source, Parsed: parsed, Dropped: map[string]int{}}
}

// finish drops records without a name or state, then removes repeats of the
// same lowercase name, lowercase city and state, keeping the first.
func (res *AdaptResult) finish(records []internal.Record) {
	seen := map[string]struct{}{}
	out := make([]internal.Record, 0, len(records))
	for _, r := range records {
		if r.Name == "" {
			res.Dropped[DropMissingName]++
			continue
		}
		if r.State == "" {
			res.Dropped[DropMissingState]++
			continue
		}
		key := strings.ToLower(r.Name) + "-" + strings.ToLower(r.City) + "-" + r.State
		if _, dup := seen[key]; dup {
			res.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	res.Records = out
}

// cityFromLocation returns the text before the first comma.
func cityFromLocation(location string) string {
	city, _, _ := strings.Cut(location, ",")
	return strings.TrimSpace(city)
}

func CountByAwardType(records []internal.Record) map[string]int {
	out := map[string]int{}
	for _, r := range records {
		out[r.AwardType]++
	}
	return out
}
