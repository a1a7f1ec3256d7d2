package internal

type Source string

const (
	SourceMichelin   Source = "michelin"
	SourceJamesBeard Source = "james-beard"
)

// FallbackAwardYear is used when a source row carries no usable year.
const FallbackAwardYear = 2024

// RawRow maps a header name to the raw cell value of one data line.
type RawRow map[string]string

// Get returns the first non-empty value among keys.
func (r RawRow) Get(keys ...string) string {
	for _, k := range keys {
		if v := r[k]; v != "" {
			return v
		}
	}
	return ""
}

// Table is a parsed feed: header names in column order plus one RawRow per data line.
type Table struct {
	Headers []string
	Rows    []RawRow
}

// Record is the source-agnostic shape every adapter produces.
type Record struct {
	Name          string   `json:"name"`
	Chef          string   `json:"chef"`
	Address       string   `json:"address"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
	AwardType     string   `json:"award_type"`
	AwardYear     int      `json:"award_year"`
	AwardCategory string   `json:"award_category"`
	Cuisine       string   `json:"cuisine"`
	PriceRange    string   `json:"price_range"`
	Source        Source   `json:"source"`
	URL           string   `json:"url"`
}

// HasCoordinates reports whether both coordinates are present and non-zero.
func (r Record) HasCoordinates() bool {
	return nonZero(r.Lat) && nonZero(r.Lng)
}

type AwardEntry struct {
	Type     string `json:"type"`
	Year     int    `json:"year"`
	Category string `json:"category,omitempty"`
	Source   Source `json:"source"`
}

// Restaurant is one merged identity with every award contributed by the sources.
type Restaurant struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Chef       string       `json:"chef"`
	Address    string       `json:"address"`
	City       string       `json:"city"`
	State      string       `json:"state"`
	Lat        *float64     `json:"lat"`
	Lng        *float64     `json:"lng"`
	Cuisine    string       `json:"cuisine"`
	PriceRange string       `json:"price_range"`
	Source     Source       `json:"source"`
	URL        string       `json:"url"`
	Awards     []AwardEntry `json:"awards"`
}

func (r Restaurant) HasCoordinates() bool {
	return nonZero(r.Lat) && nonZero(r.Lng)
}

// FinalRestaurant is the persisted record served to the UI.
type FinalRestaurant struct {
	Restaurant
	StateName        string  `json:"state_name"`
	HasMichelin      bool    `json:"has_michelin"`
	HasJamesBeard    bool    `json:"has_james_beard"`
	MichelinStars    *string `json:"michelin_stars"`
	IsBibGourmand    bool    `json:"is_bib_gourmand"`
	JamesBeardStatus *string `json:"james_beard_status"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type FetchedFeed struct {
	Source    Source
	Location  string
	Format    string
	Body      []byte
	FetchedAt string
}

type RunRow struct {
	ID        int
	TraceID   string
	Kind      string
	Counts    map[string]int
	Timings   map[string]float64
	CreatedAt string
}

func nonZero(v *float64) bool {
	return v != nil && *v != 0
}
