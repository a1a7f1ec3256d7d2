// Package query implements the list view over the final dataset: filtering,
// sorting, pagination and the facet values offered to the user.
package query

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"restaurantfinder/internal"
)

const DefaultPageSize = 20

type Filter struct {
	Search    string
	State     string
	City      string
	AwardType string
}

// Match reports whether r passes every non-empty criterion. Search is a
// case-insensitive substring match on name or chef; state and city match
// exactly; the award type must appear among the awards.
func (f Filter) Match(r internal.FinalRestaurant) bool {
	if f.Search != "" {
		fold := cases.Fold()
		needle := fold.String(f.Search)
		if !strings.Contains(fold.String(r.Name), needle) && !strings.Contains(fold.String(r.Chef), needle) {
			return false
		}
	}
	if f.State != "" && r.State != f.State {
		return false
	}
	if f.City != "" && r.City != f.City {
		return false
	}
	if f.AwardType != "" {
		found := false
		for _, a := range r.Awards {
			if a.Type == f.AwardType {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func Apply(records []internal.FinalRestaurant, f Filter) []internal.FinalRestaurant {
	out := make([]internal.FinalRestaurant, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

type SortKey string

const (
	SortName   SortKey = "name"
	SortCity   SortKey = "city"
	SortState  SortKey = "state"
	SortAwards SortKey = "awards"
)

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortName, SortCity, SortState, SortAwards:
		return k, nil
	case "":
		return SortName, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

var awardTiers = map[string]int{
	"3-star":               1,
	"2-star":               2,
	"1-star":               3,
	"bib-gourmand":         4,
	"james-beard-winner":   5,
	"james-beard-finalist": 6,
	"james-beard-nominee":  7,
}

const unrankedTier = 99

func AwardTier(awardType string) int {
	if tier, ok := awardTiers[awardType]; ok {
		return tier
	}
	return unrankedTier
}

// BestTier is the lowest tier among awards. A restaurant without awards
// sorts after every ranked one.
func BestTier(awards []internal.AwardEntry) int {
	best := math.MaxInt
	for _, a := range awards {
		if tier := AwardTier(a.Type); tier < best {
			best = tier
		}
	}
	return best
}

// Sort returns a sorted copy. Text keys use English collation; ties keep
// their input order.
func Sort(records []internal.FinalRestaurant, key SortKey) []internal.FinalRestaurant {
	out := append([]internal.FinalRestaurant(nil), records...)

	var field func(internal.FinalRestaurant) string
	switch key {
	case SortName:
		field = func(r internal.FinalRestaurant) string { return r.Name }
	case SortCity:
		field = func(r internal.FinalRestaurant) string { return r.City }
	case SortState:
		field = func(r internal.FinalRestaurant) string { return r.State }
	case SortAwards:
		sort.SliceStable(out, func(i, j int) bool {
			return BestTier(out[i].Awards) < BestTier(out[j].Awards)
		})
		return out
	default:
		return out
	}

	col := collate.New(language.English)
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(field(out[i]), field(out[j])) < 0
	})
	return out
}

type Page struct {
	Number int
	Total  int
	From   int
	To     int
	Count  int
}

// Paginate clamps page into [1, total pages] and returns that slice of
// records. From and To are 1-based and inclusive; both are 0 when empty.
func Paginate(records []internal.FinalRestaurant, page, size int) ([]internal.FinalRestaurant, Page) {
	if size <= 0 {
		size = DefaultPageSize
	}
	count := len(records)
	total := (count + size - 1) / size
	page = max(1, min(page, total))

	start := (page - 1) * size
	end := min(page*size, count)
	p := Page{Number: page, Total: total, Count: count}
	if start >= end {
		return nil, p
	}
	p.From, p.To = start+1, end
	return records[start:end], p
}

// Window lists up to width page numbers centred on the current page.
func (p Page) Window(width int) []int {
	if p.Total == 0 || width <= 0 {
		return nil
	}
	n := min(width, p.Total)
	first := p.Number - width/2
	switch {
	case p.Total <= width || p.Number <= width/2+1:
		first = 1
	case p.Number >= p.Total-width/2:
		first = p.Total - width + 1
	}
	out := make([]int, n)
	for i := range out {
		out[i] = first + i
	}
	return out
}

type Facets struct {
	States          []string
	Cities          []string
	Michelin        int
	JamesBeard      int
	WithCoordinates int
}

// States lists distinct non-empty states in byte order.
func States(records []internal.FinalRestaurant) []string {
	return distinct(records, func(r internal.FinalRestaurant) string { return r.State })
}

// Cities lists distinct non-empty cities, restricted to state when set.
func Cities(records []internal.FinalRestaurant, state string) []string {
	if state != "" {
		records = Apply(records, Filter{State: state})
	}
	return distinct(records, func(r internal.FinalRestaurant) string { return r.City })
}

func distinct(records []internal.FinalRestaurant, field func(internal.FinalRestaurant) string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range records {
		v := field(r)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// BuildFacets takes the option lists from the whole dataset and the counts
// from the filtered view.
func BuildFacets(all, filtered []internal.FinalRestaurant, state string) Facets {
	f := Facets{States: States(all), Cities: Cities(all, state)}
	for _, r := range filtered {
		if r.HasMichelin {
			f.Michelin++
		}
		if r.HasJamesBeard {
			f.JamesBeard++
		}
		if r.HasCoordinates() {
			f.WithCoordinates++
		}
	}
	return f
}

type AwardOption struct {
	Value string
	Label string
}

var AwardOptions = []AwardOption{
	{Value: "", Label: "All Awards"},
	{Value: "3-star", Label: "Michelin 3-Star"},
	{Value: "2-star", Label: "Michelin 2-Star"},
	{Value: "1-star", Label: "Michelin 1-Star"},
	{Value: "bib-gourmand", Label: "Bib Gourmand"},
	{Value: "james-beard-winner", Label: "James Beard Winner"},
	{Value: "james-beard-finalist", Label: "James Beard Finalist"},
	{Value: "james-beard-nominee", Label: "James Beard Nominee"},
}

type Request struct {
	Filter   Filter
	Sort     SortKey
	Page     int
	PageSize int
}

type Result struct {
	Items  []internal.FinalRestaurant
	Page   Page
	Facets Facets
}

// Run filters, sorts and paginates records in that order.
func Run(records []internal.FinalRestaurant, req Request) Result {
	filtered := Apply(records, req.Filter)
	items, page := Paginate(Sort(filtered, req.Sort), req.Page, req.PageSize)
	return Result{
		Items:  items,
		Page:   page,
		Facets: BuildFacets(records, filtered, req.Filter.State),
	}
}
