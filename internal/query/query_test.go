package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurantfinder/internal"
)

func fptr(v float64) *float64 { return &v }

func restaurant(name, chef, city, state string, awards ...string) internal.FinalRestaurant {
	r := internal.FinalRestaurant{Restaurant: internal.Restaurant{Name: name, Chef: chef, City: city, State: state}}
	for _, a := range awards {
		src := internal.SourceMichelin
		if len(a) > 12 && a[:12] == "james-beard-" {
			src = internal.SourceJamesBeard
			r.HasJamesBeard = true
		} else {
			r.HasMichelin = true
		}
		r.Awards = append(r.Awards, internal.AwardEntry{Type: a, Source: src})
	}
	return r
}

func fixture() []internal.FinalRestaurant {
	return []internal.FinalRestaurant{
		restaurant("Zuni Café", "", "San Francisco", "CA", "bib-gourmand"),
		restaurant("alinea", "Grant Achatz", "Chicago", "IL", "3-star", "james-beard-winner"),
		restaurant("Étoile", "", "Yountville", "CA", "green-star"),
		restaurant("Bacchanal", "Chef ÉMILE", "Austin", "TX", "james-beard-nominee"),
		restaurant("Oriole", "", "Chicago", "IL", "2-star"),
	}
}

func names(rs []internal.FinalRestaurant) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Name)
	}
	return out
}

func TestFilter(t *testing.T) {
	data := fixture()

	cases := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty keeps all", Filter{}, names(data)},
		{"search name case-insensitive", Filter{Search: "ALI"}, []string{"alinea"}},
		{"search chef", Filter{Search: "achatz"}, []string{"alinea"}},
		{"search folds accents by case only", Filter{Search: "émile"}, []string{"Bacchanal"}},
		{"state exact", Filter{State: "CA"}, []string{"Zuni Café", "Étoile"}},
		{"state is case sensitive", Filter{State: "ca"}, []string{}},
		{"city exact", Filter{City: "Chicago"}, []string{"alinea", "Oriole"}},
		{"award membership", Filter{AwardType: "james-beard-winner"}, []string{"alinea"}},
		{"combined", Filter{State: "IL", AwardType: "2-star"}, []string{"Oriole"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, names(Apply(data, tc.filter)))
		})
	}
}

func TestFilterRoundTrip(t *testing.T) {
	data := fixture()
	for _, st := range States(data) {
		for _, r := range Apply(data, Filter{State: st}) {
			assert.Equal(t, st, r.State)
		}
	}
	total := 0
	for _, st := range States(data) {
		total += len(Apply(data, Filter{State: st}))
	}
	assert.Equal(t, len(data), total)
}

func TestSort(t *testing.T) {
	data := fixture()

	assert.Equal(t, []string{"alinea", "Bacchanal", "Étoile", "Oriole", "Zuni Café"}, names(Sort(data, SortName)))
	assert.Equal(t, []string{"Bacchanal", "alinea", "Oriole", "Zuni Café", "Étoile"}, names(Sort(data, SortCity)))
	assert.Equal(t, []string{"Zuni Café", "Étoile", "alinea", "Oriole", "Bacchanal"}, names(Sort(data, SortState)))
	assert.Equal(t, []string{"alinea", "Oriole", "Zuni Café", "Bacchanal", "Étoile"}, names(Sort(data, SortAwards)))

	assert.Equal(t, "Zuni Café", data[0].Name, "input is not reordered")
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortName, k)

	k, err = ParseSortKey(" Awards ")
	require.NoError(t, err)
	assert.Equal(t, SortAwards, k)

	_, err = ParseSortKey("rating")
	assert.Error(t, err)
}

func TestBestTier(t *testing.T) {
	assert.Equal(t, 3, BestTier([]internal.AwardEntry{{Type: "james-beard-nominee"}, {Type: "1-star"}}))
	assert.Equal(t, 99, BestTier([]internal.AwardEntry{{Type: "green-star"}}))
	assert.Greater(t, BestTier(nil), 99)
}

func TestPaginate(t *testing.T) {
	var data []internal.FinalRestaurant
	for i := 0; i < 45; i++ {
		data = append(data, restaurant(fmt.Sprintf("r%02d", i), "", "C", "NY"))
	}

	items, p := Paginate(data, 1, 0)
	assert.Len(t, items, 20)
	assert.Equal(t, Page{Number: 1, Total: 3, From: 1, To: 20, Count: 45}, p)

	items, p = Paginate(data, 9, 20)
	assert.Len(t, items, 5)
	assert.Equal(t, Page{Number: 3, Total: 3, From: 41, To: 45, Count: 45}, p)
	assert.Equal(t, "r40", items[0].Name)

	items, p = Paginate(data, -2, 20)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, "r00", items[0].Name)

	items, p = Paginate(nil, 3, 20)
	assert.Empty(t, items)
	assert.Equal(t, Page{Number: 1}, p)
}

func TestPageWindow(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, Page{Number: 2, Total: 3}.Window(5))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, Page{Number: 3, Total: 10}.Window(5))
	assert.Equal(t, []int{4, 5, 6, 7, 8}, Page{Number: 6, Total: 10}.Window(5))
	assert.Equal(t, []int{6, 7, 8, 9, 10}, Page{Number: 9, Total: 10}.Window(5))
	assert.Nil(t, Page{Number: 1}.Window(5))
}

func TestFacets(t *testing.T) {
	data := fixture()
	data[1].Lat, data[1].Lng = fptr(41.9), fptr(-87.6)

	assert.Equal(t, []string{"CA", "IL", "TX"}, States(data))
	assert.Equal(t, []string{"Austin", "Chicago", "San Francisco", "Yountville"}, Cities(data, ""))
	assert.Equal(t, []string{"San Francisco", "Yountville"}, Cities(data, "CA"))

	res := Run(data, Request{Filter: Filter{State: "IL"}, Sort: SortName})
	assert.Equal(t, []string{"alinea", "Oriole"}, names(res.Items))
	assert.Equal(t, 2, res.Facets.Michelin)
	assert.Equal(t, 1, res.Facets.JamesBeard)
	assert.Equal(t, 1, res.Facets.WithCoordinates)
	assert.Equal(t, []string{"Chicago"}, res.Facets.Cities)
	assert.Len(t, res.Facets.States, 3)
}

func TestAwardOptions(t *testing.T) {
	require.Len(t, AwardOptions, 8)
	assert.Equal(t, "", AwardOptions[0].Value)
	for _, opt := range AwardOptions[1:] {
		assert.Less(t, AwardTier(opt.Value), 99, opt.Value)
	}
}
