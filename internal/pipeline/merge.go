package pipeline

import (
	"restaurantfinder/internal"
)

// Merge folds record sets into restaurants keyed by IdentityKey. Sources are
// processed in argument order, records in input order. The first record seen
// for a key supplies every scalar field; later records only add an award and
// fill in coordinates when the restaurant has no latitude yet. Output order is
// first-seen order.
func Merge(sources ...[]internal.Record) []internal.Restaurant {
	index := map[string]int{}
	out := []internal.Restaurant{}

	for _, records := range sources {
		for _, r := range records {
			id := KeyOf(r)
			award := awardFrom(r)

			pos, ok := index[id]
			if !ok {
				index[id] = len(out)
				out = append(out, newRestaurant(id, r, award))
				continue
			}

			existing := &out[pos]
			existing.Awards = append(existing.Awards, award)
			if !present(existing.Lat) && present(r.Lat) {
				existing.Lat = copyFloat(r.Lat)
				existing.Lng = copyFloat(r.Lng)
			}
		}
	}
	return out
}

func newRestaurant(id string, r internal.Record, award internal.AwardEntry) internal.Restaurant {
	return internal.Restaurant{
		ID:         id,
		Name:       r.Name,
		Chef:       r.Chef,
		Address:    r.Address,
		City:       r.City,
		State:      r.State,
		Lat:        copyFloat(r.Lat),
		Lng:        copyFloat(r.Lng),
		Cuisine:    r.Cuisine,
		PriceRange: r.PriceRange,
		Source:     r.Source,
		URL:        r.URL,
		Awards:     []internal.AwardEntry{award},
	}
}

func awardFrom(r internal.Record) internal.AwardEntry {
	return internal.AwardEntry{
		Type:     r.AwardType,
		Year:     r.AwardYear,
		Category: r.AwardCategory,
		Source:   r.Source,
	}
}

func present(v *float64) bool {
	return v != nil && *v != 0
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
