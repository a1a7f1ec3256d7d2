package pipeline

import (
	"restaurantfinder/internal"
)

type Stats struct {
	Total           int            `json:"total"`
	MichelinOnly    int            `json:"michelin_only"`
	JamesBeardOnly  int            `json:"james_beard_only"`
	Both            int            `json:"both"`
	WithCoordinates int            `json:"with_coordinates"`
	ByState         map[string]int `json:"by_state"`
}

// Summarize counts the final dataset. Every restaurant lands in exactly one
// of MichelinOnly, JamesBeardOnly and Both.
func Summarize(restaurants []internal.FinalRestaurant) Stats {
	st := Stats{Total: len(restaurants), ByState: map[string]int{}}
	for _, r := range restaurants {
		switch {
		case r.HasMichelin && r.HasJamesBeard:
			st.Both++
		case r.HasMichelin:
			st.MichelinOnly++
		case r.HasJamesBeard:
			st.JamesBeardOnly++
		}
		if r.HasCoordinates() {
			st.WithCoordinates++
		}
		st.ByState[r.State]++
	}
	return st
}

// Counts flattens the stats for run bookkeeping.
func (s Stats) Counts() map[string]int {
	return map[string]int{
		"total":            s.Total,
		"michelin_only":    s.MichelinOnly,
		"james_beard_only": s.JamesBeardOnly,
		"both":             s.Both,
		"with_coordinates": s.WithCoordinates,
	}
}
