package pipeline

import (
	"strings"

	"restaurantfinder/internal"
	"restaurantfinder/internal/geodata"
)

const jamesBeardTypePrefix = "james-beard-"

type Enricher struct {
	tables *geodata.Tables
}

func NewEnricher(tables *geodata.Tables) *Enricher {
	return &Enricher{tables: tables}
}

// Enrich derives the summary fields. MichelinStars is the first award whose
// type contains "star", which includes "green-star".
func (e *Enricher) Enrich(r internal.Restaurant) internal.FinalRestaurant {
	r.Awards = append([]internal.AwardEntry(nil), r.Awards...)
	out := internal.FinalRestaurant{
		Restaurant: r,
		StateName:  e.tables.StateName(r.State),
	}

	for _, a := range r.Awards {
		switch a.Source {
		case internal.SourceMichelin:
			out.HasMichelin = true
		case internal.SourceJamesBeard:
			if !out.HasJamesBeard {
				out.JamesBeardStatus = jamesBeardStatus(a.Type)
			}
			out.HasJamesBeard = true
		}
		if out.MichelinStars == nil && strings.Contains(a.Type, "star") {
			stars := a.Type
			out.MichelinStars = &stars
		}
		if a.Type == "bib-gourmand" {
			out.IsBibGourmand = true
		}
	}
	return out
}

func (e *Enricher) EnrichAll(restaurants []internal.Restaurant) []internal.FinalRestaurant {
	out := make([]internal.FinalRestaurant, 0, len(restaurants))
	for _, r := range restaurants {
		out = append(out, e.Enrich(r))
	}
	return out
}

func jamesBeardStatus(awardType string) *string {
	status := strings.Replace(awardType, jamesBeardTypePrefix, "", 1)
	if status == "" {
		return nil
	}
	return &status
}
