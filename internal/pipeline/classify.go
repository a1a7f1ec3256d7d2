package pipeline

import (
	"regexp"
	"strings"

	"restaurantfinder/internal/geodata"
)

// rule maps any of its needles to a result. Rule lists are evaluated in
// order and the first hit wins.
type rule struct {
	needles []string
	result  string
}

var michelinAwardRules = []rule{
	{needles: []string{"3 star", "three star"}, result: "3-star"},
	{needles: []string{"2 star", "two star"}, result: "2-star"},
	{needles: []string{"1 star", "one star"}, result: "1-star"},
	{needles: []string{"bib gourmand"}, result: "bib-gourmand"},
	{needles: []string{"green star"}, result: "green-star"},
}

// "semifinalist" contains "finalist", so the last rule never fires.
var jamesBeardLevelRules = []rule{
	{needles: []string{"winner"}, result: "winner"},
	{needles: []string{"finalist"}, result: "finalist"},
	{needles: []string{"nominee"}, result: "nominee"},
	{needles: []string{"semifinalist"}, result: "semifinalist"},
}

const defaultJamesBeardLevel = "nominee"

var restaurantCategoryKeywords = []string{
	"restaurant & chef",
	"best chef", "outstanding restaurant", "best new restaurant",
	"rising star", "outstanding chef", "outstanding pastry chef",
	"outstanding bar", "outstanding hospitality", "best chefs",
	"outstanding restaurateur", "emerging chef", "regional",
}

// Cities that identify a US Michelin location on their own, unless the text
// also names one of foreignMarkers.
var majorUSCities = []string{
	"New York", "Los Angeles", "Chicago", "San Francisco", "Miami", "Las Vegas",
	"Washington D.C.", "Boston", "Philadelphia", "Seattle", "Denver", "Austin",
	"Houston", "Dallas", "Atlanta", "Nashville", "New Orleans", "Portland",
	"San Diego", "Phoenix", "Minneapolis", "Detroit", "Charleston", "Napa",
	"Yountville", "Healdsburg", "Santa Monica", "Beverly Hills", "Brooklyn", "Manhattan",
}

// Matched as lowercase substrings, so "uk" also rejects e.g. "Milwaukee".
var foreignMarkers = []string{"germany", "france", "italy", "spain", "uk"}

// Georgia and Washington are not used as "<State>, USA" evidence.
var usLocationStateExclusions = map[string]struct{}{
	"Georgia":    {},
	"Washington": {},
}

var zipCountryPattern = regexp.MustCompile(`(?i),\s*\d{5}(-\d{4})?,\s*(USA|United States)`)

func MichelinAwardType(award string) string {
	if award == "" {
		return ""
	}
	lower := strings.ToLower(award)
	if hit, ok := firstRule(michelinAwardRules, lower); ok {
		return hit
	}
	return lower
}

func JamesBeardAwardLevel(status string) string {
	if status == "" {
		return defaultJamesBeardLevel
	}
	if hit, ok := firstRule(jamesBeardLevelRules, strings.ToLower(status)); ok {
		return hit
	}
	return defaultJamesBeardLevel
}

func IsRestaurantCategory(category, subcategory string) bool {
	if category == "" && subcategory == "" {
		return false
	}
	combined := strings.ToLower(category + " " + subcategory)
	for _, kw := range restaurantCategoryKeywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}
	return false
}

// USLocationClassifier decides whether a Michelin row is in the United States
// from its free-text location and address.
type USLocationClassifier struct {
	statePatterns []*regexp.Regexp
}

func NewUSLocationClassifier(tables *geodata.Tables) *USLocationClassifier {
	c := &USLocationClassifier{}
	for _, s := range tables.States() {
		if _, skip := usLocationStateExclusions[s.Name]; skip {
			continue
		}
		c.statePatterns = append(c.statePatterns,
			regexp.MustCompile(`(?i)`+regexp.QuoteMeta(s.Name)+`,\s*(USA|United States|\d{5})`))
	}
	return c
}

func (c *USLocationClassifier) IsUS(location, address string) bool {
	combined := location + " " + address
	if strings.TrimSpace(combined) == "" {
		return false
	}

	if strings.Contains(combined, "United States") || strings.Contains(combined, ", USA") {
		return true
	}
	for _, re := range c.statePatterns {
		if re.MatchString(combined) {
			return true
		}
	}
	if zipCountryPattern.MatchString(combined) {
		return true
	}

	lowered := strings.ToLower(combined)
	for _, marker := range foreignMarkers {
		if strings.Contains(lowered, marker) {
			return false
		}
	}
	for _, city := range majorUSCities {
		if strings.Contains(location, city) {
			return true
		}
	}
	return false
}

func firstRule(rules []rule, lower string) (string, bool) {
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(lower, n) {
				return r.result, true
			}
		}
	}
	return "", false
}
