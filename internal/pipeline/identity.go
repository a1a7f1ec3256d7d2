package pipeline

import (
	"strings"

	"restaurantfinder/internal"
	"restaurantfinder/internal/util"
)

// IdentityKey is the cross-source merge key. Two genuinely different
// restaurants with the same normalized name, city and state share a key and
// are merged.
func IdentityKey(name, city, state string) string {
	key := util.NormalizeKeyPart(name) + "-" + util.NormalizeKeyPart(city) + "-" + strings.ToUpper(state)
	return util.Hyphenate(key)
}

func KeyOf(r internal.Record) string {
	return IdentityKey(r.Name, r.City, r.State)
}
