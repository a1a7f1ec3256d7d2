package geodata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedTables(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)

	states := tables.States()
	require.Len(t, states, 51)
	assert.Equal(t, "Alabama", states[0].Name)
	assert.Equal(t, "District of Columbia", states[len(states)-1].Name)

	assert.Equal(t, "Illinois", tables.StateName("IL"))
	assert.Equal(t, "ZZ", tables.StateName("ZZ"))
	assert.Equal(t, "", tables.StateName(""))

	chicago, ok := tables.CityCentroid("Chicago")
	require.True(t, ok)
	assert.InDelta(t, 41.8781, chicago.Lat, 1e-9)

	_, ok = tables.CityCentroid("chicago")
	assert.False(t, ok, "city lookup is exact")
}

func TestStateMatcherExtract(t *testing.T) {
	tables := Default()
	michelin := tables.MichelinMatcher()
	jamesBeard := tables.JamesBeardMatcher()

	cases := []struct {
		name    string
		matcher *StateMatcher
		input   string
		want    string
	}{
		{name: "full name", matcher: michelin, input: "Chicago, Illinois", want: "IL"},
		{name: "abbreviation", matcher: jamesBeard, input: "Chicago, IL", want: "IL"},
		{name: "abbreviation is case sensitive", matcher: jamesBeard, input: "Chicago, il", want: ""},
		{name: "abbreviation needs word boundary", matcher: michelin, input: "CALIFORNIAN", want: ""},
		{name: "full name beats abbreviation", matcher: michelin, input: "NY style, Texas", want: "TX"},
		{name: "table order decides overlaps", matcher: michelin, input: "Charleston, West Virginia", want: "VA"},
		{name: "kansas before missouri", matcher: michelin, input: "Kansas City, Missouri", want: "KS"},
		{name: "washington wins over dc alias", matcher: jamesBeard, input: "Washington, D.C.", want: "WA"},
		{name: "dc alias only for james beard", matcher: jamesBeard, input: "Georgetown, D.C.", want: "DC"},
		{name: "dc abbreviation", matcher: michelin, input: "Georgetown, DC 20007", want: "DC"},
		{name: "nothing", matcher: michelin, input: "Paris, France", want: ""},
		{name: "empty", matcher: michelin, input: "", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.matcher.Extract(tc.input))
		})
	}
}

func TestParseRejectsEmptyTables(t *testing.T) {
	_, err := Parse([]byte("states: []\n"))
	require.Error(t, err)
}
