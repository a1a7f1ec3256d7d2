// Package geodata holds the read-only US geography tables shared by the
// source adapters, the enrichment stage and the geocoder.
package geodata

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed geodata.yaml
var rawTables []byte

type State struct {
	Name string  `yaml:"name"`
	Code string  `yaml:"code"`
	Lat  float64 `yaml:"lat"`
	Lng  float64 `yaml:"lng"`
}

type Alias struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

type City struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lng  float64 `yaml:"lng"`
}

type document struct {
	States    []State `yaml:"states"`
	DCAliases []Alias `yaml:"dc_aliases"`
	Cities    []City  `yaml:"cities"`
}

// Tables is immutable after Load; accessors return copies or values.
type Tables struct {
	states     []State
	aliases    []Alias
	cities     []City
	byCode     map[string]State
	cityByName map[string]City
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
	defaultErr    error
)

// Load parses the embedded tables.
func Load() (*Tables, error) {
	return Parse(rawTables)
}

// Default returns the embedded tables, parsed once per process.
func Default() *Tables {
	defaultOnce.Do(func() {
		defaultTables, defaultErr = Load()
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("geodata: embedded tables are invalid: %v", defaultErr))
	}
	return defaultTables
}

func Parse(blob []byte) (*Tables, error) {
	var doc document
	if err := yaml.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("parse geodata: %w", err)
	}
	if len(doc.States) == 0 {
		return nil, fmt.Errorf("parse geodata: no states")
	}

	t := &Tables{
		states:     doc.States,
		aliases:    doc.DCAliases,
		cities:     doc.Cities,
		byCode:     make(map[string]State, len(doc.States)),
		cityByName: make(map[string]City, len(doc.Cities)),
	}
	for _, s := range doc.States {
		if s.Name == "" || len(s.Code) != 2 {
			return nil, fmt.Errorf("parse geodata: bad state entry %+v", s)
		}
		t.byCode[s.Code] = s
	}
	for _, c := range doc.Cities {
		if _, dup := t.cityByName[c.Name]; !dup {
			t.cityByName[c.Name] = c
		}
	}
	return t, nil
}

func (t *Tables) States() []State {
	return append([]State(nil), t.states...)
}

// StateName returns the full name for a code, or the code itself when unknown.
func (t *Tables) StateName(code string) string {
	if s, ok := t.byCode[code]; ok {
		return s.Name
	}
	return code
}

func (t *Tables) StateCentroid(code string) (State, bool) {
	s, ok := t.byCode[code]
	return s, ok
}

// CityCentroid matches on the exact city name as written in the record.
func (t *Tables) CityCentroid(name string) (City, bool) {
	c, ok := t.cityByName[name]
	return c, ok
}

// MichelinMatcher resolves states from the plain state table.
func (t *Tables) MichelinMatcher() *StateMatcher {
	entries := make([]Alias, 0, len(t.states))
	for _, s := range t.states {
		entries = append(entries, Alias{Name: s.Name, Code: s.Code})
	}
	return newStateMatcher(entries)
}

// JamesBeardMatcher adds the DC spellings after the state table.
func (t *Tables) JamesBeardMatcher() *StateMatcher {
	entries := make([]Alias, 0, len(t.states)+len(t.aliases))
	for _, s := range t.states {
		entries = append(entries, Alias{Name: s.Name, Code: s.Code})
	}
	entries = append(entries, t.aliases...)
	return newStateMatcher(entries)
}

// StateMatcher extracts a state code from free text. Full names are tried
// first as case-sensitive substrings, then codes as whole words; within each
// pass the table order decides, so "West Virginia" resolves to VA and
// "Kansas City, Missouri" to KS.
type StateMatcher struct {
	entries []Alias
	codes   []codePattern
}

type codePattern struct {
	code string
	re   *regexp.Regexp
}

func newStateMatcher(entries []Alias) *StateMatcher {
	m := &StateMatcher{entries: entries}
	for _, e := range entries {
		m.codes = append(m.codes, codePattern{
			code: e.Code,
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(e.Code) + `\b`),
		})
	}
	return m
}

// Extract returns "" when text names no state.
func (m *StateMatcher) Extract(text string) string {
	if text == "" {
		return ""
	}
	for _, e := range m.entries {
		if strings.Contains(text, e.Name) {
			return e.Code
		}
	}
	for _, c := range m.codes {
		if c.re.MatchString(text) {
			return c.code
		}
	}
	return ""
}
