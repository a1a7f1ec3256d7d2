package util

import "testing"

func TestNormalizeKeyPart(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercase", input: "Chez Leon", want: "chez leon"},
		{name: "curly apostrophe", input: "Joe’s Diner", want: "joe's diner"},
		{name: "backtick", input: "Joe`s", want: "joe's"},
		{name: "curly double quotes", input: "The “Spot”", want: `the "spot"`},
		{name: "punctuation stripped", input: "Frasca Food & Wine!", want: "frasca food wine"},
		{name: "hyphen kept", input: "Tru-Bar", want: "tru-bar"},
		{name: "non ascii letters dropped", input: "Café Boulud", want: "caf boulud"},
		{name: "collapse and trim", input: "  a \t  b  ", want: "a b"},
		{name: "empty", input: "", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeKeyPart(tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestHyphenate(t *testing.T) {
	if got := Hyphenate("a b - c--d"); got != "a-b-c-d" {
		t.Fatalf("got %q", got)
	}
}
