package util

import (
	"regexp"
	"strings"
)

var (
	reSingleQuotes = regexp.MustCompile("[‘’`]")
	reDoubleQuotes = regexp.MustCompile(`[\x{201C}\x{201D}]`)
	reNonKeyChars  = regexp.MustCompile(`[^\w\s\v\p{Z}\x{FEFF}'"-]`)
	reSpaces       = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
	reHyphens      = regexp.MustCompile(`-+`)
)

// NormalizeKeyPart reduces a name or city to the characters that take part in
// an identity key. Word characters are ASCII only, so accented letters drop out.
func NormalizeKeyPart(input string) string {
	if input == "" {
		return ""
	}
	s := strings.ToLower(input)
	s = reSingleQuotes.ReplaceAllString(s, "'")
	s = reDoubleQuotes.ReplaceAllString(s, `"`)
	s = reNonKeyChars.ReplaceAllString(s, "")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Hyphenate turns every whitespace run into one hyphen and collapses hyphen runs.
func Hyphenate(input string) string {
	s := reSpaces.ReplaceAllString(input, "-")
	return reHyphens.ReplaceAllString(s, "-")
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func FloatPtr(v float64) *float64 { return &v }
