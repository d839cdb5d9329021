// Package sanitize normalizes raw game titles into comparable forms and
// decides whether a scraped result matches a local game name.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Level is a named degree of text normalization. Each level is an
// independent transform applied to the input, not a pipeline position.
type Level int

const (
	LevelNone Level = iota
	LevelRegion
	LevelRegionAndSpecialCharacters
	LevelRegionAndSpecialCharactersAndNoSpaces
	LevelRegionAndSpecialCharactersAndRomanNumerals
	LevelRegionAndSpecialCharactersAndNoSpacesAndRomanNumerals
)

var (
	trailingParenRe = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	specialCharsRe  = regexp.MustCompile(`[^A-Za-z0-9\s]`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// romanNumerals maps values 1..20 to their Roman form, iterated from 20
// down to 1 so longer numerals are rewritten before their prefixes.
var romanNumerals = []string{
	"", "I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X",
	"XI", "XII", "XIII", "XIV", "XV", "XVI", "XVII", "XVIII", "XIX", "XX",
}

var (
	romanToArabicRes [21]*regexp.Regexp
	arabicToRomanRes [21]*regexp.Regexp
)

func init() {
	for n := 1; n <= 20; n++ {
		romanToArabicRes[n] = regexp.MustCompile(`(?i)\b` + romanNumerals[n] + `\b`)
		arabicToRomanRes[n] = regexp.MustCompile(fmt.Sprintf(`\b%d\b`, n))
	}
}

// Sanitize normalizes name at the requested level.
func Sanitize(name string, level Level) string {
	if level == LevelNone {
		return name
	}

	out := stripRegion(name)
	if level == LevelRegion {
		return out
	}

	out = strings.TrimSpace(specialCharsRe.ReplaceAllString(out, ""))

	switch level {
	case LevelRegionAndSpecialCharactersAndRomanNumerals,
		LevelRegionAndSpecialCharactersAndNoSpacesAndRomanNumerals:
		out = normalizeNumerals(out)
	}

	switch level {
	case LevelRegionAndSpecialCharactersAndNoSpaces,
		LevelRegionAndSpecialCharactersAndNoSpacesAndRomanNumerals:
		out = whitespaceRe.ReplaceAllString(out, "")
	}

	return out
}

// stripRegion removes trailing parenthetical groups like "(USA)" or
// "(Rev 1)" and collapses whitespace runs to a single space.
func stripRegion(name string) string {
	out := strings.TrimSpace(name)
	for {
		stripped := trailingParenRe.ReplaceAllString(out, "")
		if stripped == out {
			break
		}
		out = stripped
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(out, " "))
}

// normalizeNumerals round-trips Roman numerals I..XX through Arabic and
// back, so "Part 4" and "Part IV" end up in the same numeral style.
func normalizeNumerals(name string) string {
	out := name
	for n := 20; n >= 1; n-- {
		out = romanToArabicRes[n].ReplaceAllString(out, fmt.Sprintf("%d", n))
	}
	for n := 20; n >= 1; n-- {
		out = arabicToRomanRes[n].ReplaceAllString(out, romanNumerals[n])
	}
	return out
}

// CleanName turns a game file name into a searchable title: a known file
// extension (matched case-insensitively against extensions) is stripped,
// then trailing parenthetical groups are removed.
func CleanName(name string, extensions []string) string {
	out := strings.TrimSpace(name)
	for _, ext := range extensions {
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if len(out) > len(ext) && strings.EqualFold(out[len(out)-len(ext):], ext) {
			out = out[:len(out)-len(ext)]
			break
		}
	}
	return stripRegion(out)
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeAccents decomposes the text, drops combining marks and
// recomposes, turning "Pokémon" into "Pokemon". Used for comparison only,
// never persisted.
func NormalizeAccents(text string) string {
	out, _, err := transform.String(accentStripper, text)
	if err != nil {
		return text
	}
	return out
}
