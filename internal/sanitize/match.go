package sanitize

import "strings"

// matchLevels are tried in ascending strictness. The no-spaces variants
// are deliberately absent: word splitting is part of the match.
var matchLevels = []Level{
	LevelNone,
	LevelRegion,
	LevelRegionAndSpecialCharacters,
	LevelRegionAndSpecialCharactersAndRomanNumerals,
}

// Matches reports whether candidate plausibly names the same game as
// source. Both strings are lower-cased and accent-normalized, then at each
// level the candidate is split into words and every word must appear as a
// substring of the sanitized source. The first satisfying level wins.
//
// Containment is substring-based rather than token-based, and duplicate
// candidate words each count even when the source holds the word once
// ("mario mario" matches "mario kart"). That leniency is intentional: the
// source side is a local file name that usually carries extra words
// (region tags, disc numbers) around the real title.
//
// The check is one-directional on purpose. Extra words on the source side
// are tolerated; extra words on the candidate side are not, so a short
// file name like "pokemon" does NOT match "Pokémon Blue" — otherwise every
// entry of a long franchise would match its shortest title. Do not loosen
// this to a symmetric containment.
func Matches(sourceTitle, candidateTitle string) bool {
	if strings.TrimSpace(candidateTitle) == "" {
		return false
	}

	source := strings.ToLower(NormalizeAccents(sourceTitle))
	candidate := strings.ToLower(NormalizeAccents(candidateTitle))

	for _, level := range matchLevels {
		s := Sanitize(source, level)
		words := strings.Fields(Sanitize(candidate, level))
		if len(words) == 0 {
			continue
		}

		found := 0
		for _, word := range words {
			if strings.Contains(s, word) {
				found++
			}
		}
		if found == len(words) {
			return true
		}
	}

	return false
}
