package textutil

import (
	"regexp"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases and strips all whitespace, it is used for
// loose comparisons only.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

var upper = cases.Upper(language.German)

// NormalizeTeacher returns the canonical (uppercase, trimmed) form of a
// teacher abbreviation.
func NormalizeTeacher(abbreviation string) string {
	return upper.String(strings.TrimSpace(abbreviation))
}

// Suggest returns up to `limit` candidates ordered by Jaro-Winkler
// similarity to query, candidates scoring below minScore are dropped.
func Suggest(query string, candidates []string, minScore float64, limit int) []string {
	type scored struct {
		value string
		score float64
	}

	normalized := NormalizeName(query)
	var results []scored
	for _, c := range candidates {
		score := matchr.JaroWinkler(normalized, NormalizeName(c), false)
		if score < minScore {
			continue
		}
		results = append(results, scored{value: c, score: score})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	out := []string{}
	for i := 0; i < len(results) && i < limit; i++ {
		out = append(out, results[i].value)
	}
	return out
}
