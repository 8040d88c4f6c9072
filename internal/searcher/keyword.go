package searcher

import (
	"strings"

	"github.com/ghstars/gh-stars/pkg/types"
)

// matchable field count: name, description, topics, language
const fieldCount = 4

// queryTerms lowercases and splits the query on whitespace.
func queryTerms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// scoreKeyword matches a record against query terms. Every term must
// appear as a substring of at least one field (AND across terms, OR
// across fields). The score is the fraction of fields touched by any
// term, so a repo matching in name, topics and description outranks
// one matching in description alone.
func scoreKeyword(rec *types.RepoRecord, terms []string) (float64, bool) {
	fields := [fieldCount]string{
		strings.ToLower(rec.Name),
		strings.ToLower(rec.Description),
		strings.ToLower(strings.Join(rec.Topics, " ")),
		strings.ToLower(rec.Language),
	}

	var matched [fieldCount]bool
	for _, term := range terms {
		found := false
		for i, field := range fields {
			if field != "" && strings.Contains(field, term) {
				matched[i] = true
				found = true
			}
		}
		if !found {
			return 0, false
		}
	}

	count := 0
	for _, m := range matched {
		if m {
			count++
		}
	}
	return float64(count) / fieldCount, true
}

// languageAllowed applies the language pre-filter.
func languageAllowed(language string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, want := range filter {
		if strings.EqualFold(language, want) {
			return true
		}
	}
	return false
}
