package metadata

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// SuggestThreshold is the minimum Jaro-Winkler similarity for a column
// name to be reported as a likely misspelling of a rule column.
const SuggestThreshold = 0.9

type Suggestion struct {
	Column      string
	Rule        string
	Correlation float64
}

// SuggestColumns finds header columns that will be imported as plain text
// but are spelled close to a column with a dedicated rule (ex. "Concentraton").
func SuggestColumns(header []string) []Suggestion {
	var result []Suggestion
	for _, column := range header {
		if IsReserved(column) {
			continue
		}
		lowered := strings.ToLower(column)
		if isRuleColumn(lowered) {
			continue
		}

		var mostSimilarity float64
		var mostSimilarRule string
		for _, rule := range ruleColumns {
			similarity := matchr.JaroWinkler(lowered, rule, false)
			if similarity > mostSimilarity {
				mostSimilarity = similarity
				mostSimilarRule = rule
			}
		}

		if mostSimilarity >= SuggestThreshold {
			result = append(result, Suggestion{
				Column:      column,
				Rule:        mostSimilarRule,
				Correlation: mostSimilarity,
			})
		}
	}
	return result
}

func isRuleColumn(lowered string) bool {
	for _, rule := range ruleColumns {
		if rule == lowered {
			return true
		}
	}
	return false
}
