package pricing

import "strings"

// Relevance scores assigned by MatchModel
const (
	RelevanceExact           = 100
	RelevancePrefix          = 90
	RelevanceFamily          = 85
	RelevanceFamilySubstring = 80
)

// FamilyToken returns the part of a model before its first hyphen, or the
// whole model when it has none ("ZX200-6" -> "ZX200").
func FamilyToken(model string) string {
	if i := strings.IndexByte(model, '-'); i >= 0 {
		return model[:i]
	}
	return model
}

// MatchModel decides whether candidate is comparable to query and returns
// its relevance. Comparison is case-sensitive.
func MatchModel(query, candidate string) (int, bool) {
	query = strings.TrimSpace(query)
	candidate = strings.TrimSpace(candidate)
	if query == "" || candidate == "" {
		return 0, false
	}

	if candidate == query {
		return RelevanceExact, true
	}
	if strings.HasPrefix(candidate, query) || strings.HasPrefix(query, candidate) {
		return RelevancePrefix, true
	}

	queryFamily := FamilyToken(query)
	candidateFamily := FamilyToken(candidate)
	if queryFamily != "" && queryFamily == candidateFamily {
		return RelevanceFamily, true
	}

	// an empty family token is a substring of everything
	if queryFamily != "" && strings.Contains(candidate, queryFamily) {
		return RelevanceFamilySubstring, true
	}
	if candidateFamily != "" && strings.Contains(query, candidateFamily) {
		return RelevanceFamilySubstring, true
	}

	return 0, false
}
