package matching

import "unicode/utf8"

const DefaultMaxSuggestions = 3

// Stopwords is the read-only stopword set shared with the normalizer.
type Stopwords interface {
	Contains(word string) bool
}

// SuggestKeywords lists JD tokens missing from the resume, in JD order,
// without duplicates and with at most limit entries.
func SuggestKeywords(jd []string, resume map[string]struct{}, stop Stopwords, limit int) []string {
	if limit <= 0 {
		return []string{}
	}

	suggestions := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, token := range jd {
		if len(suggestions) >= limit {
			break
		}
		if _, ok := seen[token]; ok {
			continue
		}
		if _, ok := resume[token]; ok {
			continue
		}
		if stop != nil && stop.Contains(token) {
			continue
		}
		if utf8.RuneCountInString(token) <= 2 {
			continue
		}

		suggestions = append(suggestions, token)
		seen[token] = struct{}{}
	}

	return suggestions
}
