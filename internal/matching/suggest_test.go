package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stopSet map[string]struct{}

func (s stopSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

func set(tokens ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		out[token] = struct{}{}
	}
	return out
}

func TestSuggestKeywords(t *testing.T) {
	tests := []struct {
		name   string
		jd     []string
		resume map[string]struct{}
		stop   Stopwords
		limit  int
		expect []string
	}{
		{
			name:   "preserves jd order and dedups",
			jd:     []string{"python", "sql", "python", "spark", "airflow"},
			resume: set("sql"),
			limit:  3,
			expect: []string{"python", "spark", "airflow"},
		},
		{
			name:   "caps at limit",
			jd:     []string{"aaa", "bbb", "ccc", "ddd"},
			resume: set(),
			limit:  2,
			expect: []string{"aaa", "bbb"},
		},
		{
			name:   "skips short tokens and stopwords",
			jd:     []string{"go", "the", "kafka", "ml"},
			resume: set(),
			stop:   stopSet{"the": {}},
			limit:  3,
			expect: []string{"kafka"},
		},
		{
			name:   "everything covered",
			jd:     []string{"python", "sql"},
			resume: set("python", "sql"),
			limit:  3,
			expect: []string{},
		},
		{
			name:   "empty jd",
			jd:     nil,
			resume: set("python"),
			limit:  3,
			expect: []string{},
		},
		{
			name:   "non-positive limit",
			jd:     []string{"python"},
			resume: set(),
			limit:  0,
			expect: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestKeywords(tt.jd, tt.resume, tt.stop, tt.limit)
			assert.Equal(t, tt.expect, got)
			assert.LessOrEqual(t, len(got), max(tt.limit, 0))
			for _, token := range got {
				assert.NotContains(t, tt.resume, token)
			}
		})
	}
}
