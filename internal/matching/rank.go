// Package matching scores resumes against a job description in a TF-IDF
// vector space and suggests JD keywords each resume is missing.
package matching

import (
	"math"
	"sort"
	"strings"

	"github.com/spigell/resume-matcher/internal/textnorm"
)

// Candidate is a normalized resume taking part in a ranking.
type Candidate struct {
	Name   string
	Tokens textnorm.NormalizedText
}

// Result is one row of the ranked table.
type Result struct {
	Name        string   `json:"name" yaml:"name"`
	Score       float64  `json:"score" yaml:"score"`
	Suggestions []string `json:"suggestions" yaml:"suggestions"`
}

// SuggestionString renders the suggestions the way the table shows them.
func (r Result) SuggestionString() string {
	return strings.Join(r.Suggestions, ", ")
}

// Table holds ranked rows sorted by descending score.
type Table struct {
	Rows []Result `json:"rows" yaml:"rows"`
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Best returns the top row or nil for an empty table.
func (t *Table) Best() *Result {
	if t.Len() == 0 {
		return nil
	}
	return &t.Rows[0]
}

// Names returns row names in table order.
func (t *Table) Names() []string {
	names := make([]string, 0, t.Len())
	for _, row := range t.Rows {
		names = append(names, row.Name)
	}
	return names
}

// FindByName returns the row with the given name or nil.
func (t *Table) FindByName(name string) *Result {
	for i := range t.Rows {
		if t.Rows[i].Name == name {
			return &t.Rows[i]
		}
	}
	return nil
}

// Options configures a Ranker.
type Options struct {
	MaxSuggestions int
	Vector         VectorOptions
}

// Ranker ranks candidates against one job description.
type Ranker struct {
	stopwords      Stopwords
	maxSuggestions int
	vector         VectorOptions
}

// NewRanker returns a Ranker. A non-positive MaxSuggestions falls back to
// DefaultMaxSuggestions.
func NewRanker(stopwords Stopwords, opts Options) *Ranker {
	maxSuggestions := opts.MaxSuggestions
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}

	return &Ranker{
		stopwords:      stopwords,
		maxSuggestions: maxSuggestions,
		vector:         opts.Vector,
	}
}

// Rank scores every candidate against jd and returns the rows sorted by
// descending score. Equal scores keep the input order.
func (r *Ranker) Rank(jd textnorm.NormalizedText, candidates []Candidate) (*Table, error) {
	if len(candidates) == 0 {
		return nil, ErrEmptyInput
	}

	corpus := make([][]string, 0, len(candidates)+1)
	corpus = append(corpus, jd)
	for _, c := range candidates {
		corpus = append(corpus, c.Tokens)
	}

	space := FitSpace(corpus, r.vector)
	jdVector := space.Transform(jd)

	rows := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		sim := Cosine(jdVector, space.Transform(c.Tokens))
		rows = append(rows, Result{
			Name:        c.Name,
			Score:       ScaleScore(sim),
			Suggestions: SuggestKeywords(jd, c.Tokens.Set(), r.stopwords, r.maxSuggestions),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Score > rows[j].Score })

	return &Table{Rows: rows}, nil
}

// ScaleScore maps a cosine similarity onto [0, 100] with two decimals.
func ScaleScore(sim float64) float64 {
	return math.Round(sim*10000) / 100
}
