// Package textnorm turns raw document text into a canonical stream of
// lowercase lemmas filtered by a fixed admission policy.
package textnorm

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const DefaultMinTokenLength = 3

// Config selects the lemmatizer and extends the admission policy.
type Config struct {
	Lemmatizer     string
	MinTokenLength int
	Stopwords      []string
	StopwordsFile  string
}

// Policy is the token admission policy of a Model.
type Policy struct {
	MinLength int
	Stopwords Stopwords
}

// NormalizedText is an ordered sequence of admitted tokens.
type NormalizedText []string

func (n NormalizedText) String() string {
	return strings.Join(n, " ")
}

// Set returns the distinct tokens of n.
func (n NormalizedText) Set() map[string]struct{} {
	set := make(map[string]struct{}, len(n))
	for _, token := range n {
		set[token] = struct{}{}
	}
	return set
}

// Model is the shared normalization model. It is read-only after NewModel
// and safe for concurrent use.
type Model struct {
	lemmatizer Lemmatizer
	policy     Policy
}

// NewModel loads the lemma table and stopword lists described by cfg.
func NewModel(cfg Config) (*Model, error) {
	lemmatizer, err := newLemmatizer(cfg.Lemmatizer)
	if err != nil {
		return nil, modelError("load lemmatizer", err)
	}

	stopwords, err := loadStopwords(cfg.Stopwords, cfg.StopwordsFile)
	if err != nil {
		return nil, modelError("load stopwords", err)
	}

	minLength := cfg.MinTokenLength
	if minLength <= 0 {
		minLength = DefaultMinTokenLength
	}

	return &Model{
		lemmatizer: lemmatizer,
		policy:     Policy{MinLength: minLength, Stopwords: stopwords},
	}, nil
}

// Policy returns the admission policy of the model.
func (m *Model) Policy() Policy {
	return m.policy
}

// Stopwords returns the stopword set of the model.
func (m *Model) Stopwords() Stopwords {
	return m.policy.Stopwords
}

// Normalize lowercases raw, splits it into tokens, reduces each token to its
// lemma and keeps the tokens accepted by the admission policy, in order.
// Empty or unreadable text yields an empty result, not an error.
func (m *Model) Normalize(raw string) (NormalizedText, error) {
	if m == nil || m.lemmatizer == nil || m.policy.Stopwords == nil {
		return nil, modelError("model is not loaded", nil)
	}

	if !utf8.ValidString(raw) {
		raw = strings.ToValidUTF8(raw, " ")
	}

	text := cases.Lower(language.Und).String(norm.NFKC.String(raw))

	out := make(NormalizedText, 0)
	for _, token := range Tokenize(text) {
		if token.Kind != KindWord {
			continue
		}
		if lemma, ok := m.admit(token.Text); ok {
			out = append(out, lemma)
		}
	}

	return out, nil
}

func (m *Model) admit(surface string) (string, bool) {
	if m.policy.Stopwords.Contains(surface) {
		return "", false
	}

	lemma := strings.TrimSpace(lemmaOf(m.lemmatizer, surface))
	if lemma == "" || !singleToken(lemma) {
		return "", false
	}
	if m.policy.Stopwords.Contains(lemma) {
		return "", false
	}
	if utf8.RuneCountInString(lemma) < m.policy.MinLength {
		return "", false
	}

	return lemma, true
}

// singleToken reports whether token re-tokenizes to exactly one word token
// equal to itself.
func singleToken(token string) bool {
	tokens := Tokenize(token)
	return len(tokens) == 1 && tokens[0].Kind == KindWord && tokens[0].Text == token
}
