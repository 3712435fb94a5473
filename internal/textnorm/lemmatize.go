package textnorm

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"
)

//go:embed lemmas.txt
var defaultLemmas []byte

const (
	LemmatizerSnowball = "snowball"
	LemmatizerNone     = "none"

	// maxLemmaPasses bounds the fixed-point iteration in lemmaOf.
	maxLemmaPasses = 8
)

// Lemmatizer reduces a lowercase token to its base form.
type Lemmatizer interface {
	Lemma(token string) string
}

// dictionaryLemmatizer maps irregular forms through a lookup table and hands
// everything else to an optional stemmer.
type dictionaryLemmatizer struct {
	irregular map[string]string
	stem      func(string) string
}

func (d *dictionaryLemmatizer) Lemma(token string) string {
	if lemma, ok := d.irregular[token]; ok {
		token = lemma
	}
	if d.stem == nil {
		return token
	}
	return d.stem(token)
}

// snowballStem stems token with Porter2. The stemmer strips -ed and -ing
// before its -ence/-ance rules run, so "experienced" would stop at
// "experienc" while "experience" becomes "experi". For such forms the base
// with a restored final e is stemmed too, and its stem wins when it is a
// shorter prefix of the plain one.
func snowballStem(token string) string {
	stem := english.Stem(token, true)

	base, suffix, ok := inflectionBase(token)
	if !ok || strings.HasSuffix(stem, suffix) {
		return stem
	}

	restored := english.Stem(base+"e", true)
	if len(restored) < len(stem) && strings.HasPrefix(stem, restored) {
		return restored
	}
	return stem
}

func inflectionBase(token string) (base, suffix string, ok bool) {
	for _, suffix := range []string{"ing", "ed"} {
		base, found := strings.CutSuffix(token, suffix)
		if found && utf8.RuneCountInString(base) >= 3 && !strings.HasSuffix(base, "e") {
			return base, suffix, true
		}
	}
	return "", "", false
}

func newLemmatizer(name string) (Lemmatizer, error) {
	irregular, err := parseLemmas(defaultLemmas)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", LemmatizerSnowball:
		return &dictionaryLemmatizer{irregular: irregular, stem: snowballStem}, nil
	case LemmatizerNone:
		return &dictionaryLemmatizer{irregular: irregular}, nil
	default:
		return nil, fmt.Errorf("unknown lemmatizer %q", name)
	}
}

func parseLemmas(data []byte) (map[string]string, error) {
	lemmas := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("lemma table line %d: expected 2 fields, got %d", line, len(fields))
		}
		lemmas[strings.ToLower(fields[0])] = strings.ToLower(fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lemmas, nil
}

// lemmaOf applies the lemmatizer until the token stops changing, which keeps
// normalization idempotent.
func lemmaOf(l Lemmatizer, token string) string {
	for range maxLemmaPasses {
		next := l.Lemma(token)
		if next == token {
			break
		}
		token = next
	}
	return token
}
