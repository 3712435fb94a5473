package matching

import (
	"math"
	"sort"
)

// VectorOptions tunes the TF-IDF weighting.
type VectorOptions struct {
	// SublinearTF replaces the raw term count with 1 + ln(count).
	SublinearTF bool
}

// entry is one non-zero component of a sparse vector.
type entry struct {
	index  int
	weight float64
}

// Vector is a sparse vector with entries sorted by term index.
type Vector []entry

// Norm returns the euclidean length of v.
func (v Vector) Norm() float64 {
	var sum float64
	for _, e := range v {
		sum += e.weight * e.weight
	}
	return math.Sqrt(sum)
}

// Space is a TF-IDF vector space fitted on a corpus of token sequences.
type Space struct {
	opts  VectorOptions
	vocab map[string]int
	terms []string
	idf   []float64
}

// FitSpace builds the vocabulary (union of all tokens, laid out in sorted
// order) and the smoothed inverse document frequencies
// idf(t) = ln((1 + n) / (1 + df(t))) + 1.
func FitSpace(corpus [][]string, opts VectorOptions) *Space {
	df := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{}, len(doc))
		for _, token := range doc {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			df[token]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(corpus))
	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		vocab[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	return &Space{opts: opts, vocab: vocab, terms: terms, idf: idf}
}

// Len returns the vocabulary size.
func (s *Space) Len() int {
	return len(s.terms)
}

// Transform returns the L2-normalized TF-IDF vector of doc. Tokens outside
// the vocabulary are ignored; a document without known tokens maps to the
// zero vector.
func (s *Space) Transform(doc []string) Vector {
	counts := make(map[int]float64, len(doc))
	for _, token := range doc {
		if idx, ok := s.vocab[token]; ok {
			counts[idx]++
		}
	}

	vec := make(Vector, 0, len(counts))
	for idx, count := range counts {
		tf := count
		if s.opts.SublinearTF {
			tf = 1 + math.Log(count)
		}
		vec = append(vec, entry{index: idx, weight: tf * s.idf[idx]})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].index < vec[j].index })

	if norm := vec.Norm(); norm > 0 {
		for i := range vec {
			vec[i].weight /= norm
		}
	}

	return vec
}

// Cosine returns the cosine similarity of a and b clamped to [0, 1].
// A zero vector on either side yields 0.
func Cosine(a, b Vector) float64 {
	normA, normB := a.Norm(), b.Norm()
	if normA == 0 || normB == 0 {
		return 0
	}

	var dot float64
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i].index == b[j].index:
			dot += a[i].weight * b[j].weight
			i++
			j++
		case a[i].index < b[j].index:
			i++
		default:
			j++
		}
	}

	sim := dot / (normA * normB)
	switch {
	case math.IsNaN(sim) || sim < 0:
		return 0
	case sim > 1:
		return 1
	}
	return sim
}
