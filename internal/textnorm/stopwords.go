package textnorm

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed stopwords.txt
var defaultStopwords []byte

// Stopwords is an immutable set of lowercase words rejected by the admission policy.
type Stopwords map[string]struct{}

// Contains reports whether word is a stopword.
func (s Stopwords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Len returns the number of words in the set.
func (s Stopwords) Len() int {
	return len(s)
}

func loadStopwords(extra []string, file string) (Stopwords, error) {
	set := make(Stopwords)

	if err := readWordList(bytes.NewReader(defaultStopwords), set); err != nil {
		return nil, fmt.Errorf("embedded stopwords: %w", err)
	}

	file = strings.TrimSpace(file)
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("open stopwords file %q: %w", file, err)
		}
		defer f.Close()

		if err := readWordList(f, set); err != nil {
			return nil, fmt.Errorf("read stopwords file %q: %w", file, err)
		}
	}

	for _, word := range extra {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			set[word] = struct{}{}
		}
	}

	return set, nil
}

// readWordList reads one word per line. Blank lines and '#' comments are ignored.
func readWordList(r io.Reader, set Stopwords) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[strings.ToLower(line)] = struct{}{}
	}
	return scanner.Err()
}
