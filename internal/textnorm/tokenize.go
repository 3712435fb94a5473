package textnorm

import (
	"strings"
	"unicode"
)

// Kind classifies a raw token before admission.
type Kind int

const (
	KindWord Kind = iota
	KindNumber
	KindPunct
	KindSpace
)

func (k Kind) String() string {
	switch k {
	case KindWord:
		return "word"
	case KindNumber:
		return "number"
	case KindPunct:
		return "punct"
	case KindSpace:
		return "space"
	default:
		return "unknown"
	}
}

// Token is a segment of the input text.
type Token struct {
	Text string
	Kind Kind
}

var numberWords = map[string]struct{}{
	"zero": {}, "one": {}, "two": {}, "three": {}, "four": {}, "five": {},
	"six": {}, "seven": {}, "eight": {}, "nine": {}, "ten": {}, "eleven": {},
	"twelve": {}, "thirteen": {}, "fourteen": {}, "fifteen": {}, "sixteen": {},
	"seventeen": {}, "eighteen": {}, "nineteen": {}, "twenty": {}, "thirty": {},
	"forty": {}, "fifty": {}, "sixty": {}, "seventy": {}, "eighty": {},
	"ninety": {}, "hundred": {}, "thousand": {}, "million": {}, "billion": {},
	"trillion": {},
}

var ordinalSuffixes = []string{"st", "nd", "rd", "th"}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_'
}

// Tokenize splits lowercase text into word, number, punctuation and space
// tokens. '.' and ',' stay inside a token only between two digits, and
// trailing '+' or '#' stay attached to a word ("c++", "c#").
func Tokenize(text string) []Token {
	runes := []rune(text)
	tokens := make([]Token, 0, len(runes)/4)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			j := i
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			tokens = append(tokens, Token{Text: string(runes[i:j]), Kind: KindSpace})
			i = j
		case isWordRune(r):
			j := i
			for j < len(runes) {
				c := runes[j]
				if isWordRune(c) {
					j++
					continue
				}
				if (c == '.' || c == ',') && j > i && j+1 < len(runes) &&
					unicode.IsDigit(runes[j-1]) && unicode.IsDigit(runes[j+1]) {
					j++
					continue
				}
				break
			}
			for j < len(runes) && (runes[j] == '+' || runes[j] == '#') {
				j++
			}
			word := string(runes[i:j])
			tokens = append(tokens, Token{Text: word, Kind: classify(word)})
			i = j
		default:
			tokens = append(tokens, Token{Text: string(r), Kind: KindPunct})
			i++
		}
	}

	return tokens
}

func classify(word string) Kind {
	if likeNumber(word) {
		return KindNumber
	}
	if strings.IndexFunc(word, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) == -1 {
		return KindPunct
	}
	return KindWord
}

// likeNumber reports digits with optional inner separators, digit ordinals
// such as 1st or 22nd, and English number words.
func likeNumber(word string) bool {
	if _, ok := numberWords[word]; ok {
		return true
	}
	for _, suffix := range ordinalSuffixes {
		if base, ok := strings.CutSuffix(word, suffix); ok && base != "" {
			word = base
			break
		}
	}
	digits := 0
	for _, r := range word {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '.' || r == ',':
		default:
			return false
		}
	}
	return digits > 0
}
