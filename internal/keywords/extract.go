package keywords

import (
	"regexp"
	"strings"
)

// MaxKeywords is the number of illustrations fetched per story.
const MaxKeywords = 5

// nonWord matches runs of characters outside [A-Za-z0-9_].
var nonWord = regexp.MustCompile(`[^A-Za-z0-9_]+`)

var stopwords = map[string]struct{}{
	"in": {}, "the": {}, "a": {}, "an": {}, "and": {},
	"of": {}, "on": {}, "for": {}, "to": {}, "is": {},
}

// Extract lowercases text, splits it on non-word runs and drops empty tokens
// and stopwords. Order is preserved and duplicates are kept.
func Extract(text string) []string {
	words := []string{}
	for _, token := range nonWord.Split(strings.ToLower(text), -1) {
		if token == "" {
			continue
		}
		if _, stop := stopwords[token]; stop {
			continue
		}
		words = append(words, token)
	}
	return words
}

// Limit returns at most n leading words.
func Limit(words []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if len(words) <= n {
		return words
	}
	return words[:n]
}

// IsStopword reports whether word is dropped by Extract.
func IsStopword(word string) bool {
	_, ok := stopwords[strings.ToLower(word)]
	return ok
}
