package keywords

import (
	"regexp"
	"strings"
)

// defaultStopWords are articles, prepositions, auxiliary verbs and words that
// appear in nearly every bank description.
var defaultStopWords = []string{
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of",
	"with", "by", "from", "as", "is", "was", "are", "been", "be", "have", "has",
	"had", "do", "does", "did", "will", "would", "should", "could", "may",
	"might", "must", "can", "payment", "transaction",
}

const defaultMinKeywordLength = 3

var nonWord = regexp.MustCompile(`[^\w\s]`)

// Tokenizer extracts candidate keywords from transaction descriptions.
type Tokenizer struct {
	stopWords map[string]struct{}
	minLength int
}

// NewTokenizer creates a tokenizer. Stop words are matched case-insensitively
// and tokens shorter than minLength are dropped.
func NewTokenizer(stopWords []string, minLength int) *Tokenizer {
	if minLength <= 0 {
		minLength = defaultMinKeywordLength
	}
	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Tokenizer{stopWords: set, minLength: minLength}
}

// Tokenize lowercases the description, replaces punctuation with spaces and
// returns the distinct remaining words in order of first appearance.
func (t *Tokenizer) Tokenize(description string) []string {
	if description == "" {
		return nil
	}

	cleaned := nonWord.ReplaceAllString(strings.ToLower(description), " ")

	var tokens []string
	seen := make(map[string]struct{})
	for _, word := range strings.Fields(cleaned) {
		if len(word) < t.minLength {
			continue
		}
		if _, stop := t.stopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		tokens = append(tokens, word)
	}
	return tokens
}
