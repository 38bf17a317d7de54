package store

import (
	"regexp"
	"strings"
)

// wordRe matches lowercase alphanumeric words after normalization.
var wordRe = regexp.MustCompile(`[a-z0-9_]+`)

// tokenize lowercases text and splits it on word boundaries. Indexing and
// query tokenization must use the same rules; changing them requires
// reindexing every stored row, since tokens are persisted alongside text.
func tokenize(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}
