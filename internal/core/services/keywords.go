package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minKeywordLength is the shortest token kept as a keyword.
const minKeywordLength = 3

// ExtractKeywords turns free text into an ordered keyword set.
//
// The text is lowercased and split on non-alphanumeric boundaries. Stop words
// and tokens of two runes or fewer are dropped, and duplicates keep their
// first position. Empty or all-stop-word input yields an empty slice, which
// callers treat as "no lexical signal".
func ExtractKeywords(query string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	keywords := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) < minKeywordLength || isStopWord(tok) {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}
	return keywords
}
