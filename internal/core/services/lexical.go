package services

import (
	"sort"
	"strings"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

// distinctKeywordWeight is the score contributed by each distinct keyword
// found. The occurrence bonus is strictly below it, so covering one more
// keyword always outranks any amount of repetition.
const distinctKeywordWeight = 1.0

// KeywordSearch scores fragments against the query's keywords.
//
// Each distinct keyword found adds distinctKeywordWeight; total occurrences
// add a saturating bonus in [0,1). Fragments with no match are discarded.
// Results are sorted by score descending, ties keep input order, and the
// list is truncated to maxResults (no limit when maxResults <= 0).
func KeywordSearch(query string, fragments []domain.Fragment, maxResults int) []domain.LexicalMatch {
	return keywordSearch(ExtractKeywords(query), fragments, maxResults)
}

func keywordSearch(keywords []string, fragments []domain.Fragment, maxResults int) []domain.LexicalMatch {
	if len(keywords) == 0 {
		return []domain.LexicalMatch{}
	}

	matches := make([]domain.LexicalMatch, 0)
	for i := range fragments {
		score, matched := lexicalScore(keywords, fragments[i].Content)
		if len(matched) == 0 {
			continue
		}
		matches = append(matches, domain.LexicalMatch{
			Fragment:        fragments[i],
			Score:           score,
			MatchedKeywords: matched,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}

// lexicalScore counts case-insensitive occurrences of each keyword.
func lexicalScore(keywords []string, content string) (float64, []string) {
	text := strings.ToLower(content)

	var matched []string
	total := 0
	for _, kw := range keywords {
		n := strings.Count(text, kw)
		if n == 0 {
			continue
		}
		matched = append(matched, kw)
		total += n
	}
	if len(matched) == 0 {
		return 0, nil
	}

	occurrences := float64(total)
	score := float64(len(matched))*distinctKeywordWeight + occurrences/(occurrences+1)
	return score, matched
}
