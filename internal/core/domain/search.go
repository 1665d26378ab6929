package domain

// LexicalMatch is a fragment scored by keyword matching.
type LexicalMatch struct {
	// Fragment is the matched fragment.
	Fragment Fragment

	// Score is non-negative and monotonic in distinct keywords matched and
	// total occurrences.
	Score float64

	// MatchedKeywords lists the query keywords found, in query order.
	MatchedKeywords []string
}

// VectorHit is a similarity score returned by the vector oracle.
type VectorHit struct {
	FragmentID string
	Similarity float64
}

// FusedResult is a fragment ranked by the combined lexical and vector signals.
//
// Results are totally ordered: fused score descending, then original lexical
// rank ascending, then fragment ID ascending.
type FusedResult struct {
	Fragment     Fragment
	FusedScore   float64
	LexicalScore float64
	VectorScore  float64

	// LexicalRank is the 1-based position in the lexical ranking, 0 if absent.
	LexicalRank int

	MatchedKeywords []string
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results. Zero uses the configured default.
	Limit int

	// LexicalWeight overrides the configured lexical weight when set.
	LexicalWeight *float64

	// Filenames restricts retrieval to these documents.
	Filenames []string

	// LexicalOnly skips the vector signal.
	LexicalOnly bool
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// Fragment is the matched fragment.
	Fragment Fragment

	// Score is the fused relevance score.
	Score float64

	// LexicalScore is the normalised keyword score.
	LexicalScore float64

	// VectorScore is the normalised similarity score.
	VectorScore float64

	// MatchedKeywords lists the query keywords found in the fragment.
	MatchedKeywords []string

	// Highlights contains snippets around matched keywords.
	Highlights []string
}

// SearchResponse is a full search answer.
type SearchResponse struct {
	Query    string
	Keywords []string
	Mode     SearchMode

	// Degraded is set when the vector signal was requested but failed.
	Degraded bool

	Results []SearchResult
}
