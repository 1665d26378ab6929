package services

import (
	"sort"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

// Weights for fusing the two retrieval signals.
const (
	// DefaultLexicalWeight favours the vector signal without zeroing keywords.
	DefaultLexicalWeight = 0.4
)

// FuseResults merges a lexical ranking with vector similarities.
//
// Each signal is scaled on its own by its maximum, with a floor of 0: a
// fragment missing from a signal gets 0 for it, and every real match scores
// above 0. Similarities are shifted from [-1,1] onto [0,1] first. The fused score is
// lexicalWeight*lexical + (1-lexicalWeight)*vector. When vector is empty the
// lexical ranking is returned with fused = normalised lexical score.
//
// The result is totally ordered by fused score descending, then original
// lexical rank ascending (fragments absent from the lexical list last), then
// fragment ID ascending. Fusion is deterministic and idempotent.
//
// Vector-only fragments need their Fragment looked up, so vectorFragments maps
// fragment IDs to fragments for hits not present in the lexical list. Hits
// with no fragment are dropped.
func FuseResults(
	lexical []domain.LexicalMatch,
	vector []domain.VectorHit,
	vectorFragments map[string]domain.Fragment,
	lexicalWeight float64,
) []domain.FusedResult {
	lexicalWeight = clampWeight(lexicalWeight)
	useVector := len(vector) > 0
	vectorWeight := 1 - lexicalWeight
	if !useVector {
		lexicalWeight, vectorWeight = 1, 0
	}

	lexScores := make([]float64, len(lexical))
	for i := range lexical {
		lexScores[i] = lexical[i].Score
	}
	lexNorm := maxNormalise(lexScores)

	vecScores := make([]float64, len(vector))
	for i := range vector {
		vecScores[i] = shiftSimilarity(vector[i].Similarity)
	}
	vecNorm := maxNormalise(vecScores)

	byID := make(map[string]*domain.FusedResult, len(lexical)+len(vector))
	results := make([]*domain.FusedResult, 0, len(lexical)+len(vector))

	for i := range lexical {
		id := lexical[i].Fragment.ID
		if _, dup := byID[id]; dup {
			continue
		}
		r := &domain.FusedResult{
			Fragment:        lexical[i].Fragment,
			LexicalScore:    lexNorm[i],
			LexicalRank:     i + 1,
			MatchedKeywords: lexical[i].MatchedKeywords,
		}
		byID[id] = r
		results = append(results, r)
	}

	for i := range vector {
		id := vector[i].FragmentID
		if r, ok := byID[id]; ok {
			if vecNorm[i] > r.VectorScore {
				r.VectorScore = vecNorm[i]
			}
			continue
		}
		frag, ok := vectorFragments[id]
		if !ok {
			continue
		}
		r := &domain.FusedResult{Fragment: frag, VectorScore: vecNorm[i]}
		byID[id] = r
		results = append(results, r)
	}

	out := make([]domain.FusedResult, len(results))
	for i, r := range results {
		r.FusedScore = lexicalWeight*r.LexicalScore + vectorWeight*r.VectorScore
		out[i] = *r
	}

	sort.Slice(out, func(i, j int) bool {
		return fusedLess(&out[i], &out[j])
	})
	return out
}

// fusedLess implements the FusedResult total order.
func fusedLess(a, b *domain.FusedResult) bool {
	if a.FusedScore != b.FusedScore {
		return a.FusedScore > b.FusedScore
	}
	ar, br := lexicalRankKey(a.LexicalRank), lexicalRankKey(b.LexicalRank)
	if ar != br {
		return ar < br
	}
	return a.Fragment.ID < b.Fragment.ID
}

// lexicalRankKey sorts fragments absent from the lexical list after ranked ones.
func lexicalRankKey(rank int) int {
	if rank <= 0 {
		return int(^uint(0) >> 1)
	}
	return rank
}

// maxNormalise maps non-negative scores onto [0,1] by dividing by the
// largest. The top score maps to 1 and positive scores stay positive.
func maxNormalise(scores []float64) []float64 {
	out := make([]float64, len(scores))
	hi := 0.0
	for _, s := range scores {
		if s > hi {
			hi = s
		}
	}
	if hi == 0 {
		return out
	}
	for i, s := range scores {
		if s > 0 {
			out[i] = s / hi
		}
	}
	return out
}

// shiftSimilarity maps a cosine similarity from [-1,1] onto [0,1].
func shiftSimilarity(sim float64) float64 {
	switch {
	case sim <= -1:
		return 0
	case sim >= 1:
		return 1
	default:
		return (sim + 1) / 2
	}
}

func clampWeight(w float64) float64 {
	switch {
	case w < 0:
		return 0
	case w > 1:
		return 1
	default:
		return w
	}
}
