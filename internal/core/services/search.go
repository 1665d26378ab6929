package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
	"github.com/custodia-labs/ndavault/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// queryEmbeddingCacheSize bounds the number of cached query embeddings.
const queryEmbeddingCacheSize = 256

// maxHighlights is the number of snippets attached to a result.
const maxHighlights = 3

// SearchService provides hybrid retrieval over document fragments.
type SearchService struct {
	fragments        driven.FragmentStore
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	settings         domain.SearchSettings

	embeddings *lru.Cache[string, []float32]
}

// NewSearchService creates a new search service.
// The vectorIndex and embeddingService parameters are optional (can be nil);
// without both, searches run lexical-only.
func NewSearchService(
	fragments driven.FragmentStore,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	settings domain.SearchSettings,
) *SearchService {
	cache, err := lru.New[string, []float32](queryEmbeddingCacheSize)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &SearchService{
		fragments:        fragments,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		settings:         settings,
		embeddings:       cache,
	}
}

// Mode reports the mode searches run in when not forced lexical-only.
func (s *SearchService) Mode() domain.SearchMode {
	if s.vectorIndex != nil && s.embeddingService != nil {
		return domain.SearchModeHybrid
	}
	return domain.SearchModeLexicalOnly
}

// Search ranks fragments against the query.
//
// Keyword matching and vector similarity run in parallel. If the vector path
// fails or times out the search degrades to lexical-only; the query itself
// never fails because of the oracle.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	resp := &domain.SearchResponse{
		Query:    query,
		Keywords: ExtractKeywords(query),
		Mode:     s.Mode(),
		Results:  []domain.SearchResult{},
	}
	if opts.LexicalOnly {
		resp.Mode = domain.SearchModeLexicalOnly
	}
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return resp, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.settings.MaxResults
	}
	weight := s.settings.LexicalWeight
	if opts.LexicalWeight != nil {
		weight = *opts.LexicalWeight
	}
	if weight < 0 || weight > 1 {
		return nil, fmt.Errorf("%w: lexical weight must be within [0,1], got %v", domain.ErrInvalidInput, weight)
	}
	logger.Debug("Keywords: %v, limit: %d, lexical weight: %.2f, mode: %s",
		resp.Keywords, limit, weight, resp.Mode)

	candidates, err := s.fragments.ListAll(ctx, opts.Filenames)
	if err != nil {
		return nil, fmt.Errorf("load fragments: %w", err)
	}
	logger.Debug("Candidate fragments: %d", len(candidates))
	if len(candidates) == 0 {
		return resp, nil
	}

	var lexical []domain.LexicalMatch
	var hits []domain.VectorHit
	var vectorErr error

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		lexical = keywordSearch(resp.Keywords, candidates, s.settings.CandidateLimit)
	}()
	if resp.Mode == domain.SearchModeHybrid {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hits, vectorErr = s.vectorSearch(ctx, query, candidates)
		}()
	}
	wg.Wait()

	if vectorErr != nil {
		logger.Warn("Vector search failed, using keyword results only: %v", vectorErr)
		resp.Degraded = true
		resp.Mode = domain.SearchModeLexicalOnly
		hits = nil
	}
	logger.Debug("Lexical matches: %d, vector hits: %d", len(lexical), len(hits))

	byID := make(map[string]domain.Fragment, len(hits))
	if len(hits) > 0 {
		for i := range candidates {
			byID[candidates[i].ID] = candidates[i]
		}
	}

	fused := FuseResults(lexical, hits, byID, weight)
	if len(fused) > limit {
		fused = fused[:limit]
	}

	for i := range fused {
		resp.Results = append(resp.Results, domain.SearchResult{
			Fragment:        fused[i].Fragment,
			Score:           fused[i].FusedScore,
			LexicalScore:    fused[i].LexicalScore,
			VectorScore:     fused[i].VectorScore,
			MatchedKeywords: fused[i].MatchedKeywords,
			Highlights:      generateHighlights(fused[i].Fragment.Content, resp.Keywords),
		})
	}
	logger.Info("Final results: %d (%s)", len(resp.Results), resp.Mode.Description())

	return resp, nil
}

// vectorSearch embeds the query and asks the oracle to score the candidates.
// Both calls share the oracle timeout.
func (s *SearchService) vectorSearch(
	ctx context.Context, query string, candidates []domain.Fragment,
) ([]domain.VectorHit, error) {
	if s.vectorIndex == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	timeout := s.settings.OracleTimeout
	if timeout <= 0 {
		timeout = domain.DefaultAppSettings().Search.OracleTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	embedding, err := s.queryEmbedding(ctx, query)
	if err != nil {
		return nil, oracleError("generate query embedding", err)
	}

	ids := make([]string, len(candidates))
	for i := range candidates {
		ids[i] = candidates[i].ID
	}

	scores, err := s.vectorIndex.Similar(ctx, embedding, ids)
	if err != nil {
		return nil, oracleError("vector similarity", err)
	}

	hits := make([]domain.VectorHit, 0, len(scores))
	for id, sim := range scores {
		hits = append(hits, domain.VectorHit{FragmentID: id, Similarity: sim})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].FragmentID < hits[j].FragmentID
	})
	if limit := s.settings.CandidateLimit; limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// queryEmbedding returns a cached embedding or generates one.
func (s *SearchService) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	key := strings.ToLower(query)
	if cached, ok := s.embeddings.Get(key); ok {
		logger.Debug("Query embedding cache hit")
		return cached, nil
	}
	embedding, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	s.embeddings.Add(key, embedding)
	return embedding, nil
}

// oracleError marks deadline failures as oracle timeouts.
func oracleError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrOracleTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// generateHighlights returns sentences containing any keyword.
func generateHighlights(content string, keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}

	var highlights []string
	for _, sentence := range splitSentences(content) {
		lower := strings.ToLower(sentence)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				highlights = append(highlights, truncateRunes(sentence, 200))
				break
			}
		}
		if len(highlights) >= maxHighlights {
			break
		}
	}
	return highlights
}

// splitSentences splits content into sentences.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
