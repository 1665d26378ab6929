package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ndavault/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
)

type searchFixture struct {
	fragments *memory.FragmentStore
	index     *memory.VectorIndex
	embedder  *fakeEmbedder
	settings  domain.SearchSettings
}

func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()
	ctx := context.Background()

	f := &searchFixture{
		fragments: memory.NewFragmentStore(),
		index:     memory.NewVectorIndex(),
		embedder:  &fakeEmbedder{},
		settings:  domain.DefaultAppSettings().Search,
	}

	docs := map[string][]domain.Fragment{
		"green_nda.pdf": {
			{ID: "g1", Position: 0, Content: "The term of this agreement is two years."},
			{ID: "g2", Position: 1, Content: "Recipient shall keep all secret information protected."},
			{ID: "g3", Position: 2, Content: "Governing law is Delaware."},
		},
		"blue_nda.docx": {
			{ID: "b1", Position: 0, Content: "The term is five years."},
		},
	}
	for name, frags := range docs {
		require.NoError(t, f.fragments.Replace(ctx, name, frags))
		for _, fr := range frags {
			vec, err := f.embedder.Embed(ctx, fr.Content)
			require.NoError(t, err)
			require.NoError(t, f.index.Add(ctx, fr.ID, vec))
		}
	}
	f.embedder.calls.Store(0)
	return f
}

func (f *searchFixture) service(index driven.VectorIndex) *SearchService {
	return NewSearchService(f.fragments, index, f.embedder, f.settings)
}

func resultIDs(resp *domain.SearchResponse) []string {
	out := make([]string, len(resp.Results))
	for i := range resp.Results {
		out[i] = resp.Results[i].Fragment.ID
	}
	return out
}

func TestSearchService_Mode(t *testing.T) {
	f := newSearchFixture(t)
	assert.Equal(t, domain.SearchModeHybrid, f.service(f.index).Mode())
	assert.Equal(t, domain.SearchModeLexicalOnly, NewSearchService(f.fragments, nil, nil, f.settings).Mode())
	assert.Equal(t, domain.SearchModeLexicalOnly, NewSearchService(f.fragments, f.index, nil, f.settings).Mode())
}

func TestSearchService_Search_EmptyQuery(t *testing.T) {
	f := newSearchFixture(t)
	resp, err := f.service(f.index).Search(context.Background(), "   ", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, int32(0), f.embedder.calls.Load())
}

func TestSearchService_Search_LexicalOnly(t *testing.T) {
	f := newSearchFixture(t)
	svc := NewSearchService(f.fragments, nil, nil, f.settings)

	resp, err := svc.Search(context.Background(), "confidential term", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeLexicalOnly, resp.Mode)
	assert.False(t, resp.Degraded)
	assert.ElementsMatch(t, []string{"g1", "b1"}, resultIDs(resp))
	assert.Equal(t, []string{"confidential", "term"}, resp.Keywords)
}

func TestSearchService_Search_HybridFindsSemanticMatch(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.service(f.index).Search(context.Background(), "confidential term", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeHybrid, resp.Mode)
	assert.False(t, resp.Degraded)
	assert.Contains(t, resultIDs(resp), "g2")
	assert.Contains(t, resultIDs(resp), "g1")

	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].Score, resp.Results[i].Score)
	}
}

func TestSearchService_Search_ForcedLexicalOnly(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.service(f.index).Search(context.Background(), "confidential term",
		domain.SearchOptions{LexicalOnly: true})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeLexicalOnly, resp.Mode)
	assert.NotContains(t, resultIDs(resp), "g2")
	assert.Equal(t, int32(0), f.embedder.calls.Load())
}

func TestSearchService_Search_VectorError_Degrades(t *testing.T) {
	f := newSearchFixture(t)
	svc := f.service(&failingVectorIndex{err: errors.New("index offline")})

	resp, err := svc.Search(context.Background(), "confidential term", domain.SearchOptions{})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Equal(t, domain.SearchModeLexicalOnly, resp.Mode)
	assert.ElementsMatch(t, []string{"g1", "b1"}, resultIDs(resp))
}

func TestSearchService_Search_EmbeddingError_Degrades(t *testing.T) {
	f := newSearchFixture(t)
	f.embedder.setErr(errors.New("model not loaded"))

	resp, err := f.service(f.index).Search(context.Background(), "term", domain.SearchOptions{})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.ElementsMatch(t, []string{"g1", "b1"}, resultIDs(resp))
}

func TestSearchService_Search_OracleTimeout_Degrades(t *testing.T) {
	f := newSearchFixture(t)
	f.embedder.block = true
	f.settings.OracleTimeout = 20 * time.Millisecond

	start := time.Now()
	resp, err := f.service(f.index).Search(context.Background(), "term", domain.SearchOptions{})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.NotEmpty(t, resp.Results)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSearchService_Search_CachesQueryEmbedding(t *testing.T) {
	f := newSearchFixture(t)
	svc := f.service(f.index)
	ctx := context.Background()

	_, err := svc.Search(ctx, "Confidential term", domain.SearchOptions{})
	require.NoError(t, err)
	_, err = svc.Search(ctx, "confidential TERM", domain.SearchOptions{})
	require.NoError(t, err)

	assert.Equal(t, int32(1), f.embedder.calls.Load())
}

func TestSearchService_Search_FilenameFilter(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.service(f.index).Search(context.Background(), "term",
		domain.SearchOptions{Filenames: []string{"blue_nda.docx"}})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	for _, r := range resp.Results {
		assert.Equal(t, "blue_nda.docx", r.Fragment.Filename)
	}
}

func TestSearchService_Search_Limit(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.service(f.index).Search(context.Background(), "term", domain.SearchOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
}

func TestSearchService_Search_InvalidWeight(t *testing.T) {
	f := newSearchFixture(t)
	w := 1.5

	_, err := f.service(f.index).Search(context.Background(), "term", domain.SearchOptions{LexicalWeight: &w})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchService_Search_Highlights(t *testing.T) {
	f := newSearchFixture(t)
	svc := NewSearchService(f.fragments, nil, nil, f.settings)

	resp, err := svc.Search(context.Background(), "governing", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, []string{"Governing law is Delaware."}, resp.Results[0].Highlights)
	assert.Equal(t, []string{"governing"}, resp.Results[0].MatchedKeywords)
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First clause. Second clause!\nThird? trailing")
	assert.Equal(t, []string{"First clause.", "Second clause!", "Third?", "trailing"}, got)
}

func TestOracleError(t *testing.T) {
	err := oracleError("embed", context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrOracleTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = oracleError("embed", errors.New("refused"))
	assert.NotErrorIs(t, err, domain.ErrOracleTimeout)
}
