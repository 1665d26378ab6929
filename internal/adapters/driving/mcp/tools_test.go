package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
)

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			response: &domain.SearchResponse{
				Query: "governing law",
				Mode:  domain.SearchModeHybrid,
				Results: []domain.SearchResult{
					{
						Fragment: domain.Fragment{
							ID:       "frag-1",
							Filename: "green_nda.pdf",
							Content:  "This Agreement is governed by the laws of New York.",
						},
						Score:           0.95,
						LexicalScore:    1,
						VectorScore:     0.9,
						MatchedKeywords: []string{"governing", "law"},
						Highlights:      []string{"governed by the laws of New York"},
					},
				},
			},
		}

		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		input := SearchInput{Query: "governing law", Limit: 5}
		_, output, err := server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "hybrid", output.Mode)
		assert.Equal(t, "green_nda.pdf", output.Results[0].Filename)
		assert.Equal(t, "frag-1", output.Results[0].FragmentID)
		assert.Equal(t, 0.95, output.Results[0].Score)
		assert.Equal(t, []string{"governing", "law"}, output.Results[0].MatchedKeywords)
		assert.Contains(t, output.Results[0].Content, "New York")
		assert.Equal(t, 5, mockSearch.lastOpts.Limit)
	})

	t.Run("default limit is 10", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Equal(t, 10, mockSearch.lastOpts.Limit)
	})

	t.Run("passes weight and file filter", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		w := 0.7
		input := SearchInput{Query: "term", LexicalWeight: &w, Files: []string{"a.pdf"}}
		_, _, err = server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		require.NotNil(t, mockSearch.lastOpts.LexicalWeight)
		assert.Equal(t, 0.7, *mockSearch.lastOpts.LexicalWeight)
		assert.Equal(t, []string{"a.pdf"}, mockSearch.lastOpts.Filenames)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		mockSearch := &mockSearchService{
			err: errors.New("search failed"),
		}

		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func newViewDocs() *mockDocumentService {
	exp := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	days := 30
	green := &domain.DocumentRecord{
		Filename:         "green_nda.pdf",
		ProcessingStatus: domain.StatusProcessed,
		WorkflowStatus:   domain.WorkflowActive,
		Facts:            map[string]string{domain.FactExpirationDate: "2026-03-01"},
	}
	draft := &domain.DocumentRecord{
		Filename:         "draft.docx",
		ProcessingStatus: domain.StatusReprocessing,
		WorkflowStatus:   domain.WorkflowDraft,
	}
	return &mockDocumentService{
		records: []domain.DocumentRecord{*green, *draft},
		views: map[string]*driving.DocumentView{
			"green_nda.pdf": {
				Record:         green,
				DisplayStatus:  domain.StatusProcessed,
				Expiration:     domain.ExpirationNear,
				ExpirationDate: &exp,
				DaysRemaining:  &days,
				FragmentCount:  4,
			},
			"draft.docx": {
				Record:        draft,
				DisplayStatus: domain.StatusProcessing,
				Expiration:    domain.ExpirationNoDate,
			},
		},
	}
}

func TestServer_handleListDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("lists documents with status", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Document: newViewDocs()})
		require.NoError(t, err)

		_, output, err := server.handleListDocuments(ctx, nil, ListDocumentsInput{})

		require.NoError(t, err)
		require.Equal(t, 2, output.Count)
		assert.Equal(t, "green_nda.pdf", output.Documents[0].Filename)
		assert.Equal(t, "near_expiration", output.Documents[0].Expiration)
		assert.Equal(t, "2026-03-01", output.Documents[0].ExpirationDate)
		assert.Equal(t, 30, *output.Documents[0].DaysRemaining)
		assert.Equal(t, "processing", output.Documents[1].ProcessingStatus)
		assert.Empty(t, output.Documents[1].ExpirationDate)
	})

	t.Run("nil document service returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})
		require.NoError(t, err)

		_, output, err := server.handleListDocuments(ctx, nil, ListDocumentsInput{})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Documents)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		docs := &mockDocumentService{err: errors.New("database locked")}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Document: docs})
		require.NoError(t, err)

		_, _, err = server.handleListDocuments(ctx, nil, ListDocumentsInput{})

		assert.ErrorContains(t, err, "database locked")
	})
}

func TestServer_handleExpirationReport(t *testing.T) {
	ctx := context.Background()
	exp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	past := -10
	report := &domain.ExpirationReport{
		ThresholdDays: 90,
		Entries: []domain.ExpirationEntry{
			{Filename: "old.pdf", Class: domain.ExpirationPassed, WorkflowStatus: domain.WorkflowActive,
				ExpirationDate: &exp, DaysRemaining: &past},
			{Filename: "nodate.pdf", Class: domain.ExpirationNoDate, WorkflowStatus: domain.WorkflowCreated},
		},
	}

	t.Run("filters to flagged contracts", func(t *testing.T) {
		docs := &mockDocumentService{report: report}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Document: docs})
		require.NoError(t, err)

		_, output, err := server.handleExpirationReport(ctx, nil, ExpirationInput{})

		require.NoError(t, err)
		assert.Equal(t, 90, output.ThresholdDays)
		require.Len(t, output.Entries, 1)
		assert.Equal(t, "old.pdf", output.Entries[0].Filename)
		assert.Equal(t, "expired", output.Entries[0].Class)
		assert.Equal(t, "2024-01-01", output.Entries[0].ExpirationDate)
		assert.Equal(t, -10, *output.Entries[0].DaysRemaining)
	})

	t.Run("include all", func(t *testing.T) {
		docs := &mockDocumentService{report: report}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Document: docs})
		require.NoError(t, err)

		_, output, err := server.handleExpirationReport(ctx, nil, ExpirationInput{IncludeAll: true})

		require.NoError(t, err)
		assert.Len(t, output.Entries, 2)
	})

	t.Run("nil document service returns empty report", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})
		require.NoError(t, err)

		_, output, err := server.handleExpirationReport(ctx, nil, ExpirationInput{})

		require.NoError(t, err)
		assert.Empty(t, output.Entries)
	})
}
