package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	response *domain.SearchResponse
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.response == nil {
		return &domain.SearchResponse{Query: query, Mode: domain.SearchModeLexicalOnly}, nil
	}
	return m.response, nil
}

func (m *mockSearchService) Mode() domain.SearchMode {
	return domain.SearchModeHybrid
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	records   []domain.DocumentRecord
	views     map[string]*driving.DocumentView
	fragments []domain.Fragment
	report    *domain.ExpirationReport
	err       error
}

func (m *mockDocumentService) Upload(_ context.Context, _ string, _ []byte) (*domain.DocumentRecord, error) {
	return nil, m.err
}

func (m *mockDocumentService) Reprocess(_ context.Context, _ string) (*domain.DocumentRecord, error) {
	return nil, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) Get(_ context.Context, filename string) (*domain.DocumentRecord, error) {
	if v, ok := m.views[filename]; ok {
		return v.Record, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentRecord, error) {
	return m.records, m.err
}

func (m *mockDocumentService) View(_ context.Context, filename string) (*driving.DocumentView, error) {
	if v, ok := m.views[filename]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Fragments(_ context.Context, _ string) ([]domain.Fragment, error) {
	return m.fragments, m.err
}

func (m *mockDocumentService) ExpirationReport(_ context.Context, _ time.Time) (*domain.ExpirationReport, error) {
	return m.report, m.err
}

func (m *mockDocumentService) Wait() {}
