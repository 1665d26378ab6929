package tui

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
)

// MockSearchService implements driving.SearchService for testing.
type MockSearchService struct {
	SearchFunc func(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)
}

func (m *MockSearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, opts)
	}
	return &domain.SearchResponse{Query: query, Mode: domain.SearchModeHybrid}, nil
}

func (m *MockSearchService) Mode() domain.SearchMode { return domain.SearchModeHybrid }

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	Records         []domain.DocumentRecord
	Views           map[string]*driving.DocumentView
	FragmentsByFile map[string][]domain.Fragment
}

func (m *MockDocumentService) Upload(context.Context, string, []byte) (*domain.DocumentRecord, error) {
	return nil, domain.ErrNotImplemented
}

func (m *MockDocumentService) Reprocess(_ context.Context, filename string) (*domain.DocumentRecord, error) {
	return &domain.DocumentRecord{Filename: filename, ProcessingStatus: domain.StatusReprocessing}, nil
}

func (m *MockDocumentService) Delete(context.Context, string) error { return nil }

func (m *MockDocumentService) Get(_ context.Context, filename string) (*domain.DocumentRecord, error) {
	for i := range m.Records {
		if m.Records[i].Filename == filename {
			return &m.Records[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) List(context.Context) ([]domain.DocumentRecord, error) {
	return m.Records, nil
}

func (m *MockDocumentService) View(_ context.Context, filename string) (*driving.DocumentView, error) {
	if view, ok := m.Views[filename]; ok {
		return view, nil
	}
	return nil, fmt.Errorf("view %s: %w", filename, domain.ErrNotFound)
}

func (m *MockDocumentService) Fragments(_ context.Context, filename string) ([]domain.Fragment, error) {
	return m.FragmentsByFile[filename], nil
}

func (m *MockDocumentService) ExpirationReport(context.Context, time.Time) (*domain.ExpirationReport, error) {
	return &domain.ExpirationReport{}, nil
}

func (m *MockDocumentService) Wait() {}

func TestNewPorts(t *testing.T) {
	search := &MockSearchService{}
	document := &MockDocumentService{}

	ports := NewPorts(search, document)

	assert.Same(t, search, ports.Search)
	assert.Same(t, document, ports.Document)
	assert.NoError(t, ports.Validate())
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{name: "nil ports", ports: nil, wantErr: ErrInvalidPorts},
		{name: "missing search", ports: &Ports{Document: &MockDocumentService{}}, wantErr: ErrMissingSearchService},
		{name: "missing document", ports: &Ports{Search: &MockSearchService{}}, wantErr: ErrMissingDocumentService},
		{name: "complete", ports: NewPorts(&MockSearchService{}, &MockDocumentService{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
