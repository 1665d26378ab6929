package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

// defaultSearchLimit is used when the caller does not set a limit.
const defaultSearchLimit = 10

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query         string   `json:"query" jsonschema:"the search query, e.g. governing law of the Acme NDA"`
	Limit         int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	LexicalWeight *float64 `json:"lexical_weight,omitempty" jsonschema:"weight of keyword matching in [0,1]"`
	Files         []string `json:"files,omitempty" jsonschema:"restrict the search to these contract filenames"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Mode     string               `json:"mode"`
	Degraded bool                 `json:"degraded"`
	Results  []SearchResultOutput `json:"results"`
	Count    int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	Filename        string   `json:"filename"`
	FragmentID      string   `json:"fragment_id"`
	Score           float64  `json:"score"`
	LexicalScore    float64  `json:"lexical_score"`
	VectorScore     float64  `json:"vector_score"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	Highlights      []string `json:"highlights,omitempty"`
	Content         string   `json:"content,omitempty"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput describes one contract.
type DocumentOutput struct {
	Filename         string            `json:"filename"`
	ProcessingStatus string            `json:"processing_status"`
	WorkflowStatus   string            `json:"workflow_status"`
	Expiration       string            `json:"expiration"`
	ExpirationDate   string            `json:"expiration_date,omitempty"`
	DaysRemaining    *int              `json:"days_remaining,omitempty"`
	Facts            map[string]string `json:"facts,omitempty"`
}

// ExpirationInput is the input schema for the expiration_report tool.
type ExpirationInput struct {
	IncludeAll bool `json:"include_all,omitempty" jsonschema:"include active and undated contracts"`
}

// ExpirationOutput is the output schema for the expiration_report tool.
type ExpirationOutput struct {
	ThresholdDays int                     `json:"threshold_days"`
	Entries       []ExpirationEntryOutput `json:"entries"`
}

// ExpirationEntryOutput is one row of the expiration report.
type ExpirationEntryOutput struct {
	Filename       string `json:"filename"`
	Class          string `json:"class"`
	WorkflowStatus string `json:"workflow_status"`
	ExpirationDate string `json:"expiration_date,omitempty"`
	DaysRemaining  *int   `json:"days_remaining,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search uploaded NDA contracts by keywords and meaning",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List uploaded contracts with processing, workflow and expiration status",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "expiration_report",
		Description: "Report contracts that are near expiration or expired",
	}, s.handleExpirationReport)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	opts := domain.SearchOptions{
		Limit:         limit,
		LexicalWeight: input.LexicalWeight,
		Filenames:     input.Files,
	}
	resp, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Mode:     string(resp.Mode),
		Degraded: resp.Degraded,
		Results:  make([]SearchResultOutput, len(resp.Results)),
		Count:    len(resp.Results),
	}

	for i := range resp.Results {
		r := &resp.Results[i]
		output.Results[i] = SearchResultOutput{
			Filename:        r.Fragment.Filename,
			FragmentID:      r.Fragment.ID,
			Score:           r.Score,
			LexicalScore:    r.LexicalScore,
			VectorScore:     r.VectorScore,
			MatchedKeywords: r.MatchedKeywords,
			Highlights:      r.Highlights,
			Content:         r.Fragment.Content,
		}
	}

	return nil, output, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.documents(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}
	return nil, ListDocumentsOutput{Documents: docs, Count: len(docs)}, nil
}

// handleExpirationReport handles the expiration_report tool invocation.
func (s *Server) handleExpirationReport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExpirationInput,
) (*mcp.CallToolResult, ExpirationOutput, error) {
	output := ExpirationOutput{Entries: []ExpirationEntryOutput{}}
	if s.ports.Document == nil {
		return nil, output, nil
	}

	report, err := s.ports.Document.ExpirationReport(ctx, time.Now())
	if err != nil {
		return nil, ExpirationOutput{}, err
	}
	output.ThresholdDays = report.ThresholdDays

	for i := range report.Entries {
		e := &report.Entries[i]
		if !input.IncludeAll && e.Class != domain.ExpirationNear && e.Class != domain.ExpirationPassed {
			continue
		}
		row := ExpirationEntryOutput{
			Filename:       e.Filename,
			Class:          e.Class.String(),
			WorkflowStatus: e.WorkflowStatus.String(),
			DaysRemaining:  e.DaysRemaining,
		}
		if e.ExpirationDate != nil {
			row.ExpirationDate = e.ExpirationDate.Format(domain.FactDateLayout)
		}
		output.Entries = append(output.Entries, row)
	}

	return nil, output, nil
}

// documents builds the document listing shared by the tool and the resource.
func (s *Server) documents(ctx context.Context) ([]DocumentOutput, error) {
	out := []DocumentOutput{}
	if s.ports.Document == nil {
		return out, nil
	}

	recs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		view, err := s.ports.Document.View(ctx, recs[i].Filename)
		if err != nil {
			continue
		}
		doc := DocumentOutput{
			Filename:         view.Record.Filename,
			ProcessingStatus: view.DisplayStatus.String(),
			WorkflowStatus:   view.Record.WorkflowStatus.String(),
			Expiration:       view.Expiration.String(),
			DaysRemaining:    view.DaysRemaining,
			Facts:            view.Record.Facts,
		}
		if view.ExpirationDate != nil {
			doc.ExpirationDate = view.ExpirationDate.Format(domain.FactDateLayout)
		}
		out = append(out, doc)
	}
	return out, nil
}
