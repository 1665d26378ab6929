package driving

import (
	"context"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

// SearchService provides retrieval to external actors.
type SearchService interface {
	// Search ranks fragments against the query by fusing keyword matching
	// with vector similarity. A failing vector signal degrades the search to
	// lexical-only instead of failing it.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)

	// Mode reports the mode searches run in when not forced lexical-only.
	Mode() domain.SearchMode
}
