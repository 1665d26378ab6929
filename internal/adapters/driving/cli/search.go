package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

var (
	searchLimit         int
	searchJSON          bool
	searchLexicalOnly   bool
	searchLexicalWeight float64
	searchFiles         []string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search uploaded contracts",
	Long: `Performs hybrid search across all processed contracts.
Combines keyword matching with semantic (vector) similarity. When no
embedding service is available the search runs on keywords alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 = configured default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchLexicalOnly, "lexical-only", false, "skip vector similarity")
	searchCmd.Flags().Float64Var(&searchLexicalWeight, "lexical-weight", -1, "weight of the keyword signal in [0,1]")
	searchCmd.Flags().StringSliceVarP(&searchFiles, "file", "f", nil, "restrict to these documents")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		Limit:       searchLimit,
		LexicalOnly: searchLexicalOnly,
		Filenames:   searchFiles,
	}
	if cmd.Flags().Changed("lexical-weight") {
		w := searchLexicalWeight
		opts.LexicalWeight = &w
	}

	resp, err := searchService.Search(commandContext(cmd), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, searchResponseJSON(resp))
	}

	return outputSearchTable(cmd, resp)
}

func outputSearchTable(cmd *cobra.Command, resp *domain.SearchResponse) error {
	if resp.Degraded {
		cmd.Println(styles.Warning.Render("Vector search unavailable; showing keyword results only."))
	}
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println(styles.Title.Render("Results:"))
	cmd.Println()
	for i := range resp.Results {
		r := &resp.Results[i]
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, r.Fragment.Filename, r.Score)
		cmd.Println(styles.Muted.Render(fmt.Sprintf("      keyword %.2f, vector %.2f", r.LexicalScore, r.VectorScore)))
		if len(r.MatchedKeywords) > 0 {
			cmd.Printf("      Matched: %s\n", strings.Join(r.MatchedKeywords, ", "))
		}
		for _, h := range r.Highlights {
			cmd.Printf("      %s\n", h)
		}
		cmd.Println()
	}
	cmd.Println(styles.Muted.Render(fmt.Sprintf("Mode: %s", resp.Mode)))

	return nil
}

type searchResultJSON struct {
	Filename        string   `json:"filename"`
	FragmentID      string   `json:"fragment_id"`
	Position        int      `json:"position"`
	Score           float64  `json:"score"`
	LexicalScore    float64  `json:"lexical_score"`
	VectorScore     float64  `json:"vector_score"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	Highlights      []string `json:"highlights,omitempty"`
}

type searchJSONResponse struct {
	Query    string             `json:"query"`
	Keywords []string           `json:"keywords"`
	Mode     string             `json:"mode"`
	Degraded bool               `json:"degraded"`
	Results  []searchResultJSON `json:"results"`
}

func searchResponseJSON(resp *domain.SearchResponse) searchJSONResponse {
	out := searchJSONResponse{
		Query:    resp.Query,
		Keywords: resp.Keywords,
		Mode:     string(resp.Mode),
		Degraded: resp.Degraded,
		Results:  make([]searchResultJSON, 0, len(resp.Results)),
	}
	for i := range resp.Results {
		r := &resp.Results[i]
		out.Results = append(out.Results, searchResultJSON{
			Filename:        r.Fragment.Filename,
			FragmentID:      r.Fragment.ID,
			Position:        r.Fragment.Position,
			Score:           r.Score,
			LexicalScore:    r.LexicalScore,
			VectorScore:     r.VectorScore,
			MatchedKeywords: r.MatchedKeywords,
			Highlights:      r.Highlights,
		})
	}
	return out
}
