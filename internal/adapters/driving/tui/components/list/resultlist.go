// Package list provides the ranked fragment list for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ndavault/internal/core/domain"
)

// linesPerResult is the height of one rendered result: the title line with
// the scores, the preview and the matched keywords.
const linesPerResult = 3

// ResultList displays ranked fragments in a navigable list.
type ResultList struct {
	results  []domain.SearchResult
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates an empty result list.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{styles: s, width: 80, height: 10}
}

// View renders the visible window of results around the selection.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No matching fragments")
	}

	lines := make([]string, 0, len(r.results)*linesPerResult+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Fragments (%d)", len(r.results))), "")

	start, end := r.window()
	for i := start; i < end; i++ {
		lines = append(lines, r.renderResult(i, &r.results[i]))
	}
	if end-start < len(r.results) {
		lines = append(lines, r.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", start+1, end, len(r.results))))
	}
	return strings.Join(lines, "\n")
}

// window returns the half-open range of results that fit the height.
func (r *ResultList) window() (start, end int) {
	visible := max((r.height-4)/linesPerResult, 1)
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	return start, min(start+visible, len(r.results))
}

func (r *ResultList) renderResult(index int, result *domain.SearchResult) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	titleWidth := max(r.width-36, 10)
	title := ansi.Truncate(fmt.Sprintf("%s [%d]", result.Fragment.Filename, result.Fragment.Position), titleWidth, "...")
	scores := fmt.Sprintf("%.3f  kw %.2f  vec %.2f", result.Score, result.LexicalScore, result.VectorScore)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, titleWidth, title, scores))
	} else {
		titleLine = r.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, titleWidth, title)) +
			r.styles.Muted.Render(scores)
	}

	preview := result.Fragment.Content
	if len(result.Highlights) > 0 {
		preview = result.Highlights[0]
	}
	preview = strings.Join(strings.Fields(preview), " ")
	previewLine := r.styles.Normal.Render("    " + ansi.Truncate(preview, max(r.width-6, 20), "..."))

	keywords := r.styles.Muted.Render("    no keyword match")
	if len(result.MatchedKeywords) > 0 {
		keywords = r.styles.Highlight.Render("    " + strings.Join(result.MatchedKeywords, ", "))
	}

	return titleLine + "\n" + previewLine + "\n" + keywords
}

// SetResults replaces the results and selects the first.
func (r *ResultList) SetResults(results []domain.SearchResult) {
	r.results = results
	r.selected = 0
}

func (r *ResultList) Results() []domain.SearchResult { return r.results }

func (r *ResultList) Selected() int { return r.selected }

// SelectedResult returns the currently selected result, or nil if none.
func (r *ResultList) SelectedResult() *domain.SearchResult {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

func (r *ResultList) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

func (r *ResultList) Count() int { return len(r.results) }

func (r *ResultList) IsEmpty() bool { return len(r.results) == 0 }
