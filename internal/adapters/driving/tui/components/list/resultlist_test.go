package list

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{
			Fragment:        domain.Fragment{Filename: "acme.pdf", Position: 2, Content: "This Agreement is governed by the laws of New York."},
			Score:           0.91,
			LexicalScore:    1,
			VectorScore:     0.82,
			MatchedKeywords: []string{"governed", "laws"},
		},
		{
			Fragment:    domain.Fragment{Filename: "globex.docx", Position: 0, Content: "Mutual non-disclosure agreement."},
			Score:       0.44,
			VectorScore: 0.44,
			Highlights:  []string{"Mutual   non-disclosure\nagreement"},
		},
		{
			Fragment: domain.Fragment{Filename: "initech.pdf", Position: 5, Content: "Term of two years."},
			Score:    0.12,
		},
	}
}

func TestNewResultList(t *testing.T) {
	list := NewResultList(nil)

	require.NotNil(t, list)
	assert.True(t, list.IsEmpty())
	assert.Nil(t, list.SelectedResult())
	assert.Contains(t, list.View(), "No matching fragments")
}

func TestResultList_Navigation(t *testing.T) {
	list := NewResultList(nil)
	list.SetResults(sampleResults())

	list.MoveUp()
	assert.Equal(t, 0, list.Selected())

	list.MoveDown()
	list.MoveDown()
	list.MoveDown()
	assert.Equal(t, 2, list.Selected())
	assert.Equal(t, "initech.pdf", list.SelectedResult().Fragment.Filename)

	list.SetResults(sampleResults()[:1])
	assert.Equal(t, 0, list.Selected())
}

func TestResultList_View_ShowsScoresAndKeywords(t *testing.T) {
	list := NewResultList(nil)
	list.SetDimensions(120, 40)
	list.SetResults(sampleResults())

	view := list.View()

	assert.Contains(t, view, "Fragments (3)")
	assert.Contains(t, view, "acme.pdf [2]")
	assert.Contains(t, view, "0.910  kw 1.00  vec 0.82")
	assert.Contains(t, view, "governed, laws")
	assert.Contains(t, view, "no keyword match")
	// Highlights win over content and whitespace is collapsed.
	assert.Contains(t, view, "Mutual non-disclosure agreement")
}

func TestResultList_View_ScrollsWithSelection(t *testing.T) {
	list := NewResultList(nil)
	list.SetDimensions(120, 7)
	list.SetResults(sampleResults())

	assert.Contains(t, list.View(), "acme.pdf")
	assert.Contains(t, list.View(), "[1-1 of 3]")

	list.MoveDown()
	list.MoveDown()
	view := list.View()
	assert.Contains(t, view, "initech.pdf")
	assert.NotContains(t, view, "acme.pdf")
	assert.Contains(t, view, "[3-3 of 3]")
}

func TestResultList_View_TruncatesLongNames(t *testing.T) {
	list := NewResultList(nil)
	list.SetDimensions(50, 20)
	list.SetResults([]domain.SearchResult{{
		Fragment: domain.Fragment{Filename: strings.Repeat("x", 80) + ".pdf"},
	}})

	view := list.View()

	assert.Contains(t, view, "...")
	assert.NotContains(t, view, ".pdf")
}
