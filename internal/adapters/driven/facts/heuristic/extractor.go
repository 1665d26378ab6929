// Package heuristic extracts NDA facts with regular expressions.
// It needs no model and is used when no LLM is configured or the LLM fails.
package heuristic

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.FactExtractor = (*Extractor)(nil)

const (
	monthName = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|` +
		`Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.?`
	ordinal = `(?:st|nd|rd|th)?`
	dateExpr = `(` +
		monthName + `\s+\d{1,2}` + ordinal + `,?\s+\d{4}` +
		`|\d{1,2}` + ordinal + `\s+(?:day\s+of\s+)?` + monthName + `,?\s+\d{4}` +
		`|\d{4}-\d{2}-\d{2}` +
		`|\d{1,2}/\d{1,2}/\d{4})`
)

var (
	effectivePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)effective\s+(?:as\s+of|on|from)\s+` + dateExpr),
		regexp.MustCompile(`(?i)effective\s+date[^0-9A-Za-z]{0,20}(?:(?:is|of|shall\s+be)\s+)?` + dateExpr),
		regexp.MustCompile(`(?i)(?:entered\s+into|made)\s+(?:as\s+of|on)\s+(?:this\s+)?` + dateExpr),
		regexp.MustCompile(`(?i)\bdated\s+(?:as\s+of\s+)?` + dateExpr),
	}
	expirationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)expir(?:e|es|ing|ation)\s+(?:on\s+|date[^0-9A-Za-z]{0,20}(?:(?:is|of|shall\s+be)\s+)?)` + dateExpr),
		regexp.MustCompile(`(?i)terminat(?:e|es)\s+(?:automatically\s+)?on\s+` + dateExpr),
		regexp.MustCompile(`(?i)(?:remain\s+in\s+(?:full\s+)?(?:force|effect)[a-z ]*?|continue)\s+until\s+` + dateExpr),
	}
	termPattern = regexp.MustCompile(
		`(?i)(?:term|period)\s+of\s+((?:[a-z]+(?:-[a-z]+)?|\d+)\s*(?:\(\s*\d+\s*\)\s*)?[- ]?(?:years?|months?|days?))`)
	partiesPattern = regexp.MustCompile(
		`(?i)\bbetween\s+([A-Z][^,()\n]{1,80}?)\s*(?:\([^)]*\)\s*)?,?\s+and\s+([A-Z][^,()\n]{1,80}?)\s*(?:[,(.]|$)`)
	lawPattern = regexp.MustCompile(
		`(?i)governed\s+by[a-z ,]*?\s+laws\s+of\s+(?:the\s+)?(?:State\s+of\s+|Commonwealth\s+of\s+)?((?-i:[A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+){0,3}))`)
)

// Extractor finds dates, parties, term and governing law in contract prose.
type Extractor struct{}

// New creates a heuristic extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name identifies the extractor in logs.
func (e *Extractor) Name() string {
	return "heuristic"
}

// ExtractFacts scans text for known clause shapes. Only facts that were
// found are returned; an empty map is not an error.
func (e *Extractor) ExtractFacts(ctx context.Context, text string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text = strings.Join(strings.Fields(text), " ")
	facts := make(map[string]string)

	if d, ok := firstDate(effectivePatterns, text); ok {
		facts[domain.FactEffectiveDate] = d
	}
	if d, ok := firstDate(expirationPatterns, text); ok {
		facts[domain.FactExpirationDate] = d
	}
	if m := termPattern.FindStringSubmatch(text); m != nil {
		facts[domain.FactTerm] = strings.TrimSpace(m[1])
	}
	if m := partiesPattern.FindStringSubmatch(text); m != nil {
		facts[domain.FactPartyA] = cleanParty(m[1])
		facts[domain.FactPartyB] = cleanParty(m[2])
	}
	if m := lawPattern.FindStringSubmatch(text); m != nil {
		facts[domain.FactGoverningLaw] = strings.TrimSpace(m[1])
	}

	return domain.NormaliseFacts(facts), nil
}

// firstDate returns the first parseable date matched by any pattern, in
// pattern order.
func firstDate(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			raw := strings.NewReplacer(".", "", ",", "", " day of ", " ").Replace(m[1])
			if t, err := domain.ParseFactDate(raw); err == nil {
				return domain.FormatFactDate(t), true
			}
		}
	}
	return "", false
}

func cleanParty(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "the ")
	return strings.TrimRight(s, " ,;")
}
