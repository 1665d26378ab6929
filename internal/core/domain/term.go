package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FactDateLayout is the stored form of date facts.
const FactDateLayout = "2006-01-02"

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"eighteen": 18, "twenty-four": 24, "thirty-six": 36,
}

// termPattern matches "2 years", "two (2) years", "24-month", "thirty-six months".
var termPattern = regexp.MustCompile(
	`(?i)\b(\d+|[a-z]+(?:-[a-z]+)?)\s*(?:\(\s*\d+\s*\)\s*)?[- ]?\s*(year|month|day)s?\b`)

// ParseTerm reads a contract duration such as "two (2) years".
// It returns the first duration found as years, months and days.
func ParseTerm(raw string) (years, months, days int, ok bool) {
	for _, m := range termPattern.FindAllStringSubmatch(raw, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			var known bool
			if n, known = numberWords[strings.ToLower(m[1])]; !known {
				continue
			}
		}
		if n <= 0 {
			continue
		}
		switch strings.ToLower(m[2]) {
		case "year":
			return n, 0, 0, true
		case "month":
			return 0, n, 0, true
		default:
			return 0, 0, n, true
		}
	}
	return 0, 0, 0, false
}

// NormaliseFacts rewrites date facts to FactDateLayout and, when only an
// effective date and a term are known, derives the expiration date.
// Unparseable dates are kept verbatim. The map is modified in place.
func NormaliseFacts(facts map[string]string) map[string]string {
	if facts == nil {
		return nil
	}
	for _, key := range []string{FactEffectiveDate, FactExpirationDate} {
		if raw, ok := facts[key]; ok {
			if t, err := ParseFactDate(raw); err == nil {
				facts[key] = t.Format(FactDateLayout)
			}
		}
	}

	if _, ok := facts[FactExpirationDate]; ok {
		return facts
	}
	effective, err := ParseFactDate(facts[FactEffectiveDate])
	if err != nil {
		return facts
	}
	if y, m, d, ok := ParseTerm(facts[FactTerm]); ok {
		facts[FactExpirationDate] = effective.AddDate(y, m, d).Format(FactDateLayout)
	}
	return facts
}

// FormatFactDate renders t in the stored fact form.
func FormatFactDate(t time.Time) string {
	return t.UTC().Format(FactDateLayout)
}
