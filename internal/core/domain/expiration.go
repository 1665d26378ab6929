package domain

import (
	"fmt"
	"strings"
	"time"
)

// ExpirationClass is a document's temporal currency bucket.
// It is always derived from the stored expiration date and never persisted.
type ExpirationClass string

// Expiration classes.
const (
	ExpirationNoDate ExpirationClass = "no_date"
	ExpirationActive ExpirationClass = "active"
	ExpirationNear   ExpirationClass = "near_expiration"
	ExpirationPassed ExpirationClass = "expired"
)

// DefaultNearThresholdDays is the default near-expiration window.
const DefaultNearThresholdDays = 90

// String returns the string representation.
func (c ExpirationClass) String() string {
	return string(c)
}

// Description returns a human-readable description of the class.
func (c ExpirationClass) Description() string {
	switch c {
	case ExpirationNoDate:
		return "No expiration date"
	case ExpirationActive:
		return "Active"
	case ExpirationNear:
		return "Near expiration"
	case ExpirationPassed:
		return "Expired"
	default:
		return unknownDescription
	}
}

// ClassifyExpiration buckets an expiration date relative to now.
//
// Dates are compared as UTC calendar days, so a contract expiring today is
// near expiration rather than expired. A nil date yields ExpirationNoDate.
// Negative thresholds are treated as zero.
func ClassifyExpiration(now time.Time, expiration *time.Time, nearThresholdDays int) ExpirationClass {
	if expiration == nil {
		return ExpirationNoDate
	}
	if nearThresholdDays < 0 {
		nearThresholdDays = 0
	}

	days := daysBetween(calendarDay(now), calendarDay(*expiration))
	switch {
	case days < 0:
		return ExpirationPassed
	case days <= nearThresholdDays:
		return ExpirationNear
	default:
		return ExpirationActive
	}
}

// DaysUntil returns the number of calendar days from now until t (negative if past).
func DaysUntil(now, t time.Time) int {
	return daysBetween(calendarDay(now), calendarDay(t))
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// factDateLayouts are tried in order by ParseFactDate.
var factDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"01/02/2006",
	"2006/01/02",
}

// ParseFactDate parses a date produced by fact extraction.
// The result is normalised to midnight UTC.
func ParseFactDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	// Ordinal suffixes ("1st", "22nd") appear in contract prose.
	s = ordinalSuffix.Replace(s)
	for _, layout := range factDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendarDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised date %q", ErrInvalidInput, raw)
}

var ordinalSuffix = strings.NewReplacer(
	"1st", "1", "2nd", "2", "3rd", "3", "4th", "4", "5th", "5",
	"6th", "6", "7th", "7", "8th", "8", "9th", "9", "0th", "0",
)

// ExpirationEntry is one row of an expiration report.
type ExpirationEntry struct {
	Filename       string
	WorkflowStatus WorkflowStatus
	Class          ExpirationClass
	ExpirationDate *time.Time
	DaysRemaining  *int
}

// ExpirationReport groups documents by expiration class.
type ExpirationReport struct {
	GeneratedAt   time.Time
	ThresholdDays int
	Entries       []ExpirationEntry
}

// ByClass returns the entries of one class, in report order.
func (r *ExpirationReport) ByClass(class ExpirationClass) []ExpirationEntry {
	var out []ExpirationEntry
	for i := range r.Entries {
		if r.Entries[i].Class == class {
			out = append(out, r.Entries[i])
		}
	}
	return out
}

// Counts returns the number of entries per class.
func (r *ExpirationReport) Counts() map[ExpirationClass]int {
	counts := make(map[ExpirationClass]int, 4)
	for i := range r.Entries {
		counts[r.Entries[i].Class]++
	}
	return counts
}
