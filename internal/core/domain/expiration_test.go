package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestClassifyExpiration(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		expiration *time.Time
		threshold  int
		expected   ExpirationClass
	}{
		{"no date", nil, 90, ExpirationNoDate},
		{"near", date(2025, 8, 1), 90, ExpirationNear},
		{"expired", date(2024, 1, 1), 90, ExpirationPassed},
		{"active", date(2026, 1, 1), 90, ExpirationActive},
		{"expires today", date(2025, 6, 1), 90, ExpirationNear},
		{"yesterday", date(2025, 5, 31), 90, ExpirationPassed},
		{"exactly threshold", date(2025, 8, 30), 90, ExpirationNear},
		{"one past threshold", date(2025, 8, 31), 90, ExpirationActive},
		{"zero threshold today", date(2025, 6, 1), 0, ExpirationNear},
		{"zero threshold tomorrow", date(2025, 6, 2), 0, ExpirationActive},
		{"negative threshold", date(2025, 6, 2), -5, ExpirationActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyExpiration(now, tt.expiration, tt.threshold))
		})
	}
}

func TestClassifyExpiration_IgnoresTimeZone(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, loc) // 2025-06-01 22:00 UTC
	assert.Equal(t, ExpirationNear, ClassifyExpiration(now, date(2025, 6, 1), 90))
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, 61, DaysUntil(now, *date(2025, 8, 1)))
	assert.Equal(t, -1, DaysUntil(now, *date(2025, 5, 31)))
}

func TestParseFactDate(t *testing.T) {
	want := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	inputs := []string{
		"2026-01-15",
		"2026-01-15T10:00:00Z",
		"January 15, 2026",
		"January 15th, 2026",
		"Jan 15, 2026",
		"15 January 2026",
		"01/15/2026",
		" 2026/01/15 ",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, err := ParseFactDate(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := ParseFactDate("three years after the effective date")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExpirationReport_Views(t *testing.T) {
	r := &ExpirationReport{Entries: []ExpirationEntry{
		{Filename: "a.pdf", Class: ExpirationNear},
		{Filename: "b.pdf", Class: ExpirationActive},
		{Filename: "c.pdf", Class: ExpirationNear},
	}}

	near := r.ByClass(ExpirationNear)
	require.Len(t, near, 2)
	assert.Equal(t, "a.pdf", near[0].Filename)
	assert.Equal(t, "c.pdf", near[1].Filename)

	counts := r.Counts()
	assert.Equal(t, 2, counts[ExpirationNear])
	assert.Equal(t, 1, counts[ExpirationActive])
	assert.Equal(t, 0, counts[ExpirationPassed])
	assert.Equal(t, "Near expiration", ExpirationNear.Description())
}
