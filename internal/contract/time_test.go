package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC)

func TestParseRelativeTime(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"3 MoNtHs AgO", fixedNow.AddDate(0, -3, 0), false},
		{"1 year ago", fixedNow.AddDate(-1, 0, 0), false},
		{"2 weeks ago", fixedNow.Add(-14 * 24 * time.Hour), false},
		{"  30 days ago ", fixedNow.Add(-30 * 24 * time.Hour), false},
		{"6 hours ago", fixedNow.Add(-6 * time.Hour), false},
		{"45 minutes ago", fixedNow.Add(-45 * time.Minute), false},
		{"2 years", time.Time{}, true},
		{"4 decades ago", time.Time{}, true},
		{"one year ago", time.Time{}, true},
		{"", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRelativeTime(tt.input, fixedNow)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.expected), "got %s, want %s", got, tt.expected)
		})
	}
}

func TestParseLookbackDuration(t *testing.T) {
	day := 24 * time.Hour
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"90 days", 90 * day, false},
		{"1 Day", day, false},
		{"2 weeks", 14 * day, false},
		{"6 months", 180 * day, false},
		{"1 year", 365 * day, false},
		{"12 hours", 12 * time.Hour, false},
		{"30 minutes", 30 * time.Minute, false},
		{"0 days", 0, true},
		{"3 fortnights", 0, true},
		{"soon", 0, true},
		{"90 days ago", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLookbackDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseLookbackDurationGoSyntax(t *testing.T) {
	got, err := ParseLookbackDuration("720h")
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, got)

	got, err = ParseLookbackDuration("1h30m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, got)

	_, err = ParseLookbackDuration("0s")
	assert.ErrorContains(t, err, "zero duration")

	_, err = ParseLookbackDuration("-5h")
	assert.Error(t, err)
}
