package schema

import (
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeWindowContains(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * Day)

	tests := []struct {
		name   string
		window TimeWindow
		at     time.Time
		want   bool
	}{
		{"start is inclusive", TimeWindow{Start: start, End: end}, start, true},
		{"end is exclusive", TimeWindow{Start: start, End: end}, end, false},
		{"before start", TimeWindow{Start: start, End: end}, start.Add(-time.Second), false},
		{"middle", TimeWindow{Start: start, End: end}, start.Add(5 * Day), true},
		{"unbounded start", TimeWindow{End: end}, time.Time{}.Add(time.Hour), true},
		{"unbounded end", TimeWindow{Start: start}, end.Add(1000 * Day), true},
		{"fully unbounded", TimeWindow{}, start, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.window.Contains(tt.at))
		})
	}
}

func TestTimeWindowDaysAndSplit(t *testing.T) {
	end := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	w := TrailingWindow(end, 90)
	assert.True(t, w.IsBounded())
	assert.InDelta(t, 90.0, w.Days(), 1e-9)
	assert.Equal(t, 0.0, TimeWindow{Start: end}.Days())

	mid := end.Add(-30 * Day)
	left, right := w.Split(mid)
	assert.Equal(t, w.Start, left.Start)
	assert.Equal(t, mid, left.End)
	assert.Equal(t, mid, right.Start)
	assert.False(t, left.Contains(mid))
	assert.True(t, right.Contains(mid))
}

func TestSeverityAndMatchRank(t *testing.T) {
	assert.Less(t, SeverityRank(HighSeverity), SeverityRank(MediumSeverity))
	assert.Less(t, SeverityRank(MediumSeverity), SeverityRank(LowSeverity))
	assert.Less(t, MatchRank(MatchEmail), MatchRank(MatchUsername))
	assert.Less(t, MatchRank(MatchUsername), MatchRank(MatchDisplayName))
	assert.Less(t, MatchRank(MatchDisplayName), MatchRank(MatchNone))
}

func TestContributionCountsAdd(t *testing.T) {
	a := ContributionCounts{Commits: 2, Additions: 10, PRsMerged: 1}
	b := ContributionCounts{Commits: 1, Deletions: 4, ReviewsGiven: 3}
	sum := a.Add(b)
	assert.Equal(t, 3, sum.Commits)
	assert.Equal(t, 14, sum.LinesChanged())
	assert.Equal(t, 1, sum.PRsMerged)
	assert.Equal(t, 3, sum.ReviewsGiven)
	assert.True(t, ContributionCounts{}.IsZero())
}

func TestScopeID(t *testing.T) {
	assert.Equal(t, "acme/api,acme/web", Scope{"acme/web", "acme/api", "acme/web"}.ID())
	assert.Equal(t, Scope{"b", "a"}.ID(), Scope{"a", "b"}.ID())
	assert.Empty(t, Scope{}.ID())

	var long Scope
	for i := range 40 {
		long = append(long, fmt.Sprintf("example-org/repository-%02d", i))
	}
	id := long.ID()
	assert.True(t, strings.HasPrefix(id, "scope:"), id)
	assert.LessOrEqual(t, len(id), maxScopeIDLen)
	reversed := slices.Clone(long)
	slices.Reverse(reversed)
	assert.Equal(t, id, reversed.ID())
}
