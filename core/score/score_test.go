package score

import (
	"testing"

	"github.com/huangsam/gitpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompute checks each formula against hand-computed values.
func TestCompute(t *testing.T) {
	e := NewEngine()
	tests := []struct {
		name       string
		counts     schema.ContributionCounts
		windowDays float64
		want       schema.ScoreSnapshot
	}{
		{
			name:       "three commits over ninety days",
			counts:     schema.ContributionCounts{Commits: 3},
			windowDays: 90,
			want: schema.ScoreSnapshot{
				Performance:    3.0,
				Effort:         2.4,
				Velocity:       3.0 / (90.0 / 7) / 5 * 100,
				Consistency:    3.0 / (90.0 / 7) / 5 * 100 * 0.9,
				CommitsPerWeek: 3.0 / (90.0 / 7),
			},
		},
		{
			name:       "prs and reviews",
			counts:     schema.ContributionCounts{Commits: 10, Additions: 800, Deletions: 200, PRsCreated: 10, PRsMerged: 8, ReviewsGiven: 10, ReviewsApproved: 5},
			windowDays: 14,
			want: schema.ScoreSnapshot{
				Performance:    10 + 24 + 20 + 1.0,
				CodeQuality:    68,
				Effort:         8 + 15 + 6,
				Velocity:       100,
				Consistency:    90,
				MergeRate:      80,
				ApprovalRate:   50,
				CodeVolume:     1000,
				CommitsPerWeek: 5,
			},
		},
		{
			name:       "effort saturates",
			counts:     schema.ContributionCounts{Commits: 500, Additions: 90000, PRsCreated: 40, PRsMerged: 40},
			windowDays: 7,
			want: schema.ScoreSnapshot{
				Performance:    500 + 120 + 90,
				CodeQuality:    60,
				Effort:         100,
				Velocity:       100,
				Consistency:    90,
				MergeRate:      100,
				CodeVolume:     90000,
				CommitsPerWeek: 500,
			},
		},
		{
			name:       "zero window has no velocity",
			counts:     schema.ContributionCounts{Commits: 4},
			windowDays: 0,
			want:       schema.ScoreSnapshot{Performance: 4, Effort: 3.2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Compute(tt.counts, tt.windowDays)
			assert.InDelta(t, tt.want.Performance, got.Performance, 1e-9)
			assert.InDelta(t, tt.want.CodeQuality, got.CodeQuality, 1e-9)
			assert.InDelta(t, tt.want.Effort, got.Effort, 1e-9)
			assert.InDelta(t, tt.want.Velocity, got.Velocity, 1e-9)
			assert.InDelta(t, tt.want.Consistency, got.Consistency, 1e-9)
			assert.InDelta(t, tt.want.MergeRate, got.MergeRate, 1e-9)
			assert.InDelta(t, tt.want.ApprovalRate, got.ApprovalRate, 1e-9)
			assert.InDelta(t, tt.want.CommitsPerWeek, got.CommitsPerWeek, 1e-9)
			assert.Equal(t, tt.want.CodeVolume, got.CodeVolume)
		})
	}
}

func TestComputeCustomWeights(t *testing.T) {
	w := schema.DefaultScoreWeights()
	w.Commit = 2
	w.VelocityCommitsPerWeek = 0
	got := Engine{Weights: w}.Compute(schema.ContributionCounts{Commits: 5}, 7)
	assert.InDelta(t, 10.0, got.Performance, 1e-9)
	assert.Zero(t, got.Velocity)
}

func TestBestPerformer(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, ok := BestPerformer(nil)
		assert.False(t, ok)
	})

	t.Run("tie goes to smallest key", func(t *testing.T) {
		scores := map[string]schema.ScoreSnapshot{
			"user:2":      {Performance: 10},
			"email:z@x":   {Performance: 10},
			"name:carol":  {Performance: 4},
			"user:10":     {Performance: 10},
			"email:a@x.c": {Performance: 9.99},
		}
		best, ok := BestPerformer(scores)
		require.True(t, ok)
		assert.Equal(t, "email:z@x", best)
		assert.Equal(t, []string{"email:z@x", "user:10", "user:2", "email:a@x.c", "name:carol"}, Rank(scores))
	})
}

func TestAnalyzeTeam(t *testing.T) {
	ids := []schema.ContributorIdentity{
		{Key: "user:1", IsRegistered: true, Username: "alice", DisplayName: "Alice"},
		{Key: "email:bob@x.com", DisplayName: "Bob"},
	}
	counts := map[string]schema.ContributionCounts{
		"user:1":          {Commits: 40, PRsCreated: 10, PRsMerged: 9, ReviewsGiven: 12, ReviewsApproved: 6},
		"email:bob@x.com": {Commits: 2},
	}

	got := NewEngine().AnalyzeTeam(ids, counts, schema.TimeWindow{}, 28)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "user:1", got.BestPerformer)

	alice, bob := got.Entries[0], got.Entries[1]
	assert.Equal(t, 1, alice.Rank)
	assert.Equal(t, "Alice", alice.Identity.DisplayName)
	assert.True(t, alice.IsBestPerformer)
	assert.Equal(t, []string{StrengthMergeRate, StrengthReviewer, StrengthTopPerformer}, alice.Strengths)
	assert.Empty(t, alice.ImprovementAreas)

	assert.Equal(t, 2, bob.Rank)
	assert.False(t, bob.IsBestPerformer)
	assert.Empty(t, bob.Strengths)
	assert.Equal(t, []string{ImproveMergeRate, ImproveReviews, ImproveCommits}, bob.ImprovementAreas)
}

func TestAnalyzeTeamEmpty(t *testing.T) {
	got := NewEngine().AnalyzeTeam(nil, nil, schema.TimeWindow{}, 90)
	assert.Empty(t, got.Entries)
	assert.Empty(t, got.BestPerformer)
}
