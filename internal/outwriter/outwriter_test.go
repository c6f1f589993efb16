package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func textConfig() *contract.Config {
	return &contract.Config{
		Output:        schema.TextOut,
		Precision:     1,
		Width:         160,
		RecordBackend: schema.SQLiteBackend,
		Weights:       schema.DefaultScoreWeights(),
		Capacity:      schema.DefaultCapacityThresholds(),
		Burnout:       schema.DefaultBurnoutThresholds(),
		DORA:          schema.DefaultDORASettings(),
		Bottleneck:    schema.DefaultBottleneckThresholds(),
	}
}

var (
	alice = schema.ContributorIdentity{
		Key: "user:1", IsRegistered: true, UserID: 1, Username: "alice", DisplayName: "Alice Smith",
		MatchedBy: schema.MatchEmail, Names: []string{"Alice Smith", "alice"}, Emails: []string{"alice@example.com"},
	}
	bob = schema.ContributorIdentity{
		Key: "email:bob@example.com", DisplayName: "Bob", Names: []string{"Bob"}, Emails: []string{"bob@example.com"},
	}
)

func sampleAnalysis() schema.TeamAnalysis {
	return schema.TeamAnalysis{
		WindowDays:    90,
		BestPerformer: alice.Key,
		Entries: []schema.TeamEntry{
			{
				Rank: 1, Identity: alice, IsBestPerformer: true,
				Counts: schema.ContributionCounts{Commits: 20, Additions: 900, Deletions: 100, PRsCreated: 5, PRsMerged: 4, ReviewsGiven: 12, ReviewsApproved: 10},
				Scores: schema.ScoreSnapshot{IdentityKey: alice.Key, Performance: 57, CodeQuality: 81.3, Effort: 64, Velocity: 31.1,
					Consistency: 28, MergeRate: 80, ApprovalRate: 83.3, CodeVolume: 1000, CommitsPerWeek: 1.6},
				Strengths:        []string{"Excellent PR merge rate", "Active code reviewer", "Top team performer"},
				ImprovementAreas: []string{"Boost commit frequency"},
			},
			{
				Rank: 2, Identity: bob,
				Counts:           schema.ContributionCounts{Commits: 3, Additions: 10},
				Scores:           schema.ScoreSnapshot{IdentityKey: bob.Key, Performance: 3.01, CodeVolume: 10},
				Strengths:        []string{},
				ImprovementAreas: []string{"PR merge rate needs improvement"},
			},
		},
	}
}

func sampleReport() schema.TeamReport {
	return schema.TeamReport{
		Scope:       schema.Scope{"acme/api", "acme/web"},
		AsOf:        asOf,
		Identities:  2,
		Leaderboard: sampleAnalysis(),
		Capacity: schema.CapacitySnapshot{
			TotalCapacityScore: 100, SprintRisk: schema.LowRisk, ActiveMembersCount: 2, AverageVelocity: 0.5, PredictedSprintOutput: 14,
			MemberLoads: []schema.MemberLoad{
				{IdentityKey: alice.Key, Username: "alice", Commits: 24, Velocity: 0.8, Status: schema.Optimal},
				{IdentityKey: bob.Key, Username: "Bob", Commits: 6, Velocity: 0.2, Status: schema.Underutilized},
			},
		},
		Burnout: schema.BurnoutReport{
			OverallRisk: 75,
			Members: []schema.BurnoutAssessment{{
				IdentityKey: alice.Key, Name: "Alice Smith", Commits: 10, RiskScore: 75, Status: schema.Critical,
				Factors:         []string{"Frequent late-night commits", "Weekend work pattern"},
				RecentStressors: []string{"urgent fix for login"},
				Metrics:         schema.BurnoutMetrics{LateNight: 40, Weekend: 30, StressCommits: 1},
			}},
		},
		DORA: schema.DORASnapshot{
			WindowDays: 30, DeploymentFrequency: 0.2, LeadTimeHours: 26.5, ChangeFailureRate: 16.7, MTTRMinutes: 60,
			DeploySource: "deployments", FailureSource: "failed_deployments",
			DeploymentsHistory: []schema.DayCount{{Day: "2025-02-20", Count: 4}, {Day: "2025-02-21", Count: 2}},
			LeadTimeHistory:    []schema.LeadTimePoint{{Date: "2025-02-20", Hours: 26.5}},
		},
		Bottlenecks: schema.BottleneckReport{
			Alerts: []schema.BottleneckAlert{{
				ID: "6f1c", Type: schema.StuckPRAlert, Severity: schema.HighSeverity, Title: "Stuck PR: Refactor auth",
				Description: "PR #42 has been open for 10 days with no reviews", Repository: "acme/api", PRNumber: 42,
				URL: "https://github.com/acme/api/pull/42", CreatedAt: asOf.Add(-10 * schema.Day),
			}},
			TotalHighSeverity: 1,
		},
	}
}

func readCSV(t *testing.T, s string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(s)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestGetMaxTableTextWidth(t *testing.T) {
	tests := []struct {
		name  string
		width int
		fixed int
		want  int
	}{
		{"wide terminal is capped", 300, 60, 60},
		{"narrow terminal has a floor", 50, 60, 15},
		{"in between", 100, 45, 35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getMaxTableTextWidth(&contract.Config{Width: tt.width}, tt.fixed))
		})
	}
}

func TestTextHelpers(t *testing.T) {
	assert.Equal(t, "Alice Smith", identityName(alice))
	assert.Equal(t, "alice", identityName(schema.ContributorIdentity{Key: "user:1", Username: "alice"}))
	assert.Equal(t, "name:ghost", identityName(schema.ContributorIdentity{Key: "name:ghost"}))

	assert.Equal(t, "short", truncateText("short", 10))
	assert.Equal(t, "a long ...", truncateText("a long title here", 10))
	assert.Equal(t, "abc", truncateText("abc", 2), "tiny widths leave the text alone")

	assert.Equal(t, "yes", yesNo(true))
	assert.Equal(t, "2.50", createFormatter(2)(2.5))
	assert.Equal(t, "3", createFormatter(0)(3.14159))
}

func TestLeaderboardWriters(t *testing.T) {
	cfg := textConfig()
	fmtFloat := createFormatter(cfg.Precision)

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeLeaderboardTable(&buf, sampleAnalysis(), cfg, fmtFloat, 1500*time.Millisecond))
		out := buf.String()
		assert.Contains(t, out, "★ Alice Smith")
		assert.Contains(t, out, "57.0")
		assert.Contains(t, out, "Alice Smith: + Excellent PR merge rate; + Active code reviewer; + Top team performer; - Boost commit frequency")
		assert.Contains(t, out, "Bob: - PR merge rate needs improvement")
		assert.Contains(t, out, "Window: 90.0 days")
		assert.Contains(t, out, "Showing 2 contributors. Computed in 1.5s. Record backend: sqlite")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeLeaderboardCSV(&buf, sampleAnalysis(), fmtFloat))
		records := readCSV(t, buf.String())
		require.Len(t, records, 3)
		assert.Equal(t, "rank", records[0][0])
		assert.Equal(t, []string{"1", "user:1", "Alice Smith", "57.0"}, records[1][:4])
		assert.Equal(t, "true", records[1][15])
		assert.Equal(t, "Excellent PR merge rate|Active code reviewer|Top team performer", records[1][16])
		assert.Equal(t, "false", records[2][15])
	})
}

func TestIdentityAndContributionWriters(t *testing.T) {
	cfg := textConfig()
	ids := []schema.ContributorIdentity{alice, bob}

	var buf bytes.Buffer
	require.NoError(t, writeIdentitiesTable(&buf, ids, cfg, time.Second))
	assert.Contains(t, buf.String(), "email:bob@example.com")
	assert.Contains(t, buf.String(), "alice@example.com")
	assert.Contains(t, buf.String(), "Showing 2 identities")

	buf.Reset()
	require.NoError(t, writeIdentitiesCSV(&buf, ids))
	records := readCSV(t, buf.String())
	require.Len(t, records, 3)
	assert.Equal(t, []string{"user:1", "Alice Smith", "true", "1", "alice", "email", "Alice Smith|alice", "alice@example.com"}, records[1])
	assert.Equal(t, "false", records[2][2])

	rows := []schema.ContributionRow{
		{Identity: alice, Counts: schema.ContributionCounts{Commits: 4, Additions: 30, Deletions: 5, FilesChanged: 3, PRsCreated: 1, PRsMerged: 1, ReviewsGiven: 2, ReviewsApproved: 1}},
		{Identity: bob, Counts: schema.ContributionCounts{Commits: 1, Additions: 1}},
	}
	buf.Reset()
	require.NoError(t, writeContributionsTable(&buf, rows, cfg, time.Second))
	assert.Contains(t, buf.String(), "Totals: 5 commits, 36 lines changed, 1 PRs merged, 2 reviews")

	buf.Reset()
	require.NoError(t, writeContributionsCSV(&buf, rows))
	records = readCSV(t, buf.String())
	assert.Equal(t, []string{"user:1", "Alice Smith", "4", "30", "5", "3", "1", "1", "2", "1"}, records[1])

	users := []schema.RegisteredUser{{ID: 1, Username: "alice", DisplayName: "Alice Smith", Email: "alice@example.com", AvatarURL: "https://a/1.png"}}
	buf.Reset()
	require.NoError(t, writeUsersTable(&buf, users, cfg, time.Second))
	assert.Contains(t, buf.String(), "alice@example.com")
	assert.Contains(t, buf.String(), "Showing 1 users")

	buf.Reset()
	require.NoError(t, writeUsersCSV(&buf, users))
	records = readCSV(t, buf.String())
	assert.Equal(t, []string{"id", "username", "display_name", "email", "avatar_url"}, records[0])
	assert.Equal(t, []string{"1", "alice", "Alice Smith", "alice@example.com", "https://a/1.png"}, records[1])
}

func TestTeamComponentWriters(t *testing.T) {
	cfg := textConfig()
	fmtFloat := createFormatter(cfg.Precision)
	report := sampleReport()

	t.Run("capacity", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeCapacityTable(&buf, report.Capacity, cfg, fmtFloat, time.Second))
		out := buf.String()
		assert.Contains(t, out, "Capacity score: 100.0 | Sprint risk: Low | Active members: 2")
		assert.Contains(t, out, "Underutilized")
		assert.Contains(t, out, "0.80")

		buf.Reset()
		require.NoError(t, writeCapacityCSV(&buf, report.Capacity, fmtFloat))
		records := readCSV(t, buf.String())
		require.Len(t, records, 3)
		assert.Equal(t, []string{"user:1", "alice", "24", "0.8000", "Optimal", "100.0", "Low"}, records[1])
	})

	t.Run("burnout", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeBurnoutTable(&buf, report.Burnout, cfg, fmtFloat, time.Second))
		out := buf.String()
		assert.Contains(t, out, "Overall burnout risk: 75.0 (High)")
		assert.Contains(t, out, "40%")
		assert.Contains(t, out, `Alice Smith: "urgent fix for login"`)

		buf.Reset()
		require.NoError(t, writeBurnoutCSV(&buf, report.Burnout, fmtFloat))
		records := readCSV(t, buf.String())
		require.Len(t, records, 2)
		assert.Equal(t, []string{"user:1", "Alice Smith", "10", "75.0", "Critical", "40", "30", "1"}, records[1][:8])
		assert.Equal(t, "Frequent late-night commits|Weekend work pattern", records[1][8])
	})

	t.Run("dora", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeDORATable(&buf, report.DORA, cfg, fmtFloat, time.Second))
		out := buf.String()
		assert.Contains(t, out, "DORA metrics over 30 days")
		assert.Contains(t, out, "0.200")
		assert.Contains(t, out, "failed_deployments")
		assert.Contains(t, out, "Deploys: 6 over 2 active days. Lead time samples: 1 merge days")

		rows := doraRows(report.DORA, fmtFloat)
		require.Len(t, rows, 4)
		assert.Equal(t, []string{"mttr", "60.0", "minutes", "issues"}, rows[3])
	})

	t.Run("bottlenecks", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeBottlenecksTable(&buf, report.Bottlenecks, cfg, time.Second))
		out := buf.String()
		assert.Contains(t, out, "#42")
		assert.Contains(t, out, "2025-02-19")
		assert.Contains(t, out, "High severity: 1 | Medium severity: 0")

		buf.Reset()
		require.NoError(t, writeBottlenecksCSV(&buf, report.Bottlenecks))
		records := readCSV(t, buf.String())
		require.Len(t, records, 2)
		assert.Equal(t, []string{"6f1c", "stuck_pr", "high", "acme/api", "42"}, records[1][:5])
		assert.Equal(t, "2025-02-19T12:00:00Z", records[1][8])
	})
}

func TestReportWriters(t *testing.T) {
	cfg := textConfig()
	fmtFloat := createFormatter(cfg.Precision)

	var buf bytes.Buffer
	require.NoError(t, writeReportText(&buf, sampleReport(), cfg, fmtFloat, time.Second))
	out := buf.String()
	assert.Contains(t, out, "Team report for acme/api, acme/web as of 2025-03-01T12:00:00Z (2 identities)")
	for _, section := range []string{"Leaderboard\n===========", "Capacity\n========", "Burnout\n=======", "DORA\n====", "Bottlenecks\n==========="} {
		assert.Contains(t, out, section)
	}

	rows := reportSummaryRows(sampleReport(), fmtFloat)
	summary := make(map[string]string, len(rows))
	for _, r := range rows {
		summary[r[0]+"."+r[1]] = r[2]
	}
	assert.Equal(t, "acme/api|acme/web", summary["scope.repositories"])
	assert.Equal(t, "user:1", summary["leaderboard.best_performer"])
	assert.Equal(t, "Low", summary["capacity.sprint_risk"])
	assert.Equal(t, "16.7", summary["dora.change_failure_rate"])
	assert.Equal(t, "1", summary["bottlenecks.high_severity"])
}

func TestWriteWeights(t *testing.T) {
	cfg := textConfig()
	cfg.Weights.Commit = 2

	var buf bytes.Buffer
	model := weightsModel{Weights: cfg.Weights, Capacity: cfg.Capacity, Burnout: cfg.Burnout, DORA: cfg.DORA, Bottleneck: cfg.Bottleneck}
	require.NoError(t, writeWeightsText(&buf, model))
	assert.Contains(t, buf.String(), "performance  = 2*commits + 3*merged_prs + 2*reviews + 0.001*lines")
	assert.Contains(t, buf.String(), "code_quality = 0.6*merge_rate + 0.4*approval_rate")

	rows := weightRows(model)
	assert.Contains(t, rows, []string{"burnout", "min_commits", "5"})
	assert.Contains(t, rows, []string{"bottleneck", "stuck_days", "7"})
	assert.Contains(t, rows, []string{"dora", "bug_keywords", "bug|hotfix|incident|outage|crash|regression|defect"})
}

func TestDispatchToFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		cfg := textConfig()
		cfg.Output = schema.JSONOut
		cfg.OutputFile = filepath.Join(dir, "report.json")
		require.NoError(t, WriteReport(sampleReport(), cfg, time.Second))

		content, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(content, &decoded))
		assert.Equal(t, float64(2), decoded["identities"])
		capacity, ok := decoded["capacity"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Low", capacity["sprint_risk"])
	})

	t.Run("csv", func(t *testing.T) {
		cfg := textConfig()
		cfg.Output = schema.CSVOut
		cfg.OutputFile = filepath.Join(dir, "bottlenecks.csv")
		require.NoError(t, WriteBottlenecks(sampleReport().Bottlenecks, cfg, time.Second))

		content, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)
		assert.Len(t, readCSV(t, string(content)), 2)
	})

	t.Run("text", func(t *testing.T) {
		cfg := textConfig()
		cfg.OutputFile = filepath.Join(dir, "weights.txt")
		require.NoError(t, WriteWeights(cfg))

		content, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "gitpulse scoring")
	})

	t.Run("bad path", func(t *testing.T) {
		cfg := textConfig()
		cfg.Output = schema.JSONOut
		cfg.OutputFile = filepath.Join(dir, "missing", "out.json")
		err := WriteDORA(sampleReport().DORA, cfg, time.Second)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error writing JSON dora")
	})
}
