package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/gitpulse/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err, "Should be able to open output file")
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err, "Should be able to read data")
	}
	return rows[:n]
}

func sampleSnapshots() []schema.SnapshotRecord {
	computed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	start := computed.Add(-90 * schema.Day)
	return []schema.SnapshotRecord{
		{SnapshotID: 1, ScopeID: "acme/api,acme/web", MetricType: schema.LeaderboardMetric, ComputedAt: computed,
			WindowStart: &start, WindowEnd: &computed, Payload: `{"entries":[]}`},
		{SnapshotID: 2, ScopeID: "acme/api", MetricType: schema.BottleneckMetric, ComputedAt: computed.Add(time.Minute),
			Payload: `{"alerts":[]}`},
	}
}

func TestSchemaColumns(t *testing.T) {
	tests := []struct {
		name    string
		schema  *parquet.Schema
		columns []string
	}{
		{"snapshots", parquet.SchemaOf(new(Snapshot)), []string{
			"snapshot_id", "scope_id", "metric_type", "computed_at", "window_start", "window_end", "payload",
		}},
		{"identity scores", parquet.SchemaOf(new(IdentityScore)), []string{
			"snapshot_id", "identity_key", "display_name", "commits", "prs_merged", "reviews_given", "lines_changed",
			"performance", "code_quality", "effort", "velocity", "consistency", "is_best_performer",
			"strengths", "improvement_areas",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, col := range tt.columns {
				_, ok := tt.schema.Lookup(col)
				assert.True(t, ok, "Column %s should exist in schema", col)
			}
		})
	}
}

func TestWriteSnapshotsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "snapshots.parquet")
	data := ConvertSnapshotRecords(sampleSnapshots())
	require.NoError(t, WriteSnapshotsParquet(data, outputPath))

	got := readAll[Snapshot](t, outputPath)
	require.Len(t, got, 2)
	assert.Equal(t, "acme/api,acme/web", got[0].ScopeID)
	assert.Equal(t, "leaderboard", got[0].MetricType)
	require.NotNil(t, got[0].WindowStart)
	assert.WithinDuration(t, *data[0].WindowStart, *got[0].WindowStart, time.Millisecond)
	assert.WithinDuration(t, data[1].ComputedAt, got[1].ComputedAt, time.Millisecond)
	assert.Nil(t, got[1].WindowStart, "unbounded window should stay null")
	assert.Nil(t, got[1].WindowEnd)
	assert.Equal(t, `{"alerts":[]}`, got[1].Payload)
}

func TestWriteIdentityScoresParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "scores.parquet")
	records := []schema.IdentityScoreRecord{
		{SnapshotID: 1, IdentityKey: "user:alice", DisplayName: "Alice", Commits: 12, PRsMerged: 3, ReviewsGiven: 4,
			LinesChanged: 900, Performance: 30.9, CodeQuality: 88, Effort: 37.8, Velocity: 20, Consistency: 18,
			IsBestPerformer: true, Strengths: "Top Performer;Code Reviewer"},
		{SnapshotID: 1, IdentityKey: "email:bob@example.com", DisplayName: "bob", Commits: 1},
	}
	require.NoError(t, WriteIdentityScoresParquet(ConvertIdentityScoreRecords(records), outputPath))

	got := readAll[IdentityScore](t, outputPath)
	require.Len(t, got, 2)
	assert.Equal(t, "user:alice", got[0].IdentityKey)
	assert.Equal(t, int32(900), got[0].LinesChanged)
	assert.InDelta(t, 30.9, got[0].Performance, 0.001)
	assert.True(t, got[0].IsBestPerformer)
	require.NotNil(t, got[0].Strengths)
	assert.Equal(t, "Top Performer;Code Reviewer", *got[0].Strengths)
	assert.Nil(t, got[0].ImprovementAreas)
	assert.False(t, got[1].IsBestPerformer)
	assert.Nil(t, got[1].Strengths)
}

func TestWriteParquet_EmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteSnapshotsParquet([]Snapshot{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteParquet_InvalidPath(t *testing.T) {
	err := WriteIdentityScoresParquet(nil, "/nonexistent/directory/output.parquet")
	require.Error(t, err, "Writing to invalid path should produce error")
}
