// Package parquet provides data structures and functions for exporting archived
// gitpulse snapshots to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/gitpulse/schema"
	"github.com/parquet-go/parquet-go"
)

// Snapshot represents one archived metric computation.
// This struct maps to the gitpulse_snapshots database table.
type Snapshot struct {
	// SnapshotID is the unique identifier for this snapshot
	SnapshotID int64 `parquet:"snapshot_id,snappy"`

	// ScopeID identifies the set of repositories the metric was computed over
	ScopeID string `parquet:"scope_id,snappy"`

	// MetricType is one of leaderboard, capacity, burnout, dora, bottleneck
	MetricType string `parquet:"metric_type,snappy"`

	// ComputedAt is when the metric was computed
	ComputedAt time.Time `parquet:"computed_at,snappy"`

	// WindowStart and WindowEnd are nil for unbounded windows
	WindowStart *time.Time `parquet:"window_start,optional,snappy"`
	WindowEnd   *time.Time `parquet:"window_end,optional,snappy"`

	// Payload is the JSON-encoded result
	Payload string `parquet:"payload,snappy"`
}

// IdentityScore is one per-identity row archived with a leaderboard snapshot.
// This struct maps to the gitpulse_identity_scores database table.
type IdentityScore struct {
	SnapshotID   int64  `parquet:"snapshot_id,snappy"`
	IdentityKey  string `parquet:"identity_key,snappy"`
	DisplayName  string `parquet:"display_name,snappy"`
	Commits      int32  `parquet:"commits,snappy"`
	PRsMerged    int32  `parquet:"prs_merged,snappy"`
	ReviewsGiven int32  `parquet:"reviews_given,snappy"`
	LinesChanged int32  `parquet:"lines_changed,snappy"`

	Performance float64 `parquet:"performance,snappy"`
	CodeQuality float64 `parquet:"code_quality,snappy"`
	Effort      float64 `parquet:"effort,snappy"`
	Velocity    float64 `parquet:"velocity,snappy"`
	Consistency float64 `parquet:"consistency,snappy"`

	IsBestPerformer bool `parquet:"is_best_performer,snappy"`

	// Strengths and ImprovementAreas are semicolon-joined labels (nullable)
	Strengths        *string `parquet:"strengths,optional,snappy"`
	ImprovementAreas *string `parquet:"improvement_areas,optional,snappy"`
}

// writeRows writes rows to outputPath using struct schema inference.
func writeRows[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteSnapshotsParquet writes a slice of Snapshot structs to a Parquet file.
func WriteSnapshotsParquet(data []Snapshot, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteIdentityScoresParquet writes a slice of IdentityScore structs to a Parquet file.
func WriteIdentityScoresParquet(data []IdentityScore, outputPath string) error {
	return writeRows(data, outputPath)
}

// ConvertSnapshotRecords converts schema.SnapshotRecord to Snapshot for Parquet export.
func ConvertSnapshotRecords(records []schema.SnapshotRecord) []Snapshot {
	result := make([]Snapshot, len(records))
	for i, record := range records {
		result[i] = Snapshot{
			SnapshotID:  record.SnapshotID,
			ScopeID:     record.ScopeID,
			MetricType:  string(record.MetricType),
			ComputedAt:  record.ComputedAt,
			WindowStart: record.WindowStart,
			WindowEnd:   record.WindowEnd,
			Payload:     record.Payload,
		}
	}
	return result
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ConvertIdentityScoreRecords converts schema.IdentityScoreRecord to IdentityScore for Parquet export.
func ConvertIdentityScoreRecords(records []schema.IdentityScoreRecord) []IdentityScore {
	result := make([]IdentityScore, len(records))
	for i, record := range records {
		result[i] = IdentityScore{
			SnapshotID:       record.SnapshotID,
			IdentityKey:      record.IdentityKey,
			DisplayName:      record.DisplayName,
			Commits:          record.Commits,
			PRsMerged:        record.PRsMerged,
			ReviewsGiven:     record.ReviewsGiven,
			LinesChanged:     record.LinesChanged,
			Performance:      record.Performance,
			CodeQuality:      record.CodeQuality,
			Effort:           record.Effort,
			Velocity:         record.Velocity,
			Consistency:      record.Consistency,
			IsBestPerformer:  record.IsBestPerformer,
			Strengths:        optionalString(record.Strengths),
			ImprovementAreas: optionalString(record.ImprovementAreas),
		}
	}
	return result
}
