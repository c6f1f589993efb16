package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/internal/parquet"
)

// ExecuteSnapshotExport writes every archived snapshot and identity score row to Parquet files
// named <outputFile>.snapshots.parquet and <outputFile>.identity_scores.parquet.
func ExecuteSnapshotExport(w io.Writer, store contract.SnapshotStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("snapshot store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get snapshot status: %w", err)
	}
	if status.TotalSnapshots == 0 {
		return errors.New("no snapshot data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total snapshots: %d\n", status.TotalSnapshots)
	_, _ = fmt.Fprintf(w, "Total identity score records: %d\n", status.TableSizes[identityScoresTable])

	snapshots, err := store.GetAllSnapshots()
	if err != nil {
		return fmt.Errorf("failed to retrieve snapshots: %w", err)
	}
	scores, err := store.GetAllIdentityScores()
	if err != nil {
		return fmt.Errorf("failed to retrieve identity scores: %w", err)
	}

	snapshotsFile := outputFile + ".snapshots.parquet"
	if err := parquet.WriteSnapshotsParquet(parquet.ConvertSnapshotRecords(snapshots), snapshotsFile); err != nil {
		return fmt.Errorf("failed to write snapshots: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d snapshots to: %s\n", len(snapshots), snapshotsFile)

	scoresFile := outputFile + ".identity_scores.parquet"
	if err := parquet.WriteIdentityScoresParquet(parquet.ConvertIdentityScoreRecords(scores), scoresFile); err != nil {
		return fmt.Errorf("failed to write identity scores: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d identity score records to: %s\n", len(scores), scoresFile)

	return nil
}
