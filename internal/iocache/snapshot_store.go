package iocache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// Table names for snapshot archiving.
const (
	snapshotsTable      = "gitpulse_snapshots"
	identityScoresTable = "gitpulse_identity_scores"
)

// SnapshotStoreImpl implements the append-only SnapshotStore interface.
type SnapshotStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.SnapshotStore = &SnapshotStoreImpl{} // Compile-time check

// NewSnapshotStore creates a new SnapshotStore and applies pending migrations.
func NewSnapshotStore(backend schema.DatabaseBackend, connStr string) (*SnapshotStoreImpl, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled archiving
		return &SnapshotStoreImpl{backend: backend}, nil
	}

	db, err := openDatabase(backend, connStr, contract.GetSnapshotDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := migrateUp(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create snapshot tables: %w", err)
	}
	return &SnapshotStoreImpl{db: db, backend: backend}, nil
}

func (ss *SnapshotStoreImpl) disabled() bool {
	return ss.backend == schema.NoneBackend || ss.db == nil
}

// RecordSnapshot archives one computation with its identity score rows and returns the new id.
// A second snapshot with the same scope, metric and timestamp is rejected.
func (ss *SnapshotStoreImpl) RecordSnapshot(ctx context.Context, rec schema.SnapshotRecord) (int64, error) {
	if ss.disabled() {
		return 0, nil
	}

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	args := []any{
		rec.ScopeID, string(rec.MetricType), rec.ComputedAt.UnixMilli(),
		unixOrNull(rec.WindowStart), unixOrNull(rec.WindowEnd), rec.Payload,
	}
	insert := fmt.Sprintf(
		"INSERT INTO %s (scope_id, metric_type, computed_at, window_start, window_end, payload) VALUES (%s)",
		quoteTableName(snapshotsTable, ss.backend), placeholders(len(args)))

	var snapshotID int64
	switch ss.backend {
	case schema.PostgreSQLBackend:
		row := tx.QueryRowContext(ctx, rebind(ss.backend, insert+" RETURNING snapshot_id"), args...)
		if err := row.Scan(&snapshotID); err != nil {
			return 0, fmt.Errorf("failed to insert snapshot: %w", err)
		}
	default:
		result, err := tx.ExecContext(ctx, insert, args...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert snapshot: %w", err)
		}
		snapshotID, err = result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get snapshot ID: %w", err)
		}
	}

	if len(rec.Scores) > 0 {
		query := rebind(ss.backend, fmt.Sprintf(`INSERT INTO %s (snapshot_id, identity_key, display_name,
			commits, prs_merged, reviews_given, lines_changed,
			performance, code_quality, effort, velocity, consistency,
			is_best_performer, strengths, improvement_areas) VALUES (%s)`,
			quoteTableName(identityScoresTable, ss.backend), placeholders(15)))
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare identity score insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, s := range rec.Scores {
			if _, err := stmt.ExecContext(ctx, snapshotID, s.IdentityKey, s.DisplayName,
				s.Commits, s.PRsMerged, s.ReviewsGiven, s.LinesChanged,
				s.Performance, s.CodeQuality, s.Effort, s.Velocity, s.Consistency,
				s.IsBestPerformer, s.Strengths, s.ImprovementAreas); err != nil {
				return 0, fmt.Errorf("failed to record score for %s: %w", s.IdentityKey, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return snapshotID, nil
}

// Close closes the underlying DB connection.
func (ss *SnapshotStoreImpl) Close() error {
	if ss.db != nil {
		return ss.db.Close()
	}
	return nil
}

// GetStatus returns status information about the snapshot store.
func (ss *SnapshotStoreImpl) GetStatus() (schema.SnapshotStatus, error) {
	status := schema.SnapshotStatus{
		Backend:    string(ss.backend),
		Connected:  ss.db != nil,
		TableSizes: make(map[string]int64),
	}
	if ss.disabled() {
		return status, nil
	}

	var lastID sql.NullInt64
	var newest, oldest sql.NullInt64
	row := ss.db.QueryRow(fmt.Sprintf("SELECT COUNT(*), MAX(snapshot_id), MAX(computed_at), MIN(computed_at) FROM %s",
		quoteTableName(snapshotsTable, ss.backend)))
	if err := row.Scan(&status.TotalSnapshots, &lastID, &newest, &oldest); err != nil {
		return status, fmt.Errorf("failed to get snapshot summary: %w", err)
	}
	if lastID.Valid {
		status.LastSnapshotID = lastID.Int64
		status.LastSnapshotTime = time.UnixMilli(newest.Int64).UTC()
		status.OldestSnapshotTime = time.UnixMilli(oldest.Int64).UTC()
	}

	for _, table := range []string{snapshotsTable, identityScoresTable} {
		count, err := tableRowCount(ss.db, table, ss.backend)
		if err != nil {
			return status, err
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllSnapshots returns every archived snapshot without its score rows.
func (ss *SnapshotStoreImpl) GetAllSnapshots() ([]schema.SnapshotRecord, error) {
	if ss.disabled() {
		return nil, nil
	}
	rows, err := ss.db.Query(fmt.Sprintf(`SELECT snapshot_id, scope_id, metric_type, computed_at, window_start, window_end, payload
		FROM %s ORDER BY snapshot_id`, quoteTableName(snapshotsTable, ss.backend)))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.SnapshotRecord
	for rows.Next() {
		var rec schema.SnapshotRecord
		var metric string
		var computed int64
		var start, end sql.NullInt64
		if err := rows.Scan(&rec.SnapshotID, &rec.ScopeID, &metric, &computed, &start, &end, &rec.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		rec.MetricType = schema.MetricType(metric)
		rec.ComputedAt = time.UnixMilli(computed).UTC()
		rec.WindowStart = timeOrNil(start)
		rec.WindowEnd = timeOrNil(end)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetAllIdentityScores returns every archived identity score row.
func (ss *SnapshotStoreImpl) GetAllIdentityScores() ([]schema.IdentityScoreRecord, error) {
	if ss.disabled() {
		return nil, nil
	}
	rows, err := ss.db.Query(fmt.Sprintf(`SELECT snapshot_id, identity_key, display_name,
		commits, prs_merged, reviews_given, lines_changed,
		performance, code_quality, effort, velocity, consistency,
		is_best_performer, strengths, improvement_areas
		FROM %s ORDER BY snapshot_id, identity_key`, quoteTableName(identityScoresTable, ss.backend)))
	if err != nil {
		return nil, fmt.Errorf("failed to query identity scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.IdentityScoreRecord
	for rows.Next() {
		var s schema.IdentityScoreRecord
		var strengths, improvements sql.NullString
		if err := rows.Scan(&s.SnapshotID, &s.IdentityKey, &s.DisplayName,
			&s.Commits, &s.PRsMerged, &s.ReviewsGiven, &s.LinesChanged,
			&s.Performance, &s.CodeQuality, &s.Effort, &s.Velocity, &s.Consistency,
			&s.IsBestPerformer, &strengths, &improvements); err != nil {
			return nil, fmt.Errorf("failed to scan identity score: %w", err)
		}
		s.Strengths = strengths.String
		s.ImprovementAreas = improvements.String
		out = append(out, s)
	}
	return out, rows.Err()
}
