package schema

import "time"

// RecordStatus represents the status of the record store.
type RecordStatus struct {
	Backend      string           `json:"backend"`
	Connected    bool             `json:"connected"`
	Repositories []string         `json:"repositories"`
	LatestCommit time.Time        `json:"latest_commit"`
	OldestCommit time.Time        `json:"oldest_commit"`
	TableSizes   map[string]int64 `json:"table_sizes"`
}

// SnapshotStatus represents the status of the snapshot store.
type SnapshotStatus struct {
	Backend            string           `json:"backend"`
	Connected          bool             `json:"connected"`
	TotalSnapshots     int              `json:"total_snapshots"`
	LastSnapshotID     int64            `json:"last_snapshot_id"`
	LastSnapshotTime   time.Time        `json:"last_snapshot_time"`
	OldestSnapshotTime time.Time        `json:"oldest_snapshot_time"`
	TableSizes         map[string]int64 `json:"table_sizes"`
}

// SnapshotRecord is one archived computation, keyed by (ScopeID, MetricType, ComputedAt).
type SnapshotRecord struct {
	SnapshotID  int64
	ScopeID     string
	MetricType  MetricType
	ComputedAt  time.Time
	WindowStart *time.Time
	WindowEnd   *time.Time
	Payload     string
	Scores      []IdentityScoreRecord
}

// IdentityScoreRecord is one per-identity row archived with a leaderboard snapshot.
type IdentityScoreRecord struct {
	SnapshotID       int64
	IdentityKey      string
	DisplayName      string
	Commits          int32
	PRsMerged        int32
	ReviewsGiven     int32
	LinesChanged     int32
	Performance      float64
	CodeQuality      float64
	Effort           float64
	Velocity         float64
	Consistency      float64
	IsBestPerformer  bool
	Strengths        string
	ImprovementAreas string
}
