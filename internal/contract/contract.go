// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/gitpulse/schema"
)

// GitClient defines the git operations needed to ingest a local clone.
// This allows the ingestion logic to be tested without needing a real git executable.
type GitClient interface {
	// Run executes a git command and returns its output.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// GetRemoteURL returns the fetch URL of the origin remote.
	GetRemoteURL(ctx context.Context, repoPath string) (string, error)

	// GetContributionLog returns the raw commit log with author, email, subject and numstat lines.
	GetContributionLog(ctx context.Context, repoPath string, startTime, endTime time.Time) ([]byte, error)
}

// DataSource reads raw activity records for a scope and window.
type DataSource interface {
	Commits(ctx context.Context, q schema.RecordQuery) ([]schema.RawCommit, error)
	PullRequests(ctx context.Context, q schema.RecordQuery) ([]schema.RawPullRequest, error)
	Reviews(ctx context.Context, q schema.RecordQuery) ([]schema.RawReview, error)
	Issues(ctx context.Context, q schema.RecordQuery) ([]schema.RawIssue, error)
	Deployments(ctx context.Context, q schema.RecordQuery) ([]schema.RawDeployment, error)
	Users(ctx context.Context) ([]schema.RegisteredUser, error)

	// RepoIDs lists every repository with stored records.
	RepoIDs(ctx context.Context) ([]string, error)
}

// CommitWalker streams commits one at a time instead of loading them all.
type CommitWalker interface {
	WalkCommits(ctx context.Context, q schema.RecordQuery, fn func(schema.RawCommit) error) error
}

// RecordSink persists ingested records. Saving the same record twice keeps one copy.
type RecordSink interface {
	SaveBatch(ctx context.Context, batch schema.RecordBatch) error
	SaveUsers(ctx context.Context, users []schema.RegisteredUser) error
}

// RecordStore is the persistent store of raw activity.
type RecordStore interface {
	DataSource
	CommitWalker
	RecordSink

	// GetStatus returns status information about the record store
	GetStatus() (schema.RecordStatus, error)

	// Close closes the underlying connection
	Close() error
}

// SnapshotStore archives computed metrics. It is append-only.
type SnapshotStore interface {
	// RecordSnapshot stores one computed result with its per-identity rows and returns its id.
	// A second snapshot with the same scope, metric type and computed time is rejected.
	RecordSnapshot(ctx context.Context, rec schema.SnapshotRecord) (int64, error)

	// GetStatus returns status information about the snapshot store
	GetStatus() (schema.SnapshotStatus, error)

	// GetAllSnapshots returns every archived snapshot, oldest first
	GetAllSnapshots() ([]schema.SnapshotRecord, error)

	// GetAllIdentityScores returns every archived per-identity row
	GetAllIdentityScores() ([]schema.IdentityScoreRecord, error)

	// Close closes the underlying connection
	Close() error
}

// StoreManager defines the interface for managing the stores.
// This allows the storage layer to be mocked for testing.
type StoreManager interface {
	GetRecordStore() RecordStore
	GetSnapshotStore() SnapshotStore
}

// Fetcher pulls a batch of records from an upstream system.
type Fetcher interface {
	Fetch(ctx context.Context, window schema.TimeWindow) (schema.RecordBatch, error)
}
