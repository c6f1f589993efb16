//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/huangsam/gitpulse/internal/iocache"
	"github.com/huangsam/gitpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer starts a database container and returns its host and mapped port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) (string, string) {
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	return host, mapped.Port()
}

func startMySQL(t *testing.T) string {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "gitpulse",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}, "3306")
	return fmt.Sprintf("root:secret123@tcp(%s:%s)/gitpulse", host, port)
}

func startPostgres(t *testing.T) string {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432")
	return fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port)
}

func sampleBatch(now time.Time) schema.RecordBatch {
	merged := now.Add(-24 * time.Hour)
	return schema.RecordBatch{
		Commits: []schema.RawCommit{
			{SHA: "a1", RepoID: "acme/api", AuthorName: "Alice", AuthorEmail: "alice@example.com", Message: "feat: search", Timestamp: now.Add(-48 * time.Hour), Additions: 12, Deletions: 3},
			{SHA: "b1", RepoID: "acme/api", AuthorName: "Bob", AuthorEmail: "bob@example.com", Message: "fix: crash", Timestamp: now.Add(-24 * time.Hour), Additions: 1},
		},
		PullRequests: []schema.RawPullRequest{
			{RepoID: "acme/api", Number: 1, Title: "Search", Author: "alice", State: schema.PRMerged,
				CreatedAt: now.Add(-72 * time.Hour), UpdatedAt: merged, MergedAt: &merged},
		},
		Reviews: []schema.RawReview{
			{RepoID: "acme/api", PRNumber: 1, ReviewID: 11, Reviewer: "bob", State: schema.ReviewApproved, SubmittedAt: now.Add(-30 * time.Hour)},
		},
	}
}

// exerciseStores runs the same round trip against one backend.
func exerciseStores(t *testing.T, backend schema.DatabaseBackend, connStr string) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	records, err := iocache.NewRecordStore(backend, connStr)
	require.NoError(t, err)
	defer func() { _ = records.Close() }()

	batch := sampleBatch(now)
	require.NoError(t, records.SaveBatch(ctx, batch))
	require.NoError(t, records.SaveBatch(ctx, batch), "saving the same batch twice is idempotent")
	require.NoError(t, records.SaveUsers(ctx, []schema.RegisteredUser{{ID: 1, Username: "alice", Email: "alice@example.com"}}))

	q := schema.RecordQuery{RepoIDs: schema.Scope{"acme/api"}, Window: schema.TrailingWindow(now, 7)}
	commits, err := records.Commits(ctx, q)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.True(t, commits[0].Timestamp.Equal(batch.Commits[0].Timestamp))

	prs, err := records.PullRequests(ctx, q)
	require.NoError(t, err)
	require.Len(t, prs, 1)
	require.NotNil(t, prs[0].MergedAt)

	reviews, err := records.Reviews(ctx, q)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)

	repos, err := records.RepoIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme/api"}, repos)

	status, err := records.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)

	snapshots, err := iocache.NewSnapshotStore(backend, connStr)
	require.NoError(t, err)
	defer func() { _ = snapshots.Close() }()

	rec := schema.SnapshotRecord{
		ScopeID:    "acme/api",
		MetricType: schema.LeaderboardMetric,
		ComputedAt: now,
		Payload:    `{"entries":[]}`,
		Scores:     []schema.IdentityScoreRecord{{IdentityKey: "user:1", Commits: 1, Performance: 72.5}},
	}
	id, err := snapshots.RecordSnapshot(ctx, rec)
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = snapshots.RecordSnapshot(ctx, rec)
	assert.Error(t, err, "snapshots are append-only per scope, metric and time")

	scores, err := snapshots.GetAllIdentityScores()
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, id, scores[0].SnapshotID)
}

func TestStoresWithMySQL(t *testing.T) {
	exerciseStores(t, schema.MySQLBackend, startMySQL(t))
}

func TestStoresWithPostgres(t *testing.T) {
	exerciseStores(t, schema.PostgreSQLBackend, startPostgres(t))
}

// TestCLIWithPostgres runs the record and snapshot commands against one database.
func TestCLIWithPostgres(t *testing.T) {
	connStr := startPostgres(t)
	env := map[string]string{
		"GITPULSE_RECORD_BACKEND":      "postgresql",
		"GITPULSE_RECORD_DB_CONNECT":   connStr,
		"GITPULSE_SNAPSHOT_BACKEND":    "postgresql",
		"GITPULSE_SNAPSHOT_DB_CONNECT": connStr,
	}

	for _, args := range [][]string{
		{"records", "clear"},
		{"snapshot", "clear"},
		{"snapshot", "migrate"},
		{"report", "--repos", "acme/api", "--archive"},
		{"records", "status"},
		{"snapshot", "status"},
	} {
		_, err := runCommand(t, env, args...)
		require.NoError(t, err, "%v", args)
	}
}
