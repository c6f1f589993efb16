package core

import (
	"context"
	"errors"
	"testing"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/internal/iocache"
	"github.com/huangsam/gitpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	batch  schema.RecordBatch
	err    error
	window schema.TimeWindow
}

func (s *stubFetcher) Fetch(_ context.Context, window schema.TimeWindow) (schema.RecordBatch, error) {
	s.window = window
	return s.batch, s.err
}

func TestSyncRecords(t *testing.T) {
	stores := newTestStores(t, false)
	ctx := context.Background()
	window := schema.TrailingWindow(asOf, 30)

	fetcher := &stubFetcher{batch: sampleBatch()}
	require.NoError(t, syncRecords(ctx, fetcher, stores.records, window, "stub"))
	assert.Equal(t, window, fetcher.window)

	// A second sync of the same records is idempotent
	require.NoError(t, syncRecords(ctx, fetcher, stores.records, window, "stub"))
	commits, err := stores.records.Commits(ctx, schema.RecordQuery{RepoIDs: schema.Scope{"acme/api", "acme/web"}, Window: window})
	require.NoError(t, err)
	assert.Len(t, commits, 5)

	boom := errors.New("upstream down")
	err = syncRecords(ctx, &stubFetcher{err: boom}, stores.records, window, "stub")
	assert.ErrorIs(t, err, boom)
}

func TestExecuteSyncValidation(t *testing.T) {
	stores := newTestStores(t, false)
	ctx := context.Background()

	cfg := testConfig(t)
	cfg.Scope = nil
	err := ExecuteSyncGitHub(ctx, cfg, stores.mgr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--repos is required")

	cfg = testConfig(t)
	cfg.Scope = schema.Scope{"not-a-repo"}
	err = ExecuteSyncGitHub(ctx, cfg, stores.mgr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be owner/name")

	cfg = testConfig(t)
	err = ExecuteSyncGit(ctx, cfg, stores.mgr, &contract.MockGitClient{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a repository path is required")

	mgr := &iocache.MockStoreManager{}
	mgr.On("GetRecordStore").Return(nil)
	cfg.RepoPath = "/tmp/repo"
	assert.ErrorIs(t, ExecuteSyncGit(ctx, cfg, mgr, &contract.MockGitClient{}), errNoRecordStore)
}
