package gitsource

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 1, 1, 22, 30, 0, 0, time.FixedZone("", -5*3600))

func sampleScenarios() []gitLogScenario {
	return []gitLogScenario{
		{"abc123", "Alice Developer", "alice@example.com", baseTime, "Add parser", []fileChange{
			{"core/parse.go", 50, 10},
			{"core/parse_test.go", 100, 5},
		}},
		{"def456", "Bob Tester", "BOB@example.com", baseTime.Add(time.Hour), "Ship logo", []fileChange{
			{"assets/logo.png", -1, -1},
			{"README.md", 3, 1},
		}},
		{"ghi789", "Alice Developer", "alice@example.com", baseTime.Add(2 * time.Hour), "Empty merge", nil},
	}
}

func TestParseContributionLog(t *testing.T) {
	commits, skipped := ParseContributionLog(generateTestGitLog(sampleScenarios()), "acme/api")
	assert.Equal(t, 0, skipped)
	require.Len(t, commits, 3)

	first := commits[0]
	assert.Equal(t, "abc123", first.SHA)
	assert.Equal(t, "acme/api", first.RepoID)
	assert.Equal(t, "Alice Developer", first.AuthorName)
	assert.Equal(t, "alice@example.com", first.AuthorEmail)
	assert.Equal(t, "Add parser", first.Message)
	assert.Equal(t, 150, first.Additions)
	assert.Equal(t, 15, first.Deletions)
	assert.Equal(t, 2, first.FilesChanged)
	assert.Equal(t, 22, first.Timestamp.Hour(), "author offset is kept")
	assert.True(t, baseTime.Equal(first.Timestamp))

	binary := commits[1]
	assert.Equal(t, 3, binary.Additions)
	assert.Equal(t, 1, binary.Deletions)
	assert.Equal(t, 2, binary.FilesChanged, "binary files still count as changed")

	assert.Equal(t, 0, commits[2].FilesChanged)
}

func TestParseContributionLog_EdgeCases(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantCommits int
		wantSkipped int
	}{
		{"empty", "", 0, 0},
		{"stats without header", "1\t2\tfile.go\n", 0, 0},
		{"bad date", contract.CommitMarker + "abc\x1fA\x1fa@x\x1fyesterday\x1fmsg\n1\t1\tf.go\n", 0, 1},
		{"missing fields", contract.CommitMarker + "abc\x1fA\n", 0, 1},
		{"subject with pipes and tabs", contract.CommitMarker + "abc\x1fA\x1fa@x\x1f2024-01-01T00:00:00Z\x1ffix | a\tb\n", 1, 0},
		{"crlf line endings", contract.CommitMarker + "abc\x1fA\x1fa@x\x1f2024-01-01T00:00:00Z\x1fmsg\r\n4\t0\tf.go\r\n", 1, 0},
		{"malformed stats line", contract.CommitMarker + "abc\x1fA\x1fa@x\x1f2024-01-01T00:00:00Z\x1fmsg\nnot a stat\n", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commits, skipped := ParseContributionLog([]byte(tt.input), "r")
			assert.Len(t, commits, tt.wantCommits)
			assert.Equal(t, tt.wantSkipped, skipped)
		})
	}

	commits, _ := ParseContributionLog([]byte(contract.CommitMarker+"abc\x1fA\x1fa@x\x1f2024-01-01T00:00:00Z\x1fmsg\r\n4\t0\tf.go\r\n"), "r")
	require.Len(t, commits, 1)
	assert.Equal(t, 4, commits[0].Additions)
	assert.Equal(t, "msg", commits[0].Message)
}

func TestParseChurnValue(t *testing.T) {
	assert.Equal(t, 12, parseChurnValue("12"))
	assert.Equal(t, 0, parseChurnValue("-"))
	assert.Equal(t, 0, parseChurnValue("-3"))
	assert.Equal(t, 0, parseChurnValue("abc"))
}

func TestRepoIDFromRemote(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/acme/widgets.git", "acme/widgets"},
		{"https://github.com/acme/widgets", "acme/widgets"},
		{"https://gitlab.example.com/group/sub/widgets.git/", "sub/widgets"},
		{"git@github.com:acme/widgets.git", "acme/widgets"},
		{"ssh://git@github.com/acme/widgets.git", "acme/widgets"},
		{"https://github.com/", ""},
		{"/srv/git/widgets", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, RepoIDFromRemote(tt.url))
		})
	}
}

func TestSourceFetch(t *testing.T) {
	ctx := context.Background()
	window := schema.TimeWindow{Start: baseTime.Add(-schema.Day), End: baseTime.Add(schema.Day)}

	t.Run("derives repo id from remote", func(t *testing.T) {
		client := new(contract.MockGitClient)
		client.On("GetRemoteURL", ctx, "/repo").Return("git@github.com:acme/api.git", nil)
		client.On("GetContributionLog", ctx, "/repo", window.Start, window.End).
			Return(generateTestGitLog(sampleScenarios()), nil)

		src := New(ctx, client, "/repo", "", nil)
		assert.Equal(t, "acme/api", src.RepoID())

		batch, err := src.Fetch(ctx, window)
		require.NoError(t, err)
		assert.Len(t, batch.Commits, 3)
		assert.Empty(t, batch.PullRequests)
		assert.Equal(t, "acme/api", batch.Commits[0].RepoID)
		client.AssertExpectations(t)
	})

	t.Run("falls back to directory name", func(t *testing.T) {
		client := new(contract.MockGitClient)
		client.On("GetRemoteURL", ctx, "/src/widgets").Return("", errors.New("no origin"))
		assert.Equal(t, "widgets", New(ctx, client, "/src/widgets", "", nil).RepoID())
	})

	t.Run("explicit repo id skips remote lookup", func(t *testing.T) {
		client := new(contract.MockGitClient)
		src := New(ctx, client, "/repo", "team/custom", nil)
		assert.Equal(t, "team/custom", src.RepoID())
		client.AssertNotCalled(t, "GetRemoteURL", mock.Anything, mock.Anything)
	})

	t.Run("log error is wrapped and skipped headers are logged", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logrus.New()
		logger.SetOutput(&buf)

		client := new(contract.MockGitClient)
		client.On("GetContributionLog", ctx, "/broken", mock.Anything, mock.Anything).
			Return(nil, errors.New("not a git repository")).Once()
		src := New(ctx, client, "/broken", "x/y", logger)
		_, err := src.Fetch(ctx, window)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a git repository")

		client.On("GetContributionLog", ctx, "/broken", mock.Anything, mock.Anything).
			Return([]byte(contract.CommitMarker+"bad\n"), nil).Once()
		batch, err := src.Fetch(ctx, window)
		require.NoError(t, err)
		assert.Empty(t, batch.Commits)
		assert.Contains(t, buf.String(), "Skipped malformed commit headers")
	})
}
