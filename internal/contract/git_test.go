package contract

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfGitNotAvailable skips the test if git binary is not found in PATH
func skipIfGitNotAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
}

// initTestRepo creates a repository with a single commit and returns its path.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	env := append(os.Environ(),
		"GIT_AUTHOR_NAME=Alice A.", "GIT_AUTHOR_EMAIL=alice@example.com",
		"GIT_COMMITTER_NAME=Alice A.", "GIT_COMMITTER_EMAIL=alice@example.com",
		"GIT_AUTHOR_DATE=2024-03-01T10:00:00+02:00", "GIT_COMMITTER_DATE=2024-03-01T10:00:00+02:00",
	)
	run := func(args ...string) {
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = env
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))
	run("add", "main.go")
	run("commit", "-q", "-m", "Add main | entry point")
	run("remote", "add", "origin", "https://github.com/acme/widgets.git")
	return dir
}

func TestMockGitClient_Run(t *testing.T) {
	mockClient := new(MockGitClient)
	ctx := context.Background()
	expectedOutput := []byte("a1b2c3d commit message")
	expectedError := errors.New("mocked git error")

	mockClient.On("Run", ctx, "/path/to/repo", "log", "-1", "--oneline").
		Return(expectedOutput, expectedError).
		Once()

	actualOutput, actualError := mockClient.Run(ctx, "/path/to/repo", "log", "-1", "--oneline")
	assert.Equal(t, expectedOutput, actualOutput)
	assert.Equal(t, expectedError, actualError)
	mockClient.AssertExpectations(t)
}

func TestLocalGitClient_Run(t *testing.T) {
	skipIfGitNotAvailable(t)
	client := NewLocalGitClient()
	ctx := context.Background()
	repo := initTestRepo(t)

	tests := []struct {
		name        string
		repoPath    string
		args        []string
		expectError bool
	}{
		{"valid command", repo, []string{"status"}, false},
		{"invalid repo path", "/nonexistent/path", []string{"status"}, true},
		{"invalid git command", repo, []string{"invalid-command"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Run(ctx, tt.repoPath, tt.args...)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocalGitClient_GetRepoRoot(t *testing.T) {
	skipIfGitNotAvailable(t)
	client := NewLocalGitClient()
	ctx := context.Background()
	repo := initTestRepo(t)
	sub := filepath.Join(repo, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))

	root, err := client.GetRepoRoot(ctx, sub)
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(repo)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = client.GetRepoRoot(ctx, "/nonexistent/path")
	assert.Error(t, err)
}

func TestLocalGitClient_GetRemoteURL(t *testing.T) {
	skipIfGitNotAvailable(t)
	client := NewLocalGitClient()
	url, err := client.GetRemoteURL(context.Background(), initTestRepo(t))
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/widgets.git", url)
}

func TestLocalGitClient_GetContributionLog(t *testing.T) {
	skipIfGitNotAvailable(t)
	client := NewLocalGitClient()
	ctx := context.Background()
	repo := initTestRepo(t)

	out, err := client.GetContributionLog(ctx, repo, time.Time{}, time.Time{})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.GreaterOrEqual(t, len(lines), 2)

	require.True(t, strings.HasPrefix(lines[0], CommitMarker))
	fields := strings.Split(strings.TrimPrefix(lines[0], CommitMarker), LogFieldSep)
	require.Len(t, fields, 5)
	assert.Len(t, fields[0], 40)
	assert.Equal(t, "Alice A.", fields[1])
	assert.Equal(t, "alice@example.com", fields[2])
	assert.Equal(t, "2024-03-01T10:00:00+02:00", fields[3])
	assert.Equal(t, "Add main | entry point", fields[4])
	assert.Equal(t, "3\t0\tmain.go", lines[len(lines)-1])

	// window after the only commit
	out, err = client.GetContributionLog(ctx, repo, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(out)))
}
