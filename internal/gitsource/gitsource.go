// Package gitsource ingests commits from a local git clone.
package gitsource

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
	"github.com/sirupsen/logrus"
)

// Source reads commits of one local repository through a GitClient.
type Source struct {
	client   contract.GitClient
	repoPath string
	repoID   string
	logger   *logrus.Logger
}

var _ contract.Fetcher = &Source{} // Compile-time check

// New creates a Source. An empty repoID is derived from the origin remote,
// falling back to the directory name.
func New(ctx context.Context, client contract.GitClient, repoPath, repoID string, logger *logrus.Logger) *Source {
	if logger == nil {
		logger = contract.Logger
	}
	if repoID == "" {
		if url, err := client.GetRemoteURL(ctx, repoPath); err == nil {
			repoID = RepoIDFromRemote(url)
		}
	}
	if repoID == "" {
		repoID = filepath.Base(repoPath)
	}
	return &Source{client: client, repoPath: repoPath, repoID: repoID, logger: logger}
}

// RepoID returns the repository id that fetched commits are tagged with.
func (s *Source) RepoID() string { return s.repoID }

// Fetch returns every commit authored inside the window.
func (s *Source) Fetch(ctx context.Context, window schema.TimeWindow) (schema.RecordBatch, error) {
	out, err := s.client.GetContributionLog(ctx, s.repoPath, window.Start, window.End)
	if err != nil {
		return schema.RecordBatch{}, fmt.Errorf("failed to read git log of %s: %w", s.repoPath, err)
	}

	commits, skipped := ParseContributionLog(out, s.repoID)
	if skipped > 0 {
		s.logger.WithFields(logrus.Fields{"repo": s.repoID, "skipped": skipped}).Warn("Skipped malformed commit headers")
	}
	s.logger.WithFields(logrus.Fields{"repo": s.repoID, "commits": len(commits)}).Debug("Parsed git log")
	return schema.RecordBatch{Commits: commits}, nil
}

// ParseContributionLog turns GetContributionLog output into commits.
// It returns the commits and the number of malformed headers it skipped.
func ParseContributionLog(out []byte, repoID string) ([]schema.RawCommit, int) {
	var commits []schema.RawCommit
	var current *schema.RawCommit
	skipped := 0

	flush := func() {
		if current != nil {
			commits = append(commits, *current)
			current = nil
		}
	}

	for _, l := range strings.Split(string(out), "\n") {
		l = strings.TrimRight(l, "\r")

		if strings.HasPrefix(l, contract.CommitMarker) {
			flush()
			c, ok := parseCommitHeader(l)
			if !ok {
				skipped++
				continue
			}
			c.RepoID = repoID
			current = &c
			continue
		}
		if current == nil || strings.TrimSpace(l) == "" {
			continue // blank lines and stats of skipped commits
		}

		add, del, ok := parseFileStatsLine(l)
		if !ok {
			continue
		}
		current.Additions += add
		current.Deletions += del
		current.FilesChanged++
	}
	flush()
	return commits, skipped
}

// parseCommitHeader reads "--commit <sha>\x1f<name>\x1f<email>\x1f<date>\x1f<subject>".
func parseCommitHeader(line string) (schema.RawCommit, bool) {
	parts := strings.SplitN(strings.TrimPrefix(line, contract.CommitMarker), contract.LogFieldSep, 5)
	if len(parts) < 4 || parts[0] == "" {
		return schema.RawCommit{}, false
	}
	ts, err := time.Parse(time.RFC3339, parts[3])
	if err != nil {
		return schema.RawCommit{}, false
	}
	c := schema.RawCommit{
		SHA:         parts[0],
		AuthorName:  strings.TrimSpace(parts[1]),
		AuthorEmail: strings.TrimSpace(parts[2]),
		Timestamp:   ts,
	}
	if len(parts) == 5 {
		c.Message = parts[4]
	}
	return c, true
}

// parseFileStatsLine parses a numstat line. Binary files report "-" and count as zero lines.
func parseFileStatsLine(line string) (int, int, bool) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) < 3 {
		return 0, 0, false
	}
	return parseChurnValue(parts[0]), parseChurnValue(parts[1]), true
}

// parseChurnValue converts a churn string to int, handling "-" as 0.
func parseChurnValue(s string) int {
	if s == "-" {
		return 0
	}
	if val, err := strconv.Atoi(s); err == nil && val >= 0 {
		return val
	}
	return 0
}

// RepoIDFromRemote turns a remote URL into an "owner/name" id.
// It understands https, ssh and scp-like forms and returns "" when nothing matches.
func RepoIDFromRemote(url string) string {
	url = strings.TrimSpace(url)
	url = strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git")
	if url == "" {
		return ""
	}

	var path string
	switch {
	case strings.Contains(url, "://"):
		rest := url[strings.Index(url, "://")+3:]
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return ""
		}
		path = rest[slash+1:]
	case strings.Contains(url, ":"):
		path = url[strings.LastIndex(url, ":")+1:]
	default:
		return ""
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 2 {
		return ""
	}
	return strings.Join(segments[len(segments)-2:], "/")
}
