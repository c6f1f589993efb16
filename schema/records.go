package schema

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RawCommit is a single commit as observed in version control.
// Timestamp keeps the author's UTC offset so hour-of-day reads are local.
type RawCommit struct {
	SHA          string    `json:"sha"`
	RepoID       string    `json:"repo_id"`
	AuthorName   string    `json:"author_name"`
	AuthorEmail  string    `json:"author_email"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	Additions    int       `json:"additions"`
	Deletions    int       `json:"deletions"`
	FilesChanged int       `json:"files_changed"`
}

// RawPullRequest is a pull request with its lifecycle timestamps.
type RawPullRequest struct {
	RepoID    string     `json:"repo_id"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	State     PRState    `json:"state"`
	URL       string     `json:"url"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	MergedAt  *time.Time `json:"merged_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// IsMerged reports whether the pull request was merged.
func (pr RawPullRequest) IsMerged() bool {
	return pr.State == PRMerged || pr.MergedAt != nil
}

// MergeTime returns MergedAt, falling back to UpdatedAt when it is missing.
func (pr RawPullRequest) MergeTime() time.Time {
	if pr.MergedAt != nil {
		return *pr.MergedAt
	}
	return pr.UpdatedAt
}

// RawReview is one review submitted on a pull request.
type RawReview struct {
	RepoID      string      `json:"repo_id"`
	PRNumber    int         `json:"pr_number"`
	ReviewID    int64       `json:"review_id"`
	Reviewer    string      `json:"reviewer"`
	State       ReviewState `json:"state"`
	SubmittedAt time.Time   `json:"submitted_at"`
}

// RawIssue is an issue used as an incident proxy.
type RawIssue struct {
	RepoID    string     `json:"repo_id"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Labels    []string   `json:"labels"`
	State     string     `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// RawDeployment is one deployment with its latest status.
type RawDeployment struct {
	RepoID      string    `json:"repo_id"`
	ID          int64     `json:"id"`
	Environment string    `json:"environment"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsFailed reports whether the deployment ended in failure.
func (d RawDeployment) IsFailed() bool {
	return d.Status == "failure" || d.Status == "error"
}

// IsSucceeded reports whether the deployment went live.
// A successful deployment turns inactive once a newer one replaces it.
func (d RawDeployment) IsSucceeded() bool {
	return d.Status == "success" || d.Status == "inactive"
}

// RegisteredUser is an entry of the platform user directory.
type RegisteredUser struct {
	ID          int64  `json:"id" yaml:"id"`
	Username    string `json:"username" yaml:"username"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Email       string `json:"email" yaml:"email"`
	AvatarURL   string `json:"avatar_url" yaml:"avatar_url"`
}

// Dataset holds every raw record needed for one request.
type Dataset struct {
	Commits      []RawCommit
	PullRequests []RawPullRequest
	Reviews      []RawReview
	Issues       []RawIssue
	Deployments  []RawDeployment
	Users        []RegisteredUser
}

// RecordBatch is a set of records produced by one ingestion pass.
type RecordBatch struct {
	Commits      []RawCommit
	PullRequests []RawPullRequest
	Reviews      []RawReview
	Issues       []RawIssue
	Deployments  []RawDeployment
}

// Len returns the number of records in the batch.
func (b RecordBatch) Len() int {
	return len(b.Commits) + len(b.PullRequests) + len(b.Reviews) + len(b.Issues) + len(b.Deployments)
}

// Scope is a set of repository ids. An empty scope contains nothing.
type Scope []string

// Contains reports whether the repository id is in scope.
func (s Scope) Contains(repoID string) bool {
	return slices.Contains(s, repoID)
}

// maxScopeIDLen bounds the scope id so it fits an indexed VARCHAR(255) column.
const maxScopeIDLen = 200

// ID returns a stable identifier for the scope regardless of repository order.
// Long scopes are replaced by a name-based UUID of the sorted list.
func (s Scope) ID() string {
	sorted := slices.Clone(s)
	slices.Sort(sorted)
	joined := strings.Join(slices.Compact(sorted), ",")
	if len(joined) <= maxScopeIDLen {
		return joined
	}
	return "scope:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(joined)).String()
}

// RecordQuery filters reads from a data source.
type RecordQuery struct {
	RepoIDs Scope
	Window  TimeWindow
}
