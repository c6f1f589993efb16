package dora

import (
	"slices"
	"strings"
	"time"

	"github.com/huangsam/gitpulse/schema"
)

// Source names reported on the snapshot.
const (
	SourceDeployments = "deployments"
	SourceMergedPRs   = "merged_prs"
	SourceBugIssues   = "bug_issues"
	SourceNone        = "none"
)

// Records are the in-scope records a strategy reads.
type Records struct {
	PullRequests []schema.RawPullRequest
	Issues       []schema.RawIssue
	Deployments  []schema.RawDeployment
}

// DeploySource decides what counts as a deployment.
type DeploySource interface {
	// Deploys returns the deployment times in the window and the name of the source used.
	Deploys(r Records, window schema.TimeWindow) ([]time.Time, string)
}

// FailureHeuristic decides what counts as a failed change and as an incident.
type FailureHeuristic interface {
	// FailureRate returns the change failure percentage and the name of the source used.
	// deploys is the count the DeploySource produced for the same window.
	FailureRate(r Records, window schema.TimeWindow, deploys int) (float64, string)
	// IsIncident reports whether an issue tracks a production failure.
	IsIncident(issue schema.RawIssue) bool
}

// DeploymentsOrMergedPRs counts succeeded deployments, or merged PRs when no deployment exists.
// Pending and in-progress deployments count toward neither frequency nor failure rate.
type DeploymentsOrMergedPRs struct{}

var _ DeploySource = DeploymentsOrMergedPRs{} // Compile-time check

// Deploys implements the DeploySource interface.
func (DeploymentsOrMergedPRs) Deploys(r Records, window schema.TimeWindow) ([]time.Time, string) {
	seen := false
	times := []time.Time{}
	for _, d := range r.Deployments {
		if !window.Contains(d.CreatedAt) {
			continue
		}
		seen = true
		if d.IsSucceeded() {
			times = append(times, d.CreatedAt)
		}
	}
	if seen {
		return times, SourceDeployments
	}
	for _, pr := range r.PullRequests {
		if pr.IsMerged() && window.Contains(pr.MergeTime()) {
			times = append(times, pr.MergeTime())
		}
	}
	return times, SourceMergedPRs
}

// KeywordHeuristic treats failed deployments as failed changes,
// and falls back to issues whose title or labels contain a bug keyword.
type KeywordHeuristic struct {
	Keywords []string
}

var _ FailureHeuristic = KeywordHeuristic{} // Compile-time check

// FailureRate implements the FailureHeuristic interface.
func (h KeywordHeuristic) FailureRate(r Records, window schema.TimeWindow, deploys int) (float64, string) {
	var total, failed int
	for _, d := range r.Deployments {
		if !window.Contains(d.CreatedAt) {
			continue
		}
		switch {
		case d.IsFailed():
			failed++
			total++
		case d.IsSucceeded():
			total++
		}
	}
	if total > 0 {
		return float64(failed) / float64(total) * 100, SourceDeployments
	}

	if deploys <= 0 {
		return 0, SourceNone
	}
	bugs := 0
	for _, is := range r.Issues {
		if window.Contains(is.CreatedAt) && h.IsIncident(is) {
			bugs++
		}
	}
	return min(float64(bugs)/float64(deploys)*100, 100), SourceBugIssues
}

// IsIncident implements the FailureHeuristic interface.
func (h KeywordHeuristic) IsIncident(issue schema.RawIssue) bool {
	title := strings.ToLower(issue.Title)
	for _, k := range h.Keywords {
		k = strings.ToLower(k)
		if k == "" {
			continue
		}
		if strings.Contains(title, k) {
			return true
		}
		if slices.ContainsFunc(issue.Labels, func(l string) bool {
			return strings.Contains(strings.ToLower(l), k)
		}) {
			return true
		}
	}
	return false
}
