// Package agg has aggregation logic for contributor activity data.
package agg

import (
	"math"
	"time"

	"github.com/huangsam/gitpulse/core/identity"
	"github.com/huangsam/gitpulse/schema"
)

// Aggregate sums the activity of every identity over the scope and window.
// Every identity key is present in the result, zero counts included.
// A commit is owned by every identity that lists its email or its name.
// PRs and reviews only count toward registered identities.
func Aggregate(identities []schema.ContributorIdentity, ds *schema.Dataset, scope schema.Scope, window schema.TimeWindow) map[string]schema.ContributionCounts {
	ix := identity.NewIndex(identities)
	counts := make([]schema.ContributionCounts, ix.Len())

	if ds != nil && len(scope) > 0 {
		for _, c := range ds.Commits {
			if !scope.Contains(c.RepoID) || !window.Contains(c.Timestamp) {
				continue
			}
			for _, i := range ix.CommitOwners(c) {
				addCommit(&counts[i], c)
			}
		}
		for _, pr := range ds.PullRequests {
			if !scope.Contains(pr.RepoID) {
				continue
			}
			created := window.Contains(pr.CreatedAt)
			merged := pr.IsMerged() && window.Contains(pr.MergeTime())
			if !created && !merged {
				continue
			}
			for _, i := range ix.LoginOwners(pr.Author) {
				if created {
					counts[i].PRsCreated++
				}
				if merged {
					counts[i].PRsMerged++
				}
			}
		}
		for _, r := range ds.Reviews {
			if !scope.Contains(r.RepoID) || !window.Contains(r.SubmittedAt) {
				continue
			}
			for _, i := range ix.LoginOwners(r.Reviewer) {
				addReview(&counts[i], r)
			}
		}
	}

	out := make(map[string]schema.ContributionCounts, ix.Len())
	for i, id := range ix.Identities() {
		out[id.Key] = counts[i]
	}
	return out
}

// CommitCounts returns only the commit totals of Aggregate.
func CommitCounts(counts map[string]schema.ContributionCounts) map[string]int {
	out := make(map[string]int, len(counts))
	for k, c := range counts {
		out[k] = c.Commits
	}
	return out
}

// Earliest returns the timestamp of the oldest in-scope record, or zero if there is none.
func Earliest(ds *schema.Dataset, scope schema.Scope) time.Time {
	var earliest time.Time
	see := func(repo string, t time.Time) {
		if t.IsZero() || !scope.Contains(repo) {
			return
		}
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
	}
	if ds == nil {
		return earliest
	}
	for _, c := range ds.Commits {
		see(c.RepoID, c.Timestamp)
	}
	for _, pr := range ds.PullRequests {
		see(pr.RepoID, pr.CreatedAt)
	}
	for _, r := range ds.Reviews {
		see(r.RepoID, r.SubmittedAt)
	}
	return earliest
}

// EffectiveDays is the window length used by the score formulas.
// An unbounded window spans from the earliest activity to its end, at least one day.
func EffectiveDays(window schema.TimeWindow, earliest, asOf time.Time) float64 {
	if window.IsBounded() {
		return window.Days()
	}
	end := window.End
	if end.IsZero() {
		end = asOf
	}
	start := window.Start
	if start.IsZero() {
		start = earliest
	}
	if start.IsZero() || !end.After(start) {
		return 1
	}
	return math.Max(1, end.Sub(start).Hours()/24)
}

func addCommit(c *schema.ContributionCounts, commit schema.RawCommit) {
	c.Commits++
	c.Additions += commit.Additions
	c.Deletions += commit.Deletions
	c.FilesChanged += commit.FilesChanged
}

func addReview(c *schema.ContributionCounts, r schema.RawReview) {
	c.ReviewsGiven++
	if r.State == schema.ReviewApproved {
		c.ReviewsApproved++
	}
}
