package agg

import (
	"time"

	"github.com/huangsam/gitpulse/core/identity"
	"github.com/huangsam/gitpulse/schema"
)

// Buckets accumulates contribution counts per identity and UTC calendar date.
// Records can be streamed in one at a time, so all-time scans never hold every row.
// Sum is exact for windows whose bounds fall on UTC midnight, and for unbounded windows.
// Events outside the bound set by Within are dropped on add, so Sum over that bound is exact too.
type Buckets struct {
	ix    *identity.Index
	scope schema.Scope
	bound schema.TimeWindow
	days  map[time.Time][]schema.ContributionCounts
}

// NewBuckets returns empty buckets for the identities over the scope.
func NewBuckets(identities []schema.ContributorIdentity, scope schema.Scope) *Buckets {
	return &Buckets{
		ix:    identity.NewIndex(identities),
		scope: scope,
		days:  make(map[time.Time][]schema.ContributionCounts),
	}
}

// Within drops every later event whose own time falls outside the window.
func (b *Buckets) Within(window schema.TimeWindow) *Buckets {
	b.bound = window
	return b
}

func (b *Buckets) day(t time.Time) []schema.ContributionCounts {
	d := t.UTC().Truncate(schema.Day)
	row, ok := b.days[d]
	if !ok {
		row = make([]schema.ContributionCounts, b.ix.Len())
		b.days[d] = row
	}
	return row
}

// AddCommit buckets a commit by its timestamp.
func (b *Buckets) AddCommit(c schema.RawCommit) {
	if !b.scope.Contains(c.RepoID) || !b.bound.Contains(c.Timestamp) {
		return
	}
	owners := b.ix.CommitOwners(c)
	if len(owners) == 0 {
		return
	}
	row := b.day(c.Timestamp)
	for _, i := range owners {
		addCommit(&row[i], c)
	}
}

// AddPullRequest buckets creation and merge separately, each under its own date.
func (b *Buckets) AddPullRequest(pr schema.RawPullRequest) {
	if !b.scope.Contains(pr.RepoID) {
		return
	}
	owners := b.ix.LoginOwners(pr.Author)
	if len(owners) == 0 {
		return
	}
	if b.bound.Contains(pr.CreatedAt) {
		row := b.day(pr.CreatedAt)
		for _, i := range owners {
			row[i].PRsCreated++
		}
	}
	if !pr.IsMerged() || !b.bound.Contains(pr.MergeTime()) {
		return
	}
	row := b.day(pr.MergeTime())
	for _, i := range owners {
		row[i].PRsMerged++
	}
}

// AddReview buckets a review by its submission time.
func (b *Buckets) AddReview(r schema.RawReview) {
	if !b.scope.Contains(r.RepoID) || !b.bound.Contains(r.SubmittedAt) {
		return
	}
	owners := b.ix.LoginOwners(r.Reviewer)
	if len(owners) == 0 {
		return
	}
	row := b.day(r.SubmittedAt)
	for _, i := range owners {
		addReview(&row[i], r)
	}
}

// Len returns the number of non-empty dates.
func (b *Buckets) Len() int {
	return len(b.days)
}

// Sum adds up every bucket whose date overlaps the window.
func (b *Buckets) Sum(window schema.TimeWindow) map[string]schema.ContributionCounts {
	totals := make([]schema.ContributionCounts, b.ix.Len())
	for d, row := range b.days {
		if !window.Start.IsZero() && !d.Add(schema.Day).After(window.Start) {
			continue
		}
		if !window.End.IsZero() && !d.Before(window.End) {
			continue
		}
		for i := range row {
			totals[i] = totals[i].Add(row[i])
		}
	}
	out := make(map[string]schema.ContributionCounts, b.ix.Len())
	for i, id := range b.ix.Identities() {
		out[id.Key] = totals[i]
	}
	return out
}
