// Package dora computes the four DORA delivery metrics from proxy records.
package dora

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/huangsam/gitpulse/schema"
)

const dateLayout = "2006-01-02"

type computer struct {
	deploys  DeploySource
	failures FailureHeuristic
}

// Option swaps one of the strategies.
type Option func(*computer)

// WithDeploySource replaces the default deployment source.
func WithDeploySource(s DeploySource) Option {
	return func(c *computer) {
		if s != nil {
			c.deploys = s
		}
	}
}

// WithFailureHeuristic replaces the default failure heuristic.
func WithFailureHeuristic(h FailureHeuristic) Option {
	return func(c *computer) {
		if h != nil {
			c.failures = h
		}
	}
}

// Filter keeps the records of the dataset that belong to the scope.
func Filter(ds *schema.Dataset, scope schema.Scope) Records {
	var r Records
	if ds == nil {
		return r
	}
	for _, pr := range ds.PullRequests {
		if scope.Contains(pr.RepoID) {
			r.PullRequests = append(r.PullRequests, pr)
		}
	}
	for _, is := range ds.Issues {
		if scope.Contains(is.RepoID) {
			r.Issues = append(r.Issues, is)
		}
	}
	for _, d := range ds.Deployments {
		if scope.Contains(d.RepoID) {
			r.Deployments = append(r.Deployments, d)
		}
	}
	return r
}

// Compute derives the DORA snapshot for the window.
// An open start is narrowed to settings.WindowDays before the end, and an open end to now.
func Compute(r Records, window schema.TimeWindow, settings schema.DORASettings, opts ...Option) schema.DORASnapshot {
	c := &computer{
		deploys:  DeploymentsOrMergedPRs{},
		failures: KeywordHeuristic{Keywords: settings.BugKeywords},
	}
	for _, opt := range opts {
		opt(c)
	}

	if !window.IsBounded() {
		window = narrow(window, settings.WindowDays)
	}
	days := int(math.Round(window.Days()))
	if days <= 0 {
		days = settings.WindowDays
	}

	snap := schema.DORASnapshot{
		Window:     window,
		WindowDays: days,
	}

	times, source := c.deploys.Deploys(r, window)
	snap.DeploySource = source
	if days > 0 {
		snap.DeploymentFrequency = float64(len(times)) / float64(days)
	}
	snap.DeploymentsHistory = dailyCounts(times)

	snap.LeadTimeHours, snap.LeadTimeHistory = leadTimes(r.PullRequests, window)
	snap.ChangeFailureRate, snap.FailureSource = c.failures.FailureRate(r, window, len(times))
	snap.MTTRMinutes = mttr(r.Issues, window, c.failures, settings.DefaultMTTRMinutes)
	return snap
}

func narrow(window schema.TimeWindow, days int) schema.TimeWindow {
	if window.End.IsZero() {
		window.End = time.Now()
	}
	if window.Start.IsZero() {
		return schema.TrailingWindow(window.End, days)
	}
	return window
}

func dailyCounts(times []time.Time) []schema.DayCount {
	counts := make(map[string]int)
	for _, t := range times {
		counts[t.UTC().Format(dateLayout)]++
	}
	out := make([]schema.DayCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, schema.DayCount{Day: d, Count: n})
	}
	slices.SortFunc(out, func(a, b schema.DayCount) int { return cmp.Compare(a.Day, b.Day) })
	return out
}

// leadTimes returns the mean hours from creation to merge, overall and per merge date.
func leadTimes(prs []schema.RawPullRequest, window schema.TimeWindow) (float64, []schema.LeadTimePoint) {
	type acc struct {
		sum float64
		n   int
	}
	perDay := make(map[string]*acc)
	var total acc
	for _, pr := range prs {
		if !pr.IsMerged() {
			continue
		}
		merged := pr.MergeTime()
		if !window.Contains(merged) {
			continue
		}
		h := merged.Sub(pr.CreatedAt).Hours()
		total.sum += h
		total.n++
		d := merged.UTC().Format(dateLayout)
		if perDay[d] == nil {
			perDay[d] = &acc{}
		}
		perDay[d].sum += h
		perDay[d].n++
	}

	history := make([]schema.LeadTimePoint, 0, len(perDay))
	for d, a := range perDay {
		history = append(history, schema.LeadTimePoint{Date: d, Hours: a.sum / float64(a.n)})
	}
	slices.SortFunc(history, func(a, b schema.LeadTimePoint) int { return cmp.Compare(a.Date, b.Date) })

	if total.n == 0 {
		return 0, history
	}
	return total.sum / float64(total.n), history
}

// mttr is the mean minutes to close incidents closed in the window, or fallback if none were.
func mttr(issues []schema.RawIssue, window schema.TimeWindow, h FailureHeuristic, fallback float64) float64 {
	var sum float64
	var n int
	for _, is := range issues {
		if is.ClosedAt == nil || !window.Contains(*is.ClosedAt) || !h.IsIncident(is) {
			continue
		}
		sum += is.ClosedAt.Sub(is.CreatedAt).Minutes()
		n++
	}
	if n == 0 {
		return fallback
	}
	return sum / float64(n)
}
