package core

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/huangsam/gitpulse/core/agg"
	"github.com/huangsam/gitpulse/core/bottleneck"
	"github.com/huangsam/gitpulse/core/burnout"
	"github.com/huangsam/gitpulse/core/capacity"
	"github.com/huangsam/gitpulse/core/dora"
	"github.com/huangsam/gitpulse/core/identity"
	"github.com/huangsam/gitpulse/core/score"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
	"github.com/sirupsen/logrus"
)

// errNoRecordStore is returned when the store manager has no record store.
var errNoRecordStore = errors.New("record store is not initialized")

// Analysis is the loaded state of one request: the dataset of the scope and
// the identities resolved from it. Every component reads the same identities.
type Analysis struct {
	cfg        *contract.Config
	Scope      schema.Scope
	AsOf       time.Time
	Data       *schema.Dataset
	Identities []schema.ContributorIdentity
}

// loadWindow covers the analysis window and the trailing windows of the
// capacity, burnout and DORA components.
func loadWindow(cfg *contract.Config) schema.TimeWindow {
	asOf := cfg.AsOf()
	start := cfg.StartTime
	if start.IsZero() {
		return schema.TimeWindow{End: asOf}
	}
	for _, days := range []int{cfg.Capacity.WindowDays, cfg.Burnout.WindowDays, cfg.DORA.WindowDays} {
		if s := asOf.Add(-time.Duration(days) * schema.Day); s.Before(start) {
			start = s
		}
	}
	return schema.TimeWindow{Start: start, End: asOf}
}

// resolveScope returns the configured scope, or every repository with stored records.
func resolveScope(ctx context.Context, cfg *contract.Config, src contract.DataSource) (schema.Scope, error) {
	if len(cfg.Scope) > 0 {
		return cfg.Scope, nil
	}
	repos, err := src.RepoIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	return schema.Scope(repos), nil
}

// LoadDataset reads every record of the scope that the components need.
// Reviews are read without a lower bound so that open PRs keep their full review history.
func LoadDataset(ctx context.Context, src contract.DataSource, scope schema.Scope, window schema.TimeWindow) (*schema.Dataset, error) {
	q := schema.RecordQuery{RepoIDs: scope, Window: window}
	ds := &schema.Dataset{}
	var err error

	if ds.Commits, err = src.Commits(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to load commits: %w", err)
	}
	if ds.PullRequests, err = src.PullRequests(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to load pull requests: %w", err)
	}
	reviewQuery := schema.RecordQuery{RepoIDs: scope, Window: schema.TimeWindow{End: window.End}}
	if ds.Reviews, err = src.Reviews(ctx, reviewQuery); err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	if ds.Issues, err = src.Issues(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to load issues: %w", err)
	}
	if ds.Deployments, err = src.Deployments(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to load deployments: %w", err)
	}
	if ds.Users, err = src.Users(ctx); err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return ds, nil
}

// NewAnalysis loads the dataset of the configured scope and resolves identities once.
// An empty scope yields an empty analysis whose components all return zero values.
func NewAnalysis(ctx context.Context, cfg *contract.Config, src contract.DataSource) (*Analysis, error) {
	scope, err := resolveScope(ctx, cfg, src)
	if err != nil {
		return nil, err
	}
	a := &Analysis{cfg: cfg, Scope: scope, AsOf: cfg.AsOf(), Data: &schema.Dataset{}}
	if len(scope) == 0 {
		contract.Logger.Warn("No repositories in scope. Run a sync or pass --repos")
		return a, nil
	}

	window := loadWindow(cfg)
	if a.Data, err = LoadDataset(ctx, src, scope, window); err != nil {
		return nil, err
	}
	a.Identities = identity.Resolve(scopedCommits(a.Data.Commits, scope), a.Data.Users)

	contract.Logger.WithFields(logrus.Fields{
		"scope":      scope.ID(),
		"commits":    len(a.Data.Commits),
		"pulls":      len(a.Data.PullRequests),
		"identities": len(a.Identities),
	}).Debug("Loaded dataset")
	return a, nil
}

// newAnalysisFromManager builds an Analysis on the manager's record store.
func newAnalysisFromManager(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*Analysis, error) {
	store := mgr.GetRecordStore()
	if store == nil {
		return nil, errNoRecordStore
	}
	return NewAnalysis(ctx, cfg, store)
}

func scopedCommits(commits []schema.RawCommit, scope schema.Scope) []schema.RawCommit {
	out := make([]schema.RawCommit, 0, len(commits))
	for _, c := range commits {
		if scope.Contains(c.RepoID) {
			out = append(out, c)
		}
	}
	return out
}

func scopedPullRequests(prs []schema.RawPullRequest, scope schema.Scope) []schema.RawPullRequest {
	out := make([]schema.RawPullRequest, 0, len(prs))
	for _, pr := range prs {
		if scope.Contains(pr.RepoID) {
			out = append(out, pr)
		}
	}
	return out
}

func scopedReviews(reviews []schema.RawReview, scope schema.Scope) []schema.RawReview {
	out := make([]schema.RawReview, 0, len(reviews))
	for _, r := range reviews {
		if scope.Contains(r.RepoID) {
			out = append(out, r)
		}
	}
	return out
}

// Contributions returns the non-zero counts of every identity over the analysis window,
// most commits first.
func (a *Analysis) Contributions() []schema.ContributionRow {
	counts := agg.Aggregate(a.Identities, a.Data, a.Scope, a.cfg.Window())
	return contributionRows(a.Identities, counts)
}

func contributionRows(identities []schema.ContributorIdentity, counts map[string]schema.ContributionCounts) []schema.ContributionRow {
	rows := []schema.ContributionRow{}
	for _, id := range identities {
		c := counts[id.Key]
		if c.IsZero() {
			continue
		}
		rows = append(rows, schema.ContributionRow{Identity: id, Counts: c})
	}
	slices.SortFunc(rows, func(x, y schema.ContributionRow) int {
		if c := cmp.Compare(y.Counts.Commits, x.Counts.Commits); c != 0 {
			return c
		}
		if c := cmp.Compare(y.Counts.LinesChanged(), x.Counts.LinesChanged()); c != 0 {
			return c
		}
		return cmp.Compare(x.Identity.Key, y.Identity.Key)
	})
	return rows
}

// Leaderboard scores and ranks every identity over the analysis window.
func (a *Analysis) Leaderboard() schema.TeamAnalysis {
	window := a.cfg.Window()
	counts := agg.Aggregate(a.Identities, a.Data, a.Scope, window)
	days := agg.EffectiveDays(window, agg.Earliest(a.Data, a.Scope), a.AsOf)
	engine := score.Engine{Weights: a.cfg.Weights}
	return engine.AnalyzeTeam(a.Identities, counts, window, days)
}

// CapacityWindow is the trailing window the capacity plan is measured over.
func (a *Analysis) CapacityWindow() schema.TimeWindow {
	return schema.TrailingWindow(a.AsOf, a.cfg.Capacity.WindowDays)
}

// Capacity classifies member load over the trailing capacity window.
func (a *Analysis) Capacity() schema.CapacitySnapshot {
	counts := agg.Aggregate(a.Identities, a.Data, a.Scope, a.CapacityWindow())
	return capacity.Plan(a.Identities, agg.CommitCounts(counts), a.cfg.Capacity)
}

// Burnout assesses every resolved identity over the trailing burnout window.
func (a *Analysis) Burnout() schema.BurnoutReport {
	return burnout.Detect(a.Identities, scopedCommits(a.Data.Commits, a.Scope), a.AsOf, a.cfg.Burnout)
}

// DORAWindow is the analysis window, or the trailing DORA window when the analysis is unbounded.
func (a *Analysis) DORAWindow() schema.TimeWindow {
	window := a.cfg.Window()
	if window.Start.IsZero() {
		return schema.TrailingWindow(a.AsOf, a.cfg.DORA.WindowDays)
	}
	return window
}

// DORA computes the four delivery metrics.
func (a *Analysis) DORA() schema.DORASnapshot {
	return dora.Compute(dora.Filter(a.Data, a.Scope), a.DORAWindow(), a.cfg.DORA)
}

// Bottlenecks flags open pull requests that are stuck, idle or churning.
func (a *Analysis) Bottlenecks() schema.BottleneckReport {
	return bottleneck.Detect(scopedPullRequests(a.Data.PullRequests, a.Scope), scopedReviews(a.Data.Reviews, a.Scope), a.AsOf, a.cfg.Bottleneck)
}

// Report runs every component on the same dataset.
func (a *Analysis) Report() schema.TeamReport {
	return schema.TeamReport{
		Scope:       a.Scope,
		AsOf:        a.AsOf,
		Identities:  len(a.Identities),
		Leaderboard: a.Leaderboard(),
		Capacity:    a.Capacity(),
		Burnout:     a.Burnout(),
		DORA:        a.DORA(),
		Bottlenecks: a.Bottlenecks(),
	}
}

// StreamContributions aggregates an unbounded window without holding every commit.
// Commits are walked twice: once to resolve identities and once to bucket them.
func StreamContributions(ctx context.Context, cfg *contract.Config, src contract.DataSource, walker contract.CommitWalker) ([]schema.ContributionRow, error) {
	scope, err := resolveScope(ctx, cfg, src)
	if err != nil {
		return nil, err
	}
	if len(scope) == 0 {
		return []schema.ContributionRow{}, nil
	}
	window := cfg.Window()
	q := schema.RecordQuery{RepoIDs: scope, Window: window}

	pairs := identity.NewPairCounter()
	if err := walker.WalkCommits(ctx, q, func(c schema.RawCommit) error {
		pairs.Add(c)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to walk commits: %w", err)
	}
	users, err := src.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	identities := identity.ResolvePairs(pairs.Pairs(), users)

	buckets := agg.NewBuckets(identities, scope).Within(window)
	if err := walker.WalkCommits(ctx, q, func(c schema.RawCommit) error {
		buckets.AddCommit(c)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to walk commits: %w", err)
	}
	prs, err := src.PullRequests(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load pull requests: %w", err)
	}
	for _, pr := range prs {
		buckets.AddPullRequest(pr)
	}
	reviews, err := src.Reviews(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	for _, r := range reviews {
		buckets.AddReview(r)
	}

	contract.Logger.WithFields(logrus.Fields{"scope": scope.ID(), "days": buckets.Len()}).Debug("Bucketed contributions")
	return contributionRows(identities, buckets.Sum(window)), nil
}

// limitSlice keeps the first n items.
func limitSlice[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
