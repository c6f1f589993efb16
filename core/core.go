// Package core has core logic for loading activity, running the team metrics and rendering results.
package core

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/internal/outwriter"
	"github.com/huangsam/gitpulse/schema"
)

// ExecutorFunc defines the function signature for executing different report modes.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// logAnalysisHeader prints a concise, 2-line header for each report on stderr.
func logAnalysisHeader(ctx context.Context, cfg *contract.Config, scope schema.Scope, what string) {
	if shouldSuppressHeader(ctx) {
		return
	}
	repos := strings.Join(scope, ", ")
	if repos == "" {
		repos = "none"
	}
	start := "all time"
	if !cfg.StartTime.IsZero() {
		start = cfg.StartTime.Format(contract.DateTimeFormat)
	}
	fmt.Fprintf(os.Stderr, "🔎 Scope: %s (Report: %s)\n", repos, what)
	fmt.Fprintf(os.Stderr, "📅 Range: %s → %s\n", start, cfg.AsOf().Format(contract.DateTimeFormat))
}

// prepare loads the analysis and prints the header.
func prepare(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, what string) (*Analysis, error) {
	a, err := newAnalysisFromManager(ctx, cfg, mgr)
	if err != nil {
		return nil, err
	}
	logAnalysisHeader(ctx, cfg, a.Scope, what)
	return a, nil
}

// ExecuteIdentities resolves contributor identities and prints them.
func ExecuteIdentities(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	a, err := prepare(ctx, cfg, mgr, "identities")
	if err != nil {
		return err
	}
	return outwriter.WriteIdentities(limitSlice(a.Identities, cfg.ResultLimit), cfg, time.Since(start))
}

// ExecuteContributions prints per-identity activity counts.
// Unbounded windows stream commits when the record store supports it.
func ExecuteContributions(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	rows, err := GetContributionsResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteContributions(rows, cfg, time.Since(start))
}

// ExecuteLeaderboard scores and ranks contributors.
func ExecuteLeaderboard(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	a, err := prepare(ctx, cfg, mgr, "leaderboard")
	if err != nil {
		return err
	}
	result := a.Leaderboard()
	if err := publish(ctx, cfg, mgr, a.Scope, leaderboardPublication(a.Scope, result)); err != nil {
		return err
	}
	return outwriter.WriteLeaderboard(limitLeaderboard(result, cfg.ResultLimit), cfg, time.Since(start))
}

// ExecuteCapacity classifies member load and forecasts the sprint.
func ExecuteCapacity(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	a, err := prepare(ctx, cfg, mgr, "capacity")
	if err != nil {
		return err
	}
	result := a.Capacity()
	if err := publish(ctx, cfg, mgr, a.Scope, capacityPublication(a.Scope, a.CapacityWindow(), result)); err != nil {
		return err
	}
	return outwriter.WriteCapacity(limitCapacity(result, cfg.ResultLimit), cfg, time.Since(start))
}

// ExecuteBurnout assesses burnout risk per contributor.
func ExecuteBurnout(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	a, err := prepare(ctx, cfg, mgr, "burnout")
	if err != nil {
		return err
	}
	result := a.Burnout()
	if err := publish(ctx, cfg, mgr, a.Scope, burnoutPublication(a.Scope, result)); err != nil {
		return err
	}
	return outwriter.WriteBurnout(limitBurnout(result, cfg.ResultLimit), cfg, time.Since(start))
}

// ExecuteDORA computes the delivery metrics.
func ExecuteDORA(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	a, err := prepare(ctx, cfg, mgr, "dora")
	if err != nil {
		return err
	}
	result := a.DORA()
	if err := publish(ctx, cfg, mgr, a.Scope, doraPublication(a.Scope, result)); err != nil {
		return err
	}
	return outwriter.WriteDORA(result, cfg, time.Since(start))
}

// ExecuteBottlenecks lists stuck, idle and churning pull requests.
func ExecuteBottlenecks(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	a, err := prepare(ctx, cfg, mgr, "bottlenecks")
	if err != nil {
		return err
	}
	result := a.Bottlenecks()
	if err := publish(ctx, cfg, mgr, a.Scope, bottleneckPublication(a.Scope, schema.TimeWindow{End: a.AsOf}, result)); err != nil {
		return err
	}
	return outwriter.WriteBottlenecks(limitBottlenecks(result, cfg.ResultLimit), cfg, time.Since(start))
}

// ExecuteReport runs every component on one dataset and prints the combined report.
func ExecuteReport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	a, err := prepare(ctx, cfg, mgr, "report")
	if err != nil {
		return err
	}
	report := a.Report()
	if err := publish(ctx, cfg, mgr, a.Scope, reportPublications(a, report)...); err != nil {
		return err
	}
	return outwriter.WriteReport(limitReport(report, cfg.ResultLimit), cfg, time.Since(start))
}

// ExecuteWeights displays the scoring formulas and the active weights and thresholds.
// This is a static display that does not read any records.
func ExecuteWeights(_ context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	return outwriter.WriteWeights(cfg)
}

// GetIdentitiesResults returns the resolved identities, limited to cfg.ResultLimit.
func GetIdentitiesResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) ([]schema.ContributorIdentity, error) {
	a, err := newAnalysisFromManager(ctx, cfg, mgr)
	if err != nil {
		return nil, err
	}
	return limitSlice(a.Identities, cfg.ResultLimit), nil
}

// GetContributionsResults returns per-identity counts, limited to cfg.ResultLimit.
func GetContributionsResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) ([]schema.ContributionRow, error) {
	store := mgr.GetRecordStore()
	if store == nil {
		return nil, errNoRecordStore
	}
	if cfg.StartTime.IsZero() {
		logAnalysisHeader(ctx, cfg, cfg.Scope, "contributions")
		rows, err := StreamContributions(ctx, cfg, store, store)
		if err != nil {
			return nil, err
		}
		return limitSlice(rows, cfg.ResultLimit), nil
	}
	a, err := prepare(ctx, cfg, mgr, "contributions")
	if err != nil {
		return nil, err
	}
	return limitSlice(a.Contributions(), cfg.ResultLimit), nil
}

// GetLeaderboardResults returns the ranked leaderboard, limited to cfg.ResultLimit.
func GetLeaderboardResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.TeamAnalysis, error) {
	a, err := newAnalysisFromManager(ctx, cfg, mgr)
	if err != nil {
		return schema.TeamAnalysis{}, err
	}
	return limitLeaderboard(a.Leaderboard(), cfg.ResultLimit), nil
}

// GetCapacityResults returns the capacity plan with member loads limited to cfg.ResultLimit.
func GetCapacityResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.CapacitySnapshot, error) {
	a, err := newAnalysisFromManager(ctx, cfg, mgr)
	if err != nil {
		return schema.CapacitySnapshot{}, err
	}
	return limitCapacity(a.Capacity(), cfg.ResultLimit), nil
}

// GetBurnoutResults returns the burnout report with members limited to cfg.ResultLimit.
func GetBurnoutResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.BurnoutReport, error) {
	a, err := newAnalysisFromManager(ctx, cfg, mgr)
	if err != nil {
		return schema.BurnoutReport{}, err
	}
	return limitBurnout(a.Burnout(), cfg.ResultLimit), nil
}

// GetDORAResults returns the DORA snapshot.
func GetDORAResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.DORASnapshot, error) {
	a, err := newAnalysisFromManager(ctx, cfg, mgr)
	if err != nil {
		return schema.DORASnapshot{}, err
	}
	return a.DORA(), nil
}

// GetBottlenecksResults returns the alerts limited to cfg.ResultLimit. Severity totals cover every alert.
func GetBottlenecksResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.BottleneckReport, error) {
	a, err := newAnalysisFromManager(ctx, cfg, mgr)
	if err != nil {
		return schema.BottleneckReport{}, err
	}
	return limitBottlenecks(a.Bottlenecks(), cfg.ResultLimit), nil
}

func limitLeaderboard(a schema.TeamAnalysis, n int) schema.TeamAnalysis {
	a.Entries = limitSlice(a.Entries, n)
	return a
}

func limitCapacity(c schema.CapacitySnapshot, n int) schema.CapacitySnapshot {
	c.MemberLoads = limitSlice(c.MemberLoads, n)
	return c
}

func limitBurnout(b schema.BurnoutReport, n int) schema.BurnoutReport {
	b.Members = limitSlice(b.Members, n)
	return b
}

func limitBottlenecks(r schema.BottleneckReport, n int) schema.BottleneckReport {
	r.Alerts = limitSlice(r.Alerts, n)
	return r
}

func limitReport(r schema.TeamReport, n int) schema.TeamReport {
	r.Leaderboard = limitLeaderboard(r.Leaderboard, n)
	r.Capacity = limitCapacity(r.Capacity, n)
	r.Burnout = limitBurnout(r.Burnout, n)
	r.Bottlenecks = limitBottlenecks(r.Bottlenecks, n)
	return r
}
