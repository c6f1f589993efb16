package core

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/internal/promexport"
	"github.com/huangsam/gitpulse/schema"
	"github.com/sirupsen/logrus"
)

// publication is one computed result on its way to the snapshot store and the metrics file.
type publication struct {
	metric  schema.MetricType
	window  schema.TimeWindow
	payload any
	scores  []schema.IdentityScoreRecord
	observe func(*promexport.Exporter)
}

func leaderboardPublication(scope schema.Scope, a schema.TeamAnalysis) publication {
	return publication{
		metric:  schema.LeaderboardMetric,
		window:  a.Window,
		payload: a,
		scores:  identityScores(a),
		observe: func(e *promexport.Exporter) { e.ObserveLeaderboard(scope, a) },
	}
}

func capacityPublication(scope schema.Scope, window schema.TimeWindow, c schema.CapacitySnapshot) publication {
	return publication{
		metric:  schema.CapacityMetric,
		window:  window,
		payload: c,
		observe: func(e *promexport.Exporter) { e.ObserveCapacity(scope, c) },
	}
}

func burnoutPublication(scope schema.Scope, b schema.BurnoutReport) publication {
	return publication{
		metric:  schema.BurnoutMetric,
		window:  b.Window,
		payload: b,
		observe: func(e *promexport.Exporter) { e.ObserveBurnout(scope, b) },
	}
}

func doraPublication(scope schema.Scope, d schema.DORASnapshot) publication {
	return publication{
		metric:  schema.DORAMetric,
		window:  d.Window,
		payload: d,
		observe: func(e *promexport.Exporter) { e.ObserveDORA(scope, d) },
	}
}

func bottleneckPublication(scope schema.Scope, window schema.TimeWindow, r schema.BottleneckReport) publication {
	return publication{
		metric:  schema.BottleneckMetric,
		window:  window,
		payload: r,
		observe: func(e *promexport.Exporter) { e.ObserveBottlenecks(scope, r) },
	}
}

// reportPublications splits a combined report into its five archived metrics.
func reportPublications(a *Analysis, r schema.TeamReport) []publication {
	return []publication{
		leaderboardPublication(r.Scope, r.Leaderboard),
		capacityPublication(r.Scope, a.CapacityWindow(), r.Capacity),
		burnoutPublication(r.Scope, r.Burnout),
		doraPublication(r.Scope, r.DORA),
		bottleneckPublication(r.Scope, schema.TimeWindow{End: r.AsOf}, r.Bottlenecks),
	}
}

// publish archives the results when --archive is set and writes the metrics file when one is configured.
// Results are published whole; the result limit only applies to rendering.
func publish(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, scope schema.Scope, pubs ...publication) error {
	if cfg.Archive {
		store := mgr.GetSnapshotStore()
		if store == nil {
			return fmt.Errorf("--archive is set but the snapshot store is not initialized")
		}
		ctx = withComputedAt(ctx, getComputedAt(ctx))
		for _, p := range pubs {
			id, err := archiveSnapshot(ctx, store, scope, p)
			if err != nil {
				return err
			}
			contract.Logger.WithFields(logrus.Fields{"metric": p.metric, "snapshot_id": id}).Debug("Archived snapshot")
		}
	}

	if cfg.MetricsFile != "" {
		exporter := promexport.New()
		for _, p := range pubs {
			p.observe(exporter)
		}
		if err := exporter.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
		contract.Logger.WithField("path", cfg.MetricsFile).Debug("Wrote metrics file")
	}
	return nil
}

// archiveSnapshot appends one result to the snapshot store and returns its id.
func archiveSnapshot(ctx context.Context, store contract.SnapshotStore, scope schema.Scope, p publication) (int64, error) {
	payload, err := json.Marshal(p.payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s snapshot: %w", p.metric, err)
	}
	rec := schema.SnapshotRecord{
		ScopeID:    scope.ID(),
		MetricType: p.metric,
		ComputedAt: getComputedAt(ctx),
		Payload:    string(payload),
		Scores:     p.scores,
	}
	if start := p.window.Start; !start.IsZero() {
		rec.WindowStart = &start
	}
	if end := p.window.End; !end.IsZero() {
		rec.WindowEnd = &end
	}
	id, err := store.RecordSnapshot(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("failed to archive %s snapshot: %w", p.metric, err)
	}
	return id, nil
}

// identityScores flattens leaderboard entries into archived per-identity rows.
func identityScores(a schema.TeamAnalysis) []schema.IdentityScoreRecord {
	rows := make([]schema.IdentityScoreRecord, 0, len(a.Entries))
	for _, e := range a.Entries {
		rows = append(rows, schema.IdentityScoreRecord{
			IdentityKey:      e.Identity.Key,
			DisplayName:      e.Identity.DisplayName,
			Commits:          toInt32(e.Counts.Commits),
			PRsMerged:        toInt32(e.Counts.PRsMerged),
			ReviewsGiven:     toInt32(e.Counts.ReviewsGiven),
			LinesChanged:     toInt32(e.Counts.LinesChanged()),
			Performance:      e.Scores.Performance,
			CodeQuality:      e.Scores.CodeQuality,
			Effort:           e.Scores.Effort,
			Velocity:         e.Scores.Velocity,
			Consistency:      e.Scores.Consistency,
			IsBestPerformer:  e.IsBestPerformer,
			Strengths:        strings.Join(e.Strengths, ";"),
			ImprovementAreas: strings.Join(e.ImprovementAreas, ";"),
		})
	}
	return rows
}

func toInt32(v int) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(v)
}
