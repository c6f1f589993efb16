package outwriter

import (
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// weightsModel is the JSON shape of the active tuning.
type weightsModel struct {
	Weights    schema.ScoreWeights         `json:"weights"`
	Capacity   schema.CapacityThresholds   `json:"capacity"`
	Burnout    schema.BurnoutThresholds    `json:"burnout"`
	DORA       schema.DORASettings         `json:"dora"`
	Bottleneck schema.BottleneckThresholds `json:"bottleneck"`
}

// WriteWeights displays the active score weights and component thresholds.
// This is a static display that does not read any records.
func WriteWeights(cfg *contract.Config) error {
	model := weightsModel{
		Weights:    cfg.Weights,
		Capacity:   cfg.Capacity,
		Burnout:    cfg.Burnout,
		DORA:       cfg.DORA,
		Bottleneck: cfg.Bottleneck,
	}
	return dispatch(cfg, "weights", renderers{
		json: func(w io.Writer) error { return writeJSON(w, model) },
		csv:  func(w io.Writer) error { return writeCSVRows(w, []string{"section", "setting", "value"}, weightRows(model)) },
		text: func(w io.Writer) error { return writeWeightsText(w, model) },
	})
}

func num(v float64) string {
	return fmt.Sprintf("%g", v)
}

func weightRows(m weightsModel) [][]string {
	w, c, b, d, bn := m.Weights, m.Capacity, m.Burnout, m.DORA, m.Bottleneck
	return [][]string{
		{"performance", "commit", num(w.Commit)},
		{"performance", "merged_pr", num(w.MergedPR)},
		{"performance", "review", num(w.Review)},
		{"performance", "line", num(w.Line)},
		{"quality", "merge_rate", num(w.MergeRate)},
		{"quality", "approval_rate", num(w.ApprovalRate)},
		{"effort", "commit_cap", num(w.EffortCommitCap)},
		{"effort", "pr_cap", num(w.EffortPRCap)},
		{"effort", "line_cap", num(w.EffortLineCap)},
		{"effort", "commit_points", num(w.EffortCommitPoints)},
		{"effort", "pr_points", num(w.EffortPRPoints)},
		{"effort", "line_points", num(w.EffortLinePoints)},
		{"velocity", "commits_per_week", num(w.VelocityCommitsPerWeek)},
		{"consistency", "factor", num(w.ConsistencyFactor)},
		{"capacity", "window_days", itoa(c.WindowDays)},
		{"capacity", "overload_factor", num(c.OverloadFactor)},
		{"capacity", "under_factor", num(c.UnderFactor)},
		{"capacity", "sprint_days", num(c.SprintDays)},
		{"burnout", "window_days", itoa(b.WindowDays)},
		{"burnout", "min_commits", itoa(b.MinCommits)},
		{"burnout", "critical_above", num(b.CriticalAbove)},
		{"burnout", "warning_above", num(b.WarningAbove)},
		{"burnout", "stress_keywords", strings.Join(b.StressKeywords, "|")},
		{"dora", "window_days", itoa(d.WindowDays)},
		{"dora", "default_mttr_minutes", num(d.DefaultMTTRMinutes)},
		{"dora", "bug_keywords", strings.Join(d.BugKeywords, "|")},
		{"bottleneck", "stuck_days", num(bn.StuckDays)},
		{"bottleneck", "inactive_days", num(bn.InactiveDays)},
		{"bottleneck", "churn_reviews", itoa(bn.ChurnReviews)},
	}
}

func writeWeightsText(w io.Writer, m weightsModel) error {
	wt := m.Weights
	lines := []string{
		"🧮 gitpulse scoring",
		"==================",
		"",
		fmt.Sprintf("performance  = %g*commits + %g*merged_prs + %g*reviews + %g*lines", wt.Commit, wt.MergedPR, wt.Review, wt.Line),
		fmt.Sprintf("code_quality = %g*merge_rate + %g*approval_rate", wt.MergeRate, wt.ApprovalRate),
		fmt.Sprintf("effort       = min(commits/%g,1)*%g + min(prs/%g,1)*%g + min(lines/%g,1)*%g",
			wt.EffortCommitCap, wt.EffortCommitPoints, wt.EffortPRCap, wt.EffortPRPoints, wt.EffortLineCap, wt.EffortLinePoints),
		fmt.Sprintf("velocity     = min(commits_per_week/%g,1)*100", wt.VelocityCommitsPerWeek),
		fmt.Sprintf("consistency  = velocity*%g", wt.ConsistencyFactor),
		"",
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return renderTable(w, []string{"Section", "Setting", "Value"}, weightRows(m))
}
