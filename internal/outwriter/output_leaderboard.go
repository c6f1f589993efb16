package outwriter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// WriteLeaderboard outputs the ranked team analysis in the configured format.
func WriteLeaderboard(a schema.TeamAnalysis, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)
	return dispatch(cfg, "leaderboard", renderers{
		json: func(w io.Writer) error { return writeJSON(w, a) },
		csv:  func(w io.Writer) error { return writeLeaderboardCSV(w, a, fmtFloat) },
		text: func(w io.Writer) error { return writeLeaderboardTable(w, a, cfg, fmtFloat, duration) },
	})
}

func writeLeaderboardTable(w io.Writer, a schema.TeamAnalysis, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	nameWidth := getMaxTableTextWidth(cfg, 90)
	data := make([][]string, 0, len(a.Entries))
	for _, e := range a.Entries {
		name := truncateText(identityName(e.Identity), nameWidth)
		if e.IsBestPerformer {
			name = "★ " + name
		}
		data = append(data, []string{
			itoa(e.Rank),
			name,
			fmtFloat(e.Scores.Performance),
			fmtFloat(e.Scores.CodeQuality),
			fmtFloat(e.Scores.Effort),
			fmtFloat(e.Scores.Velocity),
			fmtFloat(e.Scores.Consistency),
			itoa(e.Counts.Commits),
			itoa(e.Counts.PRsMerged),
			itoa(e.Counts.ReviewsGiven),
			itoa(e.Scores.CodeVolume),
		})
	}
	headers := []string{"Rank", "Contributor", "Perf", "Quality", "Effort", "Velocity", "Consistency", "Commits", "Merged", "Reviews", "Lines"}
	if err := renderTable(w, headers, data); err != nil {
		return err
	}

	for _, e := range a.Entries {
		if len(e.Strengths) == 0 && len(e.ImprovementAreas) == 0 {
			continue
		}
		var parts []string
		for _, s := range e.Strengths {
			parts = append(parts, "+ "+s)
		}
		for _, s := range e.ImprovementAreas {
			parts = append(parts, "- "+s)
		}
		if _, err := fmt.Fprintf(w, "  %s: %s\n", identityName(e.Identity), strings.Join(parts, "; ")); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Window: %s days\n", fmtFloat(a.WindowDays)); err != nil {
		return err
	}
	return writeFooter(w, cfg, "contributors", len(a.Entries), duration)
}

func writeLeaderboardCSV(w io.Writer, a schema.TeamAnalysis, fmtFloat func(float64) string) error {
	rows := make([][]string, 0, len(a.Entries))
	for _, e := range a.Entries {
		rows = append(rows, []string{
			itoa(e.Rank),
			e.Identity.Key,
			identityName(e.Identity),
			fmtFloat(e.Scores.Performance),
			fmtFloat(e.Scores.CodeQuality),
			fmtFloat(e.Scores.Effort),
			fmtFloat(e.Scores.Velocity),
			fmtFloat(e.Scores.Consistency),
			fmtFloat(e.Scores.MergeRate),
			fmtFloat(e.Scores.ApprovalRate),
			fmtFloat(e.Scores.CommitsPerWeek),
			itoa(e.Counts.Commits),
			itoa(e.Counts.PRsMerged),
			itoa(e.Counts.ReviewsGiven),
			itoa(e.Scores.CodeVolume),
			fmt.Sprintf("%t", e.IsBestPerformer),
			strings.Join(e.Strengths, "|"),
			strings.Join(e.ImprovementAreas, "|"),
		})
	}
	header := []string{"rank", "key", "name", "performance", "code_quality", "effort", "velocity", "consistency",
		"merge_rate", "approval_rate", "commits_per_week", "commits", "prs_merged", "reviews_given", "lines_changed",
		"best_performer", "strengths", "improvement_areas"}
	return writeCSVRows(w, header, rows)
}
