package outwriter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// WriteBurnout outputs the burnout assessment in the configured format.
func WriteBurnout(r schema.BurnoutReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)
	return dispatch(cfg, "burnout", renderers{
		json: func(w io.Writer) error { return writeJSON(w, r) },
		csv:  func(w io.Writer) error { return writeBurnoutCSV(w, r, fmtFloat) },
		text: func(w io.Writer) error { return writeBurnoutTable(w, r, cfg, fmtFloat, duration) },
	})
}

func writeBurnoutTable(w io.Writer, r schema.BurnoutReport, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "Overall burnout risk: %s (%s)\n", fmtFloat(r.OverallRisk), contract.GetPlainLabel(r.OverallRisk)); err != nil {
		return err
	}
	nameWidth := getMaxTableTextWidth(cfg, 85)
	data := make([][]string, 0, len(r.Members))
	for _, m := range r.Members {
		data = append(data, []string{
			truncateText(m.Name, nameWidth),
			itoa(m.Commits),
			fmtFloat(m.RiskScore),
			statusLabel(string(m.Status), cfg),
			fmt.Sprintf("%d%%", m.Metrics.LateNight),
			fmt.Sprintf("%d%%", m.Metrics.Weekend),
			itoa(m.Metrics.StressCommits),
			strings.Join(m.Factors, "; "),
		})
	}
	headers := []string{"Contributor", "Commits", "Risk", "Status", "Late Night", "Weekend", "Stress", "Factors"}
	if err := renderTable(w, headers, data); err != nil {
		return err
	}
	for _, m := range r.Members {
		for _, s := range m.RecentStressors {
			if _, err := fmt.Fprintf(w, "  %s: %q\n", m.Name, s); err != nil {
				return err
			}
		}
	}
	return writeFooter(w, cfg, "members", len(r.Members), duration)
}

func writeBurnoutCSV(w io.Writer, r schema.BurnoutReport, fmtFloat func(float64) string) error {
	rows := make([][]string, 0, len(r.Members))
	for _, m := range r.Members {
		rows = append(rows, []string{
			m.IdentityKey,
			m.Name,
			itoa(m.Commits),
			fmtFloat(m.RiskScore),
			string(m.Status),
			itoa(m.Metrics.LateNight),
			itoa(m.Metrics.Weekend),
			itoa(m.Metrics.StressCommits),
			strings.Join(m.Factors, "|"),
			strings.Join(m.RecentStressors, "|"),
		})
	}
	header := []string{"key", "name", "commits", "risk_score", "status", "late_night_pct", "weekend_pct",
		"stress_commits", "factors", "recent_stressors"}
	return writeCSVRows(w, header, rows)
}
