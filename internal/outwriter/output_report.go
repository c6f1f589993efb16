package outwriter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// WriteReport outputs every component of a team report in the configured format.
// CSV output is a flat summary of section, metric, value rows.
func WriteReport(r schema.TeamReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)
	return dispatch(cfg, "report", renderers{
		json: func(w io.Writer) error { return writeJSON(w, r) },
		csv:  func(w io.Writer) error { return writeCSVRows(w, []string{"section", "metric", "value"}, reportSummaryRows(r, fmtFloat)) },
		text: func(w io.Writer) error { return writeReportText(w, r, cfg, fmtFloat, duration) },
	})
}

func reportSummaryRows(r schema.TeamReport, fmtFloat func(float64) string) [][]string {
	rows := [][]string{
		{"scope", "repositories", strings.Join(r.Scope, "|")},
		{"scope", "as_of", r.AsOf.Format(contract.DateTimeFormat)},
		{"scope", "identities", itoa(r.Identities)},
		{"leaderboard", "contributors", itoa(len(r.Leaderboard.Entries))},
		{"leaderboard", "best_performer", r.Leaderboard.BestPerformer},
		{"capacity", "total_capacity_score", fmtFloat(r.Capacity.TotalCapacityScore)},
		{"capacity", "sprint_risk", string(r.Capacity.SprintRisk)},
		{"capacity", "active_members", itoa(r.Capacity.ActiveMembersCount)},
		{"burnout", "overall_risk", fmtFloat(r.Burnout.OverallRisk)},
		{"burnout", "assessed_members", itoa(len(r.Burnout.Members))},
	}
	for _, d := range doraRows(r.DORA, fmtFloat) {
		rows = append(rows, []string{"dora", d[0], d[1]})
	}
	rows = append(rows,
		[]string{"bottlenecks", "high_severity", itoa(r.Bottlenecks.TotalHighSeverity)},
		[]string{"bottlenecks", "medium_severity", itoa(r.Bottlenecks.TotalMediumSeverity)},
	)
	return rows
}

func writeSection(w io.Writer, title string) error {
	_, err := fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("=", len(title)))
	return err
}

func writeReportText(w io.Writer, r schema.TeamReport, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "📊 Team report for %s as of %s (%d identities)\n",
		strings.Join(r.Scope, ", "), r.AsOf.Format(contract.DateTimeFormat), r.Identities); err != nil {
		return err
	}
	sections := []struct {
		title string
		write func() error
	}{
		{"Leaderboard", func() error { return writeLeaderboardTable(w, r.Leaderboard, cfg, fmtFloat, duration) }},
		{"Capacity", func() error { return writeCapacityTable(w, r.Capacity, cfg, fmtFloat, duration) }},
		{"Burnout", func() error { return writeBurnoutTable(w, r.Burnout, cfg, fmtFloat, duration) }},
		{"DORA", func() error { return writeDORATable(w, r.DORA, cfg, fmtFloat, duration) }},
		{"Bottlenecks", func() error { return writeBottlenecksTable(w, r.Bottlenecks, cfg, duration) }},
	}
	for _, s := range sections {
		if err := writeSection(w, s.title); err != nil {
			return err
		}
		if err := s.write(); err != nil {
			return err
		}
	}
	return nil
}
