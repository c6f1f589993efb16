package outwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// WriteCapacity outputs the team capacity forecast in the configured format.
func WriteCapacity(s schema.CapacitySnapshot, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)
	return dispatch(cfg, "capacity", renderers{
		json: func(w io.Writer) error { return writeJSON(w, s) },
		csv:  func(w io.Writer) error { return writeCapacityCSV(w, s, fmtFloat) },
		text: func(w io.Writer) error { return writeCapacityTable(w, s, cfg, fmtFloat, duration) },
	})
}

func writeCapacitySummary(w io.Writer, s schema.CapacitySnapshot, cfg *contract.Config, fmtFloat func(float64) string) error {
	_, err := fmt.Fprintf(w, "Capacity score: %s | Sprint risk: %s | Active members: %d | Avg velocity: %s commits/day | Predicted sprint output: %s commits\n",
		fmtFloat(s.TotalCapacityScore), statusLabel(string(s.SprintRisk), cfg), s.ActiveMembersCount,
		fmtFloat(s.AverageVelocity), fmtFloat(s.PredictedSprintOutput))
	return err
}

func writeCapacityTable(w io.Writer, s schema.CapacitySnapshot, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if err := writeCapacitySummary(w, s, cfg, fmtFloat); err != nil {
		return err
	}
	nameWidth := getMaxTableTextWidth(cfg, 45)
	data := make([][]string, 0, len(s.MemberLoads))
	for _, m := range s.MemberLoads {
		data = append(data, []string{
			truncateText(m.Username, nameWidth),
			itoa(m.Commits),
			fmt.Sprintf("%.2f", m.Velocity),
			statusLabel(string(m.Status), cfg),
		})
	}
	if err := renderTable(w, []string{"Contributor", "Commits", "Velocity", "Status"}, data); err != nil {
		return err
	}
	return writeFooter(w, cfg, "members", len(s.MemberLoads), duration)
}

func writeCapacityCSV(w io.Writer, s schema.CapacitySnapshot, fmtFloat func(float64) string) error {
	rows := make([][]string, 0, len(s.MemberLoads))
	for _, m := range s.MemberLoads {
		rows = append(rows, []string{
			m.IdentityKey,
			m.Username,
			itoa(m.Commits),
			fmt.Sprintf("%.4f", m.Velocity),
			string(m.Status),
			fmtFloat(s.TotalCapacityScore),
			string(s.SprintRisk),
		})
	}
	return writeCSVRows(w, []string{"key", "username", "commits", "velocity", "status", "team_capacity_score", "sprint_risk"}, rows)
}
