package outwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// WriteDORA outputs the delivery metrics in the configured format.
func WriteDORA(s schema.DORASnapshot, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)
	return dispatch(cfg, "dora", renderers{
		json: func(w io.Writer) error { return writeJSON(w, s) },
		csv:  func(w io.Writer) error { return writeCSVRows(w, []string{"metric", "value", "unit", "source"}, doraRows(s, fmtFloat)) },
		text: func(w io.Writer) error { return writeDORATable(w, s, cfg, fmtFloat, duration) },
	})
}

// doraRows lists the four metrics as metric, value, unit, source.
func doraRows(s schema.DORASnapshot, fmtFloat func(float64) string) [][]string {
	return [][]string{
		{"deployment_frequency", fmt.Sprintf("%.3f", s.DeploymentFrequency), "per_day", s.DeploySource},
		{"lead_time", fmtFloat(s.LeadTimeHours), "hours", "merged_prs"},
		{"change_failure_rate", fmtFloat(s.ChangeFailureRate), "percent", s.FailureSource},
		{"mttr", fmtFloat(s.MTTRMinutes), "minutes", "issues"},
	}
}

func writeDORATable(w io.Writer, s schema.DORASnapshot, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "DORA metrics over %d days\n", s.WindowDays); err != nil {
		return err
	}
	if err := renderTable(w, []string{"Metric", "Value", "Unit", "Source"}, doraRows(s, fmtFloat)); err != nil {
		return err
	}

	deploys := 0
	for _, d := range s.DeploymentsHistory {
		deploys += d.Count
	}
	if _, err := fmt.Fprintf(w, "Deploys: %d over %d active days. Lead time samples: %d merge days\n",
		deploys, len(s.DeploymentsHistory), len(s.LeadTimeHistory)); err != nil {
		return err
	}
	return writeFooter(w, cfg, "metrics", 4, duration)
}
