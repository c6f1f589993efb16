package outwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// WriteBottlenecks outputs the stale-work alerts in the configured format.
func WriteBottlenecks(r schema.BottleneckReport, cfg *contract.Config, duration time.Duration) error {
	return dispatch(cfg, "bottlenecks", renderers{
		json: func(w io.Writer) error { return writeJSON(w, r) },
		csv:  func(w io.Writer) error { return writeBottlenecksCSV(w, r) },
		text: func(w io.Writer) error { return writeBottlenecksTable(w, r, cfg, duration) },
	})
}

func writeBottlenecksTable(w io.Writer, r schema.BottleneckReport, cfg *contract.Config, duration time.Duration) error {
	titleWidth := getMaxTableTextWidth(cfg, 70)
	data := make([][]string, 0, len(r.Alerts))
	for _, a := range r.Alerts {
		data = append(data, []string{
			statusLabel(string(a.Severity), cfg),
			string(a.Type),
			contract.TruncatePath(a.Repository, 30),
			fmt.Sprintf("#%d", a.PRNumber),
			a.CreatedAt.Format("2006-01-02"),
			truncateText(a.Description, titleWidth),
		})
	}
	if err := renderTable(w, []string{"Severity", "Type", "Repository", "PR", "Opened", "Description"}, data); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "High severity: %d | Medium severity: %d\n", r.TotalHighSeverity, r.TotalMediumSeverity); err != nil {
		return err
	}
	return writeFooter(w, cfg, "alerts", len(r.Alerts), duration)
}

func writeBottlenecksCSV(w io.Writer, r schema.BottleneckReport) error {
	rows := make([][]string, 0, len(r.Alerts))
	for _, a := range r.Alerts {
		rows = append(rows, []string{
			a.ID,
			string(a.Type),
			string(a.Severity),
			a.Repository,
			itoa(a.PRNumber),
			a.Title,
			a.Description,
			a.URL,
			a.CreatedAt.Format(contract.DateTimeFormat),
		})
	}
	header := []string{"id", "type", "severity", "repository", "pr_number", "title", "description", "url", "created_at"}
	return writeCSVRows(w, header, rows)
}
