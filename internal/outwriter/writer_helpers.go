package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	return writeRows(csvWriter)
}

// writeCSVRows writes a header and pre-built rows.
func writeCSVRows(w io.Writer, header []string, rows [][]string) error {
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, row := range rows {
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// createFormatter creates the float formatter shared by every output type.
func createFormatter(precision int) func(float64) string {
	return func(v float64) string {
		return fmt.Sprintf("%.*f", precision, v)
	}
}

// renderers holds the three renditions of one report.
type renderers struct {
	json func(io.Writer) error
	csv  func(io.Writer) error
	text func(io.Writer) error
}

// dispatch writes the report in the configured output format.
func dispatch(cfg *contract.Config, what string, r renderers) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, r.json, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON %s: %w", what, err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, r.csv, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV %s: %w", what, err)
		}
	default:
		return writeWithFile(cfg.OutputFile, r.text, "Wrote table")
	}
	return nil
}

// renderTable writes a right-aligned table with the given headers.
func renderTable(w io.Writer, headers []string, data [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// statusLabel colors a status when colors are enabled.
func statusLabel(status string, cfg *contract.Config) string {
	if cfg.UseColors {
		return contract.GetColorLabel(status)
	}
	return status
}

// identityName picks the most readable name of an identity.
func identityName(id schema.ContributorIdentity) string {
	switch {
	case id.DisplayName != "":
		return id.DisplayName
	case id.Username != "":
		return id.Username
	default:
		return id.Key
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

// truncateText shortens s to maxWidth runes with a trailing ellipsis.
func truncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}

// writeFooter prints the summary line under text tables.
func writeFooter(w io.Writer, cfg *contract.Config, what string, count int, duration time.Duration) error {
	_, err := fmt.Fprintf(w, "Showing %d %s. Computed in %v. Record backend: %s\n", count, what, duration.Round(time.Millisecond), cfg.RecordBackend)
	return err
}
