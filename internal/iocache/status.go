package iocache

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/huangsam/gitpulse/schema"
)

const statusTimeFormat = "2006-01-02 15:04:05"

// PrintRecordStatus prints record store status information.
func PrintRecordStatus(w io.Writer, status schema.RecordStatus) {
	_, _ = fmt.Fprintf(w, "Record Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Repositories: %d\n", len(status.Repositories))
	if len(status.Repositories) > 0 {
		_, _ = fmt.Fprintf(w, "  %s\n", strings.Join(status.Repositories, "\n  "))
	}
	if !status.LatestCommit.IsZero() {
		_, _ = fmt.Fprintf(w, "Latest Commit: %s\n", status.LatestCommit.Format(statusTimeFormat))
		_, _ = fmt.Fprintf(w, "Oldest Commit: %s\n", status.OldestCommit.Format(statusTimeFormat))
	}
	printTableSizes(w, status.TableSizes)
}

// PrintSnapshotStatus prints snapshot store status information.
func PrintSnapshotStatus(w io.Writer, status schema.SnapshotStatus) {
	_, _ = fmt.Fprintf(w, "Snapshot Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Snapshots: %d\n", status.TotalSnapshots)
	if status.TotalSnapshots > 0 {
		_, _ = fmt.Fprintf(w, "Last Snapshot ID: %d\n", status.LastSnapshotID)
		_, _ = fmt.Fprintf(w, "Last Snapshot: %s\n", status.LastSnapshotTime.Format(statusTimeFormat))
		_, _ = fmt.Fprintf(w, "Oldest Snapshot: %s\n", status.OldestSnapshotTime.Format(statusTimeFormat))
	}
	printTableSizes(w, status.TableSizes)
}

func printTableSizes(w io.Writer, sizes map[string]int64) {
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	for _, table := range slices.Sorted(maps.Keys(sizes)) {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, sizes[table])
	}
}
