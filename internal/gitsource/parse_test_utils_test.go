package gitsource

import (
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
)

// gitLogScenario represents a single commit scenario for test data generation.
type gitLogScenario struct {
	sha     string
	name    string
	email   string
	date    time.Time
	subject string
	files   []fileChange
}

// fileChange represents a single numstat line. Negative counts render as "-".
type fileChange struct {
	path      string
	additions int
	deletions int
}

func churn(n int) string {
	if n < 0 {
		return "-"
	}
	return fmt.Sprint(n)
}

// generateTestGitLog creates a programmatic git log fixture in GetContributionLog format.
func generateTestGitLog(scenarios []gitLogScenario) []byte {
	var lines []string
	for _, s := range scenarios {
		lines = append(lines, contract.CommitMarker+strings.Join(
			[]string{s.sha, s.name, s.email, s.date.Format(time.RFC3339), s.subject}, contract.LogFieldSep))
		for _, f := range s.files {
			lines = append(lines, fmt.Sprintf("%s\t%s\t%s", churn(f.additions), churn(f.deletions), f.path))
		}
		lines = append(lines, "") // Empty line between commits
	}
	return []byte(strings.Join(lines, "\n"))
}
