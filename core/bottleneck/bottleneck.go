// Package bottleneck flags open pull requests that are stuck, idle or churning.
package bottleneck

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/gitpulse/schema"
)

type prKey struct {
	repo   string
	number int
}

// AlertID returns the stable id of an alert for one pull request and rule.
func AlertID(repo string, number int, t schema.AlertType) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "%s#%d/%s", repo, number, t)).String()
}

// Detect applies the rules to every open pull request as of asOf.
// A stuck PR gets no other alert. The idle and churn rules are independent.
func Detect(prs []schema.RawPullRequest, reviews []schema.RawReview, asOf time.Time, th schema.BottleneckThresholds) schema.BottleneckReport {
	reviewCounts := make(map[prKey]int)
	for _, r := range reviews {
		reviewCounts[prKey{r.RepoID, r.PRNumber}]++
	}

	report := schema.BottleneckReport{Alerts: []schema.BottleneckAlert{}}
	for _, pr := range prs {
		if pr.State != schema.PROpen {
			continue
		}
		n := reviewCounts[prKey{pr.RepoID, pr.Number}]
		daysOpen := asOf.Sub(pr.CreatedAt).Hours() / 24
		daysIdle := asOf.Sub(pr.UpdatedAt).Hours() / 24

		if daysOpen > th.StuckDays && n == 0 {
			report.Alerts = append(report.Alerts, newAlert(pr, schema.StuckPRAlert, schema.HighSeverity,
				fmt.Sprintf("PR #%d stuck without review", pr.Number),
				fmt.Sprintf("Open for %.0f days with no reviews: %s", daysOpen, pr.Title)))
			continue
		}
		if daysIdle > th.InactiveDays {
			report.Alerts = append(report.Alerts, newAlert(pr, schema.InactiveAlert, schema.MediumSeverity,
				fmt.Sprintf("PR #%d inactive", pr.Number),
				fmt.Sprintf("No updates for %.0f days: %s", daysIdle, pr.Title)))
		}
		if n > th.ChurnReviews {
			report.Alerts = append(report.Alerts, newAlert(pr, schema.HighChurnAlert, schema.MediumSeverity,
				fmt.Sprintf("PR #%d has high review churn", pr.Number),
				fmt.Sprintf("%d review rounds so far: %s", n, pr.Title)))
		}
	}

	slices.SortFunc(report.Alerts, func(a, b schema.BottleneckAlert) int {
		if c := cmp.Compare(schema.SeverityRank(a.Severity), schema.SeverityRank(b.Severity)); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Type, b.Type); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	for _, a := range report.Alerts {
		switch a.Severity {
		case schema.HighSeverity:
			report.TotalHighSeverity++
		case schema.MediumSeverity:
			report.TotalMediumSeverity++
		}
	}
	return report
}

func newAlert(pr schema.RawPullRequest, t schema.AlertType, sev schema.Severity, title, desc string) schema.BottleneckAlert {
	return schema.BottleneckAlert{
		ID:          AlertID(pr.RepoID, pr.Number, t),
		Type:        t,
		Severity:    sev,
		Title:       title,
		Description: desc,
		Repository:  pr.RepoID,
		PRNumber:    pr.Number,
		URL:         pr.URL,
		CreatedAt:   pr.CreatedAt,
	}
}
