// Package burnout estimates burnout risk from commit timing and message tone.
package burnout

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/gitpulse/core/identity"
	"github.com/huangsam/gitpulse/schema"
)

// Factor descriptions attached to assessments.
const (
	FactorLateNight = "Frequent late-night commits"
	FactorWeekend   = "Weekend work pattern"
	FactorStress    = "Stress signals in commit messages"
)

const maxStressors = 3

type member struct {
	commits []schema.RawCommit
}

// Detect assesses every identity with enough commits in the trailing window before asOf.
// Hours and weekdays are read in each commit's own UTC offset.
func Detect(identities []schema.ContributorIdentity, commits []schema.RawCommit, asOf time.Time, th schema.BurnoutThresholds) schema.BurnoutReport {
	window := schema.TrailingWindow(asOf, th.WindowDays)
	ix := identity.NewIndex(identities)

	members := make([]member, ix.Len())
	for _, c := range commits {
		if !window.Contains(c.Timestamp) {
			continue
		}
		for _, i := range ix.CommitOwners(c) {
			members[i].commits = append(members[i].commits, c)
		}
	}

	report := schema.BurnoutReport{Window: window, Members: []schema.BurnoutAssessment{}}
	for i, id := range ix.Identities() {
		if len(members[i].commits) < th.MinCommits {
			continue
		}
		report.Members = append(report.Members, assess(id, members[i].commits, th))
	}
	if len(report.Members) == 0 {
		return report
	}

	var total float64
	for _, m := range report.Members {
		total += m.RiskScore
	}
	report.OverallRisk = math.Round(total / float64(len(report.Members)))

	slices.SortFunc(report.Members, func(a, b schema.BurnoutAssessment) int {
		if c := cmp.Compare(b.RiskScore, a.RiskScore); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.IdentityKey, b.IdentityKey)
	})
	return report
}

func assess(id schema.ContributorIdentity, commits []schema.RawCommit, th schema.BurnoutThresholds) schema.BurnoutAssessment {
	slices.SortFunc(commits, func(a, b schema.RawCommit) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	var late, weekend, stressed int
	stressors := []string{}
	for _, c := range commits {
		if IsLateNight(c.Timestamp, th) {
			late++
		}
		if IsWeekend(c.Timestamp) {
			weekend++
		}
		if HasStressSignal(c.Message, th.StressKeywords) {
			stressed++
			if len(stressors) < maxStressors {
				stressors = append(stressors, firstLine(c.Message))
			}
		}
	}

	n := float64(len(commits))
	a := schema.BurnoutAssessment{
		IdentityKey:     id.Key,
		Name:            id.DisplayName,
		Avatar:          id.AvatarURL,
		Commits:         len(commits),
		LateNightRatio:  float64(late) / n,
		WeekendRatio:    float64(weekend) / n,
		HasStressSignal: stressed > 0,
		Factors:         []string{},
		RecentStressors: stressors,
		Metrics: schema.BurnoutMetrics{
			LateNight:     int(math.Round(float64(late) / n * 100)),
			Weekend:       int(math.Round(float64(weekend) / n * 100)),
			StressCommits: stressed,
		},
	}
	a.RiskScore = RiskScore(a.LateNightRatio, a.WeekendRatio, a.HasStressSignal, th)
	a.Status = Classify(a.RiskScore, th)

	if a.LateNightRatio > th.LowRatio {
		a.Factors = append(a.Factors, FactorLateNight)
	}
	if a.WeekendRatio > th.LowRatio {
		a.Factors = append(a.Factors, FactorWeekend)
	}
	if a.HasStressSignal {
		a.Factors = append(a.Factors, FactorStress)
	}
	return a
}

// RiskScore combines the late-night ratio, weekend ratio and stress flag into a 0-100 score.
func RiskScore(lateRatio, weekendRatio float64, stress bool, th schema.BurnoutThresholds) float64 {
	var risk float64
	switch {
	case lateRatio > th.HighRatio:
		risk += th.LateHighPoints
	case lateRatio > th.LowRatio:
		risk += th.LateLowPoints
	}
	switch {
	case weekendRatio > th.HighRatio:
		risk += th.WeekHighPoints
	case weekendRatio > th.LowRatio:
		risk += th.WeekLowPoints
	}
	if stress {
		risk += th.StressPoints
	}
	return math.Min(risk, 100)
}

// Classify maps a risk score to a status.
func Classify(risk float64, th schema.BurnoutThresholds) schema.BurnoutStatus {
	switch {
	case risk > th.CriticalAbove:
		return schema.Critical
	case risk > th.WarningAbove:
		return schema.Warning
	default:
		return schema.Healthy
	}
}

// IsLateNight reports whether t falls between LateStartHour and LateEndHour on its own clock.
func IsLateNight(t time.Time, th schema.BurnoutThresholds) bool {
	h := t.Hour()
	return h >= th.LateStartHour || h < th.LateEndHour
}

// IsWeekend reports whether t falls on a Saturday or Sunday on its own clock.
func IsWeekend(t time.Time) bool {
	d := t.Weekday()
	return d == time.Saturday || d == time.Sunday
}

// HasStressSignal reports whether the message contains any keyword, ignoring case.
func HasStressSignal(msg string, keywords []string) bool {
	lower := strings.ToLower(msg)
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func firstLine(msg string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(msg), "\n")
	return strings.TrimSpace(line)
}
