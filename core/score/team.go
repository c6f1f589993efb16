package score

import "github.com/huangsam/gitpulse/schema"

// Team analysis labels.
const (
	StrengthMergeRate    = "Excellent PR merge rate"
	StrengthReviewer     = "Active code reviewer"
	StrengthTopPerformer = "Top team performer"

	ImproveMergeRate = "PR merge rate needs improvement"
	ImproveReviews   = "Increase code review participation"
	ImproveCommits   = "Boost commit frequency"
)

// AnalyzeTeam ranks identities and labels each with strengths and improvement areas.
// Entries follow Rank order and are numbered from 1.
func (e Engine) AnalyzeTeam(identities []schema.ContributorIdentity, counts map[string]schema.ContributionCounts, window schema.TimeWindow, windowDays float64) schema.TeamAnalysis {
	byKey := make(map[string]schema.ContributorIdentity, len(identities))
	for _, id := range identities {
		byKey[id.Key] = id
	}

	scores := e.ComputeAll(counts, windowDays)
	best, _ := BestPerformer(scores)

	analysis := schema.TeamAnalysis{
		Window:        window,
		WindowDays:    windowDays,
		BestPerformer: best,
		Entries:       make([]schema.TeamEntry, 0, len(scores)),
	}
	for i, key := range Rank(scores) {
		s, c := scores[key], counts[key]
		entry := schema.TeamEntry{
			Rank:             i + 1,
			Identity:         byKey[key],
			Counts:           c,
			Scores:           s,
			IsBestPerformer:  key == best,
			Strengths:        []string{},
			ImprovementAreas: []string{},
		}
		if entry.Identity.Key == "" {
			entry.Identity.Key = key
		}

		if s.MergeRate < 60 {
			entry.ImprovementAreas = append(entry.ImprovementAreas, ImproveMergeRate)
		}
		if c.ReviewsGiven < 5 {
			entry.ImprovementAreas = append(entry.ImprovementAreas, ImproveReviews)
		}
		if s.CommitsPerWeek < 2 {
			entry.ImprovementAreas = append(entry.ImprovementAreas, ImproveCommits)
		}

		if s.MergeRate >= 80 {
			entry.Strengths = append(entry.Strengths, StrengthMergeRate)
		}
		if c.ReviewsGiven >= 10 {
			entry.Strengths = append(entry.Strengths, StrengthReviewer)
		}
		if entry.IsBestPerformer {
			entry.Strengths = append(entry.Strengths, StrengthTopPerformer)
		}
		analysis.Entries = append(analysis.Entries, entry)
	}
	return analysis
}
