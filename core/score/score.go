// Package score derives leaderboard scores from contribution counts.
package score

import (
	"cmp"
	"math"
	"slices"

	"github.com/huangsam/gitpulse/schema"
)

// Engine computes score snapshots with a fixed set of weights.
type Engine struct {
	Weights schema.ScoreWeights
}

// NewEngine returns an engine with the default weights.
func NewEngine() Engine {
	return Engine{Weights: schema.DefaultScoreWeights()}
}

// Compute derives the scores of one identity over a window of windowDays.
// Quality, effort, velocity and consistency are bounded to [0,100].
func (e Engine) Compute(c schema.ContributionCounts, windowDays float64) schema.ScoreSnapshot {
	w := e.Weights
	lines := c.LinesChanged()

	performance := float64(c.Commits)*w.Commit +
		float64(c.PRsMerged)*w.MergedPR +
		float64(c.ReviewsGiven)*w.Review +
		float64(lines)*w.Line

	mergeRate := float64(c.PRsMerged) / float64(max(c.PRsCreated, 1)) * 100
	approvalRate := float64(c.ReviewsApproved) / float64(max(c.ReviewsGiven, 1)) * 100
	quality := clamp100(mergeRate*w.MergeRate + approvalRate*w.ApprovalRate)

	effort := clamp100(
		ratioCap(float64(c.Commits), w.EffortCommitCap)*w.EffortCommitPoints +
			ratioCap(float64(c.PRsCreated), w.EffortPRCap)*w.EffortPRPoints +
			ratioCap(float64(lines), w.EffortLineCap)*w.EffortLinePoints)

	var perWeek, velocity float64
	if weeks := windowDays / 7; weeks > 0 {
		perWeek = float64(c.Commits) / weeks
		if w.VelocityCommitsPerWeek > 0 {
			velocity = clamp100(perWeek / w.VelocityCommitsPerWeek * 100)
		}
	}

	return schema.ScoreSnapshot{
		Performance:    performance,
		CodeQuality:    quality,
		Effort:         effort,
		Velocity:       velocity,
		Consistency:    clamp100(velocity * w.ConsistencyFactor),
		MergeRate:      mergeRate,
		ApprovalRate:   approvalRate,
		CodeVolume:     lines,
		CommitsPerWeek: perWeek,
	}
}

// ComputeAll scores every identity in counts.
func (e Engine) ComputeAll(counts map[string]schema.ContributionCounts, windowDays float64) map[string]schema.ScoreSnapshot {
	out := make(map[string]schema.ScoreSnapshot, len(counts))
	for key, c := range counts {
		s := e.Compute(c, windowDays)
		s.IdentityKey = key
		out[key] = s
	}
	return out
}

// BestPerformer returns the key with the highest performance.
// Ties go to the smallest key. An empty input yields false.
func BestPerformer(scores map[string]schema.ScoreSnapshot) (string, bool) {
	best, found := "", false
	var top float64
	for key, s := range scores {
		if !found || s.Performance > top || (s.Performance == top && key < best) {
			best, top, found = key, s.Performance, true
		}
	}
	return best, found
}

// Rank orders keys by performance descending, then key ascending.
func Rank(scores map[string]schema.ScoreSnapshot) []string {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(scores[b].Performance, scores[a].Performance); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return keys
}

func ratioCap(v, ceiling float64) float64 {
	if ceiling <= 0 {
		return 0
	}
	return math.Min(v/ceiling, 1)
}

func clamp100(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
