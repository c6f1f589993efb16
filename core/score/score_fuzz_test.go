package score

import (
	"testing"

	"github.com/huangsam/gitpulse/schema"
)

// FuzzCompute checks that bounded scores stay within [0,100] for any non-negative counts.
func FuzzCompute(f *testing.F) {
	f.Add(3, 0, 0, 0, 0, 0, 0, 90.0)
	f.Add(0, 0, 0, 0, 0, 0, 0, 0.0)
	f.Add(1000, 99999, 10, 50, 3, 7, 7, 1.0)
	f.Add(5, 10, 0, 0, 100, 0, 1, 0.5)

	e := NewEngine()
	f.Fuzz(func(t *testing.T, commits, lines, created, merged, reviews, approved, _ int, days float64) {
		if commits < 0 || lines < 0 || created < 0 || merged < 0 || reviews < 0 || approved < 0 {
			return
		}
		c := schema.ContributionCounts{
			Commits:         commits,
			Additions:       lines,
			PRsCreated:      created,
			PRsMerged:       merged,
			ReviewsGiven:    reviews,
			ReviewsApproved: min(approved, reviews),
		}
		s := e.Compute(c, days)
		for name, v := range map[string]float64{
			"quality":     s.CodeQuality,
			"effort":      s.Effort,
			"velocity":    s.Velocity,
			"consistency": s.Consistency,
		} {
			if v < 0 || v > 100 {
				t.Fatalf("%s out of bounds: %v", name, v)
			}
		}
		if s.Performance < 0 {
			t.Fatalf("negative performance: %v", s.Performance)
		}
	})
}
