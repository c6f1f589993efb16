package capacity

import (
	"testing"

	"github.com/huangsam/gitpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idents(keys ...string) []schema.ContributorIdentity {
	out := make([]schema.ContributorIdentity, 0, len(keys))
	for _, k := range keys {
		out = append(out, schema.ContributorIdentity{Key: k, DisplayName: k})
	}
	return out
}

func TestPlan(t *testing.T) {
	th := schema.DefaultCapacityThresholds()

	t.Run("mixed team", func(t *testing.T) {
		ids := idents("a", "b", "c", "d")
		got := Plan(ids, map[string]int{"a": 60, "b": 15, "c": 3, "d": 0}, th)

		assert.Equal(t, 3, got.ActiveMembersCount)
		// velocities 2.0, 0.5, 0.1 with average 0.8667
		assert.InDelta(t, 2.6/3, got.AverageVelocity, 1e-9)
		assert.InDelta(t, 2.6*14, got.PredictedSprintOutput, 1e-9)
		assert.Equal(t, schema.LowRisk, got.SprintRisk)
		assert.InDelta(t, 100.0/3, got.TotalCapacityScore, 1e-9)

		require.Len(t, got.MemberLoads, 3)
		assert.Equal(t, "a", got.MemberLoads[0].IdentityKey)
		assert.Equal(t, schema.Overloaded, got.MemberLoads[0].Status)
		assert.Equal(t, schema.Optimal, got.MemberLoads[1].Status)
		assert.Equal(t, schema.Underutilized, got.MemberLoads[2].Status)
	})

	t.Run("overload needs the absolute floor", func(t *testing.T) {
		// 0.4 exceeds 1.5x the average but stays under 0.5 commits per day
		got := Plan(idents("a", "b", "c"), map[string]int{"a": 12, "b": 3, "c": 3}, th)
		require.Len(t, got.MemberLoads, 3)
		assert.Equal(t, schema.Optimal, got.MemberLoads[0].Status)
	})

	t.Run("single member is high risk", func(t *testing.T) {
		got := Plan(idents("solo"), map[string]int{"solo": 30}, th)
		assert.Equal(t, schema.HighRisk, got.SprintRisk)
		assert.Equal(t, 1, got.ActiveMembersCount)
		assert.InDelta(t, 100.0, got.TotalCapacityScore, 1e-9)
	})

	t.Run("slow team is high risk", func(t *testing.T) {
		got := Plan(idents("a", "b"), map[string]int{"a": 2, "b": 2}, th)
		assert.Equal(t, schema.HighRisk, got.SprintRisk)
	})

	t.Run("ties sort by key", func(t *testing.T) {
		got := Plan(idents("z", "m", "a"), map[string]int{"z": 9, "m": 9, "a": 9}, th)
		keys := []string{got.MemberLoads[0].IdentityKey, got.MemberLoads[1].IdentityKey, got.MemberLoads[2].IdentityKey}
		assert.Equal(t, []string{"a", "m", "z"}, keys)
	})
}

func TestPlanEmpty(t *testing.T) {
	got := Plan(nil, nil, schema.DefaultCapacityThresholds())
	assert.Zero(t, got.ActiveMembersCount)
	assert.Zero(t, got.TotalCapacityScore)
	assert.Zero(t, got.AverageVelocity)
	assert.Equal(t, schema.HighRisk, got.SprintRisk)
	assert.Empty(t, got.MemberLoads)
}

// TestPlanNeverMedium checks that no input produces the medium risk level.
func TestPlanNeverMedium(t *testing.T) {
	th := schema.DefaultCapacityThresholds()
	for n := range 6 {
		for c := range 40 {
			counts := map[string]int{}
			keys := make([]string, 0, n)
			for i := range n {
				k := string(rune('a' + i))
				keys = append(keys, k)
				counts[k] = c * (i + 1)
			}
			got := Plan(idents(keys...), counts, th)
			assert.NotEqual(t, schema.MediumRisk, got.SprintRisk)
		}
	}
}
