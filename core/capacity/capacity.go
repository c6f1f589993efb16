// Package capacity classifies team workload from recent commit velocity.
package capacity

import (
	"cmp"
	"slices"

	"github.com/huangsam/gitpulse/schema"
)

// Plan classifies every active identity and forecasts the next sprint.
// commits holds per-identity commit counts over the trailing WindowDays.
// Identities without commits are not active and are left out of the loads.
func Plan(identities []schema.ContributorIdentity, commits map[string]int, th schema.CapacityThresholds) schema.CapacitySnapshot {
	days := float64(th.WindowDays)
	if days <= 0 {
		days = 1
	}

	loads := make([]schema.MemberLoad, 0, len(identities))
	var sum float64
	for _, id := range identities {
		n := commits[id.Key]
		v := float64(n) / days
		if v <= 0 {
			continue
		}
		sum += v
		loads = append(loads, schema.MemberLoad{
			IdentityKey: id.Key,
			Username:    memberName(id),
			AvatarURL:   id.AvatarURL,
			Commits:     n,
			Velocity:    v,
		})
	}

	snap := schema.CapacitySnapshot{
		ActiveMembersCount: len(loads),
		SprintRisk:         schema.HighRisk,
		MemberLoads:        loads,
	}
	if len(loads) == 0 {
		return snap
	}

	avg := sum / float64(len(loads))
	optimal := 0
	for i := range loads {
		loads[i].Status = classify(loads[i].Velocity, avg, th)
		if loads[i].Status == schema.Optimal {
			optimal++
		}
	}
	slices.SortFunc(loads, func(a, b schema.MemberLoad) int {
		if c := cmp.Compare(b.Velocity, a.Velocity); c != 0 {
			return c
		}
		return cmp.Compare(a.IdentityKey, b.IdentityKey)
	})

	snap.AverageVelocity = avg
	snap.PredictedSprintOutput = sum * th.SprintDays
	snap.TotalCapacityScore = float64(optimal) / float64(len(loads)) * 100
	if len(loads) >= th.MinActive && avg >= th.MinAvgVelocity {
		snap.SprintRisk = schema.LowRisk
	}
	return snap
}

func classify(v, avg float64, th schema.CapacityThresholds) schema.LoadStatus {
	switch {
	case v > th.OverloadFactor*avg && v > th.OverloadFloor:
		return schema.Overloaded
	case v < th.UnderFactor*avg:
		return schema.Underutilized
	default:
		return schema.Optimal
	}
}

func memberName(id schema.ContributorIdentity) string {
	if id.Username != "" {
		return id.Username
	}
	return id.DisplayName
}
