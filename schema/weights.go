package schema

// ScoreWeights are the tunable weights and caps of the score formulas.
type ScoreWeights struct {
	// performance = commits*Commit + merged*MergedPR + reviews*Review + lines*Line
	Commit   float64 `json:"commit"`
	MergedPR float64 `json:"merged_pr"`
	Review   float64 `json:"review"`
	Line     float64 `json:"line"`

	// quality = mergeRate*MergeRate + approvalRate*ApprovalRate
	MergeRate    float64 `json:"merge_rate"`
	ApprovalRate float64 `json:"approval_rate"`

	// effort caps are tuned for a 90-day window
	EffortCommitCap    float64 `json:"effort_commit_cap"`
	EffortPRCap        float64 `json:"effort_pr_cap"`
	EffortLineCap      float64 `json:"effort_line_cap"`
	EffortCommitPoints float64 `json:"effort_commit_points"`
	EffortPRPoints     float64 `json:"effort_pr_points"`
	EffortLinePoints   float64 `json:"effort_line_points"`

	VelocityCommitsPerWeek float64 `json:"velocity_commits_per_week"`
	ConsistencyFactor      float64 `json:"consistency_factor"`
}

// DefaultScoreWeights returns the stock score weights.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Commit:                 1.0,
		MergedPR:               3.0,
		Review:                 2.0,
		Line:                   0.001,
		MergeRate:              0.6,
		ApprovalRate:           0.4,
		EffortCommitCap:        50,
		EffortPRCap:            20,
		EffortLineCap:          5000,
		EffortCommitPoints:     40,
		EffortPRPoints:         30,
		EffortLinePoints:       30,
		VelocityCommitsPerWeek: 5,
		ConsistencyFactor:      0.9,
	}
}

// CapacityThresholds drive the capacity classification.
type CapacityThresholds struct {
	WindowDays     int     `json:"window_days"`
	OverloadFactor float64 `json:"overload_factor"`
	OverloadFloor  float64 `json:"overload_floor"`
	UnderFactor    float64 `json:"under_factor"`
	SprintDays     float64 `json:"sprint_days"`
	MinActive      int     `json:"min_active"`
	MinAvgVelocity float64 `json:"min_avg_velocity"`
}

// DefaultCapacityThresholds returns the stock capacity thresholds.
func DefaultCapacityThresholds() CapacityThresholds {
	return CapacityThresholds{
		WindowDays:     30,
		OverloadFactor: 1.5,
		OverloadFloor:  0.5,
		UnderFactor:    0.5,
		SprintDays:     14,
		MinActive:      2,
		MinAvgVelocity: 0.1,
	}
}

// BurnoutThresholds drive the burnout risk score.
type BurnoutThresholds struct {
	WindowDays     int      `json:"window_days"`
	MinCommits     int      `json:"min_commits"`
	LateStartHour  int      `json:"late_start_hour"`
	LateEndHour    int      `json:"late_end_hour"`
	HighRatio      float64  `json:"high_ratio"`
	LowRatio       float64  `json:"low_ratio"`
	LateHighPoints float64  `json:"late_high_points"`
	LateLowPoints  float64  `json:"late_low_points"`
	WeekHighPoints float64  `json:"weekend_high_points"`
	WeekLowPoints  float64  `json:"weekend_low_points"`
	StressPoints   float64  `json:"stress_points"`
	CriticalAbove  float64  `json:"critical_above"`
	WarningAbove   float64  `json:"warning_above"`
	StressKeywords []string `json:"stress_keywords"`
}

// DefaultBurnoutThresholds returns the stock burnout thresholds.
func DefaultBurnoutThresholds() BurnoutThresholds {
	return BurnoutThresholds{
		WindowDays:     30,
		MinCommits:     5,
		LateStartHour:  22,
		LateEndHour:    5,
		HighRatio:      0.3,
		LowRatio:       0.1,
		LateHighPoints: 40,
		LateLowPoints:  20,
		WeekHighPoints: 30,
		WeekLowPoints:  15,
		StressPoints:   20,
		CriticalAbove:  70,
		WarningAbove:   30,
		StressKeywords: []string{"wtf", "urgent", "damn", "hack", "broken", "fail", "stupid"},
	}
}

// DORASettings configure the delivery metrics.
type DORASettings struct {
	WindowDays         int      `json:"window_days"`
	DefaultMTTRMinutes float64  `json:"default_mttr_minutes"`
	BugKeywords        []string `json:"bug_keywords"`
}

// DefaultDORASettings returns the stock DORA settings.
func DefaultDORASettings() DORASettings {
	return DORASettings{
		WindowDays:         30,
		DefaultMTTRMinutes: 60,
		BugKeywords:        []string{"bug", "hotfix", "incident", "outage", "crash", "regression", "defect"},
	}
}

// BottleneckThresholds drive the open pull request rules.
type BottleneckThresholds struct {
	StuckDays    float64 `json:"stuck_days"`
	InactiveDays float64 `json:"inactive_days"`
	ChurnReviews int     `json:"churn_reviews"`
}

// DefaultBottleneckThresholds returns the stock bottleneck thresholds.
func DefaultBottleneckThresholds() BottleneckThresholds {
	return BottleneckThresholds{
		StuckDays:    7,
		InactiveDays: 3,
		ChurnReviews: 5,
	}
}
