package schema

import "time"

// ScoreSnapshot holds the derived scores of one identity.
type ScoreSnapshot struct {
	IdentityKey    string  `json:"identity_key"`
	Performance    float64 `json:"performance_score"`
	CodeQuality    float64 `json:"code_quality_score"`
	Effort         float64 `json:"effort_score"`
	Velocity       float64 `json:"velocity_score"`
	Consistency    float64 `json:"consistency_score"`
	MergeRate      float64 `json:"merge_rate"`
	ApprovalRate   float64 `json:"approval_rate"`
	CodeVolume     int     `json:"code_volume"`
	CommitsPerWeek float64 `json:"commits_per_week"`
}

// TeamEntry is one ranked row of a team analysis.
type TeamEntry struct {
	Rank             int                 `json:"rank"`
	Identity         ContributorIdentity `json:"identity"`
	Counts           ContributionCounts  `json:"counts"`
	Scores           ScoreSnapshot       `json:"scores"`
	IsBestPerformer  bool                `json:"is_best_performer"`
	Strengths        []string            `json:"strengths"`
	ImprovementAreas []string            `json:"improvement_areas"`
}

// TeamAnalysis is the leaderboard for one scope and window.
type TeamAnalysis struct {
	Window        TimeWindow  `json:"window"`
	WindowDays    float64     `json:"window_days"`
	BestPerformer string      `json:"best_performer,omitempty"`
	Entries       []TeamEntry `json:"entries"`
}

// MemberLoad is the capacity classification of one identity.
type MemberLoad struct {
	IdentityKey string     `json:"identity_key"`
	Username    string     `json:"username"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	Commits     int        `json:"commits"`
	Velocity    float64    `json:"velocity"`
	Status      LoadStatus `json:"status"`
}

// CapacitySnapshot is the team capacity forecast.
type CapacitySnapshot struct {
	TotalCapacityScore    float64      `json:"total_capacity_score"`
	SprintRisk            SprintRisk   `json:"sprint_risk"`
	ActiveMembersCount    int          `json:"active_members_count"`
	AverageVelocity       float64      `json:"average_velocity"`
	PredictedSprintOutput float64      `json:"predicted_sprint_output"`
	MemberLoads           []MemberLoad `json:"member_loads"`
}

// BurnoutMetrics are the raw signals behind a burnout score.
type BurnoutMetrics struct {
	LateNight     int `json:"lateNight"`
	Weekend       int `json:"weekend"`
	StressCommits int `json:"stressCommits"`
}

// BurnoutAssessment is the burnout risk of one identity.
type BurnoutAssessment struct {
	IdentityKey     string         `json:"identity_key"`
	Name            string         `json:"name"`
	Avatar          string         `json:"avatar,omitempty"`
	Commits         int            `json:"commits"`
	LateNightRatio  float64        `json:"late_night_ratio"`
	WeekendRatio    float64        `json:"weekend_ratio"`
	HasStressSignal bool           `json:"has_stress_signal"`
	RiskScore       float64        `json:"riskScore"`
	Status          BurnoutStatus  `json:"status"`
	Factors         []string       `json:"factors"`
	RecentStressors []string       `json:"recentStressors"`
	Metrics         BurnoutMetrics `json:"metrics"`
}

// BurnoutReport lists assessed identities with the team-level risk.
type BurnoutReport struct {
	Window      TimeWindow          `json:"window"`
	OverallRisk float64             `json:"overallRisk"`
	Members     []BurnoutAssessment `json:"members"`
}

// DayCount is a per-day count.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// LeadTimePoint is the mean lead time of PRs merged on one date.
type LeadTimePoint struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// DORASnapshot holds the four delivery metrics and their history.
type DORASnapshot struct {
	Window              TimeWindow      `json:"window"`
	WindowDays          int             `json:"window_days"`
	DeploymentFrequency float64         `json:"deployment_frequency"`
	LeadTimeHours       float64         `json:"lead_time_hours"`
	ChangeFailureRate   float64         `json:"change_failure_rate"`
	MTTRMinutes         float64         `json:"mttr_minutes"`
	DeploySource        string          `json:"deploy_source"`
	FailureSource       string          `json:"failure_source"`
	DeploymentsHistory  []DayCount      `json:"deployments_history"`
	LeadTimeHistory     []LeadTimePoint `json:"lead_time_history"`
}

// BottleneckAlert flags one open pull request.
type BottleneckAlert struct {
	ID          string    `json:"id"`
	Type        AlertType `json:"type"`
	Severity    Severity  `json:"severity"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Repository  string    `json:"repository"`
	PRNumber    int       `json:"pr_number"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// BottleneckReport lists alerts with per-severity totals.
type BottleneckReport struct {
	Alerts              []BottleneckAlert `json:"alerts"`
	TotalHighSeverity   int               `json:"total_high_severity"`
	TotalMediumSeverity int               `json:"total_medium_severity"`
}

// TeamReport bundles every component computed from one dataset.
type TeamReport struct {
	Scope       Scope            `json:"scope"`
	AsOf        time.Time        `json:"as_of"`
	Identities  int              `json:"identities"`
	Leaderboard TeamAnalysis     `json:"leaderboard"`
	Capacity    CapacitySnapshot `json:"capacity"`
	Burnout     BurnoutReport    `json:"burnout"`
	DORA        DORASnapshot     `json:"dora"`
	Bottlenecks BottleneckReport `json:"bottlenecks"`
}
