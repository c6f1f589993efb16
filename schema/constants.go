package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for records and snapshots.
	DatabaseBackend string

	// MatchKind represents how a git author pair was linked to a registered user.
	MatchKind string

	// LoadStatus represents the capacity classification of a contributor.
	LoadStatus string

	// SprintRisk represents the delivery risk of the next sprint.
	SprintRisk string

	// BurnoutStatus represents the burnout classification of a contributor.
	BurnoutStatus string

	// Severity represents the severity of a bottleneck alert.
	Severity string

	// AlertType represents the rule that produced a bottleneck alert.
	AlertType string

	// MetricType names the kind of snapshot that is archived.
	MetricType string

	// PRState represents the lifecycle state of a pull request.
	PRState string

	// ReviewState represents the verdict of a pull request review.
	ReviewState string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Match kinds in priority order. Lower rank wins.
const (
	MatchNone        MatchKind = ""
	MatchEmail       MatchKind = "email"
	MatchUsername    MatchKind = "username"
	MatchDisplayName MatchKind = "display_name"
)

// Capacity classifications.
const (
	Overloaded    LoadStatus = "Overloaded"
	Optimal       LoadStatus = "Optimal"
	Underutilized LoadStatus = "Underutilized"
)

// Sprint risk levels. MediumRisk is part of the vocabulary but no rule emits it.
const (
	LowRisk    SprintRisk = "Low"
	MediumRisk SprintRisk = "Medium"
	HighRisk   SprintRisk = "High"
)

// Burnout classifications.
const (
	Healthy  BurnoutStatus = "Healthy"
	Warning  BurnoutStatus = "Warning"
	Critical BurnoutStatus = "Critical"
)

// Alert severities.
const (
	HighSeverity   Severity = "high"
	MediumSeverity Severity = "medium"
	LowSeverity    Severity = "low"
)

// Alert types emitted by the bottleneck rules.
const (
	StuckPRAlert   AlertType = "stuck_pr"
	InactiveAlert  AlertType = "inactive"
	HighChurnAlert AlertType = "high_churn"
)

// Metric types that can be archived as snapshots.
const (
	LeaderboardMetric MetricType = "leaderboard"
	CapacityMetric    MetricType = "capacity"
	BurnoutMetric     MetricType = "burnout"
	DORAMetric        MetricType = "dora"
	BottleneckMetric  MetricType = "bottlenecks"
)

// Pull request states.
const (
	PROpen   PRState = "open"
	PRClosed PRState = "closed"
	PRMerged PRState = "merged"
)

// Review states.
const (
	ReviewApproved         ReviewState = "approved"
	ReviewChangesRequested ReviewState = "changes_requested"
	ReviewCommented        ReviewState = "commented"
	ReviewDismissed        ReviewState = "dismissed"
)

// ValidOutputModes lists all valid output modes for reports.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidMetricTypes lists all metric types that can be archived.
var ValidMetricTypes = map[MetricType]struct{}{
	LeaderboardMetric: {},
	CapacityMetric:    {},
	BurnoutMetric:     {},
	DORAMetric:        {},
	BottleneckMetric:  {},
}

// SeverityRank orders severities for sorting. Lower sorts first.
func SeverityRank(s Severity) int {
	switch s {
	case HighSeverity:
		return 0
	case MediumSeverity:
		return 1
	case LowSeverity:
		return 2
	default:
		return 3
	}
}

// MatchRank orders match kinds by priority. Lower wins.
func MatchRank(k MatchKind) int {
	switch k {
	case MatchEmail:
		return 0
	case MatchUsername:
		return 1
	case MatchDisplayName:
		return 2
	default:
		return 3
	}
}
