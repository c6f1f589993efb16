package contract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/gitpulse/schema"
	"github.com/sirupsen/logrus"
)

// Default values for configuration.
const (
	DefaultWindowDays  = 90
	DefaultResultLimit = 25
	MaxResultLimit     = 1000
	DefaultPrecision   = 1
	DefaultRateLimit   = 10.0
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// GitHubConfig holds the settings for GitHub ingestion.
type GitHubConfig struct {
	Token       string // Please use env var as this is plaintext
	BaseURL     string // Set for GitHub Enterprise
	CommitStats bool   // Fetch per-commit additions and deletions
	RateLimit   float64
}

// ScoreWeightsRaw holds the optional score weight overrides from the YAML config file.
type ScoreWeightsRaw struct {
	Commit             *float64 `mapstructure:"commit"`
	MergedPR           *float64 `mapstructure:"merged_pr"`
	Review             *float64 `mapstructure:"review"`
	Line               *float64 `mapstructure:"line"`
	MergeRate          *float64 `mapstructure:"merge_rate"`
	ApprovalRate       *float64 `mapstructure:"approval_rate"`
	EffortCommitCap    *float64 `mapstructure:"effort_commit_cap"`
	EffortPRCap        *float64 `mapstructure:"effort_pr_cap"`
	EffortLineCap      *float64 `mapstructure:"effort_line_cap"`
	VelocityPerWeek    *float64 `mapstructure:"velocity_commits_per_week"`
	ConsistencyFactor  *float64 `mapstructure:"consistency_factor"`
	EffortCommitPoints *float64 `mapstructure:"effort_commit_points"`
	EffortPRPoints     *float64 `mapstructure:"effort_pr_points"`
	EffortLinePoints   *float64 `mapstructure:"effort_line_points"`
}

// CapacityRaw holds the optional capacity overrides from the YAML config file.
type CapacityRaw struct {
	WindowDays     *int     `mapstructure:"window_days"`
	OverloadFactor *float64 `mapstructure:"overload_factor"`
	UnderFactor    *float64 `mapstructure:"under_factor"`
	SprintDays     *float64 `mapstructure:"sprint_days"`
}

// BurnoutRaw holds the optional burnout overrides from the YAML config file.
type BurnoutRaw struct {
	WindowDays     *int     `mapstructure:"window_days"`
	MinCommits     *int     `mapstructure:"min_commits"`
	CriticalAbove  *float64 `mapstructure:"critical_above"`
	WarningAbove   *float64 `mapstructure:"warning_above"`
	StressKeywords []string `mapstructure:"stress_keywords"`
}

// DORARaw holds the optional DORA overrides from the YAML config file.
type DORARaw struct {
	WindowDays         *int     `mapstructure:"window_days"`
	DefaultMTTRMinutes *float64 `mapstructure:"default_mttr_minutes"`
	BugKeywords        []string `mapstructure:"bug_keywords"`
}

// BottleneckRaw holds the optional bottleneck overrides from the YAML config file.
type BottleneckRaw struct {
	StuckDays    *float64 `mapstructure:"stuck_days"`
	InactiveDays *float64 `mapstructure:"inactive_days"`
	ChurnReviews *int     `mapstructure:"churn_reviews"`
}

// Config holds the runtime configuration for a request.
// This struct remains the "final, validated" config.
type Config struct {
	Scope     schema.Scope
	StartTime time.Time // zero when AllTime is set
	EndTime   time.Time
	AllTime   bool

	ResultLimit int
	Workers     int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool
	LogLevel    logrus.Level

	RecordBackend   schema.DatabaseBackend
	RecordDBConnect string // Please use env var as this is plaintext

	SnapshotBackend   schema.DatabaseBackend
	SnapshotDBConnect string // Please use env var as this is plaintext

	Archive     bool   // Append every computed report to the snapshot store
	MetricsFile string // Prometheus textfile output, empty to disable

	RepoPath string
	RepoID   string

	GitHub GitHubConfig

	Weights    schema.ScoreWeights
	Capacity   schema.CapacityThresholds
	Burnout    schema.BurnoutThresholds
	DORA       schema.DORASettings
	Bottleneck schema.BottleneckThresholds
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Repos             string `mapstructure:"repos"`
	Start             string `mapstructure:"start"`
	End               string `mapstructure:"end"`
	Window            string `mapstructure:"window"`
	AllTime           bool   `mapstructure:"all-time"`
	Limit             int    `mapstructure:"limit"`
	Workers           int    `mapstructure:"workers"`
	Precision         int    `mapstructure:"precision"`
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	Width             int    `mapstructure:"width"`
	Color             string `mapstructure:"color"`
	LogLevel          string `mapstructure:"log-level"`
	RecordBackend     string `mapstructure:"record-backend"`
	RecordDBConnect   string `mapstructure:"record-db-connect"`
	SnapshotBackend   string `mapstructure:"snapshot-backend"`
	SnapshotDBConnect string `mapstructure:"snapshot-db-connect"`
	Archive           bool   `mapstructure:"archive"`
	MetricsFile       string `mapstructure:"metrics-file"`

	// --- Fields from syncCmd.PersistentFlags() ---
	RepoID      string  `mapstructure:"repo-id"`
	GitHubToken string  `mapstructure:"github-token"`
	GitHubURL   string  `mapstructure:"github-url"`
	CommitStats bool    `mapstructure:"commit-stats"`
	RateLimit   float64 `mapstructure:"rate-limit"`

	// --- Tuning from config file ---
	Weights    ScoreWeightsRaw `mapstructure:"weights"`
	Capacity   CapacityRaw     `mapstructure:"capacity"`
	Burnout    BurnoutRaw      `mapstructure:"burnout"`
	DORA       DORARaw         `mapstructure:"dora"`
	Bottleneck BottleneckRaw   `mapstructure:"bottleneck"`
}

// Window returns the configured analysis window.
func (c *Config) Window() schema.TimeWindow {
	return schema.TimeWindow{Start: c.StartTime, End: c.EndTime}
}

// AsOf returns the reference instant for trailing-window components.
func (c *Config) AsOf() time.Time {
	if c.EndTime.IsZero() {
		return time.Now()
	}
	return c.EndTime
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Scope = slices.Clone(c.Scope)
	clone.Burnout.StressKeywords = slices.Clone(c.Burnout.StressKeywords)
	clone.DORA.BugKeywords = slices.Clone(c.DORA.BugKeywords)
	return &clone
}

// CloneWithTimeWindow creates a copy of the Config and sets the new StartTime and EndTime.
func (c *Config) CloneWithTimeWindow(start time.Time, end time.Time) *Config {
	clone := c.Clone()
	clone.StartTime = start
	clone.EndTime = end
	clone.AllTime = start.IsZero()
	return clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct. The client may be nil when no local clone is involved.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processTimeRange(cfg, input, time.Now()); err != nil {
		return err
	}
	processScope(cfg, input)
	processGitHub(cfg, input)
	if err := processWeights(cfg, input); err != nil {
		return err
	}
	if err := processThresholds(cfg, input); err != nil {
		return err
	}
	if client != nil && input.RepoPathStr != "" {
		if err := resolveRepoPath(ctx, cfg, client, input); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates record and snapshot backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Record Backend Validation ---
	cfg.RecordBackend = schema.DatabaseBackend(strings.ToLower(input.RecordBackend))
	if cfg.RecordBackend == "" {
		cfg.RecordBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RecordBackend]; !ok {
		return fmt.Errorf("invalid record backend '%s'. must be sqlite, mysql, postgresql, none", input.RecordBackend)
	}
	cfg.RecordDBConnect = input.RecordDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RecordBackend, cfg.RecordDBConnect); err != nil {
		return err
	}

	// --- Snapshot Backend Validation ---
	cfg.SnapshotBackend = schema.DatabaseBackend(strings.ToLower(input.SnapshotBackend))
	if cfg.SnapshotBackend == "" {
		cfg.SnapshotBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.SnapshotBackend]; !ok {
		return fmt.Errorf("invalid snapshot backend '%s'. must be sqlite, mysql, postgresql, none", input.SnapshotBackend)
	}
	cfg.SnapshotDBConnect = input.SnapshotDBConnect
	if err := ValidateDatabaseConnectionString(cfg.SnapshotBackend, cfg.SnapshotDBConnect); err != nil {
		return err
	}

	// Records and snapshots must not share a SQLite file
	if cfg.RecordBackend == schema.SQLiteBackend && cfg.SnapshotBackend == schema.SQLiteBackend {
		recordPath := cfg.RecordDBConnect
		if recordPath == "" {
			recordPath = GetRecordDBFilePath()
		}
		snapshotPath := cfg.SnapshotDBConnect
		if snapshotPath == "" {
			snapshotPath = GetSnapshotDBFilePath()
		}
		if recordPath == snapshotPath {
			return fmt.Errorf("record and snapshot storage must use different SQLite database files. Both resolve to %q", recordPath)
		}
	}

	if cfg.Archive && cfg.SnapshotBackend == schema.NoneBackend {
		return fmt.Errorf("--archive needs a snapshot backend other than %s", schema.NoneBackend)
	}
	return nil
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Archive = input.Archive
	cfg.MetricsFile = strings.TrimSpace(input.MetricsFile)

	cfg.UseColors = true
	if input.Color != "" {
		colors, err := ParseBoolString(input.Color)
		if err != nil {
			return fmt.Errorf("invalid --color value: %w", err)
		}
		cfg.UseColors = colors
	}

	// --- 1. ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", cfg.Output)
	}

	// --- 4. Log Level Validation ---
	cfg.LogLevel = logrus.InfoLevel
	if input.LogLevel != "" {
		level, err := logrus.ParseLevel(input.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level '%s': %w", input.LogLevel, err)
		}
		cfg.LogLevel = level
	}
	return nil
}

// processTimeRange handles the date parsing and time range validation.
// Precedence for the start is --all-time, then --start, then --window, then the default window.
func processTimeRange(cfg *Config, input *ConfigRawInput, now time.Time) error {
	parseAbsoluteOrRelative := func(s, which string) (time.Time, error) {
		t, err := time.Parse(DateTimeFormat, s)
		if err == nil {
			return t, nil
		}
		t, relErr := ParseRelativeTime(s, now)
		if relErr != nil {
			return time.Time{}, fmt.Errorf("invalid %s date format for '%s'. Expected absolute ISO8601 or 'N [units] ago': %v", which, s, err)
		}
		return t, nil
	}

	// --- Process End Time ---
	cfg.EndTime = now
	if input.End != "" {
		t, err := parseAbsoluteOrRelative(input.End, "end")
		if err != nil {
			return err
		}
		cfg.EndTime = t
	}

	// --- Process Start Time ---
	cfg.AllTime = input.AllTime
	switch {
	case input.AllTime:
		if input.Start != "" || input.Window != "" {
			return fmt.Errorf("--all-time cannot be combined with --start or --window")
		}
		cfg.StartTime = time.Time{}
	case input.Start != "":
		if input.Window != "" {
			return fmt.Errorf("--start and --window cannot be used together")
		}
		t, err := parseAbsoluteOrRelative(input.Start, "start")
		if err != nil {
			return err
		}
		cfg.StartTime = t
	case input.Window != "":
		lookback, err := ParseLookbackDuration(input.Window)
		if err != nil {
			return fmt.Errorf("invalid window: %w", err)
		}
		cfg.StartTime = cfg.EndTime.Add(-lookback)
	default:
		cfg.StartTime = cfg.EndTime.Add(-DefaultWindowDays * schema.Day)
	}

	// --- Final Validation ---
	if !cfg.StartTime.IsZero() && !cfg.StartTime.Before(cfg.EndTime) {
		return fmt.Errorf("start time (%s) must be before end time (%s)", cfg.StartTime.Format(DateTimeFormat), cfg.EndTime.Format(DateTimeFormat))
	}
	return nil
}

// processScope splits the comma separated repository list, dropping blanks and duplicates.
func processScope(cfg *Config, input *ConfigRawInput) {
	cfg.Scope = ParseScope(input.Repos)
}

// ParseScope converts "org/a, org/b" into a Scope, keeping first-seen order.
func ParseScope(s string) schema.Scope {
	var scope schema.Scope
	for p := range strings.SplitSeq(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" && !slices.Contains(scope, p) {
			scope = append(scope, p)
		}
	}
	return scope
}

func processGitHub(cfg *Config, input *ConfigRawInput) {
	cfg.GitHub = GitHubConfig{
		Token:       input.GitHubToken,
		BaseURL:     strings.TrimSpace(input.GitHubURL),
		CommitStats: input.CommitStats,
		RateLimit:   input.RateLimit,
	}
	if cfg.GitHub.RateLimit <= 0 {
		cfg.GitHub.RateLimit = DefaultRateLimit
	}
	cfg.RepoID = strings.TrimSpace(input.RepoID)
}

// overrideFloat copies an optional override into dst, rejecting negative values.
func overrideFloat(dst *float64, src *float64, name string) error {
	if src == nil {
		return nil
	}
	if *src < 0 {
		return fmt.Errorf("%s must not be negative (received %.3f)", name, *src)
	}
	*dst = *src
	return nil
}

// overrideInt copies an optional override into dst, requiring a positive value.
func overrideInt(dst *int, src *int, name string) error {
	if src == nil {
		return nil
	}
	if *src <= 0 {
		return fmt.Errorf("%s must be greater than 0 (received %d)", name, *src)
	}
	*dst = *src
	return nil
}

// ProcessWeightsRawInput merges the raw overrides onto the default score weights.
func ProcessWeightsRawInput(raw ScoreWeightsRaw) (schema.ScoreWeights, error) {
	w := schema.DefaultScoreWeights()
	overrides := []struct {
		dst  *float64
		src  *float64
		name string
	}{
		{&w.Commit, raw.Commit, "weights.commit"},
		{&w.MergedPR, raw.MergedPR, "weights.merged_pr"},
		{&w.Review, raw.Review, "weights.review"},
		{&w.Line, raw.Line, "weights.line"},
		{&w.MergeRate, raw.MergeRate, "weights.merge_rate"},
		{&w.ApprovalRate, raw.ApprovalRate, "weights.approval_rate"},
		{&w.EffortCommitCap, raw.EffortCommitCap, "weights.effort_commit_cap"},
		{&w.EffortPRCap, raw.EffortPRCap, "weights.effort_pr_cap"},
		{&w.EffortLineCap, raw.EffortLineCap, "weights.effort_line_cap"},
		{&w.EffortCommitPoints, raw.EffortCommitPoints, "weights.effort_commit_points"},
		{&w.EffortPRPoints, raw.EffortPRPoints, "weights.effort_pr_points"},
		{&w.EffortLinePoints, raw.EffortLinePoints, "weights.effort_line_points"},
		{&w.VelocityCommitsPerWeek, raw.VelocityPerWeek, "weights.velocity_commits_per_week"},
		{&w.ConsistencyFactor, raw.ConsistencyFactor, "weights.consistency_factor"},
	}
	for _, o := range overrides {
		if err := overrideFloat(o.dst, o.src, o.name); err != nil {
			return schema.ScoreWeights{}, err
		}
	}

	if sum := w.MergeRate + w.ApprovalRate; sum < 0.999 || sum > 1.001 {
		return schema.ScoreWeights{}, fmt.Errorf("weights.merge_rate and weights.approval_rate must sum to 1.0, got %.3f", sum)
	}
	return w, nil
}

func processWeights(cfg *Config, input *ConfigRawInput) error {
	w, err := ProcessWeightsRawInput(input.Weights)
	if err != nil {
		return err
	}
	cfg.Weights = w
	return nil
}

// processThresholds merges the component overrides onto their defaults.
func processThresholds(cfg *Config, input *ConfigRawInput) error {
	cfg.Capacity = schema.DefaultCapacityThresholds()
	cfg.Burnout = schema.DefaultBurnoutThresholds()
	cfg.DORA = schema.DefaultDORASettings()
	cfg.Bottleneck = schema.DefaultBottleneckThresholds()

	c, b, d, bn := input.Capacity, input.Burnout, input.DORA, input.Bottleneck
	errs := []error{
		overrideInt(&cfg.Capacity.WindowDays, c.WindowDays, "capacity.window_days"),
		overrideFloat(&cfg.Capacity.OverloadFactor, c.OverloadFactor, "capacity.overload_factor"),
		overrideFloat(&cfg.Capacity.UnderFactor, c.UnderFactor, "capacity.under_factor"),
		overrideFloat(&cfg.Capacity.SprintDays, c.SprintDays, "capacity.sprint_days"),
		overrideInt(&cfg.Burnout.WindowDays, b.WindowDays, "burnout.window_days"),
		overrideInt(&cfg.Burnout.MinCommits, b.MinCommits, "burnout.min_commits"),
		overrideFloat(&cfg.Burnout.CriticalAbove, b.CriticalAbove, "burnout.critical_above"),
		overrideFloat(&cfg.Burnout.WarningAbove, b.WarningAbove, "burnout.warning_above"),
		overrideInt(&cfg.DORA.WindowDays, d.WindowDays, "dora.window_days"),
		overrideFloat(&cfg.DORA.DefaultMTTRMinutes, d.DefaultMTTRMinutes, "dora.default_mttr_minutes"),
		overrideFloat(&cfg.Bottleneck.StuckDays, bn.StuckDays, "bottleneck.stuck_days"),
		overrideFloat(&cfg.Bottleneck.InactiveDays, bn.InactiveDays, "bottleneck.inactive_days"),
		overrideInt(&cfg.Bottleneck.ChurnReviews, bn.ChurnReviews, "bottleneck.churn_reviews"),
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	if len(b.StressKeywords) > 0 {
		cfg.Burnout.StressKeywords = b.StressKeywords
	}
	if len(d.BugKeywords) > 0 {
		cfg.DORA.BugKeywords = d.BugKeywords
	}
	if cfg.Burnout.WarningAbove > cfg.Burnout.CriticalAbove {
		return fmt.Errorf("burnout.warning_above (%.1f) cannot exceed burnout.critical_above (%.1f)", cfg.Burnout.WarningAbove, cfg.Burnout.CriticalAbove)
	}
	return nil
}

// resolveRepoPath resolves the Git repository root of the positional path.
func resolveRepoPath(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	absSearchPath, err := filepath.Abs(input.RepoPathStr)
	if err != nil {
		return err
	}
	absSearchPath = filepath.Clean(absSearchPath)

	gitContextPath := absSearchPath
	if info, statErr := os.Stat(absSearchPath); statErr == nil && !info.IsDir() {
		gitContextPath = filepath.Dir(absSearchPath)
	}

	gitRoot, err := client.GetRepoRoot(ctx, gitContextPath)
	if err != nil {
		return err
	}
	cfg.RepoPath = gitRoot
	return nil
}
