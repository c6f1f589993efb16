// Package cmd defines the command-line interface for gitpulse.
package cmd

import (
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	for _, c := range reportCmds {
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	syncCmd.AddCommand(syncGitHubCmd)
	syncCmd.AddCommand(syncGitCmd)

	usersCmd.AddCommand(usersImportCmd)
	usersCmd.AddCommand(usersListCmd)

	snapshotCmd.AddCommand(snapshotStatusCmd)
	snapshotCmd.AddCommand(snapshotExportCmd)
	snapshotCmd.AddCommand(snapshotClearCmd)
	snapshotCmd.AddCommand(snapshotMigrateCmd)

	recordsCmd.AddCommand(recordsStatusCmd)
	recordsCmd.AddCommand(recordsClearCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("repos", "", "Comma-separated list of repositories (owner/name) in scope")
	rootCmd.PersistentFlags().String("start", "", "Start date in ISO8601 or time ago")
	rootCmd.PersistentFlags().String("end", "", "End date in ISO8601 or time ago")
	rootCmd.PersistentFlags().String("window", "", "Lookback window ending at --end (e.g. '30 days' or 720h)")
	rootCmd.PersistentFlags().Bool("all-time", false, "Analyze every stored record regardless of age")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("record-backend", string(schema.SQLiteBackend), "Record backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("record-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("snapshot-backend", string(schema.SQLiteBackend), "Snapshot backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("snapshot-db-connect", "", "Database connection string for snapshots (must differ from record-db-connect)")
	rootCmd.PersistentFlags().Bool("archive", false, "Append metric results to the snapshot store")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write metric results as Prometheus text exposition to this file")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of the sync commands to Viper
	syncCmd.PersistentFlags().String("github-token", "", "GitHub token (prefer GITPULSE_GITHUB_TOKEN)")
	syncCmd.PersistentFlags().String("github-url", "", "GitHub Enterprise API base URL")
	syncCmd.PersistentFlags().Bool("commit-stats", false, "Fetch additions and deletions for every commit")
	syncCmd.PersistentFlags().Float64("rate-limit", contract.DefaultRateLimit, "Maximum GitHub API requests per second")
	syncCmd.PersistentFlags().String("repo-id", "", "Repository id for git sync (defaults to the origin remote)")
	if err := viper.BindPFlags(syncCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding sync flags", err)
	}

	// Bind all flags of snapshotMigrateCmd to Viper
	snapshotMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(snapshotMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding snapshot migrate flags", err)
	}
}
