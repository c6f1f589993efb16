package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/internal/iocache"
	"github.com/huangsam/gitpulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// snapshotBackendConfig reads the snapshot backend settings without the full validation chain.
func snapshotBackendConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backendStr := viper.GetString("snapshot-backend")
	connStr := viper.GetString("snapshot-db-connect")

	// Handle empty backend as NoneBackend
	backend := schema.NoneBackend
	if backendStr != "" {
		backend = schema.DatabaseBackend(backendStr)
	}

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// snapshotSetup loads minimal configuration needed for snapshot operations.
// This is used by commands that need snapshot access without full shared setup.
func snapshotSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := snapshotBackendConfig()
	if err != nil {
		return err
	}

	// Initialize stores with the loaded config (no record store for snapshot commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize snapshots: %w", err)
	}

	cfg.SnapshotBackend = backend
	cfg.SnapshotDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// snapshotMigrateSetup loads the configuration needed for migrate operations.
// It does NOT initialize stores or create tables, so migrations can run on a fresh database.
func snapshotMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := snapshotBackendConfig()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetSnapshotDBFilePath()
	}

	cfg.SnapshotBackend = backend
	cfg.SnapshotDBConnect = connStr
	return nil
}

// snapshotCmd focused on archived metric snapshots.
//
// Note: Snapshot subcommands use minimal initialization instead of the full
// sharedSetup used by the metric commands.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage archived metric snapshots and exports",
	Long: `Manage the metric snapshots written by --archive.

Each archived run stores the full JSON result keyed by scope, metric and
computation time, plus one row of scores per identity for leaderboard runs.
Snapshots are append-only.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show snapshot statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all snapshots
  migrate - Run database schema migrations

Examples:
  # Check snapshot status
  gitpulse snapshot status

  # Export for analysis in pandas/DuckDB
  gitpulse snapshot export --output-file gitpulse-data`,
}

// snapshotClearCmd clears the snapshot data.
var snapshotClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all archived snapshots",
	Long: `Delete all archived snapshots and identity score history.

WARNING: This action cannot be undone. Consider exporting data first.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the snapshot tables

Examples:
  gitpulse snapshot export --output-file backup
  gitpulse snapshot clear`,
	PreRunE: snapshotMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearSnapshots(cfg.SnapshotBackend, cfg.SnapshotDBConnect, cfg.SnapshotDBConnect); err != nil {
			contract.LogFatal("Failed to clear snapshots", err)
		}
		fmt.Println("Snapshots cleared successfully.")
	},
}

// snapshotStatusCmd shows snapshot status.
var snapshotStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display snapshot statistics and connection details",
	Long: `Show the backend, the number of archived snapshots, the first and last
computation times and the table sizes.

Examples:
  gitpulse snapshot status`,
	PreRunE: snapshotSetup,
	Run: func(_ *cobra.Command, _ []string) {
		store := storeManager.GetSnapshotStore()
		if store == nil {
			contract.LogFatal("Failed to get snapshot status", fmt.Errorf("snapshot store is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get snapshot status", err)
		}
		iocache.PrintSnapshotStatus(os.Stdout, status)
	},
}

// snapshotExportCmd exports snapshot data to Parquet files.
var snapshotExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived snapshots to Parquet for BI tools and analytics",
	Long: `Export all archived data to Parquet format for use with analytics tools.

Exports two datasets:
- <output-file>.snapshots.parquet - one row per archived metric result
- <output-file>.identity_scores.parquet - per-identity leaderboard scores

Requires: --output-file parameter

Examples:
  gitpulse snapshot export --output-file gitpulse-data
  duckdb -c "SELECT * FROM read_parquet('gitpulse-data.identity_scores.parquet') LIMIT 10"`,
	PreRunE: snapshotSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteSnapshotExport(os.Stdout, storeManager.GetSnapshotStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export snapshots", err)
		}
	},
}

// snapshotMigrateCmd runs database migrations for the snapshot store.
var snapshotMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the snapshot store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  gitpulse snapshot migrate

  # Rollback to initial state
  gitpulse snapshot migrate --target-version 0`,
	PreRunE: snapshotMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateSnapshots(cfg.SnapshotBackend, cfg.SnapshotDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
