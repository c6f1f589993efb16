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

// recordsSetup loads minimal configuration needed for record store operations.
func recordsSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("record-backend"))
	connStr := viper.GetString("record-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.RecordBackend = backend
	cfg.RecordDBConnect = connStr
	return nil
}

// recordsCmd focused on raw record management.
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage the raw activity record store",
	Long: `Manage the record store that holds synced commits, pull requests, reviews,
issues, deployments and registered users.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (in-memory)

Subcommands:
  status - Show record counts and connection info
  clear  - Remove all records

Examples:
  gitpulse records status
  gitpulse records clear`,
}

// recordsClearCmd clears the record store.
var recordsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all synced records",
	Long: `Delete all synced records from the configured backend.

Use this when:
- Repository history was rewritten (rebase, force push)
- Repositories were renamed or removed from scope

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the record tables

Examples:
  # Clear MySQL records (set connection string via env variable)
  GITPULSE_RECORD_BACKEND=mysql GITPULSE_RECORD_DB_CONNECT="..." gitpulse records clear`,
	PreRunE: recordsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := cfg.RecordDBConnect
		if dbFilePath == "" {
			dbFilePath = contract.GetRecordDBFilePath()
		}
		if err := iocache.ClearRecords(cfg.RecordBackend, dbFilePath, cfg.RecordDBConnect); err != nil {
			contract.LogFatal("Failed to clear records", err)
		}
		fmt.Println("Records cleared successfully.")
	},
}

// recordsStatusCmd shows record store status.
var recordsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display record counts and connection details",
	Long: `Show the backend, the synced repositories, the commit time range and the
row count of every record table.

Examples:
  gitpulse records status`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := recordsSetup(cmd, args); err != nil {
			return err
		}
		if err := iocache.InitStores(cfg.RecordBackend, cfg.RecordDBConnect, "", ""); err != nil {
			return fmt.Errorf("failed to initialize record store: %w", err)
		}
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		store := storeManager.GetRecordStore()
		if store == nil {
			contract.LogFatal("Failed to get record status", fmt.Errorf("record store is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get record status", err)
		}
		iocache.PrintRecordStatus(os.Stdout, status)
	},
}
