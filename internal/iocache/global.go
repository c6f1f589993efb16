package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/gitpulse/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManagerImpl{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager with separate record and snapshot stores.
// An empty backend leaves the matching store unset.
func InitStores(recordBackend schema.DatabaseBackend, recordConnStr string, snapshotBackend schema.DatabaseBackend, snapshotConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var recordStore *RecordStoreImpl
		if recordBackend != "" {
			store, err := NewRecordStore(recordBackend, recordConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize record store: %w", err)
				return
			}
			recordStore = store
		}

		var snapshotStore *SnapshotStoreImpl
		if snapshotBackend != "" {
			store, err := NewSnapshotStore(snapshotBackend, snapshotConnStr)
			if err != nil {
				if recordStore != nil {
					_ = recordStore.Close()
				}
				initErr = fmt.Errorf("failed to initialize snapshot store: %w", err)
				return
			}
			snapshotStore = store
		}

		Manager.Lock()
		defer Manager.Unlock()
		if recordStore != nil {
			Manager.records = recordStore
		}
		if snapshotStore != nil {
			Manager.snapshots = snapshotStore
		}
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.records != nil {
			_ = Manager.records.Close()
		}
		if Manager.snapshots != nil {
			_ = Manager.snapshots.Close()
		}
	})
}

// ClearRecords removes all raw records for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the record tables.
func ClearRecords(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	tables := make([]string, len(recordTables))
	for i, t := range recordTables {
		tables[i] = t.name
	}
	return clearBackend(backend, dbFilePath, connStr, tables)
}

// ClearSnapshots removes all archived snapshots for the specified backend.
// SQL backends also drop the migration version table so the next open migrates again.
func ClearSnapshots(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearBackend(backend, dbFilePath, connStr, []string{identityScoresTable, snapshotsTable, "schema_migrations"})
}

func clearBackend(backend schema.DatabaseBackend, dbFilePath, connStr string, tables []string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		driver, _ := driverName(backend)
		for _, table := range tables {
			if err := clearSQLTable(driver, connStr, quoteTableName(table, backend)); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("%w for clearing: %s", ErrUnsupportedBackend, backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(driverName, connStr, tableName string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}

	return nil
}
