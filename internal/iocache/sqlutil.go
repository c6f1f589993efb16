package iocache

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/gitpulse/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// ErrUnsupportedBackend is returned for a backend outside schema.ValidDatabaseBackends.
var ErrUnsupportedBackend = errors.New("unsupported database backend")

var tableNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName guards table names that are interpolated into queries.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNameRe.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$)", name)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// driverName maps a backend onto its database/sql driver.
func driverName(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedBackend, backend)
	}
}

// openDatabase opens and pings a connection. An empty SQLite connection string means defaultPath.
func openDatabase(backend schema.DatabaseBackend, connStr, defaultPath string) (*sql.DB, error) {
	driver, err := driverName(backend)
	if err != nil {
		return nil, err
	}

	switch backend {
	case schema.SQLiteBackend:
		if connStr == "" {
			connStr = defaultPath
		}
	case schema.MySQLBackend:
		// migration files hold several statements
		cfg, err := mysql.ParseDSN(connStr)
		if err != nil {
			return nil, fmt.Errorf("invalid MySQL connection string: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		}
		cfg.MultiStatements = true
		connStr = cfg.FormatDSN()
	}

	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}
	return db, nil
}

// rebind rewrites '?' placeholders into '$n' for PostgreSQL.
func rebind(backend schema.DatabaseBackend, query string) string {
	if backend != schema.PostgreSQLBackend {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// placeholders returns "?, ?, ?" with n marks.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// upsertQuery returns the backend-specific insert-or-update statement for a row.
func upsertQuery(backend schema.DatabaseBackend, table string, cols, keys []string) string {
	quoted := quoteTableName(table, backend)
	colList := strings.Join(cols, ", ")
	values := placeholders(len(cols))

	var updates []string
	for _, c := range cols {
		if !slices.Contains(keys, c) {
			updates = append(updates, c)
		}
	}

	switch backend {
	case schema.MySQLBackend:
		sets := make([]string, len(updates))
		for i, c := range updates {
			sets[i] = fmt.Sprintf("%s = new.%s", c, c)
		}
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) AS new ON DUPLICATE KEY UPDATE %s", quoted, colList, values, strings.Join(sets, ", "))

	case schema.PostgreSQLBackend:
		sets := make([]string, len(updates))
		for i, c := range updates {
			sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", c, c)
		}
		return rebind(backend, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
			quoted, colList, values, strings.Join(keys, ", "), strings.Join(sets, ", ")))

	default: // SQLite
		return fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)", quoted, colList, values)
	}
}

// unixOrNull stores an optional instant as unix seconds.
func unixOrNull(t *time.Time) sql.NullInt64 {
	if t == nil || t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

// timeOrNil reverses unixOrNull in UTC.
func timeOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

// tableRowCount counts the rows of a table.
func tableRowCount(db *sql.DB, table string, backend schema.DatabaseBackend) (int64, error) {
	var count int64
	row := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, backend)))
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get count for table %s: %w", table, err)
	}
	return count, nil
}
