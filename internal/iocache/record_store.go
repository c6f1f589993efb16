package iocache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// Table names for raw records.
const (
	commitsTable      = "gitpulse_commits"
	pullRequestsTable = "gitpulse_pull_requests"
	reviewsTable      = "gitpulse_reviews"
	issuesTable       = "gitpulse_issues"
	deploymentsTable  = "gitpulse_deployments"
	usersTable        = "gitpulse_users"
)

type colKind int

const (
	keyCol  colKind = iota // indexed text
	textCol                // free text
	intCol                 // integers and unix seconds
)

type column struct {
	name     string
	kind     colKind
	nullable bool
}

type tableDef struct {
	name string
	cols []column
	keys []string
}

func (t tableDef) colNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.name
	}
	return names
}

// recordTables lists every raw record table with its primary key.
var recordTables = []tableDef{
	{commitsTable, []column{
		{"repo_id", keyCol, false}, {"sha", keyCol, false},
		{"author_name", textCol, false}, {"author_email", textCol, false}, {"message", textCol, false},
		{"committed_at", intCol, false}, {"tz_offset_min", intCol, false},
		{"additions", intCol, false}, {"deletions", intCol, false}, {"files_changed", intCol, false},
	}, []string{"repo_id", "sha"}},
	{pullRequestsTable, []column{
		{"repo_id", keyCol, false}, {"number", intCol, false},
		{"title", textCol, false}, {"author", textCol, false}, {"state", textCol, false}, {"url", textCol, false},
		{"created_at", intCol, false}, {"updated_at", intCol, false},
		{"merged_at", intCol, true}, {"closed_at", intCol, true},
	}, []string{"repo_id", "number"}},
	{reviewsTable, []column{
		{"repo_id", keyCol, false}, {"review_id", intCol, false}, {"pr_number", intCol, false},
		{"reviewer", textCol, false}, {"state", textCol, false}, {"submitted_at", intCol, false},
	}, []string{"repo_id", "review_id"}},
	{issuesTable, []column{
		{"repo_id", keyCol, false}, {"number", intCol, false},
		{"title", textCol, false}, {"labels", textCol, false}, {"state", textCol, false},
		{"created_at", intCol, false}, {"closed_at", intCol, true},
	}, []string{"repo_id", "number"}},
	{deploymentsTable, []column{
		{"repo_id", keyCol, false}, {"deploy_id", intCol, false},
		{"environment", textCol, false}, {"status", textCol, false}, {"created_at", intCol, false},
	}, []string{"repo_id", "deploy_id"}},
	{usersTable, []column{
		{"user_id", intCol, false}, {"username", textCol, false}, {"display_name", textCol, false},
		{"email", textCol, false}, {"avatar_url", textCol, false},
	}, []string{"user_id"}},
}

func tableByName(name string) tableDef {
	for _, t := range recordTables {
		if t.name == name {
			return t
		}
	}
	panic("unknown record table " + name)
}

// getCreateTableQuery returns the CREATE TABLE query for the given backend.
func getCreateTableQuery(t tableDef, backend schema.DatabaseBackend) string {
	defs := make([]string, 0, len(t.cols)+1)
	for _, c := range t.cols {
		var typ string
		switch c.kind {
		case keyCol:
			typ = "TEXT"
			if backend == schema.MySQLBackend {
				typ = "VARCHAR(255)"
			}
		case textCol:
			typ = "TEXT"
		case intCol:
			typ = "BIGINT"
			if backend == schema.SQLiteBackend {
				typ = "INTEGER"
			}
		}
		null := " NOT NULL"
		if c.nullable {
			null = ""
		}
		defs = append(defs, c.name+" "+typ+null)
	}
	defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(t.keys, ", ")))
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", quoteTableName(t.name, backend), strings.Join(defs, ",\n\t"))
}

// RecordStoreImpl persists raw records and serves them back as a DataSource.
type RecordStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
}

var _ contract.RecordStore = &RecordStoreImpl{} // Compile-time check

// NewRecordStore initializes and returns a new RecordStore based on the backend type.
func NewRecordStore(backend schema.DatabaseBackend, connStr string) (*RecordStoreImpl, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled persistence
		return &RecordStoreImpl{backend: backend}, nil
	}

	db, err := openDatabase(backend, connStr, contract.GetRecordDBFilePath())
	if err != nil {
		return nil, err
	}

	for _, t := range recordTables {
		if err := validateTableName(t.name); err != nil {
			_ = db.Close()
			return nil, err
		}
		if _, err := db.Exec(getCreateTableQuery(t, backend)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create table %s: %w", t.name, err)
		}
	}

	return &RecordStoreImpl{db: db, backend: backend, connStr: connStr}, nil
}

func (rs *RecordStoreImpl) disabled() bool {
	return rs.backend == schema.NoneBackend || rs.db == nil
}

// SaveBatch upserts every record of the batch in one transaction.
func (rs *RecordStoreImpl) SaveBatch(ctx context.Context, batch schema.RecordBatch) error {
	if rs.disabled() || batch.Len() == 0 {
		return nil
	}

	tx, err := rs.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows := map[string][][]any{}
	for _, c := range batch.Commits {
		_, offset := c.Timestamp.Zone()
		rows[commitsTable] = append(rows[commitsTable], []any{
			c.RepoID, c.SHA, c.AuthorName, c.AuthorEmail, c.Message,
			c.Timestamp.Unix(), offset / 60, c.Additions, c.Deletions, c.FilesChanged,
		})
	}
	for _, pr := range batch.PullRequests {
		rows[pullRequestsTable] = append(rows[pullRequestsTable], []any{
			pr.RepoID, pr.Number, pr.Title, pr.Author, string(pr.State), pr.URL,
			pr.CreatedAt.Unix(), pr.UpdatedAt.Unix(), unixOrNull(pr.MergedAt), unixOrNull(pr.ClosedAt),
		})
	}
	for _, r := range batch.Reviews {
		rows[reviewsTable] = append(rows[reviewsTable], []any{
			r.RepoID, r.ReviewID, r.PRNumber, r.Reviewer, string(r.State), r.SubmittedAt.Unix(),
		})
	}
	for _, is := range batch.Issues {
		labels, err := json.Marshal(is.Labels)
		if err != nil {
			return fmt.Errorf("failed to marshal labels of issue %s#%d: %w", is.RepoID, is.Number, err)
		}
		rows[issuesTable] = append(rows[issuesTable], []any{
			is.RepoID, is.Number, is.Title, string(labels), is.State, is.CreatedAt.Unix(), unixOrNull(is.ClosedAt),
		})
	}
	for _, d := range batch.Deployments {
		rows[deploymentsTable] = append(rows[deploymentsTable], []any{
			d.RepoID, d.ID, d.Environment, d.Status, d.CreatedAt.Unix(),
		})
	}

	for _, t := range recordTables {
		if err := execRows(ctx, tx, rs.backend, t, rows[t.name]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// SaveUsers upserts the registered user directory.
func (rs *RecordStoreImpl) SaveUsers(ctx context.Context, users []schema.RegisteredUser) error {
	if rs.disabled() || len(users) == 0 {
		return nil
	}
	tx, err := rs.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows := make([][]any, len(users))
	for i, u := range users {
		rows[i] = []any{u.ID, u.Username, u.DisplayName, u.Email, u.AvatarURL}
	}
	if err := execRows(ctx, tx, rs.backend, tableByName(usersTable), rows); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit users: %w", err)
	}
	return nil
}

func execRows(ctx context.Context, tx *sql.Tx, backend schema.DatabaseBackend, t tableDef, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, upsertQuery(backend, t.name, t.colNames(), t.keys))
	if err != nil {
		return fmt.Errorf("failed to prepare upsert for %s: %w", t.name, err)
	}
	defer func() { _ = stmt.Close() }()
	for _, args := range rows {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to upsert into %s: %w", t.name, err)
		}
	}
	return nil
}

// whereClause builds the scope and window filter. ok is false for an empty scope.
func whereClause(q schema.RecordQuery, timeCol string) (string, []any, bool) {
	if len(q.RepoIDs) == 0 {
		return "", nil, false
	}
	conds := []string{fmt.Sprintf("repo_id IN (%s)", placeholders(len(q.RepoIDs)))}
	args := make([]any, 0, len(q.RepoIDs)+2)
	for _, id := range q.RepoIDs {
		args = append(args, id)
	}
	if !q.Window.Start.IsZero() {
		conds = append(conds, timeCol+" >= ?")
		args = append(args, q.Window.Start.Unix())
	}
	if !q.Window.End.IsZero() {
		conds = append(conds, timeCol+" < ?")
		args = append(args, q.Window.End.Unix())
	}
	return " WHERE " + strings.Join(conds, " AND "), args, true
}

func (rs *RecordStoreImpl) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return rs.db.QueryContext(ctx, rebind(rs.backend, query), args...)
}

const commitColumns = "sha, repo_id, author_name, author_email, message, committed_at, tz_offset_min, additions, deletions, files_changed"

func scanCommit(rows *sql.Rows) (schema.RawCommit, error) {
	var c schema.RawCommit
	var sec int64
	var offsetMin int
	if err := rows.Scan(&c.SHA, &c.RepoID, &c.AuthorName, &c.AuthorEmail, &c.Message, &sec, &offsetMin,
		&c.Additions, &c.Deletions, &c.FilesChanged); err != nil {
		return c, fmt.Errorf("failed to scan commit: %w", err)
	}
	c.Timestamp = time.Unix(sec, 0).In(time.FixedZone("", offsetMin*60))
	return c, nil
}

// WalkCommits streams the commits matching the query in commit order.
func (rs *RecordStoreImpl) WalkCommits(ctx context.Context, q schema.RecordQuery, fn func(schema.RawCommit) error) error {
	if rs.disabled() {
		return nil
	}
	where, args, ok := whereClause(q, "committed_at")
	if !ok {
		return nil
	}
	rows, err := rs.query(ctx, fmt.Sprintf("SELECT %s FROM %s%s ORDER BY committed_at, sha",
		commitColumns, quoteTableName(commitsTable, rs.backend), where), args...)
	if err != nil {
		return fmt.Errorf("failed to query commits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Commits implements the DataSource interface.
func (rs *RecordStoreImpl) Commits(ctx context.Context, q schema.RecordQuery) ([]schema.RawCommit, error) {
	var out []schema.RawCommit
	err := rs.WalkCommits(ctx, q, func(c schema.RawCommit) error {
		out = append(out, c)
		return nil
	})
	return out, err
}

// PullRequests implements the DataSource interface.
// A pull request matches when it was created before the window ends and either was
// touched inside the window or is still open.
func (rs *RecordStoreImpl) PullRequests(ctx context.Context, q schema.RecordQuery) ([]schema.RawPullRequest, error) {
	if rs.disabled() {
		return nil, nil
	}
	where, args, ok := whereClause(schema.RecordQuery{RepoIDs: q.RepoIDs}, "")
	if !ok {
		return nil, nil
	}
	if !q.Window.End.IsZero() {
		where += " AND created_at < ?"
		args = append(args, q.Window.End.Unix())
	}
	if !q.Window.Start.IsZero() {
		where += " AND (updated_at >= ? OR state = ?)"
		args = append(args, q.Window.Start.Unix(), string(schema.PROpen))
	}

	rows, err := rs.query(ctx, fmt.Sprintf(`SELECT repo_id, number, title, author, state, url, created_at, updated_at, merged_at, closed_at
		FROM %s%s ORDER BY repo_id, number`, quoteTableName(pullRequestsTable, rs.backend), where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pull requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.RawPullRequest
	for rows.Next() {
		var pr schema.RawPullRequest
		var state string
		var created, updated int64
		var merged, closed sql.NullInt64
		if err := rows.Scan(&pr.RepoID, &pr.Number, &pr.Title, &pr.Author, &state, &pr.URL, &created, &updated, &merged, &closed); err != nil {
			return nil, fmt.Errorf("failed to scan pull request: %w", err)
		}
		pr.State = schema.PRState(state)
		pr.CreatedAt = time.Unix(created, 0).UTC()
		pr.UpdatedAt = time.Unix(updated, 0).UTC()
		pr.MergedAt = timeOrNil(merged)
		pr.ClosedAt = timeOrNil(closed)
		out = append(out, pr)
	}
	return out, rows.Err()
}

// Reviews implements the DataSource interface.
func (rs *RecordStoreImpl) Reviews(ctx context.Context, q schema.RecordQuery) ([]schema.RawReview, error) {
	if rs.disabled() {
		return nil, nil
	}
	where, args, ok := whereClause(q, "submitted_at")
	if !ok {
		return nil, nil
	}
	rows, err := rs.query(ctx, fmt.Sprintf(`SELECT repo_id, pr_number, review_id, reviewer, state, submitted_at
		FROM %s%s ORDER BY repo_id, review_id`, quoteTableName(reviewsTable, rs.backend), where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.RawReview
	for rows.Next() {
		var r schema.RawReview
		var state string
		var submitted int64
		if err := rows.Scan(&r.RepoID, &r.PRNumber, &r.ReviewID, &r.Reviewer, &state, &submitted); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		r.State = schema.ReviewState(state)
		r.SubmittedAt = time.Unix(submitted, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Issues implements the DataSource interface.
func (rs *RecordStoreImpl) Issues(ctx context.Context, q schema.RecordQuery) ([]schema.RawIssue, error) {
	if rs.disabled() {
		return nil, nil
	}
	where, args, ok := whereClause(schema.RecordQuery{RepoIDs: q.RepoIDs}, "")
	if !ok {
		return nil, nil
	}
	// issues opened before the window still count when they close inside it
	if !q.Window.End.IsZero() {
		where += " AND created_at < ?"
		args = append(args, q.Window.End.Unix())
	}
	if !q.Window.Start.IsZero() {
		where += " AND (created_at >= ? OR closed_at >= ? OR closed_at IS NULL)"
		args = append(args, q.Window.Start.Unix(), q.Window.Start.Unix())
	}
	rows, err := rs.query(ctx, fmt.Sprintf(`SELECT repo_id, number, title, labels, state, created_at, closed_at
		FROM %s%s ORDER BY repo_id, number`, quoteTableName(issuesTable, rs.backend), where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.RawIssue
	for rows.Next() {
		var is schema.RawIssue
		var labels string
		var created int64
		var closed sql.NullInt64
		if err := rows.Scan(&is.RepoID, &is.Number, &is.Title, &labels, &is.State, &created, &closed); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		if err := json.Unmarshal([]byte(labels), &is.Labels); err != nil {
			return nil, fmt.Errorf("failed to decode labels of issue %s#%d: %w", is.RepoID, is.Number, err)
		}
		is.CreatedAt = time.Unix(created, 0).UTC()
		is.ClosedAt = timeOrNil(closed)
		out = append(out, is)
	}
	return out, rows.Err()
}

// Deployments implements the DataSource interface.
func (rs *RecordStoreImpl) Deployments(ctx context.Context, q schema.RecordQuery) ([]schema.RawDeployment, error) {
	if rs.disabled() {
		return nil, nil
	}
	where, args, ok := whereClause(q, "created_at")
	if !ok {
		return nil, nil
	}
	rows, err := rs.query(ctx, fmt.Sprintf(`SELECT repo_id, deploy_id, environment, status, created_at
		FROM %s%s ORDER BY created_at, deploy_id`, quoteTableName(deploymentsTable, rs.backend), where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deployments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.RawDeployment
	for rows.Next() {
		var d schema.RawDeployment
		var created int64
		if err := rows.Scan(&d.RepoID, &d.ID, &d.Environment, &d.Status, &created); err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}
		d.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

// Users implements the DataSource interface.
func (rs *RecordStoreImpl) Users(ctx context.Context) ([]schema.RegisteredUser, error) {
	if rs.disabled() {
		return nil, nil
	}
	rows, err := rs.query(ctx, fmt.Sprintf("SELECT user_id, username, display_name, email, avatar_url FROM %s ORDER BY user_id",
		quoteTableName(usersTable, rs.backend)))
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.RegisteredUser
	for rows.Next() {
		var u schema.RegisteredUser
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.AvatarURL); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// RepoIDs implements the DataSource interface.
func (rs *RecordStoreImpl) RepoIDs(ctx context.Context) ([]string, error) {
	if rs.disabled() {
		return nil, nil
	}
	var parts []string
	for _, t := range []string{commitsTable, pullRequestsTable, issuesTable, deploymentsTable} {
		parts = append(parts, fmt.Sprintf("SELECT repo_id FROM %s", quoteTableName(t, rs.backend)))
	}
	rows, err := rs.query(ctx, "SELECT DISTINCT repo_id FROM ("+strings.Join(parts, " UNION ")+") AS repos ORDER BY repo_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query repositories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Close closes the underlying DB connection.
func (rs *RecordStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the record store.
func (rs *RecordStoreImpl) GetStatus() (schema.RecordStatus, error) {
	status := schema.RecordStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.disabled() {
		return status, nil
	}

	repos, err := rs.RepoIDs(context.Background())
	if err != nil {
		return status, err
	}
	status.Repositories = repos

	var newest, oldest sql.NullInt64
	row := rs.db.QueryRow(fmt.Sprintf("SELECT MAX(committed_at), MIN(committed_at) FROM %s", quoteTableName(commitsTable, rs.backend)))
	if err := row.Scan(&newest, &oldest); err != nil {
		return status, fmt.Errorf("failed to get commit range: %w", err)
	}
	if newest.Valid {
		status.LatestCommit = time.Unix(newest.Int64, 0).UTC()
		status.OldestCommit = time.Unix(oldest.Int64, 0).UTC()
	}

	for _, t := range recordTables {
		count, err := tableRowCount(rs.db, t.name, rs.backend)
		if err != nil {
			return status, err
		}
		status.TableSizes[t.name] = count
	}
	return status, nil
}
