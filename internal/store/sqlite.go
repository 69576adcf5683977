package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aminebalti55/ChemistryJobs/internal/model"
)

// ErrAttemptNotAllowed is returned by BeginAttempt when a job's attempt
// budget is spent or its application already succeeded.
var ErrAttemptNotAllowed = errors.New("job is not eligible for another application attempt")

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

// SQLiteStore owns all JobRecord and ApplicationAttempt persistence. Every
// other component goes through it; nothing mutates the rows directly.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the jobs, application_attempts and update_log tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id                    INTEGER PRIMARY KEY AUTOINCREMENT,
			link                  TEXT NOT NULL UNIQUE,
			title                 TEXT NOT NULL,
			description           TEXT NOT NULL DEFAULT '',
			location              TEXT NOT NULL DEFAULT '',
			experience            TEXT NOT NULL DEFAULT '',
			publish_date          TEXT NOT NULL,
			state                 TEXT NOT NULL DEFAULT 'discovered',
			added_date            TEXT NOT NULL,
			is_new                INTEGER NOT NULL DEFAULT 0,
			is_old                INTEGER NOT NULL DEFAULT 0,
			is_clicked            INTEGER NOT NULL DEFAULT 0,
			application_attempts  INTEGER NOT NULL DEFAULT 0,
			last_application_date TEXT,
			application_success   INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS application_attempts (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id        INTEGER NOT NULL REFERENCES jobs(id),
			attempted_at  TEXT NOT NULL,
			success       INTEGER NOT NULL,
			site_type     TEXT NOT NULL,
			error_message TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS update_log (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			completed_at TEXT NOT NULL,
			jobs_added   INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_job ON application_attempts(job_id)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// HasLink returns true if a job with the given link is already recorded.
func (s *SQLiteStore) HasLink(link string) (bool, error) {
	var exists int
	err := s.db.QueryRow("SELECT 1 FROM jobs WHERE link = ?", link).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking link %s: %w", link, err)
	}
	return true, nil
}

// InsertDiscovered records a candidate as a Discovered job. Discovery is
// idempotent on the link: re-inserting an existing link is a no-op and
// returns added=false. is_new and is_old are computed once here, from the
// publish date at discovery time, and never re-evaluated.
func (s *SQLiteStore) InsertDiscovered(c model.Candidate) (bool, error) {
	now := s.now()
	ageDays := int(now.Sub(c.PublishDate).Hours() / 24)
	isNew := ageDays < 3
	isOld := ageDays > 15

	res, err := s.db.Exec(`
		INSERT OR IGNORE INTO jobs
			(link, title, description, location, experience, publish_date, state, added_date, is_new, is_old)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Link, c.Title, c.Description, c.Location, c.Experience,
		c.PublishDate.Format(dateLayout), string(model.StateDiscovered),
		now.Format(timeLayout), boolToInt(isNew), boolToInt(isOld),
	)
	if err != nil {
		return false, fmt.Errorf("inserting job %s: %w", c.Link, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting job %s: %w", c.Link, err)
	}
	return n > 0, nil
}

const jobColumns = `id, link, title, description, location, experience, publish_date,
	state, added_date, is_new, is_old, is_clicked,
	application_attempts, last_application_date, application_success`

// UnappliedJobs returns the jobs still eligible for automation, in insertion
// order. The filter here is the source of truth for eligibility: attempt
// budget not yet spent and no successful application on record.
func (s *SQLiteStore) UnappliedJobs() ([]model.JobRecord, error) {
	rows, err := s.db.Query(`
		SELECT `+jobColumns+`
		FROM jobs
		WHERE application_attempts < ?
		  AND (application_success IS NULL OR application_success = 0)
		  AND state != ?
		ORDER BY id`,
		model.MaxApplicationAttempts, string(model.StateExcluded),
	)
	if err != nil {
		return nil, fmt.Errorf("querying unapplied jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

// BeginAttempt increments the job's attempt counter and moves it to the
// Applying state. It is called before the automator blocks on navigation or
// verification, so a forced stop never under-counts attempts. Returns the new
// attempt count, or ErrAttemptNotAllowed when the record is no longer
// eligible.
func (s *SQLiteStore) BeginAttempt(jobID int64) (int, error) {
	res, err := s.db.Exec(`
		UPDATE jobs
		SET application_attempts = application_attempts + 1,
		    state = ?,
		    last_application_date = ?
		WHERE id = ?
		  AND application_attempts < ?
		  AND (application_success IS NULL OR application_success = 0)`,
		string(model.StateApplying), s.now().Format(timeLayout),
		jobID, model.MaxApplicationAttempts,
	)
	if err != nil {
		return 0, fmt.Errorf("beginning attempt for job %d: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("beginning attempt for job %d: %w", jobID, err)
	}
	if n == 0 {
		return 0, ErrAttemptNotAllowed
	}

	var attempts int
	if err := s.db.QueryRow("SELECT application_attempts FROM jobs WHERE id = ?", jobID).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("reading attempt count for job %d: %w", jobID, err)
	}
	return attempts, nil
}

// FinishAttempt appends an immutable history entry and resolves the job's
// state for this attempt. History rows are only ever appended, never mutated.
func (s *SQLiteStore) FinishAttempt(jobID int64, success bool, siteType, errorMessage string) error {
	var errVal any
	if errorMessage != "" {
		errVal = errorMessage
	}
	if _, err := s.db.Exec(`
		INSERT INTO application_attempts (job_id, attempted_at, success, site_type, error_message)
		VALUES (?, ?, ?, ?, ?)`,
		jobID, s.now().Format(timeLayout), boolToInt(success), siteType, errVal,
	); err != nil {
		return fmt.Errorf("appending attempt history for job %d: %w", jobID, err)
	}

	state := model.StateFailed
	if success {
		state = model.StateApplied
	}
	if _, err := s.db.Exec(`
		UPDATE jobs
		SET state = ?, application_success = ?
		WHERE id = ?`,
		string(state), boolToInt(success), jobID,
	); err != nil {
		return fmt.Errorf("recording attempt outcome for job %d: %w", jobID, err)
	}
	return nil
}

// Attempts returns the append-only application history for a job, oldest first.
func (s *SQLiteStore) Attempts(jobID int64) ([]model.ApplicationAttempt, error) {
	rows, err := s.db.Query(`
		SELECT id, job_id, attempted_at, success, site_type, error_message
		FROM application_attempts
		WHERE job_id = ?
		ORDER BY id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("querying attempts for job %d: %w", jobID, err)
	}
	defer rows.Close()

	var attempts []model.ApplicationAttempt
	for rows.Next() {
		var (
			a       model.ApplicationAttempt
			at      string
			success int
			errMsg  sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.JobID, &at, &success, &a.SiteType, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning attempt row: %w", err)
		}
		a.AttemptedAt, _ = time.Parse(timeLayout, at)
		a.Success = success != 0
		a.ErrorMessage = errMsg.String
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// JobQuery filters the Jobs projection for the external API layer.
type JobQuery struct {
	Keyword string         // substring match against title or description
	State   model.JobState // empty matches all states
}

// Jobs returns job records matching the query, newest first.
func (s *SQLiteStore) Jobs(q JobQuery) ([]model.JobRecord, error) {
	query := "SELECT " + jobColumns + " FROM jobs"
	var (
		clauses []string
		args    []any
	)
	if q.Keyword != "" {
		clauses = append(clauses, "(title LIKE ? OR description LIKE ?)")
		pattern := "%" + q.Keyword + "%"
		args = append(args, pattern, pattern)
	}
	if q.State != "" {
		clauses = append(clauses, "state = ?")
		args = append(args, string(q.State))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

// JobByLink returns the record for the given link, or sql.ErrNoRows.
func (s *SQLiteStore) JobByLink(link string) (model.JobRecord, error) {
	row := s.db.QueryRow("SELECT "+jobColumns+" FROM jobs WHERE link = ?", link)
	return scanJob(row)
}

// MarkClicked flags a job as user-acknowledged.
func (s *SQLiteStore) MarkClicked(link string) error {
	res, err := s.db.Exec("UPDATE jobs SET is_clicked = 1 WHERE link = ?", link)
	if err != nil {
		return fmt.Errorf("marking job clicked: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking job clicked: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no job with link %s", link)
	}
	return nil
}

// LogAcquisition records a completed acquisition cycle. Observability only.
func (s *SQLiteStore) LogAcquisition(added int) error {
	_, err := s.db.Exec(
		"INSERT INTO update_log (completed_at, jobs_added) VALUES (?, ?)",
		s.now().Format(timeLayout), added,
	)
	if err != nil {
		return fmt.Errorf("logging acquisition cycle: %w", err)
	}
	return nil
}

// LastAcquisition returns the completion time of the most recent acquisition
// cycle. ok is false when no cycle has completed yet.
func (s *SQLiteStore) LastAcquisition() (t time.Time, ok bool, err error) {
	var raw string
	err = s.db.QueryRow("SELECT completed_at FROM update_log ORDER BY id DESC LIMIT 1").Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading update log: %w", err)
	}
	t, err = time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing update log timestamp: %w", err)
	}
	return t, true, nil
}

// SiteStats aggregates attempt history per site adapter.
type SiteStats struct {
	Attempts  int
	Successes int
}

// StatsBySite returns aggregate attempt/success counts keyed by site type.
func (s *SQLiteStore) StatsBySite() (map[string]SiteStats, error) {
	rows, err := s.db.Query(`
		SELECT site_type, COUNT(*), COALESCE(SUM(success), 0)
		FROM application_attempts
		GROUP BY site_type`)
	if err != nil {
		return nil, fmt.Errorf("aggregating site stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]SiteStats)
	for rows.Next() {
		var (
			site string
			st   SiteStats
		)
		if err := rows.Scan(&site, &st.Attempts, &st.Successes); err != nil {
			return nil, fmt.Errorf("scanning site stats: %w", err)
		}
		stats[site] = st
	}
	return stats, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (model.JobRecord, error) {
	var (
		j          model.JobRecord
		pubDate    string
		state      string
		addedAt    string
		isNew      int
		isOld      int
		isClicked  int
		lastApp    sql.NullString
		appSuccess sql.NullInt64
	)
	err := r.Scan(
		&j.ID, &j.Link, &j.Title, &j.Description, &j.Location, &j.Experience, &pubDate,
		&state, &addedAt, &isNew, &isOld, &isClicked,
		&j.ApplicationAttempts, &lastApp, &appSuccess,
	)
	if err != nil {
		return j, fmt.Errorf("scanning job row: %w", err)
	}
	j.PublishDate, _ = time.Parse(dateLayout, pubDate)
	j.State = model.JobState(state)
	j.AddedAt, _ = time.Parse(timeLayout, addedAt)
	j.IsNew = isNew != 0
	j.IsOld = isOld != 0
	j.IsClicked = isClicked != 0
	if lastApp.Valid {
		if t, err := time.Parse(timeLayout, lastApp.String); err == nil {
			j.LastApplicationAt = &t
		}
	}
	if appSuccess.Valid {
		v := appSuccess.Int64 != 0
		j.ApplicationSuccess = &v
	}
	return j, nil
}

func scanJobs(rows *sql.Rows) ([]model.JobRecord, error) {
	var jobs []model.JobRecord
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
