package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grievance_desk/backend/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS issues (
	id TEXT PRIMARY KEY,
	issue_key TEXT NOT NULL,
	location TEXT NOT NULL,
	category TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'OPEN',
	urgency_max TEXT NOT NULL DEFAULT 'Low',
	urgency_avg DOUBLE PRECISION NOT NULL DEFAULT 1,
	complaint_count INT NOT NULL DEFAULT 0,
	unique_complaint_count INT NOT NULL DEFAULT 0,
	duplicate_count INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL,
	resolved_at TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_issues_key ON issues (issue_key);
CREATE INDEX IF NOT EXISTS ix_issues_status ON issues (status);
CREATE INDEX IF NOT EXISTS ix_issues_last_updated ON issues (last_updated);

CREATE TABLE IF NOT EXISTS complaints (
	id TEXT PRIMARY KEY,
	issue_id TEXT NOT NULL REFERENCES issues(id),
	text TEXT NOT NULL,
	category TEXT NOT NULL,
	urgency TEXT NOT NULL,
	location TEXT NOT NULL,
	embedding DOUBLE PRECISION[],
	similarity_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_duplicate BOOLEAN NOT NULL DEFAULT FALSE,
	duplicate_of TEXT,
	session_id TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS ix_complaints_issue ON complaints (issue_id);
`

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}

// IsUniqueViolation reports whether err is a unique-constraint failure,
// the losing side of an issue-creation race.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsTransient reports whether err is a connectivity-class failure where the
// whole unit of work may be retried.
func IsTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08 = connection exception, class 57 = operator intervention
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57")
	}
	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}

const issueColumns = `id, location, category, status, urgency_max, urgency_avg,
	complaint_count, unique_complaint_count, duplicate_count,
	created_at, last_updated, resolved_at`

func scanIssue(row pgx.Row) (models.Issue, error) {
	var i models.Issue
	err := row.Scan(
		&i.ID, &i.Location, &i.Category, &i.Status, &i.UrgencyMax, &i.UrgencyAvg,
		&i.ComplaintCount, &i.UniqueComplaintCount, &i.DuplicateCount,
		&i.CreatedAt, &i.LastUpdated, &i.ResolvedAt,
	)
	return i, err
}

// GetIssueByKeyForUpdate resolves an issue by its grouping key and locks the
// row for the rest of the transaction. Counter updates for one issue are
// serialized by this lock.
func (s *Store) GetIssueByKeyForUpdate(ctx context.Context, tx pgx.Tx, issueKey string) (models.Issue, bool, error) {
	row := tx.QueryRow(ctx, `SELECT `+issueColumns+` FROM issues WHERE issue_key = $1 FOR UPDATE`, issueKey)
	issue, err := scanIssue(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Issue{}, false, nil
	}
	if err != nil {
		return models.Issue{}, false, err
	}
	return issue, true, nil
}

func (s *Store) InsertIssue(ctx context.Context, tx pgx.Tx, issue models.Issue, issueKey string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO issues (id, issue_key, location, category, status, urgency_max, urgency_avg,
			complaint_count, unique_complaint_count, duplicate_count, created_at, last_updated)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, issue.ID, issueKey, issue.Location, issue.Category, issue.Status, issue.UrgencyMax, issue.UrgencyAvg,
		issue.ComplaintCount, issue.UniqueComplaintCount, issue.DuplicateCount, issue.CreatedAt, issue.LastUpdated)
	return err
}

func (s *Store) InsertComplaint(ctx context.Context, tx pgx.Tx, c models.Complaint) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO complaints (id, issue_id, text, category, urgency, location, embedding,
			similarity_score, is_duplicate, duplicate_of, session_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, c.ID, c.IssueID, c.Text, c.Category, c.Urgency, c.Location, c.Embedding,
		c.SimilarityScore, c.IsDuplicate, c.DuplicateOf, c.SessionID, c.CreatedAt)
	return err
}

// IncrementIssueCounts applies one complaint to the issue's aggregates.
// Must run inside the transaction that holds the issue's row lock.
func (s *Store) IncrementIssueCounts(ctx context.Context, tx pgx.Tx, issueID string, isDuplicate bool, urgencyMax string, urgencyAvg float64) error {
	uniqueDelta := 1
	duplicateDelta := 0
	if isDuplicate {
		uniqueDelta = 0
		duplicateDelta = 1
	}
	tag, err := tx.Exec(ctx, `
		UPDATE issues SET
			complaint_count = complaint_count + 1,
			unique_complaint_count = unique_complaint_count + $1,
			duplicate_count = duplicate_count + $2,
			urgency_max = $3,
			urgency_avg = $4,
			last_updated = NOW()
		WHERE id = $5
	`, uniqueDelta, duplicateDelta, urgencyMax, urgencyAvg, issueID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("issue %s vanished during counter update", issueID)
	}
	return nil
}

func scanComplaints(rows pgx.Rows) ([]models.Complaint, error) {
	defer rows.Close()
	var out []models.Complaint
	for rows.Next() {
		var c models.Complaint
		if err := rows.Scan(
			&c.ID, &c.IssueID, &c.Text, &c.Category, &c.Urgency, &c.Location, &c.Embedding,
			&c.SimilarityScore, &c.IsDuplicate, &c.DuplicateOf, &c.SessionID, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const complaintColumns = `id, issue_id, text, category, urgency, location, embedding,
	similarity_score, is_duplicate, duplicate_of, session_id, created_at`

// ListComplaintsByIssueTx returns an issue's complaints in insertion order,
// embeddings included, for duplicate scanning inside the ingestion
// transaction.
func (s *Store) ListComplaintsByIssueTx(ctx context.Context, tx pgx.Tx, issueID string) ([]models.Complaint, error) {
	rows, err := tx.Query(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE issue_id = $1 ORDER BY created_at ASC, id ASC`, issueID)
	if err != nil {
		return nil, err
	}
	return scanComplaints(rows)
}

func (s *Store) ListComplaintsByIssue(ctx context.Context, issueID string, limit int) ([]models.Complaint, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE issue_id = $1 ORDER BY created_at ASC, id ASC LIMIT $2`, issueID, limit)
	if err != nil {
		return nil, err
	}
	return scanComplaints(rows)
}

func (s *Store) GetIssue(ctx context.Context, issueID string) (models.Issue, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = $1`, issueID)
	return scanIssue(row)
}

func (s *Store) ListIssues(ctx context.Context, status, location, category string, limit int) ([]models.Issue, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT ` + issueColumns + ` FROM issues`
	var args []any
	var wheres []string
	if status != "" {
		args = append(args, status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if location != "" {
		args = append(args, location)
		wheres = append(wheres, fmt.Sprintf("location = $%d", len(args)))
	}
	if category != "" {
		args = append(args, category)
		wheres = append(wheres, fmt.Sprintf("category = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY last_updated DESC LIMIT $" + fmt.Sprint(len(args)+1)
	args = append(args, limit)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Issue
	for rows.Next() {
		var i models.Issue
		if err := rows.Scan(
			&i.ID, &i.Location, &i.Category, &i.Status, &i.UrgencyMax, &i.UrgencyAvg,
			&i.ComplaintCount, &i.UniqueComplaintCount, &i.DuplicateCount,
			&i.CreatedAt, &i.LastUpdated, &i.ResolvedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// UpdateIssueStatus transitions an issue's lifecycle status under a row
// lock. RESOLVED stamps resolved_at; REOPENED clears it.
func (s *Store) UpdateIssueStatus(ctx context.Context, issueID string, status string) (models.Issue, error) {
	var updated models.Issue
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = $1 FOR UPDATE`, issueID)
		issue, err := scanIssue(row)
		if err != nil {
			return err
		}

		var resolvedAt *time.Time
		switch status {
		case models.StatusResolved:
			now := time.Now().UTC()
			resolvedAt = &now
		case models.StatusReopened:
			resolvedAt = nil
		default:
			resolvedAt = issue.ResolvedAt
		}

		row = tx.QueryRow(ctx, `
			UPDATE issues SET status = $1, resolved_at = $2, last_updated = NOW()
			WHERE id = $3
			RETURNING `+issueColumns, status, resolvedAt, issueID)
		updated, err = scanIssue(row)
		return err
	})
	return updated, err
}

// IssueStats summarizes issue and complaint totals for the admin surface.
type IssueStats struct {
	TotalIssues        int            `json:"total_issues"`
	StatusDistribution map[string]int `json:"status_distribution"`
	TotalComplaints    int            `json:"total_complaints"`
	UniqueComplaints   int            `json:"unique_complaints"`
	DuplicateCount     int            `json:"duplicate_complaints"`
}

func (s *Store) GetIssueStats(ctx context.Context) (IssueStats, error) {
	stats := IssueStats{StatusDistribution: map[string]int{}}

	rows, err := s.Pool.Query(ctx, `SELECT status, COUNT(*) FROM issues GROUP BY status`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		stats.StatusDistribution[status] = count
		stats.TotalIssues += count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	row := s.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(complaint_count),0), COALESCE(SUM(unique_complaint_count),0), COALESCE(SUM(duplicate_count),0)
		FROM issues`)
	if err := row.Scan(&stats.TotalComplaints, &stats.UniqueComplaints, &stats.DuplicateCount); err != nil {
		return stats, err
	}
	return stats, nil
}
