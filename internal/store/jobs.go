package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"outreach-engine/internal/domain"
)

// InsertJobIgnore inserts a posting unless its source_id is already known.
// Relies on the unique index on source_id WHERE source_id != ''.
func InsertJobIgnore(ctx context.Context, db *sql.DB, j domain.JobPosting) (added bool, err error) {
	firstSeen := time.Now().UTC().Format(time.RFC3339)
	if j.PostedAt != nil {
		firstSeen = j.PostedAt.UTC().Format(time.RFC3339)
	}

	_, err = db.ExecContext(ctx, `
INSERT OR IGNORE INTO jobs (company, title, location, careers_url, company_domain, source, source_id, first_seen)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		j.CompanyName, j.Title, j.Location, j.CareersURL, j.CompanyDomain, j.Source, j.SourceID, firstSeen,
	)
	if err != nil {
		return false, fmt.Errorf("insert job: %w", err)
	}

	// SQLite doesn't report rows affected reliably with IGNORE across
	// drivers; changes() does.
	var changes int
	if e := db.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); e == nil {
		return changes > 0, nil
	}
	return true, nil
}

// CountJobs is used by the run summary.
func CountJobs(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs;`).Scan(&n)
	return n, err
}

// CleanupOldJobs drops postings not seen for three months.
func CleanupOldJobs(db *sql.DB) (deleted int64, err error) {
	res, err := db.Exec(`
DELETE FROM jobs
WHERE first_seen < datetime('now', '-3 months');
`)
	if err != nil {
		return 0, fmt.Errorf("cleanup old jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
