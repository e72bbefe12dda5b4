package store

import (
	"context"
	"path/filepath"
	"testing"

	"outreach-engine/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db.Pool); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	if err := Migrate(db.Pool); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestInsertJobIgnoreDedupesBySourceID(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	job := domain.JobPosting{
		CompanyName: "XCo",
		Title:       "Backend Engineer",
		Location:    "Austin, TX",
		CareersURL:  "https://boards.greenhouse.io/xco",
		SourceID:    "greenhouse:xco:1",
		Source:      "greenhouse",
	}

	added, err := InsertJobIgnore(ctx, db.Pool, job)
	if err != nil {
		t.Fatalf("InsertJobIgnore() error = %v", err)
	}
	if !added {
		t.Fatal("first insert reported added=false")
	}

	added, err = InsertJobIgnore(ctx, db.Pool, job)
	if err != nil {
		t.Fatalf("duplicate InsertJobIgnore() error = %v", err)
	}
	if added {
		t.Fatal("duplicate insert reported added=true")
	}

	n, err := CountJobs(ctx, db.Pool)
	if err != nil {
		t.Fatalf("CountJobs() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("CountJobs() = %d, want 1", n)
	}
}

func TestInsertJobIgnoreAllowsEmptySourceIDs(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := InsertJobIgnore(ctx, db.Pool, domain.JobPosting{
			CompanyName: "ManualCo",
			Title:       "Role",
			Source:      "job_board",
		}); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	n, err := CountJobs(ctx, db.Pool)
	if err != nil {
		t.Fatalf("CountJobs() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("CountJobs() = %d, want 2 (empty source_id is not unique)", n)
	}
}

func TestCompanyDomainRoundTrip(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	got, err := GetCompanyDomain(ctx, db.Pool, "Unknown Co")
	if err != nil {
		t.Fatalf("GetCompanyDomain() error = %v", err)
	}
	if got != "" {
		t.Fatalf("GetCompanyDomain() = %q on an empty table", got)
	}

	if err := UpsertCompanyDomain(ctx, db.Pool, "  XCo  ", "XCO.com"); err != nil {
		t.Fatalf("UpsertCompanyDomain() error = %v", err)
	}

	got, err = GetCompanyDomain(ctx, db.Pool, "xco")
	if err != nil {
		t.Fatalf("GetCompanyDomain() error = %v", err)
	}
	if got != "xco.com" {
		t.Fatalf("GetCompanyDomain() = %q, want normalized xco.com", got)
	}

	// Upsert replaces.
	if err := UpsertCompanyDomain(ctx, db.Pool, "xco", "xco.io"); err != nil {
		t.Fatalf("second UpsertCompanyDomain() error = %v", err)
	}
	got, _ = GetCompanyDomain(ctx, db.Pool, "XCo")
	if got != "xco.io" {
		t.Fatalf("GetCompanyDomain() = %q after upsert, want xco.io", got)
	}
}
