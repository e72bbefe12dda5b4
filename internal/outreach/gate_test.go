package outreach

import (
	"testing"
	"time"

	"outreach-engine/internal/domain"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 23, 15, 30, 0, 0, time.UTC)
}

func rec(email string, at time.Time, status domain.SendStatus) domain.SendRecord {
	return domain.NewSendRecord(email, "AnyCo", at, status)
}

func TestSentTodayCountsOnlyQuotaConsumingStatuses(t *testing.T) {
	t.Parallel()

	now := fixedNow()
	yesterday := now.Add(-24 * time.Hour)

	records := []domain.SendRecord{
		rec("a@x.com", now, domain.StatusSent),
		rec("b@x.com", now, domain.StatusDryRun),
		rec("c@x.com", now, domain.StatusFailed),
		rec("d@x.com", now, domain.StatusSkipped),
		rec("e@x.com", yesterday, domain.StatusSent),
	}

	g := RateGate{DailyLimit: 10, Now: fixedNow}
	if got := g.SentToday(records); got != 2 {
		t.Fatalf("SentToday() = %d, want 2 (sent + dry_run today)", got)
	}
}

func TestSentTodayExemptDryRuns(t *testing.T) {
	t.Parallel()

	now := fixedNow()
	records := []domain.SendRecord{
		rec("a@x.com", now, domain.StatusSent),
		rec("b@x.com", now, domain.StatusDryRun),
		rec("c@x.com", now, domain.StatusDryRun),
	}

	g := RateGate{DailyLimit: 10, ExemptDryRuns: true, Now: fixedNow}
	if got := g.SentToday(records); got != 1 {
		t.Fatalf("SentToday() = %d, want 1 with exempt dry runs", got)
	}
}

func TestCanSendBoundary(t *testing.T) {
	t.Parallel()

	now := fixedNow()
	g := RateGate{DailyLimit: 2, Now: fixedNow}

	var records []domain.SendRecord
	if !g.CanSend(records) {
		t.Fatal("CanSend() = false with an empty ledger")
	}

	records = append(records, rec("a@x.com", now, domain.StatusSent))
	if !g.CanSend(records) {
		t.Fatal("CanSend() = false at 1/2")
	}

	records = append(records, rec("b@x.com", now, domain.StatusSent))
	if g.CanSend(records) {
		t.Fatal("CanSend() = true at the limit")
	}
}

func TestQuotaResetsAcrossDays(t *testing.T) {
	t.Parallel()

	yesterday := fixedNow().Add(-24 * time.Hour)
	records := []domain.SendRecord{
		rec("a@x.com", yesterday, domain.StatusSent),
		rec("b@x.com", yesterday, domain.StatusSent),
	}

	g := RateGate{DailyLimit: 2, Now: fixedNow}
	if got := g.SentToday(records); got != 0 {
		t.Fatalf("SentToday() = %d, want 0 after the day rolled over", got)
	}
	if !g.CanSend(records) {
		t.Fatal("CanSend() = false although yesterday's sends should not count")
	}
}
