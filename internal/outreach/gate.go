package outreach

import (
	"time"

	"outreach-engine/internal/domain"
)

// RateGate is the daily-quota predicate consulted before every send. It is
// derived state: every answer is recomputed from the ledger view, so there
// is no counter to drift out of sync.
type RateGate struct {
	DailyLimit int
	// Parsed and validated but deliberately not enforced; the gate never
	// sleeps or paces.
	MinSecondsBetweenSends int
	// When true, dry_run records do not consume quota.
	ExemptDryRuns bool

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

// SentToday counts quota-consuming records dated today (UTC calendar day,
// matched by timestamp string prefix). Only sent and dry_run consume
// quota; failed and skipped rows are audit-only.
func (g RateGate) SentToday(records []domain.SendRecord) int {
	today := g.now()
	n := 0
	for _, r := range records {
		if !r.SentOn(today) {
			continue
		}
		switch r.Status {
		case domain.StatusSent:
			n++
		case domain.StatusDryRun:
			if !g.ExemptDryRuns {
				n++
			}
		}
	}
	return n
}

func (g RateGate) CanSend(records []domain.SendRecord) bool {
	return g.SentToday(records) < g.DailyLimit
}

func (g RateGate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}
