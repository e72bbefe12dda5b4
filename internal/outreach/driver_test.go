package outreach

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/personalize"
)

type fakeLedger struct {
	records   []domain.SendRecord
	appendErr error
}

func (f *fakeLedger) Contains(email string) bool {
	for _, r := range f.records {
		if r.Email == email {
			return true
		}
	}
	return false
}

func (f *fakeLedger) Append(rec domain.SendRecord) error {
	f.records = append(f.records, rec)
	return f.appendErr
}

func (f *fakeLedger) Records() []domain.SendRecord { return f.records }

type fakeTransport struct {
	sent    []string
	failFor map[string]bool
}

func (f *fakeTransport) Send(_ context.Context, recipient, subject, body, attachmentPath string) error {
	if f.failFor[recipient] {
		return errors.New("relay rejected recipient")
	}
	f.sent = append(f.sent, recipient)
	return nil
}

type fakePersonalizer struct {
	failFor map[string]bool
}

func (f *fakePersonalizer) Personalize(_ context.Context, pctx personalize.Context) (personalize.Message, error) {
	if f.failFor[pctx.RecruiterName] {
		return personalize.Message{}, errors.New("template render failed")
	}
	return personalize.Message{
		Subject: fmt.Sprintf("Interest in %s at %s", pctx.JobTitle, pctx.CompanyName),
		Body:    "hello " + pctx.RecruiterName,
	}, nil
}

func testCandidates(n int) []domain.EmailCandidate {
	out := make([]domain.EmailCandidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.EmailCandidate{
			RecruiterName:   fmt.Sprintf("Recruiter %d", i),
			Email:           fmt.Sprintf("r%d@x.com", i),
			ConfidenceScore: 0.5,
			Source:          "pattern_match",
		})
	}
	return out
}

func newTestDriver(led *fakeLedger, tr Transport, limit int) *Driver {
	return &Driver{
		Ledger:       led,
		Gate:         RateGate{DailyLimit: limit, Now: fixedNow},
		Personalizer: &fakePersonalizer{},
		Transport:    tr,
		Footer:       personalize.UnsubscribeFooter{Text: "reply to opt out"},
		Logger:       zap.NewNop(),
		now:          fixedNow,
	}
}

func TestRunFreshBatchSendsAndRecords(t *testing.T) {
	t.Parallel()

	led := &fakeLedger{}
	tr := &fakeTransport{}
	d := newTestDriver(led, tr, 10)

	sum, err := d.Run(context.Background(), testCandidates(3), map[string]string{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Sent != 3 || sum.Failed != 0 || sum.DryRun != 0 {
		t.Fatalf("summary = %+v, want 3 sent", sum)
	}
	if len(tr.sent) != 3 {
		t.Fatalf("transport calls = %d, want 3", len(tr.sent))
	}
	if len(led.records) != 3 {
		t.Fatalf("ledger rows = %d, want 3", len(led.records))
	}
	for _, r := range led.records {
		if r.Status != domain.StatusSent {
			t.Fatalf("record %+v, want status sent", r)
		}
		if r.Timestamp != fixedNow().Format(time.RFC3339) {
			t.Fatalf("timestamp = %q, want RFC 3339 UTC", r.Timestamp)
		}
	}
}

func TestRunIsIdempotentAcrossRuns(t *testing.T) {
	t.Parallel()

	led := &fakeLedger{}
	tr := &fakeTransport{}
	cands := testCandidates(3)

	d := newTestDriver(led, tr, 10)
	if _, err := d.Run(context.Background(), cands, map[string]string{}, nil); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	sum, err := d.Run(context.Background(), cands, map[string]string{}, nil)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if sum.AlreadyContacted != 3 || sum.Sent != 0 {
		t.Fatalf("second run summary = %+v, want 3 already contacted", sum)
	}
	if len(tr.sent) != 3 {
		t.Fatalf("transport calls = %d after two runs, want 3", len(tr.sent))
	}
	if len(led.records) != 3 {
		t.Fatalf("ledger rows = %d after two runs, want 3 (no new rows)", len(led.records))
	}
}

func TestRunStopsHardAtDailyLimit(t *testing.T) {
	t.Parallel()

	led := &fakeLedger{}
	tr := &fakeTransport{}
	d := newTestDriver(led, tr, 2)

	sum, err := d.Run(context.Background(), testCandidates(5), map[string]string{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Sent != 2 {
		t.Fatalf("Sent = %d, want 2", sum.Sent)
	}
	if !sum.Stopped || sum.Remaining != 3 {
		t.Fatalf("summary = %+v, want stopped with 3 remaining", sum)
	}
	if len(led.records) != 2 {
		t.Fatalf("ledger rows = %d, want 2 (no rows for the untouched tail)", len(led.records))
	}
}

func TestRunFailureDoesNotConsumeQuotaOrAbortBatch(t *testing.T) {
	t.Parallel()

	led := &fakeLedger{}
	tr := &fakeTransport{failFor: map[string]bool{"r0@x.com": true}}
	d := newTestDriver(led, tr, 2)

	sum, err := d.Run(context.Background(), testCandidates(3), map[string]string{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", sum.Failed)
	}
	// The failed attempt is audit-only; both remaining candidates still fit
	// under the limit of 2.
	if sum.Sent != 2 {
		t.Fatalf("Sent = %d, want 2", sum.Sent)
	}
	if led.records[0].Status != domain.StatusFailed {
		t.Fatalf("records[0] = %+v, want failed", led.records[0])
	}
}

func TestRunFailedRecipientIsNotRetried(t *testing.T) {
	t.Parallel()

	led := &fakeLedger{}
	tr := &fakeTransport{failFor: map[string]bool{"r0@x.com": true}}
	cands := testCandidates(1)

	d := newTestDriver(led, tr, 10)
	if _, err := d.Run(context.Background(), cands, map[string]string{}, nil); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	tr.failFor = nil
	sum, err := d.Run(context.Background(), cands, map[string]string{}, nil)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if sum.AlreadyContacted != 1 || sum.Sent != 0 {
		t.Fatalf("summary = %+v, want the failed recipient treated as handled", sum)
	}
}

func TestRunDryRunRecordsWithoutSending(t *testing.T) {
	t.Parallel()

	led := &fakeLedger{}
	tr := &fakeTransport{}
	d := newTestDriver(led, tr, 10)
	d.DryRun = true

	sum, err := d.Run(context.Background(), testCandidates(2), map[string]string{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.DryRun != 2 || sum.Sent != 0 {
		t.Fatalf("summary = %+v, want 2 dry runs", sum)
	}
	if len(tr.sent) != 0 {
		t.Fatal("transport was called in dry-run mode")
	}
	for _, r := range led.records {
		if r.Status != domain.StatusDryRun {
			t.Fatalf("record %+v, want dry_run", r)
		}
	}
}

func TestRunNilTransportDegradesToDryRun(t *testing.T) {
	t.Parallel()

	led := &fakeLedger{}
	d := newTestDriver(led, nil, 10)

	sum, err := d.Run(context.Background(), testCandidates(1), map[string]string{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.DryRun != 1 {
		t.Fatalf("summary = %+v, want 1 dry run without a transport", sum)
	}
}

func TestRunSuppressedRecipientGetsOneSkippedRecord(t *testing.T) {
	t.Parallel()

	led := &fakeLedger{}
	tr := &fakeTransport{}
	d := newTestDriver(led, tr, 10)
	d.Suppressed = map[string]bool{"r1@x.com": true}

	cands := testCandidates(3)
	sum, err := d.Run(context.Background(), cands, map[string]string{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Suppressed != 1 || sum.Sent != 2 {
		t.Fatalf("summary = %+v, want 1 suppressed, 2 sent", sum)
	}
	if led.records[1].Status != domain.StatusSkipped {
		t.Fatalf("records[1] = %+v, want skipped", led.records[1])
	}

	// A second run treats the suppressed address as handled.
	sum, err = d.Run(context.Background(), cands, map[string]string{}, nil)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if sum.AlreadyContacted != 3 || sum.Suppressed != 0 {
		t.Fatalf("second run summary = %+v", sum)
	}
}

func TestRunPersonalizeErrorRecordsFailed(t *testing.T) {
	t.Parallel()

	led := &fakeLedger{}
	tr := &fakeTransport{}
	d := newTestDriver(led, tr, 10)
	d.Personalizer = &fakePersonalizer{failFor: map[string]bool{"Recruiter 0": true}}

	sum, err := d.Run(context.Background(), testCandidates(2), map[string]string{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Failed != 1 || sum.Sent != 1 {
		t.Fatalf("summary = %+v, want 1 failed, 1 sent", sum)
	}
	if len(tr.sent) != 1 {
		t.Fatalf("transport calls = %d, want 1", len(tr.sent))
	}
}

func TestRunUsesJobContextForCompany(t *testing.T) {
	t.Parallel()

	var gotCtx personalize.Context
	capturing := personalizerFunc(func(_ context.Context, pctx personalize.Context) (personalize.Message, error) {
		gotCtx = pctx
		return personalize.Message{Subject: "s", Body: "b"}, nil
	})

	led := &fakeLedger{}
	d := newTestDriver(led, &fakeTransport{}, 10)
	d.Personalizer = capturing

	cands := testCandidates(1)
	companies := map[string]string{"Recruiter 0": "XCo"}
	jobs := domain.JobIndex{"XCo": {CompanyName: "XCo", Title: "Platform Engineer", Location: "Austin, TX"}}

	if _, err := d.Run(context.Background(), cands, companies, jobs); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if gotCtx.CompanyName != "XCo" || gotCtx.JobTitle != "Platform Engineer" || gotCtx.Location != "Austin, TX" {
		t.Fatalf("context = %+v", gotCtx)
	}
	if gotCtx.RecruiterRole != "Recruiter" {
		t.Fatalf("RecruiterRole = %q, want Recruiter", gotCtx.RecruiterRole)
	}
}

func TestRunFallsBackToPlaceholderContext(t *testing.T) {
	t.Parallel()

	var gotCtx personalize.Context
	capturing := personalizerFunc(func(_ context.Context, pctx personalize.Context) (personalize.Message, error) {
		gotCtx = pctx
		return personalize.Message{Subject: "s", Body: "b"}, nil
	})

	led := &fakeLedger{}
	d := newTestDriver(led, &fakeTransport{}, 10)
	d.Personalizer = capturing

	if _, err := d.Run(context.Background(), testCandidates(1), map[string]string{}, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if gotCtx.JobTitle != "open role" || gotCtx.Location != "the United States" {
		t.Fatalf("context = %+v, want placeholder job context", gotCtx)
	}
}

func TestRunCancelledContextReturnsRemaining(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	led := &fakeLedger{}
	d := newTestDriver(led, &fakeTransport{}, 10)

	sum, err := d.Run(ctx, testCandidates(4), map[string]string{}, nil)
	if err == nil {
		t.Fatal("Run() error = nil with a cancelled context")
	}
	if sum.Remaining != 4 {
		t.Fatalf("Remaining = %d, want 4", sum.Remaining)
	}
	if len(led.records) != 0 {
		t.Fatalf("ledger rows = %d, want 0", len(led.records))
	}
}

func TestRunLedgerAppendErrorDoesNotAbort(t *testing.T) {
	t.Parallel()

	led := &fakeLedger{appendErr: errors.New("disk full")}
	tr := &fakeTransport{}
	d := newTestDriver(led, tr, 10)

	sum, err := d.Run(context.Background(), testCandidates(2), map[string]string{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Sent != 2 {
		t.Fatalf("summary = %+v, want both candidates attempted", sum)
	}
}

type personalizerFunc func(ctx context.Context, pctx personalize.Context) (personalize.Message, error)

func (f personalizerFunc) Personalize(ctx context.Context, pctx personalize.Context) (personalize.Message, error) {
	return f(ctx, pctx)
}
