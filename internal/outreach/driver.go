// Package outreach drives one batch pass over deduplicated email
// candidates: gate, personalize, send, log — one candidate at a time.
package outreach

import (
	"context"
	"time"

	"go.uber.org/zap"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/personalize"
)

// Ledger is the driver's view of the send history. The file-backed
// implementation lives in internal/ledger; tests use an in-memory one.
type Ledger interface {
	Contains(email string) bool
	Append(rec domain.SendRecord) error
	Records() []domain.SendRecord
}

// Transport delivers one message. A nil attachmentPath entry is handled by
// the transport itself (warn and send without).
type Transport interface {
	Send(ctx context.Context, recipient, subject, body, attachmentPath string) error
}

type Personalizer interface {
	Personalize(ctx context.Context, pctx personalize.Context) (personalize.Message, error)
}

// CandidateIdentity is the person the outreach is sent on behalf of.
type CandidateIdentity struct {
	Name       string
	Email      string
	Profile    string
	ResumePath string
}

type Driver struct {
	Ledger       Ledger
	Gate         RateGate
	Personalizer Personalizer
	// Transport nil means no mail configuration: every send becomes a
	// dry_run rather than an error.
	Transport Transport
	Footer    personalize.UnsubscribeFooter
	Candidate CandidateIdentity
	// Suppressed holds addresses that bounced previously; they get one
	// skipped record and are never attempted.
	Suppressed map[string]bool
	// DryRun forces dry_run even with a configured transport.
	DryRun bool
	Logger *zap.Logger

	// now is overridable for tests.
	now func() time.Time
}

type Summary struct {
	Sent             int
	DryRun           int
	Failed           int
	Suppressed       int
	AlreadyContacted int
	// Stopped means the gate closed and the remaining candidates were left
	// untouched for the next run.
	Stopped   bool
	Remaining int
}

// Run processes candidates in first-seen order. companies maps a recruiter
// name to their company; jobs provides per-company outreach context.
//
// Delivery is at-least-once: a crash after a successful transmit but
// before the ledger append re-sends that one recipient on the next run.
func (d *Driver) Run(ctx context.Context, candidates []domain.EmailCandidate, companies map[string]string, jobs domain.JobIndex) (Summary, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var sum Summary
	for i, cand := range candidates {
		if err := ctx.Err(); err != nil {
			sum.Remaining = len(candidates) - i
			return sum, err
		}

		// Handled in a previous run: no new record, no side effect.
		if d.Ledger.Contains(cand.Email) {
			sum.AlreadyContacted++
			continue
		}

		// Quota exhausted: hard stop, not skip-and-continue. Whatever is
		// left stays untouched for the next invocation.
		if !d.Gate.CanSend(d.Ledger.Records()) {
			sum.Stopped = true
			sum.Remaining = len(candidates) - i
			logger.Info("daily limit reached, stopping batch",
				zap.Int("limit", d.Gate.DailyLimit),
				zap.Int("remaining", sum.Remaining),
			)
			break
		}

		company := companies[cand.RecruiterName]

		if d.Suppressed[cand.Email] {
			sum.Suppressed++
			d.appendRecord(logger, cand.Email, company, domain.StatusSkipped)
			logger.Info("recipient suppressed by bounce scan", zap.String("email", cand.Email))
			continue
		}

		status := d.attempt(ctx, logger, cand, company, jobs)
		d.appendRecord(logger, cand.Email, company, status)

		switch status {
		case domain.StatusSent:
			sum.Sent++
		case domain.StatusDryRun:
			sum.DryRun++
		case domain.StatusFailed:
			sum.Failed++
		}
	}
	return sum, nil
}

// attempt resolves job context, personalizes and sends. It always returns
// a terminal status; a candidate can never abort the batch.
func (d *Driver) attempt(ctx context.Context, logger *zap.Logger, cand domain.EmailCandidate, company string, jobs domain.JobIndex) domain.SendStatus {
	jobTitle := "open role"
	location := "the United States"
	if job, ok := jobs[company]; ok {
		if job.Title != "" {
			jobTitle = job.Title
		}
		if job.Location != "" {
			location = job.Location
		}
	}

	msg, err := d.Personalizer.Personalize(ctx, personalize.Context{
		CompanyName:      company,
		JobTitle:         jobTitle,
		Location:         location,
		RecruiterName:    cand.RecruiterName,
		RecruiterRole:    "Recruiter",
		CandidateProfile: d.Candidate.Profile,
		CandidateName:    d.Candidate.Name,
		CandidateEmail:   d.Candidate.Email,
	})
	if err != nil {
		logger.Warn("personalize failed",
			zap.String("email", cand.Email),
			zap.String("company", company),
			zap.Error(err),
		)
		return domain.StatusFailed
	}

	body := msg.Body + d.Footer.Render()

	if d.DryRun || d.Transport == nil {
		logger.Info("dry run",
			zap.String("email", cand.Email),
			zap.String("company", company),
			zap.String("subject", msg.Subject),
		)
		return domain.StatusDryRun
	}

	if err := d.Transport.Send(ctx, cand.Email, msg.Subject, body, d.Candidate.ResumePath); err != nil {
		logger.Warn("send failed",
			zap.String("email", cand.Email),
			zap.String("company", company),
			zap.Error(err),
		)
		return domain.StatusFailed
	}

	logger.Info("sent",
		zap.String("email", cand.Email),
		zap.String("company", company),
		zap.Float64("confidence", cand.ConfidenceScore),
	)
	return domain.StatusSent
}

func (d *Driver) appendRecord(logger *zap.Logger, email, company string, status domain.SendStatus) {
	rec := domain.NewSendRecord(email, company, d.timeNow(), status)
	if err := d.Ledger.Append(rec); err != nil {
		// The in-memory view is already updated; worst case the durable
		// file misses a row and the recipient is re-attempted next run.
		logger.Error("ledger append failed",
			zap.String("email", email),
			zap.Error(err),
		)
	}
}

func (d *Driver) timeNow() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now()
}
