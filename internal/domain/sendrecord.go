package domain

import (
	"fmt"
	"strings"
	"time"
)

// SendStatus is the terminal outcome of one outreach attempt.
type SendStatus string

const (
	StatusSent    SendStatus = "sent"
	StatusDryRun  SendStatus = "dry_run"
	StatusFailed  SendStatus = "failed"
	StatusSkipped SendStatus = "skipped"
)

func (s SendStatus) String() string { return string(s) }

func (s SendStatus) IsValid() bool {
	switch s {
	case StatusSent, StatusDryRun, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

func ParseSendStatus(s string) (SendStatus, error) {
	st := SendStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("invalid send status %q", s)
	}
	return st, nil
}

// SendRecord is one row of the send ledger. Timestamp stays a string:
// it is written as RFC 3339 UTC and compared by date prefix, never parsed.
type SendRecord struct {
	Email     string
	Company   string
	Timestamp string
	Status    SendStatus
}

func NewSendRecord(email, company string, at time.Time, status SendStatus) SendRecord {
	return SendRecord{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Company:   company,
		Timestamp: at.UTC().Format(time.RFC3339),
		Status:    status,
	}
}

// SentOn reports whether the record falls on the given UTC calendar day.
func (r SendRecord) SentOn(day time.Time) bool {
	return strings.HasPrefix(r.Timestamp, day.UTC().Format("2006-01-02"))
}
