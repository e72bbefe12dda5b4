// Package collect pulls open postings from ATS board APIs and turns them
// into the run's job set.
package collect

import (
	"context"

	"outreach-engine/internal/domain"
)

type Result struct {
	Source string
	Jobs   []domain.JobPosting
}

type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (Result, error)
}

type Company struct {
	Slug       string
	Name       string
	Domain     string
	CareersURL string
}
