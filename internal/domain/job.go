package domain

import "time"

type JobPosting struct {
	CompanyName   string
	Title         string
	Location      string
	CareersURL    string
	CompanyDomain string
	SourceID      string // greenhouse:<slug>:<id> etc., dedupe key in the store
	PostedAt      *time.Time
	Source        string // greenhouse/lever/job_board
}

// JobIndex maps a company name to the posting used for outreach context.
// First posting per company wins; built once per run.
type JobIndex map[string]JobPosting

func BuildJobIndex(jobs []JobPosting) JobIndex {
	idx := make(JobIndex, len(jobs))
	for _, j := range jobs {
		if _, ok := idx[j.CompanyName]; !ok {
			idx[j.CompanyName] = j
		}
	}
	return idx
}
