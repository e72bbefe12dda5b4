// Package export writes the pipeline's intermediate artifacts as CSV so
// they can be inspected or fed to other tools.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"outreach-engine/internal/config"
	"outreach-engine/internal/domain"
)

func WriteCompaniesCSV(path string, jobs []domain.JobPosting) error {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{j.CompanyName, j.Title, j.Location, j.CareersURL, j.CompanyDomain})
	}
	return writeCSV(path, []string{"company_name", "job_title", "location", "careers_url", "company_domain"}, rows)
}

func WriteRecruitersCSV(path string, recruiters []domain.RecruiterContact) error {
	rows := make([][]string, 0, len(recruiters))
	for _, r := range recruiters {
		rows = append(rows, []string{r.CompanyName, r.RecruiterName, r.Role, r.ProfileURL, r.Source})
	}
	return writeCSV(path, []string{"company_name", "recruiter_name", "role", "profile_url", "source"}, rows)
}

func WriteEmailsCSV(path string, candidates []domain.EmailCandidate) error {
	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, []string{
			c.RecruiterName,
			c.Email,
			strconv.FormatFloat(c.ConfidenceScore, 'f', 2, 64),
			c.Source,
		})
	}
	return writeCSV(path, []string{"recruiter_name", "email", "confidence_score", "source"}, rows)
}

func WriteJobBoardURLsCSV(path string, boards []config.JobBoard) error {
	rows := make([][]string, 0, len(boards))
	for _, b := range boards {
		rows = append(rows, []string{b.Name, b.SearchURL, b.Note})
	}
	return writeCSV(path, []string{"name", "search_url", "note"}, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}
