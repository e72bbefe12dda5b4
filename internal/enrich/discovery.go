package enrich

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"outreach-engine/internal/domain"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Scorer assigns a deliverability confidence to a guessed address.
type Scorer interface {
	Score(ctx context.Context, email string) float64
}

// DiscoverEmails generates common address patterns for a recruiter at a
// company domain and scores each one. Generic mailboxes (hr@, careers@)
// are always included.
func DiscoverEmails(ctx context.Context, recruiterName, companyDomain string, scorer Scorer) []domain.EmailCandidate {
	first, last := nameParts(recruiterName)

	var guesses []string
	if first != "" && last != "" {
		guesses = append(guesses,
			fmt.Sprintf("%s.%s@%s", first, last, companyDomain),
			fmt.Sprintf("%s@%s", first, companyDomain),
		)
	}
	guesses = append(guesses,
		"hr@"+companyDomain,
		"careers@"+companyDomain,
	)

	out := make([]domain.EmailCandidate, 0, len(guesses))
	for _, guess := range guesses {
		normalized := strings.ToLower(guess)
		if !emailRe.MatchString(normalized) {
			continue
		}
		out = append(out, domain.EmailCandidate{
			RecruiterName:   recruiterName,
			Email:           normalized,
			ConfidenceScore: scorer.Score(ctx, normalized),
			Source:          "pattern_match",
		})
	}
	return out
}

// DiscoverFromCareersURL resolves the company domain (explicit, guessed
// from an ATS slug, or the careers host itself) and delegates to
// DiscoverEmails.
func DiscoverFromCareersURL(ctx context.Context, recruiterName, careersURL string, scorer Scorer, companyDomain string) []domain.EmailCandidate {
	domainName := strings.ToLower(strings.TrimSpace(companyDomain))
	if domainName == "" {
		domainName = GuessDomainFromATS(careersURL)
	}
	if domainName == "" {
		domainName = hostOf(careersURL)
	}
	return DiscoverEmails(ctx, recruiterName, domainName, scorer)
}

// GuessDomainFromATS maps a hosted board URL to a likely company domain:
// boards.greenhouse.io/<slug> and jobs.lever.co/<slug> become <slug>.com.
func GuessDomainFromATS(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	if !strings.Contains(host, "greenhouse.io") && !strings.Contains(host, "lever.co") {
		return ""
	}
	slug := strings.Trim(u.Path, "/")
	if i := strings.Index(slug, "/"); i >= 0 {
		slug = slug[:i]
	}
	if slug == "" {
		return ""
	}
	return slug + ".com"
}

func nameParts(name string) (first, last string) {
	parts := strings.Fields(strings.TrimSpace(name))
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], parts[len(parts)-1]
	}
}
