package outreach

import (
	"strings"

	"outreach-engine/internal/domain"
)

// Dedupe drops later occurrences of an address, keeping first-seen order.
// The first occurrence wins even when a later one carries a different
// score or recruiter name.
func Dedupe(candidates []domain.EmailCandidate) []domain.EmailCandidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]domain.EmailCandidate, 0, len(candidates))
	for _, c := range candidates {
		key := strings.ToLower(strings.TrimSpace(c.Email))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
