// Package enrich turns collected postings into recruiter contacts and
// scored email candidates.
package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"outreach-engine/internal/collect"
	"outreach-engine/internal/domain"
)

// recruiterRe pairs a capitalized two-word name with a nearby recruiting
// keyword on the same line.
var recruiterRe = regexp.MustCompile(`([A-Z][a-z]+ [A-Z][a-z]+)[^\n]{0,60}(?i:(recruiter|talent acquisition|hr|human resources))`)

type Identifier struct {
	hc      *http.Client
	limiter *collect.HostLimiter
	logger  *zap.Logger
}

func NewIdentifier(limiter *collect.HostLimiter, logger *zap.Logger) *Identifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Identifier{
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
		logger:  logger,
	}
}

// Identify scans a public careers page for recruiter names. It only ever
// reads publicly available pages, and always returns at least a generic
// hiring-team contact so downstream discovery has something to work with.
func (i *Identifier) Identify(ctx context.Context, companyName, careersURL string) []domain.RecruiterContact {
	fallback := []domain.RecruiterContact{{
		CompanyName:   companyName,
		RecruiterName: "Hiring Team",
		Role:          "Recruiting",
		ProfileURL:    careersURL,
		Source:        "careers_page",
	}}

	text, err := i.pageText(ctx, careersURL)
	if err != nil {
		i.logger.Debug("careers page fetch failed",
			zap.String("company", companyName),
			zap.String("url", careersURL),
			zap.Error(err),
		)
		return fallback
	}

	source := hostOf(careersURL)
	var out []domain.RecruiterContact
	for _, m := range recruiterRe.FindAllStringSubmatch(text, -1) {
		out = append(out, domain.RecruiterContact{
			CompanyName:   companyName,
			RecruiterName: collect.CleanText(m[1]),
			Role:          collect.CleanText(m[2]),
			ProfileURL:    careersURL,
			Source:        source,
		})
	}

	if len(out) == 0 {
		fallback[0].Source = source
		return fallback
	}
	return out
}

func (i *Identifier) pageText(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "OutreachEngine/1.0 (+local)")

	if i.limiter != nil {
		if err := i.limiter.WaitURL(ctx, rawURL); err != nil {
			return "", err
		}
	}

	res, err := i.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return "", fmt.Errorf("careers page status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return "", err
	}
	return doc.Find("body").Text(), nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
