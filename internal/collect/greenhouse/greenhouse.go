package greenhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"outreach-engine/internal/collect"
	"outreach-engine/internal/domain"
)

type Config struct {
	Companies []collect.Company
}

type Collector struct {
	cfg     Config
	hc      *http.Client
	limiter *collect.HostLimiter
	logger  *zap.Logger

	// baseURL is overridable for tests.
	baseURL string
}

func New(cfg Config, limiter *collect.HostLimiter, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
		logger:  logger,
		baseURL: "https://boards-api.greenhouse.io",
	}
}

func (c *Collector) Name() string { return "greenhouse" }

type boardResponse struct {
	Jobs []struct {
		ID          int64  `json:"id"`
		Title       string `json:"title"`
		CompanyName string `json:"company_name"`
		AbsoluteURL string `json:"absolute_url"`
		Location    struct {
			Name string `json:"name"`
		} `json:"location"`
		UpdatedAt string `json:"updated_at"`
	} `json:"jobs"`
}

func (c *Collector) Fetch(ctx context.Context) (collect.Result, error) {
	var out []domain.JobPosting
	for _, co := range c.cfg.Companies {
		jobs, err := c.fetchCompany(ctx, co)
		if err != nil {
			// one broken board must not fail the whole run
			c.logger.Warn("greenhouse fetch failed",
				zap.String("slug", co.Slug),
				zap.Error(err),
			)
			continue
		}
		out = append(out, jobs...)
	}
	c.logger.Info("greenhouse collected", zap.Int("jobs", len(out)))
	return collect.Result{Source: "greenhouse", Jobs: out}, nil
}

func (c *Collector) fetchCompany(ctx context.Context, co collect.Company) ([]domain.JobPosting, error) {
	apiURL := fmt.Sprintf("%s/v1/boards/%s/jobs", c.baseURL, co.Slug)

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	req.Header.Set("User-Agent", "OutreachEngine/1.0 (+local)")

	if c.limiter != nil {
		if err := c.limiter.WaitURL(ctx, apiURL); err != nil {
			return nil, err
		}
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("greenhouse get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("greenhouse status %d", res.StatusCode)
	}

	var payload boardResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("greenhouse decode: %w", err)
	}

	careersURL := co.CareersURL
	if careersURL == "" {
		careersURL = fmt.Sprintf("https://boards.greenhouse.io/%s", co.Slug)
	}

	out := make([]domain.JobPosting, 0, len(payload.Jobs))
	for _, j := range payload.Jobs {
		if j.ID == 0 || strings.TrimSpace(j.Title) == "" {
			continue
		}
		company := strings.TrimSpace(j.CompanyName)
		if company == "" {
			company = co.Name
		}
		var postedAt *time.Time
		if t, err := time.Parse(time.RFC3339, j.UpdatedAt); err == nil {
			postedAt = &t
		}
		out = append(out, domain.JobPosting{
			CompanyName:   company,
			Title:         collect.CleanText(j.Title),
			Location:      collect.CleanText(j.Location.Name),
			CareersURL:    careersURL,
			CompanyDomain: co.Domain,
			SourceID:      "greenhouse:" + co.Slug + ":" + strconv.FormatInt(j.ID, 10),
			PostedAt:      postedAt,
			Source:        "greenhouse",
		})
	}
	return out, nil
}
