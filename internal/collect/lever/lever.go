package lever

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
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
		baseURL: "https://api.lever.co",
	}
}

func (c *Collector) Name() string { return "lever" }

type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	HostedURL  string `json:"hostedUrl"`
	CreatedAt  int64  `json:"createdAt"` // ms epoch
	Categories struct {
		Location string `json:"location"`
	} `json:"categories"`
}

func (c *Collector) Fetch(ctx context.Context) (collect.Result, error) {
	const workers = 8

	companies := c.cfg.Companies
	jobsCh := make(chan []domain.JobPosting, len(companies))
	workCh := make(chan collect.Company)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for co := range workCh {
				cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
				jobs, err := c.fetchCompany(cctx, co)
				cancel()

				if err != nil {
					c.logger.Warn("lever fetch failed",
						zap.String("slug", co.Slug),
						zap.Error(err),
					)
					continue
				}
				if len(jobs) > 0 {
					jobsCh <- jobs
				}
			}
		}()
	}

	go func() {
		defer close(workCh)
		for _, co := range companies {
			select {
			case <-ctx.Done():
				return
			case workCh <- co:
			}
		}
	}()

	wg.Wait()
	close(jobsCh)

	var out []domain.JobPosting
	for batch := range jobsCh {
		out = append(out, batch...)
	}

	c.logger.Info("lever collected", zap.Int("jobs", len(out)))
	return collect.Result{Source: "lever", Jobs: out}, nil
}

func (c *Collector) fetchCompany(ctx context.Context, co collect.Company) ([]domain.JobPosting, error) {
	apiURL := fmt.Sprintf("%s/v0/postings/%s?mode=json", c.baseURL, co.Slug)

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	req.Header.Set("User-Agent", "OutreachEngine/1.0 (+local)")

	if c.limiter != nil {
		if err := c.limiter.WaitURL(ctx, apiURL); err != nil {
			return nil, err
		}
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lever get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("lever status %d", res.StatusCode)
	}

	var postings []leverPosting
	if err := json.NewDecoder(res.Body).Decode(&postings); err != nil {
		return nil, fmt.Errorf("lever decode: %w", err)
	}

	careersURL := co.CareersURL
	if careersURL == "" {
		careersURL = fmt.Sprintf("https://jobs.lever.co/%s", co.Slug)
	}

	out := make([]domain.JobPosting, 0, len(postings))
	for _, p := range postings {
		if p.ID == "" || strings.TrimSpace(p.Text) == "" {
			continue
		}
		var postedAt *time.Time
		if p.CreatedAt > 0 {
			t := time.UnixMilli(p.CreatedAt)
			postedAt = &t
		}
		out = append(out, domain.JobPosting{
			CompanyName:   co.Name,
			Title:         collect.CleanText(p.Text),
			Location:      collect.CleanText(p.Categories.Location),
			CareersURL:    careersURL,
			CompanyDomain: co.Domain,
			SourceID:      fmt.Sprintf("lever:%s:%s", co.Slug, p.ID),
			PostedAt:      postedAt,
			Source:        "lever",
		})
	}
	return out, nil
}
