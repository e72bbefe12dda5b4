package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Company struct {
	Slug       string `yaml:"slug"`
	Name       string `yaml:"name"`
	Domain     string `yaml:"company_domain"`
	CareersURL string `yaml:"careers_url"`
}

type JobBoard struct {
	Name      string `yaml:"name"`
	SearchURL string `yaml:"search_url"`
	Note      string `yaml:"note"`
}

type Config struct {
	App struct {
		DataDir     string `yaml:"data_dir"`
		LogLevel    string `yaml:"log_level"`
		TemplateDir string `yaml:"template_dir"`
	} `yaml:"app"`

	Sources struct {
		Greenhouse struct {
			Enabled   bool      `yaml:"enabled"`
			Companies []Company `yaml:"companies"`
		} `yaml:"greenhouse"`
		Lever struct {
			Enabled   bool      `yaml:"enabled"`
			Companies []Company `yaml:"companies"`
		} `yaml:"lever"`
	} `yaml:"sources"`

	JobBoards []JobBoard `yaml:"job_boards"`

	Filters struct {
		USOnly bool `yaml:"us_only"`
	} `yaml:"filters"`

	RateLimit struct {
		DailyLimit int `yaml:"daily_limit"`
		// Accepted for config compatibility; pacing between sends is not
		// enforced anywhere.
		MinSecondsBetweenSends int `yaml:"min_seconds_between_sends"`
		// When true, dry_run records do not consume daily quota.
		ExemptDryRuns bool `yaml:"exempt_dry_runs"`
	} `yaml:"rate_limit"`

	Compliance struct {
		UnsubscribeText string `yaml:"unsubscribe_text"`
	} `yaml:"compliance"`

	Candidate struct {
		Name       string `yaml:"name"`
		Email      string `yaml:"email"`
		Profile    string `yaml:"profile"`
		ResumePath string `yaml:"resume_path"`
	} `yaml:"candidate"`

	SMTP struct {
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		Username    string `yaml:"username"`
		SenderName  string `yaml:"sender_name"`
		SenderEmail string `yaml:"sender_email"`
		// Password comes from SMTP_PASSWORD or the OS keychain, never YAML.
		Password string `yaml:"-"`
	} `yaml:"smtp"`

	IMAP struct {
		Enabled      bool   `yaml:"enabled"`
		Host         string `yaml:"host"`
		Port         int    `yaml:"port"`
		Username     string `yaml:"username"`
		Mailbox      string `yaml:"mailbox"`
		LookbackDays int    `yaml:"lookback_days"`
		Password     string `yaml:"-"`
	} `yaml:"imap"`

	Probe struct {
		Host           string `yaml:"host"`
		Port           int    `yaml:"port"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"probe"`

	LedgerPath string `yaml:"ledger_path"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
