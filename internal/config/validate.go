package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus everything wrong or
// suspicious about it. Errors abort startup; warnings are just logged.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimCompanies := func(xs []Company) []Company {
		seen := map[string]bool{}
		var ys []Company
		for _, x := range xs {
			x.Slug = strings.TrimSpace(x.Slug)
			x.Name = strings.TrimSpace(x.Name)
			x.Domain = strings.ToLower(strings.TrimSpace(x.Domain))
			if x.Slug == "" {
				continue
			}
			if x.Name == "" {
				x.Name = x.Slug
			}
			key := strings.ToLower(x.Slug)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Sources.Greenhouse.Companies = trimCompanies(out.Sources.Greenhouse.Companies)
	out.Sources.Lever.Companies = trimCompanies(out.Sources.Lever.Companies)

	// ---- Validation rules ----

	if out.RateLimit.DailyLimit <= 0 {
		res.addErr("rate_limit.daily_limit must be > 0")
	}
	if out.RateLimit.MinSecondsBetweenSends < 0 {
		res.addErr("rate_limit.min_seconds_between_sends must be >= 0")
	}

	if !out.Sources.Greenhouse.Enabled && !out.Sources.Lever.Enabled {
		res.addWarn("no ATS sources enabled; run will have no jobs to work from")
	}
	if out.Sources.Greenhouse.Enabled && len(out.Sources.Greenhouse.Companies) == 0 {
		res.addWarn("greenhouse enabled but sources.greenhouse.companies is empty")
	}
	if out.Sources.Lever.Enabled && len(out.Sources.Lever.Companies) == 0 {
		res.addWarn("lever enabled but sources.lever.companies is empty")
	}

	if strings.TrimSpace(out.Compliance.UnsubscribeText) == "" {
		res.addWarn("compliance.unsubscribe_text is empty; outgoing mail will carry a bare footer")
	}

	// SMTP is optional (missing settings mean dry-run mode), but a half
	// filled block is almost always a mistake.
	smtpFields := []string{out.SMTP.Host, out.SMTP.Username, out.SMTP.SenderEmail}
	filled := 0
	for _, f := range smtpFields {
		if strings.TrimSpace(f) != "" {
			filled++
		}
	}
	if filled > 0 && filled < len(smtpFields) {
		res.addWarn("smtp block is partially configured; sends will degrade to dry_run")
	}
	if out.SMTP.Port < 0 || out.SMTP.Port > 65535 {
		res.addErr("smtp.port must be 0..65535")
	}

	if out.IMAP.Enabled {
		if strings.TrimSpace(out.IMAP.Host) == "" {
			res.addErr("imap.host is required when imap.enabled=true")
		}
		if out.IMAP.Port == 0 {
			res.addErr("imap.port is required when imap.enabled=true")
		}
		if strings.TrimSpace(out.IMAP.Username) == "" {
			res.addErr("imap.username is required when imap.enabled=true")
		}
		if strings.TrimSpace(out.IMAP.Mailbox) == "" {
			out.IMAP.Mailbox = "INBOX"
		}
		if out.IMAP.LookbackDays <= 0 {
			out.IMAP.LookbackDays = 30
		}
	}

	if out.Probe.Host != "" && out.Probe.Port == 0 {
		out.Probe.Port = 25
	}
	if out.Probe.TimeoutSeconds <= 0 {
		out.Probe.TimeoutSeconds = 10
	}

	return out, res
}
