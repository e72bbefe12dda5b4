package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Netflix/go-env"
)

// envOverrides mirrors the environment knobs of the original deployment.
// Every field is optional; empty means "keep the YAML value".
type envOverrides struct {
	DailyLimit       string `env:"DAILY_EMAIL_LIMIT"`
	LedgerPath       string `env:"EMAIL_LOG_PATH"`
	CandidateName    string `env:"CANDIDATE_NAME"`
	CandidateEmail   string `env:"CANDIDATE_EMAIL"`
	CandidateProfile string `env:"CANDIDATE_PROFILE"`
	ResumePath       string `env:"RESUME_PATH"`

	SMTPHost        string `env:"SMTP_HOST"`
	SMTPPort        string `env:"SMTP_PORT"`
	SMTPUsername    string `env:"SMTP_USERNAME"`
	SMTPPassword    string `env:"SMTP_PASSWORD"`
	SMTPSenderName  string `env:"SMTP_SENDER_NAME"`
	SMTPSenderEmail string `env:"SMTP_SENDER_EMAIL"`

	IMAPPassword string `env:"IMAP_PASSWORD"`
}

// ApplyEnv overlays environment variables onto cfg. Env wins over YAML.
func ApplyEnv(cfg *Config) error {
	var ov envOverrides
	if _, err := env.UnmarshalFromEnviron(&ov); err != nil {
		return fmt.Errorf("read env overrides: %w", err)
	}

	if s := strings.TrimSpace(ov.DailyLimit); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("DAILY_EMAIL_LIMIT: %w", err)
		}
		cfg.RateLimit.DailyLimit = n
	}
	if ov.LedgerPath != "" {
		cfg.LedgerPath = ov.LedgerPath
	}
	if ov.CandidateName != "" {
		cfg.Candidate.Name = ov.CandidateName
	}
	if ov.CandidateEmail != "" {
		cfg.Candidate.Email = ov.CandidateEmail
	}
	if ov.CandidateProfile != "" {
		cfg.Candidate.Profile = ov.CandidateProfile
	}
	if ov.ResumePath != "" {
		cfg.Candidate.ResumePath = ov.ResumePath
	}

	if ov.SMTPHost != "" {
		cfg.SMTP.Host = ov.SMTPHost
	}
	if s := strings.TrimSpace(ov.SMTPPort); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("SMTP_PORT: %w", err)
		}
		cfg.SMTP.Port = n
	}
	if ov.SMTPUsername != "" {
		cfg.SMTP.Username = ov.SMTPUsername
	}
	if ov.SMTPPassword != "" {
		cfg.SMTP.Password = ov.SMTPPassword
	}
	if ov.SMTPSenderName != "" {
		cfg.SMTP.SenderName = ov.SMTPSenderName
	}
	if ov.SMTPSenderEmail != "" {
		cfg.SMTP.SenderEmail = ov.SMTPSenderEmail
	}

	if ov.IMAPPassword != "" {
		cfg.IMAP.Password = ov.IMAPPassword
	}

	return nil
}
