package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"outreach-engine/internal/collect"
	"outreach-engine/internal/collect/greenhouse"
	"outreach-engine/internal/collect/lever"
	"outreach-engine/internal/config"
	"outreach-engine/internal/domain"
	"outreach-engine/internal/enrich"
	"outreach-engine/internal/export"
	"outreach-engine/internal/ledger"
	"outreach-engine/internal/logging"
	"outreach-engine/internal/mailer"
	"outreach-engine/internal/outreach"
	"outreach-engine/internal/personalize"
	"outreach-engine/internal/scheduler"
	"outreach-engine/internal/secrets"
	"outreach-engine/internal/store"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "path to config.yml (default: <data-dir>/config.yml, bootstrapped on first run)")
		dataDir = flag.String("data-dir", defaultDataDir(), "directory for the database, ledger and exports")
		dryRun  = flag.Bool("dry-run", false, "log every send instead of delivering it")
		every   = flag.Duration("every", 0, "run on an interval instead of once (e.g. 24h)")

		savePasswords   = flag.Bool("save-passwords", false, "store SMTP_PASSWORD/IMAP_PASSWORD from the environment in the OS keychain and exit")
		forgetPasswords = flag.Bool("forget-passwords", false, "remove stored SMTP/IMAP passwords from the OS keychain and exit")
	)
	flag.Parse()

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "data dir: %v\n", err)
		os.Exit(1)
	}

	userCfgPath := *cfgPath
	if userCfgPath == "" {
		p, err := config.EnsureUserConfig(*dataDir, filepath.Join("config", "config.yml"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "config bootstrap failed: %v\n", err)
			os.Exit(1)
		}
		userCfgPath = p
	}

	cfg, err := config.Load(userCfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed (%s): %v\n", userCfgPath, err)
		os.Exit(1)
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "env overrides: %v\n", err)
		os.Exit(1)
	}

	cfg, validation := config.NormalizeAndValidate(cfg)

	logger, err := logging.New(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	for _, w := range validation.Warnings {
		logger.Warn("config warning", zap.String("detail", w))
	}
	if !validation.OK() {
		for _, e := range validation.Errors {
			logger.Error("config error", zap.String("detail", e))
		}
		logger.Fatal("invalid configuration", zap.String("path", userCfgPath))
	}

	if *savePasswords || *forgetPasswords {
		managePasswords(cfg, *savePasswords, logger)
		return
	}

	fillSecrets(&cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(filepath.Join(*dataDir, "outreach.db"))
	if err != nil {
		logger.Fatal("open job store", zap.Error(err))
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		logger.Fatal("migrate job store", zap.Error(err))
	}

	app := &application{
		cfg:     cfg,
		dataDir: *dataDir,
		dryRun:  *dryRun,
		db:      db,
		logger:  logger,
	}

	if *every > 0 {
		logger.Info("running on interval", zap.Duration("every", *every))
		scheduler.Every(ctx, *every, "outreach", logger, app.runOnce)
		return
	}

	if err := app.runOnce(ctx); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
}

func defaultDataDir() string {
	if d := os.Getenv("OUTREACH_DATA_DIR"); d != "" {
		return d
	}
	return "."
}

// managePasswords saves the env-provided passwords into the OS keychain, or
// removes the stored ones, then exits.
func managePasswords(cfg config.Config, save bool, logger *zap.Logger) {
	type account struct {
		name     string
		key      string
		password string
	}
	accounts := []account{
		{"smtp", secrets.SMTPKeyringAccount(cfg), cfg.SMTP.Password},
		{"imap", secrets.IMAPKeyringAccount(cfg), cfg.IMAP.Password},
	}
	for _, a := range accounts {
		if save {
			if a.password == "" {
				logger.Info("no password in environment, skipping", zap.String("account", a.name))
				continue
			}
			if err := secrets.SetPassword(a.key, a.password); err != nil {
				logger.Error("keychain save failed", zap.String("account", a.name), zap.Error(err))
				continue
			}
			logger.Info("password stored in keychain", zap.String("account", a.name))
			continue
		}
		if err := secrets.DeletePassword(a.key); err != nil {
			logger.Warn("keychain delete failed", zap.String("account", a.name), zap.Error(err))
			continue
		}
		logger.Info("password removed from keychain", zap.String("account", a.name))
	}
}

// fillSecrets pulls the SMTP and IMAP passwords from the OS keychain when
// the environment did not provide them. Missing passwords are not fatal:
// without SMTP credentials every send degrades to dry_run, and the bounce
// scan is simply skipped.
func fillSecrets(cfg *config.Config, logger *zap.Logger) {
	if cfg.SMTP.Password == "" && cfg.SMTP.Username != "" {
		if pw, err := secrets.GetPassword(secrets.SMTPKeyringAccount(*cfg)); err == nil {
			cfg.SMTP.Password = pw
		} else {
			logger.Info("no smtp password available, sends will be dry runs")
		}
	}
	if cfg.IMAP.Enabled && cfg.IMAP.Password == "" && cfg.IMAP.Username != "" {
		if pw, err := secrets.GetPassword(secrets.IMAPKeyringAccount(*cfg)); err == nil {
			cfg.IMAP.Password = pw
		} else {
			logger.Info("no imap password available, skipping bounce scan")
		}
	}
}

type application struct {
	cfg     config.Config
	dataDir string
	dryRun  bool
	db      *store.DB
	logger  *zap.Logger
}

// runOnce executes one full pipeline pass: collect postings, enrich them
// into email candidates, then drive the gated send batch.
func (a *application) runOnce(ctx context.Context) error {
	cfg := a.cfg
	logger := a.logger

	jobs, err := collect.Run(ctx, a.db.Pool, a.fetchers(), collect.RunOptions{USOnly: cfg.Filters.USOnly}, logger)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	jobIndex := domain.BuildJobIndex(jobs)

	if deleted, err := store.CleanupOldJobs(a.db.Pool); err != nil {
		logger.Warn("job store cleanup failed", zap.Error(err))
	} else if deleted > 0 {
		logger.Info("expired old postings", zap.Int64("deleted", deleted))
	}
	if total, err := store.CountJobs(ctx, a.db.Pool); err == nil {
		logger.Info("job store", zap.Int("total", total))
	}

	exportDir := filepath.Join(a.dataDir, "exports")
	if err := export.WriteCompaniesCSV(filepath.Join(exportDir, "companies.csv"), jobs); err != nil {
		logger.Warn("companies export failed", zap.Error(err))
	}
	if len(cfg.JobBoards) > 0 {
		if err := export.WriteJobBoardURLsCSV(filepath.Join(exportDir, "job_board_urls.csv"), cfg.JobBoards); err != nil {
			logger.Warn("job boards export failed", zap.Error(err))
		}
	}

	recruiters, candidates, companies := a.enrichCompanies(ctx, jobIndex)

	if err := export.WriteRecruitersCSV(filepath.Join(exportDir, "recruiters.csv"), recruiters); err != nil {
		logger.Warn("recruiters export failed", zap.Error(err))
	}
	if err := export.WriteEmailsCSV(filepath.Join(exportDir, "emails.csv"), candidates); err != nil {
		logger.Warn("emails export failed", zap.Error(err))
	}

	candidates = outreach.Dedupe(candidates)
	logger.Info("candidates ready",
		zap.Int("companies", len(jobIndex)),
		zap.Int("recruiters", len(recruiters)),
		zap.Int("candidates", len(candidates)),
	)

	ledgerPath := cfg.LedgerPath
	if ledgerPath == "" {
		ledgerPath = filepath.Join(a.dataDir, "email_log.csv")
	}
	led, err := ledger.Open(ledgerPath)
	if err != nil {
		if errors.Is(err, ledger.ErrLocked) {
			return fmt.Errorf("ledger %s is locked by another run", ledgerPath)
		}
		return fmt.Errorf("open ledger: %w", err)
	}
	defer led.Close()

	suppressed := a.scanBounces(ctx)

	templateDir := cfg.App.TemplateDir
	if templateDir == "" {
		templateDir = filepath.Join("config", "templates")
	}
	pers, err := personalize.New(templateDir)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	var transport outreach.Transport
	if smtpCfg, ok := mailer.SMTPConfigFrom(cfg); ok {
		transport = mailer.NewSender(smtpCfg, logger)
	} else {
		logger.Info("smtp not fully configured, running without a transport")
	}

	driver := &outreach.Driver{
		Ledger: led,
		Gate: outreach.RateGate{
			DailyLimit:             cfg.RateLimit.DailyLimit,
			MinSecondsBetweenSends: cfg.RateLimit.MinSecondsBetweenSends,
			ExemptDryRuns:          cfg.RateLimit.ExemptDryRuns,
		},
		Personalizer: pers,
		Transport:    transport,
		Footer:       personalize.UnsubscribeFooter{Text: cfg.Compliance.UnsubscribeText},
		Candidate: outreach.CandidateIdentity{
			Name:       cfg.Candidate.Name,
			Email:      cfg.Candidate.Email,
			Profile:    cfg.Candidate.Profile,
			ResumePath: cfg.Candidate.ResumePath,
		},
		Suppressed: suppressed,
		DryRun:     a.dryRun,
		Logger:     logger,
	}

	sum, err := driver.Run(ctx, candidates, companies, jobIndex)
	logger.Info("batch finished",
		zap.Int("sent", sum.Sent),
		zap.Int("dry_run", sum.DryRun),
		zap.Int("failed", sum.Failed),
		zap.Int("suppressed", sum.Suppressed),
		zap.Int("already_contacted", sum.AlreadyContacted),
		zap.Bool("stopped_at_limit", sum.Stopped),
		zap.Int("remaining", sum.Remaining),
	)
	return err
}

func (a *application) fetchers() []collect.Fetcher {
	var fetchers []collect.Fetcher
	if a.cfg.Sources.Greenhouse.Enabled {
		fetchers = append(fetchers, greenhouse.New(
			greenhouse.Config{Companies: toCollectCompanies(a.cfg.Sources.Greenhouse.Companies)},
			collect.NewHostLimiter(1.0, 2),
			a.logger,
		))
	}
	if a.cfg.Sources.Lever.Enabled {
		fetchers = append(fetchers, lever.New(
			lever.Config{Companies: toCollectCompanies(a.cfg.Sources.Lever.Companies)},
			collect.NewHostLimiter(1.0, 2),
			a.logger,
		))
	}
	return fetchers
}

// enrichCompanies walks the per-company job index, identifies recruiter
// contacts and expands them into scored email candidates. The returned
// companies map ties a recruiter name back to their company for the driver.
func (a *application) enrichCompanies(ctx context.Context, jobIndex domain.JobIndex) ([]domain.RecruiterContact, []domain.EmailCandidate, map[string]string) {
	identifier := enrich.NewIdentifier(collect.NewHostLimiter(1.0, 2), a.logger)
	scorer := &enrich.Validator{
		Host:    a.cfg.Probe.Host,
		Port:    a.cfg.Probe.Port,
		Timeout: time.Duration(a.cfg.Probe.TimeoutSeconds) * time.Second,
	}

	var (
		recruiters []domain.RecruiterContact
		candidates []domain.EmailCandidate
		companies  = map[string]string{}
	)
	for company, job := range jobIndex {
		if err := ctx.Err(); err != nil {
			break
		}

		contacts := identifier.Identify(ctx, company, job.CareersURL)
		recruiters = append(recruiters, contacts...)

		companyDomain := job.CompanyDomain
		if companyDomain == "" {
			if cached, err := store.GetCompanyDomain(ctx, a.db.Pool, company); err == nil {
				companyDomain = cached
			}
		}

		for _, contact := range contacts {
			companies[contact.RecruiterName] = company
			candidates = append(candidates,
				enrich.DiscoverFromCareersURL(ctx, contact.RecruiterName, job.CareersURL, scorer, companyDomain)...)
		}
	}
	return recruiters, candidates, companies
}

func (a *application) scanBounces(ctx context.Context) map[string]bool {
	cfg := a.cfg
	if !cfg.IMAP.Enabled || cfg.IMAP.Password == "" {
		return nil
	}
	scan := &mailer.BounceScan{
		Host:     cfg.IMAP.Host,
		Port:     cfg.IMAP.Port,
		Username: cfg.IMAP.Username,
		Password: cfg.IMAP.Password,
		Mailbox:  cfg.IMAP.Mailbox,
		Lookback: time.Duration(cfg.IMAP.LookbackDays) * 24 * time.Hour,
		Logger:   a.logger,
	}
	suppressed, err := scan.Suppressed(ctx)
	if err != nil {
		a.logger.Warn("bounce scan failed, continuing without suppression", zap.Error(err))
		return nil
	}
	return suppressed
}

func toCollectCompanies(in []config.Company) []collect.Company {
	out := make([]collect.Company, 0, len(in))
	for _, c := range in {
		out = append(out, collect.Company{
			Slug:       c.Slug,
			Name:       c.Name,
			Domain:     c.Domain,
			CareersURL: c.CareersURL,
		})
	}
	return out
}
