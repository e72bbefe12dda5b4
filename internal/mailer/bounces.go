package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"
)

const maxBounceMessages = 200

var bounceSubjects = []string{
	"undeliver",
	"delivery status",
	"delivery failure",
	"failure notice",
	"returned mail",
	"mail delivery",
}

var addrRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// BounceScan reads the sender's mailbox for recent non-delivery reports
// and extracts the addresses that bounced, so the driver can suppress
// them before wasting quota.
type BounceScan struct {
	Host     string
	Port     int
	Username string
	Password string
	Mailbox  string
	Lookback time.Duration
	Logger   *zap.Logger
}

// Suppressed returns the set of addresses that appear in recent bounce
// messages. Lowercased; the account's own address is excluded.
func (b *BounceScan) Suppressed(ctx context.Context) (map[string]bool, error) {
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	addr := net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: b.Host,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}

	defer func() {
		if err := c.Logout().Wait(); err != nil {
			logger.Debug("imap logout", zap.Error(err))
		}
		_ = c.Close()
	}()

	if err := c.Login(b.Username, b.Password).Wait(); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}

	mailbox := b.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := c.Select(mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %s: %w", mailbox, err)
	}

	lookback := b.Lookback
	if lookback <= 0 {
		lookback = 30 * 24 * time.Hour
	}
	criteria := &imap.SearchCriteria{
		Since: time.Now().Add(-lookback),
	}

	searchData, err := c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return map[string]bool{}, nil
	}

	// Newest first, capped.
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > maxBounceMessages {
		uids = uids[:maxBounceMessages]
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	fetchCmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	own := strings.ToLower(strings.TrimSpace(b.Username))
	suppressed := map[string]bool{}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		var from, subject string
		if buf.Envelope != nil {
			subject = buf.Envelope.Subject
			if len(buf.Envelope.From) > 0 {
				from = buf.Envelope.From[0].Addr()
			}
		}
		if !looksLikeBounce(from, subject) {
			continue
		}

		raw := buf.FindBodySection(bodyAll)
		for _, hit := range addrRe.FindAllString(string(raw), -1) {
			hit = strings.ToLower(hit)
			if hit == own || strings.HasPrefix(hit, "mailer-daemon@") || strings.HasPrefix(hit, "postmaster@") {
				continue
			}
			suppressed[hit] = true
		}
	}

	if err := fetchCmd.Close(); err != nil && !errors.Is(err, ctx.Err()) {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}

	logger.Info("bounce scan done",
		zap.Int("messages", len(uids)),
		zap.Int("suppressed", len(suppressed)),
	)
	return suppressed, nil
}

func looksLikeBounce(from, subject string) bool {
	f := strings.ToLower(from)
	if strings.HasPrefix(f, "mailer-daemon@") || strings.HasPrefix(f, "postmaster@") {
		return true
	}
	s := strings.ToLower(subject)
	for _, needle := range bounceSubjects {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
