package enrich

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-smtp"
)

// Confidence tiers for guessed addresses. The probe is a liveness check of
// the configured relay, not a mailbox verification, so the scores stay
// deliberately coarse.
const (
	scoreInvalid  = 0.0
	scoreNoProbe  = 0.5
	scoreProbeOK  = 0.7
	scoreProbeBad = 0.4
)

// Validator scores syntactic validity, optionally backed by an SMTP NOOP
// probe. A nil Validator or empty Host skips the probe.
type Validator struct {
	Host    string
	Port    int
	Timeout time.Duration
}

func (v *Validator) Score(_ context.Context, email string) float64 {
	if !emailRe.MatchString(email) {
		return scoreInvalid
	}
	if v == nil || v.Host == "" {
		return scoreNoProbe
	}

	port := v.Port
	if port == 0 {
		port = 25
	}
	timeout := v.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(v.Host, strconv.Itoa(port)), timeout)
	if err != nil {
		return scoreProbeBad
	}

	c := smtp.NewClient(conn)
	defer c.Close()
	c.CommandTimeout = timeout

	if err := c.Noop(); err != nil {
		return scoreProbeBad
	}
	return scoreProbeOK
}
