// Package personalize renders the outreach subject and body. It is pure
// from the driver's point of view: context in, message out.
package personalize

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
)

const templateName = "outreach_email.txt"

// Context carries everything a template may reference for one recipient.
type Context struct {
	CompanyName      string
	JobTitle         string
	Location         string
	RecruiterName    string
	RecruiterRole    string
	CandidateProfile string
	CandidateName    string
	CandidateEmail   string
}

type Message struct {
	Subject string
	Body    string
}

type Personalizer struct {
	tmpl *template.Template
}

// New parses the outreach template from templateDir. Parsing up front means
// rendering cannot fail on malformed templates mid-batch.
func New(templateDir string) (*Personalizer, error) {
	tmpl, err := template.ParseFiles(filepath.Join(templateDir, templateName))
	if err != nil {
		return nil, fmt.Errorf("parse outreach template: %w", err)
	}
	return &Personalizer{tmpl: tmpl}, nil
}

func (p *Personalizer) Personalize(_ context.Context, pctx Context) (Message, error) {
	subject := strings.TrimSpace(fmt.Sprintf("Interest in %s at %s", orDefault(pctx.JobTitle, "open role"), pctx.CompanyName))

	data := struct {
		Context
		Subject string
	}{Context: pctx, Subject: subject}

	var b strings.Builder
	if err := p.tmpl.Execute(&b, data); err != nil {
		return Message{}, fmt.Errorf("render outreach template: %w", err)
	}
	return Message{Subject: subject, Body: b.String()}, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
