package mailer

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"
)

// buildMessage assembles an RFC 5322 message with a plain-text part and an
// optional attachment.
func buildMessage(senderName, senderEmail, recipient, subject, body, attachmentPath string, logger *zap.Logger) ([]byte, error) {
	var buf bytes.Buffer

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: senderName, Address: senderEmail}})
	h.SetAddressList("To", []*mail.Address{{Address: recipient}})
	h.SetSubject(subject)

	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, err
	}
	var th mail.InlineHeader
	th.Set("Content-Type", "text/plain; charset=utf-8")
	pw, err := tw.CreatePart(th)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(pw, body); err != nil {
		return nil, err
	}
	if err := pw.Close(); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}

	if attachmentPath != "" {
		if err := attachFile(mw, attachmentPath, logger); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func attachFile(mw *mail.Writer, path string, logger *zap.Logger) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		// Attachment missing: warn and send without it.
		logger.Warn("attachment not found, sending without it", zap.String("path", path))
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	ctype := mime.TypeByExtension(filepath.Ext(path))
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	var ah mail.AttachmentHeader
	ah.Set("Content-Type", ctype)
	ah.SetFilename(filepath.Base(path))

	aw, err := mw.CreateAttachment(ah)
	if err != nil {
		return err
	}
	if _, err := io.Copy(aw, f); err != nil {
		return err
	}
	return aw.Close()
}
