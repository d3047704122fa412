// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"fmt"
	"mime/quotedprintable"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Email is one outbound message. TextBody and HTMLBody are sent as
// multipart/alternative when both are set.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers email. The reminder worker depends on this
// interface so tests can swap in a recorder.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	addr string // host:port
	from string
	auth smtp.Auth
	log  *zap.Logger
}

// NewSMTPSender configures a sender for the given relay. Username may
// be empty for an unauthenticated relay.
func NewSMTPSender(host string, port int, username, password, from string, logger *zap.Logger) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
		auth: auth,
		log:  logger,
	}
}

func (s *SMTPSender) Send(ctx context.Context, e Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := buildMessage(s.from, e)
	if err != nil {
		return err
	}
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{e.To}, msg); err != nil {
		s.log.Warn("smtp send failed", zap.String("to", e.To), zap.Error(err))
		return err
	}
	return nil
}

const boundary = "taskflow-alt-boundary"

func buildMessage(from string, e Email) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", e.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	writePart := func(contentType, body string) error {
		fmt.Fprintf(&b, "Content-Type: %s; charset=utf-8\r\n", contentType)
		b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		qp := quotedprintable.NewWriter(&b)
		if _, err := qp.Write([]byte(body)); err != nil {
			return err
		}
		if err := qp.Close(); err != nil {
			return err
		}
		b.WriteString("\r\n")
		return nil
	}

	switch {
	case e.HTMLBody != "" && e.TextBody != "":
		fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		if err := writePart("text/plain", e.TextBody); err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		if err := writePart("text/html", e.HTMLBody); err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, "--%s--\r\n", boundary)
	case e.HTMLBody != "":
		if err := writePart("text/html", e.HTMLBody); err != nil {
			return nil, err
		}
	default:
		if err := writePart("text/plain", e.TextBody); err != nil {
			return nil, err
		}
	}
	return []byte(b.String()), nil
}
