package email

import (
	"context"
	"fmt"
	"net/smtp"
	"sort"
	"strings"

	"github.com/go-notify-nosql/internal/config"
	"github.com/go-notify-nosql/internal/domain"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// smtpSender renders the template data as plain text. Used for local
// development against a mail catcher.
type smtpSender struct {
	host     string
	port     string
	from     string
	username string
	password string
	send     sendMailFunc
}

func NewSMTP(cfg config.Email) Sender {
	return &smtpSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SenderEmail,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		send:     smtp.SendMail,
	}
}

func (m *smtpSender) SendTemplate(ctx context.Context, msg domain.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	if err := m.send(addr, auth, m.from, []string{msg.To}, m.render(msg)); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSend, err)
	}
	return nil
}

func (m *smtpSender) render(msg domain.EmailMessage) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n", m.from, msg.To, msg.Subject)
	fmt.Fprintf(&b, "template: %s\r\n", msg.TemplateAlias)
	keys := make([]string, 0, len(msg.Data))
	for k := range msg.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if msg.Data[k] == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\r\n", k, msg.Data[k])
	}
	return []byte(b.String())
}
