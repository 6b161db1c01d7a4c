// Package email sends templated transactional email through Postmark, or
// through plain SMTP when no Postmark token is configured.
package email

import (
	"context"
	"errors"

	"github.com/go-notify-nosql/internal/config"
	"github.com/go-notify-nosql/internal/domain"
)

var (
	ErrInvalidConfig = errors.New("invalid email configuration")
	ErrFailedToSend  = errors.New("failed to send email")
)

// Sender delivers one templated email.
type Sender interface {
	SendTemplate(ctx context.Context, msg domain.EmailMessage) error
}

// New picks Postmark when a server token is configured, otherwise SMTP.
func New(cfg config.Email) (Sender, error) {
	if cfg.PostmarkServerToken != "" {
		return NewPostmark(cfg)
	}
	return NewSMTP(cfg), nil
}
