package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-notify-nosql/internal/config"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/mrz1836/postmark"
)

type templatedClient interface {
	SendTemplatedEmail(ctx context.Context, email postmark.TemplatedEmail) (postmark.EmailResponse, error)
}

type postmarkSender struct {
	client templatedClient
	from   string
}

// NewPostmark creates a Postmark-backed sender.
func NewPostmark(cfg config.Email) (Sender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: SenderEmail is required", ErrInvalidConfig)
	}
	return &postmarkSender{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		from:   cfg.SenderEmail,
	}, nil
}

func (s *postmarkSender) SendTemplate(ctx context.Context, msg domain.EmailMessage) error {
	if msg.To == "" || msg.TemplateAlias == "" {
		return fmt.Errorf("%w: recipient and template alias are required", ErrFailedToSend)
	}
	model := make(map[string]interface{}, len(msg.Data)+1)
	for k, v := range msg.Data {
		model[k] = v
	}
	model["subject"] = msg.Subject

	resp, err := s.client.SendTemplatedEmail(ctx, postmark.TemplatedEmail{
		TemplateAlias: msg.TemplateAlias,
		TemplateModel: model,
		From:          s.from,
		To:            msg.To,
		Tag:           msg.Tag,
		TrackOpens:    true,
	})
	if err != nil {
		return errors.Join(ErrFailedToSend, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrFailedToSend, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
