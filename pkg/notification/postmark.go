package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

type postmarkSender struct {
	client *postmark.Client
	cfg    Config
}

// NewPostmarkSender creates a Postmark-backed code sender. All credentials
// and sender addresses are required so a misconfigured deployment fails at
// startup rather than at the first signup.
func NewPostmarkSender(cfg Config) (CodeSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if !ValidEmail(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if !ValidEmail(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", ErrInvalidConfig)
	}

	return &postmarkSender{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		cfg:    cfg,
	}, nil
}

// SendVerificationCode sends the code as a short transactional email.
// Link tracking is off: the mail contains a secret.
func (s *postmarkSender) SendVerificationCode(ctx context.Context, email, code string) error {
	if !ValidEmail(email) {
		return ErrInvalidRecipient
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.cfg.SenderEmail,
		ReplyTo:  s.cfg.SupportEmail,
		To:       email,
		Subject:  fmt.Sprintf("%s verification code: %s", s.cfg.ProductName, code),
		Tag:      "signup-verification",
		TextBody: fmt.Sprintf("Your %s verification code is %s. It expires in 15 minutes.", s.cfg.ProductName, code),
	})
	if err != nil {
		return errors.Join(ErrFailedToSendCode, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrFailedToSendCode,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
