package notification

import (
	"context"
	"regexp"
)

// CodeSender delivers a one-time verification code to a prospective admin.
type CodeSender interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// Config holds Postmark credentials and sender identity.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"NOTIFICATION_SENDER_EMAIL"`
	SupportEmail         string `env:"NOTIFICATION_SUPPORT_EMAIL"`
	ProductName          string `env:"NOTIFICATION_PRODUCT_NAME" envDefault:"Launderly"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether s looks like a deliverable address.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}
